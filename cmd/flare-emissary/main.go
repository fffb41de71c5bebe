// Command flare-emissary runs the block poller and alert pipeline for
// one or more configured chains (spec §5). Grounded on the teacher's
// urfave/cli entrypoint shape, wiring config, store, cooldown, hysteresis
// and the alert pipeline together before launching one poller goroutine
// per chain under an errgroup.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/mangekyou-labs/flare-emissary/internal/addrcache"
	"github.com/mangekyou-labs/flare-emissary/internal/alertpipeline"
	"github.com/mangekyou-labs/flare-emissary/internal/api"
	"github.com/mangekyou-labs/flare-emissary/internal/chain"
	"github.com/mangekyou-labs/flare-emissary/internal/config"
	"github.com/mangekyou-labs/flare-emissary/internal/cooldown"
	"github.com/mangekyou-labs/flare-emissary/internal/decode"
	"github.com/mangekyou-labs/flare-emissary/internal/hysteresis"
	"github.com/mangekyou-labs/flare-emissary/internal/metrics"
	"github.com/mangekyou-labs/flare-emissary/internal/poller"
	"github.com/mangekyou-labs/flare-emissary/internal/store"
)

func main() {
	app := &cli.App{
		Name:  "flare-emissary",
		Usage: "index Flare/Songbird FTSO, FDC and FAsset events and fire subscription alerts",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "chains", Usage: "comma-separated chains to poll (flare, songbird)", Value: "flare"},
			&cli.BoolFlag{Name: "permissive", Usage: "fall back to the generic decoder for unrecognized logs"},
			&cli.StringFlag{Name: "listen-addr", Value: ":8080", Usage: "address for the health/metrics/debug HTTP server"},
			&cli.StringSliceFlag{Name: "contract-address", Usage: "restrict log filtering to these addresses (repeatable)"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Crit("flare-emissary exited", "error", err)
	}
}

func run(cctx *cli.Context) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(cfg.DBMaxConnections)
	}

	st := store.New(db)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := st.AutoMigrate(ctx); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	cache, err := addrcache.New(st, 4096)
	if err != nil {
		return fmt.Errorf("address cache: %w", err)
	}

	hysteresisEngine := hysteresis.New()
	cooldownEngine := cooldown.New(redisClient)
	processor := alertpipeline.New(st, hysteresisEngine, cooldownEngine, cache)

	registry := decode.NewStrict()
	if cctx.Bool("permissive") {
		registry = decode.NewPermissive()
	}

	contractAddresses := parseAddresses(cctx.StringSlice("contract-address"))

	router := api.NewRouter(st, cfg.JWTSecret)
	srv := &http.Server{Addr: cctx.String("listen-addr"), Handler: router}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("api server stopped", "error", err)
		}
	}()
	defer srv.Shutdown(context.Background())

	chains, err := parseChains(cctx.String("chains"))
	if err != nil {
		return err
	}

	group, gctx := errgroup.WithContext(ctx)
	for _, c := range chains {
		c := c
		client, err := dialWithFallback(gctx, cfg)
		if err != nil {
			return fmt.Errorf("dial %s rpc: %w", c, err)
		}
		oracle := poller.NewEthClientOracle(client)

		p := poller.New(c, oracle, st, processor, registry, int(cfg.ReorgWindow), cfg.PollInterval,
			poller.WithContractAddresses(contractAddresses))

		group.Go(func() error {
			log.Info("starting poller", "chain", c)
			if err := p.Run(gctx); err != nil && gctx.Err() == nil {
				return fmt.Errorf("poller for %s: %w", c, err)
			}
			return nil
		})
	}

	group.Go(func() error {
		return reportHysteresisGauge(gctx, hysteresisEngine, chains)
	})

	return group.Wait()
}

// reportHysteresisGauge periodically publishes the in-progress streak
// count so operators can see subscriptions approaching their threshold
// (spec §7 observability surface).
func reportHysteresisGauge(ctx context.Context, engine *hysteresis.Engine, chains []chain.Network) error {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			tracked := float64(engine.TrackedCount())
			for _, c := range chains {
				metrics.HysteresisTrackedSubscriptions.WithLabelValues(c.String()).Set(tracked)
			}
		}
	}
}

func parseChains(raw string) ([]chain.Network, error) {
	var out []chain.Network
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		c := chain.Network(part)
		if !c.Valid() {
			return nil, fmt.Errorf("unsupported chain %q", part)
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no chains configured")
	}
	return out, nil
}

func parseAddresses(raw []string) []common.Address {
	out := make([]common.Address, 0, len(raw))
	for _, a := range raw {
		out = append(out, common.HexToAddress(a))
	}
	return out
}

// dialWithFallback tries the primary RPC endpoint first, falling back to
// FlareRPCFallbackURL when dialing it fails (spec §6: the fallback
// endpoint is only consulted on a primary-endpoint failure).
func dialWithFallback(ctx context.Context, cfg *config.Config) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, cfg.FlareRPCURL)
	if err == nil {
		return client, nil
	}
	if cfg.FlareRPCFallbackURL == "" {
		return nil, err
	}
	log.Warn("primary rpc dial failed, trying fallback", "primary_error", err)
	return ethclient.DialContext(ctx, cfg.FlareRPCFallbackURL)
}
