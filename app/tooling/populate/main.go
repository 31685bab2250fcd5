// This program populates a ledger node with synthetic car ownership
// chains for demos.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/carledger/business/core/seeder"
	"github.com/ardanlabs/carledger/foundation/ledger"
	"github.com/ardanlabs/carledger/foundation/logger"
	"github.com/ardanlabs/conf/v3"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Progress goes to stdout so the logs are written to stderr.
	log, err := logger.New("POPULATE", "stderr")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Errorw("populate", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Ledger struct {
			URL     string        `conf:"default:http://localhost:9984"`
			Timeout time.Duration `conf:"default:10s"`
		}
		Seed struct {
			Cars        int    `conf:"default:25"`
			Random      uint64 `conf:"default:0"`
			Designer    string `conf:"default:Sergio Tillenham"`
			DesignerKey string
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "populates a ledger with car ownership chains",
		},
	}

	const prefix = "POPULATE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "version", build, "config", out)

	// =========================================================================
	// Designer Identity

	// The designer signs every CREATE. Without a key file a fresh keypair is
	// generated for the run.
	var keys ledger.Keypair
	switch cfg.Seed.DesignerKey {
	case "":
		if keys, err = ledger.GenerateKeypair(); err != nil {
			return err
		}
	default:
		if keys, err = ledger.LoadKeypair(cfg.Seed.DesignerKey); err != nil {
			return err
		}
	}
	log.Infow("startup", "designer", cfg.Seed.Designer, "publickey", keys.PublicKey)

	// =========================================================================
	// Seeding

	cln := ledger.NewClient(cfg.Ledger.URL, ledger.WithHTTPClient(&http.Client{
		Timeout: cfg.Ledger.Timeout,
	}))

	s, err := seeder.New(seeder.Config{
		Ledger:   cln,
		Sampler:  seeder.NewFakeSampler(cfg.Seed.Random),
		Designer: seeder.Identity{Name: cfg.Seed.Designer, Keys: keys},
		EvHandler: func(v string, args ...any) {
			fmt.Printf(v+"\n", args...)
		},
	})
	if err != nil {
		return fmt.Errorf("constructing seeder: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	chains, err := s.Run(ctx, cfg.Seed.Cars)
	if err != nil {
		return fmt.Errorf("seeding: %w", err)
	}

	total := 0
	for _, chain := range chains {
		total += 1 + len(chain.Transfers)
	}
	log.Infow("completed", "cars", len(chains), "transactions", total, "since", time.Since(start))

	return nil
}
