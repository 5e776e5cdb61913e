// Command librarydesk is the lending desk console: a numbered menu over stdin and stdout for
// registering books and patrons, lending, returning and reservation queues.
//
// Nothing is persisted. Logs go to stderr.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pkg/errors"

	"github.com/AntonStoeckl/lendingdesk/eventstore/memoryengine"
	"github.com/AntonStoeckl/lendingdesk/eventstore/sqliteengine"
	"github.com/AntonStoeckl/lendingdesk/library/engine"
	"github.com/AntonStoeckl/lendingdesk/library/ledger"
	"github.com/AntonStoeckl/lendingdesk/library/shell/config"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "librarydesk: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) error {
	flags := flag.NewFlagSet("librarydesk", flag.ContinueOnError)
	flags.SetOutput(stderr)
	envFile := flags.String("env-file", "", "path to a .env file (default: ./.env if present)")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}

		return err
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		return errors.Wrap(err, "loading config")
	}

	logger, err := cfg.NewLogger(stderr)
	if err != nil {
		return errors.Wrap(err, "building logger")
	}

	ctx := context.Background()

	store, closeStore, err := openLedgerStore(ctx, cfg, logger)
	if err != nil {
		return errors.Wrapf(err, "starting %s ledger engine", cfg.LedgerEngine)
	}
	defer closeStore()

	l, err := ledger.New(store)
	if err != nil {
		return errors.Wrap(err, "creating ledger")
	}

	desk, err := engine.New(l, engine.WithContextualLogger(logger), engine.WithFeePolicy(cfg.FeePolicy))
	if err != nil {
		return errors.Wrap(err, "creating lending desk")
	}

	logger.Info("lending desk started", "ledger_engine", string(cfg.LedgerEngine))

	return NewMenu(desk, stdin, stdout).Run(ctx)
}

func openLedgerStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (ledger.EventStore, func(), error) {
	switch cfg.LedgerEngine {
	case config.LedgerEngineSQLite:
		db, err := config.SQLiteSQLXInMemoryConfig(ctx)
		if err != nil {
			return nil, nil, err
		}

		store, err := sqliteengine.NewEventStoreFromSQLX(ctx, db, sqliteengine.WithLogger(logger))
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}

		return store, func() { _ = db.Close() }, nil

	default:
		store, err := memoryengine.NewEventStore(memoryengine.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}

		return store, func() {}, nil
	}
}
