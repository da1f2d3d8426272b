package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/friendpin/friendpin-backend/config"
	"github.com/friendpin/friendpin-backend/internal/auth"
	"github.com/friendpin/friendpin-backend/internal/bootstrap"
	"github.com/friendpin/friendpin-backend/internal/logger"
	"github.com/friendpin/friendpin-backend/internal/storage"
)

var (
	backendFlag    string
	collectionFlag string
	verboseFlag    bool
	rootCmd        = &cobra.Command{
		Use:           "friendctl",
		Short:         "Maintenance commands for the friendpin user store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&backendFlag, "backend", "b", "", "Store backend (overrides STORE_BACKEND)")
	rootCmd.PersistentFlags().StringVarP(&collectionFlag, "collection", "c", "", "Collection name (overrides STORE_COLLECTION)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "V", false, "Log at debug level")

	rootCmd.AddCommand(newSeedCmd(), newDumpCmd(), newReconcileCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// withStore loads the configuration, opens the selected store and passes it
// to fn with a logger attached to ctx.
func withStore(ctx context.Context, fn func(ctx context.Context, st storage.Store) error) error {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	if backendFlag != "" {
		cfg.Store.Backend = backendFlag
	}
	if collectionFlag != "" {
		cfg.Store.Collection = collectionFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := cfg.App.LogLevel
	if verboseFlag {
		level = zerolog.LevelDebugValue
	}
	log := logger.NewWithWriter(os.Stderr, "friendctl", level)
	ctx = log.WithContext(ctx)

	var fb *auth.App
	if cfg.Store.Backend == config.BackendFirestore {
		var err error
		if fb, err = auth.InitializeFirebase(ctx, &cfg.Firebase); err != nil {
			return err
		}
	}

	st, err := bootstrap.OpenStore(ctx, cfg, fb, log)
	if err != nil {
		return err
	}
	defer st.Close()

	return fn(ctx, st)
}
