package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/yigit/coursecake/internal/app/repositories"
	"github.com/yigit/coursecake/internal/app/services"
	"github.com/yigit/coursecake/internal/bootstrap"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "catalogctl",
	Short:         "catalogctl loads scraped course catalogs and queries them.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", bootstrap.DefaultConfigPath, "Path to the YAML config file.")
}

// ExecuteContext runs the command line and exits non-zero on failure
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openCatalog connects with the configured database. The returned pool must be closed.
func openCatalog(ctx context.Context) (services.CatalogService, *pgxpool.Pool, error) {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configPath)
	if err != nil {
		return nil, nil, err
	}
	pool, err := bootstrap.SetupDatabase(ctx, cfg, lgr)
	if err != nil {
		return nil, nil, err
	}
	catalog := services.NewCatalogService(pool, repositories.NewRepositories(pool), cfg.Ingest.BatchSize)
	return catalog, pool, nil
}
