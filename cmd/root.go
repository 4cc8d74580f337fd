package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/adaptiq/internal/catalog"
	"github.com/abhisek/adaptiq/internal/config"
	"github.com/abhisek/adaptiq/internal/logging"
	"github.com/abhisek/adaptiq/internal/store"
)

var (
	appCfg *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "adaptiq",
	Short: "Adaptive question generation engine",
	Long: `adaptiq serves questions from a template catalog, adapting difficulty and
lesson pacing to each learner's performance.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(config.Options{File: file})
		if err != nil {
			return err
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Log.Level = level
		}
		l, err := logging.New(cfg.Log)
		if err != nil {
			return err
		}
		appCfg, logger = cfg, l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default: ./adaptiq.yaml or ~/.config/adaptiq/adaptiq.yaml)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides db.path and ADAPTIQ_DB)")
	rootCmd.PersistentFlags().String("catalog", "", "Template catalog JSON file (overrides catalog.path)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(precompileCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then db.path from config, then ADAPTIQ_DB and the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if appCfg != nil && appCfg.DB.Path != "" {
		return appCfg.DB.Path, store.EnsureDir(appCfg.DB.Path)
	}
	return store.DefaultDBPath()
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// catalogPath returns the --catalog flag, then catalog.path from config.
// Empty means the embedded catalog.
func catalogPath(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("catalog"); p != "" {
		return p
	}
	if appCfg != nil {
		return appCfg.Catalog.Path
	}
	return ""
}

func loadCatalog(cmd *cobra.Command) (*catalog.Catalog, error) {
	p := catalogPath(cmd)
	if p == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.LoadFile(p)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return cat, nil
}
