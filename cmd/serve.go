package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/adaptiq/internal/dedup"
	"github.com/abhisek/adaptiq/internal/engine"
	"github.com/abhisek/adaptiq/internal/metrics"
	"github.com/abhisek/adaptiq/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve sessions over HTTP",
	Long: `Start the HTTP API. Answers, session transitions and LLM calls are
recorded in the SQLite event store; per-session usage history is kept there
too unless --ephemeral is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		cat, err := loadCatalog(cmd)
		if err != nil {
			return err
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m := metrics.New(reg)

		var usage dedup.Store = st.UsageStore(logger)
		if ephemeral, _ := cmd.Flags().GetBool("ephemeral"); ephemeral {
			usage = dedup.NewMemoryStore()
		}

		ecfg := appCfg.Engine
		ecfg.Logger = logger
		ecfg.Recorder = m
		eng, err := engine.New(cat, usage, st.EventRepo(), ecfg)
		if err != nil {
			return fmt.Errorf("build engine: %w", err)
		}
		logger.Info("catalog loaded", zap.String("version", cat.Version()), zap.Int("templates", cat.Len()))

		scfg := server.Config{
			Addr:            appCfg.Server.Addr,
			Mode:            appCfg.Server.Mode,
			ShutdownTimeout: 5 * time.Second,
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			scfg.Addr = addr
		}
		srv := server.New(eng, scfg, server.Options{Logger: logger, Metrics: m, Gatherer: reg})
		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
	serveCmd.Flags().Bool("ephemeral", false, "Keep session usage history in memory only")
}
