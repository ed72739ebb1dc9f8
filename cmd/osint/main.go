package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Camprch/osint-tool/internal/aggregate"
	"github.com/Camprch/osint-tool/internal/api"
	"github.com/Camprch/osint-tool/internal/config"
	"github.com/Camprch/osint-tool/internal/fetch"
	"github.com/Camprch/osint-tool/internal/geo"
	"github.com/Camprch/osint-tool/internal/llm"
	"github.com/Camprch/osint-tool/internal/pipeline"
	"github.com/Camprch/osint-tool/internal/store"
)

var (
	cfgPath string
	dbPath  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "osint",
		Short: "OSINT event pipeline and dashboard API",
	}

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config path (default: "+config.DefaultConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (overrides config)")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(pruneCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(cfgPath)
}

func getStore(cfg *config.Config) (*store.Store, error) {
	path := cfg.GetDBPath()
	if dbPath != "" {
		path = dbPath
	}
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	return store.New(path)
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one ingestion cycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			s, err := getStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			client, err := llm.New(cfg.LLM.Provider, cfg.LLM.Model, cfg.LLMKey())
			if err != nil {
				return err
			}

			fetcher := fetch.NewHTTPFetcher(
				cfg.Fetch.ExportURL,
				fetch.ParseSources(cfg.Fetch.Sources),
				cfg.LookbackDuration(),
				cfg.GetMaxPerChannel(),
			)

			p := pipeline.New(
				fetcher,
				pipeline.NewTranslator(client, cfg.GetBatchSize()),
				pipeline.NewEnricher(client, cfg.GetBatchSize()),
				s,
				cfg.RetentionDuration(),
			)

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return p.Run(ctx)
		},
	}
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			s, err := getStore(cfg)
			if err != nil {
				return err
			}
			// Note: don't defer s.Close() as server runs indefinitely

			table, err := geo.LoadAliasTable(cfg.Geo.Dataset)
			if err != nil {
				return err
			}

			agg := aggregate.New(s, geo.NewResolver(table), cfg.GetMessagingHost())

			if addr == "" {
				addr = cfg.Server.Addr
			}
			server := api.New(agg, addr)
			return server.Run()
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "server address (overrides config)")
	return cmd
}

func pruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete events older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			s, err := getStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			cutoff := time.Now().UTC().Add(-cfg.RetentionDuration())
			n, err := s.DeleteOlderThan(cutoff)
			if err != nil {
				return err
			}
			fmt.Printf("Pruned %d events older than %s\n", n, cutoff.Format("2006-01-02"))
			return nil
		},
	}
}
