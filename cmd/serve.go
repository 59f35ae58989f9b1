package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/curation-cli/internal/config"
	"github.com/sells-group/curation-cli/internal/model"
	"github.com/sells-group/curation-cli/internal/rank"
	"github.com/sells-group/curation-cli/internal/registry"
	"github.com/sells-group/curation-cli/internal/server"
	"github.com/sells-group/curation-cli/internal/session"
	"github.com/sells-group/curation-cli/pkg/notion"
	"github.com/sells-group/curation-cli/pkg/similarity"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the review API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		reg, err := loadRegistry(ctx, cfg)
		if err != nil {
			return err
		}

		var sim session.SimilarityProvider
		if cfg.Similarity.BaseURL != "" {
			sim = similarity.NewClient(cfg.Similarity.BaseURL, cfg.Similarity.Key,
				similarity.WithRateLimit(cfg.Similarity.RequestsPerSec))
		} else {
			zap.L().Warn("serve: no similarity service configured, candidates stay in source order")
		}

		sessions := session.NewManager(reg, rank.Policy{IncludeDiagonal: cfg.Similarity.IncludeDiagonal}, sim)
		srv := server.New(st, sessions, server.Options{
			AssetsBaseURL: cfg.Server.AssetsBaseURL,
			CORSOrigins:   cfg.Server.CORSOrigins,
			Autosave:      cfg.Autosave,
		})
		defer srv.Shutdown()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		httpSrv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: srv.Router(),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			httpSrv.Shutdown(context.Background())
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// loadRegistry resolves the field registry: Notion override, then YAML
// file, then the built-in default set.
func loadRegistry(ctx context.Context, cfg *config.Config) (*model.FieldRegistry, error) {
	if cfg.Notion.Token != "" && cfg.Notion.FieldDB != "" {
		client := notion.NewClient(cfg.Notion.Token)
		reg, err := registry.LoadFromNotion(ctx, client, cfg.Notion.FieldDB)
		if err != nil {
			return nil, err
		}
		zap.L().Info("field registry loaded from notion", zap.Int("fields", len(reg.Fields)))
		return reg, nil
	}
	if cfg.Registry.Path != "" {
		reg, err := registry.LoadFile(cfg.Registry.Path)
		if err != nil {
			return nil, err
		}
		zap.L().Info("field registry loaded from file",
			zap.String("path", cfg.Registry.Path),
			zap.Int("fields", len(reg.Fields)),
		)
		return reg, nil
	}
	return model.DefaultRegistry(), nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
