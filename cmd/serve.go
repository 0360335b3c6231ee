package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/asmitswain/portfolio/internal/portfolio"
	"github.com/asmitswain/portfolio/internal/server"
	"github.com/asmitswain/portfolio/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	content, err := portfolio.LoadFile(cfg.ContentPath)
	if err != nil {
		return errors.Wrap(err, "load content")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.AdminPassword == "" {
		logger.Warn("admin_password not set; admin area disabled")
	}
	if cfg.RelayURL == "" && (cfg.SMTPUser == "" || cfg.SMTPPass == "") {
		logger.Warn("no relay_url or SMTP credentials; contact submissions will fail")
	}

	srv, err := server.New(server.Deps{
		Config:  cfg,
		Content: content,
		DB:      db,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return srv.Maintain(gctx) })
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped", zap.Error(err))
		return err
	}
	return nil
}
