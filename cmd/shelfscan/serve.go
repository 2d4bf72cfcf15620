package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ironsheep/shelfscan/internal/config"
	"github.com/ironsheep/shelfscan/internal/logger"
	"github.com/ironsheep/shelfscan/internal/pipeline"
	"github.com/ironsheep/shelfscan/internal/server"
	"github.com/ironsheep/shelfscan/internal/transport"
)

func newMCPCmd(flags *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the detector as an MCP server over stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			logger.WithFields(logrus.Fields{
				"version": Version,
				"commit":  GitCommit,
				"backend": cfg.Backend,
				"ocr":     cfg.UseOCR,
			}).Debug("starting MCP server")

			s := pipeline.NewSession(cfg)
			defer s.Close()
			return server.New(s).Run()
		},
	}
}

func newServeCmd(flags *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the detector over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			return serveHTTP(cfg)
		},
	}
	cmd.Flags().StringVar(&flags.addr, "addr", config.Default().HTTPAddr, "listen address")
	return cmd
}

func serveHTTP(cfg *config.Config) error {
	s := pipeline.NewSession(cfg)
	defer s.Close()
	s.Start()

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           transport.NewHandler(s, cfg.MaxUploadBytes),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"address": cfg.HTTPAddr,
			"backend": cfg.Backend,
			"ocr":     cfg.UseOCR,
		}).Info("Starting HTTP server")

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-quit:
	}

	logger.Logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return err
	}

	logger.Logger.Info("Server exited")
	return nil
}
