package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/rsms-admin/internal/mockapi"
)

var mockAPICmd = &cobra.Command{
	Use:   "mock-api",
	Short: "Start the in-memory records API",
	Long:  `Start a local records API with a seeded admin account, for development`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		lg := setupLogger(cfg, os.Stdout)

		srv, err := mockapi.New(mockapi.Options{
			JWTSecret:       cfg.MockAPI.JWTSecret,
			TokenTTL:        cfg.MockAPI.TokenTTL,
			AdminUsername:   cfg.MockAPI.AdminUsername,
			AdminPassword:   cfg.MockAPI.AdminPassword,
			DefaultPassword: cfg.MockAPI.DefaultPassword,
			Logger:          lg,
		})
		if err != nil {
			return fmt.Errorf("failed to build mock api: %w", err)
		}

		addr := fmt.Sprintf(":%d", cfg.MockAPI.Port)
		server := &http.Server{
			Addr:              addr,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			lg.Info("mock records api listening", "address", addr, "admin", cfg.MockAPI.AdminUsername)
			errCh <- server.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case err := <-errCh:
			if err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		}
	},
}
