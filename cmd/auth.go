package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/rsms-admin/internal/session"
	"github.com/frahmantamala/rsms-admin/internal/userapi"
)

var (
	loginUsername string
	loginPassword string
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Session commands",
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session token",
	Long:  `Log in to the records API and write the returned token to the configured token file`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		lg := setupLogger(cfg, os.Stderr)

		client := userapi.NewClient(userapi.Config{
			BaseURL: cfg.RecordsAPI.BaseURL,
			Timeout: cfg.RecordsAPI.Timeout,
		}, nil, lg)

		resp, err := client.Login(cmd.Context(), loginUsername, loginPassword)
		if err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "✗ %s\n", errorMessage(err))
			return fmt.Errorf("%w: %v", errReported, err)
		}

		file := session.File{Path: cfg.Session.TokenFile}
		if err := file.Save(resp.Token); err != nil {
			return fmt.Errorf("failed to store token: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Login berhasil, token disimpan di %s\n", file.Path)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "password")
	_ = loginCmd.MarkFlagRequired("username")
	_ = loginCmd.MarkFlagRequired("password")

	authCmd.AddCommand(loginCmd)
}
