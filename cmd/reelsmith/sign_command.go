package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"reelsmith/internal/blobstore"
	"reelsmith/internal/publish"
)

func newSignCommand(ctx *commandContext) *cobra.Command {
	var expiryHours int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "sign <key-or-url>",
		Short: "Produce a signed, time-limited artifact URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := blobstore.Open(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("open blob store: %w", err)
			}
			defer store.Close()

			signer, err := publish.NewSigner(cfg.Publish.SigningSecret, store, cfg.Publish.BaseURL, cfg.Publish.LocalDir)
			if err != nil {
				return err
			}
			if expiryHours <= 0 {
				expiryHours = cfg.Publish.ExpiryHours
			}

			published, err := signer.PublishVideo(cmd.Context(), args[0], expiryHours)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, published)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, published.SignedURL)
			fmt.Fprintf(out, "Mode: %s, expires %s\n", published.Mode, published.ExpiresAt.Local().Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().IntVar(&expiryHours, "expiry-hours", 0, "Signed URL lifetime in hours (default from config)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

func newFlushCredentialsCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "flush-credentials",
		Short:       "Wipe vendor credentials from the process environment",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			wiped := publish.FlushCredentials(nil)
			fmt.Fprintf(cmd.OutOrStdout(), "Wiped %d credential variables\n", wiped)
			return nil
		},
	}
}
