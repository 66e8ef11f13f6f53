package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"reelsmith/internal/blobstore"
	"reelsmith/internal/daemon"
	"reelsmith/internal/logging"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the reelsmith daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logPath := filepath.Join(cfg.Paths.LogDir, "reelsmith.log")
			logger, err := logging.New(logging.Options{
				Level:            cfg.Logging.Level,
				Format:           cfg.Logging.Format,
				OutputPaths:      []string{"stdout", logPath},
				ErrorOutputPaths: []string{"stderr", logPath},
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			store, err := blobstore.Open(signalCtx, cfg)
			if err != nil {
				logger.Error("open blob store", logging.Error(err))
				return err
			}

			d, err := daemon.New(cfg, store, logger, nil)
			if err != nil {
				store.Close()
				return fmt.Errorf("create daemon: %w", err)
			}
			defer d.Close()

			if err := d.Start(signalCtx); err != nil {
				return err
			}

			<-signalCtx.Done()
			logger.Info("reelsmith daemon shutting down")
			return nil
		},
	}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiClient) error {
				status, err := client.Status()
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, status)
				}

				rows := [][]string{
					{"Running", yesNo(status.Running)},
					{"Store backend", status.StoreBackend},
					{"Active runs", fmt.Sprintf("%d", status.ActiveRuns)},
					{"Ledger write failures", fmt.Sprintf("%d", status.LedgerWriteFailures)},
					{"Lock file", status.LockFilePath},
				}
				for _, tool := range status.Tools {
					value := tool.Command
					if !tool.Available {
						value = tool.Detail
					}
					rows = append(rows, []string{tool.Name, value})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}
