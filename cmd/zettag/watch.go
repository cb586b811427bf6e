package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zettelware/zettag/pkg/zettag"
	"github.com/zettelware/zettag/pkg/zettag/vault"
)

var watchCmd = &cobra.Command{
	Use:   "watch [vault]",
	Short: "Watch the vault and keep the index fresh",
	Long: `Watch runs a full scan, then follows filesystem changes: edited and
created notes are rescanned, deleted notes drop out of the index.
Runs until interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vaultArg := ""
		if len(args) == 1 {
			vaultArg = args[0]
		}
		cfg, err := loadConfig(cmd, vaultArg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		eng, err := newEngine(ctx, cfg)
		if err != nil {
			return err
		}
		defer eng.Close()

		v, err := openVault(cfg)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()

		// Catch up before following changes.
		vs, err := eng.ScanVault(ctx, v, nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "indexed %d notes, %d tags; watching %s\n",
			vs.Files, vs.Tags, v.Root())

		logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
		debounce := time.Duration(cfg.Watch.DebounceMS) * time.Millisecond
		w, err := vault.NewWatcher(v, debounce, logger)
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer w.Close()

		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-w.Events():
				if !ok {
					return nil
				}
				if err := applyEvent(ctx, eng, v, ev, out); err != nil {
					fmt.Fprintf(out, "%s: %v\n", ev.Path, err)
				}
			}
		}
	},
}

// applyEvent maps one watch event onto the index.
func applyEvent(ctx context.Context, eng *zettag.Engine, v *vault.Vault, ev vault.Event, out io.Writer) error {
	if ev.Op == vault.OpRemove {
		if err := eng.RemoveNote(ctx, ev.Path); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: removed\n", ev.Path)
		return nil
	}

	content, err := os.ReadFile(v.Abs(ev.Path))
	if err != nil {
		return err
	}
	stats, err := eng.ScanNote(ctx, ev.Path, string(content))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %d tags\n", ev.Path, stats.Tags)
	return nil
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
