package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zettelware/zettag/pkg/zettag"
)

var indexVerbose bool

var indexCmd = &cobra.Command{
	Use:   "index [vault]",
	Short: "Scan the vault and rebuild the tag index",
	Long: `Index walks the vault, extracts every matching note's tag records
and replaces the index contents. Records for notes that no longer
exist are pruned.`,
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

		ctx := cmd.Context()
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
		report := func(path string, stats zettag.ScanStats, err error) {
			switch {
			case err != nil:
				fmt.Fprintf(out, "%s: %v\n", path, err)
			case indexVerbose:
				fmt.Fprintf(out, "%s: %d tags\n", path, stats.Tags)
			}
		}

		vs, err := eng.ScanVault(ctx, v, report)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "indexed %d notes, %d tags", vs.Files, vs.Tags)
		if vs.Failed > 0 {
			fmt.Fprintf(out, ", %d failed", vs.Failed)
		}
		if vs.Removed > 0 {
			fmt.Fprintf(out, ", %d pruned", vs.Removed)
		}
		fmt.Fprintln(out)

		if vs.Failed > 0 {
			return fmt.Errorf("%d notes failed", vs.Failed)
		}
		return nil
	},
}

func init() {
	indexCmd.Flags().BoolVarP(&indexVerbose, "verbose", "v", false, "print every note as it is scanned")
	rootCmd.AddCommand(indexCmd)
}
