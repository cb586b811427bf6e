package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/zettelware/zettag/pkg/zettag/tag"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index totals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, "")
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		ix, err := openIndex(ctx, cfg)
		if err != nil {
			return err
		}
		defer ix.Close()

		st, err := ix.Stats(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "notes: %d\ntags:  %d\n", st.Files, st.Tags)

		kinds := make([]tag.Kind, 0, len(st.ByKind))
		for k := range st.ByKind {
			kinds = append(kinds, k)
		}
		sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
		for _, k := range kinds {
			fmt.Fprintf(out, "  %-9s %d\n", k.String(), st.ByKind[k])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
