package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/zettelware/zettag/pkg/zettag"
	"github.com/zettelware/zettag/pkg/zettag/zid"
)

var newCmd = &cobra.Command{
	Use:   "new [title...]",
	Short: "Create a note with a fresh identifier",
	Long: `New mints an identifier in the configured style, writes <id>.md at
the vault root with ready-to-fill frontmatter, and prints the path.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, "")
		if err != nil {
			return err
		}
		eng, err := zettag.New(zettag.Options{Config: cfg})
		if err != nil {
			return err
		}
		defer eng.Close()

		id := zid.New(cfg.IDStyle()).NewID()
		title := strings.Join(args, " ")
		content := eng.NoteSkeleton(id, title,
			[2]string{"date", time.Now().Format("2006-01-02")})

		path := filepath.Join(cfg.Vault, id+".md")
		if err := createNote(path, content); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(newCmd)
}
