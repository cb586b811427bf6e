package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/zettelware/zettag/internal/webclip"
	"github.com/zettelware/zettag/pkg/zettag"
	"github.com/zettelware/zettag/pkg/zettag/zid"
)

var importNoIndex bool

var importCmd = &cobra.Command{
	Use:   "import <url>",
	Short: "Clip a web page into a new note",
	Long: `Import fetches the page, converts its main content to markdown and
writes it as a note with frontmatter carrying the page title and
source url. The note is indexed unless --no-index is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, "")
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		clip, err := webclip.New().Clip(ctx, args[0])
		if err != nil {
			return err
		}
		title := clip.Title
		if title == "" {
			title = clip.URL
		}

		var eng *zettag.Engine
		if importNoIndex {
			eng, err = zettag.New(zettag.Options{Config: cfg})
		} else {
			eng, err = newEngine(ctx, cfg)
		}
		if err != nil {
			return err
		}
		defer eng.Close()

		id := zid.New(cfg.IDStyle()).NewID()
		content := eng.NoteSkeleton(id, title,
			[2]string{"url", clip.URL},
			[2]string{"clipped", time.Now().Format("2006-01-02")},
		) + clip.Markdown + "\n"

		rel := id + ".md"
		path := filepath.Join(cfg.Vault, rel)
		if err := createNote(path, content); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if importNoIndex {
			fmt.Fprintln(out, path)
			return nil
		}
		stats, err := eng.ScanNote(ctx, rel, content)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %d tags\n", path, stats.Tags)
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVar(&importNoIndex, "no-index", false, "write the note without indexing it")
	rootCmd.AddCommand(importCmd)
}
