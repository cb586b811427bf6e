// Package main is the zettag command line tool. It extracts tag
// records from zettelkasten notes, maintains a SQLite index of them,
// and creates notes with fresh identifiers.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "zettag",
	Short: "Tag extraction and indexing for zettelkasten notes",
	Long: `zettag reads markdown notes and extracts tag records from their
YAML frontmatter and bodies: note ids, titles, keywords, citation
keys, wikilinks and reference entries. Records land in a SQLite index
that the list command queries.

Configuration is read from .zettag.yaml at the vault root; flags
override the file.`,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: <vault>/.zettag.yaml)")
	rootCmd.PersistentFlags().String("vault", "", "vault root (default: the config file's vault, or .)")
	rootCmd.PersistentFlags().String("index", "", "index database path (default: the config file's index)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
