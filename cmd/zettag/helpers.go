package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zettelware/zettag/pkg/zettag"
	"github.com/zettelware/zettag/pkg/zettag/config"
	"github.com/zettelware/zettag/pkg/zettag/index"
	"github.com/zettelware/zettag/pkg/zettag/index/sqlite"
	"github.com/zettelware/zettag/pkg/zettag/vault"
)

// loadConfig resolves the effective configuration. The vault root
// comes from the positional argument, the --vault flag, or defaults
// to the working directory; the config file is looked up there unless
// --config names one. Flags win over file values.
func loadConfig(cmd *cobra.Command, vaultArg string) (*config.Config, error) {
	root, _ := cmd.Flags().GetString("vault")
	if vaultArg != "" {
		root = vaultArg
	}
	override := root != ""
	if root == "" {
		root = "."
	}

	path, _ := cmd.Flags().GetString("config")
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadOrDefault(filepath.Join(root, config.DefaultFileName))
	}
	if err != nil {
		return nil, err
	}

	if override || cfg.Vault == "" {
		cfg.Vault = root
	}
	if ixPath, _ := cmd.Flags().GetString("index"); ixPath != "" {
		cfg.Index = ixPath
	}
	return cfg, nil
}

// indexPath resolves the database location; relative paths live under
// the vault root.
func indexPath(cfg *config.Config) string {
	if filepath.IsAbs(cfg.Index) {
		return cfg.Index
	}
	return filepath.Join(cfg.Vault, cfg.Index)
}

// openIndex opens the SQLite index, creating parent directories.
func openIndex(ctx context.Context, cfg *config.Config) (index.Index, error) {
	path := indexPath(cfg)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}
	return sqlite.Open(ctx, path)
}

// openVault opens the configured vault.
func openVault(cfg *config.Config) (*vault.Vault, error) {
	return vault.Open(cfg.Vault, cfg.Include, cfg.Exclude)
}

// newEngine builds an engine over the SQLite index.
func newEngine(ctx context.Context, cfg *config.Config) (*zettag.Engine, error) {
	ix, err := openIndex(ctx, cfg)
	if err != nil {
		return nil, err
	}
	eng, err := zettag.New(zettag.Options{Config: cfg, Index: ix})
	if err != nil {
		ix.Close()
		return nil, err
	}
	return eng, nil
}

// createNote writes content to path, refusing to clobber an existing
// file.
func createNote(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
