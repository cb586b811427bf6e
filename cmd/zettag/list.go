package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zettelware/zettag/pkg/zettag/index"
	"github.com/zettelware/zettag/pkg/zettag/render"
	"github.com/zettelware/zettag/pkg/zettag/tag"
)

var (
	listKinds  []string
	listRoles  []string
	listName   string
	listNote   string
	listID     string
	listLimit  int
	listTags   bool
	listXref   bool
	listFormat string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Query the tag index",
	Long: `List prints indexed tag records. The default output is one record
per line with name, kind, role and location. --xref prints
cross-reference rows with fixed-width columns, --tags full
ctags-format lines, and --format renders each record through a summary
format string such as "%{identifier}:%{title}".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, "")
		if err != nil {
			return err
		}

		filter, err := buildFilter()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		ix, err := openIndex(ctx, cfg)
		if err != nil {
			return err
		}
		defer ix.Close()

		entries, err := ix.Entries(ctx, filter)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch {
		case listTags:
			for _, en := range entries {
				fmt.Fprintln(out, render.TagLine(en.Tag, en.File))
			}
		case listXref:
			for _, en := range entries {
				fmt.Fprintln(out, render.Xref(en.Tag, en.File))
			}
		case listFormat != "":
			sum, err := render.CompileSummary(listFormat)
			if err != nil {
				return err
			}
			for _, en := range entries {
				fmt.Fprintln(out, sum.Render(en.Tag))
			}
		default:
			for _, en := range entries {
				role := en.Tag.Role.String()
				if role == "" {
					role = "-"
				}
				fmt.Fprintf(out, "%s\t%s\t%s\t%s:%d\n",
					en.Tag.Name, en.Tag.Kind, role, en.File, en.Tag.Line)
			}
		}
		return nil
	},
}

// buildFilter translates the list flags into an index filter.
func buildFilter() (index.Filter, error) {
	f := index.Filter{
		File:       listNote,
		Name:       listName,
		Identifier: listID,
		Limit:      listLimit,
	}
	for _, name := range listKinds {
		k, ok := tag.KindFromName(name)
		if !ok {
			return f, fmt.Errorf("unknown tag kind %q", name)
		}
		f.Kinds = append(f.Kinds, k)
	}
	for _, name := range listRoles {
		r, ok := tag.RoleFromName(name)
		if !ok || name == "" {
			return f, fmt.Errorf("unknown role %q", name)
		}
		f.Roles = append(f.Roles, r)
	}
	return f, nil
}

func init() {
	listCmd.Flags().StringSliceVar(&listKinds, "kind", nil, "keep only these kinds (id, title, keyword, citekey, wikilink, reftitle)")
	listCmd.Flags().StringSliceVar(&listRoles, "role", nil, "keep only these roles (index, bibliography, identifier)")
	listCmd.Flags().StringVar(&listName, "name", "", "exact tag name")
	listCmd.Flags().StringVar(&listNote, "note", "", "records from one note file")
	listCmd.Flags().StringVar(&listID, "id", "", "records whose note identifier equals this")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "stop after this many records (0 = all)")
	listCmd.Flags().BoolVar(&listTags, "tags", false, "print full ctags-format lines")
	listCmd.Flags().BoolVar(&listXref, "xref", false, "print fixed-width cross-reference rows")
	listCmd.Flags().StringVar(&listFormat, "format", "", "render records through a summary format string")
	rootCmd.AddCommand(listCmd)
}
