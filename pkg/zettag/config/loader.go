package config

import (
	"fmt"

	"github.com/zettelware/zettag/pkg/zettag/markdown"
	"github.com/zettelware/zettag/pkg/zettag/metadata"
	"github.com/zettelware/zettag/pkg/zettag/render"
	"github.com/zettelware/zettag/pkg/zettag/tag"
)

// Components holds the extraction pieces built from one Config.
type Components struct {
	Schema  *metadata.Schema
	Scanner *markdown.Scanner
	Encoder *render.Encoder
	Summary *render.Summary
}

// Components builds the runtime pieces the configuration describes.
func (c *Config) Components() (*Components, error) {
	schema, err := c.Schema()
	if err != nil {
		return nil, err
	}

	kinds, err := kindSet(c.Kinds)
	if err != nil {
		return nil, err
	}
	roles, err := roleSet(c.Roles)
	if err != nil {
		return nil, err
	}

	summary, err := render.CompileSummary(c.SummaryFormat)
	if err != nil {
		return nil, err
	}

	return &Components{
		Schema:  schema,
		Scanner: markdown.NewScanner(kinds, roles),
		Encoder: render.NewEncoder(schema.Prefixes),
		Summary: summary,
	}, nil
}

// Schema translates the configuration into an extraction schema.
func (c *Config) Schema() (*metadata.Schema, error) {
	keys := map[string]metadata.FieldKind{}
	add := func(name string, fk metadata.FieldKind) {
		if name != "" {
			keys[name] = fk
		}
	}
	add(c.Keys.ID, metadata.FieldIdentifier)
	add(c.Keys.Title, metadata.FieldTitle)
	add(c.Keys.Keywords, metadata.FieldKeyword)
	add(c.Keys.Citations, metadata.FieldCitation)
	add(c.Keys.Next, metadata.FieldNextLink)
	add(c.Keys.References, metadata.FieldReferenceBlock)

	refKeys := map[string]metadata.FieldKind{}
	if c.Keys.RefID != "" {
		refKeys[c.Keys.RefID] = metadata.FieldReferenceID
	}
	if c.Keys.RefTitle != "" {
		refKeys[c.Keys.RefTitle] = metadata.FieldReferenceTitle
	}

	prefixes := map[tag.Kind]string{}
	for name, p := range c.Prefixes {
		k, ok := tag.KindFromName(name)
		if !ok {
			return nil, fmt.Errorf("prefixes: unknown tag kind %q", name)
		}
		prefixes[k] = p
	}

	kinds, err := kindSet(c.Kinds)
	if err != nil {
		return nil, err
	}
	roles, err := roleSet(c.Roles)
	if err != nil {
		return nil, err
	}
	fields, err := fieldSet(c.Fields)
	if err != nil {
		return nil, err
	}

	return &metadata.Schema{
		Keys:     keys,
		RefKeys:  refKeys,
		Prefixes: prefixes,
		Sigil:    c.Sigil,
		Kinds:    kinds,
		Roles:    roles,
		Fields:   fields,
	}, nil
}

// kindSet expands a partial name map: listed kinds are toggled, the
// rest stay enabled. A nil map enables everything.
func kindSet(m map[string]bool) (map[tag.Kind]bool, error) {
	if m == nil {
		return nil, nil
	}
	out := map[tag.Kind]bool{
		tag.ID:       true,
		tag.Title:    true,
		tag.Keyword:  true,
		tag.Citekey:  true,
		tag.Wikilink: true,
		tag.RefTitle: true,
	}
	for name, v := range m {
		k, ok := tag.KindFromName(name)
		if !ok {
			return nil, fmt.Errorf("kinds: unknown tag kind %q", name)
		}
		out[k] = v
	}
	return out, nil
}

func roleSet(m map[string]bool) (map[tag.Role]bool, error) {
	if m == nil {
		return nil, nil
	}
	out := map[tag.Role]bool{
		tag.Index:        true,
		tag.Bibliography: true,
		tag.Identifier:   true,
	}
	for name, v := range m {
		r, ok := tag.RoleFromName(name)
		if !ok || r == tag.NoRole {
			return nil, fmt.Errorf("roles: unknown role %q", name)
		}
		out[r] = v
	}
	return out, nil
}

func fieldSet(m map[string]bool) (map[tag.FieldID]bool, error) {
	if m == nil {
		return nil, nil
	}
	out := map[tag.FieldID]bool{
		tag.FieldIdentifier:  true,
		tag.FieldTitle:       true,
		tag.FieldEncodedName: true,
		tag.FieldSummary:     true,
	}
	for name, v := range m {
		f, ok := tag.FieldFromName(name)
		if !ok {
			return nil, fmt.Errorf("fields: unknown field %q", name)
		}
		out[f] = v
	}
	return out, nil
}
