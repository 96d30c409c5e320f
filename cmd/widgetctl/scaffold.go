package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/ettle/strcase"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-gridboard/components/dashboard"
)

type scaffoldCmd struct {
	Kind         string   `required:"" help:"Widget type identifier in kebab-case (e.g. savings-rate)."`
	Name         string   `help:"Display name (defaults to the kind in title case)."`
	Description  string   `required:"" help:"One-line description shown in the catalog."`
	Category     string   `default:"custom" help:"Catalog category."`
	ManifestPath string   `required:"" name:"manifest-path" type:"path" help:"Manifest YAML file to update."`
	Width        int      `default:"2" help:"Default width in cells."`
	Height       int      `default:"1" help:"Default height in cells."`
	DateRange    bool     `name:"date-range" help:"The widget reads the dashboard date range."`
	Resource     []string `help:"Invalidation tags that stale the widget content (repeatable)."`
	SchemaPath   string   `type:"path" help:"JSON schema for the widget configuration."`
	Tag          []string `help:"Manifest tags (repeatable)."`
	Maintainer   []string `help:"Maintainers to record in the manifest."`
	Provider     string   `required:"" help:"Content provider the kind binds to (e.g. period-expenses, recent-transactions)."`
	Overwrite    bool     `help:"Replace an existing entry for the same kind."`
}

func (cmd *scaffoldCmd) Run(a *app) error {
	if err := cmd.validate(); err != nil {
		return err
	}
	manifestPath, err := filepath.Abs(cmd.ManifestPath)
	if err != nil {
		return fmt.Errorf("widgetctl: resolve manifest path: %w", err)
	}
	doc, err := loadOrInitManifest(manifestPath)
	if err != nil {
		return err
	}
	kind := dashboard.WidgetKind(cmd.Kind)
	existing := -1
	for i, widget := range doc.Widgets {
		if widget.Definition.Kind == kind {
			existing = i
			break
		}
	}
	if existing >= 0 && !cmd.Overwrite {
		return fmt.Errorf("widgetctl: manifest already defines widget %s (use --overwrite to replace)", kind)
	}

	schema, err := cmd.loadSchema()
	if err != nil {
		return err
	}
	entry := dashboard.ManifestWidget{
		Definition: dashboard.WidgetDefinition{
			Kind:          kind,
			Name:          cmd.displayName(),
			Description:   cmd.Description,
			Category:      cmd.Category,
			UsesDateRange: cmd.DateRange,
			DefaultSize:   dashboard.Size{W: cmd.Width, H: cmd.Height},
			Schema:        schema,
			Resources:     cmd.Resource,
		},
		Provider: dashboard.ManifestProvider{
			Name:    cmd.displayName() + " Provider",
			Summary: cmd.Description,
			Entry:   cmd.Provider,
		},
		Maintainers: cmd.Maintainer,
		Tags:        cmd.Tag,
	}
	// Registering into a scratch registry applies the same checks the server
	// runs when it loads the manifest.
	if err := dashboard.NewEmptyRegistry(dashboard.DefaultGrid()).RegisterDefinition(entry.Definition); err != nil {
		return err
	}

	if existing >= 0 {
		doc.Widgets[existing] = entry
	} else {
		doc.Widgets = append(doc.Widgets, entry)
	}
	sort.Slice(doc.Widgets, func(i, j int) bool {
		return doc.Widgets[i].Definition.Kind < doc.Widgets[j].Definition.Kind
	})
	if err := writeManifest(manifestPath, doc); err != nil {
		return err
	}
	a.logger.Info("manifest updated", "kind", kind, "path", manifestPath, "provider", entry.Provider.Entry)
	return nil
}

func (cmd *scaffoldCmd) validate() error {
	if cmd.Kind != strcase.ToKebab(cmd.Kind) {
		return fmt.Errorf("widgetctl: widget kind %q must be kebab-case (try %q)", cmd.Kind, strcase.ToKebab(cmd.Kind))
	}
	if !slices.Contains(dashboard.FinanceProviderEntries(), cmd.Provider) {
		return fmt.Errorf("widgetctl: unknown provider %q (one of %s)", cmd.Provider, strings.Join(dashboard.FinanceProviderEntries(), ", "))
	}
	grid := dashboard.DefaultGrid()
	if cmd.Width < 1 || cmd.Height < 1 || cmd.Width > grid.Cols || cmd.Height > grid.Rows {
		return fmt.Errorf("widgetctl: size %dx%d does not fit the %dx%d grid", cmd.Width, cmd.Height, grid.Cols, grid.Rows)
	}
	return nil
}

func (cmd *scaffoldCmd) displayName() string {
	if cmd.Name != "" {
		return cmd.Name
	}
	return strcase.ToCase(cmd.Kind, strcase.TitleCase, ' ')
}

func (cmd *scaffoldCmd) loadSchema() (map[string]any, error) {
	if cmd.SchemaPath == "" {
		if cmd.DateRange {
			return map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"startDate": map[string]any{"type": "string"},
					"endDate":   map[string]any{"type": "string"},
				},
			}, nil
		}
		return map[string]any{"type": "object", "additionalProperties": false}, nil
	}
	data, err := os.ReadFile(cmd.SchemaPath)
	if err != nil {
		return nil, fmt.Errorf("widgetctl: read schema file: %w", err)
	}
	var schema map[string]any
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("widgetctl: parse schema JSON: %w", err)
	}
	return schema, nil
}

func loadOrInitManifest(path string) (*dashboard.WidgetManifestDocument, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &dashboard.WidgetManifestDocument{
				Version: dashboard.ManifestVersion,
				Widgets: []dashboard.ManifestWidget{},
				Source:  path,
			}, nil
		}
		return nil, fmt.Errorf("widgetctl: stat manifest: %w", err)
	}
	return dashboard.ReadManifest(path)
}

func writeManifest(path string, doc *dashboard.WidgetManifestDocument) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("widgetctl: mkdir %s: %w", filepath.Dir(path), err)
	}
	file, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("widgetctl: create manifest %s: %w", path, err)
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("widgetctl: write manifest: %w", err)
	}
	return encoder.Close()
}
