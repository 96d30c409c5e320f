package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/goliatone/go-gridboard/components/dashboard"
)

// app carries the state shared by every subcommand.
type app struct {
	layoutPath string
	manifests  []string
	logger     *log.Logger
	out        io.Writer
}

// layoutFile is the on-disk format, matching the layout HTTP body.
type layoutFile struct {
	Widgets []dashboard.Widget `json:"widgets"`
}

func (a *app) registry() (*dashboard.Registry, error) {
	return dashboard.LoadCatalog(a.manifests...)
}

// engine loads the layout file into an engine whose commits are written
// back to the same file. A missing file starts from the seed layout.
func (a *app) engine() (*dashboard.Engine, *dashboard.Registry, error) {
	reg, err := a.registry()
	if err != nil {
		return nil, nil, err
	}
	eng := dashboard.NewEngine(dashboard.EngineOptions{
		Catalog: reg,
		Save: func(_ context.Context, widgets []dashboard.Widget) error {
			return a.writeLayout(widgets)
		},
	})
	layout, found, err := a.readLayout()
	if err != nil {
		return nil, nil, err
	}
	if !found {
		a.logger.Debug("layout file not found, using seed layout", "path", a.layoutPath)
	}
	if err := eng.LoadInitial(layout, found); err != nil {
		return nil, nil, fmt.Errorf("widgetctl: %s: %w", a.layoutPath, err)
	}
	return eng, reg, nil
}

// validateConfig checks cfg against the schema of kind.
func validateConfig(reg *dashboard.Registry, kind dashboard.WidgetKind, cfg *dashboard.WidgetConfig) error {
	def, ok := reg.Definition(kind)
	if !ok {
		return fmt.Errorf("%w: %s", dashboard.ErrUnknownWidgetKind, kind)
	}
	return dashboard.NewJSONSchemaValidator().Validate(def, cfg)
}

func (a *app) readLayout() (dashboard.Layout, bool, error) {
	data, err := os.ReadFile(a.layoutPath)
	if errors.Is(err, fs.ErrNotExist) {
		return dashboard.Layout{}, false, nil
	}
	if err != nil {
		return dashboard.Layout{}, false, fmt.Errorf("widgetctl: read layout: %w", err)
	}
	var file layoutFile
	if err := json.Unmarshal(data, &file); err != nil {
		return dashboard.Layout{}, false, fmt.Errorf("widgetctl: parse layout %s: %w", a.layoutPath, err)
	}
	return dashboard.Layout{Widgets: file.Widgets}, true, nil
}

func (a *app) writeLayout(widgets []dashboard.Widget) error {
	if widgets == nil {
		widgets = []dashboard.Widget{}
	}
	data, err := json.MarshalIndent(layoutFile{Widgets: widgets}, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(a.layoutPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("widgetctl: mkdir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(a.layoutPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("widgetctl: write layout: %w", err)
	}
	a.logger.Debug("layout saved", "path", a.layoutPath, "widgets", len(widgets))
	return nil
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
