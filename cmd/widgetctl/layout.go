package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-gridboard/components/dashboard"
)

type catalogCmd struct {
	Locale string `default:"en" help:"Locale used for names and descriptions."`
}

func (cmd *catalogCmd) Run(a *app) error {
	reg, err := a.registry()
	if err != nil {
		return err
	}
	for _, def := range reg.Definitions() {
		size := def.SizeOrDefault()
		dates := ""
		if def.UsesDateRange {
			dates = " [date range]"
		}
		a.printf("%-20s %dx%d  %s%s\n", def.Kind, size.W, size.H, def.NameForLocale(cmd.Locale), dates)
	}
	return nil
}

type showCmd struct {
	Narrow bool `help:"Render the stacked single-column view."`
	JSON   bool `name:"json" help:"Print the widget list as JSON instead of a grid."`
}

func (cmd *showCmd) Run(a *app) error {
	eng, _, err := a.engine()
	if err != nil {
		return err
	}
	widgets := dashboard.Stack(eng.Widgets(), cmd.Narrow)
	if cmd.JSON {
		return printJSON(a.out, layoutFile{Widgets: widgets})
	}
	grid := eng.Grid()
	if cmd.Narrow {
		grid = dashboard.Grid{Cols: 1, Rows: max(len(widgets), 1)}
	}
	a.printf("%s", renderGrid(grid, widgets))
	for i, w := range widgets {
		a.printf("%c  %-24s %-20s (%d,%d) %dx%d%s\n", glyph(i), w.ID, w.Type, w.Position.X, w.Position.Y, w.Position.W, w.Position.H, describeConfig(w.Config))
	}
	return nil
}

type addCmd struct {
	Kind  string `arg:"" help:"Widget type to add."`
	Start string `help:"Start date (YYYY-MM-DD)."`
	End   string `help:"End date (YYYY-MM-DD)."`
}

func (cmd *addCmd) Run(ctx context.Context, a *app) error {
	eng, reg, err := a.engine()
	if err != nil {
		return err
	}
	var cfg *dashboard.WidgetConfig
	if cmd.Start != "" || cmd.End != "" {
		cfg = &dashboard.WidgetConfig{StartDate: cmd.Start, EndDate: cmd.End}
		if err := validateConfig(reg, dashboard.WidgetKind(cmd.Kind), cfg); err != nil {
			return err
		}
	}
	w, err := eng.Add(ctx, dashboard.WidgetKind(cmd.Kind), cfg)
	if err != nil {
		return err
	}
	a.logger.Info("widget added", "id", w.ID, "type", w.Type, "x", w.Position.X, "y", w.Position.Y)
	return nil
}

type moveCmd struct {
	ID string `arg:"" help:"Widget id."`
	X  int    `arg:"" help:"Target column."`
	Y  int    `arg:"" help:"Target row."`
}

func (cmd *moveCmd) Run(ctx context.Context, a *app) error {
	eng, _, err := a.engine()
	if err != nil {
		return err
	}
	w, changed, err := eng.MoveTo(ctx, cmd.ID, cmd.X, cmd.Y)
	if err != nil {
		return err
	}
	reportChange(a, "moved", w, changed)
	return nil
}

type dragCmd struct {
	ID         string  `arg:"" help:"Widget id."`
	DX         float64 `arg:"" name:"dx" help:"Horizontal displacement in pixels."`
	DY         float64 `arg:"" name:"dy" help:"Vertical displacement in pixels."`
	CellWidth  float64 `default:"240" help:"Rendered cell width in pixels."`
	CellHeight float64 `default:"160" help:"Rendered cell height in pixels."`
}

func (cmd *dragCmd) Run(ctx context.Context, a *app) error {
	eng, _, err := a.engine()
	if err != nil {
		return err
	}
	w, changed, err := eng.Relocate(ctx, cmd.ID,
		dashboard.PixelDelta{X: cmd.DX, Y: cmd.DY},
		dashboard.CellSize{Width: cmd.CellWidth, Height: cmd.CellHeight})
	if err != nil {
		return err
	}
	reportChange(a, "relocated", w, changed)
	return nil
}

type resizeCmd struct {
	ID string `arg:"" help:"Widget id."`
	W  int    `arg:"" help:"Width in cells."`
	H  int    `arg:"" help:"Height in cells."`
}

func (cmd *resizeCmd) Run(ctx context.Context, a *app) error {
	eng, _, err := a.engine()
	if err != nil {
		return err
	}
	w, changed, err := eng.Resize(ctx, cmd.ID, cmd.W, cmd.H)
	if err != nil {
		return err
	}
	reportChange(a, "resized", w, changed)
	return nil
}

type configCmd struct {
	ID    string `arg:"" help:"Widget id."`
	Start string `help:"Start date (YYYY-MM-DD)."`
	End   string `help:"End date (YYYY-MM-DD)."`
	Clear bool   `help:"Remove the widget's date range."`
}

func (cmd *configCmd) Run(ctx context.Context, a *app) error {
	eng, reg, err := a.engine()
	if err != nil {
		return err
	}
	current, ok := eng.Widget(cmd.ID)
	if !ok {
		return fmt.Errorf("%w: %s", dashboard.ErrWidgetNotFound, cmd.ID)
	}
	var cfg *dashboard.WidgetConfig
	if !cmd.Clear {
		cfg = &dashboard.WidgetConfig{StartDate: cmd.Start, EndDate: cmd.End}
		if err := validateConfig(reg, current.Type, cfg); err != nil {
			return err
		}
	}
	w, err := eng.UpdateConfig(ctx, cmd.ID, cfg)
	if err != nil {
		return err
	}
	a.logger.Info("widget configured", "id", w.ID, "range", strings.TrimSpace(describeConfig(w.Config)))
	return nil
}

type removeCmd struct {
	ID string `arg:"" help:"Widget id."`
}

func (cmd *removeCmd) Run(ctx context.Context, a *app) error {
	eng, _, err := a.engine()
	if err != nil {
		return err
	}
	if err := eng.Remove(ctx, cmd.ID); err != nil {
		return err
	}
	a.logger.Info("widget removed", "id", cmd.ID)
	return nil
}

type resetCmd struct{}

func (cmd *resetCmd) Run(ctx context.Context, a *app) error {
	reg, err := a.registry()
	if err != nil {
		return err
	}
	eng := dashboard.NewEngine(dashboard.EngineOptions{
		Catalog: reg,
		Save: func(_ context.Context, widgets []dashboard.Widget) error {
			return a.writeLayout(widgets)
		},
	})
	// The current file may be unreadable, which is one reason to reset.
	if err := eng.Reset(ctx); err != nil {
		return err
	}
	a.logger.Info("layout reset", "path", a.layoutPath)
	return nil
}

func reportChange(a *app, verb string, w dashboard.Widget, changed bool) {
	if !changed {
		a.logger.Info("layout unchanged", "id", w.ID)
		return
	}
	a.logger.Info("widget "+verb, "id", w.ID, "x", w.Position.X, "y", w.Position.Y, "w", w.Position.W, "h", w.Position.H)
}

func describeConfig(cfg *dashboard.WidgetConfig) string {
	if cfg == nil || (cfg.StartDate == "" && cfg.EndDate == "") {
		return ""
	}
	return fmt.Sprintf("  %s..%s", cfg.StartDate, cfg.EndDate)
}
