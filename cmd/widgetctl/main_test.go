package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/goliatone/go-gridboard/components/dashboard"
)

func newTestApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	return &app{
		layoutPath: filepath.Join(t.TempDir(), "layout.json"),
		logger:     log.New(io.Discard),
		out:        out,
	}, out
}

func TestShowRendersSeedLayoutWhenFileMissing(t *testing.T) {
	a, out := newTestApp(t)
	if err := (&showCmd{}).Run(a); err != nil {
		t.Fatalf("show: %v", err)
	}
	lines := strings.Split(out.String(), "\n")
	if lines[0] != "A A B B" {
		t.Fatalf("unexpected first row %q", lines[0])
	}
	if lines[1] != ". . . ." {
		t.Fatalf("unexpected second row %q", lines[1])
	}
	if _, err := os.Stat(a.layoutPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("show must not write the layout file, stat err=%v", err)
	}
}

func TestShowNarrowStacksWidgets(t *testing.T) {
	a, out := newTestApp(t)
	if err := (&showCmd{Narrow: true}).Run(a); err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.HasPrefix(out.String(), "A\nB\n") {
		t.Fatalf("expected stacked rendering, got %q", out.String())
	}
}

func TestAddMoveRemovePersistToFile(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	if err := (&addCmd{Kind: string(dashboard.KindPeriodExpenses)}).Run(ctx, a); err != nil {
		t.Fatalf("add: %v", err)
	}
	layout, found, err := a.readLayout()
	if err != nil || !found {
		t.Fatalf("expected saved layout, found=%v err=%v", found, err)
	}
	if len(layout.Widgets) != 3 {
		t.Fatalf("expected 3 widgets, got %d", len(layout.Widgets))
	}
	added := layout.Widgets[2]
	if added.Position != (dashboard.WidgetPosition{X: 0, Y: 1, W: 2, H: 1}) {
		t.Fatalf("unexpected placement %+v", added.Position)
	}

	if err := (&moveCmd{ID: added.ID, X: 2, Y: 2}).Run(ctx, a); err != nil {
		t.Fatalf("move: %v", err)
	}
	layout, _, _ = a.readLayout()
	if got := layout.Widgets[2].Position; got.X != 2 || got.Y != 2 {
		t.Fatalf("expected widget at (2,2), got %+v", got)
	}

	if err := (&removeCmd{ID: "default-balance"}).Run(ctx, a); err != nil {
		t.Fatalf("remove: %v", err)
	}
	layout, _, _ = a.readLayout()
	if len(layout.Widgets) != 2 {
		t.Fatalf("expected 2 widgets after remove, got %d", len(layout.Widgets))
	}
}

func TestDragRoundsPixelsToCells(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()
	if err := (&dragCmd{ID: "default-balance", DX: 10, DY: 170, CellWidth: 240, CellHeight: 160}).Run(ctx, a); err != nil {
		t.Fatalf("drag: %v", err)
	}
	layout, _, _ := a.readLayout()
	if got := layout.Widgets[0].Position; got.X != 0 || got.Y != 1 {
		t.Fatalf("expected widget at (0,1), got %+v", got)
	}
}

func TestResizeCollisionIsRejected(t *testing.T) {
	a, _ := newTestApp(t)
	err := (&resizeCmd{ID: "default-balance", W: 3, H: 1}).Run(context.Background(), a)
	if !errors.Is(err, dashboard.ErrCollision) {
		t.Fatalf("expected collision, got %v", err)
	}
}

func TestConfigRejectsInvertedRange(t *testing.T) {
	a, _ := newTestApp(t)
	err := (&configCmd{ID: "default-incomes", Start: "2024-02-01", End: "2024-01-01"}).Run(context.Background(), a)
	if !errors.Is(err, dashboard.ErrInvalidConfig) {
		t.Fatalf("expected invalid config, got %v", err)
	}
}

func TestResetRecoversFromCorruptFile(t *testing.T) {
	a, _ := newTestApp(t)
	if err := os.WriteFile(a.layoutPath, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := a.engine(); err == nil {
		t.Fatal("expected corrupt layout to fail loading")
	}
	if err := (&resetCmd{}).Run(context.Background(), a); err != nil {
		t.Fatalf("reset: %v", err)
	}
	layout, found, err := a.readLayout()
	if err != nil || !found || len(layout.Widgets) != 2 {
		t.Fatalf("expected seed layout on disk, found=%v err=%v widgets=%d", found, err, len(layout.Widgets))
	}
}

func TestScaffoldAppendsManifestEntry(t *testing.T) {
	a, _ := newTestApp(t)
	path := filepath.Join(t.TempDir(), "widgets.yaml")
	cmd := &scaffoldCmd{
		Kind:         "savings-rate",
		Description:  "Share of income saved",
		Category:     "custom",
		ManifestPath: path,
		Width:        1,
		Height:       1,
		DateRange:    true,
		Provider:     string(dashboard.KindPeriodIncomes),
		Resource:     []string{dashboard.TagIncomes, dashboard.TagExpenses},
	}
	if err := cmd.Run(a); err != nil {
		t.Fatalf("scaffold: %v", err)
	}
	doc, err := dashboard.ReadManifest(path)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if len(doc.Widgets) != 1 {
		t.Fatalf("expected 1 widget, got %d", len(doc.Widgets))
	}
	def := doc.Widgets[0].Definition
	if def.Name != "Savings Rate" || !def.UsesDateRange {
		t.Fatalf("unexpected definition %+v", def)
	}
	if doc.Widgets[0].Provider.Entry != "period-incomes" {
		t.Fatalf("unexpected provider entry %q", doc.Widgets[0].Provider.Entry)
	}

	if err := cmd.Run(a); err == nil {
		t.Fatal("expected duplicate kind to be rejected without --overwrite")
	}

	a.manifests = []string{path}
	reg, err := a.registry()
	if err != nil {
		t.Fatalf("load catalog with manifest: %v", err)
	}
	if !reg.Has("savings-rate") {
		t.Fatal("expected scaffolded kind in catalog")
	}
}

func TestScaffoldRejectsNonKebabKind(t *testing.T) {
	a, _ := newTestApp(t)
	cmd := &scaffoldCmd{Kind: "SavingsRate", Description: "x", ManifestPath: filepath.Join(t.TempDir(), "m.yaml"), Width: 1, Height: 1, Provider: "period-incomes"}
	if err := cmd.Run(a); err == nil {
		t.Fatal("expected error for non kebab-case kind")
	}
}

func TestScaffoldRejectsUnknownProvider(t *testing.T) {
	a, _ := newTestApp(t)
	cmd := &scaffoldCmd{Kind: "savings-rate", Description: "x", ManifestPath: filepath.Join(t.TempDir(), "m.yaml"), Width: 1, Height: 1, Provider: "savings-rate"}
	if err := cmd.Run(a); err == nil {
		t.Fatal("expected error for a provider entry that does not exist")
	}
}
