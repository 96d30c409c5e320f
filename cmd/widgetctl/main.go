package main

import (
	"context"
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
)

type cli struct {
	Layout   string   `type:"path" default:"layout.json" env:"WIDGETCTL_LAYOUT" help:"Layout JSON file to operate on."`
	Manifest []string `type:"existingfile" help:"Extra catalog manifests (repeatable)."`
	Debug    bool     `help:"Enable debug logging."`

	Catalog  catalogCmd  `cmd:"" help:"List the widget types that can be added."`
	Show     showCmd     `cmd:"" help:"Print the layout as a grid."`
	Add      addCmd      `cmd:"" help:"Add a widget at the first free position."`
	Move     moveCmd     `cmd:"" help:"Move a widget to an absolute cell."`
	Drag     dragCmd     `cmd:"" help:"Relocate a widget by a pixel displacement."`
	Resize   resizeCmd   `cmd:"" help:"Resize a widget."`
	Config   configCmd   `cmd:"" help:"Set or clear a widget date range."`
	Remove   removeCmd   `cmd:"" help:"Remove a widget."`
	Reset    resetCmd    `cmd:"" help:"Restore the default layout."`
	Scaffold scaffoldCmd `cmd:"" help:"Append a widget type to a catalog manifest."`
}

func main() {
	var c cli
	kctx := kong.Parse(&c,
		kong.Description("Inspect and edit gridboard layouts and catalog manifests."),
		kong.UsageOnError(),
		kong.BindTo(context.Background(), (*context.Context)(nil)),
	)
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: c.Debug,
		Prefix:          "widgetctl",
	})
	if c.Debug {
		logger.SetLevel(log.DebugLevel)
	}
	a := &app{layoutPath: c.Layout, manifests: c.Manifest, logger: logger, out: os.Stdout}
	err := kctx.Run(a)
	kctx.FatalIfErrorf(err)
}
