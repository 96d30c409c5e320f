package dashboard

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeManifest(t *testing.T) {
	const payload = `
version: 1
name: savings-pack
widgets:
  - definition:
      type: savings-rate
      name: Savings Rate
      name_localized:
        IT: Tasso di risparmio
      description: Share of income left after expenses.
      category: charts
      uses_date_range: true
      default_size: {w: 2, h: 2}
      schema:
        type: object
        properties:
          startDate:
            type: string
    provider:
      name: Savings Provider
      summary: Computes income minus expenses over income.
      entry: period-incomes
`
	doc, err := DecodeManifest(strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, doc.Widgets, 1)

	widget := doc.Widgets[0]
	assert.Equal(t, WidgetKind("savings-rate"), widget.Definition.Kind)
	assert.Equal(t, "Savings Rate", widget.Definition.Name)
	assert.True(t, widget.Definition.UsesDateRange)
	assert.Equal(t, Size{W: 2, H: 2}, widget.Definition.DefaultSize)
	assert.Equal(t, "Savings Provider", widget.Provider.Name)
	assert.Equal(t, "period-incomes", widget.Provider.Entry)
}

func TestDecodeManifestRejectsUnknownFields(t *testing.T) {
	const payload = `
widgets:
  - definition:
      type: savings-rate
      name: Savings Rate
      colour: blue
`
	_, err := DecodeManifest(strings.NewReader(payload))
	require.Error(t, err)
}

func TestDecodeManifestEmpty(t *testing.T) {
	_, err := DecodeManifest(strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "manifest is empty")
}

func TestRegistryLoadManifestDocument(t *testing.T) {
	doc := &WidgetManifestDocument{
		Version: manifestVersionV1,
		Widgets: []ManifestWidget{
			{
				Definition: WidgetDefinition{
					Kind:          "recent-transactions",
					Name:          "Recent Transactions",
					NameLocalized: map[string]string{" IT ": "Transazioni recenti"},
				},
				Provider: ManifestProvider{
					Name:  "Transactions Provider",
					Entry: "recent-transactions",
				},
			},
		},
	}
	reg := NewRegistry()

	require.NoError(t, reg.LoadManifestDocument(doc))

	def, ok := reg.Definition("recent-transactions")
	require.True(t, ok)
	assert.Equal(t, "Recent Transactions", def.Name)
	assert.Equal(t, "Transazioni recenti", def.NameForLocale("it-IT"))
	assert.Equal(t, DefaultWidgetSize, def.DefaultSize)

	meta, ok := reg.ProviderMetadata("recent-transactions")
	require.True(t, ok)
	assert.Equal(t, "recent-transactions", meta.Entry)
}

func TestManifestDuplicateKinds(t *testing.T) {
	const payload = `
widgets:
  - definition:
      type: dup-widget
      name: First
  - definition:
      type: dup-widget
      name: Second
`
	_, err := DecodeManifest(strings.NewReader(payload))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicates widget type")
}

func TestManifestRejectsOversizedWidget(t *testing.T) {
	const payload = `
widgets:
  - definition:
      type: huge
      name: Huge
      default_size: {w: 5, h: 1}
`
	_, err := DecodeManifest(strings.NewReader(payload))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside the grid")
}

func TestDocsManifestsAreValid(t *testing.T) {
	dir := filepath.Join("..", "..", "docs", "manifests")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	kinds := map[WidgetKind]string{}
	for _, def := range DefaultWidgetDefinitions() {
		kinds[def.Kind] = "built-in catalog"
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		doc, err := ReadManifest(path)
		require.NoErrorf(t, err, "manifest %s should parse", path)
		for _, widget := range doc.Widgets {
			if prev, exists := kinds[widget.Definition.Kind]; exists {
				t.Fatalf("widget type %s defined in both %s and %s", widget.Definition.Kind, prev, path)
			}
			kinds[widget.Definition.Kind] = path
		}
	}
}
