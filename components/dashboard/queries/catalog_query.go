package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

// CatalogInput selects the locale the catalog is rendered in.
type CatalogInput struct {
	Locale string
}

type catalogService interface {
	Catalog(locale string) []dashboard.CatalogEntry
}

// CatalogQuery lists the widget kinds available to add.
type CatalogQuery struct {
	service catalogService
}

// NewCatalogQuery builds the query.
func NewCatalogQuery(service catalogService) *CatalogQuery {
	return &CatalogQuery{service: service}
}

var _ gocommand.Querier[CatalogInput, []dashboard.CatalogEntry] = (*CatalogQuery)(nil)

// Query returns the localized catalog.
func (q *CatalogQuery) Query(_ context.Context, input CatalogInput) ([]dashboard.CatalogEntry, error) {
	return q.service.Catalog(input.Locale), nil
}
