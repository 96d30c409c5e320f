package dashboard

// WidgetKind identifies a widget type in the catalog.
type WidgetKind string

// Widget kinds available on the finance dashboard.
const (
	KindTotalBalance     WidgetKind = "total-balance"
	KindPeriodIncomes    WidgetKind = "period-incomes"
	KindPeriodExpenses   WidgetKind = "period-expenses"
	KindIncomeVsExpenses WidgetKind = "income-vs-expenses"
	KindExpenseBreakdown WidgetKind = "expense-breakdown"
)

// WidgetDefinition describes a widget kind: display metadata, whether it
// consumes a date-range filter, the size used when it is added, and the JSON
// schema its configuration must satisfy.
type WidgetDefinition struct {
	Kind                 WidgetKind        `json:"type" yaml:"type"`
	Name                 string            `json:"name" yaml:"name"`
	NameLocalized        map[string]string `json:"name_localized,omitempty" yaml:"name_localized,omitempty"`
	Description          string            `json:"description" yaml:"description"`
	DescriptionLocalized map[string]string `json:"description_localized,omitempty" yaml:"description_localized,omitempty"`
	Category             string            `json:"category,omitempty" yaml:"category,omitempty"`
	UsesDateRange        bool              `json:"uses_date_range" yaml:"uses_date_range"`
	DefaultSize          Size              `json:"default_size" yaml:"default_size"`
	Schema               map[string]any    `json:"schema,omitempty" yaml:"schema,omitempty"`
	// Resources lists the invalidation tags whose changes stale the widget content.
	Resources []string `json:"resources,omitempty" yaml:"resources,omitempty"`
}

// SizeOrDefault returns the allocation size for the kind.
func (def WidgetDefinition) SizeOrDefault() Size {
	if def.DefaultSize.W <= 0 || def.DefaultSize.H <= 0 {
		return DefaultWidgetSize
	}
	return def.DefaultSize
}

const datePattern = `^[0-9]{4}-[0-9]{2}-[0-9]{2}$`

func dateRangeSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"startDate": map[string]any{"type": "string", "pattern": datePattern},
			"endDate":   map[string]any{"type": "string", "pattern": datePattern},
		},
	}
}

func emptyConfigSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
	}
}

var defaultWidgetDefinitions = []WidgetDefinition{
	{
		Kind:        KindTotalBalance,
		Name:        "Total Balance",
		Description: "Display your total wallet balance",
		NameLocalized: map[string]string{
			"it": "Saldo totale",
		},
		DescriptionLocalized: map[string]string{
			"it": "Mostra il saldo complessivo dei tuoi wallet",
		},
		Category:    "wallets",
		DefaultSize: DefaultWidgetSize,
		Schema:      emptyConfigSchema(),
		Resources:   []string{TagWallets},
	},
	{
		Kind:        KindPeriodIncomes,
		Name:        "Period Incomes",
		Description: "Show your income for a selected period",
		NameLocalized: map[string]string{
			"it": "Entrate del periodo",
		},
		Category:      "transactions",
		UsesDateRange: true,
		DefaultSize:   DefaultWidgetSize,
		Schema:        dateRangeSchema(),
		Resources:     []string{TagTransactions, TagIncomes},
	},
	{
		Kind:        KindPeriodExpenses,
		Name:        "Period Expenses",
		Description: "Show your expenses for a selected period",
		NameLocalized: map[string]string{
			"it": "Uscite del periodo",
		},
		Category:      "transactions",
		UsesDateRange: true,
		DefaultSize:   DefaultWidgetSize,
		Schema:        dateRangeSchema(),
		Resources:     []string{TagTransactions, TagExpenses},
	},
	{
		Kind:        KindIncomeVsExpenses,
		Name:        "Income vs Expenses",
		Description: "Visual comparison between income and expenses",
		NameLocalized: map[string]string{
			"it": "Entrate vs Uscite",
		},
		Category:      "charts",
		UsesDateRange: true,
		DefaultSize:   DefaultWidgetSize,
		Schema:        dateRangeSchema(),
		Resources:     []string{TagTransactions, TagIncomes, TagExpenses},
	},
	{
		Kind:        KindExpenseBreakdown,
		Name:        "Expense Breakdown",
		Description: "Pie chart of expenses by category",
		NameLocalized: map[string]string{
			"it": "Ripartizione delle spese",
		},
		Category:      "charts",
		UsesDateRange: true,
		DefaultSize:   DefaultWidgetSize,
		Schema:        dateRangeSchema(),
		Resources:     []string{TagTransactions, TagExpenses, TagCategories},
	},
}

// DefaultWidgetDefinitions returns the built-in widget catalog.
func DefaultWidgetDefinitions() []WidgetDefinition {
	out := make([]WidgetDefinition, len(defaultWidgetDefinitions))
	copy(out, defaultWidgetDefinitions)
	return out
}

// SeedWidgets returns the bootstrap layout installed when a user has no layout record.
func SeedWidgets() []Widget {
	return []Widget{
		{
			ID:       "default-balance",
			Type:     KindTotalBalance,
			Position: WidgetPosition{X: 0, Y: 0, W: 2, H: 1},
		},
		{
			ID:       "default-incomes",
			Type:     KindPeriodIncomes,
			Position: WidgetPosition{X: 2, Y: 0, W: 2, H: 1},
		},
	}
}
