package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DefaultRangeDays is the trailing window used when neither the dashboard
// filter nor the widget configuration sets a date.
const DefaultRangeDays = 30

const uncategorizedLabel = "Uncategorized"

// DefaultDateRange returns the trailing DefaultRangeDays window ending on now.
func DefaultDateRange(now time.Time) DateRange {
	return DateRange{
		StartDate: now.AddDate(0, 0, -DefaultRangeDays).Format(DateLayout),
		EndDate:   now.Format(DateLayout),
	}
}

// EffectiveDateRange resolves each bound independently: the dashboard filter
// wins over the widget configuration, which wins over the trailing default.
func EffectiveDateRange(filter DateRange, config *WidgetConfig, now time.Time) DateRange {
	def := DefaultDateRange(now)
	out := DateRange{StartDate: filter.StartDate, EndDate: filter.EndDate}
	if out.StartDate == "" && config != nil {
		out.StartDate = config.StartDate
	}
	if out.EndDate == "" && config != nil {
		out.EndDate = config.EndDate
	}
	if out.StartDate == "" {
		out.StartDate = def.StartDate
	}
	if out.EndDate == "" {
		out.EndDate = def.EndDate
	}
	return out
}

// KindRecentTransactions is provided by the finance providers but only
// enters the catalog through a manifest.
const KindRecentTransactions WidgetKind = "recent-transactions"

// RecentTransactionsLimit caps the rows returned by the recent transactions provider.
const RecentTransactionsLimit = 10

// FinanceProviderEntries lists the provider entries a manifest may bind a kind to.
func FinanceProviderEntries() []string {
	return []string{
		string(KindTotalBalance),
		string(KindPeriodIncomes),
		string(KindPeriodExpenses),
		string(KindIncomeVsExpenses),
		string(KindExpenseBreakdown),
		string(KindRecentTransactions),
	}
}

// RegisterFinanceProviders binds every catalog kind to a provider reading
// source. A kind binds to the entry named in its manifest provider block,
// or to the provider of the same name. Kinds that end up without a provider
// are reported as an error so the catalog never offers a widget that cannot
// load content.
func RegisterFinanceProviders(reg *Registry, source FinanceSource, charts *ChartRenderer) error {
	if source == nil {
		return fmt.Errorf("dashboard: finance source is required")
	}
	if charts == nil {
		charts = NewChartRenderer()
	}
	entries := map[string]Provider{
		string(KindTotalBalance):       totalBalanceProvider(source),
		string(KindPeriodIncomes):      periodTotalProvider(source, TransactionIncome),
		string(KindPeriodExpenses):     periodTotalProvider(source, TransactionExpense),
		string(KindIncomeVsExpenses):   incomeVsExpensesProvider(source, charts),
		string(KindExpenseBreakdown):   expenseBreakdownProvider(source, charts),
		string(KindRecentTransactions): recentTransactionsProvider(source),
	}
	var unbound []string
	for _, def := range reg.Definitions() {
		if _, ok := reg.Provider(def.Kind); ok {
			continue
		}
		entry := string(def.Kind)
		if meta, ok := reg.ProviderMetadata(def.Kind); ok && meta.Entry != "" {
			entry = meta.Entry
		}
		provider, ok := entries[entry]
		if !ok {
			unbound = append(unbound, fmt.Sprintf("%s (entry %q)", def.Kind, entry))
			continue
		}
		if err := reg.RegisterProvider(def.Kind, provider); err != nil {
			return err
		}
	}
	if len(unbound) > 0 {
		return fmt.Errorf("%w: %s", ErrNoProvider, strings.Join(unbound, ", "))
	}
	return nil
}

func totalBalanceProvider(source FinanceSource) Provider {
	return ProviderFunc(func(ctx context.Context, meta WidgetContext) (WidgetData, error) {
		wallets, err := source.Wallets(ctx)
		if err != nil {
			return nil, fmt.Errorf("dashboard: fetch wallets: %w", err)
		}
		total := decimal.Zero
		for _, w := range wallets {
			total = total.Add(w.Balance)
		}
		return WidgetData{
			"title":        meta.Definition.NameForLocale(meta.Viewer.Locale),
			"total":        total.StringFixed(2),
			"wallet_count": len(wallets),
		}, nil
	})
}

func sumTransactions(items []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount)
	}
	return total
}

func periodTotalProvider(source FinanceSource, kind TransactionType) Provider {
	return ProviderFunc(func(ctx context.Context, meta WidgetContext) (WidgetData, error) {
		items, err := source.Transactions(ctx, meta.Range, kind)
		if err != nil {
			return nil, fmt.Errorf("dashboard: fetch %s transactions: %w", kind, err)
		}
		return WidgetData{
			"title":             meta.Definition.NameForLocale(meta.Viewer.Locale),
			"total":             sumTransactions(items).StringFixed(2),
			"transaction_count": len(items),
			"start_date":        meta.Range.StartDate,
			"end_date":          meta.Range.EndDate,
		}, nil
	})
}

func incomeVsExpensesProvider(source FinanceSource, charts *ChartRenderer) Provider {
	return ProviderFunc(func(ctx context.Context, meta WidgetContext) (WidgetData, error) {
		var incomes, expenses []Transaction
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			incomes, err = source.Transactions(gctx, meta.Range, TransactionIncome)
			return err
		})
		g.Go(func() error {
			var err error
			expenses, err = source.Transactions(gctx, meta.Range, TransactionExpense)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("dashboard: fetch transactions: %w", err)
		}

		in, out := sumTransactions(incomes), sumTransactions(expenses)
		title := meta.Definition.NameForLocale(meta.Viewer.Locale)
		incomeLabel := translateOrFallback(ctx, meta.Translator, "dashboard.widget.incomes", meta.Viewer.Locale, "Incomes", nil)
		expenseLabel := translateOrFallback(ctx, meta.Translator, "dashboard.widget.expenses", meta.Viewer.Locale, "Expenses", nil)
		html, err := charts.RenderComparison(title, []ChartPoint{
			{Label: incomeLabel, Value: in.InexactFloat64()},
			{Label: expenseLabel, Value: out.InexactFloat64()},
		})
		if err != nil {
			return nil, err
		}
		return WidgetData{
			"title":      title,
			"incomes":    in.StringFixed(2),
			"expenses":   out.StringFixed(2),
			"difference": in.Sub(out).StringFixed(2),
			"start_date": meta.Range.StartDate,
			"end_date":   meta.Range.EndDate,
			"chart_html": html,
			"chart_type": "bar",
		}, nil
	})
}

// CategoryTotal is one slice of the expense breakdown.
type CategoryTotal struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// GroupByCategory sums expenses per category name, largest first. Unknown
// category ids are grouped as Uncategorized.
func GroupByCategory(expenses []Transaction, categories []Category) []CategoryTotal {
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	totals := map[string]decimal.Decimal{}
	for _, e := range expenses {
		name, ok := names[e.CategoryID]
		if !ok || name == "" {
			name = uncategorizedLabel
		}
		totals[name] = totals[name].Add(e.Amount)
	}
	out := make([]CategoryTotal, 0, len(totals))
	for name, amount := range totals {
		out = append(out, CategoryTotal{Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func expenseBreakdownProvider(source FinanceSource, charts *ChartRenderer) Provider {
	return ProviderFunc(func(ctx context.Context, meta WidgetContext) (WidgetData, error) {
		var expenses []Transaction
		var categories []Category
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			expenses, err = source.Transactions(gctx, meta.Range, TransactionExpense)
			return err
		})
		g.Go(func() error {
			var err error
			categories, err = source.Categories(gctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("dashboard: fetch expense breakdown: %w", err)
		}

		groups := GroupByCategory(expenses, categories)
		slices := make([]ChartPoint, len(groups))
		rows := make([]map[string]any, len(groups))
		for i, group := range groups {
			slices[i] = ChartPoint{Label: group.Name, Value: group.Amount.InexactFloat64()}
			rows[i] = map[string]any{"name": group.Name, "amount": group.Amount.StringFixed(2)}
		}
		title := meta.Definition.NameForLocale(meta.Viewer.Locale)
		data := WidgetData{
			"title":      title,
			"categories": rows,
			"total":      sumTransactions(expenses).StringFixed(2),
			"start_date": meta.Range.StartDate,
			"end_date":   meta.Range.EndDate,
		}
		if len(slices) == 0 {
			return data, nil
		}
		html, err := charts.RenderBreakdown(title, slices)
		if err != nil {
			return nil, err
		}
		data["chart_html"] = html
		data["chart_type"] = "pie"
		return data, nil
	})
}

func recentTransactionsProvider(source FinanceSource) Provider {
	return ProviderFunc(func(ctx context.Context, meta WidgetContext) (WidgetData, error) {
		var incomes, expenses []Transaction
		var categories []Category
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			incomes, err = source.Transactions(gctx, meta.Range, TransactionIncome)
			return err
		})
		g.Go(func() error {
			var err error
			expenses, err = source.Transactions(gctx, meta.Range, TransactionExpense)
			return err
		})
		g.Go(func() error {
			var err error
			categories, err = source.Categories(gctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("dashboard: fetch recent transactions: %w", err)
		}

		names := make(map[string]string, len(categories))
		for _, c := range categories {
			names[c.ID] = c.Name
		}
		all := make([]Transaction, 0, len(incomes)+len(expenses))
		all = append(all, incomes...)
		all = append(all, expenses...)
		// Newest first; dates are YYYY-MM-DD so they sort as strings.
		sort.SliceStable(all, func(i, j int) bool {
			if all[i].Date != all[j].Date {
				return all[i].Date > all[j].Date
			}
			return all[i].ID > all[j].ID
		})
		if len(all) > RecentTransactionsLimit {
			all = all[:RecentTransactionsLimit]
		}
		rows := make([]map[string]any, len(all))
		for i, tx := range all {
			category := names[tx.CategoryID]
			if category == "" {
				category = uncategorizedLabel
			}
			rows[i] = map[string]any{
				"id":          tx.ID,
				"type":        string(tx.Type),
				"amount":      tx.Amount.StringFixed(2),
				"date":        tx.Date,
				"description": tx.Description,
				"category":    category,
			}
		}
		return WidgetData{
			"title":             meta.Definition.NameForLocale(meta.Viewer.Locale),
			"transactions":      rows,
			"transaction_count": len(incomes) + len(expenses),
			"start_date":        meta.Range.StartDate,
			"end_date":          meta.Range.EndDate,
		}, nil
	})
}
