package dashboard

import (
	"context"
	"errors"
	"testing"
)

type stubTranslationService struct {
	value string
	err   error
}

func (s stubTranslationService) Translate(ctx context.Context, key, locale string, args map[string]any) (string, error) {
	return s.value, s.err
}

func TestResolveLocalizedValue(t *testing.T) {
	values := map[string]string{
		"en":    "Income vs Expenses",
		"it":    "Entrate vs Uscite",
		"it-ch": "Entrate e Uscite",
	}
	if got := ResolveLocalizedValue(values, "it-CH", "fallback"); got != "Entrate e Uscite" {
		t.Fatalf("expected region-specific match, got %q", got)
	}
	if got := ResolveLocalizedValue(values, "it-IT", "fallback"); got != "Entrate vs Uscite" {
		t.Fatalf("expected base locale fallback, got %q", got)
	}
	if got := ResolveLocalizedValue(values, "fr", "Income vs Expenses"); got != "Income vs Expenses" {
		t.Fatalf("expected fallback when locale missing, got %q", got)
	}
	if got := ResolveLocalizedValue(nil, "it", "Income vs Expenses"); got != "Income vs Expenses" {
		t.Fatalf("expected fallback when no localized map, got %q", got)
	}
}

func TestCatalogLabelsForLocale(t *testing.T) {
	reg := NewRegistry()
	def, ok := reg.Definition(KindIncomeVsExpenses)
	if !ok {
		t.Fatalf("expected %s in catalog", KindIncomeVsExpenses)
	}
	if got := def.NameForLocale("it"); got != "Entrate vs Uscite" {
		t.Fatalf("expected italian label, got %q", got)
	}
	if got := def.NameForLocale("en-US"); got != "Income vs Expenses" {
		t.Fatalf("expected english label, got %q", got)
	}
	if got := def.DescriptionForLocale("it"); got != def.Description {
		t.Fatalf("expected description fallback, got %q", got)
	}
}

func TestTranslateOrFallback(t *testing.T) {
	svc := stubTranslationService{value: "Impossibile salvare il layout"}
	out := translateOrFallback(context.Background(), svc, "dashboard.save_failed", "it", "Failed to save layout", nil)
	if out != "Impossibile salvare il layout" {
		t.Fatalf("expected translator value, got %q", out)
	}
	svc = stubTranslationService{err: errors.New("boom")}
	out = translateOrFallback(context.Background(), svc, "dashboard.save_failed", "it", "Failed to save layout", nil)
	if out != "Failed to save layout" {
		t.Fatalf("expected fallback on error, got %q", out)
	}
	if out := translateOrFallback(context.Background(), nil, "dashboard.save_failed", "it", "", nil); out != "dashboard.save_failed" {
		t.Fatalf("expected key when no fallback, got %q", out)
	}
}
