package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/loclate/loclate/internal/models"
)

// formatValue отображает значение перевода для вывода в терминал.
func formatValue(e *models.WorkingEntry) string {
	if e.IsPlural && len(e.PluralForms) > 0 {
		forms := make([]string, 0, len(e.PluralForms))
		for form := range e.PluralForms {
			forms = append(forms, form)
		}
		sort.Strings(forms)
		parts := make([]string, 0, len(forms))
		for _, form := range forms {
			parts = append(parts, fmt.Sprintf("%s: %q", form, e.PluralForms[form]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	if e.Value == nil {
		return "(untranslated)"
	}
	return fmt.Sprintf("%q", *e.Value)
}

// formatLastSync отображает время последней синхронизации.
func formatLastSync(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return fmt.Sprintf("%s (%s ago)", t.Local().Format(time.RFC3339), time.Since(t).Round(time.Second))
}

// truncate обрезает строку для табличного вывода.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func deref(v *string) string {
	if v == nil {
		return "(deleted)"
	}
	return *v
}
