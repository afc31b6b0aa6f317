package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/quantfort/parityscan/pkg/model"
)

// Status symbols used in rendered tables.
const (
	symbolPass = "✅"
	symbolFail = "❌"
)

func statusSymbol(s model.Status) string {
	if s == model.StatusPass {
		return symbolPass
	}
	return symbolFail
}

// implementationLink renders a Markdown link to a unit's implementation in
// the given category, or a dash when none exists.
func implementationLink(row model.ReportRow, category string) string {
	for _, impl := range row.Implementations {
		if impl.Category == category {
			return fmt.Sprintf("[%s](%s)", impl.Path, impl.Path)
		}
	}
	return "—"
}

// escapeCell keeps free-form text from breaking table structure.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.TrimSpace(s)
}

// RenderAggregate renders the full comparison table as Markdown. It is a
// pure function of its inputs so the same rows always render identically.
func RenderAggregate(rows []model.ReportRow, generatedAt time.Time) string {
	var b strings.Builder

	b.WriteString("# Indicator Parity Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", generatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Units compared: %d\n\n", len(rows))

	b.WriteString("| Indicator | Python | Cython | Rust | Parity | Test Coverage | Notes |\n")
	b.WriteString("|-----------|--------|--------|------|--------|---------------|-------|\n")
	for _, row := range rows {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s |\n",
			escapeCell(row.Unit),
			implementationLink(row, model.CategoryPython),
			implementationLink(row, model.CategoryCython),
			implementationLink(row, model.CategoryRust),
			statusSymbol(row.Parity),
			statusSymbol(row.Coverage),
			escapeCell(row.Notes))
	}
	return b.String()
}

// RenderUnitReport renders one unit's standalone report page.
func RenderUnitReport(row model.ReportRow, generatedAt time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", row.Unit)
	fmt.Fprintf(&b, "Generated: %s\n\n", generatedAt.UTC().Format(time.RFC3339))

	b.WriteString("## Implementations\n\n")
	if len(row.Implementations) == 0 {
		b.WriteString("None found.\n")
	}
	for _, impl := range row.Implementations {
		fmt.Fprintf(&b, "- %s: [%s](%s)\n", impl.Category, impl.Path, impl.Path)
	}

	b.WriteString("\n## Assessment\n\n")
	fmt.Fprintf(&b, "- Parity: %s %s\n", statusSymbol(row.Parity), row.Parity)
	fmt.Fprintf(&b, "- Test coverage: %s %s\n", statusSymbol(row.Coverage), row.Coverage)
	if row.Notes != "" {
		fmt.Fprintf(&b, "\n%s\n", row.Notes)
	}
	return b.String()
}

// WriteReports writes the aggregate table to aggregatePath and one page per
// unit under dir. The directory is created if needed.
func WriteReports(dir, aggregatePath string, rows []model.ReportRow, generatedAt time.Time) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	if err := os.WriteFile(aggregatePath, []byte(RenderAggregate(rows, generatedAt)), 0o644); err != nil {
		return fmt.Errorf("write aggregate report: %w", err)
	}

	for _, row := range rows {
		name := unitFileName(row.Unit)
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(RenderUnitReport(row, generatedAt)), 0o644); err != nil {
			return fmt.Errorf("write unit report %s: %w", name, err)
		}
	}
	return nil
}

// unitFileName maps a unit name to a safe Markdown filename.
func unitFileName(unit string) string {
	var b strings.Builder
	for _, r := range unit {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String() + ".md"
}
