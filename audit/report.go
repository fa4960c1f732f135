package audit

import (
	"fmt"
	"strings"
)

const reportWidth = 72

// FormatReport renders a summary as a human-readable report.
func FormatReport(s Summary) string {
	var b strings.Builder
	rule := strings.Repeat("=", reportWidth)
	line := strings.Repeat("-", 40)

	fmt.Fprintf(&b, "%s\nPORTFOLIO AUDIT REPORT: %s\n%s\n\n", rule, s.Collection, rule)

	fmt.Fprintf(&b, "SUMMARY\n%s\n", line)
	fmt.Fprintf(&b, "Total entities:           %d\n", s.Coverage.TotalEntities)
	fmt.Fprintf(&b, "Categories represented:   %d\n", s.Coverage.Balance.Spread)
	fmt.Fprintf(&b, "Unique tech stacks:       %d\n", len(s.Coverage.TopTechStacks))
	fmt.Fprintf(&b, "Consolidation candidates: %d\n", len(s.Candidates))
	fmt.Fprintf(&b, "Coverage gaps:            %d\n", len(s.Coverage.Gaps))
	fmt.Fprintf(&b, "Health score:             %d/100\n\n", s.HealthScore)

	fmt.Fprintf(&b, "CATEGORY DISTRIBUTION\n%s\n", line)
	for _, lc := range s.Coverage.Categories {
		pct := 0.0
		if s.Coverage.TotalEntities > 0 {
			pct = float64(lc.Count) / float64(s.Coverage.TotalEntities) * 100
		}
		bar := strings.Repeat("#", int(pct/5))
		fmt.Fprintf(&b, "%-20s %3d  %5.1f%% %s\n", lc.Label, lc.Count, pct, bar)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "TOP TECH STACKS\n%s\n", line)
	for i, lc := range s.Coverage.TopTechStacks {
		if i == 8 {
			break
		}
		fmt.Fprintf(&b, "%-20s %3d\n", lc.Label, lc.Count)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "COVERAGE GAPS (fewer than 2 entities)\n%s\n", line)
	if len(s.Coverage.Gaps) == 0 {
		b.WriteString("No significant gaps detected\n")
	}
	for _, gap := range s.Coverage.Gaps {
		fmt.Fprintf(&b, "- %s\n", gap)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "CONSOLIDATION CANDIDATES\n%s\n", line)
	if len(s.Candidates) == 0 {
		b.WriteString("No consolidation needed\n")
	}
	for i, cand := range s.Candidates {
		if i == 5 {
			break
		}
		shared := cand.SharedTechs
		if len(shared) > 3 {
			shared = shared[:3]
		}
		fmt.Fprintf(&b, "%d. %s <-> %s\n   overlap %.0f%% | shared: %s\n",
			i+1, cand.FirstPath, cand.SecondPath, cand.Overlap*100, strings.Join(shared, ", "))
	}

	fmt.Fprintf(&b, "\n%s\n", rule)
	return b.String()
}
