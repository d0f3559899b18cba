package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/felixgeelhaar/nextup/internal/recommendation/application/queries"
)

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printRecommendation renders a recommendation with its factors and
// alternatives.
func printRecommendation(out io.Writer, heading string, rec queries.RecommendationDTO, now time.Time) {
	fmt.Fprintf(out, "\n  %s", heading)
	if rec.Source != "" {
		fmt.Fprintf(out, " (%s)", rec.Source)
	}
	if rec.Degraded {
		fmt.Fprint(out, " [degraded]")
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  "+strings.Repeat("=", 58))

	if rec.Empty() {
		fmt.Fprintln(out, "  Nothing to do. No open tasks.")
		return
	}

	p := rec.Primary
	fmt.Fprintf(out, "  -> %s  [%s]\n", p.Title, p.TaskID)
	fmt.Fprintf(out, "     %s\n", taskDetails(*p, now))
	fmt.Fprintf(out, "     score %.1f  confidence %.0f%%  success %.0f%%\n",
		p.FinalScore, p.Confidence, p.SuccessProbability)
	for _, f := range p.Factors {
		fmt.Fprintf(out, "     %s %s: %s\n", f.Badge, f.Label, f.Description)
	}

	if len(rec.Alternatives) > 0 {
		fmt.Fprintln(out, "\n  Alternatives")
		fmt.Fprintln(out, "  "+strings.Repeat("-", 58))
		for i, alt := range rec.Alternatives {
			fmt.Fprintf(out, "  %d. %s  [%s]  score %.1f\n", i+2, alt.Title, alt.TaskID, alt.FinalScore)
		}
	}

	if rec.TimeOfDay != "" {
		fmt.Fprintf(out, "\n  context: %s, energy %s, pattern %s\n", rec.TimeOfDay, rec.EnergyLevel, rec.WorkPattern)
	}
}

func taskDetails(t queries.ScoredTaskDTO, now time.Time) string {
	parts := []string{"priority " + t.Priority}
	if t.DueDate != nil {
		parts = append(parts, dueLabel(*t.DueDate, now))
	}
	if t.EstimatedMinutes > 0 {
		parts = append(parts, formatMinutes(t.EstimatedMinutes))
	}
	return strings.Join(parts, " | ")
}

func dueLabel(due, now time.Time) string {
	d := due.Sub(now)
	switch {
	case d < 0:
		return "overdue by " + roundDuration(-d)
	case d < time.Minute:
		return "due now"
	default:
		return "due in " + roundDuration(d)
	}
}

func roundDuration(d time.Duration) string {
	switch {
	case d >= 48*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	case d >= time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
}

func formatMinutes(m int) string {
	if m >= 60 {
		if m%60 == 0 {
			return fmt.Sprintf("%dh", m/60)
		}
		return fmt.Sprintf("%dh%dm", m/60, m%60)
	}
	return fmt.Sprintf("%dm", m)
}
