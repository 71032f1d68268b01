// Package output renders deliberation results and registry telemetry for
// the terminal.
package output

import (
	"fmt"
	"strings"

	"github.com/agora-dev/agora/internal/agent"
	"github.com/agora-dev/agora/internal/deliberation"
)

const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
)

// Colorize wraps s with an ANSI color code and reset.
func Colorize(color, s string) string { return color + s + ansiReset }

// Bold wraps s with ANSI bold and reset.
func Bold(s string) string { return ansiBold + s + ansiReset }

// PhaseBanner returns the banner line for a phase transition.
func PhaseBanner(p deliberation.Phase) string {
	return Colorize(ansiBold+ansiCyan, fmt.Sprintf("=== Phase %d: %s ===", int(p), p))
}

// PrintPhase prints a phase transition banner.
func PrintPhase(p deliberation.Phase) {
	fmt.Printf("\n%s\n\n", PhaseBanner(p))
}

// PrintResult prints the full round summary.
func PrintResult(r *deliberation.Result) {
	fmt.Printf("%s %s\n", Bold("Topic:"), r.Topic)
	for team := 1; team <= len(r.Propositions); team++ {
		fmt.Printf("%s %s\n", Colorize(ansiYellow, fmt.Sprintf("[Team %d] proposition:", team)), r.Propositions[team])
		fmt.Printf("%s %s\n", Colorize(ansiYellow, fmt.Sprintf("[Team %d] solution:", team)), r.Solutions[team])
	}
	for _, c := range r.Challenges {
		fmt.Printf("%s %s\n", Colorize(ansiRed, fmt.Sprintf("[Team %d -> Team %d]", c.FromTeam, c.TargetTeam)), c.Text)
	}
	fmt.Printf("\n%s %s\n", Bold("Winner:"), Colorize(ansiBold+ansiGreen, fmt.Sprintf("team %d", r.WinningTeam)))
	fmt.Printf("%s %s\n", Bold("Synthesis:"), r.Synthesis)
	fmt.Printf("%s %s  %s %.2f\n",
		Bold("Confidence:"), Colorize(ansiYellow, fmt.Sprintf("%.2f", r.Confidence)),
		Bold("Winning avg performance:"), r.WinningPerformance)
	fmt.Printf("\n%s\n%s\n", Bold("Reasoning trace:"), "  "+strings.Join(r.Trace, "\n  "))
}

// PrintMorale prints per-team morale rows plus the readiness verdict.
func PrintMorale(rows []deliberation.TeamMorale, meanPerformance float64, ready bool) {
	for _, row := range rows {
		fmt.Printf("%s morale %s  mean performance %.2f\n",
			Colorize(ansiYellow, fmt.Sprintf("[Team %d]", row.TeamID)),
			moraleLabel(row.Morale),
			row.MeanPerformance)
	}
	verdict := Colorize(ansiRed, "below threshold")
	if ready {
		verdict = Colorize(ansiGreen, "ready")
	}
	fmt.Printf("\n%s %.3f (%s)\n", Bold("Registry mean performance:"), meanPerformance, verdict)
}

// PrintAgents prints one line per agent with its dominant emotion.
func PrintAgents(agents []agent.Agent) {
	for _, a := range agents {
		scope := "management"
		if a.TeamID > 0 {
			scope = fmt.Sprintf("team %d", a.TeamID)
		}
		emotion, value := a.Emotions.Dominant()
		fmt.Printf("%s %-13s %-11s perf %.2f  sanctions %d  handled %d  feeling %s (%.2f)\n",
			Colorize(ansiCyan, shortID(a.ID)), a.Role, scope, a.Performance, a.Sanctions, a.Handled, emotion, value)
	}
}

// moraleLabel colors a morale value: green when non-negative, red otherwise.
func moraleLabel(m float64) string {
	s := fmt.Sprintf("%+.2f", m)
	if m >= 0 {
		return Colorize(ansiGreen, s)
	}
	return Colorize(ansiRed, s)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
