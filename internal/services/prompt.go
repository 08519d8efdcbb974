package services

import (
	"fmt"
	"strings"

	"github.com/yourusername/grid-scout-api/internal/models"
)

// BuildPrompt turns an aggregate report into the instruction sent to the
// language model. The model only rephrases numbers it is given; it is told
// not to invent any.
func BuildPrompt(report *models.AggregateReport, confidence models.Confidence) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an esports analyst preparing a scouting brief on %s.\n", report.TeamName)
	fmt.Fprintf(&b, "Write a concise tactical summary (150-250 words) for a coach preparing to play against them.\n")
	fmt.Fprintf(&b, "Use only the statistics below. Do not invent numbers or facts.\n\n")
	fmt.Fprintf(&b, "Data window: last %d months, %d series. Confidence: %s (%s).\n\n",
		report.WindowMonths, report.SeriesCount, confidence.Level, confidence.Reasoning)

	if len(report.Maps) > 0 {
		b.WriteString("Map statistics:\n")
		for _, m := range report.Maps {
			fmt.Fprintf(&b, "- %s: %d played, %d-%d (win rate %.0f%%), picked %d times, banned %d times\n",
				m.Name, m.GamesPlayed, m.Wins, m.Losses, m.WinRate*100, m.PickCount, m.BanCount)
		}
		b.WriteString("\n")
	}

	if len(report.Players) > 0 {
		b.WriteString("Player statistics:\n")
		for _, p := range report.Players {
			fmt.Fprintf(&b, "- %s: %d games, attacker KD %.2f, defender KD %.2f, headshot ratio %.0f%%, aggression %.2f",
				p.Nickname, p.GamesPlayed, p.KDBySide.Attacker.KD, p.KDBySide.Defender.KD, p.HeadshotRatio*100, p.AggressionFactor)
			if p.PreferredWeapon != "" {
				fmt.Fprintf(&b, ", prefers %s", p.PreferredWeapon)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(report.AgentsToDeny) > 0 {
		b.WriteString("Highest-impact agents (deny first):\n")
		for i, a := range report.AgentsToDeny {
			if i >= 5 {
				break
			}
			fmt.Fprintf(&b, "- %s (%s), impact %.2f\n", a.Entity, a.Nickname, a.ImpactScore)
		}
		b.WriteString("\n")
	}

	b.WriteString("Cover: which maps to pick and ban against them, which players to shut down, and one exploitable weakness.\n")
	return b.String()
}

// RenderSummary is the deterministic fallback when no language model is
// available. Plain statements of the strongest signals in the report.
func RenderSummary(report *models.AggregateReport) string {
	if report.SeriesCount == 0 {
		return fmt.Sprintf("No completed series found for %s in the last %d months.", report.TeamName, report.WindowMonths)
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("%s played %d series over the last %d months.",
		report.TeamName, report.SeriesCount, report.WindowMonths))

	if best, worst := bestAndWorstMaps(report.Maps); best != nil {
		parts = append(parts, fmt.Sprintf("Strongest map: %s (%d-%d, %.0f%% win rate).",
			best.Name, best.Wins, best.Losses, best.WinRate*100))
		if worst != nil && worst.Name != best.Name {
			parts = append(parts, fmt.Sprintf("Weakest map: %s (%d-%d, %.0f%% win rate).",
				worst.Name, worst.Wins, worst.Losses, worst.WinRate*100))
		}
	}

	if banned := mostBannedMap(report.Maps); banned != nil {
		parts = append(parts, fmt.Sprintf("They avoid %s (banned %d times).", banned.Name, banned.BanCount))
	}

	if len(report.AgentsToDeny) > 0 {
		top := report.AgentsToDeny[0]
		parts = append(parts, fmt.Sprintf("Highest-impact pick to deny: %s on %s (impact %.2f).",
			top.Nickname, top.Entity, top.ImpactScore))
	}

	return strings.Join(parts, " ")
}

func bestAndWorstMaps(maps []models.MapStats) (best, worst *models.MapStats) {
	for i := range maps {
		m := &maps[i]
		if m.GamesPlayed == 0 {
			continue
		}
		if best == nil || m.WinRate > best.WinRate {
			best = m
		}
		if worst == nil || m.WinRate < worst.WinRate {
			worst = m
		}
	}
	return best, worst
}

func mostBannedMap(maps []models.MapStats) *models.MapStats {
	var top *models.MapStats
	for i := range maps {
		m := &maps[i]
		if m.BanCount > 0 && (top == nil || m.BanCount > top.BanCount) {
			top = m
		}
	}
	return top
}
