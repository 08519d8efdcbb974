// Package aggregator turns a bounded list of fetched series records into the
// per-map, per-player and per-team statistics of a scouting report. It is the
// only computational core of the service: deterministic, side-effect-free and
// free of I/O, so identical input always yields an identical report.
package aggregator

import (
	"fmt"
	"sort"

	"github.com/yourusername/grid-scout-api/internal/models"
)

// Impact weighting for tactical priority. Kill participation dominates;
// objective captures break near-ties between entry players and utility players.
const (
	killParticipationWeight = 1.0
	objectiveCaptureWeight  = 0.5
)

// Config carries everything Aggregate needs besides the records themselves.
// MapPool is the title's competitive pool, used for ban inference by absence.
type Config struct {
	TeamID       string
	TeamName     string
	WindowMonths int
	MapPool      []string
}

// Aggregate computes the full report for one team from its fetched records.
// Records are assumed pre-filtered to the team and to competitive series.
// Empty input yields an empty-but-valid report with no diagnostics.
func Aggregate(records []models.MatchRecord, cfg Config) *models.AggregateReport {
	report := &models.AggregateReport{
		TeamID:       cfg.TeamID,
		TeamName:     cfg.TeamName,
		WindowMonths: cfg.WindowMonths,
		SeriesCount:  len(records),
		Maps:         []models.MapStats{},
		Players:      []models.PlayerReport{},
		AgentsToDeny: []models.TacticalPriority{},
	}
	if len(records) == 0 {
		return report
	}

	byMap, diags := MapStats(records, cfg.TeamID, cfg.MapPool)

	names := make([]string, 0, len(byMap))
	for name := range byMap {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		report.Maps = append(report.Maps, *byMap[name])
	}

	for _, id := range teamPlayerIDs(records, cfg.TeamID) {
		player, pdiags := PlayerStats(records, id)
		report.Players = append(report.Players, player)
		diags = append(diags, pdiags...)
	}
	sort.Slice(report.Players, func(i, j int) bool {
		if report.Players[i].Nickname != report.Players[j].Nickname {
			return report.Players[i].Nickname < report.Players[j].Nickname
		}
		return report.Players[i].PlayerID < report.Players[j].PlayerID
	})

	report.AgentsToDeny = TacticalPriority(records, cfg.TeamID)
	report.Diagnostics = diags
	return report
}

// MapStats tallies per-map games, wins, losses, picks and bans for one team.
// Win or loss follows the sign of the team's score advantage in each series;
// a participant with a missing score advantage contributes nothing to the
// tallies and appends one diagnostic referencing the record.
func MapStats(records []models.MatchRecord, teamID string, pool []string) (map[string]*models.MapStats, []models.Diagnostic) {
	stats := make(map[string]*models.MapStats)
	var diags []models.Diagnostic

	ensure := func(name string) *models.MapStats {
		if s, ok := stats[name]; ok {
			return s
		}
		s := &models.MapStats{Name: name}
		stats[name] = s
		return s
	}

	for _, rec := range records {
		part, ok := findParticipant(rec, teamID)
		if !ok {
			continue
		}

		if part.ScoreAdvantage == nil {
			diags = append(diags, models.Diagnostic{
				RecordID: rec.ID,
				Field:    "scoreAdvantage",
				Detail:   "missing score advantage, series excluded from win/loss tallies",
			})
		} else {
			won := *part.ScoreAdvantage > 0
			for _, g := range part.Games {
				if g.MapName == "" {
					continue
				}
				s := ensure(g.MapName)
				s.GamesPlayed++
				if won {
					s.Wins++
				} else {
					s.Losses++
				}
			}
		}

		referenced := make(map[string]bool)
		for _, g := range part.Games {
			if g.MapName != "" {
				referenced[g.MapName] = true
			}
		}
		for _, da := range rec.DraftActions {
			if da.MapName == "" {
				continue
			}
			referenced[da.MapName] = true
			if da.TeamID != teamID {
				continue
			}
			switch da.Type {
			case "pick":
				ensure(da.MapName).PickCount++
			case "ban":
				ensure(da.MapName).BanCount++
			}
		}

		// Ban inference by absence: when the series references all but one map
		// of the configured pool, the missing map was removed in an unrecorded
		// draft step and counts as banned.
		if len(pool) > 0 && len(referenced) == draftPoolSize(rec.Format, len(pool))-1 {
			var absent string
			absentCount := 0
			for _, m := range pool {
				if !referenced[m] {
					absent = m
					absentCount++
				}
			}
			if absentCount == 1 {
				ensure(absent).BanCount++
			}
		}
	}

	series := float64(len(records))
	for _, s := range stats {
		if s.GamesPlayed > 0 {
			s.WinRate = float64(s.Wins) / float64(s.GamesPlayed)
		}
		if series > 0 {
			s.PickRate = float64(s.PickCount) / series
			s.BanRate = float64(s.BanCount) / series
		}
	}
	return stats, diags
}

// PlayerStats aggregates one player's stat lines across all records. A player
// with no recorded games yields zero-filled stats, not an error. Malformed
// numeric fields are clamped to zero and flagged as diagnostics.
func PlayerStats(records []models.MatchRecord, playerID string) (models.PlayerReport, []models.Diagnostic) {
	report := models.PlayerReport{
		PlayerID:    playerID,
		WeaponUsage: []models.WeaponUsage{},
	}
	var diags []models.Diagnostic

	var (
		kills, deaths, headshots         int
		firstEngagements, rounds         int
		pistolRounds, pistolBuys, damage int
		attacker, defender               models.SideStats
		weaponKills                      = make(map[string]int)
	)

	for _, rec := range records {
		for _, line := range rec.PlayerLines {
			if line.PlayerID != playerID {
				continue
			}
			if report.Nickname == "" {
				report.Nickname = line.Nickname
			}
			report.GamesPlayed++

			k, d, hs := line.Kills, line.Deaths, line.Headshots
			if k < 0 || d < 0 || hs < 0 {
				diags = append(diags, models.Diagnostic{
					RecordID: rec.ID,
					Field:    "playerStats",
					Detail:   fmt.Sprintf("negative counters for %s zero-filled", line.Nickname),
				})
				k, d, hs = max(k, 0), max(d, 0), max(hs, 0)
			}

			kills += k
			deaths += d
			headshots += hs
			firstEngagements += line.FirstEngagements
			rounds += line.RoundsPlayed
			pistolRounds += line.PistolRounds
			pistolBuys += line.PistolArmorBuys
			damage += line.DamageDealt

			switch line.Side {
			case models.SideAttacker:
				attacker.Kills += k
				attacker.Deaths += d
			case models.SideDefender:
				defender.Kills += k
				defender.Deaths += d
			}

			for weapon, count := range line.WeaponKills {
				weaponKills[weapon] += count
			}
		}
	}

	attacker.KD = killDeathRatio(attacker.Kills, attacker.Deaths)
	defender.KD = killDeathRatio(defender.Kills, defender.Deaths)
	report.KDBySide = models.KDBySide{Attacker: attacker, Defender: defender}

	if kills > 0 {
		report.HeadshotRatio = float64(headshots) / float64(kills)
	}
	if rounds > 0 {
		af := float64(firstEngagements) / float64(rounds)
		report.AggressionFactor = min(max(af, 0), 1)
		report.AvgDamagePerRound = float64(damage) / float64(rounds)
	}
	if pistolRounds > 0 {
		report.PistolArmorBuyRate = float64(pistolBuys) / float64(pistolRounds)
	}

	totalWeaponKills := 0
	for _, c := range weaponKills {
		totalWeaponKills += c
	}
	for weapon, count := range weaponKills {
		usage := models.WeaponUsage{Weapon: weapon, Kills: count}
		if totalWeaponKills > 0 {
			usage.Share = float64(count) / float64(totalWeaponKills)
		}
		report.WeaponUsage = append(report.WeaponUsage, usage)
	}
	sort.Slice(report.WeaponUsage, func(i, j int) bool {
		if report.WeaponUsage[i].Kills != report.WeaponUsage[j].Kills {
			return report.WeaponUsage[i].Kills > report.WeaponUsage[j].Kills
		}
		return report.WeaponUsage[i].Weapon < report.WeaponUsage[j].Weapon
	})
	if len(report.WeaponUsage) > 0 {
		report.PreferredWeapon = report.WeaponUsage[0].Weapon
	}

	return report, diags
}

// TacticalPriority ranks a team's agents (paired with the player running them)
// by impact score, descending. Impact combines kill participation with
// objective-capture priority; ties break by nickname ascending so the ranking
// is stable across runs.
func TacticalPriority(records []models.MatchRecord, teamID string) []models.TacticalPriority {
	type entry struct {
		agent, nickname   string
		kills, objectives int
	}
	entries := make(map[string]*entry)
	teamKills, teamObjectives := 0, 0

	for _, rec := range records {
		for _, line := range rec.PlayerLines {
			if line.TeamID != teamID || line.Agent == "" {
				continue
			}
			key := line.Agent + "\x00" + line.Nickname
			e, ok := entries[key]
			if !ok {
				e = &entry{agent: line.Agent, nickname: line.Nickname}
				entries[key] = e
			}
			e.kills += line.Kills
			teamKills += line.Kills
			for _, c := range line.Objectives {
				e.objectives += c
				teamObjectives += c
			}
		}
	}

	ranked := make([]models.TacticalPriority, 0, len(entries))
	for _, e := range entries {
		score := 0.0
		if teamKills > 0 {
			score += killParticipationWeight * float64(e.kills) / float64(teamKills)
		}
		if teamObjectives > 0 {
			score += objectiveCaptureWeight * float64(e.objectives) / float64(teamObjectives)
		}
		ranked = append(ranked, models.TacticalPriority{
			Entity:      e.agent,
			Nickname:    e.nickname,
			ImpactScore: score,
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].ImpactScore != ranked[j].ImpactScore {
			return ranked[i].ImpactScore > ranked[j].ImpactScore
		}
		return ranked[i].Nickname < ranked[j].Nickname
	})
	return ranked
}

func findParticipant(rec models.MatchRecord, teamID string) (models.ParticipantResult, bool) {
	for _, p := range rec.Participants {
		if p.TeamID == teamID {
			return p, true
		}
	}
	return models.ParticipantResult{}, false
}

// teamPlayerIDs returns the team's players in first-seen order; Aggregate
// sorts the final reports by nickname.
func teamPlayerIDs(records []models.MatchRecord, teamID string) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, rec := range records {
		for _, line := range rec.PlayerLines {
			if line.TeamID != teamID || seen[line.PlayerID] {
				continue
			}
			seen[line.PlayerID] = true
			ids = append(ids, line.PlayerID)
		}
	}
	return ids
}

func killDeathRatio(kills, deaths int) float64 {
	if deaths > 0 {
		return float64(kills) / float64(deaths)
	}
	return float64(kills)
}
