package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/yourusername/grid-scout-api/internal/grid"
	"github.com/yourusername/grid-scout-api/internal/models"
	"github.com/yourusername/grid-scout-api/pkg/cache"
)

const (
	opponentCacheTTL = 1 * time.Hour

	// Composition analysis fans out one roster query per opponent; cap the
	// fan-out so one report cannot hammer the upstream.
	maxOpponentsAnalyzed = 8
)

type OpponentService struct {
	gridClient *grid.Client
	cache      *cache.RedisClient
}

func NewOpponentService(gc *grid.Client, rc *cache.RedisClient) *OpponentService {
	return &OpponentService{gridClient: gc, cache: rc}
}

// GetOpponents lists the teams a team faced inside the window and the agent
// role compositions each of them ran, most-played opponents first.
func (s *OpponentService) GetOpponents(ctx context.Context, teamName, title string, months int) (*models.OpponentReport, error) {
	cacheKey := fmt.Sprintf("opponents:%s:%s:%d", strings.ToLower(teamName), strings.ToLower(title), months)
	var cached models.OpponentReport
	if err := s.cache.GetJSON(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		log.Printf("[WARN] cache read failed for %s: %v", cacheKey, err)
	}

	team, err := s.gridClient.ResolveTeam(ctx, teamName)
	if err != nil {
		return nil, err
	}

	refs, err := s.gridClient.GetTeamSeriesHistory(ctx, team.ID, months, 0)
	if err != nil {
		return nil, err
	}

	type opponent struct {
		team   models.Team
		played int
	}
	seen := make(map[string]*opponent)
	var order []string
	for _, ref := range refs {
		for _, t := range ref.Teams {
			if t.ID == team.ID || t.ID == "" {
				continue
			}
			opp, ok := seen[t.ID]
			if !ok {
				opp = &opponent{team: models.Team{ID: t.ID, Name: t.Name}}
				seen[t.ID] = opp
				order = append(order, t.ID)
			}
			opp.played++
		}
	}

	sort.Slice(order, func(i, j int) bool {
		a, b := seen[order[i]], seen[order[j]]
		if a.played != b.played {
			return a.played > b.played
		}
		return a.team.Name < b.team.Name
	})

	report := &models.OpponentReport{
		Team:         team,
		Title:        strings.ToLower(title),
		WindowMonths: months,
		Opponents:    []models.OpponentProfile{},
	}

	for i, id := range order {
		opp := seen[id]
		profile := models.OpponentProfile{Team: opp.team, SeriesPlayed: opp.played}
		if i < maxOpponentsAnalyzed {
			comps, err := s.analyzeCompositions(ctx, opp.team.ID, months)
			if err != nil {
				log.Printf("[WARN] composition analysis for %s failed: %v", opp.team.Name, err)
			} else {
				profile.Compositions = comps
			}
		}
		report.Opponents = append(report.Opponents, profile)
	}

	if err := s.cache.SetJSON(ctx, cacheKey, report, opponentCacheTTL); err != nil {
		log.Printf("[WARN] failed to cache opponent report: %v", err)
	}
	return report, nil
}

// analyzeCompositions derives an opponent's recurring role lineups from its
// recent series rosters. Each series contributes one signature.
func (s *OpponentService) analyzeCompositions(ctx context.Context, teamID string, months int) ([]models.OpponentComposition, error) {
	rosters, err := s.gridClient.GetSeriesRosters(ctx, teamID, months, 30)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	total := 0
	for _, roster := range rosters {
		roleCounts := make(map[string]int)
		for _, p := range roster.Players {
			if p.TeamID != teamID {
				continue
			}
			for _, role := range p.Roles {
				roleCounts[role]++
			}
		}
		sig := CompositionSignature(roleCounts)
		if sig == "" {
			continue
		}
		counts[sig]++
		total++
	}

	comps := make([]models.OpponentComposition, 0, len(counts))
	for sig, count := range counts {
		comps = append(comps, models.OpponentComposition{
			Signature: sig,
			Count:     count,
			Share:     float64(count) / float64(total),
		})
	}
	sort.Slice(comps, func(i, j int) bool {
		if comps[i].Count != comps[j].Count {
			return comps[i].Count > comps[j].Count
		}
		return comps[i].Signature < comps[j].Signature
	})
	return comps, nil
}

// CompositionSignature renders a role distribution as a stable string, e.g.
// "1xController + 2xDuelist + 2xSentinel". Roles sort alphabetically so the
// same lineup always produces the same signature.
func CompositionSignature(roleCounts map[string]int) string {
	if len(roleCounts) == 0 {
		return ""
	}
	roles := make([]string, 0, len(roleCounts))
	for role := range roleCounts {
		roles = append(roles, role)
	}
	sort.Strings(roles)

	parts := make([]string, 0, len(roles))
	for _, role := range roles {
		parts = append(parts, fmt.Sprintf("%dx%s", roleCounts[role], role))
	}
	return strings.Join(parts, " + ")
}
