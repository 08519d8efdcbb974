package aggregator

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/yourusername/grid-scout-api/internal/models"
)

const teamID = "97"

func intPtr(v int) *int { return &v }

func seriesRecord(id, mapName string, scoreAdvantage *int) models.MatchRecord {
	return models.MatchRecord{
		ID:        id,
		Title:     "valorant",
		StartTime: time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC),
		Format:    "best-of-3",
		Participants: []models.ParticipantResult{
			{
				TeamID:         teamID,
				TeamName:       "Cloud9",
				ScoreAdvantage: scoreAdvantage,
				Games:          []models.GamePlayed{{Game: 1, MapName: mapName, Side: models.SideAttacker}},
			},
			{
				TeamID:         "81",
				TeamName:       "Sentinels",
				ScoreAdvantage: intPtr(-2),
				Games:          []models.GamePlayed{{Game: 1, MapName: mapName, Side: models.SideDefender}},
			},
		},
	}
}

func TestMapStatsWinLossTallies(t *testing.T) {
	records := []models.MatchRecord{
		seriesRecord("s1", "ascent", intPtr(4)),
		seriesRecord("s2", "ascent", intPtr(8)),
		seriesRecord("s3", "bind", intPtr(-2)),
	}

	stats, diags := MapStats(records, teamID, nil)
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}

	ascent := stats["ascent"]
	if ascent == nil || ascent.GamesPlayed != 2 || ascent.Wins != 2 || ascent.Losses != 0 {
		t.Errorf("ascent = %+v, want games=2 wins=2 losses=0", ascent)
	}
	bind := stats["bind"]
	if bind == nil || bind.GamesPlayed != 1 || bind.Wins != 0 || bind.Losses != 1 {
		t.Errorf("bind = %+v, want games=1 wins=0 losses=1", bind)
	}

	// Wins plus losses must equal games played on every map.
	for name, s := range stats {
		if s.Wins+s.Losses != s.GamesPlayed {
			t.Errorf("map %s: wins(%d)+losses(%d) != gamesPlayed(%d)", name, s.Wins, s.Losses, s.GamesPlayed)
		}
	}
}

func TestMapStatsMissingScoreAdvantage(t *testing.T) {
	records := []models.MatchRecord{
		seriesRecord("s1", "ascent", intPtr(4)),
		seriesRecord("s-malformed", "haven", nil),
	}

	stats, diags := MapStats(records, teamID, nil)

	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(diags))
	}
	if diags[0].RecordID != "s-malformed" {
		t.Errorf("diagnostic record id = %q, want %q", diags[0].RecordID, "s-malformed")
	}
	if diags[0].Field != "scoreAdvantage" {
		t.Errorf("diagnostic field = %q, want scoreAdvantage", diags[0].Field)
	}

	// The malformed series contributes zero to win/loss tallies.
	if haven, ok := stats["haven"]; ok && (haven.Wins != 0 || haven.Losses != 0) {
		t.Errorf("haven = %+v, want zero win/loss contribution", haven)
	}
	for name, s := range stats {
		if s.Wins+s.Losses != s.GamesPlayed {
			t.Errorf("map %s: tallies out of balance: %+v", name, s)
		}
	}
}

func TestMapStatsPickAndBanCounts(t *testing.T) {
	rec := seriesRecord("s1", "lotus", intPtr(4))
	rec.DraftActions = []models.DraftAction{
		{Sequence: 1, TeamID: teamID, Type: "ban", MapName: "icebox"},
		{Sequence: 2, TeamID: "81", Type: "ban", MapName: "corrode"},
		{Sequence: 3, TeamID: teamID, Type: "pick", MapName: "lotus"},
		{Sequence: 4, TeamID: "81", Type: "pick", MapName: "bind"},
		{Sequence: 5, TeamID: teamID, Type: "ban", MapName: "sunset"},
		{Sequence: 6, TeamID: "81", Type: "ban", MapName: "ascent"},
		{Sequence: 7, TeamID: "2819695", Type: "pick", MapName: "haven"},
	}

	stats, _ := MapStats([]models.MatchRecord{rec}, teamID, PoolForTitle("valorant"))

	if got := stats["lotus"].PickCount; got != 1 {
		t.Errorf("lotus pick count = %d, want 1", got)
	}
	if got := stats["icebox"].BanCount; got != 1 {
		t.Errorf("icebox ban count = %d, want 1", got)
	}
	if got := stats["sunset"].BanCount; got != 1 {
		t.Errorf("sunset ban count = %d, want 1", got)
	}
	// Opponent actions are not credited to the team.
	if s, ok := stats["corrode"]; ok && (s.PickCount != 0 || s.BanCount != 0) {
		t.Errorf("corrode = %+v, want no pick/ban credited", s)
	}
}

func TestMapStatsBanInferenceByAbsence(t *testing.T) {
	// Series references six of the seven pool maps; the absent one counts
	// as banned even though no draft action recorded it.
	rec := seriesRecord("s1", "lotus", intPtr(4))
	rec.DraftActions = []models.DraftAction{
		{Sequence: 1, TeamID: teamID, Type: "ban", MapName: "icebox"},
		{Sequence: 2, TeamID: "81", Type: "ban", MapName: "corrode"},
		{Sequence: 3, TeamID: teamID, Type: "pick", MapName: "lotus"},
		{Sequence: 4, TeamID: "81", Type: "pick", MapName: "bind"},
		{Sequence: 5, TeamID: teamID, Type: "ban", MapName: "sunset"},
		{Sequence: 6, TeamID: "81", Type: "ban", MapName: "ascent"},
	}

	stats, _ := MapStats([]models.MatchRecord{rec}, teamID, PoolForTitle("valorant"))

	if s, ok := stats["haven"]; !ok || s.BanCount != 1 {
		t.Errorf("haven should carry one inferred ban, got %+v", s)
	}
}

func TestPlayerStatsHeadshotRatio(t *testing.T) {
	tests := []struct {
		name      string
		kills     int
		headshots int
		want      float64
	}{
		{"exact ratio", 10, 4, 0.4},
		{"zero kills yields zero, not NaN", 0, 0, 0},
		{"all headshots", 5, 5, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := seriesRecord("s1", "ascent", intPtr(4))
			rec.PlayerLines = []models.PlayerStatLine{{
				PlayerID:  "p1",
				Nickname:  "aspas",
				TeamID:    teamID,
				Agent:     "raze",
				Side:      models.SideAttacker,
				Game:      1,
				Kills:     tt.kills,
				Headshots: tt.headshots,
			}}

			player, diags := PlayerStats([]models.MatchRecord{rec}, "p1")
			if len(diags) != 0 {
				t.Fatalf("unexpected diagnostics: %v", diags)
			}
			if player.HeadshotRatio != tt.want {
				t.Errorf("headshot ratio = %v, want %v", player.HeadshotRatio, tt.want)
			}
			if player.HeadshotRatio < 0 || player.HeadshotRatio > 1 {
				t.Errorf("headshot ratio %v out of [0,1]", player.HeadshotRatio)
			}
		})
	}
}

func TestPlayerStatsAggressionFactorBounds(t *testing.T) {
	rec := seriesRecord("s1", "ascent", intPtr(4))
	rec.PlayerLines = []models.PlayerStatLine{{
		PlayerID:         "p1",
		Nickname:         "aspas",
		TeamID:           teamID,
		Side:             models.SideAttacker,
		FirstEngagements: 6,
		RoundsPlayed:     24,
		Kills:            18,
		Deaths:           12,
	}}

	player, _ := PlayerStats([]models.MatchRecord{rec}, "p1")
	if player.AggressionFactor != 0.25 {
		t.Errorf("aggression factor = %v, want 0.25", player.AggressionFactor)
	}
	if player.AggressionFactor < 0 || player.AggressionFactor > 1 {
		t.Errorf("aggression factor %v out of [0,1]", player.AggressionFactor)
	}
	if player.KDBySide.Attacker.KD != 1.5 {
		t.Errorf("attacker KD = %v, want 1.5", player.KDBySide.Attacker.KD)
	}
}

func TestPlayerStatsUnknownPlayerZeroFilled(t *testing.T) {
	records := []models.MatchRecord{seriesRecord("s1", "ascent", intPtr(4))}

	player, diags := PlayerStats(records, "nobody")
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if player.GamesPlayed != 0 || player.HeadshotRatio != 0 || player.AggressionFactor != 0 {
		t.Errorf("unknown player should be zero-filled, got %+v", player)
	}
	if player.WeaponUsage == nil || len(player.WeaponUsage) != 0 {
		t.Errorf("weapon usage should be empty, got %v", player.WeaponUsage)
	}
}

func TestPlayerStatsWeaponDistribution(t *testing.T) {
	rec := seriesRecord("s1", "ascent", intPtr(4))
	rec.PlayerLines = []models.PlayerStatLine{{
		PlayerID: "p1",
		Nickname: "aspas",
		TeamID:   teamID,
		Side:     models.SideAttacker,
		Kills:    13,
		WeaponKills: map[string]int{
			"phantom": 11,
			"sheriff": 2,
		},
	}}

	player, _ := PlayerStats([]models.MatchRecord{rec}, "p1")
	if player.PreferredWeapon != "phantom" {
		t.Errorf("preferred weapon = %q, want phantom", player.PreferredWeapon)
	}
	if len(player.WeaponUsage) != 2 {
		t.Fatalf("weapon usage entries = %d, want 2", len(player.WeaponUsage))
	}
	if player.WeaponUsage[0].Weapon != "phantom" || player.WeaponUsage[1].Weapon != "sheriff" {
		t.Errorf("weapon usage order wrong: %v", player.WeaponUsage)
	}
	totalShare := player.WeaponUsage[0].Share + player.WeaponUsage[1].Share
	if totalShare < 0.999 || totalShare > 1.001 {
		t.Errorf("weapon shares sum to %v, want 1", totalShare)
	}
}

func TestTacticalPriorityOrdering(t *testing.T) {
	rec := seriesRecord("s1", "ascent", intPtr(4))
	rec.PlayerLines = []models.PlayerStatLine{
		{PlayerID: "p1", Nickname: "zander", TeamID: teamID, Agent: "omen", Kills: 10},
		{PlayerID: "p2", Nickname: "aspas", TeamID: teamID, Agent: "raze", Kills: 10},
		{PlayerID: "p3", Nickname: "less", TeamID: teamID, Agent: "viper", Kills: 20,
			Objectives: map[string]int{"captureUltimateOrb": 3}},
	}

	ranked := TacticalPriority([]models.MatchRecord{rec}, teamID)
	if len(ranked) != 3 {
		t.Fatalf("ranked entries = %d, want 3", len(ranked))
	}
	if ranked[0].Entity != "viper" {
		t.Errorf("top priority = %q, want viper", ranked[0].Entity)
	}
	// Equal impact ties break by nickname ascending.
	if ranked[1].Nickname != "aspas" || ranked[2].Nickname != "zander" {
		t.Errorf("tie break order = %q, %q; want aspas then zander", ranked[1].Nickname, ranked[2].Nickname)
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].ImpactScore > ranked[i-1].ImpactScore {
			t.Errorf("impact scores not descending at %d: %v", i, ranked)
		}
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	report := Aggregate(nil, Config{TeamID: teamID, TeamName: "Cloud9", WindowMonths: 12})

	if report.SeriesCount != 0 {
		t.Errorf("series count = %d, want 0", report.SeriesCount)
	}
	if len(report.Maps) != 0 || len(report.Players) != 0 || len(report.AgentsToDeny) != 0 {
		t.Errorf("empty input should yield empty report sections: %+v", report)
	}
	if report.Diagnostics != nil {
		t.Errorf("empty input should yield no diagnostics, got %v", report.Diagnostics)
	}
	if report.Maps == nil || report.Players == nil {
		t.Error("report sections must be explicit empty slices, not omitted")
	}
}

func TestAggregateIdempotent(t *testing.T) {
	rec := seriesRecord("s1", "ascent", intPtr(4))
	rec.PlayerLines = []models.PlayerStatLine{
		{PlayerID: "p1", Nickname: "aspas", TeamID: teamID, Agent: "raze", Side: models.SideAttacker,
			Kills: 23, Deaths: 19, Headshots: 9, RoundsPlayed: 24, FirstEngagements: 5,
			WeaponKills: map[string]int{"phantom": 11, "sheriff": 2}},
		{PlayerID: "p2", Nickname: "less", TeamID: teamID, Agent: "viper", Side: models.SideDefender,
			Kills: 17, Deaths: 14, Headshots: 6, RoundsPlayed: 24},
	}
	records := []models.MatchRecord{rec, seriesRecord("s2", "bind", intPtr(-3))}
	cfg := Config{TeamID: teamID, TeamName: "Cloud9", WindowMonths: 12, MapPool: PoolForTitle("valorant")}

	first, err := json.Marshal(Aggregate(records, cfg))
	if err != nil {
		t.Fatal(err)
	}
	second, err := json.Marshal(Aggregate(records, cfg))
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Errorf("aggregation is not idempotent:\nfirst:  %s\nsecond: %s", first, second)
	}
}
