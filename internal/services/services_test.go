package services

import (
	"strings"
	"testing"

	"github.com/yourusername/grid-scout-api/internal/models"
)

func TestCalculateConfidence(t *testing.T) {
	tests := []struct {
		name       string
		sampleSize int
		months     int
		wantLevel  models.ConfidenceLevel
	}{
		{"large sample is high", 20, 12, models.ConfidenceHigh},
		{"ten series is high", 10, 6, models.ConfidenceHigh},
		{"mid sample is medium", 6, 6, models.ConfidenceMedium},
		{"three series is low", 3, 3, models.ConfidenceLow},
		{"single series is low", 1, 12, models.ConfidenceLow},
		{"empty window is low", 0, 12, models.ConfidenceLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateConfidence(tt.sampleSize, tt.months)
			if got.Level != tt.wantLevel {
				t.Errorf("level = %s, want %s", got.Level, tt.wantLevel)
			}
			if got.SampleSize != tt.sampleSize {
				t.Errorf("sample size = %d, want %d", got.SampleSize, tt.sampleSize)
			}
			if got.ReliabilityScore < 0 || got.ReliabilityScore > 100 {
				t.Errorf("reliability score %d out of range", got.ReliabilityScore)
			}
			if got.Reasoning == "" {
				t.Error("reasoning should never be empty")
			}
		})
	}
}

func TestCompositionSignature(t *testing.T) {
	tests := []struct {
		name  string
		roles map[string]int
		want  string
	}{
		{
			"standard lineup",
			map[string]int{"Duelist": 2, "Controller": 1, "Sentinel": 1, "Initiator": 1},
			"1xController + 2xDuelist + 1xInitiator + 1xSentinel",
		},
		{
			"single role",
			map[string]int{"Duelist": 5},
			"5xDuelist",
		},
		{
			"empty roster",
			nil,
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompositionSignature(tt.roles); got != tt.want {
				t.Errorf("signature = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompositionSignatureStable(t *testing.T) {
	roles := map[string]int{"Duelist": 2, "Controller": 1, "Sentinel": 2}
	first := CompositionSignature(roles)
	for i := 0; i < 20; i++ {
		if got := CompositionSignature(roles); got != first {
			t.Fatalf("signature changed between calls: %q vs %q", first, got)
		}
	}
}

func TestRenderSummaryEmptyWindow(t *testing.T) {
	report := &models.AggregateReport{TeamName: "Cloud9", WindowMonths: 6}

	summary := RenderSummary(report)
	if !strings.Contains(summary, "No completed series") {
		t.Errorf("empty-window summary should say so, got %q", summary)
	}
	if !strings.Contains(summary, "Cloud9") {
		t.Errorf("summary should name the team, got %q", summary)
	}
}

func TestRenderSummaryDeterministic(t *testing.T) {
	report := &models.AggregateReport{
		TeamName:     "Cloud9",
		WindowMonths: 6,
		SeriesCount:  4,
		Maps: []models.MapStats{
			{Name: "ascent", GamesPlayed: 3, Wins: 3, WinRate: 1.0},
			{Name: "bind", GamesPlayed: 2, Wins: 0, Losses: 2, BanCount: 3},
		},
		AgentsToDeny: []models.TacticalPriority{
			{Entity: "raze", Nickname: "aspas", ImpactScore: 0.42},
		},
	}

	first := RenderSummary(report)
	second := RenderSummary(report)
	if first != second {
		t.Errorf("rendering not deterministic:\n%s\n%s", first, second)
	}
	for _, want := range []string{"ascent", "bind", "aspas", "4 series"} {
		if !strings.Contains(first, want) {
			t.Errorf("summary missing %q: %s", want, first)
		}
	}
}

func TestBuildPromptContainsOnlyGivenData(t *testing.T) {
	report := &models.AggregateReport{
		TeamName:     "Sentinels",
		WindowMonths: 3,
		SeriesCount:  5,
		Maps: []models.MapStats{
			{Name: "haven", GamesPlayed: 4, Wins: 3, Losses: 1, WinRate: 0.75, PickCount: 2},
		},
		Players: []models.PlayerReport{
			{Nickname: "zekken", GamesPlayed: 8, HeadshotRatio: 0.31, PreferredWeapon: "vandal"},
		},
		AgentsToDeny: []models.TacticalPriority{
			{Entity: "jett", Nickname: "zekken", ImpactScore: 0.55},
		},
	}
	confidence := CalculateConfidence(5, 3)

	prompt := BuildPrompt(report, confidence)
	for _, want := range []string{"Sentinels", "haven", "zekken", "vandal", "jett", "Do not invent"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
