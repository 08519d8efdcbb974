package grid

import (
	"encoding/json"
	"testing"

	"github.com/yourusername/grid-scout-api/internal/models"
)

// A trimmed series-state payload: one game on lotus, two segments, two teams
// with one player each. Exercises the game-level and segment-level merge.
const seriesStateFixture = `{
	"seriesState": {
		"id": "s1",
		"valid": true,
		"format": "best-of-3",
		"started": true,
		"finished": true,
		"draftActions": [
			{"sequenceNumber": "1", "type": "ban", "drafter": {"id": "97"}, "draftable": {"name": "icebox"}},
			{"sequenceNumber": "2", "type": "pick", "drafter": {"id": "81"}, "draftable": {"name": "lotus"}}
		],
		"games": [
			{
				"sequenceNumber": 1,
				"map": {"name": "lotus"},
				"segments": [
					{
						"sequenceNumber": 1,
						"teams": [
							{
								"id": "97",
								"name": "MIBR",
								"side": "attacker",
								"players": [
									{"id": "p1", "name": "aspas", "headshots": 1, "damageDealt": 101, "damageTaken": 78, "currentArmor": 25, "firstKill": true}
								]
							},
							{
								"id": "81",
								"name": "NRG",
								"side": "defender",
								"players": [
									{"id": "p2", "name": "s0m", "headshots": 0, "damageDealt": 40, "damageTaken": 130, "currentArmor": 0, "firstKill": false}
								]
							}
						]
					},
					{
						"sequenceNumber": 2,
						"teams": [
							{
								"id": "97",
								"name": "MIBR",
								"side": "attacker",
								"players": [
									{"id": "p1", "name": "aspas", "headshots": 2, "damageDealt": 160, "damageTaken": 20, "currentArmor": 50, "firstKill": false}
								]
							},
							{
								"id": "81",
								"name": "NRG",
								"side": "defender",
								"players": [
									{"id": "p2", "name": "s0m", "headshots": 1, "damageDealt": 90, "damageTaken": 160, "currentArmor": 50, "firstKill": true}
								]
							}
						]
					}
				],
				"teams": [
					{
						"id": "97",
						"name": "MIBR",
						"side": "attacker",
						"players": [
							{
								"id": "p1", "name": "aspas",
								"character": {"name": "raze"},
								"kills": 23, "deaths": 19,
								"weaponKills": [
									{"weaponName": "sheriff", "count": 2},
									{"weaponName": "phantom", "count": 11}
								],
								"objectives": [{"type": "captureUltimateOrb", "completionCount": 2}]
							}
						]
					},
					{
						"id": "81",
						"name": "NRG",
						"side": "defender",
						"players": [
							{
								"id": "p2", "name": "s0m",
								"character": {"name": "omen"},
								"kills": 15, "deaths": 17,
								"weaponKills": [{"weaponName": "vandal", "count": 9}],
								"objectives": []
							}
						]
					}
				]
			}
		]
	}
}`

func loadFixture(t *testing.T) *seriesStateResponse {
	t.Helper()
	var resp seriesStateResponse
	if err := json.Unmarshal([]byte(seriesStateFixture), &resp); err != nil {
		t.Fatalf("fixture does not parse: %v", err)
	}
	return &resp
}

func TestBuildPlayerLines(t *testing.T) {
	lines := buildPlayerLines(loadFixture(t))

	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}

	var aspas *models.PlayerStatLine
	for i := range lines {
		if lines[i].Nickname == "aspas" {
			aspas = &lines[i]
		}
	}
	if aspas == nil {
		t.Fatal("aspas line missing")
	}

	if aspas.Kills != 23 || aspas.Deaths != 19 {
		t.Errorf("kills/deaths = %d/%d, want 23/19", aspas.Kills, aspas.Deaths)
	}
	if aspas.Agent != "raze" {
		t.Errorf("agent = %q, want raze", aspas.Agent)
	}
	if aspas.Side != models.SideAttacker {
		t.Errorf("side = %q, want attacker", aspas.Side)
	}
	if aspas.RoundsPlayed != 2 {
		t.Errorf("rounds = %d, want 2", aspas.RoundsPlayed)
	}
	if aspas.Headshots != 3 {
		t.Errorf("headshots = %d, want 3 (summed across segments)", aspas.Headshots)
	}
	if aspas.DamageDealt != 261 || aspas.DamageTaken != 98 {
		t.Errorf("damage = %d/%d, want 261/98", aspas.DamageDealt, aspas.DamageTaken)
	}
	if aspas.FirstEngagements != 1 {
		t.Errorf("first engagements = %d, want 1", aspas.FirstEngagements)
	}
	// Segment 1 is the pistol round; aspas had armor, so it counts as a buy.
	if aspas.PistolRounds != 1 || aspas.PistolArmorBuys != 1 {
		t.Errorf("pistol = %d rounds / %d buys, want 1/1", aspas.PistolRounds, aspas.PistolArmorBuys)
	}
	if aspas.WeaponKills["phantom"] != 11 || aspas.WeaponKills["sheriff"] != 2 {
		t.Errorf("weapon kills = %v", aspas.WeaponKills)
	}
	if aspas.Objectives["captureUltimateOrb"] != 2 {
		t.Errorf("objectives = %v", aspas.Objectives)
	}
}

func TestBuildPlayerLinesNoArmorNoBuy(t *testing.T) {
	lines := buildPlayerLines(loadFixture(t))

	for _, line := range lines {
		if line.Nickname != "s0m" {
			continue
		}
		if line.PistolRounds != 1 {
			t.Errorf("pistol rounds = %d, want 1", line.PistolRounds)
		}
		if line.PistolArmorBuys != 0 {
			t.Errorf("armor buys = %d, want 0 (no armor on pistol)", line.PistolArmorBuys)
		}
		if line.Side != models.SideDefender {
			t.Errorf("side = %q, want defender", line.Side)
		}
		return
	}
	t.Fatal("s0m line missing")
}

func TestParseSide(t *testing.T) {
	tests := []struct {
		in   string
		want models.Side
	}{
		{"attacker", models.SideAttacker},
		{"attackers", models.SideAttacker},
		{"defender", models.SideDefender},
		{"defenders", models.SideDefender},
		{"", models.SideUnknown},
		{"blue", models.SideUnknown},
	}
	for _, tt := range tests {
		if got := parseSide(tt.in); got != tt.want {
			t.Errorf("parseSide(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
