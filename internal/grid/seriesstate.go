package grid

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/yourusername/grid-scout-api/internal/models"
)

// Pistol rounds are the first round of each half; the feed numbers the opening
// round of a half as segment 1 after a side swap, but historical payloads only
// guarantee it for the very first segment, so that is what we count.
const pistolSegment = 1

// seriesStateResponse mirrors the series-state feed payload. Draft sequence
// numbers arrive as strings, game and segment ones as integers.
type seriesStateResponse struct {
	SeriesState struct {
		ID           string `json:"id"`
		Valid        bool   `json:"valid"`
		Format       string `json:"format"`
		Started      bool   `json:"started"`
		Finished     bool   `json:"finished"`
		DraftActions []struct {
			SequenceNumber json.Number `json:"sequenceNumber"`
			Type           string      `json:"type"`
			Drafter        struct {
				ID string `json:"id"`
			} `json:"drafter"`
			Draftable struct {
				Name string `json:"name"`
			} `json:"draftable"`
		} `json:"draftActions"`
		Games []struct {
			SequenceNumber int `json:"sequenceNumber"`
			Map            struct {
				Name string `json:"name"`
			} `json:"map"`
			Segments []struct {
				SequenceNumber int `json:"sequenceNumber"`
				Teams          []struct {
					ID      string `json:"id"`
					Name    string `json:"name"`
					Side    string `json:"side"`
					Players []struct {
						ID           string `json:"id"`
						Name         string `json:"name"`
						Headshots    int    `json:"headshots"`
						DamageDealt  int    `json:"damageDealt"`
						DamageTaken  int    `json:"damageTaken"`
						CurrentArmor int    `json:"currentArmor"`
						FirstKill    bool   `json:"firstKill"`
					} `json:"players"`
				} `json:"teams"`
			} `json:"segments"`
			Teams []struct {
				ID      string `json:"id"`
				Name    string `json:"name"`
				Side    string `json:"side"`
				Players []struct {
					ID        string `json:"id"`
					Name      string `json:"name"`
					Character struct {
						Name string `json:"name"`
					} `json:"character"`
					Kills       int `json:"kills"`
					Deaths      int `json:"deaths"`
					WeaponKills []struct {
						WeaponName string `json:"weaponName"`
						Count      int    `json:"count"`
					} `json:"weaponKills"`
					Objectives []struct {
						Type            string `json:"type"`
						CompletionCount int    `json:"completionCount"`
					} `json:"objectives"`
				} `json:"players"`
			} `json:"teams"`
		} `json:"games"`
	} `json:"seriesState"`
}

const seriesStateQuery = `
	query($seriesId: ID!) {
		seriesState(id: $seriesId) {
			id
			valid
			format
			started
			finished
			draftActions {
				sequenceNumber
				type
				drafter {
					id
				}
				draftable {
					name
				}
			}
			games {
				sequenceNumber
				map {
					name
				}
				segments {
					sequenceNumber
					teams {
						id
						name
						side
						players {
							id
							name
							headshots
							damageDealt
							damageTaken
							currentArmor
							firstKill
						}
					}
				}
				teams {
					id
					name
					side
					players {
						id
						name
						character {
							name
						}
						kills
						deaths
						weaponKills {
							weaponName
							count
						}
						objectives {
							type
							completionCount
						}
					}
				}
			}
		}
	}
`

// GetSeriesDetails pulls per-game detail for one series and merges it with the
// listing data into a MatchRecord. Only finished series convert; an in-progress
// state is still changing.
func (c *Client) GetSeriesDetails(ctx context.Context, ref SeriesRef) (*models.MatchRecord, error) {
	req := c.newRequest(seriesStateQuery)
	req.Var("seriesId", ref.ID)

	var resp seriesStateResponse
	if err := c.run(ctx, c.state, req, &resp, "GetSeriesDetails"); err != nil {
		return nil, err
	}

	state := resp.SeriesState
	if !state.Finished {
		return nil, fmt.Errorf("series %s has not finished yet", ref.ID)
	}

	rec := &models.MatchRecord{
		ID:        ref.ID,
		Title:     ref.Title,
		StartTime: ref.StartTime,
		Format:    state.Format,
	}

	for _, da := range state.DraftActions {
		seq, _ := da.SequenceNumber.Int64()
		rec.DraftActions = append(rec.DraftActions, models.DraftAction{
			Sequence: int(seq),
			TeamID:   da.Drafter.ID,
			Type:     da.Type,
			MapName:  da.Draftable.Name,
		})
	}

	// Per-team starting side for each game, taken from the opening segment.
	sides := make(map[string]models.Side)
	for _, game := range state.Games {
		if len(game.Segments) == 0 {
			continue
		}
		for _, team := range game.Segments[0].Teams {
			sides[gameTeamKey(game.SequenceNumber, team.ID)] = parseSide(team.Side)
		}
	}

	for _, refTeam := range ref.Teams {
		part := models.ParticipantResult{
			TeamID:         refTeam.ID,
			TeamName:       refTeam.Name,
			ScoreAdvantage: refTeam.ScoreAdvantage,
		}
		for _, game := range state.Games {
			for _, team := range game.Teams {
				if team.ID != refTeam.ID {
					continue
				}
				part.Games = append(part.Games, models.GamePlayed{
					Game:    game.SequenceNumber,
					MapName: game.Map.Name,
					Side:    sideOrGameLevel(sides, game.SequenceNumber, team.ID, team.Side),
				})
			}
		}
		rec.Participants = append(rec.Participants, part)
	}

	rec.PlayerLines = buildPlayerLines(&resp)
	return rec, nil
}

// buildPlayerLines produces one stat line per player per game. Totals such as
// kills, deaths and weapon breakdowns come from the game-level listing; round
// counts, headshots, damage, pistol buys and first kills are accumulated from
// the segment stream.
func buildPlayerLines(resp *seriesStateResponse) []models.PlayerStatLine {
	var lines []models.PlayerStatLine

	for _, game := range resp.SeriesState.Games {
		byPlayer := make(map[string]*models.PlayerStatLine)

		for _, team := range game.Teams {
			for _, p := range team.Players {
				line := &models.PlayerStatLine{
					PlayerID: p.ID,
					Nickname: p.Name,
					TeamID:   team.ID,
					Agent:    p.Character.Name,
					Side:     parseSide(team.Side),
					Game:     game.SequenceNumber,
					Kills:    p.Kills,
					Deaths:   p.Deaths,
				}
				if len(p.WeaponKills) > 0 {
					line.WeaponKills = make(map[string]int, len(p.WeaponKills))
					for _, wk := range p.WeaponKills {
						line.WeaponKills[wk.WeaponName] += wk.Count
					}
				}
				if len(p.Objectives) > 0 {
					line.Objectives = make(map[string]int, len(p.Objectives))
					for _, obj := range p.Objectives {
						line.Objectives[obj.Type] += obj.CompletionCount
					}
				}
				byPlayer[playerKey(team.ID, p.Name)] = line
			}
		}

		for _, segment := range game.Segments {
			for _, team := range segment.Teams {
				if segment.SequenceNumber == 1 && team.Side != "" {
					for _, line := range byPlayer {
						if line.TeamID == team.ID && line.Side == models.SideUnknown {
							line.Side = parseSide(team.Side)
						}
					}
				}
				for _, p := range team.Players {
					line, ok := byPlayer[playerKey(team.ID, p.Name)]
					if !ok {
						continue
					}
					line.RoundsPlayed++
					line.Headshots += p.Headshots
					line.DamageDealt += p.DamageDealt
					line.DamageTaken += p.DamageTaken
					if p.FirstKill {
						line.FirstEngagements++
					}
					if segment.SequenceNumber == pistolSegment {
						line.PistolRounds++
						if p.CurrentArmor > 0 {
							line.PistolArmorBuys++
						}
					}
				}
			}
		}

		for _, line := range byPlayer {
			lines = append(lines, *line)
		}
	}

	// Map iteration order above is random; sort so a record marshals the same
	// way every fetch.
	sort.Slice(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		if a.Game != b.Game {
			return a.Game < b.Game
		}
		if a.TeamID != b.TeamID {
			return a.TeamID < b.TeamID
		}
		return a.Nickname < b.Nickname
	})
	return lines
}

func playerKey(teamID, name string) string {
	return teamID + "\x00" + name
}

func gameTeamKey(game int, teamID string) string {
	return fmt.Sprintf("%d\x00%s", game, teamID)
}

func parseSide(s string) models.Side {
	switch s {
	case "attacker", "attackers":
		return models.SideAttacker
	case "defender", "defenders":
		return models.SideDefender
	default:
		return models.SideUnknown
	}
}

// sideOrGameLevel prefers the opening-segment side, falling back to whatever
// the game-level team carries.
func sideOrGameLevel(sides map[string]models.Side, game int, teamID, gameLevel string) models.Side {
	if side, ok := sides[gameTeamKey(game, teamID)]; ok && side != models.SideUnknown {
		return side
	}
	return parseSide(gameLevel)
}
