// Package grid fetches series data from the GRID esports API. It talks to two
// GraphQL endpoints: central-data for team search and series listings, and the
// series-state feed for per-game detail. All fetched data is mapped to the
// explicit structures in internal/models at this boundary.
package grid

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/machinebox/graphql"

	"github.com/yourusername/grid-scout-api/internal/models"
)

const (
	centralDataURL = "https://api-op.grid.gg/central-data/graphql"
	seriesStateURL = "https://api-op.grid.gg/live-data-feed/series-state/graphql"

	maxAttempts = 3
	baseBackoff = 500 * time.Millisecond

	defaultSeriesLimit = 50
)

type Client struct {
	central *graphql.Client
	state   *graphql.Client
	apiKey  string
}

func NewClient(apiKey string) *Client {
	return &Client{
		central: graphql.NewClient(centralDataURL),
		state:   graphql.NewClient(seriesStateURL),
		apiKey:  apiKey,
	}
}

func (c *Client) newRequest(query string) *graphql.Request {
	req := graphql.NewRequest(query)
	req.Header.Set("X-API-Key", c.apiKey)
	return req
}

// run executes one request with bounded retries and exponential backoff.
// Transient upstream failures are retried up to maxAttempts times; whatever
// error survives is wrapped in a DataFetchError so handlers can map it.
func (c *Client) run(ctx context.Context, gql *graphql.Client, req *graphql.Request, resp interface{}, operation string) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = gql.Run(ctx, req, resp)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			break
		}
		if attempt < maxAttempts {
			delay := baseBackoff * time.Duration(1<<(attempt-1))
			log.Printf("[WARN] %s attempt %d/%d failed: %v (retrying in %s)", operation, attempt, maxAttempts, lastErr, delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return &DataFetchError{Operation: operation, Attempts: attempt, Err: ctx.Err()}
			}
		}
	}
	return &DataFetchError{Operation: operation, Attempts: maxAttempts, Err: lastErr}
}

// SearchTeams looks up teams by partial name match. Results are ordered by
// relevance: exact match first, then prefix matches, then substring matches,
// each group alphabetical.
func (c *Client) SearchTeams(ctx context.Context, name string, limit int) ([]models.TeamSearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		query($nameFilter: String!, $limit: Int!) {
			teams(
				first: $limit
				filter: {
					name: { contains: $nameFilter }
				}
			) {
				edges {
					node {
						id
						name
						logoUrl
					}
				}
			}
		}
	`

	req := c.newRequest(query)
	req.Var("nameFilter", name)
	req.Var("limit", limit)

	var resp struct {
		Teams struct {
			Edges []struct {
				Node struct {
					ID      string `json:"id"`
					Name    string `json:"name"`
					LogoURL string `json:"logoUrl"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"teams"`
	}

	if err := c.run(ctx, c.central, req, &resp, "SearchTeams"); err != nil {
		return nil, err
	}

	needle := strings.ToLower(name)
	results := make([]models.TeamSearchResult, 0, len(resp.Teams.Edges))
	for _, edge := range resp.Teams.Edges {
		r := models.TeamSearchResult{ID: edge.Node.ID, Name: edge.Node.Name}
		lower := strings.ToLower(edge.Node.Name)
		switch {
		case lower == needle:
			r.Relevance = 2
		case strings.HasPrefix(lower, needle):
			r.Relevance = 1
		}
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Relevance != results[j].Relevance {
			return results[i].Relevance > results[j].Relevance
		}
		return results[i].Name < results[j].Name
	})
	return results, nil
}

// ResolveTeam resolves a human-entered team name to one team. The best search
// hit wins; no hit at all yields a TeamNotFoundError carrying a sample of
// teams that do exist, so callers can surface suggestions.
func (c *Client) ResolveTeam(ctx context.Context, name string) (models.Team, error) {
	results, err := c.SearchTeams(ctx, name, 20)
	if err != nil {
		return models.Team{}, err
	}
	if len(results) == 0 {
		available, _ := c.SearchTeams(ctx, "", 30)
		names := make([]string, 0, len(available))
		for _, t := range available {
			names = append(names, t.Name)
		}
		return models.Team{}, &TeamNotFoundError{TeamName: name, AvailableTeams: names}
	}
	best := results[0]
	return models.Team{ID: best.ID, Name: best.Name}, nil
}

// SeriesRef is one series from the central-data listing: enough to know who
// played, when, and with what series outcome. Per-game detail comes from the
// series-state feed via GetSeriesDetails.
type SeriesRef struct {
	ID        string
	Title     string
	StartTime time.Time
	Teams     []SeriesRefTeam
}

type SeriesRefTeam struct {
	ID             string
	Name           string
	ScoreAdvantage *int
}

// GetTeamSeriesHistory lists the team's completed series inside the window,
// newest first.
func (c *Client) GetTeamSeriesHistory(ctx context.Context, teamID string, months, limit int) ([]SeriesRef, error) {
	if limit <= 0 {
		limit = defaultSeriesLimit
	}
	now := time.Now()
	start := now.AddDate(0, -months, 0)

	query := `
		query($teamId: ID!, $startDate: String!, $endDate: String!, $limit: Int!) {
			allSeries(
				first: $limit
				filter: {
					teamIds: { in: [$teamId] }
					startTimeScheduled: {
						gte: $startDate
						lte: $endDate
					}
					types: [ESPORTS]
				}
				orderBy: StartTimeScheduled
				orderDirection: DESC
			) {
				edges {
					node {
						id
						title {
							id
							name
						}
						teams {
							baseInfo {
								id
								name
							}
							scoreAdvantage
						}
						startTimeScheduled
					}
				}
			}
		}
	`

	req := c.newRequest(query)
	req.Var("teamId", teamID)
	req.Var("startDate", start.Format(time.RFC3339))
	req.Var("endDate", now.Format(time.RFC3339))
	req.Var("limit", limit)

	var resp struct {
		AllSeries struct {
			Edges []struct {
				Node struct {
					ID    string `json:"id"`
					Title struct {
						ID   string `json:"id"`
						Name string `json:"name"`
					} `json:"title"`
					Teams []struct {
						BaseInfo struct {
							ID   string `json:"id"`
							Name string `json:"name"`
						} `json:"baseInfo"`
						ScoreAdvantage *int `json:"scoreAdvantage"`
					} `json:"teams"`
					StartTimeScheduled time.Time `json:"startTimeScheduled"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"allSeries"`
	}

	if err := c.run(ctx, c.central, req, &resp, "GetTeamSeriesHistory"); err != nil {
		return nil, err
	}

	refs := make([]SeriesRef, 0, len(resp.AllSeries.Edges))
	for _, edge := range resp.AllSeries.Edges {
		node := edge.Node
		ref := SeriesRef{
			ID:        node.ID,
			Title:     strings.ToLower(node.Title.Name),
			StartTime: node.StartTimeScheduled,
		}
		for _, t := range node.Teams {
			ref.Teams = append(ref.Teams, SeriesRefTeam{
				ID:             t.BaseInfo.ID,
				Name:           t.BaseInfo.Name,
				ScoreAdvantage: t.ScoreAdvantage,
			})
		}
		refs = append(refs, ref)
	}
	log.Printf("[DEBUG] GetTeamSeriesHistory: %d series for team %s in last %d months", len(refs), teamID, months)
	return refs, nil
}

// SeriesRoster is the per-series player listing used for opponent composition
// analysis. Roles come from central-data, not the series-state feed.
type SeriesRoster struct {
	SeriesID string
	Players  []RosterPlayer
}

type RosterPlayer struct {
	ID       string
	Nickname string
	TeamID   string
	TeamName string
	Roles    []string
}

// GetSeriesRosters lists a team's series in the window together with every
// player fielded in them, opponents included.
func (c *Client) GetSeriesRosters(ctx context.Context, teamID string, months, limit int) ([]SeriesRoster, error) {
	if limit <= 0 {
		limit = 30
	}
	now := time.Now()
	start := now.AddDate(0, -months, 0)

	query := `
		query($teamId: ID!, $startDate: String!, $endDate: String!, $limit: Int!) {
			allSeries(
				first: $limit
				filter: {
					teamIds: { in: [$teamId] }
					startTimeScheduled: {
						gte: $startDate
						lte: $endDate
					}
					types: [ESPORTS]
				}
				orderBy: StartTimeScheduled
				orderDirection: DESC
			) {
				edges {
					node {
						id
						players {
							id
							nickname
							roles {
								name
							}
							team {
								id
								name
							}
						}
					}
				}
			}
		}
	`

	req := c.newRequest(query)
	req.Var("teamId", teamID)
	req.Var("startDate", start.Format(time.RFC3339))
	req.Var("endDate", now.Format(time.RFC3339))
	req.Var("limit", limit)

	var resp struct {
		AllSeries struct {
			Edges []struct {
				Node struct {
					ID      string `json:"id"`
					Players []struct {
						ID       string `json:"id"`
						Nickname string `json:"nickname"`
						Roles    []struct {
							Name string `json:"name"`
						} `json:"roles"`
						Team *struct {
							ID   string `json:"id"`
							Name string `json:"name"`
						} `json:"team"`
					} `json:"players"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"allSeries"`
	}

	if err := c.run(ctx, c.central, req, &resp, "GetSeriesRosters"); err != nil {
		return nil, err
	}

	rosters := make([]SeriesRoster, 0, len(resp.AllSeries.Edges))
	for _, edge := range resp.AllSeries.Edges {
		roster := SeriesRoster{SeriesID: edge.Node.ID}
		for _, p := range edge.Node.Players {
			rp := RosterPlayer{ID: p.ID, Nickname: p.Nickname}
			for _, role := range p.Roles {
				rp.Roles = append(rp.Roles, role.Name)
			}
			if p.Team != nil {
				rp.TeamID = p.Team.ID
				rp.TeamName = p.Team.Name
			}
			roster.Players = append(roster.Players, rp)
		}
		rosters = append(rosters, roster)
	}
	return rosters, nil
}

func (c *Client) HealthCheck(ctx context.Context) bool {
	query := `{ __schema { types { name } } }`
	req := c.newRequest(query)
	var resp interface{}
	err := c.central.Run(ctx, req, &resp)
	if err != nil {
		log.Printf("[DEBUG] grid health check failed: %v", err)
	}
	return err == nil
}
