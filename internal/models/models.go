package models

import "time"

// Side is a per-game side assignment for a player or team.
type Side string

const (
	SideAttacker Side = "attacker"
	SideDefender Side = "defender"
	SideUnknown  Side = "unknown"
)

type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "HIGH"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceLow    ConfidenceLevel = "LOW"
)

type Confidence struct {
	Level            ConfidenceLevel `json:"level"`
	SampleSize       int             `json:"sampleSize"`
	Reasoning        string          `json:"reasoning"`
	ReliabilityScore int             `json:"reliabilityScore"` // 0-100
}

type Team struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	LogoURL string `json:"logoUrl,omitempty"`
}

// DraftAction is one step of a series' map-selection phase.
type DraftAction struct {
	Sequence int    `json:"sequence"`
	TeamID   string `json:"teamId"`
	Type     string `json:"type"` // "pick" or "ban"
	MapName  string `json:"mapName"`
}

// GamePlayed records the map and side for one game within a series,
// from the perspective of one participant.
type GamePlayed struct {
	Game    int    `json:"game"`
	MapName string `json:"mapName"`
	Side    Side   `json:"side"`
}

// ParticipantResult is one team's outcome in a series. ScoreAdvantage is the
// signed margin for the series; positive means the team won. A nil value means
// the upstream record was missing the field and is reported as a diagnostic,
// never as an error.
type ParticipantResult struct {
	TeamID         string       `json:"teamId"`
	TeamName       string       `json:"teamName"`
	ScoreAdvantage *int         `json:"scoreAdvantage"`
	Games          []GamePlayed `json:"games"`
}

// PlayerStatLine is one player's stats for one game of a series.
type PlayerStatLine struct {
	PlayerID         string         `json:"playerId"`
	Nickname         string         `json:"nickname"`
	TeamID           string         `json:"teamId"`
	Agent            string         `json:"agent"`
	Side             Side           `json:"side"`
	Game             int            `json:"game"`
	Kills            int            `json:"kills"`
	Deaths           int            `json:"deaths"`
	Headshots        int            `json:"headshots"`
	ShotsFired       int            `json:"shotsFired"`
	FirstEngagements int            `json:"firstEngagements"`
	RoundsPlayed     int            `json:"roundsPlayed"`
	PistolRounds     int            `json:"pistolRounds"`
	PistolArmorBuys  int            `json:"pistolArmorBuys"`
	DamageDealt      int            `json:"damageDealt"`
	DamageTaken      int            `json:"damageTaken"`
	WeaponKills      map[string]int `json:"weaponKills,omitempty"`
	Objectives       map[string]int `json:"objectives,omitempty"`
}

// MatchRecord is one completed series as returned by the data API, mapped to an
// explicit structure at the fetch boundary. Immutable once fetched.
type MatchRecord struct {
	ID           string              `json:"id"`
	Title        string              `json:"title"`
	StartTime    time.Time           `json:"startTime"`
	Format       string              `json:"format"` // e.g. "best-of-3"
	Participants []ParticipantResult `json:"participants"`
	PlayerLines  []PlayerStatLine    `json:"playerLines"`
	DraftActions []DraftAction       `json:"draftActions"`
}

// Diagnostic flags a zero-filled or malformed field encountered during
// aggregation. Diagnostics accompany a report; they never abort it.
type Diagnostic struct {
	RecordID string `json:"recordId"`
	Field    string `json:"field"`
	Detail   string `json:"detail"`
}

type MapStats struct {
	Name        string  `json:"name"`
	GamesPlayed int     `json:"gamesPlayed"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	PickCount   int     `json:"pickCount"`
	BanCount    int     `json:"banCount"`
	WinRate     float64 `json:"winRate"`
	PickRate    float64 `json:"pickRate"`
	BanRate     float64 `json:"banRate"`
}

type SideStats struct {
	Kills  int     `json:"kills"`
	Deaths int     `json:"deaths"`
	KD     float64 `json:"kd"`
}

type KDBySide struct {
	Attacker SideStats `json:"attacker"`
	Defender SideStats `json:"defender"`
}

type WeaponUsage struct {
	Weapon string  `json:"weapon"`
	Kills  int     `json:"kills"`
	Share  float64 `json:"share"`
}

type PlayerReport struct {
	PlayerID           string        `json:"playerId"`
	Nickname           string        `json:"nickname"`
	GamesPlayed        int           `json:"gamesPlayed"`
	KDBySide           KDBySide      `json:"kdBySide"`
	HeadshotRatio      float64       `json:"headshotRatio"`
	AggressionFactor   float64       `json:"aggressionFactor"`
	WeaponUsage        []WeaponUsage `json:"weaponUsage"`
	PreferredWeapon    string        `json:"preferredWeapon,omitempty"`
	AvgDamagePerRound  float64       `json:"avgDamagePerRound"`
	PistolArmorBuyRate float64       `json:"pistolArmorBuyRate"`
}

// TacticalPriority ranks an entity (an agent, identified with the player who
// runs it) by impact: higher score means deny first.
type TacticalPriority struct {
	Entity      string  `json:"entity"`
	Nickname    string  `json:"nickname"`
	ImpactScore float64 `json:"impactScore"`
}

// AggregateReport is a pure derivation of a MatchRecord set and an analysis
// window. It is recomputed on demand and never persisted authoritatively.
// Slices are sorted so that identical input always marshals byte-identically.
type AggregateReport struct {
	TeamID       string             `json:"teamId"`
	TeamName     string             `json:"teamName"`
	WindowMonths int                `json:"windowMonths"`
	SeriesCount  int                `json:"seriesCount"`
	Maps         []MapStats         `json:"maps"`
	Players      []PlayerReport     `json:"players"`
	AgentsToDeny []TacticalPriority `json:"agentsToDeny"`
	Diagnostics  []Diagnostic       `json:"diagnostics,omitempty"`
}

// ScoutingReport is the assembled response envelope around an AggregateReport.
type ScoutingReport struct {
	ReportID    string          `json:"reportId"`
	GeneratedAt time.Time       `json:"generatedAt"`
	Team        Team            `json:"team"`
	Title       string          `json:"title"`
	Report      AggregateReport `json:"report"`
	Summary     string          `json:"summary,omitempty"`
	Confidence  Confidence      `json:"confidence"`
	CacheStatus CacheStatus     `json:"cacheStatus"`
}

type CacheStatus struct {
	FromCache bool   `json:"fromCache"`
	Age       string `json:"age"`
}

// OpponentComposition is one recurring agent-role lineup for an opponent team,
// e.g. "1xController + 2xDuelist + 2xSentinel".
type OpponentComposition struct {
	Signature string  `json:"signature"`
	Count     int     `json:"count"`
	Share     float64 `json:"share"`
}

type OpponentProfile struct {
	Team         Team                  `json:"team"`
	SeriesPlayed int                   `json:"seriesPlayed"`
	Compositions []OpponentComposition `json:"compositions"`
}

// OpponentReport lists the opponents a team faced in the window and what they ran.
type OpponentReport struct {
	Team         Team              `json:"team"`
	Title        string            `json:"title"`
	WindowMonths int               `json:"windowMonths"`
	Opponents    []OpponentProfile `json:"opponents"`
}

type TeamSearchResult struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Title     string `json:"title,omitempty"`
	Relevance int    `json:"relevance"`
}
