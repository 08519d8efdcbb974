package grid

import (
	"fmt"
	"time"
)

// TeamNotFoundError indicates no team matched the requested name.
type TeamNotFoundError struct {
	TeamName       string
	AvailableTeams []string
}

func (e *TeamNotFoundError) Error() string {
	return fmt.Sprintf("team '%s' not found in the available data", e.TeamName)
}

// InsufficientDataError indicates the team exists but played nothing inside
// the requested window.
type InsufficientDataError struct {
	TeamName  string
	Reason    string
	LastMatch time.Time
}

func (e *InsufficientDataError) Error() string {
	if !e.LastMatch.IsZero() {
		return fmt.Sprintf("insufficient data for team '%s': %s (last match: %s)",
			e.TeamName, e.Reason, e.LastMatch.Format("2006-01-02"))
	}
	return fmt.Sprintf("insufficient data for team '%s': %s", e.TeamName, e.Reason)
}

// DataFetchError wraps an upstream API failure that survived all retry
// attempts. Handlers map it to 502 or, for deadline errors, 504.
type DataFetchError struct {
	Operation string
	Attempts  int
	Err       error
}

func (e *DataFetchError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Operation, e.Attempts, e.Err)
}

func (e *DataFetchError) Unwrap() error { return e.Err }
