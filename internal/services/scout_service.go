package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/grid-scout-api/internal/aggregator"
	"github.com/yourusername/grid-scout-api/internal/grid"
	"github.com/yourusername/grid-scout-api/internal/llm"
	"github.com/yourusername/grid-scout-api/internal/models"
	"github.com/yourusername/grid-scout-api/internal/repository"
	"github.com/yourusername/grid-scout-api/pkg/cache"
)

const (
	reportCacheTTL     = 1 * time.Hour
	defaultSeriesLimit = 50
)

type ScoutService struct {
	gridClient *grid.Client
	cache      *cache.RedisClient
	pgRepo     *repository.PostgresRepo
	llmClient  *llm.Client // nil disables generated summaries
}

func NewScoutService(gc *grid.Client, rc *cache.RedisClient, pg *repository.PostgresRepo, lc *llm.Client) *ScoutService {
	return &ScoutService{
		gridClient: gc,
		cache:      rc,
		pgRepo:     pg,
		llmClient:  lc,
	}
}

// GenerateScoutingReport builds the full report for one team: resolve the
// name, fetch the window's series, aggregate, grade confidence and attach a
// summary. Reports are cached whole for an hour keyed on every request
// parameter that changes the result.
func (s *ScoutService) GenerateScoutingReport(ctx context.Context, teamName, title string, months int, summarize bool) (*models.ScoutingReport, error) {
	start := time.Now()

	cacheKey := fmt.Sprintf("scout:%s:%s:%d:%t", strings.ToLower(teamName), strings.ToLower(title), months, summarize)
	var cached models.ScoutingReport
	if err := s.cache.GetJSON(ctx, cacheKey, &cached); err == nil {
		cached.CacheStatus = models.CacheStatus{
			FromCache: true,
			Age:       time.Since(cached.GeneratedAt).Round(time.Second).String(),
		}
		return &cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		log.Printf("[WARN] cache read failed for %s: %v", cacheKey, err)
	}

	team, err := s.gridClient.ResolveTeam(ctx, teamName)
	if err != nil {
		return nil, err
	}

	records, err := s.fetchRecords(ctx, team.ID, months)
	if err != nil {
		return nil, err
	}
	records = filterByTitle(records, title)

	agg := aggregator.Aggregate(records, aggregator.Config{
		TeamID:       team.ID,
		TeamName:     team.Name,
		WindowMonths: months,
		MapPool:      aggregator.PoolForTitle(title),
	})

	report := &models.ScoutingReport{
		ReportID:    uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
		Team:        team,
		Title:       strings.ToLower(title),
		Report:      *agg,
		Confidence:  CalculateConfidence(agg.SeriesCount, months),
		CacheStatus: models.CacheStatus{FromCache: false},
	}

	if summarize {
		report.Summary = s.summarize(ctx, report)
	}

	if err := s.pgRepo.SaveReport(ctx, report); err != nil {
		log.Printf("[WARN] failed to persist report %s: %v", report.ReportID, err)
	}
	if err := s.cache.SetJSON(ctx, cacheKey, report, reportCacheTTL); err != nil {
		log.Printf("[WARN] failed to cache report %s: %v", report.ReportID, err)
	}

	log.Printf("[INFO] generated scouting report for %s (%d series) in %v", team.Name, agg.SeriesCount, time.Since(start))
	return report, nil
}

// fetchRecords lists the window's series and pulls per-game detail for each,
// reusing records already persisted from earlier reports so a refresh only
// fetches what is new. A series whose detail fetch fails after retries is
// skipped with a warning; if nothing at all could be fetched the upstream is
// considered down and the last error surfaces.
func (s *ScoutService) fetchRecords(ctx context.Context, teamID string, months int) ([]models.MatchRecord, error) {
	refs, err := s.gridClient.GetTeamSeriesHistory(ctx, teamID, months, defaultSeriesLimit)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, nil
	}

	stored := make(map[string]models.MatchRecord)
	since := time.Now().AddDate(0, -months, 0)
	if prior, err := s.pgRepo.GetMatchRecords(ctx, teamID, since); err != nil {
		log.Printf("[WARN] could not load stored records for %s: %v", teamID, err)
	} else {
		for _, rec := range prior {
			stored[rec.ID] = rec
		}
	}

	records := make([]models.MatchRecord, 0, len(refs))
	var lastErr error
	for _, ref := range refs {
		if rec, ok := stored[ref.ID]; ok {
			records = append(records, rec)
			continue
		}
		rec, err := s.gridClient.GetSeriesDetails(ctx, ref)
		if err != nil {
			// Unfinished series are expected skips; only transport failures
			// count against the fetch as a whole.
			log.Printf("[WARN] skipping series %s: %v", ref.ID, err)
			var fetchErr *grid.DataFetchError
			if errors.As(err, &fetchErr) {
				lastErr = err
			}
			continue
		}
		if err := s.pgRepo.SaveMatchRecord(ctx, rec); err != nil {
			log.Printf("[WARN] failed to persist record %s: %v", rec.ID, err)
		}
		records = append(records, *rec)
	}
	if len(records) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return records, nil
}

// summarize prefers the language model and falls back to the deterministic
// rendering when the model is disabled or fails. A report never loses its
// summary to an LLM outage.
func (s *ScoutService) summarize(ctx context.Context, report *models.ScoutingReport) string {
	if s.llmClient == nil {
		return RenderSummary(&report.Report)
	}
	summary, err := s.llmClient.Summarize(ctx, BuildPrompt(&report.Report, report.Confidence))
	if err != nil {
		log.Printf("[WARN] LLM summary failed, using plain rendering: %v", err)
		return RenderSummary(&report.Report)
	}
	return summary
}

// GetReportHistory lists a team's previously generated reports, newest first.
func (s *ScoutService) GetReportHistory(ctx context.Context, teamName string, limit int) ([]models.ScoutingReport, error) {
	team, err := s.gridClient.ResolveTeam(ctx, teamName)
	if err != nil {
		return nil, err
	}
	return s.pgRepo.GetRecentReports(ctx, team.ID, limit)
}

// SearchTeams proxies team search for the API surface.
func (s *ScoutService) SearchTeams(ctx context.Context, query string, limit int) ([]models.TeamSearchResult, error) {
	return s.gridClient.SearchTeams(ctx, query, limit)
}

// filterByTitle drops series from other titles. The listing endpoint filters
// by team only; a multi-title organisation would otherwise leak League series
// into a Valorant report.
func filterByTitle(records []models.MatchRecord, title string) []models.MatchRecord {
	if title == "" {
		return records
	}
	want := strings.ToLower(title)
	filtered := records[:0]
	for _, rec := range records {
		if rec.Title == "" || strings.Contains(rec.Title, want) {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}
