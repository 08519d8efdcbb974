// Package repository persists fetched series records and generated reports in
// PostgreSQL. Records are stored as JSONB alongside the columns needed to
// query them back by team and window, so a re-run can reuse prior fetches and
// report history stays auditable.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/yourusername/grid-scout-api/internal/models"
)

type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(databaseURL string) (*PostgresRepo, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("[INFO] connected to PostgreSQL")
	return &PostgresRepo{DB: db}, nil
}

func (r *PostgresRepo) HealthCheck() bool {
	return r.DB.Ping() == nil
}

func (r *PostgresRepo) Close() error {
	return r.DB.Close()
}

// RunMigrations creates the schema. Idempotent; safe to run on every start.
func (r *PostgresRepo) RunMigrations() error {
	schema := `
		CREATE TABLE IF NOT EXISTS series_records (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			team1_id TEXT NOT NULL,
			team2_id TEXT NOT NULL,
			start_time TIMESTAMPTZ NOT NULL,
			format TEXT,
			payload JSONB NOT NULL,
			fetched_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS scouting_reports (
			report_id TEXT PRIMARY KEY,
			team_id TEXT NOT NULL,
			team_name TEXT NOT NULL,
			title TEXT NOT NULL,
			window_months INT NOT NULL,
			series_count INT NOT NULL,
			generated_at TIMESTAMPTZ NOT NULL,
			report JSONB NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_records_team1 ON series_records(team1_id);
		CREATE INDEX IF NOT EXISTS idx_records_team2 ON series_records(team2_id);
		CREATE INDEX IF NOT EXISTS idx_records_title ON series_records(title);
		CREATE INDEX IF NOT EXISTS idx_records_start_time ON series_records(start_time);
		CREATE INDEX IF NOT EXISTS idx_reports_team ON scouting_reports(team_id);
		CREATE INDEX IF NOT EXISTS idx_reports_generated ON scouting_reports(generated_at);
	`

	_, err := r.DB.Exec(schema)
	return err
}

// SaveMatchRecord upserts one fetched series. Refetching a series overwrites
// the stored payload; the fetch is the source of truth.
func (r *PostgresRepo) SaveMatchRecord(ctx context.Context, rec *models.MatchRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", rec.ID, err)
	}

	team1, team2 := "", ""
	if len(rec.Participants) > 0 {
		team1 = rec.Participants[0].TeamID
	}
	if len(rec.Participants) > 1 {
		team2 = rec.Participants[1].TeamID
	}

	query := `INSERT INTO series_records (id, title, team1_id, team2_id, start_time, format, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, fetched_at = CURRENT_TIMESTAMP`
	_, err = r.DB.ExecContext(ctx, query, rec.ID, rec.Title, team1, team2, rec.StartTime, rec.Format, payload)
	return err
}

// GetMatchRecords returns stored series for a team with a start time at or
// after since, newest first.
func (r *PostgresRepo) GetMatchRecords(ctx context.Context, teamID string, since time.Time) ([]models.MatchRecord, error) {
	query := `SELECT payload FROM series_records
		WHERE (team1_id = $1 OR team2_id = $1) AND start_time >= $2
		ORDER BY start_time DESC`

	rows, err := r.DB.QueryContext(ctx, query, teamID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.MatchRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var rec models.MatchRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			log.Printf("[WARN] skipping unreadable stored record: %v", err)
			continue
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SaveReport stores one generated scouting report for history.
func (r *PostgresRepo) SaveReport(ctx context.Context, report *models.ScoutingReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report %s: %w", report.ReportID, err)
	}

	query := `INSERT INTO scouting_reports (report_id, team_id, team_name, title, window_months, series_count, generated_at, report)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (report_id) DO NOTHING`
	_, err = r.DB.ExecContext(ctx, query,
		report.ReportID, report.Team.ID, report.Team.Name, report.Title,
		report.Report.WindowMonths, report.Report.SeriesCount, report.GeneratedAt, payload)
	return err
}

// GetRecentReports returns a team's most recent stored reports, newest first.
func (r *PostgresRepo) GetRecentReports(ctx context.Context, teamID string, limit int) ([]models.ScoutingReport, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `SELECT report FROM scouting_reports
		WHERE team_id = $1
		ORDER BY generated_at DESC
		LIMIT $2`

	rows, err := r.DB.QueryContext(ctx, query, teamID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []models.ScoutingReport
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var rep models.ScoutingReport
		if err := json.Unmarshal(payload, &rep); err != nil {
			log.Printf("[WARN] skipping unreadable stored report: %v", err)
			continue
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}
