package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/grid-scout-api/internal/aggregator"
	"github.com/yourusername/grid-scout-api/internal/grid"
	"github.com/yourusername/grid-scout-api/internal/repository"
	"github.com/yourusername/grid-scout-api/internal/services"
	"github.com/yourusername/grid-scout-api/pkg/cache"
)

const requestTimeout = 45 * time.Second

var supportedTitles = []string{"valorant"}

type Handler struct {
	pgRepo          *repository.PostgresRepo
	redisCache      *cache.RedisClient
	gridClient      *grid.Client
	scoutService    *services.ScoutService
	opponentService *services.OpponentService
	defaultMonths   int
}

func NewHandler(pg *repository.PostgresRepo, redis *cache.RedisClient, gc *grid.Client, scout *services.ScoutService, defaultMonths int) *Handler {
	return &Handler{
		pgRepo:          pg,
		redisCache:      redis,
		gridClient:      gc,
		scoutService:    scout,
		opponentService: services.NewOpponentService(gc, redis),
		defaultMonths:   defaultMonths,
	}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	postgresStatus := h.pgRepo.HealthCheck()
	redisStatus := h.redisCache.HealthCheck(ctx)
	gridStatus := h.gridClient.HealthCheck(ctx)

	status := "ok"
	if !postgresStatus || !redisStatus || !gridStatus {
		status = "error"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"postgres":  postgresStatus,
		"redis":     redisStatus,
		"grid_api":  gridStatus,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// GenerateScoutingReport handles GET /api/v1/scouting-report.
func (h *Handler) GenerateScoutingReport(c *gin.Context) {
	start := time.Now()
	team := c.Query("team")
	title := strings.ToLower(c.DefaultQuery("title", "valorant"))
	summarize := parseBool(c.DefaultQuery("summarize", "true"))

	if team == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "team is required",
			"example": "/api/v1/scouting-report?team=Cloud9&title=valorant&months=6",
		})
		return
	}
	if !titleSupported(title) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    "unsupported title",
			"provided": title,
			"titles":   supportedTitles,
		})
		return
	}
	months, err := h.parseMonths(c.Query("months"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	report, err := h.scoutService.GenerateScoutingReport(ctx, team, title, months, summarize)
	if err != nil {
		h.respondFetchError(c, err, team, title)
		return
	}

	log.Printf("[INFO] scouting report for %s served in %v (cached: %v)", team, time.Since(start), report.CacheStatus.FromCache)
	c.JSON(http.StatusOK, report)
}

// GetOpponents handles GET /api/v1/opponents.
func (h *Handler) GetOpponents(c *gin.Context) {
	team := c.Query("team")
	title := strings.ToLower(c.DefaultQuery("title", "valorant"))

	if team == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "team is required",
			"example": "/api/v1/opponents?team=Cloud9&title=valorant",
		})
		return
	}
	if !titleSupported(title) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    "unsupported title",
			"provided": title,
			"titles":   supportedTitles,
		})
		return
	}
	months, err := h.parseMonths(c.Query("months"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	report, err := h.opponentService.GetOpponents(ctx, team, title, months)
	if err != nil {
		h.respondFetchError(c, err, team, title)
		return
	}
	c.JSON(http.StatusOK, report)
}

// SearchTeams handles GET /api/v1/search.
func (h *Handler) SearchTeams(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "query is required",
			"example": "/api/v1/search?query=cloud",
		})
		return
	}
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer between 1 and 100"})
			return
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	results, err := h.scoutService.SearchTeams(ctx, query, limit)
	if err != nil {
		h.respondFetchError(c, err, query, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"query":   query,
		"count":   len(results),
		"results": results,
	})
}

// GetReportHistory handles GET /api/v1/reports/history.
func (h *Handler) GetReportHistory(c *gin.Context) {
	team := c.Query("team")
	if team == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "team is required"})
		return
	}
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	reports, err := h.scoutService.GetReportHistory(ctx, team, limit)
	if err != nil {
		h.respondFetchError(c, err, team, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"team":    team,
		"count":   len(reports),
		"reports": reports,
	})
}

// GetAvailableTitles handles GET /api/v1/titles.
func (h *Handler) GetAvailableTitles(c *gin.Context) {
	titles := make([]gin.H, 0, len(supportedTitles))
	for _, title := range supportedTitles {
		titles = append(titles, gin.H{
			"title":   title,
			"mapPool": aggregator.PoolForTitle(title),
		})
	}
	c.JSON(http.StatusOK, gin.H{"titles": titles})
}

// respondFetchError maps service errors to status codes: unknown team to 404,
// upstream failure to 502, upstream timeout to 504.
func (h *Handler) respondFetchError(c *gin.Context, err error, team, title string) {
	log.Printf("[ERROR] request failed: %v", err)

	var teamErr *grid.TeamNotFoundError
	if errors.As(err, &teamErr) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":          teamErr.Error(),
			"team":           teamErr.TeamName,
			"availableTeams": teamErr.AvailableTeams,
			"message":        fmt.Sprintf("Team '%s' not found. Check the team name.", teamErr.TeamName),
		})
		return
	}

	var dataErr *grid.InsufficientDataError
	if errors.As(err, &dataErr) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":  dataErr.Error(),
			"team":   dataErr.TeamName,
			"reason": dataErr.Reason,
		})
		return
	}

	var fetchErr *grid.DataFetchError
	if errors.As(err, &fetchErr) {
		status := http.StatusBadGateway
		if errors.Is(fetchErr.Err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		c.JSON(status, gin.H{
			"error":   "upstream data API unavailable",
			"detail":  fetchErr.Error(),
			"message": "The esports data provider did not respond. Try again shortly.",
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func (h *Handler) parseMonths(raw string) (int, error) {
	if raw == "" {
		return h.defaultMonths, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > 24 {
		return 0, fmt.Errorf("months must be an integer between 1 and 24")
	}
	return n, nil
}

func titleSupported(title string) bool {
	for _, t := range supportedTitles {
		if t == title {
			return true
		}
	}
	return false
}

func parseBool(raw string) bool {
	switch strings.ToLower(raw) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
