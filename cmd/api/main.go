package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yourusername/grid-scout-api/internal/config"
	"github.com/yourusername/grid-scout-api/internal/grid"
	"github.com/yourusername/grid-scout-api/internal/handlers"
	"github.com/yourusername/grid-scout-api/internal/llm"
	"github.com/yourusername/grid-scout-api/internal/repository"
	"github.com/yourusername/grid-scout-api/internal/services"
	"github.com/yourusername/grid-scout-api/pkg/cache"
)

// ============================================================================
// RATE LIMITER
// ============================================================================
type IPRateLimiter struct {
	ips map[string]*rate.Limiter
	mu  *sync.RWMutex
	r   rate.Limit
	b   int
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips: make(map[string]*rate.Limiter),
		mu:  &sync.RWMutex{},
		r:   r,
		b:   b,
	}
}

func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, exists := i.ips[ip]
	if !exists {
		limiter = rate.NewLimiter(i.r, i.b)
		i.ips[ip] = limiter
	}
	return limiter
}

func rateLimitMiddleware(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		l := limiter.GetLimiter(ip)

		if !l.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded. Please try again later.",
				"retry_after": "60s",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// ============================================================================
// SECURITY HEADERS
// ============================================================================
func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

// ============================================================================
// CORS MIDDLEWARE
// ============================================================================
func corsMiddleware(allowed string) gin.HandlerFunc {
	allowedOrigins := make(map[string]bool)
	for _, origin := range strings.Split(allowed, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowedOrigins[origin] = true
		}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if allowedOrigins[origin] {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Connect to Postgres
	pgRepo, err := repository.NewPostgresRepo(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	if err := pgRepo.RunMigrations(); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	// 3. Connect to Redis
	redisCache, err := cache.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// 4. Initialize GRID API client
	gridClient := grid.NewClient(cfg.GridAPIKey)

	// 5. Initialize LLM client (optional)
	var llmClient *llm.Client
	if cfg.GeminiAPIKey != "" {
		llmClient, err = llm.NewClient(context.Background(), cfg.GeminiAPIKey, "")
		if err != nil {
			log.Printf("[WARN] LLM disabled: %v", err)
			llmClient = nil
		}
	} else {
		log.Printf("[INFO] GEMINI_API_KEY not set, summaries use plain rendering")
	}

	// 6. Setup Gin
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	if cfg.TrustedProxies != "" {
		if err := router.SetTrustedProxies(strings.Split(cfg.TrustedProxies, ",")); err != nil {
			log.Fatalf("Invalid trusted proxies: %v", err)
		}
	}

	router.Use(corsMiddleware(os.Getenv("ALLOWED_ORIGINS")))
	router.Use(securityHeadersMiddleware())

	limiter := NewIPRateLimiter(10, 20)
	router.Use(rateLimitMiddleware(limiter))

	// 7. Initialize services and handlers
	scoutService := services.NewScoutService(gridClient, redisCache, pgRepo, llmClient)
	handler := handlers.NewHandler(pgRepo, redisCache, gridClient, scoutService, cfg.WindowMonths)

	// 8. Routes
	router.GET("/health", handler.HealthCheck)

	api := router.Group("/api/v1")
	{
		api.GET("/scouting-report", handler.GenerateScoutingReport)
		api.GET("/opponents", handler.GetOpponents)
		api.GET("/search", handler.SearchTeams)
		api.GET("/titles", handler.GetAvailableTitles)
		api.GET("/reports/history", handler.GetReportHistory)
	}

	// 9. Start server with graceful shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	pgRepo.Close()
	redisCache.Close()
	log.Println("Server stopped")
}
