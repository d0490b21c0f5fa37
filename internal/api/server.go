package api

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dgomez/bid-harvester/internal/auth"
	"github.com/dgomez/bid-harvester/internal/db"
	"github.com/dgomez/bid-harvester/internal/harvest"
	"github.com/dgomez/bid-harvester/internal/models"
	"github.com/dgomez/bid-harvester/internal/scrape"
)

type Server struct {
	Store       *db.Store
	AuthService *auth.Service
	Echo        *echo.Echo
	DB          *pgxpool.Pool
	Pipeline    *harvest.Pipeline

	// Background job tracking. One harvest job at a time keeps the
	// sources' rate limits honest.
	jobMu      sync.Mutex
	runningJob *backgroundJob
}

type backgroundJob struct {
	ID        string             `json:"id"`
	Status    string             `json:"status"` // running, completed, failed
	StartedAt time.Time          `json:"started_at"`
	EndedAt   time.Time          `json:"ended_at,omitempty"`
	Result    any                `json:"result,omitempty"`
	Error     string             `json:"error,omitempty"`
	Cancel    context.CancelFunc `json:"-"`
}

var (
	adminSecretOnce    sync.Once
	adminSecretRuntime string
	adminSecretErr     error
)

func NewServer(pool *pgxpool.Pool, registry *scrape.Registry, outputRoot string) *Server {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	allowedOrigins := []string{"http://localhost:4200"}
	if extra := os.Getenv("CORS_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				allowedOrigins = append(allowedOrigins, o)
			}
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "X-Admin-Secret"},
	}))

	store := db.NewStore(pool)

	s := &Server{
		DB:          pool,
		Store:       store,
		AuthService: auth.NewService(pool),
		Echo:        e,
		Pipeline:    harvest.NewPipeline(registry, outputRoot, store),
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)
	api := s.Echo.Group("/api/v1")
	api.GET("/contracts", s.handleListContracts)
	api.GET("/contracts/:id", s.handleGetContract)
	api.GET("/contracts/:id/documents", s.handleGetContractDocuments)
	api.GET("/sources", s.handleGetSources)
	api.GET("/stats", s.handleGetStats)

	// Admin routes: harvest triggers and run history.
	admin := api.Group("")
	admin.Use(s.adminMiddleware)
	admin.POST("/harvest/:source", s.handleTriggerHarvest)
	admin.POST("/transform", s.handleTriggerTransform)
	admin.GET("/admin/job/:id", s.handleJobStatus)
	admin.GET("/admin/runs", s.handleListRuns)

	api.POST("/auth/signup", s.handleSignup)
	api.POST("/auth/login", s.handleLogin)

	saved := api.Group("/saved")
	saved.Use(auth.Middleware)
	saved.POST("/:id", s.handleSaveContract)
	saved.DELETE("/:id", s.handleUnsaveContract)
	saved.GET("", s.handleGetSavedContracts)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *Server) handleListContracts(c echo.Context) error {
	params := db.ListParams{
		Query:  c.QueryParam("q"),
		Source: c.QueryParam("source"),
		Status: c.QueryParam("status"),
		Agency: c.QueryParam("agency"),
		SortBy: c.QueryParam("sort"),
	}
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			params.Limit = n
		}
	}
	if v := c.QueryParam("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			params.Offset = n
		}
	}

	result, err := s.Store.ListContracts(c.Request().Context(), params)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if result.Contracts == nil {
		result.Contracts = []models.Contract{}
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetContract(c echo.Context) error {
	contract, err := s.Store.GetContract(c.Request().Context(), c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if contract == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	}
	return c.JSON(http.StatusOK, contract)
}

func (s *Server) handleGetContractDocuments(c echo.Context) error {
	docs, err := s.Store.GetDocuments(c.Request().Context(), c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if docs == nil {
		docs = []models.Document{}
	}
	return c.JSON(http.StatusOK, docs)
}

func (s *Server) handleGetSources(c echo.Context) error {
	sources, err := s.Store.GetSources(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"sources": sources})
}

func (s *Server) handleGetStats(c echo.Context) error {
	stats, err := s.Store.GetStats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, stats)
}

// handleTriggerHarvest starts a collect-and-transform job for one source.
// The window comes from the optional "range" query parameter and defaults
// to yesterday.
func (s *Server) handleTriggerHarvest(c echo.Context) error {
	sourceID := c.Param("source")
	if _, err := s.Pipeline.Registry.Find(sourceID); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}

	window := harvest.Yesterday(time.Now())
	if rangeParam := c.QueryParam("range"); rangeParam != "" {
		parsed, err := harvest.ParseWindow(rangeParam)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		window = parsed
	}

	job, err := s.startJob(func(ctx context.Context) (any, error) {
		collected, agg, err := s.Pipeline.Run(ctx, sourceID, window)
		if err != nil {
			return nil, err
		}
		result := map[string]interface{}{"stats": collected.Stats, "dir": collected.Dir}
		if agg != nil {
			result["contracts"] = agg.Metadata.TotalContracts
		}
		return result, nil
	})
	if err != nil {
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"message": fmt.Sprintf("harvest started for %s", sourceID),
		"job_id":  job.ID,
		"poll":    fmt.Sprintf("/api/v1/admin/job/%s", job.ID),
	})
}

// handleTriggerTransform re-runs normalization over an existing session
// directory, e.g. after a transform fix.
func (s *Server) handleTriggerTransform(c echo.Context) error {
	var req struct {
		Dir    string `json:"dir"`
		Source string `json:"source"`
		Range  string `json:"range"`
	}
	if err := c.Bind(&req); err != nil || req.Dir == "" || req.Source == "" || req.Range == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "dir, source and range are required"})
	}
	window, err := harvest.ParseWindow(req.Range)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	job, err := s.startJob(func(ctx context.Context) (any, error) {
		agg, err := s.Pipeline.Transform(ctx, req.Dir, req.Source, window)
		if err != nil {
			return nil, err
		}
		return agg.Metadata, nil
	})
	if err != nil {
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"message": "transform started",
		"job_id":  job.ID,
		"poll":    fmt.Sprintf("/api/v1/admin/job/%s", job.ID),
	})
}

// startJob launches fn on a fresh goroutine, rejecting when another job is
// still running.
func (s *Server) startJob(fn func(ctx context.Context) (any, error)) (*backgroundJob, error) {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	if s.runningJob != nil && s.runningJob.Status == "running" {
		return nil, fmt.Errorf("job %s is still running", s.runningJob.ID)
	}

	ctx, cancel := context.WithCancel(context.Background())
	job := &backgroundJob{
		ID:        uuid.NewString(),
		Status:    "running",
		StartedAt: time.Now().UTC(),
		Cancel:    cancel,
	}
	s.runningJob = job

	go func() {
		defer cancel()
		result, err := fn(ctx)

		s.jobMu.Lock()
		job.EndedAt = time.Now().UTC()
		if err != nil {
			job.Status = "failed"
			job.Error = err.Error()
			log.Printf("[job %s] failed: %v", job.ID, err)
		} else {
			job.Status = "completed"
			job.Result = result
			log.Printf("[job %s] completed", job.ID)
		}
		s.jobMu.Unlock()
	}()

	return job, nil
}

func (s *Server) handleJobStatus(c echo.Context) error {
	queried := c.Param("id")
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	job := s.runningJob
	if job == nil || job.ID != queried {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
	}

	resp := map[string]interface{}{
		"id":         job.ID,
		"status":     job.Status,
		"started_at": job.StartedAt,
	}
	if !job.EndedAt.IsZero() {
		resp["ended_at"] = job.EndedAt
		resp["duration"] = job.EndedAt.Sub(job.StartedAt).String()
	}
	if job.Result != nil {
		resp["result"] = job.Result
	}
	if job.Error != "" {
		resp["error"] = job.Error
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleListRuns(c echo.Context) error {
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	runs, err := s.Store.ListRuns(c.Request().Context(), c.QueryParam("source"), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if runs == nil {
		runs = []db.HarvestRun{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"runs": runs})
}

func (s *Server) handleSignup(c echo.Context) error {
	var req auth.SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	resp, err := s.AuthService.Signup(c.Request().Context(), req)
	if err != nil {
		if err == auth.ErrUserExists {
			return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusCreated, resp)
}

func (s *Server) handleLogin(c echo.Context) error {
	var req auth.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	resp, err := s.AuthService.Login(c.Request().Context(), req)
	if err != nil {
		if err == auth.ErrInvalidCreds {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSaveContract(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
	}
	if err := s.AuthService.SaveContract(c.Request().Context(), userID, c.Param("id")); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, map[string]string{"message": "saved"})
}

func (s *Server) handleUnsaveContract(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
	}
	if err := s.AuthService.UnsaveContract(c.Request().Context(), userID, c.Param("id")); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "removed"})
}

func (s *Server) handleGetSavedContracts(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
	}
	contracts, err := s.AuthService.GetSavedContracts(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if contracts == nil {
		contracts = []models.Contract{}
	}
	return c.JSON(http.StatusOK, contracts)
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}

func (s *Server) adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		secret, err := adminSecret()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Server admin configuration error"})
		}

		authHeader := c.Request().Header.Get("Authorization")
		adminHeader := c.Request().Header.Get("X-Admin-Secret")

		if adminHeader == secret {
			return next(c)
		}
		if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
			if authHeader[7:] == secret {
				return next(c)
			}
		}

		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized admin access"})
	}
}

func adminSecret() (string, error) {
	adminSecretOnce.Do(func() {
		secret := strings.TrimSpace(os.Getenv("ADMIN_SECRET"))
		if secret != "" {
			adminSecretRuntime = secret
			return
		}

		buf := make([]byte, 48)
		if _, err := rand.Read(buf); err != nil {
			adminSecretErr = fmt.Errorf("failed to generate ADMIN_SECRET fallback: %w", err)
			return
		}

		adminSecretRuntime = base64.RawURLEncoding.EncodeToString(buf)
		log.Print("ADMIN_SECRET is not set; using ephemeral in-memory fallback secret")
	})

	if adminSecretErr != nil {
		return "", adminSecretErr
	}
	if adminSecretRuntime == "" {
		return "", fmt.Errorf("admin secret unavailable")
	}

	return adminSecretRuntime, nil
}
