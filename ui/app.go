package ui

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"erhsim/app"
	"erhsim/internal"
)

// App represents the HTTP API application
type App struct {
	router  *chi.Mux
	service *app.SimulationService
	logger  *internal.Logger
}

// NewApp creates the API application around a simulation service
func NewApp(service *app.SimulationService, logger *internal.Logger) *App {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	a := &App{
		router:  chi.NewRouter(),
		service: service,
		logger:  logger,
	}

	a.setupMiddleware()
	a.setupRoutes()
	return a
}

// Router exposes the handler tree, mostly for tests
func (a *App) Router() http.Handler {
	return a.router
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.RealIP)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/healthz", a.handleHealth)

	a.router.Get("/api/judges", a.handleJudges)
	a.router.Post("/api/run", a.handleRun)
	a.router.Post("/api/compare", a.handleCompare)
	a.router.Get("/api/runs", a.handleListRuns)
	a.router.Get("/api/runs/{runID}", a.handleGetRun)
}

// Start starts the HTTP server
func (a *App) Start(port string) error {
	addr := ":" + port
	a.logger.Info("starting erhsim API server on %s", addr)
	return http.ListenAndServe(addr, a.router)
}
