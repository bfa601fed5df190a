package ui

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"erhsim/app"
	"erhsim/domain/core"
	domstats "erhsim/domain/stats"
	"erhsim/internal/judge"
)

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleJudges lists the available judge variants
func (a *App) handleJudges(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, http.StatusOK, map[string]interface{}{
		"judges": judge.Variants(),
	})
}

// handleRun executes one simulation. Degenerate outcomes (markers) are
// serialized as-is; only configuration problems become client errors.
func (a *App) handleRun(w http.ResponseWriter, r *http.Request) {
	var req app.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := a.service.Run(r.Context(), req)
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, result)
}

// handleCompare runs the multi-judge comparison
func (a *App) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req app.CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := a.service.Compare(r.Context(), req)
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, result)
}

// handleListRuns returns archived run summaries, newest first
func (a *App) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}

	runs, err := a.service.ListRuns(r.Context(), limit)
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, "failed to list runs")
		a.logger.Error("list runs: %v", err)
		return
	}
	if runs == nil {
		runs = []domstats.RunSummary{}
	}
	a.respondJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

// handleGetRun returns one archived run summary by id
func (a *App) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseRunID(chi.URLParam(r, "runID"))
	if err != nil {
		a.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	run, err := a.service.GetRun(r.Context(), id)
	if err != nil {
		if core.IsNotFoundError(err) {
			a.respondError(w, http.StatusNotFound, err.Error())
			return
		}
		a.respondError(w, http.StatusInternalServerError, "failed to load run")
		a.logger.Error("get run %s: %v", id.String(), err)
		return
	}
	a.respondJSON(w, http.StatusOK, run)
}

func (a *App) respondServiceError(w http.ResponseWriter, err error) {
	if core.IsConfigError(err) {
		a.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.logger.Error("simulation failed: %v", err)
	a.respondError(w, http.StatusInternalServerError, err.Error())
}

func (a *App) respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Error("encode response: %v", err)
	}
}

func (a *App) respondError(w http.ResponseWriter, status int, message string) {
	a.respondJSON(w, status, map[string]string{"error": message})
}
