package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"mining-sim-lab/internal/config"
	"mining-sim-lab/internal/domain"
	"mining-sim-lab/internal/feed"
	"mining-sim-lab/internal/observability"
	"mining-sim-lab/internal/probability"
	"mining-sim-lab/internal/reporting"
	"mining-sim-lab/internal/simulation"
	"mining-sim-lab/internal/storage"
)

// defaultRunsLimit caps /runs when no limit is given.
const defaultRunsLimit = 20

// Server exposes the engine over HTTP.
type Server struct {
	engine  *simulation.Engine
	hub     *feed.Hub
	runs    storage.RunArchive // nil when archiving is disabled
	reports *reporting.Generator
	logger  *logrus.Entry

	// runCtx outlives requests; the engine schedules ticks on it.
	runCtx  context.Context
	started time.Time
}

// StatusResponse is the JSON response for /status and the control endpoints.
type StatusResponse struct {
	Status          string                `json:"status"`
	Uptime          string                `json:"uptime"`
	Snapshot        domain.Snapshot       `json:"snapshot"`
	Economics       probability.Economics `json:"economics"`
	HistorySize     int                   `json:"history_size"`
	HistoryCapacity int                   `json:"history_capacity"`
	FeedClients     int                   `json:"feed_clients"`
}

type coinRequest struct {
	Symbol string `json:"symbol"`
}

type hardwareRequest struct {
	Name string `json:"name"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// routes builds the HTTP mux.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("GET /metrics", observability.Handler())

	// Engine state and control
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /start", s.handleStart)
	mux.HandleFunc("POST /stop", s.handleStop)
	mux.HandleFunc("POST /reset", s.handleReset)

	// Configuration
	mux.HandleFunc("PUT /params", s.handleParams)
	mux.HandleFunc("PUT /coin", s.handleCoin)
	mux.HandleFunc("PUT /hardware", s.handleHardware)

	// Catalogs and outputs
	mux.HandleFunc("GET /coins", s.handleCoins)
	mux.HandleFunc("GET /hardware", s.handleHardwareList)
	mux.HandleFunc("GET /samples", s.handleSamples)
	mux.HandleFunc("GET /breakdown", s.handleBreakdown)
	mux.HandleFunc("GET /export", s.handleExport)
	mux.HandleFunc("GET /report", s.handleReport)
	mux.HandleFunc("GET /runs", s.handleRuns)

	// Live feed
	mux.Handle("GET /feed", s.hub)

	return mux
}

func (s *Server) status() StatusResponse {
	snap := s.engine.Snapshot()
	return StatusResponse{
		Status:          s.engine.State().String(),
		Uptime:          time.Since(s.started).Round(time.Second).String(),
		Snapshot:        snap,
		Economics:       probability.Compute(snap.Parameters, snap.Market),
		HistorySize:     len(s.engine.Samples()),
		HistoryCapacity: s.engine.HistoryCapacity(),
		FeedClients:     s.hub.Clients(),
	}
}

// handleStatus returns engine status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.engine.Start(s.runCtx)
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.engine.Stop()
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.engine.Reset()
	writeJSON(w, http.StatusOK, s.status())
}

// handleParams applies a partial MiningParameters document. Missing fields
// keep their current values; everything is clamped into range.
func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	params := s.engine.Snapshot().Parameters
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode parameters: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, s.engine.SetParameters(params))
}

func (s *Server) handleCoin(w http.ResponseWriter, r *http.Request) {
	var req coinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode coin: %w", err))
		return
	}

	coin, err := s.engine.SelectCoin(req.Symbol)
	if errors.Is(err, domain.ErrUnknownCoin) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("coin %q: %w", req.Symbol, err))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, coin)
}

func (s *Server) handleHardware(w http.ResponseWriter, r *http.Request) {
	var req hardwareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode hardware: %w", err))
		return
	}

	params, err := s.engine.ApplyHardware(req.Name)
	if errors.Is(err, domain.ErrUnknownHardware) || errors.Is(err, domain.ErrPresetOutOfRange) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("hardware %q: %w", req.Name, err))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, params)
}

func (s *Server) handleCoins(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, domain.Coins())
}

// hardwareEntry is a catalog preset plus whether PUT /hardware accepts it.
type hardwareEntry struct {
	domain.Hardware
	Applicable bool `json:"applicable"`
}

func (s *Server) handleHardwareList(w http.ResponseWriter, r *http.Request) {
	presets := domain.HardwarePresets()
	out := make([]hardwareEntry, 0, len(presets))
	for _, hw := range presets {
		out = append(out, hardwareEntry{Hardware: hw, Applicable: config.CheckHardware(hw) == nil})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSamples(w http.ResponseWriter, r *http.Request) {
	samples := s.engine.Samples()
	if samples == nil {
		samples = []domain.MetricsSample{}
	}
	writeJSON(w, http.StatusOK, samples)
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Breakdown())
}

// handleExport serves the retained samples as a CSV attachment.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	body := s.engine.ExportCSV()
	observability.RecordExport()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", reporting.ExportFilename))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report := s.reports.Generate(s.engine.Snapshot(), s.engine.Breakdown(), s.engine.Samples())

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(reporting.RenderMarkdown(report)))
}

// handleRuns lists archived run checkpoints, newest first.
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, http.StatusNotFound, errors.New("run archive disabled"))
		return
	}

	limit := defaultRunsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = n
	}

	var (
		runs []*domain.RunSummary
		err  error
	)
	if runID := r.URL.Query().Get("run_id"); runID != "" {
		runs, err = s.runs.GetByRunID(r.Context(), runID)
	} else {
		runs, err = s.runs.ListRecent(r.Context(), limit)
	}
	if err != nil {
		s.logger.WithError(err).Error("list runs failed")
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []*domain.RunSummary{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
