// Package server exposes optimization runs as asynchronous jobs over HTTP
// and JSON-RPC 2.0.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"

	"github.com/driftlabs/EVOLV/internal/config"
	"github.com/driftlabs/EVOLV/internal/logging"
	"github.com/driftlabs/EVOLV/internal/optimization"
	"github.com/driftlabs/EVOLV/internal/optimization/evolutionary"
	"github.com/driftlabs/EVOLV/internal/optimization/swarm"
)

// Logger defines the logging interface used by the server. It keeps the
// server flexible about the concrete logging implementation.
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	Fatal(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// JobRequest is the wire shape of an optimization job submission.
type JobRequest struct {
	// Algorithm selects a strategy: "ep", "es", "pso" or "fa". Defaults
	// to "pso".
	Algorithm string `json:"algorithm"`
	// Objective names a builtin benchmark objective.
	Objective string `json:"objective"`
	// Bounds holds one [min, max] pair per decision variable.
	Bounds [][2]float64 `json:"bounds"`
	// NAgents is the population size; the configured default applies
	// when omitted.
	NAgents int `json:"n_agents"`
	// NDimensions is the per-variable dimensionality; defaults to 1.
	NDimensions int `json:"n_dimensions"`
	// NIterations is the run length; the configured default applies
	// when omitted.
	NIterations int `json:"n_iterations"`
	// Seed fixes the random generator for reproducible runs; 0 derives
	// a seed from the clock.
	Seed uint64 `json:"seed"`
	// StoreBestOnly trims history snapshots down to the best agent.
	StoreBestOnly bool `json:"store_best_only"`
}

// JobState tracks one optimization job. It is guarded by the server's job
// mutex.
type JobState struct {
	ID          string
	Algorithm   string
	Status      string // "pending", "running", "completed", "failed", "cancelled"
	StartTime   time.Time
	EndTime     *time.Time
	Progress    float64
	Best        *optimization.Record
	History     *optimization.History
	CancelFunc  context.CancelFunc
	LastUpdated time.Time
}

// Server manages optimization jobs and the HTTP/JSON-RPC endpoints to
// start, monitor and cancel them.
type Server struct {
	cfg    *config.Config
	logger Logger

	// zlog carries job lifecycle logs through the zap core adapter.
	zlog *zap.Logger

	jobs   map[string]*JobState
	jobsMu sync.RWMutex
}

// NewServer creates a new server instance with the given config and logger.
func NewServer(cfg *config.Config, logger Logger) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
		zlog:   logging.NewZapLogger(logger.WithFields(map[string]interface{}{"component": "jobs"})),
		jobs:   make(map[string]*JobState),
	}
}

// RegisterRoutes mounts the API on the given router.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/optimize", s.handleOptimize)
		r.Get("/status/{id}", s.handleStatus)
		r.Delete("/optimization/{id}", s.handleCancel)
	})

	// JSON-RPC 2.0 endpoint
	r.Post("/rpc", s.handleJSONRPC)
}

// handleJSONRPC handles JSON-RPC 2.0 requests.
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      interface{}     `json:"id"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, -32700, "Parse error", nil)
		return
	}
	if request.JSONRPC != "2.0" {
		s.respondWithError(w, -32600, "Invalid Request", nil)
		return
	}

	var result interface{}
	var err error

	switch request.Method {
	case "optimization.start":
		var req JobRequest
		if err := json.Unmarshal(request.Params, &req); err != nil {
			s.respondWithError(w, -32602, "Invalid params", request.ID)
			return
		}
		result, err = s.startJob(req)
	case "optimization.status":
		var params struct {
			OptimizationID string `json:"optimization_id"`
		}
		if err := json.Unmarshal(request.Params, &params); err != nil {
			s.respondWithError(w, -32602, "Invalid params", request.ID)
			return
		}
		result, err = s.jobStatus(params.OptimizationID)
	case "optimization.cancel":
		var params struct {
			OptimizationID string `json:"optimization_id"`
		}
		if err := json.Unmarshal(request.Params, &params); err != nil {
			s.respondWithError(w, -32602, "Invalid params", request.ID)
			return
		}
		err = s.cancelJob(params.OptimizationID)
	default:
		s.respondWithError(w, -32601, "Method not found", request.ID)
		return
	}

	if err != nil {
		s.respondWithError(w, -32000, err.Error(), request.ID)
		return
	}

	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      request.ID,
		"result":  result,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// startJob validates a job request, assembles the optimization pipeline and
// launches it in a goroutine.
func (s *Server) startJob(req JobRequest) (interface{}, error) {
	if len(req.Bounds) == 0 {
		return nil, fmt.Errorf("bounds are required")
	}
	if req.Objective == "" {
		return nil, fmt.Errorf("objective is required")
	}

	objective, err := lookupObjective(req.Objective)
	if err != nil {
		return nil, err
	}
	fn, err := optimization.NewFunction(objective)
	if err != nil {
		return nil, err
	}

	if req.Algorithm == "" {
		req.Algorithm = "pso"
	}
	if req.NAgents == 0 {
		req.NAgents = s.cfg.Optimization.DefaultAgents
	}
	if req.NDimensions == 0 {
		req.NDimensions = 1
	}
	if req.NIterations == 0 {
		req.NIterations = s.cfg.Optimization.DefaultIterations
	}
	if req.Seed == 0 {
		req.Seed = uint64(time.Now().UnixNano())
	}

	lb := make([]float64, len(req.Bounds))
	ub := make([]float64, len(req.Bounds))
	for i, b := range req.Bounds {
		lb[i] = b[0]
		ub[i] = b[1]
	}

	// One source drives both the space initialization and the strategy,
	// so the whole run is reproducible from the seed.
	src := rand.NewSource(req.Seed)

	space, err := optimization.NewSearchSpace(optimization.SpaceConfig{
		NAgents:     req.NAgents,
		NVariables:  len(req.Bounds),
		NDimensions: req.NDimensions,
		LB:          lb,
		UB:          ub,
	}, src)
	if err != nil {
		return nil, fmt.Errorf("building search space: %w", err)
	}

	strategy, err := newStrategy(req.Algorithm, src)
	if err != nil {
		return nil, err
	}

	id := fmt.Sprintf("opt_%d", time.Now().UnixNano())
	ctx, cancel := context.WithCancel(context.Background())

	state := &JobState{
		ID:          id,
		Algorithm:   strategy.Name(),
		Status:      "pending",
		StartTime:   time.Now(),
		CancelFunc:  cancel,
		LastUpdated: time.Now(),
	}

	s.jobsMu.Lock()
	s.jobs[id] = state
	s.jobsMu.Unlock()

	jobsStarted.WithLabelValues(strategy.Name()).Inc()

	go s.runJob(ctx, state, space, strategy, fn, req)

	return map[string]interface{}{
		"optimization_id": id,
		"status":          "pending",
	}, nil
}

// newStrategy builds a strategy by name with its default hyperparameters.
func newStrategy(name string, src rand.Source) (optimization.Strategy, error) {
	switch strings.ToLower(name) {
	case "ep":
		return evolutionary.New(evolutionary.DefaultConfig(), src)
	case "es":
		return evolutionary.NewES(evolutionary.DefaultESConfig(), src)
	case "pso":
		return swarm.NewPSO(swarm.DefaultPSOConfig(), src)
	case "fa":
		return swarm.NewFA(swarm.DefaultFAConfig(), src)
	default:
		return nil, fmt.Errorf("unknown algorithm %q", name)
	}
}

// runJob drives one optimization run to completion in a goroutine.
func (s *Server) runJob(ctx context.Context, state *JobState, space *optimization.Space,
	strategy optimization.Strategy, fn *optimization.Function, req JobRequest) {

	s.setStatus(state, "running")
	jobsRunning.Inc()
	defer jobsRunning.Dec()

	progress := optimization.CallbackFunc(func(t int, _ *optimization.Space, _ *optimization.History) error {
		s.jobsMu.Lock()
		state.Progress = float64(t) / float64(req.NIterations)
		state.LastUpdated = time.Now()
		s.jobsMu.Unlock()
		return nil
	})

	opts := []optimization.Option{
		optimization.WithCallbacks(progress),
		optimization.WithEvalWorkers(s.cfg.Optimization.EvalWorkers),
	}
	if req.StoreBestOnly {
		opts = append(opts, optimization.WithHistoryBestOnly())
	}

	runner, err := optimization.NewRunner(space, strategy, fn, opts...)
	if err == nil {
		var history *optimization.History
		history, err = runner.Run(ctx, req.NIterations)
		if err == nil {
			s.jobsMu.Lock()
			state.History = history
			s.jobsMu.Unlock()
		}
	}

	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	now := time.Now()
	state.EndTime = &now
	state.LastUpdated = now

	if err != nil {
		if ctx.Err() != nil && state.Status == "cancelled" {
			// Cancellation already recorded by cancelJob.
			return
		}
		s.zlog.Error("Optimization failed",
			zap.String("optimization_id", state.ID),
			zap.String("algorithm", state.Algorithm),
			zap.Error(err),
		)
		state.Status = "failed"
		jobsFailed.WithLabelValues(state.Algorithm).Inc()
		return
	}

	state.Status = "completed"
	state.Progress = 1
	state.Best = &optimization.Record{
		Position: space.Best.Position,
		Fit:      space.Best.Fit,
	}
	jobsCompleted.WithLabelValues(state.Algorithm).Inc()

	s.zlog.Info("Optimization completed",
		zap.String("optimization_id", state.ID),
		zap.String("algorithm", state.Algorithm),
		zap.Float64("best_fit", space.Best.Fit),
		zap.Int("iterations", req.NIterations),
	)
}

// jobStatus reports the current status and results of a job.
func (s *Server) jobStatus(id string) (interface{}, error) {
	if id == "" {
		return nil, fmt.Errorf("optimization_id is required")
	}

	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	state, exists := s.jobs[id]
	if !exists {
		return nil, fmt.Errorf("optimization not found")
	}

	response := map[string]interface{}{
		"status":      state.Status,
		"algorithm":   state.Algorithm,
		"progress":    state.Progress,
		"start_time":  state.StartTime.Format(time.RFC3339),
		"last_update": state.LastUpdated.Format(time.RFC3339),
	}
	if state.EndTime != nil {
		response["end_time"] = state.EndTime.Format(time.RFC3339)
	}
	if state.Best != nil {
		response["best_solution"] = map[string]interface{}{
			"position": state.Best.Position,
			"fit":      state.Best.Fit,
		}
	}
	if state.History != nil {
		response["iterations"] = state.History.Len()
		response["convergence"] = state.History.BestFitness()
	}

	return response, nil
}

// cancelJob cancels a running job.
func (s *Server) cancelJob(id string) error {
	if id == "" {
		return fmt.Errorf("optimization_id is required")
	}

	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	state, exists := s.jobs[id]
	if !exists {
		return fmt.Errorf("optimization not found")
	}

	switch state.Status {
	case "completed", "failed", "cancelled":
		return fmt.Errorf("cannot cancel optimization with status: %s", state.Status)
	}

	if state.CancelFunc != nil {
		state.CancelFunc()
	}

	state.Status = "cancelled"
	now := time.Now()
	state.EndTime = &now
	state.LastUpdated = now

	s.logger.Info("Optimization cancelled", map[string]interface{}{
		"optimization_id": id,
	})
	return nil
}

// setStatus updates a job's status under the lock.
func (s *Server) setStatus(state *JobState, status string) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	state.Status = status
	state.LastUpdated = time.Now()
}

// respondWithError sends a JSON-RPC 2.0 error response.
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string, id interface{}) {
	s.logger.Error("Request error", map[string]interface{}{
		"code":    code,
		"message": message,
	})

	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
		"id": id,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// Close cancels all running optimizations.
func (s *Server) Close() error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	for _, job := range s.jobs {
		if job.CancelFunc != nil {
			job.CancelFunc()
		}
	}
	return nil
}

// handleOptimize handles POST /api/v1/optimize.
func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req JobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	result, err := s.startJob(req)

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{"error": err.Error()})
		return
	}

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(result)
}

// handleStatus handles GET /api/v1/status/{id}.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Missing optimization ID", http.StatusBadRequest)
		return
	}

	result, err := s.jobStatus(id)

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{"error": err.Error()})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}

// handleCancel handles DELETE /api/v1/optimization/{id}.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Missing optimization ID", http.StatusBadRequest)
		return
	}

	err := s.cancelJob(id)

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{"error": err.Error()})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "cancellation requested"})
}
