// Package server exposes the tuning harness over HTTP. Studies run
// asynchronously: a POST starts one, subsequent requests poll its status or
// cancel it. A JSON-RPC 2.0 endpoint mirrors the REST surface.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/copyleftdev/SMBO/internal/config"
	"github.com/copyleftdev/SMBO/internal/dataset"
	"github.com/copyleftdev/SMBO/internal/logging"
	"github.com/copyleftdev/SMBO/internal/objective"
	opt "github.com/copyleftdev/SMBO/internal/optimize"
	"github.com/copyleftdev/SMBO/internal/optimize/bayesian"
	"github.com/copyleftdev/SMBO/internal/optimize/grid"
	"github.com/copyleftdev/SMBO/internal/search"
	"github.com/copyleftdev/SMBO/internal/validate"
)

// Logger is the logging surface the server needs.
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// Objective is a tunable target: a search space plus a scoring function.
type Objective interface {
	Space() (*search.Space, error)
	Evaluate(point []float64) (float64, error)
}

// StudyState tracks one asynchronous tuning study.
type StudyState struct {
	ID          string
	Objective   string
	Minimizer   string
	Status      string // "pending", "running", "completed", "failed", "cancelled"
	StartTime   time.Time
	EndTime     *time.Time
	LastUpdated time.Time

	Space *search.Space
	Run   *opt.Run
	Err   string

	minimizer opt.Minimizer
	cancel    context.CancelFunc
}

// Server manages tuning studies over the configured dataset.
type Server struct {
	cfg    *config.Config
	logger Logger
	table  *dataset.Table

	studies   map[string]*StudyState
	studiesMu sync.RWMutex
}

// NewServer creates a server running studies against the given dataset.
func NewServer(cfg *config.Config, logger Logger, table *dataset.Table) *Server {
	return &Server{
		cfg:     cfg,
		logger:  logger,
		table:   table,
		studies: make(map[string]*StudyState),
	}
}

// RegisterRoutes mounts the REST and JSON-RPC endpoints.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/studies", s.handleStartStudy)
		r.Get("/studies/{id}", s.handleStudyStatus)
		r.Delete("/studies/{id}", s.handleCancelStudy)
	})

	r.Post("/rpc", s.handleJSONRPC)
}

func (s *Server) buildObjective(name string) (Objective, error) {
	folds := validate.KFold{K: s.cfg.Tuning.CVFolds, Seed: s.cfg.Tuning.Seed}

	switch name {
	case "boosted":
		return objective.NewBoosted(s.table, folds, s.cfg.Tuning.NEstimators, s.cfg.Tuning.Seed)
	case "pipeline":
		return objective.NewPipeline(s.table, folds, s.cfg.Tuning.NEstimators, s.cfg.Tuning.Seed)
	default:
		return nil, fmt.Errorf("unknown objective %q, want \"boosted\" or \"pipeline\"", name)
	}
}

func (s *Server) buildMinimizer(name, studyID string, optCfg opt.Config) (opt.Minimizer, error) {
	switch name {
	case "", "bayesian":
		zl := logging.NewZapLogger(s.logger.WithFields(map[string]interface{}{
			"study_id": studyID,
		}))
		return bayesian.New(optCfg, zl)
	case "grid":
		return grid.New(optCfg, nil)
	default:
		return nil, fmt.Errorf("unknown minimizer %q, want \"bayesian\" or \"grid\"", name)
	}
}

// startStudy validates the request, registers the study and launches it in a
// goroutine.
func (s *Server) startStudy(objectiveName, minimizerName string) (*StudyState, error) {
	obj, err := s.buildObjective(objectiveName)
	if err != nil {
		return nil, err
	}
	space, err := obj.Space()
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	optCfg := opt.Config{
		Objective:      obj.Evaluate,
		Space:          space,
		MaxEvals:       s.cfg.Tuning.MaxEvals,
		NInitialPoints: s.cfg.Tuning.NInitialPoints,
		Seed:           s.cfg.Tuning.Seed,
	}
	if minimizerName == "" {
		minimizerName = "bayesian"
	}
	minimizer, err := s.buildMinimizer(minimizerName, id, optCfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()
	state := &StudyState{
		ID:          id,
		Objective:   objectiveName,
		Minimizer:   minimizerName,
		Status:      "pending",
		StartTime:   now,
		LastUpdated: now,
		Space:       space,
		minimizer:   minimizer,
		cancel:      cancel,
	}

	s.studiesMu.Lock()
	s.studies[id] = state
	s.studiesMu.Unlock()

	go s.runStudy(ctx, state, optCfg)

	return state, nil
}

func (s *Server) runStudy(ctx context.Context, state *StudyState, optCfg opt.Config) {
	s.studiesMu.Lock()
	state.Status = "running"
	state.LastUpdated = time.Now()
	s.studiesMu.Unlock()

	s.logger.Info("study started", map[string]interface{}{
		"study_id":  state.ID,
		"objective": state.Objective,
		"minimizer": state.Minimizer,
		"max_evals": optCfg.MaxEvals,
	})

	run, err := state.minimizer.Minimize(ctx, optCfg)

	s.studiesMu.Lock()
	defer s.studiesMu.Unlock()

	// A cancel that raced the finish keeps its terminal status.
	if state.Status == "cancelled" {
		return
	}

	now := time.Now()
	state.EndTime = &now
	state.LastUpdated = now

	if err != nil {
		state.Status = "failed"
		state.Err = err.Error()
		s.logger.Error("study failed", map[string]interface{}{
			"study_id": state.ID,
			"error":    err.Error(),
		})
		return
	}

	state.Status = "completed"
	state.Run = run
	s.logger.Info("study completed", map[string]interface{}{
		"study_id": state.ID,
		"calls":    run.Calls,
		"best":     run.Best.Score,
	})
}

// namedPoint pairs dimension names with point values for responses.
func (s *Server) namedPoint(space *search.Space, point []float64) map[string]float64 {
	dims := space.Dimensions()
	out := make(map[string]float64, len(dims))
	for i, d := range dims {
		if i < len(point) {
			out[d.Name] = point[i]
		}
	}
	return out
}

func (s *Server) studyStatus(id string) (map[string]interface{}, error) {
	s.studiesMu.RLock()
	defer s.studiesMu.RUnlock()

	state, ok := s.studies[id]
	if !ok {
		return nil, fmt.Errorf("study %q not found", id)
	}

	response := map[string]interface{}{
		"study_id":    state.ID,
		"objective":   state.Objective,
		"minimizer":   state.Minimizer,
		"status":      state.Status,
		"start_time":  state.StartTime.Format(time.RFC3339),
		"last_update": state.LastUpdated.Format(time.RFC3339),
	}
	if state.EndTime != nil {
		response["end_time"] = state.EndTime.Format(time.RFC3339)
	}
	if state.Err != "" {
		response["error"] = state.Err
	}

	if state.Run != nil {
		response["calls"] = state.Run.Calls
		response["best"] = map[string]interface{}{
			"params": s.namedPoint(state.Space, state.Run.Best.Point),
			"score":  state.Run.Best.Score,
		}
		response["best_so_far"] = state.Run.BestSoFar()
	} else if best := state.minimizer.BestSolution(); best != nil {
		response["best"] = map[string]interface{}{
			"params": s.namedPoint(state.Space, best.Point),
			"score":  best.Score,
		}
	}

	if history := state.minimizer.History(); len(history) > 0 {
		entries := make([]map[string]interface{}, len(history))
		for i, eval := range history {
			entries[i] = map[string]interface{}{
				"call":   eval.Call,
				"params": s.namedPoint(state.Space, eval.Solution.Point),
				"score":  eval.Solution.Score,
			}
		}
		response["history"] = entries
	}

	return response, nil
}

func (s *Server) cancelStudy(id string) error {
	s.studiesMu.Lock()
	defer s.studiesMu.Unlock()

	state, ok := s.studies[id]
	if !ok {
		return fmt.Errorf("study %q not found", id)
	}

	switch state.Status {
	case "completed", "failed", "cancelled":
		return fmt.Errorf("cannot cancel study with status %q", state.Status)
	}

	if state.cancel != nil {
		state.cancel()
	}
	state.minimizer.Stop()

	state.Status = "cancelled"
	now := time.Now()
	state.EndTime = &now
	state.LastUpdated = now

	s.logger.Info("study cancelled", map[string]interface{}{
		"study_id": id,
	})
	return nil
}

// Close cancels every in-flight study.
func (s *Server) Close() error {
	s.studiesMu.Lock()
	defer s.studiesMu.Unlock()

	for _, state := range s.studies {
		if state.cancel != nil {
			state.cancel()
		}
	}
	return nil
}

// handleStartStudy handles POST /api/v1/studies.
func (s *Server) handleStartStudy(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Objective string `json:"objective"`
		Minimizer string `json:"minimizer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": fmt.Sprintf("invalid request body: %v", err),
		})
		return
	}

	state, err := s.startStudy(body.Objective, body.Minimizer)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"study_id": state.ID,
		"status":   state.Status,
	})
}

// handleStudyStatus handles GET /api/v1/studies/{id}.
func (s *Server) handleStudyStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "missing study id"})
		return
	}

	status, err := s.studyStatus(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// handleCancelStudy handles DELETE /api/v1/studies/{id}.
func (s *Server) handleCancelStudy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "missing study id"})
		return
	}

	if err := s.cancelStudy(id); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancellation requested"})
}

// handleJSONRPC handles JSON-RPC 2.0 requests mirroring the REST surface.
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request struct {
		JSONRPC string        `json:"jsonrpc"`
		ID      interface{}   `json:"id"`
		Method  string        `json:"method"`
		Params  []interface{} `json:"params,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, -32700, "Parse error", nil)
		return
	}
	if request.JSONRPC != "2.0" {
		s.respondWithError(w, -32600, "Invalid Request", request.ID)
		return
	}

	var result interface{}
	var err error

	switch request.Method {
	case "study.start":
		result, err = s.rpcStartStudy(request.Params)
	case "study.status":
		result, err = s.rpcStudyStatus(request.Params)
	case "study.cancel":
		err = s.rpcCancelStudy(request.Params)
	default:
		s.respondWithError(w, -32601, "Method not found", request.ID)
		return
	}

	if err != nil {
		s.respondWithError(w, -32000, err.Error(), request.ID)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      request.ID,
		"result":  result,
	})
}

func rpcParams(params []interface{}) (map[string]interface{}, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("missing required parameters")
	}
	paramMap, ok := params[0].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid parameter format, expected object")
	}
	return paramMap, nil
}

func (s *Server) rpcStartStudy(params []interface{}) (interface{}, error) {
	paramMap, err := rpcParams(params)
	if err != nil {
		return nil, err
	}

	objectiveName, ok := paramMap["objective"].(string)
	if !ok || objectiveName == "" {
		return nil, fmt.Errorf("objective is required")
	}
	minimizerName, _ := paramMap["minimizer"].(string)

	state, err := s.startStudy(objectiveName, minimizerName)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"study_id": state.ID,
		"status":   state.Status,
	}, nil
}

func (s *Server) rpcStudyStatus(params []interface{}) (interface{}, error) {
	paramMap, err := rpcParams(params)
	if err != nil {
		return nil, err
	}
	id, ok := paramMap["study_id"].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("study_id is required")
	}
	return s.studyStatus(id)
}

func (s *Server) rpcCancelStudy(params []interface{}) error {
	paramMap, err := rpcParams(params)
	if err != nil {
		return err
	}
	id, ok := paramMap["study_id"].(string)
	if !ok || id == "" {
		return fmt.Errorf("study_id is required")
	}
	return s.cancelStudy(id)
}

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string, id interface{}) {
	s.logger.Error("request error", map[string]interface{}{
		"code":    code,
		"message": message,
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jsonrpc": "2.0",
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
		"id": id,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
