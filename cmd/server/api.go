package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"golang.org/x/crypto/bcrypt"

	"github.com/p-n-ai/core-knowledge/internal/allocation"
	"github.com/p-n-ai/core-knowledge/internal/generator"
	"github.com/p-n-ai/core-knowledge/internal/history"
	"github.com/p-n-ai/core-knowledge/internal/lesson"
	"github.com/p-n-ai/core-knowledge/internal/questions"
	"github.com/p-n-ai/core-knowledge/internal/resources"
	"github.com/p-n-ai/core-knowledge/internal/schemas"
	"github.com/p-n-ai/core-knowledge/internal/term"
)

const maxBodyBytes = 1 << 20

// api serves the allocation endpoints. Nil services disable the routes
// that need them.
type api struct {
	generator    *generator.Service
	history      history.Store
	ready        func(context.Context) map[string]error
	resources    string
	termCalendar string
	pinHash      string
	repetition   allocation.Repetition
	maxWeeks     int
}

// newMux creates the HTTP router.
func newMux(a *api) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", a.handleReadyz)

	mux.Handle("POST /v1/allocations", a.requirePIN(a.handleAllocate))
	mux.Handle("GET /v1/allocations/stream", a.requirePIN(a.handleStream))
	mux.Handle("POST /v1/generations", a.requirePIN(a.handleGenerate))
	mux.Handle("GET /v1/runs", a.requirePIN(a.handleRuns))
	mux.Handle("GET /v1/units", a.requirePIN(a.handleUnits))
	mux.Handle("GET /v1/terms", a.requirePIN(a.handleTerms))
	return mux
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (a *api) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if a.ready == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	failed := map[string]string{}
	for name, err := range a.ready(ctx) {
		if err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		slog.Warn("readiness check failed", "checks", failed)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "not ready", "checks": failed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// requirePIN checks X-Access-PIN (or the pin query parameter, for
// browsers opening a websocket) against the configured bcrypt hash.
func (a *api) requirePIN(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.pinHash == "" {
			next(w, r)
			return
		}
		pin := r.Header.Get("X-Access-PIN")
		if pin == "" {
			pin = r.URL.Query().Get("pin")
		}
		if pin == "" || bcrypt.CompareHashAndPassword([]byte(a.pinHash), []byte(pin)) != nil {
			writeError(w, http.StatusUnauthorized, "access PIN required")
			return
		}
		next(w, r)
	})
}

// allocationRequest is the body of POST /v1/allocations.
type allocationRequest struct {
	Lessons    []lesson.Lesson `json:"lessons"`
	Pool       []string        `json:"pool"`
	Weeks      [][]string      `json:"weeks"`
	MaxWeeks   *int            `json:"max_weeks"`
	Repetition string          `json:"repetition"`
}

type allocationResponse struct {
	Weeks           []allocation.Week `json:"weeks"`
	UnusedPoolWords []string          `json:"unused_pool_words"`
}

// allocate validates and runs one allocation request.
func (a *api) allocate(data []byte) (allocation.Allocation, []string, error) {
	if err := schemas.Validate(schemas.AllocationRequest, data); err != nil {
		return allocation.Allocation{}, nil, err
	}
	var req allocationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return allocation.Allocation{}, nil, fmt.Errorf("decoding allocation request: %w", err)
	}

	rep := a.repetition
	if req.Repetition != "" {
		var err error
		if rep, err = allocation.ParseRepetition(req.Repetition); err != nil {
			return allocation.Allocation{}, nil, err
		}
	}
	maxWeeks := a.maxWeeks
	if req.MaxWeeks != nil {
		maxWeeks = *req.MaxWeeks
	}

	cat := make(lesson.Catalog, len(req.Lessons))
	for _, l := range req.Lessons {
		cat.Add(l)
	}

	opt := allocation.WithRepetition(rep)
	var alloc allocation.Allocation
	if len(req.Weeks) > 0 {
		alloc = allocation.BuildFromAssignments(cat, req.Pool, req.Weeks, opt)
	} else {
		alloc = allocation.BuildAuto(cat, req.Pool, maxWeeks, opt)
	}
	return alloc, alloc.UnusedPoolWords(req.Pool), nil
}

func (a *api) handleAllocate(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}

	alloc, unused, err := a.allocate(data)
	if err != nil {
		writeErrorFrom(w, http.StatusBadRequest, err)
		return
	}
	if alloc.Empty() {
		slog.Info("allocation request produced no weeks")
	}
	writeJSON(w, http.StatusOK, allocationResponse{
		Weeks:           nonNil(alloc.Weeks),
		UnusedPoolWords: nonNil(unused),
	})
}

// streamMessage is one websocket frame of an allocation stream.
type streamMessage struct {
	Type            string               `json:"type"`
	Week            *allocation.Week     `json:"week,omitempty"`
	Weeks           int                  `json:"weeks"`
	UnusedPoolWords []string             `json:"unused_pool_words,omitempty"`
	Error           string               `json:"error,omitempty"`
	Fields          []schemas.FieldError `json:"fields,omitempty"`
}

// handleStream reads one allocation request from the socket and answers
// with a "week" message per week and a final "done" message.
func (a *api) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	_, data, err := conn.Read(ctx)
	if err != nil {
		slog.Debug("websocket read failed", "error", err)
		return
	}

	alloc, unused, err := a.allocate(data)
	if err != nil {
		msg := streamMessage{Type: "error", Error: err.Error()}
		var ve *schemas.ValidationError
		if errors.As(err, &ve) {
			msg.Fields = ve.Errors
		}
		if err := wsjson.Write(ctx, conn, msg); err != nil {
			slog.Debug("websocket write failed", "error", err)
		}
		conn.Close(websocket.StatusUnsupportedData, "invalid allocation request")
		return
	}

	for i := range alloc.Weeks {
		if err := wsjson.Write(ctx, conn, streamMessage{Type: "week", Week: &alloc.Weeks[i]}); err != nil {
			slog.Debug("websocket write failed", "error", err)
			return
		}
	}
	if err := wsjson.Write(ctx, conn, streamMessage{Type: "done", Weeks: len(alloc.Weeks), UnusedPoolWords: unused}); err != nil {
		slog.Debug("websocket write failed", "error", err)
		return
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

// generationRequest is the body of POST /v1/generations.
type generationRequest struct {
	Unit       string     `json:"unit"`
	Weeks      [][]string `json:"weeks"`
	MaxWeeks   *int       `json:"max_weeks"`
	Repetition string     `json:"repetition"`
	Pool       []string   `json:"pool"`
	Format     string     `json:"format"`
}

type generationResponse struct {
	RunID           string                `json:"run_id"`
	Unit            string                `json:"unit"`
	UnitName        string                `json:"unit_name"`
	Mode            history.Mode          `json:"mode"`
	OutputPath      string                `json:"output_path"`
	Weeks           []allocation.Week     `json:"weeks"`
	UnusedPoolWords []string              `json:"unused_pool_words"`
	Questions       map[string]string     `json:"questions"`
	State           []questions.StateItem `json:"state_questions"`
}

func (a *api) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if a.generator == nil {
		writeError(w, http.StatusNotImplemented, "generation is not configured")
		return
	}

	var body generationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	format, err := generator.ParseFormat(body.Format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req := generator.Request{
		Unit:       body.Unit,
		Weeks:      body.Weeks,
		MaxWeeks:   a.maxWeeks,
		Repetition: a.repetition,
		ExtraPool:  body.Pool,
		Format:     format,
	}
	if body.MaxWeeks != nil {
		req.MaxWeeks = *body.MaxWeeks
	}
	if body.Repetition != "" {
		if req.Repetition, err = allocation.ParseRepetition(body.Repetition); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	res, err := a.generator.Run(r.Context(), req)
	switch {
	case errors.Is(err, resources.ErrUnitNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, generator.ErrNothingToGenerate):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		slog.Error("generation failed", "unit", req.Unit, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	qs := map[string]string{}
	for _, q := range res.Questions.Questions() {
		qs[q.Keyword] = q.Text
	}
	state := []questions.StateItem{}
	for _, wk := range res.Allocation.Weeks {
		state = append(state, res.State.Week(wk.Lessons)...)
	}
	writeJSON(w, http.StatusCreated, generationResponse{
		RunID:           res.RunID.String(),
		Unit:            res.Unit,
		UnitName:        res.UnitName,
		Mode:            res.Mode,
		OutputPath:      res.OutputPath,
		Weeks:           res.Allocation.Weeks,
		UnusedPoolWords: nonNil(res.UnusedPool),
		Questions:       qs,
		State:           state,
	})
}

func (a *api) handleRuns(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		writeError(w, http.StatusNotImplemented, "run history is not configured")
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := a.history.Recent(r.Context(), r.URL.Query().Get("unit"), limit)
	if err != nil {
		slog.Error("listing runs failed", "error", err)
		writeError(w, http.StatusInternalServerError, "listing runs failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": nonNil(runs)})
}

func (a *api) handleUnits(w http.ResponseWriter, r *http.Request) {
	units, err := resources.ListUnits(a.resources)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"units": nonNil(units)})
}

func (a *api) handleTerms(w http.ResponseWriter, r *http.Request) {
	cal, err := term.Load(a.termCalendar)
	if err != nil {
		writeErrorFrom(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"half_terms": nonNil(cal.HalfTerms())})
}

// writeErrorFrom reports err with status, listing the failing fields of
// a schema validation error.
func writeErrorFrom(w http.ResponseWriter, status int, err error) {
	var ve *schemas.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, status, map[string]any{"error": ve.Error(), "fields": ve.Errors})
		return
	}
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("writing response failed", "error", err)
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
