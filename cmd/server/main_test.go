package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/p-n-ai/core-knowledge/internal/generator"
	"github.com/p-n-ai/core-knowledge/internal/history"
)

const chemLessons = `{
  "lessons": [
    {"code": "C4.3.1", "title": "Conservation of mass", "keywords": ["mass", "reactant", "product", "equation", "balanced", "closed system"]},
    {"code": "C4.3.2", "title": "Moles (HT)", "tier": "extension_only", "keywords": ["mole", "Avogadro constant", "molar mass"]},
    {"code": "C4.3.3", "title": "Unit Feedback", "keywords": ["review"]}
  ],
  "pool": ["solute", "solvent", "solution", "filtrate", "residue", "precipitate", "alloy", "ore"]
}`

func do(t *testing.T, h http.Handler, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	mux := newMux(&api{})

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "healthz returns 200",
			path:       "/healthz",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ok"}`,
		},
		{
			name:       "readyz returns 200",
			path:       "/readyz",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ready"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, mux, http.MethodGet, tt.path, "")

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != tt.wantBody {
				t.Errorf("body = %q, want %q", got, tt.wantBody)
			}
		})
	}
}

func TestReadyz_BackendDown(t *testing.T) {
	mux := newMux(&api{ready: func(context.Context) map[string]error {
		return map[string]error{"database": errors.New("connection refused"), "cache": nil}
	}})

	rec := do(t, mux, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if body.Checks["database"] != "connection refused" {
		t.Errorf("checks = %v", body.Checks)
	}
	if _, ok := body.Checks["cache"]; ok {
		t.Error("healthy checks should not be listed")
	}
}

func TestAllocate_Auto(t *testing.T) {
	mux := newMux(&api{})

	rec := do(t, mux, http.MethodPost, "/v1/allocations", chemLessons)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp allocationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if len(resp.Weeks) != 1 {
		t.Fatalf("weeks = %d, want 1", len(resp.Weeks))
	}
	w := resp.Weeks[0]
	if !reflect.DeepEqual(w.Lessons, []string{"C4.3.1", "C4.3.2"}) {
		t.Errorf("lessons = %v", w.Lessons)
	}
	if len(w.ExtensionWords) != 5 || len(w.CoreWords) != 10 {
		t.Errorf("core/ext = %d/%d, want 10/5", len(w.CoreWords), len(w.ExtensionWords))
	}
	if !reflect.DeepEqual(resp.UnusedPoolWords, []string{"alloy", "ore"}) {
		t.Errorf("unused = %v", resp.UnusedPoolWords)
	}
}

func TestAllocate_MaxWeeksAndExplicit(t *testing.T) {
	mux := newMux(&api{})

	body := `{"lessons": [
		{"code": "C4.3.1", "keywords": ["mass"]},
		{"code": "C4.3.2", "keywords": ["mole"]}
	], "weeks": [["C4.3.2"], ["C4.3.9"], ["C4.3.1"]]}`
	rec := do(t, mux, http.MethodPost, "/v1/allocations", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp allocationResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Weeks) != 2 || resp.Weeks[1].Number != 2 || resp.Weeks[1].Lessons[0] != "C4.3.1" {
		t.Errorf("weeks = %+v", resp.Weeks)
	}

	body = `{"lessons": [
		{"code": "C4.3.1", "keywords": ["a","b","c","d","e","f","g","h","i","j","k","l"]},
		{"code": "C4.3.2", "keywords": ["mole"]}
	], "max_weeks": 1}`
	rec = do(t, mux, http.MethodPost, "/v1/allocations", body)
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Weeks) != 1 {
		t.Errorf("max_weeks 1 gave %d weeks", len(resp.Weeks))
	}
}

func TestAllocate_Empty(t *testing.T) {
	mux := newMux(&api{})

	rec := do(t, mux, http.MethodPost, "/v1/allocations", `{"lessons": [{"code": "C4.3.9", "title": "Unit Feedback"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"weeks":[],"unused_pool_words":[]}` {
		t.Errorf("body = %s", got)
	}
}

func TestAllocate_Invalid(t *testing.T) {
	mux := newMux(&api{})

	tests := []struct {
		name string
		body string
	}{
		{"no lessons", `{"lessons": []}`},
		{"unknown tier", `{"lessons": [{"code": "C4.3.1", "tier": "triple"}]}`},
		{"negative max weeks", `{"lessons": [{"code": "C4.3.1"}], "max_weeks": -1}`},
		{"unknown repetition", `{"lessons": [{"code": "C4.3.1"}], "repetition": "shuffle"}`},
		{"not json", `lessons`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, mux, http.MethodPost, "/v1/allocations", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body = %s", rec.Code, rec.Body.String())
			}
		})
	}

	rec := do(t, mux, http.MethodPost, "/v1/allocations", `{"lessons": []}`)
	var body struct {
		Fields []struct {
			Field string `json:"field"`
		} `json:"fields"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if len(body.Fields) == 0 || body.Fields[0].Field != "lessons" {
		t.Errorf("fields = %+v, want lessons", body.Fields)
	}
}

func TestRequirePIN(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("2468"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword() error = %v", err)
	}
	mux := newMux(&api{pinHash: string(hash)})

	if rec := do(t, mux, http.MethodPost, "/v1/allocations", chemLessons); rec.Code != http.StatusUnauthorized {
		t.Errorf("no PIN status = %d, want 401", rec.Code)
	}
	if rec := do(t, mux, http.MethodPost, "/v1/allocations", chemLessons, "X-Access-PIN", "1357"); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong PIN status = %d, want 401", rec.Code)
	}
	if rec := do(t, mux, http.MethodPost, "/v1/allocations", chemLessons, "X-Access-PIN", "2468"); rec.Code != http.StatusOK {
		t.Errorf("correct PIN status = %d, want 200", rec.Code)
	}
	if rec := do(t, mux, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz should not need a PIN, status = %d", rec.Code)
	}
}

func TestAllocationStream(t *testing.T) {
	srv := httptest.NewServer(newMux(&api{}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/allocations/stream"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.CloseNow()

	body := `{"lessons": [
		{"code": "C4.3.1", "keywords": ["a","b","c","d","e","f","g","h","i","j","k","l"]},
		{"code": "C4.3.2", "keywords": ["mole", "molar mass"]}
	]}`
	if err := conn.Write(ctx, websocket.MessageText, []byte(body)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	var types []string
	for {
		var msg streamMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		types = append(types, msg.Type)
		if msg.Type == "week" && msg.Week == nil {
			t.Error("week message without a week")
		}
		if msg.Type == "done" {
			if msg.Weeks != 2 {
				t.Errorf("done weeks = %d, want 2", msg.Weeks)
			}
			break
		}
	}
	if !reflect.DeepEqual(types, []string{"week", "week", "done"}) {
		t.Errorf("messages = %v", types)
	}
}

func TestAllocationStream_InvalidRequest(t *testing.T) {
	srv := httptest.NewServer(newMux(&api{}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/v1/allocations/stream", nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.CloseNow()

	conn.Write(ctx, websocket.MessageText, []byte(`{"lessons": []}`))

	var msg streamMessage
	if err := wsjson.Read(ctx, conn, &msg); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if msg.Type != "error" || len(msg.Fields) == 0 {
		t.Errorf("message = %+v, want an error with fields", msg)
	}
}

func TestAllocationStream_EmptyAllocationReportsZeroWeeks(t *testing.T) {
	srv := httptest.NewServer(newMux(&api{}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/v1/allocations/stream", nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.CloseNow()

	if err := conn.Write(ctx, websocket.MessageText, []byte(`{"lessons": [{"code": "C4.3.9", "title": "Unit Feedback"}]}`)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	var frame map[string]any
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("frame is not JSON: %v", err)
	}
	if frame["type"] != "done" {
		t.Fatalf("frame = %s, want done", data)
	}
	if weeks, ok := frame["weeks"]; !ok || weeks != float64(0) {
		t.Errorf("done frame = %s, want weeks 0", data)
	}
}

// unitTree writes a one-unit lesson resources tree.
func unitTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "C4.3 Chemical calculations", "Unit Guidance")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	cells := map[string]string{
		"B3": "Lesson", "C3": "Title", "E3": "Keywords introduced",
		"B7": "C4.3.1", "C7": "Relative formula mass", "E7": "relative formula mass, mole, mass",
		"B8": "C4.3.2", "C8": "Unit Feedback", "E8": "none",
	}
	for k, v := range cells {
		f.SetCellValue("Sheet1", k, v)
	}
	if err := f.SaveAs(filepath.Join(dir, "C4.3 Unit Plan.xlsx")); err != nil {
		t.Fatalf("SaveAs() error = %v", err)
	}
	return root
}

func TestGenerate(t *testing.T) {
	root := unitTree(t)
	rec := history.NewMemoryRecorder()
	a := &api{
		generator: generator.New(root, generator.WithOutputDir(t.TempDir()), generator.WithRecorder(rec)),
		history:   rec,
		resources: root,
	}
	mux := newMux(a)

	resp := do(t, mux, http.MethodPost, "/v1/generations", `{"unit": "C4.3", "format": "json", "pool": ["atom"]}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", resp.Code, resp.Body.String())
	}
	var body generationResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if body.Unit != "C4.3" || body.Mode != history.ModeAuto || len(body.Weeks) != 1 {
		t.Errorf("response = %+v", body)
	}
	if _, err := os.Stat(body.OutputPath); err != nil {
		t.Errorf("output not written: %v", err)
	}
	if body.Questions["mole"] == "" {
		t.Errorf("questions = %v, missing mole", body.Questions)
	}
	if body.State == nil || len(body.State) != 0 {
		t.Errorf("state_questions = %v, want [] without a booklet", body.State)
	}

	runs := do(t, mux, http.MethodGet, "/v1/runs?unit=C4.3", "")
	var listed struct {
		Runs []history.Summary `json:"runs"`
	}
	json.Unmarshal(runs.Body.Bytes(), &listed)
	if len(listed.Runs) != 1 || listed.Runs[0].ID.String() != body.RunID {
		t.Errorf("runs = %+v", listed.Runs)
	}

	tests := []struct {
		name string
		body string
		want int
	}{
		{"unknown unit", `{"unit": "P6.1"}`, http.StatusNotFound},
		{"feedback only", `{"weeks": [["C4.3.2"]]}`, http.StatusUnprocessableEntity},
		{"bad format", `{"unit": "C4.3", "format": "pdf"}`, http.StatusBadRequest},
		{"bad body", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(t, mux, http.MethodPost, "/v1/generations", tt.body); rec.Code != tt.want {
				t.Errorf("status = %d, want %d; body = %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestUnitsAndTerms(t *testing.T) {
	root := unitTree(t)
	os.Mkdir(filepath.Join(root, "Shared resources"), 0o755)

	calendar := filepath.Join(t.TempDir(), "term.json")
	os.WriteFile(calendar, []byte(`{"2025-26": {"Autumn Term": {"half_terms": [{"name": "Autumn 1", "teaching_weeks": 7}]}}}`), 0o644)

	mux := newMux(&api{resources: root, termCalendar: calendar})

	rec := do(t, mux, http.MethodGet, "/v1/units", "")
	if got := strings.TrimSpace(rec.Body.String()); got != `{"units":["C4.3"]}` {
		t.Errorf("units body = %s", got)
	}

	rec = do(t, mux, http.MethodGet, "/v1/terms", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"teaching_weeks":7`) {
		t.Errorf("terms = %d %s", rec.Code, rec.Body.String())
	}

	if rec := do(t, newMux(&api{termCalendar: filepath.Join(root, "missing.json")}), http.MethodGet, "/v1/terms", ""); rec.Code != http.StatusInternalServerError {
		t.Errorf("missing calendar status = %d, want 500", rec.Code)
	}
}
