package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/api/option"

	"github.com/comment-insights/internal/config"
	"github.com/comment-insights/internal/models"
	"github.com/comment-insights/pkg/logger"
)

// fakeSheets is a minimal in-memory Sheets API
type fakeSheets struct {
	mu        sync.Mutex
	hasSheet  bool
	header    []interface{}
	appended  [][]interface{}
	addSheets int
	appends   int
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	path := r.URL.Path
	switch {
	case strings.HasSuffix(path, ":batchUpdate"):
		f.addSheets++
		f.hasSheet = true
		io.WriteString(w, `{"spreadsheetId":"sheet-1"}`)
	case strings.HasSuffix(path, ":append"):
		var body struct {
			Values [][]interface{} `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.appends++
		f.appended = append(f.appended, body.Values...)
		io.WriteString(w, `{}`)
	case strings.Contains(path, "/values/") && r.Method == http.MethodPut:
		var body struct {
			Values [][]interface{} `json:"values"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if len(body.Values) > 0 {
			f.header = body.Values[0]
		}
		io.WriteString(w, `{}`)
	case strings.Contains(path, "/values/"):
		if f.header == nil {
			io.WriteString(w, `{"range":"Results!A1:P1"}`)
			return
		}
		out, _ := json.Marshal(map[string]interface{}{"values": [][]interface{}{f.header}})
		w.Write(out)
	case strings.HasSuffix(path, "/v4/spreadsheets/sheet-1"):
		if f.hasSheet {
			io.WriteString(w, `{"spreadsheetId":"sheet-1","sheets":[{"properties":{"title":"Results"}}]}`)
			return
		}
		io.WriteString(w, `{"spreadsheetId":"sheet-1","sheets":[{"properties":{"title":"Sheet1"}}]}`)
	default:
		http.NotFound(w, r)
	}
}

func newTestExporter(t *testing.T, fake *fakeSheets) *Exporter {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	e, err := New(context.Background(),
		config.SheetsConfig{Enabled: true, SpreadsheetID: "sheet-1", SheetName: "Results"},
		logger.Nop(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
		option.WithoutAuthentication(),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return e
}

func TestExportCreatesSheetAndAppends(t *testing.T) {
	fake := &fakeSheets{}
	e := newTestExporter(t, fake)

	job := &models.Job{ID: "job-1", Query: "go tutorial", Analyzer: models.AnalyzerHeuristic}
	rows := []*models.JobResult{
		{JobID: "job-1", VideoID: "v1", VideoTitle: "Channels", Pros: "clear", Keywords: models.StringSlice{"go", "channels"}, CommentCount: 3},
		{JobID: "job-1", VideoID: "v2", VideoTitle: "Generics"},
	}

	if err := e.Export(context.Background(), job, rows); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if err := e.Export(context.Background(), job, rows[:1]); err != nil {
		t.Fatalf("second Export: %v", err)
	}

	if fake.addSheets != 1 {
		t.Errorf("sheet created %d times, want 1", fake.addSheets)
	}
	if len(fake.header) != len(Columns) || fake.header[0] != "Job ID" {
		t.Errorf("header = %v", fake.header)
	}
	if fake.appends != 2 || len(fake.appended) != 3 {
		t.Fatalf("appends = %d, rows = %d", fake.appends, len(fake.appended))
	}

	first := fake.appended[0]
	if len(first) != len(Columns) {
		t.Fatalf("row has %d cells, want %d", len(first), len(Columns))
	}
	if first[1] != "go tutorial" || first[3] != "v1" || first[10] != "go, channels" {
		t.Errorf("row = %v", first)
	}
	if first[15] != "2026-03-01T00:00:00Z" {
		t.Errorf("exported at = %v", first[15])
	}
}

func TestExportNoRows(t *testing.T) {
	fake := &fakeSheets{}
	e := newTestExporter(t, fake)
	if err := e.Export(context.Background(), &models.Job{ID: "j"}, nil); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if fake.appends != 0 || fake.addSheets != 0 {
		t.Error("no API calls expected for an empty export")
	}
}

func TestNewDisabled(t *testing.T) {
	e, err := New(context.Background(), config.SheetsConfig{}, logger.Nop())
	if err != nil || e != nil {
		t.Errorf("New(disabled) = %v, %v; want nil, nil", e, err)
	}

	_, err = New(context.Background(), config.SheetsConfig{Enabled: true, SpreadsheetID: "x"}, logger.Nop())
	if err == nil {
		t.Error("expected an error without credentials")
	}
}
