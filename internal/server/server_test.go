package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/blik/pkg/cache"
	"github.com/matzehuels/blik/pkg/observability"
	"github.com/matzehuels/blik/pkg/pipeline"
)

const particlesSTAR = `
data_particles

loop_
_rlnCoordinateX #1
_rlnCoordinateY #2
_rlnCoordinateZ #3
_rlnMicrographName #4
1 2 3 TS_01
4 5 6 TS_01
7 8 9 TS_02
`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	path := filepath.Join(t.TempDir(), "picks.star")
	if err := os.WriteFile(path, []byte(particlesSTAR), 0o644); err != nil {
		t.Fatal(err)
	}
	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
	s := New(runner, pipeline.Options{Paths: []string{path}}, nil)
	if _, err := s.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return resp.StatusCode
}

func TestVolumes(t *testing.T) {
	ts := newTestServer(t)
	var got struct {
		Volumes []volumeSummary `json:"volumes"`
		Omni    int             `json:"omni"`
	}
	if code := getJSON(t, ts.URL+"/volumes", &got); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	want := []volumeSummary{{Key: "TS_01", Blocks: 1}, {Key: "TS_02", Blocks: 1}}
	if diff := cmp.Diff(want, got.Volumes); diff != "" {
		t.Errorf("volumes mismatch (-want +got):\n%s", diff)
	}
}

func TestLayers(t *testing.T) {
	ts := newTestServer(t)

	type doc struct {
		Volume string `json:"volume"`
		Layers []struct {
			Volume string `json:"volume"`
		} `json:"layers"`
	}
	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantLayers int
	}{
		{"all", "/layers", http.StatusOK, 4},
		{"one volume", "/volumes/TS_01/layers", http.StatusOK, 2},
		{"unknown volume", "/volumes/TS_99/layers", http.StatusNotFound, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got doc
			if code := getJSON(t, ts.URL+tt.path, &got); code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", code, tt.wantStatus)
			}
			if len(got.Layers) != tt.wantLayers {
				t.Errorf("layers = %d, want %d", len(got.Layers), tt.wantLayers)
			}
		})
	}
}

func TestDataSet(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/dataset?mode=base")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	var body map[string]string
	if code := getJSON(t, ts.URL+"/dataset?mode=bogus", &body); code != http.StatusBadRequest {
		t.Errorf("bad mode status = %d", code)
	}
	if body["code"] != "INVALID_INPUT" {
		t.Errorf("code = %q", body["code"])
	}
}

func TestReload(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/reload", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var got map[string]int
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got["blocks"] != 2 || got["layers"] != 4 {
		t.Errorf("reload = %v", got)
	}
}

func TestNotLoaded(t *testing.T) {
	s := New(pipeline.NewRunner(nil, nil, nil), pipeline.Options{}, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/volumes", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

type recordingHooks struct {
	observability.NoopServerHooks
	statuses []int
}

func (h *recordingHooks) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	h.statuses = append(h.statuses, status)
}

func TestServerHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetServerHooks(hooks)
	defer observability.Reset()

	s := New(pipeline.NewRunner(nil, nil, nil), pipeline.Options{}, nil)
	h := s.Router()
	for _, path := range []string{"/version", "/layers"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	if diff := cmp.Diff([]int{http.StatusOK, http.StatusNotFound}, hooks.statuses); diff != "" {
		t.Errorf("statuses mismatch (-want +got):\n%s", diff)
	}
}
