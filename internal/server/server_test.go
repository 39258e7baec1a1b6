package server

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/wheelpeek/pkg/errors"
	"github.com/matzehuels/wheelpeek/pkg/pipeline"
)

func wheelBytes(t *testing.T, marker string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, err := w.Create("demo-1.0.dist-info/top_level.txt")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(marker))
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// newIndex serves a one-project simple index with a range-capable file host.
func newIndex(t *testing.T) *httptest.Server {
	t.Helper()
	wheel := wheelBytes(t, "demo\n_demo_native\n")

	r := chi.NewRouter()
	r.Get("/simple/demo/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"meta": {"api-version": "1.0"}, "name": "demo", "files": [
			{"filename": "demo-1.0-py3-none-any.whl", "url": "/files/demo-1.0-py3-none-any.whl", "hashes": {}}]}`)
	})
	serve := func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(wheel))
	}
	r.Get("/files/demo-1.0-py3-none-any.whl", serve)
	r.Head("/files/demo-1.0-py3-none-any.whl", serve)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	index := newIndex(t)
	runner, err := pipeline.NewRunner(pipeline.Options{
		IndexURL:   index.URL + "/simple",
		HTTP:       index.Client(),
		RetryDelay: time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { runner.Close() })

	srv := httptest.NewServer(New(runner, nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/v1/extract", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	return resp, buf.Bytes()
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestExtract(t *testing.T) {
	srv := newTestServer(t)

	resp, body := post(t, srv, `{"refs": ["Demo==1.0"]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var got map[string][]string
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	want := map[string][]string{"demo": {"demo", "_demo_native"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("body = %v, want %v", got, want)
	}
}

func TestExtract_Detailed(t *testing.T) {
	srv := newTestServer(t)

	resp, body := post(t, srv, `{"refs": ["demo"], "detailed": true}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	var got pipeline.Result
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Extractions) != 1 || got.Extractions[0].Ref != "demo" ||
		!strings.HasSuffix(got.Extractions[0].Source, "/files/demo-1.0-py3-none-any.whl") {
		t.Errorf("result = %+v", got)
	}
}

func TestExtract_Errors(t *testing.T) {
	srv := newTestServer(t)
	tooMany := `{"refs": [` + strings.Repeat(`"a",`, MaxRefs) + `"a"]}`

	tests := []struct {
		name   string
		body   string
		status int
		code   errors.Code
	}{
		{"not json", `refs=demo`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown field", `{"refs": ["demo"], "marker": "x"}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"no refs", `{"refs": []}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"too many", tooMany, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"local path", `{"refs": ["/etc/demo-1.0-py3-none-any.whl"]}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad constraint", `{"refs": ["demo>=not-a-version"]}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"no match", `{"refs": ["demo>2"]}`, http.StatusNotFound, errors.ErrCodeNoMatchingArchive},
		{"unknown project", `{"refs": ["demo", "missing"]}`, http.StatusBadGateway, errors.ErrCodeIndexHTTPError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := post(t, srv, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d (%s)", resp.StatusCode, tt.status, body)
			}
			var e ErrorResponse
			if err := json.Unmarshal(body, &e); err != nil {
				t.Fatalf("error body %s: %v", body, err)
			}
			if e.Code != string(tt.code) {
				t.Errorf("code = %s, want %s", e.Code, tt.code)
			}
			if e.Error == "" || e.RequestID == "" {
				t.Errorf("incomplete error body: %+v", e)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if _, err := uuid.Parse(resp.Header.Get(RequestIDHeader)); err != nil {
		t.Errorf("generated request ID %q is not a UUID", resp.Header.Get(RequestIDHeader))
	}

	id := uuid.NewString()
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	req.Header.Set(RequestIDHeader, id)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != id {
		t.Errorf("request ID = %q, want %q echoed", got, id)
	}

	req.Header.Set(RequestIDHeader, "<script>")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got == "<script>" {
		t.Error("malformed request IDs must be replaced")
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code errors.Code
		want int
	}{
		{errors.ErrCodeInvalidIdentifier, http.StatusBadRequest},
		{errors.ErrCodeInvalidVersionConstraint, http.StatusBadRequest},
		{errors.ErrCodeNoMatchingArchive, http.StatusNotFound},
		{errors.ErrCodeIndexUnavailable, http.StatusBadGateway},
		{errors.ErrCodeRangeUnsupported, http.StatusBadGateway},
		{errors.ErrCodeCorruptDirectory, http.StatusBadGateway},
		{errors.ErrCodeInternal, http.StatusInternalServerError},
		{errors.ErrCodeLocalFileUnavailable, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.code); got != tt.want {
			t.Errorf("StatusFor(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
