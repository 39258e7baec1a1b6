package pypi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/wheelpeek/pkg/cache"
	"github.com/matzehuels/wheelpeek/pkg/errors"
	"github.com/matzehuels/wheelpeek/pkg/python"
)

const fooListing = `{
  "meta": {"api-version": "1.1"},
  "name": "foo",
  "files": [
    {"filename": "foo-1.0.0-py3-none-any.whl", "url": "../../packages/foo-1.0.0-py3-none-any.whl",
     "hashes": {"sha256": "aaa"}, "requires-python": ">=3.8"},
    {"filename": "foo-1.0.0.tar.gz", "url": "https://files.example/foo-1.0.0.tar.gz", "hashes": {}},
    {"filename": "foo-1.2.0-py3-none-any.whl", "url": "https://files.example/foo-1.2.0-py3-none-any.whl",
     "hashes": {"sha256": "bbb"}, "requires-python": null, "core-metadata": {"sha256": "ccc"}},
    {"filename": "foo-2.0.0-py3-none-any.whl", "url": "https://files.example/foo-2.0.0-py3-none-any.whl",
     "hashes": {}, "yanked": "broken build"}
  ]
}`

func testClient(t *testing.T, serverURL string, c cache.Cache) *Client {
	t.Helper()
	return NewClient(Options{
		IndexURL:   serverURL,
		Cache:      c,
		TTL:        time.Hour,
		Attempts:   2,
		RetryDelay: time.Millisecond,
	})
}

func indexServer(t *testing.T, listings map[string]string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		if got := r.Header.Get("Accept"); got != ContentType {
			t.Errorf("Accept = %q, want %q", got, ContentType)
		}
		body, ok := listings[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", ContentType)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_FetchProject(t *testing.T) {
	srv := indexServer(t, map[string]string{"/simple/foo/": fooListing}, nil)
	c := testClient(t, srv.URL+"/simple/", nil)

	project, err := c.FetchProject(context.Background(), "foo", false)
	if err != nil {
		t.Fatalf("FetchProject() error: %v", err)
	}
	if project.Name != "foo" || project.Meta.APIVersion != "1.1" {
		t.Errorf("project = %s (api %s)", project.Name, project.Meta.APIVersion)
	}
	if len(project.Files) != 4 {
		t.Fatalf("got %d files, want 4", len(project.Files))
	}

	first := project.Files[0]
	if want := srv.URL + "/packages/foo-1.0.0-py3-none-any.whl"; first.URL != want {
		t.Errorf("relative URL resolved to %q, want %q", first.URL, want)
	}
	if first.RequiresPython == nil || *first.RequiresPython != ">=3.8" {
		t.Errorf("requires-python = %v", first.RequiresPython)
	}
	if first.CoreMetadata.Present || first.Yanked.Yanked {
		t.Error("absent optional fields should take their defaults")
	}

	third := project.Files[2]
	if third.RequiresPython != nil {
		t.Error("null requires-python should stay nil")
	}
	if !third.CoreMetadata.Present || third.CoreMetadata.Hashes["sha256"] != "ccc" {
		t.Errorf("core-metadata = %+v", third.CoreMetadata)
	}

	last := project.Files[3]
	if !last.Yanked.Yanked || last.Yanked.Reason != "broken build" {
		t.Errorf("yanked = %+v", last.Yanked)
	}
}

func TestClient_FetchProject_Errors(t *testing.T) {
	srv := indexServer(t, map[string]string{
		"/simple/nofiles/": `{"meta": {"api-version": "1.0"}, "name": "nofiles"}`,
		"/simple/notjson/": `<html>oops</html>`,
		"/simple/badyank/": `{"name": "badyank", "files": [{"filename": "x", "url": "x", "yanked": 3}]}`,
	}, nil)
	c := testClient(t, srv.URL+"/simple", nil)

	tests := []struct {
		name string
		want errors.Code
	}{
		{"nofiles", errors.ErrCodeIndexMalformed},
		{"notjson", errors.ErrCodeIndexMalformed},
		{"badyank", errors.ErrCodeIndexMalformed},
		{"missing", errors.ErrCodeIndexHTTPError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.FetchProject(context.Background(), python.Name(tt.name), false)
			if !errors.Is(err, tt.want) {
				t.Errorf("FetchProject(%s) = %v, want %s", tt.name, err, tt.want)
			}
		})
	}
}

func TestClient_FetchProject_Cached(t *testing.T) {
	var hits atomic.Int32
	srv := indexServer(t, map[string]string{"/simple/foo/": fooListing}, &hits)
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := testClient(t, srv.URL+"/simple", fc)

	for range 2 {
		project, err := c.FetchProject(context.Background(), "foo", false)
		if err != nil {
			t.Fatal(err)
		}
		if len(project.Files) != 4 {
			t.Errorf("cached listing has %d files, want 4", len(project.Files))
		}
	}
	if hits.Load() != 1 {
		t.Errorf("index hit %d times, want 1", hits.Load())
	}

	if _, err := c.FetchProject(context.Background(), "foo", true); err != nil {
		t.Fatal(err)
	}
	if hits.Load() != 2 {
		t.Errorf("refresh should bypass the cache, index hit %d times", hits.Load())
	}
}

func TestClient_FetchProject_MalformedNotCached(t *testing.T) {
	var hits atomic.Int32
	srv := indexServer(t, map[string]string{"/simple/bad/": `{"name": "bad"}`}, &hits)
	fc, _ := cache.NewFileCache(t.TempDir())
	c := testClient(t, srv.URL+"/simple", fc)

	c.FetchProject(context.Background(), "bad", false)
	c.FetchProject(context.Background(), "bad", false)
	if hits.Load() != 2 {
		t.Errorf("malformed listings must not be cached, index hit %d times", hits.Load())
	}
}

func TestClient_FetchProject_Concurrent(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		w.Write([]byte(fooListing))
	}))
	defer srv.Close()
	c := testClient(t, srv.URL, nil)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.FetchProject(context.Background(), "foo", false); err != nil {
				t.Error(err)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if hits.Load() != 1 {
		t.Errorf("concurrent fetches issued %d requests, want 1", hits.Load())
	}
}

func TestClient_FetchProject_CancelledCallerDoesNotAffectOthers(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started <- struct{}{}
		<-release
		w.Write([]byte(fooListing))
	}))
	defer srv.Close()
	defer close(release)
	c := testClient(t, srv.URL, nil)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := c.FetchProject(ctxA, "foo", false)
		errA <- err
	}()
	<-started

	type result struct {
		project *Project
		err     error
	}
	resB := make(chan result, 1)
	go func() {
		p, err := c.FetchProject(context.Background(), "foo", false)
		resB <- result{p, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	select {
	case err := <-errA:
		if err != context.Canceled {
			t.Errorf("cancelled caller error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled caller kept waiting for the shared fetch")
	}

	release <- struct{}{}
	select {
	case r := <-resB:
		if r.err != nil {
			t.Fatalf("other caller error = %v", r.err)
		}
		if r.project.Name != "foo" || len(r.project.Files) != 4 {
			t.Errorf("other caller got %+v", r.project)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("other caller never returned")
	}
}

func TestClient_ProjectURL(t *testing.T) {
	c := NewClient(Options{IndexURL: "https://example.com/simple/"})
	if got := c.ProjectURL("foo-bar"); got != "https://example.com/simple/foo-bar/" {
		t.Errorf("ProjectURL() = %q", got)
	}
	if NewClient(Options{}).IndexURL() != DefaultIndexURL {
		t.Error("empty IndexURL should default to PyPI")
	}
}

func TestYanking_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in   string
		want Yanking
		err  bool
	}{
		{`true`, Yanking{Yanked: true}, false},
		{`false`, Yanking{}, false},
		{`null`, Yanking{}, false},
		{`"security issue"`, Yanking{Yanked: true, Reason: "security issue"}, false},
		{`""`, Yanking{Yanked: true}, false},
		{`1`, Yanking{}, true},
		{`{}`, Yanking{}, true},
	}
	for _, tt := range tests {
		var y Yanking
		err := json.Unmarshal([]byte(tt.in), &y)
		if (err != nil) != tt.err {
			t.Errorf("Unmarshal(%s) error = %v, wantErr %v", tt.in, err, tt.err)
			continue
		}
		if !tt.err && y != tt.want {
			t.Errorf("Unmarshal(%s) = %+v, want %+v", tt.in, y, tt.want)
		}
	}
}

func TestCoreMetadata_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in      string
		present bool
		hashes  int
		err     bool
	}{
		{`false`, false, 0, false},
		{`null`, false, 0, false},
		{`true`, true, 0, false},
		{`{"sha256": "abc", "md5": "def"}`, true, 2, false},
		{`{"sha256": 1}`, false, 0, true},
		{`"yes"`, false, 0, true},
	}
	for _, tt := range tests {
		var m CoreMetadata
		err := json.Unmarshal([]byte(tt.in), &m)
		if (err != nil) != tt.err {
			t.Errorf("Unmarshal(%s) error = %v, wantErr %v", tt.in, err, tt.err)
			continue
		}
		if tt.err {
			continue
		}
		if m.Present != tt.present || len(m.Hashes) != tt.hashes {
			t.Errorf("Unmarshal(%s) = %+v", tt.in, m)
		}
	}
}

func TestFile_LegacyDistInfoMetadata(t *testing.T) {
	tests := []struct {
		in      string
		present bool
	}{
		{`{"filename": "a", "dist-info-metadata": true}`, true},
		{`{"filename": "a", "core-metadata": false, "dist-info-metadata": true}`, false},
		{`{"filename": "a", "core-metadata": {"sha256": "x"}}`, true},
		{`{"filename": "a"}`, false},
	}
	for _, tt := range tests {
		var f File
		if err := json.Unmarshal([]byte(tt.in), &f); err != nil {
			t.Fatalf("Unmarshal(%s) error: %v", tt.in, err)
		}
		if f.Filename != "a" {
			t.Errorf("Unmarshal(%s) lost the filename", tt.in)
		}
		if f.CoreMetadata.Present != tt.present {
			t.Errorf("Unmarshal(%s) present = %v, want %v", tt.in, f.CoreMetadata.Present, tt.present)
		}
	}
}
