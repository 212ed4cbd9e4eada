package preview

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ivlev/sketch2video/internal/scene"
)

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	img := image.NewRGBA(image.Rect(0, 0, 60, 60))
	draw.Draw(img, image.Rect(20, 20, 40, 40), image.NewUniform(color.Black), image.Point{}, draw.Src)
	f, err := os.Create(filepath.Join(dir, "square.png"))
	if err != nil {
		t.Fatal(err)
	}
	png.Encode(f, img)
	f.Close()

	sc := scene.New()
	sc.Width, sc.Height = 120, 120
	sc.Settings.ShowHand = false
	sc.Frames = []scene.Frame{{ID: 1, Duration: 1, Layers: []scene.Layer{{ID: "square", Source: "square.png", X: 30, Y: 30}}}}

	path := filepath.Join(dir, "project.yaml")
	if err := scene.WriteProject(sc, path); err != nil {
		t.Fatal(err)
	}
	return path
}

func getStatus(t *testing.T, h http.Handler) Status {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /status = %d", rec.Code)
	}
	var st Status
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	return st
}

func getFrame(t *testing.T, h http.Handler, query string) *image.RGBA {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/frame.png"+query, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /frame.png%s = %d", query, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, image.Point{}, draw.Src)
	return rgba
}

func TestServerRendersFrames(t *testing.T) {
	s, err := New(writeProject(t), 5*time.Millisecond)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Wait(ctx); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	h := s.Handler()
	st := getStatus(t, h)
	if st.Processing || st.Frames != 1 || st.Items != 1 {
		t.Errorf("Unexpected status %+v", st)
	}

	start := getFrame(t, h, "?t=0")
	if start.Bounds().Dx() != 120 || start.Bounds().Dy() != 120 {
		t.Fatalf("Frame bounds %v", start.Bounds())
	}
	paper := s.scene.Settings.Paper()
	if start.RGBAAt(60, 60) != paper {
		t.Errorf("t=0 should be blank paper, got %v", start.RGBAAt(60, 60))
	}

	end := getFrame(t, h, "?t=100")
	if c := end.RGBAAt(60, 60); c.R > 40 {
		t.Errorf("Finished frame should show the black square, got %v", c)
	}
}

func TestServerPlaceholderWhileProcessing(t *testing.T) {
	s, err := New(writeProject(t), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	h := s.Handler()
	if st := getStatus(t, h); !st.Processing {
		t.Fatal("Expected processing to be pending")
	}

	img := getFrame(t, h, "")
	if img.RGBAAt(2, 60) == s.scene.Settings.Paper() {
		t.Error("Expected the processing placeholder band")
	}
}

func TestServerReloadAndPlayback(t *testing.T) {
	path := writeProject(t)
	s, err := New(path, 5*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	h := s.Handler()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.Wait(ctx)
	before := getStatus(t, h).Generation

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reload", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("POST /reload = %d", rec.Code)
	}
	if err := s.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	if after := getStatus(t, h).Generation; after <= before {
		t.Errorf("Generation did not advance: %d -> %d", before, after)
	}

	// Playback advances with the injected clock
	clock := time.Unix(0, 0)
	s.now = func() time.Time { return clock }
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/play", nil))
	getFrame(t, h, "")
	clock = clock.Add(500 * time.Millisecond)
	getFrame(t, h, "")
	if st := getStatus(t, h); !st.Playing || st.Time < 0.49 || st.Time > 0.51 {
		t.Errorf("Expected playhead at 0.5s, got %+v", st)
	}
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/pause", nil))
	if getStatus(t, h).Playing {
		t.Error("Pause did not stop playback")
	}
}

func TestServerErrors(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing.yaml"), 0); err == nil {
		t.Error("Expected an error for a missing project")
	}

	path := writeProject(t)
	s, err := New(path, 5*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/frame.png?t=abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Bad t: got %d", rec.Code)
	}

	os.WriteFile(path, []byte("frames: [unclosed"), 0644)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reload", nil))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Broken project reload: got %d", rec.Code)
	}
}

func TestServerForcedReloadReprocesses(t *testing.T) {
	s, err := New(writeProject(t), 5*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	h := s.Handler()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	reload := func(query string) {
		t.Helper()
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reload"+query, nil))
		if rec.Code != http.StatusAccepted {
			t.Fatalf("POST /reload%s = %d", query, rec.Code)
		}
		if err := s.Wait(ctx); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	cache := s.caches[0]
	if cache.Misses() != 1 {
		t.Fatalf("Initial processing: %d misses", cache.Misses())
	}

	reload("")
	if cache.Misses() != 1 {
		t.Errorf("Unchanged project should come from the cache, got %d misses", cache.Misses())
	}

	reload("?force=1")
	if cache.Misses() != 2 {
		t.Errorf("Forced reload should reprocess, got %d misses", cache.Misses())
	}
}

func TestServerReturnsFrameBuffers(t *testing.T) {
	s, err := New(writeProject(t), 5*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	h := s.Handler()

	getFrame(t, h, "?t=0.5")
	getFrame(t, h, "")
	if n := s.pool.InUse(); n != 0 {
		t.Errorf("%d frame buffers still in use after the responses", n)
	}
}
