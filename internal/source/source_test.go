package source

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 0, 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		ref     string
		path    string
		page    int
		wantErr bool
	}{
		{"logo.png", "logo.png", 0, false},
		{"deck.pdf#3", "deck.pdf", 2, false},
		{"dir/deck.pdf#1", "dir/deck.pdf", 0, false},
		{"deck.pdf#0", "", 0, true},
		{"deck.pdf#x", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			path, page, err := ParseRef(tt.ref)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRef(%q) error = %v, wantErr %v", tt.ref, err, tt.wantErr)
			}
			if !tt.wantErr && (path != tt.path || page != tt.page) {
				t.Errorf("ParseRef(%q) = %q, %d; want %q, %d", tt.ref, path, page, tt.path, tt.page)
			}
		})
	}
}

func TestLoadImageFile(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 40, 30)

	l := NewLoader(dir)
	img, err := l.Load("a.png")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 30 {
		t.Errorf("Bounds = %v, want 40x30", b)
	}

	again, err := l.Load("a.png")
	if err != nil {
		t.Fatal(err)
	}
	if again != img {
		t.Error("Unchanged file should come from the cache")
	}
}

func TestLoadQR(t *testing.T) {
	img, err := NewLoader("").Load("qr:https://example.com")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != DefaultQRSize || b.Dy() != DefaultQRSize {
		t.Errorf("Bounds = %v", img.Bounds())
	}

	dark := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r < 0x8000 {
				dark++
			}
		}
	}
	if dark == 0 {
		t.Error("QR code has no dark modules")
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0644)
	os.WriteFile(filepath.Join(dir, "broken.png"), []byte("not a png"), 0644)

	l := NewLoader(dir)
	if _, err := l.Load("notes.txt"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported, got %v", err)
	}
	if _, err := l.Load("missing.png"); err == nil {
		t.Error("Expected an error for a missing file")
	}
	if _, err := l.Load("broken.png"); err == nil {
		t.Error("Expected a decode error")
	}
	if _, err := l.Load("qr:"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported for empty qr, got %v", err)
	}
}

func TestImageSourceDirectory(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), 10, 10)
	writePNG(t, filepath.Join(dir, "a.png"), 20, 10)
	os.WriteFile(filepath.Join(dir, "skip.txt"), []byte("x"), 0644)

	s, err := NewImageSource(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if s.PageCount() != 2 {
		t.Fatalf("PageCount = %d, want 2", s.PageCount())
	}
	w, h, err := s.GetPageDimensions(0)
	if err != nil || w != 20 || h != 10 {
		t.Errorf("First page (sorted a.png) = %vx%v, %v", w, h, err)
	}
	if _, err := s.RenderPage(5, 0); err == nil {
		t.Error("Expected an out of range error")
	}
}
