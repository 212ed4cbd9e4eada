package source

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const qrPrefix = "qr:"

// Loader resolves layer references relative to a project directory and
// caches decoded rasters until the file changes.
type Loader struct {
	BaseDir string
	DPI     int

	mu    sync.Mutex
	cache map[string]cached
}

type cached struct {
	mod time.Time
	img image.Image
}

func NewLoader(baseDir string) *Loader {
	return &Loader{BaseDir: baseDir, DPI: DefaultDPI, cache: map[string]cached{}}
}

// ParseRef splits "file.pdf#3" into the path and a zero-based page index.
// References without a page select the first page.
func ParseRef(ref string) (string, int, error) {
	i := strings.LastIndex(ref, "#")
	if i < 0 {
		return ref, 0, nil
	}
	page, err := strconv.Atoi(ref[i+1:])
	if err != nil || page < 1 {
		return "", 0, fmt.Errorf("invalid page in %q", ref)
	}
	return ref[:i], page - 1, nil
}

// Open returns the source for a reference and the page to render.
func (l *Loader) Open(ref string) (Source, int, error) {
	if content, ok := strings.CutPrefix(ref, qrPrefix); ok {
		s, err := NewQRSource(content, DefaultQRSize)
		return s, 0, err
	}

	path, page, err := ParseRef(ref)
	if err != nil {
		return nil, 0, err
	}
	path = l.resolve(path)

	switch ext := strings.ToLower(filepath.Ext(path)); {
	case ext == ".pdf":
		s, err := NewFitzPDFSource(path)
		return s, page, err
	case IsImageFile(path):
		s, err := NewImageSource(path)
		return s, page, err
	default:
		return nil, 0, fmt.Errorf("%w: %q", ErrUnsupported, ref)
	}
}

// Load decodes the raster a layer reference points at.
func (l *Loader) Load(ref string) (image.Image, error) {
	var mod time.Time
	if !strings.HasPrefix(ref, qrPrefix) {
		path, _, err := ParseRef(ref)
		if err != nil {
			return nil, err
		}
		fi, err := os.Stat(l.resolve(path))
		if err != nil {
			return nil, err
		}
		mod = fi.ModTime()
	}

	l.mu.Lock()
	c, ok := l.cache[ref]
	l.mu.Unlock()
	if ok && c.mod.Equal(mod) {
		return c.img, nil
	}

	src, page, err := l.Open(ref)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	img, err := src.RenderPage(page, l.DPI)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", ref, err)
	}

	l.mu.Lock()
	l.cache[ref] = cached{mod: mod, img: img}
	l.mu.Unlock()
	return img, nil
}

func (l *Loader) resolve(path string) string {
	if filepath.IsAbs(path) || l.BaseDir == "" {
		return path
	}
	return filepath.Join(l.BaseDir, path)
}
