package scene

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/ivlev/sketch2video/internal/source"
)

// fitShare is how much of the canvas a quick-project layer may cover.
const fitShare = 0.9

// FromSource builds a project with one frame per page of a PDF, per image in
// a directory, or a single frame for one image. Layers are fitted and
// centred; frames after the first enter with a pan.
func FromSource(ref string, loader *source.Loader, width, height int) (*Project, error) {
	p := New()
	if width > 0 {
		p.Width = width
	}
	if height > 0 {
		p.Height = height
	}

	// saved quick projects live elsewhere, so sources are kept absolute
	if abs, err := filepath.Abs(ref); err == nil {
		ref = abs
	}
	refs, err := pageRefs(ref)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("источник %s не содержит страниц/кадров", ref)
	}

	for i, r := range refs {
		src, page, err := loader.Open(r)
		if err != nil {
			return nil, err
		}
		w, h, err := src.GetPageDimensions(page)
		src.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r, err)
		}

		f := Frame{ID: i + 1, Duration: 4, Layers: []Layer{p.fit(fmt.Sprintf("page-%d", i+1), r, w, h)}}
		if i > 0 {
			f.Transition = Transition{Type: "pan", Direction: "right", Duration: 1}
		}
		p.Frames = append(p.Frames, f)
	}
	return p, nil
}

func pageRefs(ref string) ([]string, error) {
	fi, err := os.Stat(ref)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		s, err := source.NewImageSource(ref)
		if err != nil {
			return nil, err
		}
		return s.Paths(), nil
	}
	if strings.EqualFold(filepath.Ext(ref), ".pdf") {
		s, err := source.NewFitzPDFSource(ref)
		if err != nil {
			return nil, err
		}
		defer s.Close()
		refs := make([]string, s.PageCount())
		for i := range refs {
			refs[i] = fmt.Sprintf("%s#%d", ref, i+1)
		}
		return refs, nil
	}
	return []string{ref}, nil
}

// fit scales a w x h source to fit the canvas and centres it.
func (p *Project) fit(id, ref string, w, h float64) Layer {
	if w <= 0 || h <= 0 {
		w, h = float64(p.Width), float64(p.Height)
	}
	scale := math.Min(float64(p.Width)*fitShare/w, float64(p.Height)*fitShare/h)
	lw, lh := math.Round(w*scale), math.Round(h*scale)
	return Layer{
		ID:     id,
		Source: ref,
		X:      math.Round((float64(p.Width) - lw) / 2),
		Y:      math.Round((float64(p.Height) - lh) / 2),
		Width:  lw,
		Height: lh,
	}
}
