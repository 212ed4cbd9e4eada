package video

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
)

// PNGSequence writes frame_00000.png, frame_00001.png, ... into a directory.
type PNGSequence struct {
	Dir    string
	frames int
	enc    png.Encoder
}

func NewPNGSequence(dir string) (*PNGSequence, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &PNGSequence{Dir: dir, enc: png.Encoder{CompressionLevel: png.BestSpeed}}, nil
}

// FramePath is the file frame i is written to.
func (s *PNGSequence) FramePath(i int) string {
	return filepath.Join(s.Dir, fmt.Sprintf("frame_%05d.png", i))
}

func (s *PNGSequence) WriteFrame(img *image.RGBA) error {
	f, err := os.Create(s.FramePath(s.frames))
	if err != nil {
		return err
	}
	if err := s.enc.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode frame %d: %w", s.frames, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	s.frames++
	return nil
}

func (s *PNGSequence) Close() error { return nil }

func (s *PNGSequence) Frames() int { return s.frames }
