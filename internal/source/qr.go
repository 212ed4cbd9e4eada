package source

import (
	"fmt"
	"image"

	"github.com/skip2/go-qrcode"
)

// DefaultQRSize is the side in pixels of generated QR codes.
const DefaultQRSize = 256

// QRSource is a single generated page holding a QR code.
type QRSource struct {
	content string
	size    int
}

func NewQRSource(content string, size int) (*QRSource, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: empty qr content", ErrUnsupported)
	}
	if size <= 0 {
		size = DefaultQRSize
	}
	return &QRSource{content: content, size: size}, nil
}

func (q *QRSource) PageCount() int { return 1 }

func (q *QRSource) GetPageDimensions(index int) (float64, float64, error) {
	return float64(q.size), float64(q.size), nil
}

func (q *QRSource) RenderPage(index int, dpi int) (image.Image, error) {
	code, err := qrcode.New(q.content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}
	return code.Image(q.size), nil
}

func (q *QRSource) Close() error { return nil }
