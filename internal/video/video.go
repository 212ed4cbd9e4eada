// Package video writes rendered frames out, either piped into ffmpeg or as
// a numbered PNG sequence.
package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"
)

// FrameSink receives frames in presentation order.
type FrameSink interface {
	WriteFrame(img *image.RGBA) error
	Close() error
}

// EncoderParams describes the output stream.
type EncoderParams struct {
	Width, Height int
	FPS           int
	Encoder       string // h264_videotoolbox, h264_nvenc or libx264
	Quality       int
}

// FFmpegEncoder streams raw RGBA frames into one ffmpeg process.
type FFmpegEncoder struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	log    bytes.Buffer
	params EncoderParams
	frames int
}

func NewFFmpegEncoder(ctx context.Context, videoPath string, params EncoderParams) (*FFmpegEncoder, error) {
	if params.Encoder == "" {
		params.Encoder = "libx264"
	}
	e := &FFmpegEncoder{params: params}
	e.cmd = exec.CommandContext(ctx, "ffmpeg", e.buildFFmpegArgs(videoPath)...)
	e.cmd.Stdout = &e.log
	e.cmd.Stderr = &e.log

	stdin, err := e.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe error: %w", err)
	}
	e.stdin = stdin

	if err := e.cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}
	return e, nil
}

func (e *FFmpegEncoder) buildFFmpegArgs(videoPath string) []string {
	p := e.params
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", p.Width, p.Height),
		"-framerate", fmt.Sprintf("%d", p.FPS),
		"-i", "-",
		"-pix_fmt", "yuv420p",
		"-c:v", p.Encoder,
	}

	// Качество в зависимости от энкодера
	switch p.Encoder {
	case "h264_videotoolbox":
		bitrate := p.Quality * 100
		args = append(args, "-b:v", fmt.Sprintf("%dk", bitrate))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", p.Quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", p.Quality), "-preset", "medium")
	}

	args = append(args, videoPath)
	return args
}

func (e *FFmpegEncoder) WriteFrame(img *image.RGBA) error {
	if b := img.Bounds(); b.Dx() != e.params.Width || b.Dy() != e.params.Height {
		return fmt.Errorf("frame %d is %dx%d, stream is %dx%d", e.frames, b.Dx(), b.Dy(), e.params.Width, e.params.Height)
	}
	if err := writeRawRGBA(e.stdin, img); err != nil {
		return fmt.Errorf("write raw error: %w", err)
	}
	e.frames++
	return nil
}

// Close finishes the stream and waits for ffmpeg.
func (e *FFmpegEncoder) Close() error {
	e.stdin.Close()
	if err := e.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w\nLog: %s", err, e.log.String())
	}
	return nil
}

// Frames is the number of frames written so far.
func (e *FFmpegEncoder) Frames() int { return e.frames }

func writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Rect, img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix)
	return err
}
