// Package recorder collects snapshots from an executor session and renders
// them as an animated GIF.
package recorder

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"
	"os"
	"sort"

	"github.com/nfnt/resize"
	"go.uber.org/zap"

	"github.com/v0xg/deskpilot/internal/executor"
)

// ErrNoFrames is returned when rendering a session with nothing recorded.
var ErrNoFrames = errors.New("no frames recorded")

// Options configures GIF generation
type Options struct {
	FPS      int
	MaxWidth uint
}

// DefaultOptions returns 2 frames per second at 800 pixels wide.
func DefaultOptions() Options {
	return Options{FPS: 2, MaxWidth: 800}
}

// Recorder accumulates snapshot frames in order.
type Recorder struct {
	opts   Options
	frames []image.Image
	logger *zap.Logger
}

func New(opts Options, logger *zap.Logger) *Recorder {
	if opts.FPS <= 0 {
		opts.FPS = DefaultOptions().FPS
	}
	if opts.MaxWidth == 0 {
		opts.MaxWidth = DefaultOptions().MaxWidth
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{opts: opts, logger: logger.Named("recorder")}
}

// Add decodes the snapshot's screenshot and appends it as the next frame.
func (r *Recorder) Add(s *executor.Snapshot) error {
	img, err := s.Image()
	if err != nil {
		return fmt.Errorf("recorder: %w", err)
	}
	r.frames = append(r.frames, img)
	return nil
}

// Len reports the number of recorded frames.
func (r *Recorder) Len() int { return len(r.frames) }

// Encode writes the recorded frames as a looping GIF.
func (r *Recorder) Encode(w io.Writer) error {
	if len(r.frames) == 0 {
		return ErrNoFrames
	}

	// Delay is in 100ths of a second
	delay := 100 / r.opts.FPS

	// Size every frame from the first one's aspect ratio
	bounds := r.frames[0].Bounds()
	outputWidth := r.opts.MaxWidth
	if int(outputWidth) > bounds.Dx() {
		outputWidth = uint(bounds.Dx())
	}
	outputHeight := uint(float64(outputWidth) * float64(bounds.Dy()) / float64(bounds.Dx()))

	g := &gif.GIF{
		Image:     make([]*image.Paletted, len(r.frames)),
		Delay:     make([]int, len(r.frames)),
		LoopCount: 0,
	}

	palette := generatePalette(r.frames[0])

	for i, frame := range r.frames {
		resized := resize.Resize(outputWidth, outputHeight, frame, resize.Lanczos3)

		paletted := image.NewPaletted(resized.Bounds(), palette)
		draw.FloydSteinberg.Draw(paletted, resized.Bounds(), resized, resized.Bounds().Min)

		g.Image[i] = paletted
		g.Delay[i] = delay
	}

	if err := gif.EncodeAll(w, g); err != nil {
		return fmt.Errorf("gif encode failed: %w", err)
	}
	return nil
}

// WriteFile renders the session to path and returns the file size.
func (r *Recorder) WriteFile(path string) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if err := r.Encode(f); err != nil {
		return 0, err
	}

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}

	r.logger.Info("session recorded",
		zap.String("path", path),
		zap.Int("frames", len(r.frames)),
		zap.Int64("bytes", info.Size()),
	)
	return info.Size(), nil
}

// generatePalette builds a 256-color palette from the most frequent colors of
// img, sampling every 4th pixel.
func generatePalette(img image.Image) color.Palette {
	bounds := img.Bounds()
	colorMap := make(map[color.RGBA]int)

	step := 4
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			r, g, b, a := img.At(x, y).RGBA()
			c := color.RGBA{
				R: uint8(r >> 8),
				G: uint8(g >> 8),
				B: uint8(b >> 8),
				A: uint8(a >> 8),
			}
			colorMap[c]++
		}
	}

	type colorCount struct {
		c     color.RGBA
		count int
	}
	colors := make([]colorCount, 0, len(colorMap))
	for c, count := range colorMap {
		colors = append(colors, colorCount{c, count})
	}
	sort.Slice(colors, func(i, j int) bool {
		if colors[i].count != colors[j].count {
			return colors[i].count > colors[j].count
		}
		a, b := colors[i].c, colors[j].c
		return uint32(a.R)<<16|uint32(a.G)<<8|uint32(a.B) < uint32(b.R)<<16|uint32(b.G)<<8|uint32(b.B)
	})

	palette := make(color.Palette, 0, 256)
	palette = append(palette, color.RGBA{0, 0, 0, 0})
	for i := 0; i < len(colors) && len(palette) < 256; i++ {
		palette = append(palette, colors[i].c)
	}

	// Pad with grayscale
	for len(palette) < 256 {
		gray := uint8(len(palette))
		palette = append(palette, color.RGBA{gray, gray, gray, 255})
	}

	return palette
}
