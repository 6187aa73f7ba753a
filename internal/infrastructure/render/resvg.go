package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"TrendingPress/internal/ports"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

// ResvgRasterizer converts SVG to PNG by piping it through the resvg CLI.
// The background stays transparent.
type ResvgRasterizer struct {
	binary string
	fonts  *FontLoader

	mu       sync.Mutex
	fontFile string
}

var _ ports.Rasterizer = (*ResvgRasterizer)(nil)

// NewResvgRasterizer uses binary (default "resvg") and hands it the card font.
func NewResvgRasterizer(binary string, fonts *FontLoader) *ResvgRasterizer {
	if binary == "" {
		binary = "resvg"
	}
	return &ResvgRasterizer{binary: binary, fonts: fonts}
}

// Rasterize renders svg at the given width; height follows the aspect ratio.
func (r *ResvgRasterizer) Rasterize(ctx context.Context, svg string, width int) ([]byte, error) {
	if width <= 0 {
		width = CardWidth
	}

	args := []string{"-w", strconv.Itoa(width)}
	if r.fonts != nil {
		fontFile, err := r.ensureFontFile(ctx)
		if err != nil {
			return nil, err
		}
		args = append(args, "--use-font-file", fontFile)
	}
	args = append(args, "-", "-c")

	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Stdin = strings.NewReader(svg)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("rasterize: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	out := stdout.Bytes()
	if !bytes.HasPrefix(out, pngMagic) {
		return nil, fmt.Errorf("rasterize: output is not a PNG (%d bytes)", len(out))
	}
	return out, nil
}

// Close removes the temporary font file.
func (r *ResvgRasterizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fontFile == "" {
		return nil
	}
	err := os.Remove(r.fontFile)
	r.fontFile = ""
	return err
}

func (r *ResvgRasterizer) ensureFontFile(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fontFile != "" {
		return r.fontFile, nil
	}

	font, err := r.fonts.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("rasterize: %w", err)
	}

	f, err := os.CreateTemp("", "trendingpress-font-*.ttf")
	if err != nil {
		return "", fmt.Errorf("rasterize: create font file: %w", err)
	}
	if _, err := f.Write(font.Data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("rasterize: write font file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("rasterize: close font file: %w", err)
	}

	r.fontFile = f.Name()
	return r.fontFile, nil
}
