// Package rasterizer renders PDF pages into JPEG images on disk.
package rasterizer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

const (
	DefaultOutputDir = "pdf_images"
	DefaultDPI       = 300
	DefaultQuality   = 90
)

var (
	// ErrNoPages is returned for documents that open fine but have nothing to render.
	ErrNoPages = errors.New("pdf has no pages")
)

// Config controls where and how pages are rendered.
type Config struct {
	OutputDir string  `mapstructure:"output-dir"`
	DPI       float64 `mapstructure:"dpi"`
	Quality   int     `mapstructure:"jpeg-quality"`
}

// document is the subset of *fitz.Document used for rendering.
type document interface {
	NumPage() int
	ImageDPI(pageNumber int, dpi float64) (*image.RGBA, error)
	Close() error
}

type opener func(path string) (document, error)

func openFitz(path string) (document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Rasterizer converts every page of a PDF into page_{n}.jpg inside OutputDir.
type Rasterizer struct {
	cfg    Config
	open   opener
	logger *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Rasterizer {
	if strings.TrimSpace(cfg.OutputDir) == "" {
		cfg.OutputDir = DefaultOutputDir
	}
	if cfg.DPI <= 0 {
		cfg.DPI = DefaultDPI
	}
	if cfg.Quality < 1 || cfg.Quality > 100 {
		cfg.Quality = DefaultQuality
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Rasterizer{
		cfg:    cfg,
		open:   openFitz,
		logger: logger,
	}
}

// BatchDir is the directory pages of one batch are written to. An empty batch
// is the output directory itself.
func (r *Rasterizer) BatchDir(batch string) string {
	return filepath.Join(r.cfg.OutputDir, batch)
}

// PagePath returns the output path for the given 1-based page index.
func (r *Rasterizer) PagePath(batch string, page int) string {
	return filepath.Join(r.BatchDir(batch), fmt.Sprintf("page_%d.jpg", page))
}

// Rasterize renders pages in increasing order into BatchDir(batch). On
// failure it returns the pages written so far together with the error, so a
// nil error is the only signal of a complete document. Existing files with
// the same names are overwritten. Concurrent calls must use distinct batches.
func (r *Rasterizer) Rasterize(ctx context.Context, pdfPath, batch string) ([]string, error) {
	if strings.TrimSpace(pdfPath) == "" {
		return nil, errors.New("pdf path is required")
	}

	if batch != "" && (batch != filepath.Base(batch) || batch == "." || batch == "..") {
		return nil, fmt.Errorf("invalid batch name %q", batch)
	}

	dir := r.BatchDir(batch)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %q: %w", dir, err)
	}

	doc, err := r.open(pdfPath)
	if err != nil {
		r.logger.Error("opening pdf failed", zap.String("path", pdfPath), zap.Error(err))
		return nil, fmt.Errorf("open pdf %q: %w", pdfPath, err)
	}
	defer doc.Close()

	count := doc.NumPage()
	if count <= 0 {
		return nil, ErrNoPages
	}

	r.logger.Debug("rasterizing pdf",
		zap.String("path", pdfPath),
		zap.Int("pages", count),
		zap.String("output_dir", dir),
		zap.Float64("dpi", r.cfg.DPI),
	)

	paths := make([]string, 0, count)
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return paths, err
		}

		page := i + 1

		img, err := doc.ImageDPI(i, r.cfg.DPI)
		if err != nil {
			r.logger.Error("rendering page failed", zap.Int("page", page), zap.Error(err))
			return paths, fmt.Errorf("render page %d: %w", page, err)
		}

		out := r.PagePath(batch, page)
		if err := writeJPEG(out, img, r.cfg.Quality); err != nil {
			r.logger.Error("writing page image failed", zap.Int("page", page), zap.Error(err))
			return paths, fmt.Errorf("write page %d: %w", page, err)
		}

		r.logger.Debug("page rendered",
			zap.Int("page", page),
			zap.String("image", out),
			zap.Int("width", img.Bounds().Dx()),
			zap.Int("height", img.Bounds().Dy()),
		)

		paths = append(paths, out)
	}

	r.logger.Info("pdf rasterized", zap.String("path", pdfPath), zap.Int("pages", len(paths)))

	return paths, nil
}

// writeJPEG encodes into a temp file next to path and renames it into place,
// so readers never see a partially written image.
func writeJPEG(path string, img image.Image, quality int) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".page-*.jpg.tmp")
	if err != nil {
		return err
	}

	if err := jpeg.Encode(tmp, img, &jpeg.Options{Quality: quality}); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("encode jpeg: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return nil
}
