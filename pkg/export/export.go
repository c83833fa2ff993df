package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	xdraw "golang.org/x/image/draw"
	"gonum.org/v1/plot/vg"

	"github.com/oxygene76/exosky/internal/types"
	"github.com/oxygene76/exosky/pkg/render"
	"github.com/oxygene76/exosky/pkg/utils"
)

// Result describes a completed export
type Result struct {
	Path     string        `json:"path"`
	Bytes    int           `json:"bytes"`
	Width    int           `json:"width"`
	Height   int           `json:"height"`
	Duration time.Duration `json:"duration"`

	// Data is the PNG exactly as read back from disk
	Data []byte `json:"-"`
	// Preview is the image downscaled to the preview width
	Preview image.Image `json:"-"`
}

// Exporter writes the static sky image to a fixed file name. Exports are
// serialized because every export targets the same path.
type Exporter struct {
	mu           sync.Mutex
	path         string
	image        render.StaticOptions
	previewWidth int
	logger       log.Logger
}

// NewExporter creates an exporter from the export section of the config
func NewExporter(cfg utils.ExportConfig, logger log.Logger) *Exporter {
	if logger == nil {
		logger = log.NewNopLogger()
	}

	return &Exporter{
		path: filepath.Join(cfg.Dir, cfg.FileName),
		image: render.StaticOptions{
			Width:  vg.Length(cfg.WidthInches) * vg.Inch,
			Height: vg.Length(cfg.HeightInches) * vg.Inch,
			DPI:    cfg.DPI,
		},
		previewWidth: cfg.PreviewWidth,
		logger:       logger,
	}
}

// Path returns the file every export is written to
func (e *Exporter) Path() string { return e.path }

// Export renders the static image of view, writes it to disk, reads it back
// and builds the preview. On failure no file is left half written.
func (e *Exporter) Export(view *types.SkyView) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()

	var buf bytes.Buffer
	if err := render.WritePNG(&buf, view, e.image); err != nil {
		return nil, errorsmod.Wrapf(types.ErrExportFailure, "render: %s", err)
	}

	if err := writeFile(e.path, buf.Bytes()); err != nil {
		e.logger.Error("export failed", "path", e.path, "err", err)
		return nil, errorsmod.Wrapf(types.ErrExportFailure, "write %s: %s", e.path, err)
	}

	data, err := os.ReadFile(e.path)
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrExportFailure, "read back %s: %s", e.path, err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrExportFailure, "decode %s: %s", e.path, err)
	}

	result := &Result{
		Path:     e.path,
		Bytes:    len(data),
		Width:    img.Bounds().Dx(),
		Height:   img.Bounds().Dy(),
		Duration: time.Since(start),
		Data:     data,
		Preview:  Downscale(img, e.previewWidth),
	}

	e.logger.Info("sky image exported",
		"planet", view.Planet.Name,
		"path", result.Path,
		"bytes", result.Bytes,
		"width", result.Width,
		"height", result.Height,
	)
	return result, nil
}

// Downscale shrinks img to the given width, keeping its aspect ratio. Images
// already narrow enough are returned unchanged.
func Downscale(img image.Image, width int) image.Image {
	b := img.Bounds()
	if width <= 0 || b.Dx() <= width {
		return img
	}

	height := b.Dy() * width / b.Dx()
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// EncodePreview writes the preview of a result as PNG
func EncodePreview(result *Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, result.Preview); err != nil {
		return nil, errorsmod.Wrapf(types.ErrExportFailure, "encode preview: %s", err)
	}
	return buf.Bytes(), nil
}

// writeFile replaces path with data through a temporary file in the same
// directory
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".exosky-*.png")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close image: %w", err)
	}

	return os.Rename(tmp.Name(), path)
}
