package pipeline

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"cargotag/internal/artifact"
	"cargotag/internal/cargo"
	"cargotag/internal/coderender"
	"cargotag/internal/compositor"
	"cargotag/internal/config"
	"cargotag/internal/logging"
	"cargotag/internal/payload"
	"cargotag/internal/services"
)

// Result is one published artifact and the inputs that produced it.
type Result struct {
	Generation uint64
	CargoID    string
	Payload    payload.Text
	Layout     compositor.Layout
	Artifact   artifact.Artifact
	FileName   string
	ProducedAt time.Time
}

// Pipeline produces artifacts synchronously.
type Pipeline struct {
	Renderer coderender.Renderer
	CodeSize int
	Logger   *slog.Logger
	Now      func() time.Time
}

// New builds a Pipeline with a QR renderer configured from cfg.
func New(cfg *config.Config, logger *slog.Logger) (*Pipeline, error) {
	level, err := coderender.ParseLevel(cfg.Render.ErrorCorrection)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "render.error_correction", err)
	}
	return &Pipeline{
		Renderer: coderender.NewQR(level),
		CodeSize: cfg.Render.CodeSize,
		Logger:   logging.NewComponentLogger(logger, "pipeline"),
	}, nil
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return logging.NewNop()
	}
	return p.Logger
}

// Produce runs one generation end to end. Payload and render failures are
// returned before the photo is looked at, so an oversized record is reported
// even while no photo is available.
func (p *Pipeline) Produce(ctx context.Context, rec cargo.Record, base image.Image) (*Result, error) {
	if p.Renderer == nil {
		return nil, services.Wrap(services.ErrRenderFailure, "pipeline", "produce", "no renderer", nil)
	}
	size := p.CodeSize
	if size <= 0 {
		size = coderender.DefaultSize
	}
	gen, _ := services.GenerationFromContext(ctx)
	logger := logging.WithContext(ctx, p.logger())
	started := time.Now()

	text := payload.Serialize(rec)
	code, err := p.Renderer.Render(ctx, string(text), size)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if base == nil {
		return nil, services.Wrap(services.ErrPhotoUnavailable, "pipeline", "compose", "no photo", nil)
	}
	bounds := base.Bounds()
	layout, err := compositor.ComputeLayout(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}
	if !layout.Scannable {
		logging.WarnWithContext(logger, "code overlay too small to scan", "overlay_unscannable",
			logging.Int("code_size", layout.CodeSize),
			logging.Int("min_code_size", compositor.MinCodeSize),
			logging.String(logging.FieldImpact, "artifact produced but its code will not decode"),
		)
	}
	canvas, err := compositor.Compose(base, code, compositor.Label(rec.ID))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	art, err := artifact.Emit(canvas, artifact.DefaultQuality)
	if err != nil {
		return nil, err
	}
	produced := p.now()
	logger.Debug("artifact produced",
		logging.Int("payload_bytes", text.Len()),
		logging.Int("code_size", layout.CodeSize),
		logging.Int("artifact_bytes", art.Size()),
		logging.Duration("elapsed", time.Since(started)),
	)
	return &Result{
		Generation: gen,
		CargoID:    rec.ID,
		Payload:    text,
		Layout:     layout,
		Artifact:   art,
		FileName:   artifact.FileName(produced),
		ProducedAt: produced,
	}, nil
}

func (r *Result) String() string {
	return fmt.Sprintf("gen %d %s (%dx%d, %d bytes)", r.Generation, r.FileName, r.Artifact.Width, r.Artifact.Height, r.Artifact.Size())
}
