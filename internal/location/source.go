package location

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cargotag/internal/cargo"
	"cargotag/internal/config"
	"cargotag/internal/logging"
	"cargotag/internal/services"
)

// Source produces a single location fix.
type Source interface {
	Locate(ctx context.Context) (cargo.Fix, error)
}

// Reason classifies why no fix was obtained.
type Reason int

const (
	PermissionDenied Reason = iota + 1
	PositionUnavailable
	Timeout
	Unsupported
)

func (r Reason) String() string {
	switch r {
	case PermissionDenied:
		return "PERMISSION_DENIED"
	case PositionUnavailable:
		return "POSITION_UNAVAILABLE"
	case Timeout:
		return "TIMEOUT"
	case Unsupported:
		return "UNSUPPORTED"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// Failure is the error returned by every Source.
type Failure struct {
	Reason Reason
	Err    error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", services.ErrLocationUnavailable, f.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", services.ErrLocationUnavailable, f.Reason, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Is lets errors.Is(err, services.ErrLocationUnavailable) match any Failure.
func (f *Failure) Is(target error) bool {
	return target == services.ErrLocationUnavailable
}

func fail(reason Reason, err error) *Failure {
	return &Failure{Reason: reason, Err: err}
}

// ReasonOf extracts the failure reason from err.
func ReasonOf(err error) (Reason, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason, true
	}
	return 0, false
}

// None is the source for hosts without any positioning.
type None struct{}

func (None) Locate(context.Context) (cargo.Fix, error) {
	return cargo.Fix{}, fail(Unsupported, errors.New("no location source configured"))
}

// Static reports a configured position stamped with the current time.
type Static struct {
	Latitude  float64
	Longitude float64
	Now       func() time.Time
}

func (s Static) Locate(ctx context.Context) (cargo.Fix, error) {
	if err := ctx.Err(); err != nil {
		return cargo.Fix{}, fail(Timeout, err)
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return cargo.Fix{Latitude: s.Latitude, Longitude: s.Longitude, Timestamp: now().UnixMilli()}, nil
}

// New builds the source selected by cfg.
func New(cfg config.Location) Source {
	switch cfg.Source {
	case config.LocationStatic:
		return Static{Latitude: cfg.StaticLatitude, Longitude: cfg.StaticLongitude}
	case config.LocationGPSD:
		return &GPSD{Address: cfg.GPSDAddress}
	default:
		return None{}
	}
}

// Resolve asks src for a fix within timeout. Any failure is logged and
// reported as a nil fix.
func Resolve(ctx context.Context, src Source, timeout time.Duration, logger *slog.Logger) *cargo.Fix {
	if src == nil {
		src = None{}
	}
	logger = logging.NewComponentLogger(logger, "location")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	fix, err := src.Locate(ctx)
	if err != nil {
		reason, ok := ReasonOf(err)
		if !ok {
			reason = PositionUnavailable
		}
		logging.WarnWithContext(logging.WithContext(ctx, logger), "location unavailable", "location_unavailable",
			logging.String("reason", reason.String()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "record saved with null location"),
		)
		return nil
	}
	logger.Debug("location acquired",
		logging.Float64("latitude", fix.Latitude),
		logging.Float64("longitude", fix.Longitude),
		logging.Int64("timestamp", fix.Timestamp),
	)
	return &fix
}
