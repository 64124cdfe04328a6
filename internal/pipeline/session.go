package pipeline

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"sync"
	"time"

	"cargotag/internal/cargo"
	"cargotag/internal/config"
	"cargotag/internal/logging"
	"cargotag/internal/services"
)

// ErrSuperseded is returned by Session.Render when newer input arrived
// while the requested generation was still running.
var ErrSuperseded = errors.New("superseded by newer input")

// ErrClosed is returned by Session.Render after Close.
var ErrClosed = errors.New("session closed")

// Session holds the editable inputs of one cargo item and recomputes the
// artifact as they change.
type Session struct {
	pipeline *Pipeline
	policy   config.Pipeline
	logger   *slog.Logger
	base     context.Context

	mu        sync.Mutex
	record    cargo.Record
	photo     image.Image
	photoErr  error
	gen       uint64
	timer     *time.Timer
	cancelRun context.CancelFunc
	latest    *Result
	latestErr error
	closed    bool
	runs      sync.WaitGroup

	notifyMu sync.Mutex
	notified uint64
	onResult func(*Result)
	onError  func(uint64, error)
}

// NewSession starts a session with the default record and no photo.
// Runs inherit ctx, so cancelling it stops every in-flight run.
func NewSession(ctx context.Context, p *Pipeline, policy config.Pipeline, logger *slog.Logger) *Session {
	if policy.Recompute == "" {
		policy.Recompute = config.RecomputeOnChange
	}
	return &Session{
		pipeline: p,
		policy:   policy,
		logger:   logging.NewComponentLogger(logger, "session"),
		base:     ctx,
		record:   cargo.NewRecord(),
	}
}

// OnResult registers fn for every published artifact.
func (s *Session) OnResult(fn func(*Result)) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.onResult = fn
}

// OnError registers fn for every generation that failed while newest.
func (s *Session) OnError(fn func(gen uint64, err error)) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.onError = fn
}

// UpdateRecord replaces the record and returns the new generation.
func (s *Session) UpdateRecord(rec cargo.Record) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = rec.Clone()
	return s.bumpLocked()
}

// UpdatePhoto replaces the photo. A non-nil err records why no photo is
// available; composition is skipped until a usable photo arrives.
func (s *Session) UpdatePhoto(img image.Image, err error) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.photo = img
	s.photoErr = err
	return s.bumpLocked()
}

// Generation is the newest input generation.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Record returns a copy of the current record.
func (s *Session) Record() cargo.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record.Clone()
}

// Latest returns the last published result and the error of the newest
// generation, if it failed.
func (s *Session) Latest() (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.latestErr
}

// Render runs the newest generation now, skipping any pending debounce.
func (s *Session) Render(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	runCtx, snap := s.beginLocked(ctx)
	s.mu.Unlock()
	defer s.runs.Done()

	res, err := s.execute(runCtx, snap)
	if !s.publish(snap.gen, res, err) {
		return nil, ErrSuperseded
	}
	return res, err
}

// Close cancels pending and in-flight runs and waits for them to exit.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.cancelRun != nil {
		s.cancelRun()
	}
	s.mu.Unlock()
	s.runs.Wait()
}

func (s *Session) bumpLocked() uint64 {
	s.gen++
	if s.cancelRun != nil {
		s.cancelRun()
		s.cancelRun = nil
	}
	if s.closed || s.policy.Recompute != config.RecomputeOnChange {
		return s.gen
	}
	delay := s.policy.Debounce()
	if delay <= 0 {
		s.startLocked()
		return s.gen
	}
	if s.timer == nil {
		s.timer = time.AfterFunc(delay, s.fire)
	} else {
		s.timer.Reset(delay)
	}
	return s.gen
}

func (s *Session) fire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.startLocked()
}

type snapshot struct {
	gen      uint64
	record   cargo.Record
	photo    image.Image
	photoErr error
}

// beginLocked cancels the in-flight run and snapshots the inputs for a new one.
func (s *Session) beginLocked(parent context.Context) (context.Context, snapshot) {
	if s.cancelRun != nil {
		s.cancelRun()
	}
	ctx, cancel := context.WithCancel(parent)
	s.cancelRun = cancel
	s.runs.Add(1)
	return ctx, snapshot{gen: s.gen, record: s.record.Clone(), photo: s.photo, photoErr: s.photoErr}
}

func (s *Session) startLocked() {
	ctx, snap := s.beginLocked(s.base)
	go func() {
		defer s.runs.Done()
		res, err := s.execute(ctx, snap)
		s.publish(snap.gen, res, err)
	}()
}

func (s *Session) execute(ctx context.Context, snap snapshot) (*Result, error) {
	ctx = services.WithGeneration(ctx, snap.gen)
	ctx = services.WithCargoID(ctx, snap.record.ID)
	res, err := s.pipeline.Produce(ctx, snap.record, snap.photo)
	if err != nil && snap.photoErr != nil && errors.Is(err, services.ErrPhotoUnavailable) {
		err = snap.photoErr
		if !errors.Is(err, services.ErrPhotoUnavailable) {
			err = services.Wrap(services.ErrPhotoUnavailable, "session", "photo", "", err)
		}
	}
	return res, err
}

// publish stores the outcome of gen if it is still the newest generation.
func (s *Session) publish(gen uint64, res *Result, err error) bool {
	logger := s.logger.With(logging.Uint64(logging.FieldGeneration, gen))

	s.mu.Lock()
	if gen != s.gen {
		newest := s.gen
		s.mu.Unlock()
		logger.Debug("result superseded", logging.Uint64("newest_generation", newest))
		return false
	}
	if errors.Is(err, context.Canceled) {
		s.mu.Unlock()
		logger.Debug("run cancelled", logging.Error(err))
		return true
	}
	if err != nil {
		s.latestErr = err
	} else {
		s.latest = res
		s.latestErr = nil
	}
	s.mu.Unlock()

	switch {
	case err == nil:
		logger.Info("artifact published",
			logging.String(logging.FieldCargoID, res.CargoID),
			logging.String("file_name", res.FileName),
			logging.Int("size_bytes", res.Artifact.Size()),
		)
	case errors.Is(err, services.ErrPhotoUnavailable):
		logger.Info("composition skipped", logging.Error(err))
	default:
		logging.ErrorWithContext(logger, "artifact production failed", "render_failed", logging.Error(err))
	}

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if gen <= s.notified {
		return true
	}
	s.notified = gen
	if err == nil && s.onResult != nil {
		s.onResult(res)
	}
	if err != nil && s.onError != nil {
		s.onError(gen, err)
	}
	return true
}
