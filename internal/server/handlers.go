package server

import (
	"errors"
	"image"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cargotag/internal/api"
	"cargotag/internal/cargo"
	"cargotag/internal/journal"
	"cargotag/internal/logging"
	"cargotag/internal/payload"
	"cargotag/internal/photo"
	"cargotag/internal/services"
	"cargotag/internal/sink"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 1000
)

func (s *Server) handlePayload(w http.ResponseWriter, r *http.Request) {
	if s.methodNotAllowed(w, r, http.MethodPost) {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.Config.Server.MaxUploadBytes())
	rec, err := cargo.Decode(r.Body, cargo.FormatJSON)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	text := payload.Serialize(rec)
	s.writeJSON(w, http.StatusOK, api.PayloadResponse{Payload: text.String(), Bytes: text.Len()})
}

func (s *Server) handleArtifacts(w http.ResponseWriter, r *http.Request) {
	if s.methodNotAllowed(w, r, http.MethodPost) {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.Config.Server.MaxUploadBytes())
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if !errors.As(err, &tooBig) {
			err = services.Wrap(services.ErrValidation, "server", "upload", "expected multipart/form-data", err)
		}
		s.writeError(w, r, err)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	deliver, err := boolParam(r, "deliver")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	locate, err := boolParam(r, "locate")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rawRecord := r.FormValue("record")
	if strings.TrimSpace(rawRecord) == "" {
		s.writeError(w, r, services.Wrap(services.ErrValidation, "server", "upload", "missing record field", nil))
		return
	}
	rec, err := cargo.Decode(strings.NewReader(rawRecord), cargo.FormatJSON)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	gen := s.generation.Add(1)
	ctx := services.WithGeneration(r.Context(), gen)
	ctx = services.WithCargoID(ctx, rec.ID)

	if locate && rec.Location == nil && s.opts.Locate != nil {
		if fix := s.opts.Locate(ctx); fix != nil {
			rec = rec.WithLocation(*fix)
		}
	}

	// A photo problem is held back until Produce has checked the payload,
	// so an oversized record wins over a missing or corrupt photo.
	img, photoErr := s.uploadedPhoto(r)
	res, err := s.opts.Pipeline.Produce(ctx, rec, img)
	if err != nil && photoErr != nil && errors.Is(err, services.ErrPhotoUnavailable) {
		err = photoErr
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.produced.Add(1)

	var location string
	if deliver {
		if s.opts.Sink == nil {
			s.writeError(w, r, services.Wrap(services.ErrValidation, "server", "deliver", "delivery is not configured", nil))
			return
		}
		location, err = sink.Result(ctx, s.opts.Sink, res)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.delivered.Add(1)
	}

	header := w.Header()
	header.Set("Content-Type", res.Artifact.MediaType)
	header.Set("Content-Length", strconv.Itoa(res.Artifact.Size()))
	header.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.FileName}))
	header.Set(DigestHeader, res.Artifact.Digest)
	header.Set("X-Cargo-Generation", strconv.FormatUint(gen, 10))
	if location != "" {
		header.Set("X-Cargo-Location", filepath.Base(location))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Artifact.Data); err != nil {
		logging.WithContext(ctx, s.logger).Warn("artifact response interrupted", logging.Error(err))
		return
	}
	logging.WithContext(ctx, s.logger).Info("artifact served",
		logging.String("file", res.FileName),
		logging.Int("size_bytes", res.Artifact.Size()),
		logging.Bool("delivered", location != ""),
	)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.methodNotAllowed(w, r, http.MethodGet) {
		return
	}
	cfg := s.opts.Config
	s.mu.Lock()
	lastErr := s.lastErr
	s.mu.Unlock()

	status := api.Status{
		Running:           true,
		PID:               os.Getpid(),
		StartedAt:         s.started.UTC().Format(time.RFC3339),
		UptimeSeconds:     int64(time.Since(s.started).Seconds()),
		OutputDir:         cfg.Paths.OutputDir,
		CodeSize:          cfg.Render.CodeSize,
		ErrorCorrection:   cfg.Render.ErrorCorrection,
		LocationSource:    cfg.Location.Source,
		MaxUploadBytes:    cfg.Server.MaxUploadBytes(),
		ArtifactsProduced: s.produced.Load(),
		Deliveries:        s.delivered.Load(),
		LastError:         lastErr,
	}
	if s.opts.Journal != nil {
		status.JournalPath = s.opts.Journal.Path()
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.methodNotAllowed(w, r, http.MethodGet) {
		return
	}
	if s.opts.Journal == nil {
		s.writeJSON(w, http.StatusOK, api.HistoryResponse{Deliveries: api.FromEntries(nil)})
		return
	}
	query := r.URL.Query()
	limit := defaultHistoryLimit
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, r, services.Wrap(services.ErrValidation, "server", "history", "limit must be a positive integer", err))
			return
		}
		limit = min(parsed, maxHistoryLimit)
	}

	var (
		entries []journal.Entry
		err     error
	)
	if cargoID := strings.TrimSpace(query.Get("cargo_id")); cargoID != "" {
		entries, err = s.opts.Journal.FindByCargoID(r.Context(), cargoID)
		if len(entries) > limit {
			entries = entries[:limit]
		}
	} else {
		entries, err = s.opts.Journal.List(r.Context(), limit)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.HistoryResponse{Deliveries: api.FromEntries(entries)})
}

// boolParam reads a boolean from the query string or form. Absent means false.
func boolParam(r *http.Request, name string) (bool, error) {
	raw := strings.TrimSpace(r.FormValue(name))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, services.Wrap(services.ErrValidation, "server", "params", name+" must be a boolean", err)
	}
	return v, nil
}

func (s *Server) uploadedPhoto(r *http.Request) (image.Image, error) {
	file, _, err := r.FormFile("photo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, services.Wrap(services.ErrPhotoUnavailable, "server", "upload", "missing photo file", err)
		}
		return nil, services.Wrap(services.ErrPhotoUnavailable, "server", "upload", "photo field", err)
	}
	defer file.Close()
	return photo.Decode(file)
}
