package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/englishmastery-api/internal/dto"
	"github.com/noah-isme/englishmastery-api/internal/observability"
)

var (
	// ErrRecordingMissing indicates the request carried no file.
	ErrRecordingMissing = errors.New("recording file is required")
	// ErrRecordingTooLarge indicates the payload exceeded the configured limit.
	ErrRecordingTooLarge = errors.New("recording exceeds maximum allowed size")
	// ErrRecordingTypeNotAllowed indicates the content is neither audio nor video.
	ErrRecordingTypeNotAllowed = errors.New("recording must be an audio or video file")
	// ErrRecordingStorageUnavailable indicates no storage backend is configured.
	ErrRecordingStorageUnavailable = errors.New("recording storage is not configured")
)

// FileStorage abstracts upload destinations.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// RecordingService validates and stores presentation recordings.
type RecordingService interface {
	Upload(ctx context.Context, file *multipart.FileHeader, learnerID uint) (dto.RecordingResponse, error)
}

type recordingService struct {
	storage FileStorage
	logger  zerolog.Logger
	maxSize int64
	tracer  trace.Tracer
}

// NewRecordingService constructs a recording service. A nil storage makes every upload fail with ErrRecordingStorageUnavailable.
func NewRecordingService(storage FileStorage, maxSizeMB int, logger zerolog.Logger) RecordingService {
	if maxSizeMB <= 0 {
		maxSizeMB = 50
	}
	return &recordingService{
		storage: storage,
		logger:  logger.With().Str("component", "recording_service").Logger(),
		maxSize: int64(maxSizeMB) * 1024 * 1024,
		tracer:  otel.Tracer("github.com/noah-isme/englishmastery-api/internal/service/recording"),
	}
}

func (s *recordingService) Upload(ctx context.Context, file *multipart.FileHeader, learnerID uint) (dto.RecordingResponse, error) {
	ctx, span := s.tracer.Start(ctx, "recording.store", trace.WithAttributes(
		attribute.Int64("recording.max_bytes", s.maxSize),
		attribute.Int("recording.learner_id", int(learnerID)),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		observability.RecordingLatency().Observe(time.Since(start).Seconds())
	}()

	fail := func(reason string, err error) (dto.RecordingResponse, error) {
		if reason != "" {
			observability.RecordingRejected().WithLabelValues(reason).Inc()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dto.RecordingResponse{}, err
	}

	if s.storage == nil {
		return fail("storage", ErrRecordingStorageUnavailable)
	}
	if file == nil {
		return fail("missing", ErrRecordingMissing)
	}
	span.SetAttributes(
		attribute.String("recording.original_name", strings.TrimSpace(file.Filename)),
		attribute.Int64("recording.request_size", file.Size),
	)

	if file.Size > s.maxSize {
		return fail("size", ErrRecordingTooLarge)
	}

	handle, err := file.Open()
	if err != nil {
		return fail("", err)
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		return fail("", err)
	}
	if int64(buf.Len()) > s.maxSize {
		return fail("size", ErrRecordingTooLarge)
	}

	detected := mimetype.Detect(buf.Bytes())
	kind := mediaKind(detected)
	span.SetAttributes(attribute.String("recording.detected_mime", detected.String()))
	if kind == "" {
		return fail("type", ErrRecordingTypeNotAllowed)
	}

	checksum := sha256.Sum256(buf.Bytes())
	name := sanitizeFileName(file.Filename, detected.Extension())

	url, err := s.storage.Upload(ctx, name, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return fail("storage", fmt.Errorf("store recording: %w", err))
	}

	observability.RecordingUploads().WithLabelValues(kind).Inc()
	span.SetStatus(codes.Ok, "stored")
	s.logger.Info().
		Uint("learner_id", learnerID).
		Str("mime", detected.String()).
		Int("size_bytes", buf.Len()).
		Msg("recording stored")

	return dto.RecordingResponse{
		URL:       url,
		SizeBytes: int64(buf.Len()),
		MimeType:  detected.String(),
		Checksum:  hex.EncodeToString(checksum[:]),
		FileName:  name,
	}, nil
}

// mediaKind returns "audio" or "video", or "" for anything else. Parents are
// walked so containers such as audio/mp4 detected as video/mp4 still match.
func mediaKind(detected *mimetype.MIME) string {
	for m := detected; m != nil; m = m.Parent() {
		mime := strings.ToLower(m.String())
		switch {
		case strings.HasPrefix(mime, "audio/"):
			return "audio"
		case strings.HasPrefix(mime, "video/"):
			return "video"
		}
	}
	return ""
}

func sanitizeFileName(name, detectedExt string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.ToLower(base)
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, base)
	base = strings.Trim(base, "-")
	if base == "" {
		base = fmt.Sprintf("recording-%d", time.Now().Unix())
	}

	ext := strings.ToLower(detectedExt)
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(name))
	}
	if ext == "" {
		ext = ".bin"
	}
	return base + ext
}
