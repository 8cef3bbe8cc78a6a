package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// ErrMissingCredentials is returned by New when any credential is blank.
var ErrMissingCredentials = errors.New("cloudinary credentials must be provided")

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Service stores presentation recordings on Cloudinary under a per-day folder.
type Service struct {
	client *cloudinary.Cloudinary
	folder string
	logger zerolog.Logger
	now    func() time.Time
}

// New constructs a Cloudinary recording store.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if strings.TrimSpace(cfg.CloudName) == "" || strings.TrimSpace(cfg.APIKey) == "" || strings.TrimSpace(cfg.APISecret) == "" {
		return nil, ErrMissingCredentials
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("initialize cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true

	return &Service{
		client: cld,
		folder: strings.Trim(cfg.Folder, "/"),
		logger: logger.With().Str("component", "cloudinary").Logger(),
		now:    time.Now,
	}, nil
}

// Upload stores a recording and returns its HTTPS URL. Audio is accepted
// under the video resource type.
func (s *Service) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	now := s.now().UTC()
	params := uploader.UploadParams{
		Folder:         s.dayFolder(now),
		PublicID:       recordingID(name, now),
		ResourceType:   "video",
		Tags:           api.CldAPIArray{"presentation"},
		Overwrite:      api.Bool(false),
		UniqueFilename: api.Bool(false),
	}

	result, err := s.client.Upload.Upload(ctx, reader, params)
	if err != nil {
		return "", fmt.Errorf("upload recording: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary rejected recording: %s", result.Error.Message)
	}

	s.logger.Info().
		Str("public_id", result.PublicID).
		Int("bytes", result.Bytes).
		Msg("recording stored")

	return result.SecureURL, nil
}

func (s *Service) dayFolder(at time.Time) string {
	day := at.Format("2006/01/02")
	if s.folder == "" {
		return day
	}
	return path.Join(s.folder, day)
}

// recordingID keeps lowercase letters and digits from the file stem and
// suffixes the upload time so repeated names never collide.
func recordingID(name string, at time.Time) string {
	stem := strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))

	var b strings.Builder
	dash := false
	for _, r := range stem {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}

	base := strings.TrimSuffix(b.String(), "-")
	if base == "" {
		base = "recording"
	}
	return fmt.Sprintf("%s-%d", base, at.UnixNano()/int64(time.Millisecond))
}
