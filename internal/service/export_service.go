package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/storage"
)

type documentStore interface {
	Put(name string, data []byte) error
	Get(name string) ([]byte, error)
	Prune(cutoff time.Time) ([]string, error)
}

type timetableExporter interface {
	Export(ctx context.Context, query dto.ExportQuery) ([]byte, string, string, error)
}

// ExportConfig tunes published exports.
type ExportConfig struct {
	APIPrefix string
	// Retention is how long published files are kept on disk.
	Retention time.Duration
}

// PublishedExport is a stored timetable document reachable through a signed link.
type PublishedExport struct {
	Filename  string    `json:"filename"`
	URL       string    `json:"url"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExportService stores rendered timetables and hands out signed download links for them.
type ExportService struct {
	timetable timetableExporter
	store     documentStore
	signer    *storage.LinkSigner
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(timetable timetableExporter, store documentStore, signer *storage.LinkSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	return &ExportService{
		timetable: timetable,
		store:     store,
		signer:    signer,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Publish renders the timetable, stores it and returns a signed link to the file. Files older
// than the retention window are pruned first.
func (s *ExportService) Publish(ctx context.Context, query dto.ExportQuery) (*PublishedExport, error) {
	payload, filename, _, err := s.timetable.Export(ctx, query)
	if err != nil {
		return nil, err
	}

	if removed, err := s.store.Prune(s.now().Add(-s.cfg.Retention)); err != nil {
		s.logger.Warn("prune published exports", zap.Error(err))
	} else if len(removed) > 0 {
		s.logger.Info("pruned published exports", zap.Int("count", len(removed)))
	}

	name := path.Join("timetable", uuid.NewString(), filename)
	if err := s.store.Put(name, payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}

	token, expiresAt, err := s.signer.Sign(name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export link")
	}

	s.logger.Info("timetable export published", zap.String("name", name), zap.Time("expires_at", expiresAt))
	return &PublishedExport{
		Filename:  filename,
		URL:       fmt.Sprintf("%s/timetable/exports/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Download resolves a signed token to the stored document.
func (s *ExportService) Download(ctx context.Context, token string) ([]byte, string, string, error) {
	name, err := s.signer.Verify(token)
	switch {
	case errors.Is(err, storage.ErrLinkExpired):
		return nil, "", "", appErrors.Clone(appErrors.ErrNotFound, "download link expired")
	case err != nil:
		return nil, "", "", appErrors.Clone(appErrors.ErrNotFound, "download link not recognised")
	}

	data, err := s.store.Get(name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, "", "", appErrors.Clone(appErrors.ErrNotFound, "export no longer available")
	}
	if err != nil {
		return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read export")
	}
	filename := path.Base(name)
	return data, filename, contentTypeFor(filename), nil
}

func contentTypeFor(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".csv":
		return "text/csv"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
