package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/paulexconde/eventmatch/internal/metrics"
	"github.com/paulexconde/eventmatch/internal/models"
	"github.com/paulexconde/eventmatch/internal/pkg/store"
	"github.com/paulexconde/eventmatch/internal/pkg/workerpool"
)

// QRRenderer writes an event's QR code and returns its stored path.
type QRRenderer interface {
	Generate(eventID int64) (string, error)
}

// Keeps event registration QR codes in sync with saved events.
type QRCodeService interface {
	// Generate renders the code now and stores its path on the event.
	Generate(ctx context.Context, eventID int64) (string, error)
	// Regenerate renders codes for events without one, or for every event
	// when all is set. It returns how many were written.
	Regenerate(ctx context.Context, all bool) (int, error)
	// Hooks schedules generation after an event without a code commits.
	Hooks() store.Hooks[models.Event]
}

type qrCodeServiceImpl struct {
	events   store.Datastorer[models.Event]
	renderer QRRenderer
	pool     *workerpool.WorkerPool
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewQRCodeService(stores *Stores, renderer QRRenderer, pool *workerpool.WorkerPool, m *metrics.Metrics, logger *slog.Logger) QRCodeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &qrCodeServiceImpl{
		events:   stores.Events,
		renderer: renderer,
		pool:     pool,
		metrics:  m,
		logger:   logger,
	}
}

func (s *qrCodeServiceImpl) Generate(ctx context.Context, eventID int64) (string, error) {
	path, err := s.renderer.Generate(eventID)
	s.metrics.QRCode(err)
	if err != nil {
		return "", fmt.Errorf("render qr for event %d: %w", eventID, err)
	}

	if _, err := s.events.Update(ctx, eventID, &eventPatchDTO{QRCode: path}); err != nil {
		return "", fmt.Errorf("store qr path: %w", err)
	}
	return path, nil
}

func (s *qrCodeServiceImpl) Regenerate(ctx context.Context, all bool) (int, error) {
	query := fmt.Sprintf("SELECT %s FROM events", s.events.Columns())
	if !all {
		query += " WHERE qr_code = ''"
	}
	query += " ORDER BY id"

	events, err := s.events.Select(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("list events: %w", err)
	}

	written := 0
	for _, e := range events {
		if ctx.Err() != nil {
			return written, ctx.Err()
		}
		if _, err := s.Generate(ctx, e.ID); err != nil {
			s.logger.ErrorContext(ctx, "qr code generation failed", "event_id", e.ID, "error", err)
			continue
		}
		written++
	}
	return written, nil
}

func (s *qrCodeServiceImpl) Hooks() store.Hooks[models.Event] {
	return store.Hooks[models.Event]{
		AfterSaveCommit: []func(ctx context.Context, data store.DTO, model *models.Event, isNew bool) store.AfterSaveCommitHook{
			func(_ context.Context, _ store.DTO, model *models.Event, _ bool) store.AfterSaveCommitHook {
				if model.QRCode != "" {
					return nil
				}
				eventID := model.ID
				return func() {
					s.pool.Submit(func(ctx context.Context) {
						if _, err := s.Generate(ctx, eventID); err != nil {
							s.logger.ErrorContext(ctx, "qr code generation failed", "event_id", eventID, "error", err)
						}
					})
				}
			},
		},
	}
}
