package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"holdings/internal/amqp"
	"holdings/internal/core"
	"holdings/internal/log"
	"holdings/internal/source"
)

// ErrInvalidHolding wraps every validation failure of a new holding.
var ErrInvalidHolding = errors.New("invalid holding")

// ChangePublisher announces holding changes to other processes.
type ChangePublisher interface {
	PublishHoldingChanged(ctx context.Context, msg *amqp.HoldingChangedMessage) error
}

// Invalidator drops derived state after a write.
type Invalidator interface {
	Invalidate()
}

// HoldingService orchestrates holding writes across the source, the balance
// cache and AMQP.
type HoldingService struct {
	writer    source.HoldingWriter
	cache     Invalidator
	publisher ChangePublisher
	logger    *log.Logger
	sl        *log.StructuredLogger
}

// NewHoldingService wires the service. cache and publisher may be nil.
func NewHoldingService(writer source.HoldingWriter, cache Invalidator, publisher ChangePublisher, logger *log.Logger) *HoldingService {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHolding)
	return &HoldingService{
		writer:    writer,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
		sl:        log.NewStructuredLogger(logger),
	}
}

// CreateHolding validates r, assigns an id when it has none, stores it and
// publishes a change message. Publishing failures are logged, not returned:
// the holding is already stored.
func (s *HoldingService) CreateHolding(ctx context.Context, r core.RawRecord) (string, error) {
	r.ID = strings.TrimSpace(r.ID)
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if err := r.Validate(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidHolding, err)
	}
	row, err := core.Normalize(r)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidHolding, err)
	}

	id, err := s.writer.CreateHolding(ctx, r)
	if err != nil {
		return "", fmt.Errorf("save holding: %w", err)
	}

	if s.cache != nil {
		s.cache.Invalidate()
	}
	s.sl.LogHoldingCreated(ctx, id, row.Category, core.ResolveOwner(r))

	if s.publisher != nil {
		msg := amqp.NewHoldingChangedMessage(id, string(r.Category), amqp.ActionCreated)
		if err := s.publisher.PublishHoldingChanged(ctx, msg); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish holding changed message",
				log.FieldHoldingID, id, log.FieldError, err)
		}
	}

	return id, nil
}
