package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/signalflow-backend/internal/domain"
)

// RecordOutbound stores a coach message that a delivery adapter has already
// sent.
func (s *Service) RecordOutbound(ctx context.Context, in OutboundInput) (*domain.Message, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	externalID := outgoingExternalID(now)
	text := strings.TrimSpace(in.Text)

	msg := &domain.Message{
		ID:          uuid.New(),
		SubjectID:   in.SubjectID,
		Channel:     in.Channel,
		ExternalID:  externalID,
		Direction:   domain.DirectionOut,
		Text:        &text,
		Fingerprint: Fingerprint(in.Channel, externalID, in.SubjectID),
		Metadata:    in.Metadata,
		CreatedAt:   now,
	}

	stored, err := s.store(ctx, msg)
	if err != nil {
		return nil, err
	}
	if !stored {
		return nil, fmt.Errorf("outbound message %s: %w", externalID, domain.ErrAlreadyExists)
	}

	s.log.InfoContext(ctx, "outbound message recorded",
		slog.String("subject_id", in.SubjectID.String()),
		slog.String("message_id", msg.ID.String()),
	)
	return msg, nil
}

// SendAndRecord delivers a message through d and records it only when the
// delivery succeeded.
func (s *Service) SendAndRecord(ctx context.Context, d Deliverer, in OutboundInput) (*domain.Message, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	subject, err := s.subjects.GetByID(ctx, in.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("get subject: %w", err)
	}

	if err := d.Deliver(ctx, subject, strings.TrimSpace(in.Text)); err != nil {
		return nil, fmt.Errorf("deliver: %w", err)
	}

	return s.RecordOutbound(ctx, in)
}
