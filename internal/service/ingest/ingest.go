package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/signalflow-backend/internal/domain"
	"github.com/heartmarshall/signalflow-backend/internal/observability"
)

// errDuplicate aborts the storing transaction when the fingerprint is taken.
var errDuplicate = errors.New("duplicate fingerprint")

// IsDuplicate reports whether a message with the fingerprint is already
// stored. The seen-cache may answer yes; only the store can answer no.
func (s *Service) IsDuplicate(ctx context.Context, fingerprint string) (bool, error) {
	if s.cacheSeen(ctx, fingerprint) {
		return true, nil
	}
	exists, err := s.messages.ExistsByFingerprint(ctx, fingerprint)
	if err != nil {
		return false, fmt.Errorf("check fingerprint: %w", err)
	}
	return exists, nil
}

// Ingest stores an inbound event exactly once. Replays of the same event
// report Duplicate and have no other effect.
func (s *Service) Ingest(ctx context.Context, ev InboundEvent) (IngestResult, error) {
	if err := ev.Validate(); err != nil {
		return IngestResult{}, err
	}

	now := s.now()
	externalID := strings.TrimSpace(ev.ExternalID)
	if externalID == "" {
		externalID = SynthesizeExternalID(ev.Channel, now)
	}
	fp := Fingerprint(ev.Channel, externalID, ev.SubjectID)

	if s.cacheSeen(ctx, fp) {
		observability.IngestObserved(ev.Channel.String(), observability.OutcomeDuplicate)
		return IngestResult{Fingerprint: fp, Duplicate: true}, nil
	}

	createdAt := ev.ReceivedAt.UTC()
	if ev.ReceivedAt.IsZero() {
		createdAt = now
	}

	msg := &domain.Message{
		ID:            uuid.New(),
		SubjectID:     ev.SubjectID,
		Channel:       ev.Channel,
		ExternalID:    externalID,
		Direction:     domain.DirectionIn,
		Text:          trimOrNil(ev.Text),
		AudioRef:      trimOrNil(ev.AudioRef),
		Transcription: trimOrNil(ev.Transcription),
		Fingerprint:   fp,
		Metadata:      ev.Metadata,
		CreatedAt:     createdAt,
	}

	if msg.Text == nil && msg.Transcription == nil && msg.AudioRef != nil {
		// Transcription is billed per call; a replay must not pay for it again.
		seen, err := s.IsDuplicate(ctx, fp)
		if err != nil {
			observability.IngestObserved(ev.Channel.String(), observability.OutcomeError)
			return IngestResult{}, err
		}
		if seen {
			return s.duplicate(ctx, ev, externalID, fp), nil
		}
		msg.Transcription = s.transcribe(ctx, *msg.AudioRef)
	}

	stored, err := s.store(ctx, msg)
	if err != nil {
		observability.IngestObserved(ev.Channel.String(), observability.OutcomeError)
		return IngestResult{}, err
	}
	if !stored {
		return s.duplicate(ctx, ev, externalID, fp), nil
	}

	s.cacheMark(ctx, fp)
	observability.IngestObserved(ev.Channel.String(), observability.OutcomeStored)
	s.log.InfoContext(ctx, "message stored",
		slog.String("subject_id", ev.SubjectID.String()),
		slog.String("message_id", msg.ID.String()),
		slog.String("channel", ev.Channel.String()),
	)

	return IngestResult{
		MessageID:      msg.ID,
		ConversationID: msg.ConversationID,
		Fingerprint:    fp,
	}, nil
}

func (s *Service) duplicate(ctx context.Context, ev InboundEvent, externalID, fp string) IngestResult {
	s.cacheMark(ctx, fp)
	observability.IngestObserved(ev.Channel.String(), observability.OutcomeDuplicate)
	s.log.DebugContext(ctx, "duplicate event ignored",
		slog.String("subject_id", ev.SubjectID.String()),
		slog.String("channel", ev.Channel.String()),
		slog.String("external_id", externalID),
	)
	return IngestResult{Fingerprint: fp, Duplicate: true}
}

// store resolves the subject's current conversation (creating one on first
// contact), inserts msg and touches the conversation in one transaction.
// It reports false when the fingerprint was already taken; the transaction
// is then rolled back, so a conversation created for it does not survive.
func (s *Service) store(ctx context.Context, msg *domain.Message) (bool, error) {
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		conv, err := s.messages.CurrentConversation(ctx, msg.SubjectID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			conv = &domain.Conversation{
				ID:        uuid.New(),
				SubjectID: msg.SubjectID,
				CreatedAt: msg.CreatedAt,
				UpdatedAt: msg.CreatedAt,
			}
			if err := s.messages.CreateConversation(ctx, conv); err != nil {
				return fmt.Errorf("create conversation: %w", err)
			}
		case err != nil:
			return fmt.Errorf("resolve conversation: %w", err)
		}

		msg.ConversationID = conv.ID

		inserted, err := s.messages.Insert(ctx, msg)
		if err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		if !inserted {
			return errDuplicate
		}

		if err := s.messages.TouchConversation(ctx, conv.ID, msg.CreatedAt); err != nil {
			return fmt.Errorf("touch conversation: %w", err)
		}
		return nil
	})
	if errors.Is(err, errDuplicate) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// transcribe returns nil on any failure; the message is then stored
// without a body.
func (s *Service) transcribe(ctx context.Context, audioRef string) *string {
	if s.transcriber == nil {
		return nil
	}
	text, err := s.transcriber.Transcribe(ctx, audioRef)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, domain.ErrTranscription) {
			level = slog.LevelError
		}
		s.log.Log(ctx, level, "transcription failed",
			slog.String("audio_ref", audioRef),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return trimOrNil(&text)
}

func (s *Service) cacheSeen(ctx context.Context, fingerprint string) bool {
	if s.seen == nil {
		return false
	}
	seen, err := s.seen.Seen(ctx, fingerprint)
	if err != nil {
		s.log.WarnContext(ctx, "seen-cache lookup failed", slog.String("error", err.Error()))
		return false
	}
	return seen
}

func (s *Service) cacheMark(ctx context.Context, fingerprint string) {
	if s.seen == nil {
		return
	}
	if err := s.seen.Mark(ctx, fingerprint); err != nil {
		s.log.WarnContext(ctx, "seen-cache mark failed", slog.String("error", err.Error()))
	}
}
