package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/signalflow-backend/internal/domain"
)

// Fingerprint returns the deduplication token of an event: the hex SHA-256
// of "channel:externalID:subjectID".
func Fingerprint(channel domain.Channel, externalID string, subjectID uuid.UUID) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%s", channel, externalID, subjectID)))
	return hex.EncodeToString(sum[:])
}

// SynthesizeExternalID builds an external id for events that carry none,
// such as messages typed in by a coach.
func SynthesizeExternalID(channel domain.Channel, now time.Time) string {
	return fmt.Sprintf("%s_%d", channel, now.UnixNano())
}

func outgoingExternalID(now time.Time) string {
	return fmt.Sprintf("outgoing_%d", now.UnixNano())
}
