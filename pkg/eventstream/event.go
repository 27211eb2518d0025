package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeDocumentIngested is emitted after a document's chunks are stored.
	EventTypeDocumentIngested = "studyrag.document.ingested"

	// EventTypeDocumentDeleted is emitted after a document's chunks are removed.
	EventTypeDocumentDeleted = "studyrag.document.deleted"
)

// DocumentEvent is a transport-neutral event payload for index changes.
type DocumentEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`

	DocumentID string `json:"document_id"`
	OwnerID    string `json:"owner_id"`
	Collection string `json:"collection"`
	Source     string `json:"source,omitempty"`

	// IngestID identifies the ingestion run whose chunks are now live.
	IngestID     string `json:"ingest_id,omitempty"`
	Chunks       int    `json:"chunks,omitempty"`
	FailedChunks int    `json:"failed_chunks,omitempty"`

	// CleanupFailed is set on deletion events when some chunks may remain.
	CleanupFailed bool `json:"cleanup_failed,omitempty"`
}

// NewDocumentEvent stamps a new event of eventType with an ID and time.
func NewDocumentEvent(eventType, documentID, ownerID, collection string) *DocumentEvent {
	return &DocumentEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     eventType,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		DocumentID:    documentID,
		OwnerID:       ownerID,
		Collection:    collection,
	}
}
