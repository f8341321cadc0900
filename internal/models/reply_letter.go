package models

import (
	"time"

	"github.com/google/uuid"
)

// ReplyLetter records one letter-generation request: the answers the user
// supplied and the letter the engine produced. Immutable; a document may
// accumulate several.
type ReplyLetter struct {
	ID              uuid.UUID         `db:"id"`
	DocumentID      uuid.UUID         `db:"document_id"`
	UserResponses   map[string]string `db:"user_responses"`
	GeneratedLetter string            `db:"generated_letter"`
	CreatedAt       time.Time         `db:"created_at"`
}
