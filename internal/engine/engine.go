// Package engine wraps the external LLM analysis service behind a single
// send capability. Callers hand it a prompt and, optionally, a file; they get
// back the engine's textual response. No session state survives a call.
package engine

import (
	"context"
	"errors"
)

// ErrUnavailable wraps every engine-side failure: network errors, auth
// failures, quota, malformed requests. Callers decide whether it is fatal
// (reply composition) or absorbed into a failed status (analysis).
var ErrUnavailable = errors.New("analysis engine unavailable")

// Attachment is a file handed to the engine alongside a prompt.
type Attachment struct {
	Filename  string
	MediaType string
	Data      []byte
}

// Client is the capability the rest of the service depends on.
type Client interface {
	// Send submits a prompt, with an optional attached file, and returns the
	// engine's textual response.
	Send(ctx context.Context, prompt string, attachment *Attachment) (string, error)
}
