package notification

import (
	"context"
	"fmt"

	"github.com/slacknotify/slacknotify/internal/attachment"
	"github.com/slacknotify/slacknotify/internal/message"
)

// OutgoingMessage is a finalized payload addressed to a channel.
type OutgoingMessage struct {
	Channel string `json:"channel"`
	message.Payload
}

// UploadMetadata is the form data sent with a file.
type UploadMetadata struct {
	Channels string `json:"channels"`
	attachment.Metadata
}

// PostResponse is what the remote returns for a posted message.
type PostResponse struct {
	Channel   string `json:"channel"`
	Timestamp string `json:"ts"`
}

// UploadResponse is what the remote returns for an uploaded file.
type UploadResponse struct {
	FileID string `json:"id"`
	Title  string `json:"title"`
}

// Transport delivers finalized payloads. Implementations own retries,
// timeouts and authentication; failures reported by the remote should be
// returned as *RemoteError.
type Transport interface {
	PostMessage(ctx context.Context, msg OutgoingMessage) (*PostResponse, error)
	UploadFile(ctx context.Context, file attachment.File, meta UploadMetadata) (*UploadResponse, error)
}

// RemoteError is a rejection reported by the remote API, carrying the raw
// error text for diagnostics.
type RemoteError struct {
	Op   string // e.g. "chat.postMessage"
	Body string
	Err  error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s failed: '%s'", e.Op, e.Body)
}

func (e *RemoteError) Unwrap() error { return e.Err }
