// Package notification ties a message composer and an attachment composer to
// a channel and a Transport.
//
// A Notification is reusable: every successful Send, Upload or ToValue drains
// the composed state so the next chain starts from an empty message.
package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/slacknotify/slacknotify/internal/attachment"
	"github.com/slacknotify/slacknotify/internal/message"
)

// ErrChannelRequired is returned by Send and Upload when To was never called.
var ErrChannelRequired = errors.New("a target channel is required")

// Factory builds a fresh Notification.
type Factory func() *Notification

// Notification is the entry point for composing and delivering one message
// or file at a time. It is not safe for concurrent use.
type Notification struct {
	channel   string
	msg       *message.Composer
	file      *attachment.Composer
	transport Transport
	log       *slog.Logger
}

// New returns an empty Notification delivering through t.
// A nil logger falls back to slog.Default().
func New(t Transport, log *slog.Logger) *Notification {
	if log == nil {
		log = slog.Default()
	}
	return &Notification{
		msg:       message.NewComposer(),
		file:      attachment.NewComposer(),
		transport: t,
		log:       log,
	}
}

// To sets the target channel (name or ID). It is kept across sends.
func (n *Notification) To(channel string) *Notification {
	n.channel = channel
	return n
}

// Channel returns the target channel, or "" if unset.
func (n *Notification) Channel() string { return n.channel }

// ---- message composition ---------------------------------------------------

// Text sets the top-level message text.
func (n *Notification) Text(text string) *Notification {
	n.msg.Text(text)
	return n
}

// Blocks replaces the message blocks with caller-built ones.
func (n *Notification) Blocks(blocks ...message.Block) *Notification {
	n.msg.Blocks(blocks...)
	return n
}

// Header appends a header block.
func (n *Notification) Header(text string) *Notification {
	n.msg.Header(text)
	return n
}

// Context appends a context block with one mrkdwn element.
func (n *Notification) Context(text string) *Notification {
	n.msg.Context(text)
	return n
}

// ContextElements appends a context block of up to ten elements.
func (n *Notification) ContextElements(elements ...message.ContextElement) *Notification {
	n.msg.ContextElements(elements...)
	return n
}

// Divider appends a divider block.
func (n *Notification) Divider() *Notification {
	n.msg.Divider()
	return n
}

// List appends a section rendering items as marker-prefixed lines.
func (n *Notification) List(items []string, marker string) *Notification {
	n.msg.List(items, marker)
	return n
}

// Section opens a section with optional mrkdwn text.
func (n *Notification) Section(text string) *Notification {
	n.msg.Section(text)
	return n
}

// EndSection closes the open section.
func (n *Notification) EndSection() *Notification {
	n.msg.EndSection()
	return n
}

// Fields opens a field collection on the open section.
func (n *Notification) Fields() *Notification {
	n.msg.Fields()
	return n
}

// Markdown adds a mrkdwn field.
func (n *Notification) Markdown(text string, verbatim bool) *Notification {
	n.msg.Markdown(text, verbatim)
	return n
}

// PlainText adds a plain_text field.
func (n *Notification) PlainText(text string, emoji bool) *Notification {
	n.msg.PlainText(text, emoji)
	return n
}

// EndFields closes the field collection.
func (n *Notification) EndFields() *Notification {
	n.msg.EndFields()
	return n
}

// Err returns the first composition failure recorded on the message.
func (n *Notification) Err() error { return n.msg.Err() }

// ---- attachment ------------------------------------------------------------

// File sets the attachment content and filename.
func (n *Notification) File(content []byte, filename string) *Notification {
	n.file.File(content, filename)
	return n
}

// AttachFile reads path from disk as the pending attachment. An empty filename
// defaults to the base name of path.
func (n *Notification) AttachFile(path, filename string) (*Notification, error) {
	if _, err := n.file.ReadFile(path, filename); err != nil {
		return n, err
	}
	return n, nil
}

// InitialComment sets the message posted with the file.
func (n *Notification) InitialComment(text string) *Notification {
	n.file.InitialComment(text)
	return n
}

// Title sets the file title.
func (n *Notification) Title(text string) *Notification {
	n.file.Title(text)
	return n
}

// ---- terminal operations ---------------------------------------------------

// ToValue finalizes the message without sending it.
func (n *Notification) ToValue() (message.Payload, error) {
	return n.msg.Finalize()
}

// Send finalizes the message and posts it to the channel.
func (n *Notification) Send(ctx context.Context) (*PostResponse, error) {
	if n.channel == "" {
		return nil, ErrChannelRequired
	}
	payload, err := n.msg.Finalize()
	if err != nil {
		return nil, fmt.Errorf("finalize message: %w", err)
	}
	resp, err := n.transport.PostMessage(ctx, OutgoingMessage{Channel: n.channel, Payload: payload})
	if err != nil {
		n.log.Warn("slack: send failed", "channel", n.channel, "err", err)
		return nil, err
	}
	n.log.Debug("slack: message sent", "channel", n.channel, "blocks", len(payload.Blocks), "ts", resp.Timestamp)
	return resp, nil
}

// Upload finalizes the pending attachment and uploads it to the channel.
func (n *Notification) Upload(ctx context.Context) (*UploadResponse, error) {
	if n.channel == "" {
		return nil, ErrChannelRequired
	}
	file, meta, err := n.file.Finalize()
	if err != nil {
		return nil, fmt.Errorf("finalize attachment: %w", err)
	}
	resp, err := n.transport.UploadFile(ctx, file, UploadMetadata{Channels: n.channel, Metadata: meta})
	if err != nil {
		n.log.Warn("slack: upload failed", "channel", n.channel, "filename", file.Filename, "err", err)
		return nil, err
	}
	n.log.Debug("slack: file uploaded", "channel", n.channel, "filename", file.Filename, "file_id", resp.FileID)
	return resp, nil
}

// Reset discards the pending message and attachment. The channel is kept.
func (n *Notification) Reset() *Notification {
	n.msg.Reset()
	n.file.Reset()
	return n
}
