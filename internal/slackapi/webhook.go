package slackapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	slackgo "github.com/slack-go/slack"

	"github.com/slacknotify/slacknotify/internal/attachment"
	"github.com/slacknotify/slacknotify/internal/notification"
)

const opWebhook = "incoming-webhook"

// ErrUploadUnsupported is returned by WebhookClient.UploadFile.
var ErrUploadUnsupported = errors.New("incoming webhooks can not upload files")

// WebhookClient posts through an incoming webhook URL. The webhook decides the
// channel unless the app is allowed to override it.
type WebhookClient struct {
	url  string
	http *http.Client
	log  *slog.Logger
}

var _ notification.Transport = (*WebhookClient)(nil)

// NewWebhook creates a transport posting to the incoming webhook url.
func NewWebhook(url string, log *slog.Logger) *WebhookClient {
	if log == nil {
		log = slog.Default()
	}
	return &WebhookClient{url: url, http: newHTTPClient(), log: log}
}

// PostMessage posts msg as the webhook's JSON body. A rejection carries the
// webhook's error text, e.g. "invalid_blocks".
func (w *WebhookClient) PostMessage(ctx context.Context, msg notification.OutgoingMessage) (*notification.PostResponse, error) {
	wm := &slackgo.WebhookMessage{Channel: msg.Channel, Text: msg.Text}
	if len(msg.Blocks) > 0 {
		wm.Blocks = &slackgo.Blocks{BlockSet: toSlackBlocks(msg.Blocks)}
	}
	ctx, body := withErrorBody(ctx)
	if err := slackgo.PostWebhookCustomHTTPContext(ctx, w.url, w.http, wm); err != nil {
		return nil, remoteError(opWebhook, err, body.String())
	}
	w.log.Debug("slack: webhook post ok", "channel", msg.Channel)
	return &notification.PostResponse{Channel: msg.Channel}, nil
}

// UploadFile always fails with ErrUploadUnsupported.
func (w *WebhookClient) UploadFile(context.Context, attachment.File, notification.UploadMetadata) (*notification.UploadResponse, error) {
	return nil, ErrUploadUnsupported
}
