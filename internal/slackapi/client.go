// Package slackapi delivers notifications through github.com/slack-go/slack.
package slackapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	slackgo "github.com/slack-go/slack"
	"golang.org/x/time/rate"

	"github.com/slacknotify/slacknotify/internal/attachment"
	"github.com/slacknotify/slacknotify/internal/message"
	"github.com/slacknotify/slacknotify/internal/notification"
)

const (
	opPostMessage = "chat.postMessage"
	opUploadFile  = "files.upload"
)

// Params configures a Client.
type Params struct {
	Token string
	// APIURL overrides https://slack.com/api/ (must end in "/").
	APIURL string
	// RateLimit caps calls per second; 0 disables limiting.
	RateLimit float64
	Logger    *slog.Logger
}

// Client implements notification.Transport on the Slack Web API.
type Client struct {
	api     *slackgo.Client
	limiter *rate.Limiter
	log     *slog.Logger
}

var _ notification.Transport = (*Client)(nil)

// New creates a Web API client authenticated with p.Token.
func New(p Params) *Client {
	opts := []slackgo.Option{slackgo.OptionHTTPClient(newHTTPClient())}
	if p.APIURL != "" {
		opts = append(opts, slackgo.OptionAPIURL(p.APIURL))
	}
	log := p.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		api:     slackgo.New(p.Token, opts...),
		limiter: newLimiter(p.RateLimit),
		log:     log,
	}
}

func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// PostMessage calls chat.postMessage.
func (c *Client) PostMessage(ctx context.Context, msg notification.OutgoingMessage) (*notification.PostResponse, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	ctx, body := withErrorBody(ctx)
	channel, ts, err := c.api.PostMessageContext(ctx, msg.Channel, messageOptions(msg.Payload)...)
	if err != nil {
		return nil, remoteError(opPostMessage, err, body.String())
	}
	c.log.Debug("slack: chat.postMessage ok", "channel", channel, "ts", ts)
	return &notification.PostResponse{Channel: channel, Timestamp: ts}, nil
}

// UploadFile shares file in meta.Channels, which must be a channel ID.
func (c *Client) UploadFile(ctx context.Context, file attachment.File, meta notification.UploadMetadata) (*notification.UploadResponse, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	ctx, body := withErrorBody(ctx)
	c.log.Debug("slack: uploading file", "filename", file.Filename, "size", humanize.Bytes(uint64(len(file.Content))))
	summary, err := c.api.UploadFileV2Context(ctx, slackgo.UploadFileV2Parameters{
		Reader:         bytes.NewReader(file.Content),
		FileSize:       len(file.Content),
		Filename:       file.Filename,
		Title:          meta.Title,
		InitialComment: meta.InitialComment,
		Channel:        meta.Channels,
	})
	if err != nil {
		return nil, remoteError(opUploadFile, err, body.String())
	}
	return &notification.UploadResponse{FileID: summary.ID, Title: summary.Title}, nil
}

func messageOptions(p message.Payload) []slackgo.MsgOption {
	var options []slackgo.MsgOption
	if p.Text != "" {
		options = append(options, slackgo.MsgOptionText(p.Text, false))
	}
	if len(p.Blocks) > 0 {
		options = append(options, slackgo.MsgOptionBlocks(toSlackBlocks(p.Blocks)...))
	}
	return options
}

// wireBlock hands a composed block to slack-go unchanged: slack-go marshals
// it with the block's own JSON, so raw blocks and "verbatim":false survive.
type wireBlock struct {
	message.Block
}

func (b wireBlock) BlockType() slackgo.MessageBlockType {
	return slackgo.MessageBlockType(b.Block.BlockType())
}

func (wireBlock) ID() string { return "" }

func (b wireBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Block)
}

func toSlackBlocks(blocks []message.Block) []slackgo.Block {
	out := make([]slackgo.Block, len(blocks))
	for i, b := range blocks {
		out[i] = wireBlock{b}
	}
	return out
}

// remoteError keeps the remote's own error text as the body. body is the
// captured response of a non-2xx call, if any.
func remoteError(op string, err error, body string) error {
	var (
		apiErr    slackgo.SlackErrorResponse
		statusErr slackgo.StatusCodeError
		rateErr   *slackgo.RateLimitedError
	)
	switch {
	case errors.As(err, &apiErr):
		return &notification.RemoteError{Op: op, Body: apiErr.Err, Err: err}
	case errors.As(err, &statusErr):
		if body == "" {
			body = statusErr.Status
		}
		return &notification.RemoteError{Op: op, Body: body, Err: err}
	case errors.As(err, &rateErr):
		return &notification.RemoteError{Op: op, Body: rateErr.Error(), Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
