package slackapi

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody caps how much of a rejected response is kept for RemoteError.
const maxErrorBody = 4 << 10

// errorBody receives the body of a non-2xx response made with its context.
type errorBody struct {
	text string
}

func (b *errorBody) String() string {
	if b == nil {
		return ""
	}
	return b.text
}

type errorBodyKey struct{}

// withErrorBody returns a context whose non-2xx responses are recorded in the
// returned errorBody. slack-go only reports the status line for those.
func withErrorBody(ctx context.Context) (context.Context, *errorBody) {
	b := &errorBody{}
	return context.WithValue(ctx, errorBodyKey{}, b), b
}

// bodyRecorder copies the body of non-2xx responses into the request's
// errorBody and hands slack-go an unread copy.
type bodyRecorder struct {
	base http.RoundTripper
}

func (t bodyRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil || resp.StatusCode/100 == 2 {
		return resp, err
	}
	b, ok := req.Context().Value(errorBodyKey{}).(*errorBody)
	if !ok {
		return resp, nil
	}
	data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(data))
	if readErr == nil {
		b.text = strings.TrimSpace(string(data))
	}
	return resp, nil
}

func newHTTPClient() *http.Client {
	return &http.Client{Transport: bodyRecorder{base: http.DefaultTransport}}
}
