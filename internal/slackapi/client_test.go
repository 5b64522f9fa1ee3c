package slackapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/slacknotify/slacknotify/internal/attachment"
	"github.com/slacknotify/slacknotify/internal/message"
	"github.com/slacknotify/slacknotify/internal/notification"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return New(Params{Token: "xoxb-test", APIURL: srv.URL + "/"})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestPostMessage(t *testing.T) {
	var form map[string]string
	mux := http.NewServeMux()
	mux.HandleFunc("/chat.postMessage", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		form = map[string]string{
			"channel": r.FormValue("channel"),
			"text":    r.FormValue("text"),
			"blocks":  r.FormValue("blocks"),
		}
		writeJSON(w, map[string]any{"ok": true, "channel": "C123", "ts": "1700000000.000100"})
	})
	c := newTestClient(t, mux)

	payload, err := message.NewComposer().
		Text("fallback").
		Header("Deploy").
		Section("done").Fields().Markdown("*env*", false).EndFields().EndSection().
		Finalize()
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	resp, err := c.PostMessage(context.Background(), notification.OutgoingMessage{Channel: "channel-1", Payload: payload})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Channel != "C123" || resp.Timestamp != "1700000000.000100" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if form["channel"] != "channel-1" {
		t.Errorf("expected channel-1, got %q", form["channel"])
	}
	if form["text"] != "fallback" {
		t.Errorf("expected text, got %q", form["text"])
	}

	var blocks []map[string]any
	if err := json.Unmarshal([]byte(form["blocks"]), &blocks); err != nil {
		t.Fatalf("decode blocks %q: %v", form["blocks"], err)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0]["type"] != "header" || blocks[1]["type"] != "section" {
		t.Errorf("unexpected block order: %v", blocks)
	}
	fields, _ := blocks[1]["fields"].([]any)
	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %v", blocks[1]["fields"])
	}
	if f := fields[0].(map[string]any); f["type"] != "mrkdwn" || f["text"] != "*env*" {
		t.Errorf("unexpected field: %v", f)
	}
}

func TestPostMessage_APIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat.postMessage", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"ok": false, "error": "channel_not_found"})
	})
	c := newTestClient(t, mux)

	_, err := c.PostMessage(context.Background(), notification.OutgoingMessage{
		Channel: "nope",
		Payload: message.Payload{Text: "x"},
	})
	var re *notification.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("expected *RemoteError, got %v", err)
	}
	if re.Op != opPostMessage || re.Body != "channel_not_found" {
		t.Errorf("unexpected remote error: %+v", re)
	}
	if !strings.Contains(err.Error(), "channel_not_found") {
		t.Errorf("expected body in message, got %q", err.Error())
	}
}

func TestPostMessage_HTTPError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat.postMessage", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	c := newTestClient(t, mux)

	_, err := c.PostMessage(context.Background(), notification.OutgoingMessage{
		Channel: "c",
		Payload: message.Payload{Text: "x"},
	})
	var re *notification.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("expected *RemoteError, got %v", err)
	}
	if re.Body != "boom" {
		t.Errorf("expected response body, got %q", re.Body)
	}
}

func TestUploadFile(t *testing.T) {
	var (
		uploaded       string
		uploadName     string
		channelID      string
		initialComment string
		filesParam     string
	)
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/files.getUploadURLExternal", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.FormValue("filename") != "testname.txt" || r.FormValue("length") != "12" {
			t.Errorf("unexpected upload url request: %v", r.Form)
		}
		writeJSON(w, map[string]any{"ok": true, "upload_url": srv.URL + "/upload", "file_id": "F1"})
	})
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		uploaded = string(data)
		uploadName = hdr.Filename
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/files.completeUploadExternal", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		channelID = r.FormValue("channel_id")
		initialComment = r.FormValue("initial_comment")
		filesParam = r.FormValue("files")
		writeJSON(w, map[string]any{"ok": true, "files": []map[string]string{{"id": "F1", "title": "test title"}}})
	})

	c := New(Params{Token: "xoxb-test", APIURL: srv.URL + "/"})
	resp, err := c.UploadFile(context.Background(),
		attachment.File{Content: []byte("test content"), Filename: "testname.txt"},
		notification.UploadMetadata{
			Channels: "C123",
			Metadata: attachment.Metadata{Title: "test title", InitialComment: "test comment"},
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.FileID != "F1" || resp.Title != "test title" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if uploaded != "test content" || uploadName != "testname.txt" {
		t.Errorf("unexpected upload: %q as %q", uploaded, uploadName)
	}
	if channelID != "C123" || initialComment != "test comment" {
		t.Errorf("unexpected completion form: channel=%q comment=%q", channelID, initialComment)
	}
	if !strings.Contains(filesParam, `"title":"test title"`) {
		t.Errorf("expected title in files param, got %q", filesParam)
	}
}

func TestToSlackBlocks_KeepsOrder(t *testing.T) {
	p, err := message.NewComposer().Divider().Context("c").List([]string{"a"}, "").Finalize()
	if err != nil {
		t.Fatal(err)
	}
	blocks := toSlackBlocks(p.Blocks)
	want := []string{"divider", "context", "section"}
	if len(blocks) != len(want) {
		t.Fatalf("expected %d blocks, got %d", len(want), len(blocks))
	}
	for i, b := range blocks {
		if string(b.BlockType()) != want[i] {
			t.Errorf("block %d: expected %s, got %s", i, want[i], b.BlockType())
		}
	}
}

func TestPostMessage_BlocksSentVerbatim(t *testing.T) {
	var got string
	mux := http.NewServeMux()
	mux.HandleFunc("/chat.postMessage", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		got = r.FormValue("blocks")
		writeJSON(w, map[string]any{"ok": true, "channel": "C1", "ts": "1.2"})
	})
	c := newTestClient(t, mux)

	raw := `[{"type":"section","text":{"type":"mrkdwn","text":"hi"},"custom_key":1},{"type":"totally_new_block","foo":"bar"}]`
	blocks, err := message.ParseRawBlocks([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	p, err := message.NewComposer().Blocks(blocks...).Finalize()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.PostMessage(context.Background(), notification.OutgoingMessage{Channel: "c", Payload: p}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != raw {
		t.Errorf("expected raw blocks unchanged\nwant %s\ngot  %s", raw, got)
	}

	p, _ = message.NewComposer().Section("").Fields().Markdown("m", false).EndFields().EndSection().Finalize()
	if _, err := c.PostMessage(context.Background(), notification.OutgoingMessage{Channel: "c", Payload: p}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `[{"type":"section","fields":[{"type":"mrkdwn","verbatim":false,"text":"m"}]}]`
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestWebhook(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	w := NewWebhook(srv.URL, nil)
	p, _ := message.NewComposer().Text("hi").Divider().Finalize()
	if _, err := w.PostMessage(context.Background(), notification.OutgoingMessage{Channel: "#ops", Payload: p}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body["text"] != "hi" || body["channel"] != "#ops" {
		t.Errorf("unexpected webhook body: %v", body)
	}
	blocks, _ := body["blocks"].([]any)
	if len(blocks) != 1 {
		t.Errorf("expected 1 block, got %v", body["blocks"])
	}

	if _, err := w.UploadFile(context.Background(), attachment.File{}, notification.UploadMetadata{}); !errors.Is(err, ErrUploadUnsupported) {
		t.Errorf("expected ErrUploadUnsupported, got %v", err)
	}
}

func TestWebhook_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid_payload", http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	_, err := NewWebhook(srv.URL, nil).PostMessage(context.Background(), notification.OutgoingMessage{
		Payload: message.Payload{Text: "x"},
	})
	var re *notification.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("expected *RemoteError, got %v", err)
	}
	if re.Op != opWebhook || re.Body != "invalid_payload" {
		t.Errorf("unexpected remote error: %+v", re)
	}
}

func TestWebhook_BlocksSentVerbatim(t *testing.T) {
	var body struct {
		Blocks json.RawMessage `json:"blocks"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	raw := `[{"type":"totally_new_block","foo":"bar"}]`
	blocks, err := message.ParseRawBlocks([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	p, _ := message.NewComposer().Blocks(blocks...).Finalize()
	if _, err := NewWebhook(srv.URL, nil).PostMessage(context.Background(), notification.OutgoingMessage{Payload: p}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body.Blocks) != raw {
		t.Errorf("expected %s, got %s", raw, body.Blocks)
	}
}
