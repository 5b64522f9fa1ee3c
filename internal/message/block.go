// Package message composes Slack Block Kit payloads through a stateful builder.
//
// Only the subset of Block Kit the builder produces is modelled here:
//
//	{ "text": "…", "blocks": [
//	    {"type":"header","text":{"type":"plain_text","text":"…"}},
//	    {"type":"context","elements":[{"type":"mrkdwn","text":"…"}]},
//	    {"type":"divider"},
//	    {"type":"section","text":{"type":"mrkdwn","text":"…"},
//	     "fields":[{"type":"mrkdwn","verbatim":false,"text":"…"}]} ] }
package message

import (
	"encoding/json"
	"fmt"
)

// Text object types.
const (
	TypeMarkdown  = "mrkdwn"
	TypePlainText = "plain_text"
)

// Block types.
const (
	BlockHeader  = "header"
	BlockContext = "context"
	BlockDivider = "divider"
	BlockSection = "section"
)

// Block is one structural unit of a message.
type Block interface {
	BlockType() string
}

// TextObject is a Block Kit text object. Emoji and Verbatim are only
// serialised when set, so header text stays {"type","text"}.
type TextObject struct {
	Type     string `json:"type"`
	Emoji    *bool  `json:"emoji,omitempty"`
	Verbatim *bool  `json:"verbatim,omitempty"`
	Text     string `json:"text"`
}

// Markdown returns a mrkdwn field. When verbatim is false Slack auto-links
// URLs, channel names and mentions.
func Markdown(text string, verbatim bool) TextObject {
	return TextObject{Type: TypeMarkdown, Verbatim: &verbatim, Text: text}
}

// PlainText returns a plain_text field. emoji controls whether :codes: render
// as emoji.
func PlainText(text string, emoji bool) TextObject {
	return TextObject{Type: TypePlainText, Emoji: &emoji, Text: text}
}

// MarkdownElement returns a bare mrkdwn object for context blocks.
func MarkdownElement(text string) TextObject {
	return TextObject{Type: TypeMarkdown, Text: text}
}

// PlainTextElement returns a bare plain_text object for context blocks.
func PlainTextElement(text string) TextObject {
	return TextObject{Type: TypePlainText, Text: text}
}

func (TextObject) contextElement() {}

// ContextElement is an item inside a context block.
type ContextElement interface {
	contextElement()
}

// ImageElement is a small image shown inside a context block.
type ImageElement struct {
	ImageURL string
	AltText  string
}

func (ImageElement) contextElement() {}

func (e ImageElement) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type     string `json:"type"`
		ImageURL string `json:"image_url"`
		AltText  string `json:"alt_text"`
	}{"image", e.ImageURL, e.AltText})
}

// HeaderBlock is a large plain-text heading.
type HeaderBlock struct {
	Text TextObject
}

func (*HeaderBlock) BlockType() string { return BlockHeader }

func (b *HeaderBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string     `json:"type"`
		Text TextObject `json:"text"`
	}{BlockHeader, b.Text})
}

// ContextBlock holds small auxiliary elements.
type ContextBlock struct {
	Elements []ContextElement
}

func (*ContextBlock) BlockType() string { return BlockContext }

func (b *ContextBlock) MarshalJSON() ([]byte, error) {
	elements := b.Elements
	if elements == nil {
		elements = []ContextElement{}
	}
	return json.Marshal(struct {
		Type     string           `json:"type"`
		Elements []ContextElement `json:"elements"`
	}{BlockContext, elements})
}

// DividerBlock is a horizontal rule.
type DividerBlock struct{}

func (*DividerBlock) BlockType() string { return BlockDivider }

func (*DividerBlock) MarshalJSON() ([]byte, error) {
	return []byte(`{"type":"divider"}`), nil
}

// SectionBlock carries optional mrkdwn text and optional fields.
type SectionBlock struct {
	Text   *TextObject
	Fields []TextObject
}

func (*SectionBlock) BlockType() string { return BlockSection }

func (b *SectionBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   string       `json:"type"`
		Text   *TextObject  `json:"text,omitempty"`
		Fields []TextObject `json:"fields,omitempty"`
	}{BlockSection, b.Text, b.Fields})
}

// RawBlock is a caller-supplied block passed through verbatim.
type RawBlock json.RawMessage

// BlockType reads the "type" key, or returns "" if the JSON has none.
func (r RawBlock) BlockType() string {
	var head struct {
		Type string `json:"type"`
	}
	_ = json.Unmarshal(r, &head)
	return head.Type
}

func (r RawBlock) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return []byte(r), nil
}

// ParseRawBlocks splits a JSON array into RawBlocks.
func ParseRawBlocks(data []byte) ([]Block, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse blocks: %w", err)
	}
	blocks := make([]Block, 0, len(items))
	for i, item := range items {
		raw := RawBlock(item)
		if raw.BlockType() == "" {
			return nil, fmt.Errorf("parse blocks: item %d has no type", i)
		}
		blocks = append(blocks, raw)
	}
	return blocks, nil
}

// Payload is a finalized message, ready to merge with a channel.
type Payload struct {
	Text   string  `json:"text,omitempty"`
	Blocks []Block `json:"blocks,omitempty"`
}

// IsEmpty reports whether the payload carries neither text nor blocks.
func (p Payload) IsEmpty() bool {
	return p.Text == "" && len(p.Blocks) == 0
}
