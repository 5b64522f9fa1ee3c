// Package recipe describes a notification as a YAML (or JSON) document and
// replays it through the notification builder.
//
//	channel: "#deploys"
//	text: Deploy finished
//	steps:
//	  - header: Deploy
//	  - section:
//	      text: "*api* is live"
//	      fields:
//	        - markdown: "*Env*\nprod"
//	        - plainText: ":rocket: fast"
//	          emoji: true
//	  - divider: true
//	  - list: {items: [migrations, cache warmup], marker: "-"}
//	  - context: triggered by ci
//
// A recipe may instead carry raw Block Kit JSON under "blocks"; the two forms
// can not be combined.
package recipe

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/slacknotify/slacknotify/internal/message"
	"github.com/slacknotify/slacknotify/internal/notification"
)

// Element is a context element or a section field. Exactly one of Markdown,
// PlainText or Image is set; Image is only valid in context elements.
type Element struct {
	Markdown  *string `yaml:"markdown,omitempty" json:"markdown,omitempty"`
	PlainText *string `yaml:"plainText,omitempty" json:"plainText,omitempty"`
	Image     *Image  `yaml:"image,omitempty" json:"image,omitempty"`
	Verbatim  bool    `yaml:"verbatim,omitempty" json:"verbatim,omitempty"`
	Emoji     bool    `yaml:"emoji,omitempty" json:"emoji,omitempty"`
}

// Image is a context image element.
type Image struct {
	URL string `yaml:"url" json:"url"`
	Alt string `yaml:"alt" json:"alt"`
}

// List renders a bullet list section.
type List struct {
	Items  []string `yaml:"items" json:"items"`
	Marker string   `yaml:"marker,omitempty" json:"marker,omitempty"`
}

// Section is a section with optional text and fields.
type Section struct {
	Text   string    `yaml:"text,omitempty" json:"text,omitempty"`
	Fields []Element `yaml:"fields,omitempty" json:"fields,omitempty"`
}

// Step is one builder call. Exactly one field is set.
type Step struct {
	Header          string    `yaml:"header,omitempty" json:"header,omitempty"`
	Context         string    `yaml:"context,omitempty" json:"context,omitempty"`
	ContextElements []Element `yaml:"contextElements,omitempty" json:"contextElements,omitempty"`
	Divider         bool      `yaml:"divider,omitempty" json:"divider,omitempty"`
	List            *List     `yaml:"list,omitempty" json:"list,omitempty"`
	Section         *Section  `yaml:"section,omitempty" json:"section,omitempty"`
}

// Recipe is a declarative notification.
type Recipe struct {
	Channel string `yaml:"channel,omitempty" json:"channel,omitempty"`
	Text    string `yaml:"text,omitempty" json:"text,omitempty"`
	Steps   []Step `yaml:"steps,omitempty" json:"steps,omitempty"`
	Blocks  []any  `yaml:"blocks,omitempty" json:"blocks,omitempty"`

	raw []message.Block
}

var errBlocksAndSteps = errors.New("recipe: blocks and steps are mutually exclusive")

// Load reads and validates a recipe file. JSON files parse as YAML.
func Load(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recipe %s: %w", path, err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("recipe %s: %w", path, err)
	}
	return r, nil
}

// Parse decodes and validates a recipe document.
func Parse(data []byte) (*Recipe, error) {
	var r Recipe
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Validate checks the shape of every step and converts raw blocks.
// Composition rules (nesting, limits) are left to the builder.
func (r *Recipe) Validate() error {
	if len(r.Blocks) > 0 && len(r.Steps) > 0 {
		return errBlocksAndSteps
	}
	for i, s := range r.Steps {
		if err := s.validate(); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	if len(r.Blocks) > 0 {
		data, err := json.Marshal(r.Blocks)
		if err != nil {
			return fmt.Errorf("blocks: %w", err)
		}
		raw, err := message.ParseRawBlocks(data)
		if err != nil {
			return err
		}
		r.raw = raw
	}
	return nil
}

func (s Step) validate() error {
	n := 0
	for _, set := range []bool{
		s.Header != "",
		s.Context != "",
		s.ContextElements != nil,
		s.Divider,
		s.List != nil,
		s.Section != nil,
	} {
		if set {
			n++
		}
	}
	if n != 1 {
		return fmt.Errorf("expected exactly one of header, context, contextElements, divider, list, section; got %d", n)
	}
	for i, e := range s.ContextElements {
		if err := e.validate(true); err != nil {
			return fmt.Errorf("context element %d: %w", i, err)
		}
	}
	if s.Section != nil {
		for i, f := range s.Section.Fields {
			if err := f.validate(false); err != nil {
				return fmt.Errorf("field %d: %w", i, err)
			}
		}
	}
	return nil
}

func (e Element) validate(allowImage bool) error {
	n := 0
	if e.Markdown != nil {
		n++
	}
	if e.PlainText != nil {
		n++
	}
	if e.Image != nil {
		if !allowImage {
			return errors.New("images are only allowed in context elements")
		}
		n++
	}
	if n != 1 {
		return errors.New("expected exactly one of markdown, plainText, image")
	}
	return nil
}

func (e Element) contextElement() message.ContextElement {
	switch {
	case e.Markdown != nil:
		return message.MarkdownElement(*e.Markdown)
	case e.PlainText != nil:
		return message.PlainTextElement(*e.PlainText)
	}
	return message.ImageElement{ImageURL: e.Image.URL, AltText: e.Image.Alt}
}

// Apply replays the recipe onto n. A recipe channel overrides the one already
// set on n. Composition failures are recorded on n and reported by Send.
func (r *Recipe) Apply(n *notification.Notification) *notification.Notification {
	if r.Channel != "" {
		n.To(r.Channel)
	}
	if r.Text != "" {
		n.Text(r.Text)
	}
	if len(r.raw) > 0 {
		return n.Blocks(r.raw...)
	}
	for _, s := range r.Steps {
		s.apply(n)
	}
	return n
}

func (s Step) apply(n *notification.Notification) {
	switch {
	case s.Header != "":
		n.Header(s.Header)
	case s.Context != "":
		n.Context(s.Context)
	case s.ContextElements != nil:
		elements := make([]message.ContextElement, len(s.ContextElements))
		for i, e := range s.ContextElements {
			elements[i] = e.contextElement()
		}
		n.ContextElements(elements...)
	case s.Divider:
		n.Divider()
	case s.List != nil:
		n.List(s.List.Items, s.List.Marker)
	case s.Section != nil:
		n.Section(s.Section.Text)
		if len(s.Section.Fields) > 0 {
			n.Fields()
			for _, f := range s.Section.Fields {
				if f.Markdown != nil {
					n.Markdown(*f.Markdown, f.Verbatim)
				} else {
					n.PlainText(*f.PlainText, f.Emoji)
				}
			}
			n.EndFields()
		}
		n.EndSection()
	}
}
