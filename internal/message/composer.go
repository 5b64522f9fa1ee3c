package message

import (
	"fmt"
	"strings"
)

// MaxContextElements is the Block Kit ceiling for elements in one context block.
const MaxContextElements = 10

// DefaultListMarker prefixes every item rendered by List.
const DefaultListMarker = "•"

// state is where the composer sits in the section/fields pairing.
//
//	idle --Section--> sectionOpen --Fields--> fieldsOpen
//	idle <--EndSection-- sectionOpen <--EndFields-- fieldsOpen
type state int

const (
	stateIdle state = iota
	stateSectionOpen
	stateFieldsOpen
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateSectionOpen:
		return "section open"
	case stateFieldsOpen:
		return "fields open"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// mode is decided by the first block-producing call and fixed until the
// composer is drained.
type mode int

const (
	modeUnset mode = iota
	modeGuided
	modeRaw
)

// Composer accumulates one message. Every builder method returns the same
// Composer so calls can be chained; the first failure is kept and turns the
// remaining calls into no-ops until Finalize or Reset.
//
// A Composer is not safe for concurrent use.
type Composer struct {
	text    string
	mode    mode
	blocks  []Block
	state   state
	section *SectionBlock
	fields  []TextObject
	err     error
}

// NewComposer returns an empty Composer.
func NewComposer() *Composer {
	return &Composer{}
}

// Err returns the first failure recorded since the last Finalize or Reset.
func (c *Composer) Err() error { return c.err }

func (c *Composer) fail(err error) *Composer {
	c.err = err
	return c
}

// guided switches the composer into guided mode, rejecting it after raw blocks.
func (c *Composer) guided(op string) bool {
	if c.mode == modeRaw {
		c.fail(fmt.Errorf("%w: %s can not be combined with raw blocks", ErrCompositionConflict, op))
		return false
	}
	c.mode = modeGuided
	return true
}

// Text sets the top-level text. The last call wins.
func (c *Composer) Text(text string) *Composer {
	if c.err != nil {
		return c
	}
	c.text = text
	return c
}

// Blocks installs caller-built blocks as the whole block list. It can not be
// mixed with the guided methods in the same message. Guided mode is only ever
// entered by a call that appended a block or opened a section. Calling Blocks
// with no blocks clears a previous raw list and fixes no mode.
func (c *Composer) Blocks(blocks ...Block) *Composer {
	if c.err != nil {
		return c
	}
	if c.mode == modeGuided {
		return c.fail(fmt.Errorf("%w: raw blocks can not be combined with other composition methods", ErrCompositionConflict))
	}
	if len(blocks) == 0 {
		c.mode = modeUnset
		c.blocks = nil
		return c
	}
	c.mode = modeRaw
	c.blocks = append([]Block(nil), blocks...)
	return c
}

// Header appends a plain-text header block.
func (c *Composer) Header(text string) *Composer {
	if c.err != nil {
		return c
	}
	if c.state != stateIdle {
		return c.fail(fmt.Errorf("%w: a header can not be inside a section", ErrCompositionConflict))
	}
	if !c.guided("header") {
		return c
	}
	c.blocks = append(c.blocks, &HeaderBlock{Text: PlainTextElement(text)})
	return c
}

// Context appends a context block with a single mrkdwn element.
func (c *Composer) Context(text string) *Composer {
	return c.ContextElements(MarkdownElement(text))
}

// ContextElements appends a context block holding elements in order.
func (c *Composer) ContextElements(elements ...ContextElement) *Composer {
	if c.err != nil {
		return c
	}
	if len(elements) > MaxContextElements {
		return c.fail(fmt.Errorf("%w: context takes at most %d elements, got %d",
			ErrLimitExceeded, MaxContextElements, len(elements)))
	}
	if !c.guided("context") {
		return c
	}
	c.blocks = append(c.blocks, &ContextBlock{Elements: append([]ContextElement(nil), elements...)})
	return c
}

// Divider appends a divider block.
func (c *Composer) Divider() *Composer {
	if c.err != nil {
		return c
	}
	if !c.guided("divider") {
		return c
	}
	c.blocks = append(c.blocks, &DividerBlock{})
	return c
}

// List renders items as "<marker> item" lines inside a text-only section.
// An empty marker falls back to DefaultListMarker.
func (c *Composer) List(items []string, marker string) *Composer {
	if marker == "" {
		marker = DefaultListMarker
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = marker + " " + item
	}
	return c.Section(strings.Join(lines, "\n")).EndSection()
}

// Section opens a section. Non-empty text is set as the section's mrkdwn text.
// Sections do not nest.
func (c *Composer) Section(text string) *Composer {
	if c.err != nil {
		return c
	}
	if c.state != stateIdle {
		return c.fail(fmt.Errorf("%w: nested sections are not supported", ErrCompositionConflict))
	}
	if !c.guided("section") {
		return c
	}
	c.section = &SectionBlock{}
	if text != "" {
		t := MarkdownElement(text)
		c.section.Text = &t
	}
	c.state = stateSectionOpen
	return c
}

// EndSection appends the open section to the message.
func (c *Composer) EndSection() *Composer {
	if c.err != nil {
		return c
	}
	switch c.state {
	case stateIdle:
		return c.fail(fmt.Errorf("%w: no section is open", ErrCompositionConflict))
	case stateFieldsOpen:
		return c.fail(fmt.Errorf("%w: fields must be closed before the section", ErrCompositionConflict))
	}
	c.blocks = append(c.blocks, c.section)
	c.section = nil
	c.state = stateIdle
	return c
}

// Fields starts collecting fields for the open section.
func (c *Composer) Fields() *Composer {
	if c.err != nil {
		return c
	}
	switch c.state {
	case stateIdle:
		return c.fail(fmt.Errorf("%w: fields can only be opened inside a section", ErrCompositionConflict))
	case stateFieldsOpen:
		return c.fail(fmt.Errorf("%w: fields are already open", ErrCompositionConflict))
	}
	c.fields = []TextObject{}
	c.state = stateFieldsOpen
	return c
}

// Markdown adds a mrkdwn field to the open fields collection.
func (c *Composer) Markdown(text string, verbatim bool) *Composer {
	return c.field("markdown", Markdown(text, verbatim))
}

// PlainText adds a plain_text field to the open fields collection.
func (c *Composer) PlainText(text string, emoji bool) *Composer {
	return c.field("plain_text", PlainText(text, emoji))
}

func (c *Composer) field(kind string, f TextObject) *Composer {
	if c.err != nil {
		return c
	}
	if c.state != stateFieldsOpen {
		return c.fail(fmt.Errorf("%w: %s can not exist outside fields", ErrFieldsNotOpen, kind))
	}
	c.fields = append(c.fields, f)
	return c
}

// EndFields moves the collected fields onto the open section.
func (c *Composer) EndFields() *Composer {
	if c.err != nil {
		return c
	}
	if c.state != stateFieldsOpen {
		return c.fail(fmt.Errorf("%w: no fields to close", ErrFieldsNotOpen))
	}
	c.section.Fields = append(c.section.Fields, c.fields...)
	c.fields = nil
	c.state = stateSectionOpen
	return c
}

// Finalize validates the composition and drains it into a Payload, leaving
// the Composer empty for the next message. On error nothing is drained.
func (c *Composer) Finalize() (Payload, error) {
	if c.err != nil {
		return Payload{}, c.err
	}
	switch c.state {
	case stateSectionOpen:
		return Payload{}, ErrUnterminatedSection
	case stateFieldsOpen:
		return Payload{}, ErrUnterminatedFields
	}
	return c.take(), nil
}

// take hands over the accumulated text and blocks and resets the composer.
func (c *Composer) take() Payload {
	p := Payload{Text: c.text}
	if len(c.blocks) > 0 {
		p.Blocks = c.blocks
	}
	c.Reset()
	return p
}

// Reset discards everything accumulated, including a recorded failure.
func (c *Composer) Reset() {
	*c = Composer{}
}
