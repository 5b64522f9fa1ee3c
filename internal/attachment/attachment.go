// Package attachment collects a single pending file upload.
package attachment

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	ErrMissingFile     = errors.New("file was not provided or is empty")
	ErrMissingFilename = errors.New("need a file name")
)

// File is the file part of an upload.
type File struct {
	Content  []byte
	Filename string
}

// Metadata accompanies a File. Unset values are empty strings.
type Metadata struct {
	InitialComment string `json:"initial_comment"`
	Title          string `json:"title"`
}

// Composer accumulates one pending attachment. It is not safe for concurrent use.
type Composer struct {
	content        []byte
	filename       string
	initialComment string
	title          string
}

// NewComposer returns an empty Composer.
func NewComposer() *Composer {
	return &Composer{}
}

// File sets the bytes to upload and the name Slack shows for them.
func (c *Composer) File(content []byte, filename string) *Composer {
	c.content = content
	c.filename = filename
	return c
}

// ReadFile loads path from disk. An empty filename defaults to the base name of path.
func (c *Composer) ReadFile(path, filename string) (*Composer, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read attachment %s: %w", path, err)
	}
	if filename == "" {
		filename = filepath.Base(path)
	}
	return c.File(content, filename), nil
}

// InitialComment sets the message posted alongside the file.
func (c *Composer) InitialComment(text string) *Composer {
	c.initialComment = text
	return c
}

// Title sets the file title.
func (c *Composer) Title(text string) *Composer {
	c.title = text
	return c
}

// Finalize returns the pending upload and clears the composer. On error the
// composer is left untouched.
func (c *Composer) Finalize() (File, Metadata, error) {
	if len(c.content) == 0 {
		return File{}, Metadata{}, ErrMissingFile
	}
	if c.filename == "" {
		return File{}, Metadata{}, ErrMissingFilename
	}
	f := File{Content: c.content, Filename: c.filename}
	m := Metadata{InitialComment: c.initialComment, Title: c.title}
	c.Reset()
	return f, m, nil
}

// Reset discards the pending attachment.
func (c *Composer) Reset() {
	*c = Composer{}
}
