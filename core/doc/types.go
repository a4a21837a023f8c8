// Package doc defines the versioned block document model at the heart of the
// Inkwell editing engine. A document is an ordered sequence of content blocks,
// each carrying a content hash of its text; the document's BaseVersion is a
// digest over the ordered block ids and hashes. These digests are the sole
// basis for optimistic-concurrency checks in the edit engine.
package doc

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// BlockType represents the kind of content block.
type BlockType string

// Block type constants.
const (
	BlockParagraph BlockType = "paragraph"
	BlockHeading   BlockType = "heading"
)

// validBlockTypes is the set of valid block types.
var validBlockTypes = map[BlockType]bool{
	BlockParagraph: true,
	BlockHeading:   true,
}

// IsValid returns true if the block type is valid.
func (t BlockType) IsValid() bool {
	return validBlockTypes[t]
}

// Block is the smallest addressable unit of document content.
type Block struct {
	// ID is the unique identifier within the document.
	ID string `json:"id"`

	// Type indicates the kind of block (paragraph or heading).
	Type BlockType `json:"type"`

	// Text is the raw UTF-8 text content.
	Text string `json:"text"`

	// Hash is the content digest of Text. A block is never observed with a
	// hash that does not match its text.
	Hash string `json:"hash"`

	// Level is the heading level (1-6), zero for paragraphs.
	Level int `json:"level,omitempty"`
}

// NewBlock creates a paragraph block with a fresh id and a computed hash.
func NewBlock(text string) *Block {
	return &Block{
		ID:   uuid.NewString(),
		Type: BlockParagraph,
		Text: text,
		Hash: HashBlock(text),
	}
}

// NewHeading creates a heading block with a fresh id and a computed hash.
func NewHeading(text string, level int) *Block {
	return &Block{
		ID:    uuid.NewString(),
		Type:  BlockHeading,
		Text:  text,
		Hash:  HashBlock(text),
		Level: level,
	}
}

// SetText replaces the block text and recomputes the content hash. All
// mutation paths go through here; the hash is never left stale.
func (b *Block) SetText(text string) {
	b.Text = text
	b.Hash = HashBlock(text)
}

// Clone returns a deep copy of the block.
func (b *Block) Clone() *Block {
	c := *b
	return &c
}

// Document is an ordered sequence of blocks with a version digest.
type Document struct {
	// ID is the document identifier (typically the owning scene or chapter id).
	ID string `json:"id"`

	// Title is the human-readable title.
	Title string `json:"title,omitempty"`

	// Blocks contains the document content in order.
	Blocks []*Block `json:"blocks"`

	// BaseVersion is the digest of the ordered block ids and hashes.
	BaseVersion string `json:"base_version"`

	// LastModified is the time of the last committed change.
	LastModified time.Time `json:"last_modified"`

	// byID is the id lookup maintained alongside Blocks.
	byID map[string]*Block
}

// New creates an empty document with a computed BaseVersion.
func New(id, title string) *Document {
	d := &Document{ID: id, Title: title, LastModified: time.Now().UTC()}
	d.Reindex()
	return d
}

// Reindex rebuilds the id lookup and the BaseVersion from the block sequence.
// Callers that replace Blocks wholesale must call this before further use.
func (d *Document) Reindex() {
	d.byID = make(map[string]*Block, len(d.Blocks))
	for _, b := range d.Blocks {
		d.byID[b.ID] = b
	}
	d.BaseVersion = HashDocument(d.Blocks)
}

// Lookup returns the block with the given id, or nil.
func (d *Document) Lookup(id string) *Block {
	if d.byID == nil {
		d.Reindex()
	}
	return d.byID[id]
}

// IndexOf returns the position of the block with the given id, or -1.
func (d *Document) IndexOf(id string) int {
	for i, b := range d.Blocks {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// Append adds a block to the end of the document and refreshes the version.
func (d *Document) Append(b *Block) {
	d.Blocks = append(d.Blocks, b)
	if d.byID == nil {
		d.byID = make(map[string]*Block)
	}
	d.byID[b.ID] = b
	d.BaseVersion = HashDocument(d.Blocks)
}

// Clone returns a deep copy of the document with its own block instances and
// id lookup. Mutating the clone never touches the original.
func (d *Document) Clone() *Document {
	c := &Document{
		ID:           d.ID,
		Title:        d.Title,
		BaseVersion:  d.BaseVersion,
		LastModified: d.LastModified,
		Blocks:       make([]*Block, len(d.Blocks)),
	}
	for i, b := range d.Blocks {
		c.Blocks[i] = b.Clone()
	}
	c.byID = make(map[string]*Block, len(c.Blocks))
	for _, b := range c.Blocks {
		c.byID[b.ID] = b
	}
	return c
}

// Text returns the full document text, blocks joined by blank lines.
func (d *Document) Text() string {
	parts := make([]string, len(d.Blocks))
	for i, b := range d.Blocks {
		parts[i] = b.Text
	}
	return strings.Join(parts, "\n\n")
}
