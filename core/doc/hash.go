package doc

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashBytes computes the SHA-256 hash of bytes and returns it as a hex string.
func HashBytes(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// NormalizeText canonicalizes block text before hashing: line endings become
// LF, trailing whitespace is stripped from each line, and leading/trailing
// blank space is trimmed from the whole text. Two texts that differ only in
// these respects hash identically.
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// HashBlock computes the content hash of block text. The text is normalized
// first so the hash is stable across whitespace and line-ending variants.
func HashBlock(text string) string {
	return HashBytes([]byte(NormalizeText(text)))
}

// HashDocument combines the ordered sequence of block ids and hashes into a
// single version digest. Any change to content, order, insertion, or deletion
// yields a different version. The id is folded in so two blocks with equal
// text remain distinguishable.
func HashDocument(blocks []*Block) string {
	h := sha256.New()
	for _, b := range blocks {
		h.Write([]byte(b.ID))
		h.Write([]byte{0x00})
		h.Write([]byte(b.Hash))
		h.Write([]byte{0x01})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyBlockHash checks if the stored hash matches the computed hash.
func VerifyBlockHash(b *Block) bool {
	if b.Hash == "" {
		return false
	}
	return b.Hash == HashBlock(b.Text)
}

// VerifyAllHashes verifies every block hash plus the document version digest.
// It returns the ids of blocks whose stored hash is stale; a stale BaseVersion
// is reported under the document's own id.
func VerifyAllHashes(d *Document) []string {
	var invalid []string
	for _, b := range d.Blocks {
		if !VerifyBlockHash(b) {
			invalid = append(invalid, b.ID)
		}
	}
	if d.BaseVersion != HashDocument(d.Blocks) {
		invalid = append(invalid, d.ID)
	}
	return invalid
}
