// Package snapshot provides content-addressed storage for document revisions.
// Each saved revision is serialized to JSON, xz-compressed, and stored by its
// SHA-256 hash; pointer files map a document BaseVersion and a BLAKE3 digest
// to the blob, so any committed revision can be recovered by version.
package snapshot

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/quillcraft/inkwell/core/doc"
)

// ErrRevisionNotFound is returned when no blob or pointer exists for a hash
// or version digest.
var ErrRevisionNotFound = errors.New("revision not found")

// ErrInvalidHash is returned when a hash string is not a valid SHA-256 hex string.
var ErrInvalidHash = errors.New("invalid hash format")

// hashPattern matches a valid lowercase 256-bit hex digest (64 characters).
var hashPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// SavedRevision identifies one stored revision.
type SavedRevision struct {
	Version string `json:"version"` // the document BaseVersion
	SHA256  string `json:"sha256"`  // blob address
	BLAKE3  string `json:"blake3"`  // secondary digest of the blob
}

// pointer is the structure stored in version and blake3 pointer files.
type pointer struct {
	SHA256 string `json:"sha256"`
}

// Store is a content-addressed revision store rooted at a directory.
type Store struct {
	root string
}

// NewStore creates a revision store at the given root directory.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(root, "blobs", "sha256"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &Store{root: root}, nil
}

// Save serializes, compresses, and stores the document's current state,
// recording version and BLAKE3 pointers. Saving the same revision twice is a
// no-op thanks to content addressing.
func (s *Store) Save(d *doc.Document) (*SavedRevision, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal revision: %w", err)
	}

	var buf bytes.Buffer
	zw, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create xz writer: %w", err)
	}
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("failed to compress revision: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish compression: %w", err)
	}
	data := buf.Bytes()

	h := sha256.Sum256(data)
	sha := hex.EncodeToString(h[:])
	b3 := blake3.Sum256(data)
	b3hex := hex.EncodeToString(b3[:])

	if err := s.writeBlob(sha, data); err != nil {
		return nil, err
	}
	if err := s.writePointer(filepath.Join("versions", d.BaseVersion[:2], d.BaseVersion+".json"), sha); err != nil {
		return nil, err
	}
	if err := s.writePointer(filepath.Join("blobs", "blake3", b3hex[:2], b3hex+".json"), sha); err != nil {
		return nil, err
	}

	return &SavedRevision{Version: d.BaseVersion, SHA256: sha, BLAKE3: b3hex}, nil
}

// LoadVersion recovers the revision stored under the given BaseVersion digest.
func (s *Store) LoadVersion(version string) (*doc.Document, error) {
	if !hashPattern.MatchString(version) {
		return nil, ErrInvalidHash
	}
	sha, err := s.readPointer(filepath.Join("versions", version[:2], version+".json"))
	if err != nil {
		return nil, err
	}
	return s.load(sha)
}

// LoadByBlake3 recovers a revision by the BLAKE3 digest of its blob.
func (s *Store) LoadByBlake3(b3 string) (*doc.Document, error) {
	if !hashPattern.MatchString(b3) {
		return nil, ErrInvalidHash
	}
	sha, err := s.readPointer(filepath.Join("blobs", "blake3", b3[:2], b3+".json"))
	if err != nil {
		return nil, err
	}
	return s.load(sha)
}

// Exists checks whether a revision with the given BaseVersion is stored.
func (s *Store) Exists(version string) bool {
	if !hashPattern.MatchString(version) {
		return false
	}
	_, err := os.Stat(filepath.Join(s.root, "versions", version[:2], version+".json"))
	return err == nil
}

func (s *Store) load(sha string) (*doc.Document, error) {
	if !hashPattern.MatchString(sha) {
		return nil, ErrInvalidHash
	}
	data, err := os.ReadFile(filepath.Join(s.root, "blobs", "sha256", sha[:2], sha))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrRevisionNotFound
		}
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}

	zr, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open xz stream: %w", err)
	}
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress revision: %w", err)
	}

	var d doc.Document
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("failed to parse revision: %w", err)
	}
	d.Reindex()
	return &d, nil
}

// writeBlob stores a blob at its content address, atomically via a temp file.
func (s *Store) writeBlob(sha string, data []byte) error {
	path := filepath.Join(s.root, "blobs", "sha256", sha[:2], sha)
	if _, err := os.Stat(path); err == nil {
		return nil // already stored
	}
	return s.writeAtomic(path, data)
}

// writePointer stores a pointer file mapping a digest to a blob address.
func (s *Store) writePointer(rel, sha string) error {
	path := filepath.Join(s.root, rel)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	data, err := json.Marshal(pointer{SHA256: sha})
	if err != nil {
		return fmt.Errorf("failed to marshal pointer: %w", err)
	}
	return s.writeAtomic(path, data)
}

func (s *Store) readPointer(rel string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.root, rel))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrRevisionNotFound
		}
		return "", fmt.Errorf("failed to read pointer: %w", err)
	}
	var p pointer
	if err := json.Unmarshal(data, &p); err != nil {
		return "", fmt.Errorf("failed to parse pointer: %w", err)
	}
	return p.SHA256, nil
}

// writeAtomic writes data via a temp file and rename.
func (s *Store) writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".rev-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename: %w", err)
	}
	return nil
}
