package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/quillcraft/inkwell/core/doc"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return s
}

func testDoc(t *testing.T) *doc.Document {
	t.Helper()
	d := doc.New("d1", "Draft")
	d.Append(doc.NewHeading("Chapter One", 1))
	d.Append(doc.NewBlock("It was a dark night."))
	return d
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := testStore(t)
	d := testDoc(t)

	rev, err := s.Save(d)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if rev.Version != d.BaseVersion || len(rev.SHA256) != 64 || len(rev.BLAKE3) != 64 {
		t.Fatalf("unexpected revision: %+v", rev)
	}
	if !s.Exists(d.BaseVersion) {
		t.Error("saved revision not reported by Exists")
	}

	got, err := s.LoadVersion(d.BaseVersion)
	if err != nil {
		t.Fatalf("LoadVersion failed: %v", err)
	}
	if got.ID != d.ID || got.Title != d.Title || got.BaseVersion != d.BaseVersion {
		t.Errorf("loaded header = %+v, want %+v", got, d)
	}
	if len(got.Blocks) != 2 || got.Blocks[1].Text != "It was a dark night." {
		t.Errorf("loaded blocks = %+v", got.Blocks)
	}
	if got.Lookup(got.Blocks[0].ID) != got.Blocks[0] {
		t.Error("loaded document not reindexed")
	}
}

func TestLoadByBlake3(t *testing.T) {
	s := testStore(t)
	d := testDoc(t)

	rev, err := s.Save(d)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := s.LoadByBlake3(rev.BLAKE3)
	if err != nil {
		t.Fatalf("LoadByBlake3 failed: %v", err)
	}
	if got.BaseVersion != d.BaseVersion {
		t.Errorf("loaded version = %q, want %q", got.BaseVersion, d.BaseVersion)
	}
}

func TestSaveIsIdempotent(t *testing.T) {
	s := testStore(t)
	d := testDoc(t)

	r1, err := s.Save(d)
	if err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	r2, err := s.Save(d)
	if err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	if r1.SHA256 != r2.SHA256 || r1.BLAKE3 != r2.BLAKE3 {
		t.Errorf("re-saving the same revision changed its address: %+v vs %+v", r1, r2)
	}
}

func TestHistoryKeepsEveryRevision(t *testing.T) {
	s := testStore(t)
	d := testDoc(t)

	if _, err := s.Save(d); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	v1 := d.BaseVersion

	d.Blocks[1].SetText("It was a bright morning.")
	d.Reindex()
	if _, err := s.Save(d); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	old, err := s.LoadVersion(v1)
	if err != nil {
		t.Fatalf("LoadVersion(old) failed: %v", err)
	}
	if old.Blocks[1].Text != "It was a dark night." {
		t.Errorf("old revision text = %q", old.Blocks[1].Text)
	}
	cur, err := s.LoadVersion(d.BaseVersion)
	if err != nil {
		t.Fatalf("LoadVersion(current) failed: %v", err)
	}
	if cur.Blocks[1].Text != "It was a bright morning." {
		t.Errorf("current revision text = %q", cur.Blocks[1].Text)
	}
}

func TestLoadErrors(t *testing.T) {
	s := testStore(t)

	if _, err := s.LoadVersion("not-a-hash"); !errors.Is(err, ErrInvalidHash) {
		t.Errorf("malformed version: want ErrInvalidHash, got %v", err)
	}
	missing := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	if _, err := s.LoadVersion(missing); !errors.Is(err, ErrRevisionNotFound) {
		t.Errorf("absent version: want ErrRevisionNotFound, got %v", err)
	}
	if _, err := s.LoadByBlake3(missing); !errors.Is(err, ErrRevisionNotFound) {
		t.Errorf("absent blake3: want ErrRevisionNotFound, got %v", err)
	}
	if s.Exists(missing) || s.Exists("junk") {
		t.Error("Exists reported an absent revision")
	}
}

func TestBlobLayout(t *testing.T) {
	root := t.TempDir()
	s, err := NewStore(root)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	d := testDoc(t)
	rev, err := s.Save(d)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	blob := filepath.Join(root, "blobs", "sha256", rev.SHA256[:2], rev.SHA256)
	if _, err := os.Stat(blob); err != nil {
		t.Errorf("blob not stored under its sha256 fan-out path: %v", err)
	}
	ptr := filepath.Join(root, "versions", rev.Version[:2], rev.Version+".json")
	if _, err := os.Stat(ptr); err != nil {
		t.Errorf("version pointer missing: %v", err)
	}
	b3ptr := filepath.Join(root, "blobs", "blake3", rev.BLAKE3[:2], rev.BLAKE3+".json")
	if _, err := os.Stat(b3ptr); err != nil {
		t.Errorf("blake3 pointer missing: %v", err)
	}
}
