// Package index provides an in-memory inverted lexical index over block text
// with BM25-style ranked retrieval. The index is a derived cache: it carries
// no independent source of truth and is fully reconstructable from the
// document store via RebuildFromDocuments.
package index

import (
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/quillcraft/inkwell/core/doc"
	"github.com/quillcraft/inkwell/internal/logging"
)

// BM25 parameters. No inverse-document-frequency term is applied; with one
// collection per process the corpus-level statistics add little and the
// simplification keeps scoring exactly reversible under add/remove.
const (
	k1 = 1.5
	b  = 0.75
)

// previewLen is the maximum preview length in bytes.
const previewLen = 160

// Chunk is one indexed entry: a block's text keyed by document and block id.
type Chunk struct {
	DocID   string `json:"doc_id"`
	BlockID string `json:"block_id"`
	Text    string `json:"text"`
	Hash    string `json:"hash"`
}

// Hit is one ranked query result.
type Hit struct {
	DocID   string  `json:"doc_id"`
	BlockID string  `json:"block_id"`
	Score   float64 `json:"score"`
	Preview string  `json:"preview"`
}

type key struct {
	docID   string
	blockID string
}

type entry struct {
	terms  map[string]int // term -> occurrence count
	length int            // total term count
	text   string
	hash   string
}

// Index is the inverted index. Safe for concurrent use.
type Index struct {
	mu       sync.RWMutex
	postings map[string]map[key]struct{} // term -> block keys
	entries  map[key]*entry
	totalLen int // running sum of entry lengths, for the average
}

// New creates an empty index.
func New() *Index {
	return &Index{
		postings: make(map[string]map[key]struct{}),
		entries:  make(map[key]*entry),
	}
}

// Tokenize splits text into lowercase alphabetic runs. Digits, punctuation,
// and whitespace all act as separators.
func Tokenize(text string) []string {
	var terms []string
	var run strings.Builder
	flush := func() {
		if run.Len() > 0 {
			terms = append(terms, run.String())
			run.Reset()
		}
	}
	for _, r := range text {
		if unicode.IsLetter(r) {
			run.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()
	return terms
}

// Add indexes a chunk. Adding a key that is already present replaces it.
func (ix *Index) Add(c Chunk) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	k := key{c.DocID, c.BlockID}
	if _, exists := ix.entries[k]; exists {
		ix.removeLocked(k)
	}

	terms := Tokenize(c.Text)
	e := &entry{
		terms:  make(map[string]int),
		length: len(terms),
		text:   c.Text,
		hash:   c.Hash,
	}
	for _, t := range terms {
		e.terms[t]++
	}
	ix.entries[k] = e
	ix.totalLen += e.length
	for t := range e.terms {
		set := ix.postings[t]
		if set == nil {
			set = make(map[key]struct{})
			ix.postings[t] = set
		}
		set[k] = struct{}{}
	}
}

// Remove unindexes a block. It fully undoes the earlier Add, including the
// average-length bookkeeping; removing an absent key is a no-op.
func (ix *Index) Remove(docID, blockID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(key{docID, blockID})
}

func (ix *Index) removeLocked(k key) {
	e, ok := ix.entries[k]
	if !ok {
		return
	}
	for t := range e.terms {
		set := ix.postings[t]
		delete(set, k)
		if len(set) == 0 {
			delete(ix.postings, t)
		}
	}
	ix.totalLen -= e.length
	delete(ix.entries, k)
}

// Update reindexes a block with new text.
func (ix *Index) Update(c Chunk) {
	ix.Add(c)
}

// RemoveDoc unindexes every block of one document. Used when the owning
// content unit is deleted.
func (ix *Index) RemoveDoc(docID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for k := range ix.entries {
		if k.docID == docID {
			ix.removeLocked(k)
		}
	}
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Search tokenizes the query, scores every candidate block with the BM25
// formula summed over query terms, and returns the top hits with previews.
func (ix *Index) Search(query string, limit int) []Hit {
	return ix.search(query, limit, "")
}

// SearchInDoc is Search restricted to one document.
func (ix *Index) SearchInDoc(docID, query string, limit int) []Hit {
	return ix.search(query, limit, docID)
}

func (ix *Index) search(query string, limit int, docFilter string) []Hit {
	terms := Tokenize(query)
	if len(terms) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = 10
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.entries) == 0 {
		return nil
	}
	avgLen := float64(ix.totalLen) / float64(len(ix.entries))
	if avgLen == 0 {
		avgLen = 1
	}

	scores := make(map[key]float64)
	for _, t := range terms {
		for k := range ix.postings[t] {
			if docFilter != "" && k.docID != docFilter {
				continue
			}
			e := ix.entries[k]
			tf := float64(e.terms[t])
			norm := k1 * (1 - b + b*float64(e.length)/avgLen)
			scores[k] += tf * (k1 + 1) / (tf + norm)
		}
	}
	if len(scores) == 0 {
		return nil
	}

	hits := make([]Hit, 0, len(scores))
	for k, s := range scores {
		hits = append(hits, Hit{
			DocID:   k.docID,
			BlockID: k.blockID,
			Score:   s,
			Preview: preview(ix.entries[k].text),
		})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].DocID != hits[j].DocID {
			return hits[i].DocID < hits[j].DocID
		}
		return hits[i].BlockID < hits[j].BlockID
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// preview returns the head of the text, cut at a word boundary.
func preview(text string) string {
	if len(text) <= previewLen {
		return text
	}
	cut := text[:previewLen]
	if at := strings.LastIndexByte(cut, ' '); at > 0 {
		cut = cut[:at]
	}
	return cut + "…"
}

// RebuildFromDocuments clears the index and reindexes every block of the
// given documents. Called at startup and after any restart, since the index
// is process-local and never migrated.
func (ix *Index) RebuildFromDocuments(docs []*doc.Document) {
	ix.mu.Lock()
	ix.postings = make(map[string]map[key]struct{})
	ix.entries = make(map[key]*entry)
	ix.totalLen = 0
	ix.mu.Unlock()

	chunks := 0
	for _, d := range docs {
		for _, blk := range d.Blocks {
			ix.Add(Chunk{DocID: d.ID, BlockID: blk.ID, Text: blk.Text, Hash: blk.Hash})
			chunks++
		}
	}
	logging.IndexRebuilt(len(docs), chunks)
}

// IndexDocument indexes (or reindexes) every block of one document. Called
// after a successful apply so the index tracks the committed state.
func (ix *Index) IndexDocument(d *doc.Document) {
	ix.RemoveDoc(d.ID)
	for _, blk := range d.Blocks {
		ix.Add(Chunk{DocID: d.ID, BlockID: blk.ID, Text: blk.Text, Hash: blk.Hash})
	}
}
