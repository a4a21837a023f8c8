package index

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/quillcraft/inkwell/core/errors"
)

// Query is a parsed search query: bare terms, quoted phrases (whose words
// search as terms), and an optional doc:<id> filter.
type Query struct {
	Terms []string
	DocID string
}

// queryGrammar is the participle grammar for the search query language.
// Examples: `fox`, `"quick brown fox"`, `doc:scene-12 rain`
//
//nolint:govet // participle grammar tags are not standard struct tags
type queryGrammar struct {
	Parts []*queryPart `parser:"@@*"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type queryPart struct {
	Filter *filterPart `parser:"@@"`
	Phrase *string     `parser:"| @String"`
	Term   *string     `parser:"| @Word"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type filterPart struct {
	Key   string `parser:"@Word \":\""`
	Value string `parser:"@Word"`
}

// queryLexer defines the lexer for search queries.
var queryLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"[^"]*"`},
	{Name: "Word", Pattern: `[^\s:"]+`},
	{Name: "Colon", Pattern: `:`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// queryParser is the participle parser for search queries.
var queryParser = participle.MustBuild[queryGrammar](
	participle.Lexer(queryLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

// ParseQuery parses the search query language. A plain string of words is a
// valid query, so callers may pass raw user input directly.
func ParseQuery(s string) (*Query, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.NewValidation("query", "empty query")
	}

	parsed, err := queryParser.ParseString("", s)
	if err != nil {
		return nil, errors.Wrap(err, "parse query")
	}

	q := &Query{}
	for _, part := range parsed.Parts {
		switch {
		case part.Filter != nil:
			if part.Filter.Key != "doc" {
				return nil, errors.NewValidation("query", "unknown filter: "+part.Filter.Key)
			}
			q.DocID = part.Filter.Value
		case part.Phrase != nil:
			q.Terms = append(q.Terms, Tokenize(*part.Phrase)...)
		case part.Term != nil:
			q.Terms = append(q.Terms, Tokenize(*part.Term)...)
		}
	}
	if len(q.Terms) == 0 {
		return nil, errors.NewValidation("query", "query has no search terms")
	}
	return q, nil
}

// SearchQuery runs a parsed query against the index, honoring its doc filter.
func (ix *Index) SearchQuery(q *Query, limit int) []Hit {
	return ix.search(strings.Join(q.Terms, " "), limit, q.DocID)
}
