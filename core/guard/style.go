package guard

import (
	"fmt"
	"regexp"
	"strings"
)

// Severity classifies a style hit.
type Severity string

// Severity levels. Style hits are advisory at every level.
const (
	SeverityInfo Severity = "info"
	SeverityWarn Severity = "warn"
)

// Style rule identifiers.
const (
	RuleWeakAdverb    = "weak-adverb"
	RulePassiveVoice  = "passive-voice"
	RuleBannedWord    = "banned-word"
	RuleLongParagraph = "long-paragraph"
	RuleCliche        = "cliche"
)

// StyleConfig holds the tunable word lists and limits for the style rules.
type StyleConfig struct {
	WeakAdverbs     []string `yaml:"weak_adverbs"`
	BannedWords     []string `yaml:"banned_words"`
	Cliches         []string `yaml:"cliches"`
	MaxParagraphLen int      `yaml:"max_paragraph_len"`
}

// DefaultStyleConfig returns the built-in rule configuration.
func DefaultStyleConfig() StyleConfig {
	return StyleConfig{
		WeakAdverbs: []string{
			"very", "really", "quite", "rather", "suddenly", "just",
			"actually", "basically", "literally", "somewhat", "totally",
		},
		Cliches: []string{
			"at the end of the day", "in the nick of time", "dead of night",
			"heart of gold", "cold as ice", "crystal clear",
			"each and every", "first and foremost",
		},
		MaxParagraphLen: 1200,
	}
}

// StyleHit is one advisory finding. It never blocks an operation.
type StyleHit struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Match    string   `json:"match,omitempty"`
	Offset   int      `json:"offset,omitempty"`
}

// passivePattern is a heuristic for passive constructions: a form of "to be"
// followed by a past participle.
var passivePattern = regexp.MustCompile(`(?i)\b(was|were|is|are|been|being|be)\s+(\w+ed|\w+own|made|done|held|kept|left|told|found)\b`)

var wordPattern = regexp.MustCompile(`[a-zA-Z']+`)

// EvaluateStyleRules runs every style rule over the text and returns the
// hits. Pure and advisory: no hit affects whether an edit proceeds.
func EvaluateStyleRules(text string, cfg StyleConfig) []StyleHit {
	var hits []StyleHit
	lower := strings.ToLower(text)

	weak := make(map[string]bool, len(cfg.WeakAdverbs))
	for _, w := range cfg.WeakAdverbs {
		weak[strings.ToLower(w)] = true
	}
	banned := make(map[string]bool, len(cfg.BannedWords))
	for _, w := range cfg.BannedWords {
		banned[strings.ToLower(w)] = true
	}

	for _, loc := range wordPattern.FindAllStringIndex(lower, -1) {
		word := lower[loc[0]:loc[1]]
		if weak[word] {
			hits = append(hits, StyleHit{
				Rule:     RuleWeakAdverb,
				Severity: SeverityInfo,
				Message:  fmt.Sprintf("weak modifier %q", word),
				Match:    word,
				Offset:   loc[0],
			})
		}
		if banned[word] {
			hits = append(hits, StyleHit{
				Rule:     RuleBannedWord,
				Severity: SeverityWarn,
				Message:  fmt.Sprintf("banned word %q", word),
				Match:    word,
				Offset:   loc[0],
			})
		}
	}

	for _, loc := range passivePattern.FindAllStringIndex(text, -1) {
		hits = append(hits, StyleHit{
			Rule:     RulePassiveVoice,
			Severity: SeverityInfo,
			Message:  fmt.Sprintf("possible passive voice: %q", text[loc[0]:loc[1]]),
			Match:    text[loc[0]:loc[1]],
			Offset:   loc[0],
		})
	}

	for _, phrase := range cfg.Cliches {
		p := strings.ToLower(phrase)
		if p == "" {
			continue
		}
		for from := 0; ; {
			at := strings.Index(lower[from:], p)
			if at < 0 {
				break
			}
			at += from
			hits = append(hits, StyleHit{
				Rule:     RuleCliche,
				Severity: SeverityInfo,
				Message:  fmt.Sprintf("cliche %q", phrase),
				Match:    phrase,
				Offset:   at,
			})
			from = at + len(p)
		}
	}

	if cfg.MaxParagraphLen > 0 && len(text) > cfg.MaxParagraphLen {
		hits = append(hits, StyleHit{
			Rule:     RuleLongParagraph,
			Severity: SeverityWarn,
			Message:  fmt.Sprintf("paragraph length %d exceeds %d", len(text), cfg.MaxParagraphLen),
		})
	}

	return hits
}
