package analysis

import (
	_ "embed"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"fiatrouter/pkg/errors"
)

//go:embed knowledge.yaml
var defaultKnowledge []byte

// TokenProfile is the curated view of one token
type TokenProfile struct {
	Symbol     string   `yaml:"symbol"`
	Name       string   `yaml:"name"`
	Category   string   `yaml:"category"`
	Risk       string   `yaml:"risk"`
	Allocation string   `yaml:"allocation"`
	Notes      []string `yaml:"notes"`
}

// Summary renders the profile as a single fact sentence
func (p TokenProfile) Summary() string {
	return p.Symbol + " (" + p.Name + ") is a " + p.Category + " asset with " + p.Risk +
		" risk. Suggested allocation: " + p.Allocation + "."
}

// Entry is a question/answer pair retrieved by keyword overlap
type Entry struct {
	Question string   `yaml:"question"`
	Keywords []string `yaml:"keywords"`
	Answer   string   `yaml:"answer"`
}

// Match is a scored search hit
type Match struct {
	Entry
	Score int
}

// KnowledgeBase is the analyst's retrieval corpus
type KnowledgeBase struct {
	Tokens  []TokenProfile `yaml:"tokens"`
	Entries []Entry        `yaml:"entries"`

	bySymbol map[string]int
	byName   map[string]int
}

// LoadKnowledgeBase parses a YAML knowledge base
func LoadKnowledgeBase(data []byte) (*KnowledgeBase, error) {
	var kb KnowledgeBase
	if err := yaml.Unmarshal(data, &kb); err != nil {
		return nil, errors.Wrap(err, "parse knowledge base")
	}

	kb.bySymbol = make(map[string]int, len(kb.Tokens))
	kb.byName = make(map[string]int, len(kb.Tokens))
	for i, t := range kb.Tokens {
		if t.Symbol == "" {
			return nil, errors.NewValidationError("tokens.symbol", "must not be empty", i)
		}
		kb.bySymbol[strings.ToUpper(t.Symbol)] = i
		if t.Name != "" {
			kb.byName[strings.ToLower(t.Name)] = i
		}
	}
	for i, e := range kb.Entries {
		if e.Question == "" || e.Answer == "" {
			return nil, errors.NewValidationError("entries", "question and answer are required", i)
		}
		for j, kw := range e.Keywords {
			kb.Entries[i].Keywords[j] = strings.ToLower(kw)
		}
	}

	return &kb, nil
}

// DefaultKnowledgeBase returns the knowledge base compiled into the binary
func DefaultKnowledgeBase() (*KnowledgeBase, error) {
	return LoadKnowledgeBase(defaultKnowledge)
}

// Token looks up a profile by ticker or name, case-insensitively
func (kb *KnowledgeBase) Token(ref string) (TokenProfile, bool) {
	if i, ok := kb.bySymbol[strings.ToUpper(ref)]; ok {
		return kb.Tokens[i], true
	}
	if i, ok := kb.byName[strings.ToLower(ref)]; ok {
		return kb.Tokens[i], true
	}
	return TokenProfile{}, false
}

// TokensIn returns the profiles mentioned in text, in order of first mention
func (kb *KnowledgeBase) TokensIn(text string) []TokenProfile {
	var (
		out  []TokenProfile
		seen = map[string]bool{}
	)
	for _, w := range words(text) {
		p, ok := kb.Token(w)
		if !ok || seen[p.Symbol] {
			continue
		}
		seen[p.Symbol] = true
		out = append(out, p)
	}
	return out
}

// Search returns up to limit entries sharing keywords with query, best first
func (kb *KnowledgeBase) Search(query string, limit int) []Match {
	present := map[string]bool{}
	for _, w := range words(query) {
		present[w] = true
	}

	var matches []Match
	for _, e := range kb.Entries {
		score := 0
		for _, kw := range e.Keywords {
			if present[kw] {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, Match{Entry: e, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
