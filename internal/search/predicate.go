// Package search builds accent and whitespace tolerant text predicates that can
// be evaluated in Go or handed to MongoDB as $regex filters.
package search

import (
	"regexp"
	"strings"
	"unicode"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var vowelClasses = map[rune]string{
	'a': "[aáàäâ]",
	'e': "[eéèëê]",
	'i': "[iíìïî]",
	'o': "[oóòöô]",
	'u': "[uúùüû]",
}

// connectives are skipped in the flexible pattern so "frutas y verduras" still
// matches "Frutas-Verduras".
var connectives = map[string]struct{}{
	"y": {}, "e": {}, "o": {}, "u": {},
	"de": {}, "del": {}, "la": {}, "las": {}, "el": {}, "los": {}, "con": {},
}

// Predicate matches a value when any of its patterns is found in it,
// case-insensitively.
type Predicate struct {
	patterns []string
	compiled []*regexp.Regexp
}

// BuildPredicate returns the predicate for term. A blank term yields an empty
// predicate; callers decide what that means.
func BuildPredicate(term string) Predicate {
	term = strings.TrimSpace(term)
	if term == "" {
		return Predicate{}
	}

	candidates := []string{
		regexp.QuoteMeta(term),
		regexp.QuoteMeta(strings.Join(strings.Fields(term), "")),
		flexible(term),
	}

	var p Predicate
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		p.patterns = append(p.patterns, c)
		p.compiled = append(p.compiled, regexp.MustCompile("(?i)"+c))
	}
	return p
}

func (p Predicate) Empty() bool {
	return len(p.patterns) == 0
}

func (p Predicate) Patterns() []string {
	return append([]string(nil), p.patterns...)
}

// Matches evaluates the predicate against a single value.
func (p Predicate) Matches(value string) bool {
	for _, re := range p.compiled {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}

// Filter returns a MongoDB $or filter applying every pattern to every field.
func (p Predicate) Filter(fields ...string) bson.M {
	clauses := make(bson.A, 0, len(fields)*len(p.patterns))
	for _, field := range fields {
		for _, pattern := range p.patterns {
			clauses = append(clauses, bson.M{field: bson.M{"$regex": pattern, "$options": "i"}})
		}
	}
	return bson.M{"$or": clauses}
}

// flexible expands vowels to their accented variants and lets any run of
// characters stand in for whitespace.
func flexible(term string) string {
	words := strings.Fields(strings.ToLower(term))

	kept := make([]string, 0, len(words))
	for _, w := range words {
		if _, skip := connectives[w]; skip {
			continue
		}
		kept = append(kept, w)
	}
	if len(kept) == 0 {
		kept = words
	}

	expanded := make([]string, len(kept))
	for i, w := range kept {
		expanded[i] = expandWord(w)
	}
	return strings.Join(expanded, ".*")
}

func expandWord(word string) string {
	var b strings.Builder
	for _, r := range word {
		if class, ok := vowelClasses[baseRune(r)]; ok {
			b.WriteString(class)
			continue
		}
		b.WriteString(regexp.QuoteMeta(string(r)))
	}
	return b.String()
}

// baseRune lowercases r and removes its diacritics. The transformer chain is
// stateful, so it is built per call.
func baseRune(r rune) rune {
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(stripMarks, string(r))
	if err != nil || s == "" {
		return unicode.ToLower(r)
	}
	for _, b := range s {
		return unicode.ToLower(b)
	}
	return unicode.ToLower(r)
}
