package scoring

import (
	"sort"
	"strings"
	"unicode"
)

var DefaultSynonyms = map[string][]string{
	"javascript":       {"js", "ecmascript"},
	"typescript":       {"ts"},
	"golang":           {"go"},
	"postgresql":       {"postgres", "psql"},
	"kubernetes":       {"k8s"},
	"machine learning": {"ml"},
	"microsoft excel":  {"excel", "ms excel", "spreadsheets"},
	"customer service": {"customer support", "client service"},
	"frontend":         {"front end", "ui development"},
	"backend":          {"back end", "server side development"},
	"first aid":        {"basic life support", "bls"},
	"forklift":         {"forklift operation", "forklift operator"},
}

// normalize lowercases, turns punctuation into spaces and collapses runs of
// whitespace.
func normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// synonymIndex maps every variant to the canonical term of its group.
type synonymIndex map[string]string

func newSynonymIndex(groups map[string][]string) synonymIndex {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	idx := synonymIndex{}
	for _, k := range keys {
		canon := normalize(k)
		if canon == "" {
			continue
		}
		if _, ok := idx[canon]; !ok {
			idx[canon] = canon
		}
		for _, v := range groups[k] {
			v = normalize(v)
			if v == "" {
				continue
			}
			if _, ok := idx[v]; !ok {
				idx[v] = idx[canon]
			}
		}
	}
	return idx
}

func (s synonymIndex) canonical(term string) string {
	if c, ok := s[term]; ok {
		return c
	}
	return term
}
