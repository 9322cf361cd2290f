package scoring

import (
	"fmt"
	"io"
	"os"
	"strings"

	"workforce-portal/internal/domain/lifecycle"

	"gopkg.in/yaml.v3"
)

// rulesFile mirrors the YAML layout; absent keys keep their defaults.
type rulesFile struct {
	Weights            *Weights            `yaml:"weights"`
	PartialDegreeScore *float64            `yaml:"partial_degree_score"`
	FuzzyCredit        *float64            `yaml:"fuzzy_credit"`
	FuzzyMinLength     *int                `yaml:"fuzzy_min_length"`
	RerouteThreshold   *float64            `yaml:"reroute_threshold"`
	ExcludeStatuses    []string            `yaml:"exclude_statuses"`
	Synonyms           map[string][]string `yaml:"synonyms"`
	ReplaceSynonyms    bool                `yaml:"replace_synonyms"`
}

// LoadRulesFile reads a rules file over DefaultRules. An empty path
// returns the defaults.
func LoadRulesFile(path string) (Rules, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultRules(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Rules{}, fmt.Errorf("open scoring rules: %w", err)
	}
	defer f.Close()
	return ParseRules(f)
}

func ParseRules(r io.Reader) (Rules, error) {
	var rf rulesFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&rf); err != nil && err != io.EOF {
		return Rules{}, fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}

	rules := DefaultRules()
	if rf.Weights != nil {
		rules.Weights = *rf.Weights
	}
	if rf.PartialDegreeScore != nil {
		rules.PartialDegreeScore = *rf.PartialDegreeScore
	}
	if rf.FuzzyCredit != nil {
		rules.FuzzyCredit = *rf.FuzzyCredit
	}
	if rf.FuzzyMinLength != nil {
		rules.FuzzyMinLength = *rf.FuzzyMinLength
	}
	if rf.RerouteThreshold != nil {
		rules.RerouteThreshold = *rf.RerouteThreshold
	}
	if rf.ExcludeStatuses != nil {
		rules.ExcludeStatuses = make([]lifecycle.Status, 0, len(rf.ExcludeStatuses))
		for _, s := range rf.ExcludeStatuses {
			st := lifecycle.Status(strings.ToLower(strings.TrimSpace(s)))
			if !lifecycle.IsKnown(lifecycle.DomainJob, st) && !lifecycle.IsKnown(lifecycle.DomainTraining, st) {
				return Rules{}, fmt.Errorf("%w: unknown exclude status %q", ErrInvalidRules, s)
			}
			rules.ExcludeStatuses = append(rules.ExcludeStatuses, st)
		}
	}
	if rf.ReplaceSynonyms {
		rules.Synonyms = map[string][]string{}
	}
	for k, v := range rf.Synonyms {
		rules.Synonyms[k] = append(rules.Synonyms[k], v...)
	}

	if err := rules.Validate(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}
