package scoring

import (
	"errors"
	"fmt"
	"math"

	"workforce-portal/internal/domain/lifecycle"
)

var ErrInvalidRules = errors.New("invalid scoring rules")

// Weights of the four sub-scores in the composite match score.
type Weights struct {
	Education   float64 `yaml:"education"`
	Experience  float64 `yaml:"experience"`
	Skills      float64 `yaml:"skills"`
	Eligibility float64 `yaml:"eligibility"`
}

func (w Weights) Sum() float64 {
	return w.Education + w.Experience + w.Skills + w.Eligibility
}

type Rules struct {
	Weights Weights

	// PartialDegreeScore is awarded when the applicant's degree is exactly
	// one level below the requirement.
	PartialDegreeScore float64

	// FuzzyCredit is the credit of a required skill matched only by the
	// fuzzy pass. Skills shorter than FuzzyMinLength are never fuzzy
	// matched.
	FuzzyCredit    float64
	FuzzyMinLength int

	// RerouteThreshold is the lowest composite score at which a closed
	// job's applicant is moved to another opening.
	RerouteThreshold float64

	// ExcludeStatuses are left out of a ranking pool.
	ExcludeStatuses []lifecycle.Status

	Synonyms map[string][]string
}

func DefaultWeights() Weights {
	return Weights{Education: 0.25, Experience: 0.25, Skills: 0.35, Eligibility: 0.15}
}

func DefaultRules() Rules {
	syn := make(map[string][]string, len(DefaultSynonyms))
	for k, v := range DefaultSynonyms {
		syn[k] = append([]string(nil), v...)
	}
	return Rules{
		Weights:            DefaultWeights(),
		PartialDegreeScore: 50,
		FuzzyCredit:        0.5,
		FuzzyMinLength:     4,
		RerouteThreshold:   60,
		ExcludeStatuses:    []lifecycle.Status{lifecycle.StatusWithdrawn, lifecycle.StatusArchived},
		Synonyms:           syn,
	}
}

func (r Rules) Validate() error {
	w := r.Weights
	for name, v := range map[string]float64{
		"education": w.Education, "experience": w.Experience, "skills": w.Skills, "eligibility": w.Eligibility,
	} {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return fmt.Errorf("%w: weight %s=%v out of [0,1]", ErrInvalidRules, name, v)
		}
	}
	if math.Abs(w.Sum()-1) > 1e-9 {
		return fmt.Errorf("%w: weights sum to %v, want 1.0", ErrInvalidRules, w.Sum())
	}
	if r.PartialDegreeScore < 0 || r.PartialDegreeScore > 100 {
		return fmt.Errorf("%w: partial_degree_score=%v out of [0,100]", ErrInvalidRules, r.PartialDegreeScore)
	}
	if r.FuzzyCredit < 0 || r.FuzzyCredit > 1 {
		return fmt.Errorf("%w: fuzzy_credit=%v out of [0,1]", ErrInvalidRules, r.FuzzyCredit)
	}
	if r.FuzzyMinLength < 1 {
		return fmt.Errorf("%w: fuzzy_min_length must be positive", ErrInvalidRules)
	}
	if r.RerouteThreshold < 0 || r.RerouteThreshold > 100 {
		return fmt.Errorf("%w: reroute_threshold=%v out of [0,100]", ErrInvalidRules, r.RerouteThreshold)
	}
	return nil
}

// Excludes reports whether applications in status s stay out of a pool.
func (r Rules) Excludes(s lifecycle.Status) bool {
	for _, ex := range r.ExcludeStatuses {
		if ex == s {
			return true
		}
	}
	return false
}
