package scoring

import (
	"math"
	"strings"

	"workforce-portal/internal/domain/lifecycle"

	"github.com/sahilm/fuzzy"
)

type DegreeLevel int

const (
	DegreeUnknown DegreeLevel = iota - 1
	DegreeNone
	DegreeHighSchool
	DegreeVocational
	DegreeAssociate
	DegreeBachelor
	DegreeMaster
	DegreeDoctorate
)

// Checked from the highest level down so "master" wins over "bachelor"
// in "bachelor and master".
var degreeKeywords = []struct {
	level    DegreeLevel
	keywords []string
}{
	{DegreeDoctorate, []string{"phd", "ph d", "doctorate", "doctoral", "doctor"}},
	{DegreeMaster, []string{"master", "masters", "msc", "mba", "ms", "ma", "postgraduate"}},
	{DegreeBachelor, []string{"bachelor", "bachelors", "bsc", "bs", "ba", "undergraduate", "college graduate"}},
	{DegreeAssociate, []string{"associate", "associates"}},
	{DegreeVocational, []string{"vocational", "diploma", "technical", "tesda", "trade school"}},
	{DegreeHighSchool, []string{"high school", "highschool", "secondary", "senior high", "ged"}},
	{DegreeNone, []string{"none", "any", "no degree", "not required"}},
}

func ParseDegree(s string) DegreeLevel {
	n := normalize(s)
	if n == "" {
		return DegreeNone
	}
	padded := " " + n + " "
	for _, dk := range degreeKeywords {
		for _, kw := range dk.keywords {
			if strings.Contains(padded, " "+kw+" ") {
				return dk.level
			}
		}
	}
	return DegreeUnknown
}

// Breakdown holds the four sub-scores and the composite, each in [0,100]
// and rounded to two decimals.
type Breakdown struct {
	Education   float64
	Experience  float64
	Skills      float64
	Eligibility float64
	Match       float64
}

type Engine struct {
	rules    Rules
	synonyms synonymIndex
}

func NewEngine(rules Rules) *Engine {
	return &Engine{rules: rules, synonyms: newSynonymIndex(rules.Synonyms)}
}

func (e *Engine) Rules() Rules {
	return e.rules
}

// Evaluate scores one applicant against one set of requirements.
func (e *Engine) Evaluate(p lifecycle.ApplicantProfile, req lifecycle.Requirements) Breakdown {
	b := Breakdown{
		Education:   round2(e.EducationScore(p.Degree, req.Degree)),
		Experience:  round2(ExperienceScore(p.YearsExperience, req.YearsExperience)),
		Skills:      round2(e.SkillsScore(p.Skills, req.Skills)),
		Eligibility: round2(EligibilityScore(p.Eligibilities, req.Eligibilities)),
	}
	w := e.rules.Weights
	b.Match = round2(clamp100(
		w.Education*b.Education +
			w.Experience*b.Experience +
			w.Skills*b.Skills +
			w.Eligibility*b.Eligibility,
	))
	return b
}

func (e *Engine) EducationScore(have, required string) float64 {
	reqLvl := ParseDegree(required)
	if reqLvl == DegreeNone {
		return 100
	}
	haveLvl := ParseDegree(have)

	if reqLvl == DegreeUnknown || haveLvl == DegreeUnknown {
		h, r := normalize(have), normalize(required)
		switch {
		case h != "" && h == r:
			return 100
		case h != "" && (strings.Contains(h, r) || strings.Contains(r, h)):
			return e.rules.PartialDegreeScore
		default:
			return 0
		}
	}

	switch {
	case haveLvl >= reqLvl:
		return 100
	case haveLvl == reqLvl-1:
		return e.rules.PartialDegreeScore
	default:
		return 0
	}
}

func ExperienceScore(haveYears, requiredYears int) float64 {
	if requiredYears <= 0 {
		return 100
	}
	if haveYears <= 0 {
		return 0
	}
	ratio := float64(haveYears) / float64(requiredYears)
	if ratio > 1 {
		ratio = 1
	}
	return ratio * 100
}

// SkillsScore credits each required skill once: 1 for an exact or synonym
// match, FuzzyCredit for a fuzzy subsequence match.
func (e *Engine) SkillsScore(have, required []string) float64 {
	reqs := dedupeNormalized(required)
	if len(reqs) == 0 {
		return 100
	}
	haves := dedupeNormalized(have)
	if len(haves) == 0 {
		return 0
	}

	canon := make(map[string]bool, len(haves))
	for _, h := range haves {
		canon[e.synonyms.canonical(h)] = true
	}

	total := 0.0
	for _, r := range reqs {
		total += e.skillCredit(r, haves, canon)
	}
	return clamp100(total / float64(len(reqs)) * 100)
}

func (e *Engine) skillCredit(req string, haves []string, canon map[string]bool) float64 {
	if canon[e.synonyms.canonical(req)] {
		return 1
	}
	if len([]rune(req)) < e.rules.FuzzyMinLength {
		return 0
	}
	for _, m := range fuzzy.Find(req, haves) {
		// A long candidate that happens to contain the letters in order
		// ("java" in "javascript") is not the same skill.
		if len([]rune(m.Str)) <= 2*len([]rune(req))-2 {
			return e.rules.FuzzyCredit
		}
	}
	return 0
}

func EligibilityScore(have, required []string) float64 {
	reqs := dedupeNormalized(required)
	if len(reqs) == 0 {
		return 100
	}
	haveSet := make(map[string]bool, len(have))
	for _, h := range dedupeNormalized(have) {
		haveSet[h] = true
	}
	matched := 0
	for _, r := range reqs {
		if haveSet[r] {
			matched++
		}
	}
	return float64(matched) / float64(len(reqs)) * 100
}

func dedupeNormalized(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		n := normalize(s)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
