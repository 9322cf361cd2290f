package scoring

import (
	"bytes"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

type Dimension string

const (
	DimensionMatch       Dimension = "match"
	DimensionEducation   Dimension = "education"
	DimensionExperience  Dimension = "experience"
	DimensionSkills      Dimension = "skills"
	DimensionEligibility Dimension = "eligibility"
)

var Dimensions = []Dimension{DimensionMatch, DimensionEducation, DimensionExperience, DimensionSkills, DimensionEligibility}

func (b Breakdown) Value(d Dimension) float64 {
	switch d {
	case DimensionMatch:
		return b.Match
	case DimensionEducation:
		return b.Education
	case DimensionExperience:
		return b.Experience
	case DimensionSkills:
		return b.Skills
	case DimensionEligibility:
		return b.Eligibility
	}
	return 0
}

type Candidate struct {
	ApplicationID uuid.UUID
	ApplicantID   uuid.UUID
	CreatedAt     time.Time
	Scores        Breakdown
}

type RankedCandidate struct {
	Candidate
	Rank        int
	Percentiles map[Dimension]float64
}

type Stats struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stddev"`
}

type Pool struct {
	Candidates []RankedCandidate
	Stats      map[Dimension]Stats
}

// RankPool orders candidates by match score (desc), breaking ties by
// earliest creation, then applicant id, then application id, and assigns
// ranks 1..N. It also computes per-dimension statistics and percentiles.
func RankPool(cands []Candidate) Pool {
	sorted := make([]Candidate, len(cands))
	copy(sorted, cands)
	sort.SliceStable(sorted, func(i, j int) bool {
		return candidateLess(sorted[i], sorted[j])
	})

	values := make(map[Dimension][]float64, len(Dimensions))
	stats := make(map[Dimension]Stats, len(Dimensions))
	for _, d := range Dimensions {
		vs := make([]float64, 0, len(sorted))
		for _, c := range sorted {
			vs = append(vs, c.Scores.Value(d))
		}
		values[d] = vs
		stats[d] = ComputeStats(vs)
	}

	out := make([]RankedCandidate, 0, len(sorted))
	for i, c := range sorted {
		pct := make(map[Dimension]float64, len(Dimensions))
		for _, d := range Dimensions {
			pct[d] = Percentile(values[d], c.Scores.Value(d))
		}
		out = append(out, RankedCandidate{Candidate: c, Rank: i + 1, Percentiles: pct})
	}

	return Pool{Candidates: out, Stats: stats}
}

func candidateLess(a, b Candidate) bool {
	if a.Scores.Match != b.Scores.Match {
		return a.Scores.Match > b.Scores.Match
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	if c := bytes.Compare(a.ApplicantID[:], b.ApplicantID[:]); c != 0 {
		return c < 0
	}
	return bytes.Compare(a.ApplicationID[:], b.ApplicationID[:]) < 0
}

// ComputeStats uses the sample standard deviation; fewer than two values
// yield 0. An empty input yields all zeros.
func ComputeStats(values []float64) Stats {
	n := len(values)
	if n == 0 {
		return Stats{}
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)

	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	stddev := 0.0
	if n >= 2 {
		sq := 0.0
		for _, v := range sorted {
			d := v - mean
			sq += d * d
		}
		stddev = math.Sqrt(sq / float64(n-1))
	}

	return Stats{
		Count:  n,
		Min:    sorted[0],
		Max:    sorted[n-1],
		Mean:   round2(mean),
		Median: round2(median),
		StdDev: round2(stddev),
	}
}

// Percentile is the share of the rest of the pool scoring strictly lower,
// in [0,100]. A pool of one yields 100.
func Percentile(pool []float64, v float64) float64 {
	n := len(pool)
	if n <= 1 {
		return 100
	}
	lower := 0
	for _, p := range pool {
		if p < v {
			lower++
		}
	}
	return round2(clamp100(float64(lower) / float64(n-1) * 100))
}
