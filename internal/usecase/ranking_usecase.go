package usecase

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"sort"
	"strconv"
	"time"

	"workforce-portal/internal/domain/lifecycle"
	"workforce-portal/internal/domain/scoring"
	"workforce-portal/internal/repository"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type RankingUsecase interface {
	Rank(ctx context.Context, jobID uuid.UUID, actor lifecycle.Actor) (RankedPool, error)
	Report(ctx context.Context, jobID uuid.UUID, actor lifecycle.Actor) (RankedPool, error)
}

type RankedEntry struct {
	ApplicationID    uuid.UUID                     `json:"application_id"`
	ApplicantID      uuid.UUID                     `json:"applicant_id"`
	Rank             int                           `json:"rank"`
	MatchScore       float64                       `json:"match_score"`
	EducationScore   float64                       `json:"education_score"`
	ExperienceScore  float64                       `json:"experience_score"`
	SkillsScore      float64                       `json:"skills_score"`
	EligibilityScore float64                       `json:"eligibility_score"`
	Percentiles      map[scoring.Dimension]float64 `json:"percentiles"`
}

// RankedPool is the outcome of one ranking run. Stats are not persisted;
// they live in the report cache under the job id.
type RankedPool struct {
	JobID       uuid.UUID                           `json:"job_id"`
	Fingerprint string                              `json:"fingerprint"`
	RankedAt    time.Time                           `json:"ranked_at"`
	Candidates  []RankedEntry                       `json:"candidates"`
	Stats       map[scoring.Dimension]scoring.Stats `json:"stats"`
}

type Ranking struct {
	jobs       repository.JobRepository
	apps       repository.ApplicationRepository
	applicants repository.ApplicantRepository
	engine     *scoring.Engine
	cache      ReportCache
	cacheTTL   time.Duration
	events     EventPublisher
	log        *log.Logger
	now        func() time.Time
}

func NewRankingUsecase(
	jobs repository.JobRepository,
	apps repository.ApplicationRepository,
	applicants repository.ApplicantRepository,
	engine *scoring.Engine,
	cache ReportCache,
	cacheTTL time.Duration,
	events EventPublisher,
	logger *log.Logger,
) *Ranking {
	if logger == nil {
		logger = log.Default()
	}
	if engine == nil {
		engine = scoring.NewEngine(scoring.DefaultRules())
	}
	return &Ranking{
		jobs:       jobs,
		apps:       apps,
		applicants: applicants,
		engine:     engine,
		cache:      cache,
		cacheTTL:   cacheTTL,
		events:     publisherOrNoop(events),
		log:        logger,
		now:        timeNow,
	}
}

const rankingCachePrefix = "ranking:"

// RankingCachePattern matches every cached ranking report.
const RankingCachePattern = rankingCachePrefix + "*"

func rankingCacheKey(jobID uuid.UUID) string {
	return rankingCachePrefix + jobID.String()
}

type poolSnapshot struct {
	job         lifecycle.Job
	apps        []lifecycle.Application
	profiles    map[uuid.UUID]lifecycle.ApplicantProfile
	fingerprint string
}

// Rank re-scores the whole pool from scratch and persists scores and ranks.
func (u *Ranking) Rank(ctx context.Context, jobID uuid.UUID, actor lifecycle.Actor) (_ RankedPool, err error) {
	ctx, span := tracer.Start(ctx, "Ranking.Rank", trace.WithAttributes(attribute.String("job.id", jobID.String())))
	defer func() { endSpan(span, err) }()

	if !actor.IsStaff() && actor.Role != lifecycle.RoleSystem {
		return RankedPool{}, fmt.Errorf("%w: ranking requires a staff role", lifecycle.ErrForbidden)
	}

	snap, err := u.snapshot(ctx, jobID)
	if err != nil {
		return RankedPool{}, err
	}
	return u.rankSnapshot(ctx, snap)
}

// Report serves the cached ranking while the pool is unchanged and ranks
// again otherwise.
func (u *Ranking) Report(ctx context.Context, jobID uuid.UUID, actor lifecycle.Actor) (_ RankedPool, err error) {
	ctx, span := tracer.Start(ctx, "Ranking.Report", trace.WithAttributes(attribute.String("job.id", jobID.String())))
	defer func() { endSpan(span, err) }()

	if !actor.IsStaff() && actor.Role != lifecycle.RoleSystem {
		return RankedPool{}, fmt.Errorf("%w: ranking requires a staff role", lifecycle.ErrForbidden)
	}

	snap, err := u.snapshot(ctx, jobID)
	if err != nil {
		return RankedPool{}, err
	}

	if u.cache != nil {
		var cached RankedPool
		hit, cerr := u.cache.GetJSON(ctx, rankingCacheKey(jobID), &cached)
		if cerr != nil {
			u.log.Printf("ranking cache=get job_id=%s status=error err=%v", jobID, cerr)
		}
		if hit && cached.Fingerprint == snap.fingerprint {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return cached, nil
		}
	}
	return u.rankSnapshot(ctx, snap)
}

func (u *Ranking) snapshot(ctx context.Context, jobID uuid.UUID) (poolSnapshot, error) {
	job, err := u.jobs.GetByID(ctx, jobID)
	if err != nil {
		return poolSnapshot{}, err
	}

	apps, err := u.apps.ListByJob(ctx, jobID, repository.ListOptions{
		ExcludeStatuses: u.engine.Rules().ExcludeStatuses,
		SortBy:          repository.SortByCreatedAt,
	})
	if err != nil {
		return poolSnapshot{}, err
	}

	ids := make([]uuid.UUID, 0, len(apps))
	for _, a := range apps {
		ids = append(ids, a.ApplicantID)
	}
	profiles, err := u.applicants.GetProfiles(ctx, ids)
	if err != nil {
		return poolSnapshot{}, err
	}

	return poolSnapshot{
		job:         job,
		apps:        apps,
		profiles:    profiles,
		fingerprint: fingerprint(u.engine.Rules(), job, apps, profiles),
	}, nil
}

func (u *Ranking) rankSnapshot(ctx context.Context, snap poolSnapshot) (RankedPool, error) {
	cands := make([]scoring.Candidate, 0, len(snap.apps))
	for _, a := range snap.apps {
		p, ok := snap.profiles[a.ApplicantID]
		if !ok {
			p = lifecycle.ApplicantProfile{ApplicantID: a.ApplicantID}
		}
		cands = append(cands, scoring.Candidate{
			ApplicationID: a.ID,
			ApplicantID:   a.ApplicantID,
			CreatedAt:     a.CreatedAt,
			Scores:        u.engine.Evaluate(p, snap.job.Requirements),
		})
	}

	pool := scoring.RankPool(cands)

	updates := make([]repository.ScoreUpdate, 0, len(pool.Candidates))
	entries := make([]RankedEntry, 0, len(pool.Candidates))
	for _, c := range pool.Candidates {
		updates = append(updates, repository.ScoreUpdate{
			ApplicationID:    c.ApplicationID,
			MatchScore:       c.Scores.Match,
			Rank:             c.Rank,
			EducationScore:   c.Scores.Education,
			ExperienceScore:  c.Scores.Experience,
			SkillsScore:      c.Scores.Skills,
			EligibilityScore: c.Scores.Eligibility,
		})
		entries = append(entries, RankedEntry{
			ApplicationID:    c.ApplicationID,
			ApplicantID:      c.ApplicantID,
			Rank:             c.Rank,
			MatchScore:       c.Scores.Match,
			EducationScore:   c.Scores.Education,
			ExperienceScore:  c.Scores.Experience,
			SkillsScore:      c.Scores.Skills,
			EligibilityScore: c.Scores.Eligibility,
			Percentiles:      c.Percentiles,
		})
	}
	if err := u.apps.SaveScores(ctx, snap.job.ID, u.engine.Rules().ExcludeStatuses, updates); err != nil {
		return RankedPool{}, err
	}

	now := u.now()
	out := RankedPool{
		JobID:       snap.job.ID,
		Fingerprint: snap.fingerprint,
		RankedAt:    now,
		Candidates:  entries,
		Stats:       pool.Stats,
	}

	if u.cache != nil {
		if err := u.cache.SetJSON(ctx, rankingCacheKey(snap.job.ID), out, u.cacheTTL); err != nil {
			u.log.Printf("ranking cache=set job_id=%s status=error err=%v", snap.job.ID, err)
		}
	}

	rankedCandidates.Record(ctx, int64(len(entries)), metric.WithAttributes(attribute.String("domain", string(snap.job.Domain))))
	u.log.Printf("rank job_id=%s candidates=%d status=done", snap.job.ID, len(entries))

	jobID := snap.job.ID
	u.events.Publish(ctx, lifecycle.Event{
		Type:      lifecycle.EventPoolRanked,
		JobID:     &jobID,
		Data:      map[string]any{"candidates": len(entries)},
		Timestamp: now,
	})

	return out, nil
}

// fingerprint hashes everything a ranking depends on: the scoring rules,
// the requirements, the pool membership and each member's profile.
func fingerprint(rules scoring.Rules, job lifecycle.Job, apps []lifecycle.Application, profiles map[uuid.UUID]lifecycle.ApplicantProfile) string {
	h := xxhash.New()
	var buf [8]byte
	writeStr := func(s string) {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(s)))
		_, _ = h.Write(buf[:])
		_, _ = h.WriteString(s)
	}
	writeList := func(list []string) {
		sorted := append([]string(nil), list...)
		sort.Strings(sorted)
		writeStr(strconv.Itoa(len(sorted)))
		for _, s := range sorted {
			writeStr(s)
		}
	}

	writeFloat := func(v float64) { writeStr(strconv.FormatFloat(v, 'g', -1, 64)) }

	w := rules.Weights
	for _, v := range []float64{w.Education, w.Experience, w.Skills, w.Eligibility,
		rules.PartialDegreeScore, rules.FuzzyCredit, rules.RerouteThreshold} {
		writeFloat(v)
	}
	writeStr(strconv.Itoa(rules.FuzzyMinLength))
	writeList(repository.StatusStrings(rules.ExcludeStatuses))
	terms := make([]string, 0, len(rules.Synonyms))
	for k := range rules.Synonyms {
		terms = append(terms, k)
	}
	sort.Strings(terms)
	for _, k := range terms {
		writeStr(k)
		writeList(rules.Synonyms[k])
	}

	writeStr(job.ID.String())
	writeStr(job.Requirements.Degree)
	writeStr(strconv.Itoa(job.Requirements.YearsExperience))
	writeList(job.Requirements.Skills)
	writeList(job.Requirements.Eligibilities)

	ordered := append([]lifecycle.Application(nil), apps...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID.String() < ordered[j].ID.String() })
	for _, a := range ordered {
		writeStr(a.ID.String())
		writeStr(a.ApplicantID.String())
		writeStr(a.CreatedAt.UTC().Format(time.RFC3339Nano))
		p, ok := profiles[a.ApplicantID]
		if !ok {
			writeStr("-")
			continue
		}
		writeStr(p.Degree)
		writeStr(strconv.Itoa(p.YearsExperience))
		writeList(p.Skills)
		writeList(p.Eligibilities)
	}

	return strconv.FormatUint(h.Sum64(), 16)
}
