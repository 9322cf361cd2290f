package usecase

import (
	"context"
	"log"

	"workforce-portal/internal/domain/lifecycle"
	"workforce-portal/internal/domain/scoring"

	"github.com/google/uuid"
)

// RankingInvalidator forwards events and drops the cached ranking report
// of every job whose pool an event changed.
type RankingInvalidator struct {
	next  EventPublisher
	cache ReportCache
	rules scoring.Rules
	log   *log.Logger
}

func NewRankingInvalidator(next EventPublisher, cache ReportCache, rules scoring.Rules, logger *log.Logger) *RankingInvalidator {
	if logger == nil {
		logger = log.Default()
	}
	return &RankingInvalidator{next: publisherOrNoop(next), cache: cache, rules: rules, log: logger}
}

func (p *RankingInvalidator) Publish(ctx context.Context, ev lifecycle.Event) {
	p.next.Publish(ctx, ev)
	if p.cache == nil {
		return
	}

	for _, id := range p.affectedJobs(ev) {
		if err := p.cache.Delete(ctx, rankingCacheKey(id)); err != nil {
			p.log.Printf("ranking cache=delete job_id=%s event=%s status=error err=%v", id, ev.Type, err)
		}
	}
}

func (p *RankingInvalidator) affectedJobs(ev lifecycle.Event) []uuid.UUID {
	if ev.JobID == nil {
		return nil
	}
	switch ev.Type {
	case lifecycle.EventApplicationCreated, lifecycle.EventApplicationPurged:
		return []uuid.UUID{*ev.JobID}
	case lifecycle.EventStatusChanged:
		if p.rules.Excludes(lifecycle.Status(ev.To)) {
			return []uuid.UUID{*ev.JobID}
		}
	case lifecycle.EventApplicationRerouted:
		out := []uuid.UUID{*ev.JobID}
		if raw, ok := ev.Data["from_job_id"].(string); ok {
			if from, err := uuid.Parse(raw); err == nil {
				out = append(out, from)
			}
		}
		return out
	}
	return nil
}
