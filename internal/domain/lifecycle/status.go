// Package lifecycle holds the application workflow: statuses, the
// per-domain transition table, the audit history shape and the errors
// every entry point reports.
package lifecycle

import (
	"fmt"
	"strings"
)

// Domain selects which transition table an application follows.
type Domain string

const (
	DomainJob      Domain = "job"
	DomainTraining Domain = "training"
)

func ParseDomain(s string) (Domain, error) {
	d := Domain(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case DomainJob, DomainTraining:
		return d, nil
	}
	return "", fmt.Errorf("%w: unknown domain %q", ErrInvalidInput, s)
}

type Status string

const (
	StatusPending            Status = "pending"
	StatusUnderReview        Status = "under_review"
	StatusShortlisted        Status = "shortlisted"
	StatusInterviewScheduled Status = "interview_scheduled"
	StatusInterviewed        Status = "interviewed"
	StatusOffered            Status = "offered"
	StatusHired              Status = "hired"
	StatusApproved           Status = "approved"
	StatusInProgress         Status = "in_progress"
	StatusCompleted          Status = "completed"
	StatusCertified          Status = "certified"
	StatusFailed             Status = "failed"
	StatusDenied             Status = "denied"
	StatusWithdrawn          Status = "withdrawn"
	StatusArchived           Status = "archived"
)

func (s Status) String() string { return string(s) }

// ParseStatus accepts only statuses that exist in the domain's workflow.
func ParseStatus(d Domain, s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !IsKnown(d, st) {
		return "", fmt.Errorf("%w: unknown %s status %q", ErrInvalidInput, d, s)
	}
	return st, nil
}

// StatusPtr is a helper for the nullable From field of history entries.
func StatusPtr(s Status) *Status {
	return &s
}

type JobStatus string

const (
	JobActive   JobStatus = "active"
	JobHidden   JobStatus = "hidden"
	JobClosed   JobStatus = "closed"
	JobArchived JobStatus = "archived"
)

func ParseJobStatus(s string) (JobStatus, error) {
	st := JobStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case JobActive, JobHidden, JobClosed, JobArchived:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown job status %q", ErrInvalidInput, s)
}

var jobTransitions = map[JobStatus][]JobStatus{
	JobActive: {JobHidden, JobClosed},
	JobHidden: {JobActive, JobClosed},
	JobClosed: {JobArchived},
}

// CanTransitionJob reports whether a posting may move from one status to
// another. Closing is only reachable from active or hidden.
func CanTransitionJob(from, to JobStatus) bool {
	for _, s := range jobTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
