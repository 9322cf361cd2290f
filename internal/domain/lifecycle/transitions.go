package lifecycle

// Job application graph:
//
//	pending ─► under_review ─► shortlisted ─► interview_scheduled ─► interviewed ─► offered ─► hired
//	   │            │               │                  │                  │  └───────────────────►┘
//	   └────────────┴───────────────┴──────────────────┴──────────────────┴────► denied ─► archived
//
// Training graph:
//
//	pending ─► under_review ─► approved ─► in_progress ─► completed ─► certified
//	                                            └──────────────┴─────► failed
//
// Every non-terminal state except denied and completed may also move to
// withdrawn. Terminal states have no entry in the table.
var transitionTable = map[Domain]map[Status][]Status{
	DomainJob: {
		StatusPending:            {StatusUnderReview, StatusShortlisted, StatusDenied, StatusWithdrawn},
		StatusUnderReview:        {StatusShortlisted, StatusInterviewScheduled, StatusDenied, StatusWithdrawn},
		StatusShortlisted:        {StatusInterviewScheduled, StatusDenied, StatusWithdrawn},
		StatusInterviewScheduled: {StatusInterviewed, StatusDenied, StatusWithdrawn},
		StatusInterviewed:        {StatusOffered, StatusHired, StatusDenied, StatusWithdrawn},
		StatusOffered:            {StatusHired, StatusDenied, StatusWithdrawn},
		StatusDenied:             {StatusArchived},
	},
	DomainTraining: {
		StatusPending:     {StatusUnderReview, StatusApproved, StatusDenied, StatusWithdrawn},
		StatusUnderReview: {StatusApproved, StatusDenied, StatusWithdrawn},
		StatusApproved:    {StatusInProgress, StatusWithdrawn},
		StatusInProgress:  {StatusCompleted, StatusFailed, StatusWithdrawn},
		StatusCompleted:   {StatusCertified, StatusFailed},
		StatusDenied:      {StatusArchived},
	},
}

var terminalStatuses = map[Domain][]Status{
	DomainJob:      {StatusHired, StatusArchived, StatusWithdrawn},
	DomainTraining: {StatusCertified, StatusFailed, StatusWithdrawn, StatusArchived},
}

// ValidTransitions returns the statuses reachable in one step. The result
// is a copy; UI affordances and server validation both read it.
func ValidTransitions(d Domain, from Status) []Status {
	next := transitionTable[d][from]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

func CanTransition(d Domain, from, to Status) bool {
	for _, s := range transitionTable[d][from] {
		if s == to {
			return true
		}
	}
	return false
}

func IsTerminal(d Domain, s Status) bool {
	for _, t := range terminalStatuses[d] {
		if t == s {
			return true
		}
	}
	return false
}

// IsKnown reports whether s is a state of the domain's workflow.
func IsKnown(d Domain, s Status) bool {
	states, ok := transitionTable[d]
	if !ok {
		return false
	}
	if _, ok := states[s]; ok {
		return true
	}
	return IsTerminal(d, s)
}

// Statuses lists every state of the domain in table order followed by the
// terminal states.
func Statuses(d Domain) []Status {
	seen := map[Status]bool{}
	out := make([]Status, 0)
	add := func(s Status) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range []Status{StatusPending, StatusUnderReview, StatusShortlisted, StatusInterviewScheduled,
		StatusInterviewed, StatusOffered, StatusApproved, StatusInProgress, StatusCompleted, StatusDenied} {
		if _, ok := transitionTable[d][s]; ok {
			add(s)
		}
	}
	for _, s := range terminalStatuses[d] {
		add(s)
	}
	return out
}

// InPipeline reports whether an application still occupies a seat on its
// posting: not terminal and not denied.
func InPipeline(d Domain, s Status) bool {
	return IsKnown(d, s) && !IsTerminal(d, s) && s != StatusDenied
}

// PipelineStatuses lists the statuses for which InPipeline holds.
func PipelineStatuses(d Domain) []Status {
	out := make([]Status, 0)
	for _, s := range Statuses(d) {
		if InPipeline(d, s) {
			out = append(out, s)
		}
	}
	return out
}
