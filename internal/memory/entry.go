// Package memory maintains the durable per-page generation ledger for a
// story workspace. One memory file per story records, for every page, an
// overwritable PASS status line per phase (current truth) and an
// append-only deduplicated failure log (audit history). The ledger is
// flushed synchronously on every phase transition so a crash mid-run
// leaves recorded state consistent with artifacts on disk.
package memory

// PhaseStatus is the current truth for one page phase.
type PhaseStatus struct {
	Passed      bool
	ArtifactKey string
	PromptRef   string
}

// Failure is one audit entry in a page's failure log.
type Failure struct {
	Phase       int
	Reason      string
	ArtifactKey string
}

// Entry is the durable record for a single page.
type Entry struct {
	PageTitle string
	Phase1    PhaseStatus
	Phase2    PhaseStatus
	Failures  []Failure
}

// Phase returns the status for the given phase number.
func (e *Entry) Phase(n int) PhaseStatus {
	if n == 2 {
		return e.Phase2
	}
	return e.Phase1
}

func (e *Entry) setPhase(n int, status PhaseStatus) {
	if n == 2 {
		e.Phase2 = status
		return
	}
	e.Phase1 = status
}

// hasFailure reports whether an identical failure is already logged.
// Deduplication is by sanitized reason text within a phase; callers
// sanitize before comparing so in-memory and reloaded entries match.
func (e *Entry) hasFailure(phase int, reason string) bool {
	for _, f := range e.Failures {
		if f.Phase == phase && f.Reason == reason {
			return true
		}
	}
	return false
}
