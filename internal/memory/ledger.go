package memory

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/inkwell/pkg/store"
)

// Workspace keys for ledger state.
const (
	LedgerKey    = ".inkwell/memory.md"
	PromptDirKey = ".inkwell/prompts"
)

// Ledger is the single-writer page memory for one story workspace.
// Entries are created lazily on first record and never deleted.
type Ledger struct {
	store   store.System
	logger  *slog.Logger
	entries map[string]*Entry
	order   []string
}

// Load reads the workspace ledger, returning an empty ledger when no
// memory file exists yet.
func Load(st store.System, logger *slog.Logger) (*Ledger, error) {
	l := &Ledger{
		store:   st,
		logger:  logger.With("system", "memory"),
		entries: map[string]*Entry{},
	}

	text, err := st.ReadText(LedgerKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return l, nil
		}
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	entries, order, err := parseLedger(text)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	l.entries = entries
	l.order = order
	return l, nil
}

// Entry returns the record for a page title, or nil if none exists.
func (l *Ledger) Entry(title string) *Entry {
	return l.entries[title]
}

// RecordPass overwrites the phase status line for a page and flushes.
func (l *Ledger) RecordPass(title string, phase int, artifactKey, promptRef string) error {
	entry := l.entry(title)
	entry.setPhase(phase, PhaseStatus{
		Passed:      true,
		ArtifactKey: artifactKey,
		PromptRef:   promptRef,
	})

	l.logger.Info("phase passed", "page", title, "phase", phase, "artifact", artifactKey)
	return l.flush()
}

// RecordFailure appends a failure to a page's audit log and flushes.
// Identical reasons for the same page and phase are recorded once. The
// reason is sanitized up front so deduplication sees the same text the
// ledger file persists.
func (l *Ledger) RecordFailure(title string, phase int, reason, artifactKey string) error {
	reason = sanitizeReason(reason)

	entry := l.entry(title)
	if entry.hasFailure(phase, reason) {
		return nil
	}

	entry.Failures = append(entry.Failures, Failure{
		Phase:       phase,
		Reason:      reason,
		ArtifactKey: artifactKey,
	})

	l.logger.Info("failure recorded", "page", title, "phase", phase, "reason", reason)
	return l.flush()
}

func (l *Ledger) entry(title string) *Entry {
	if e, ok := l.entries[title]; ok {
		return e
	}

	e := &Entry{PageTitle: title}
	l.entries[title] = e
	l.order = append(l.order, title)
	return e
}

func (l *Ledger) flush() error {
	if err := l.store.WriteText(LedgerKey, renderLedger(l.entries, l.order)); err != nil {
		return fmt.Errorf("flush ledger: %w", err)
	}
	return nil
}
