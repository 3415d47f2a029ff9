package domain

import (
	"strings"
	"time"
)

// Reference is a single opaque locator (URL) discovered in a source message.
// Identity is the trimmed string value.
type Reference string

// Normalize trims surrounding whitespace; two references are the same item
// when their normalized values match.
func (r Reference) Normalize() Reference {
	return Reference(strings.TrimSpace(string(r)))
}

// ContentKind tags the retrieval strategy used for a reference.
type ContentKind string

const (
	KindPDF     ContentKind = "pdf"
	KindWebPage ContentKind = "webpage"
)

// RetrievalOutcome is the immutable result of resolving one Reference.
// When Success is false, Text is empty and Err describes the failure.
type RetrievalOutcome struct {
	Reference Reference
	Kind      ContentKind
	Text      string
	Success   bool
	Err       string
}

// NewsletterItem holds the subject and best-effort plain-text body of one
// mailbox message.
type NewsletterItem struct {
	Subject   string
	Body      string
	MessageID string
}

// Corpus is the full normalized input for one digest run.
type Corpus struct {
	Newsletters []NewsletterItem
	Documents   []RetrievalOutcome
}

// Report carries per-run counters for the operator; it is not part of the
// data contract.
type Report struct {
	ReferencesFound  int
	NewslettersFound int
	Resolved         int
	Succeeded        int
	Failed           int
}

// TimeWindow bounds the lookback period applied to both collector sources.
// The window is inclusive at Start: a message timestamped exactly at Start
// belongs to the window, anything strictly older does not.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// NewTimeWindow derives the window ending at now and starting daysBack days
// earlier.
func NewTimeWindow(now time.Time, daysBack int) TimeWindow {
	return TimeWindow{
		Start: now.Add(-time.Duration(daysBack) * 24 * time.Hour),
		End:   now,
	}
}

// Contains reports whether t falls inside the window.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// DedupeReferences keeps the first occurrence of each normalized reference,
// preserving discovery order.
func DedupeReferences(refs []Reference) []Reference {
	seen := make(map[Reference]struct{}, len(refs))
	unique := make([]Reference, 0, len(refs))
	for _, ref := range refs {
		norm := ref.Normalize()
		if norm == "" {
			continue
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		unique = append(unique, norm)
	}
	return unique
}
