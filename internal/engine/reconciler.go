package engine

import (
	"sort"
	"time"

	"wbreport/internal/domain"
)

// BufferRecord is anything reconcilable across buffer days: a record with
// a calendar date and the settlement document it belongs to.
type BufferRecord interface {
	RecordDate() (time.Time, bool)
	DocumentID() string
}

// DocSet is an immutable set of non-empty document numbers.
type DocSet map[string]struct{}

func (s DocSet) Has(doc string) bool {
	if doc == "" {
		return false
	}
	_, ok := s[doc]
	return ok
}

func (s DocSet) Len() int {
	return len(s)
}

// Sorted returns the documents in lexical order.
func (s DocSet) Sorted() []string {
	docs := make([]string, 0, len(s))
	for doc := range s {
		docs = append(docs, doc)
	}
	sort.Strings(docs)
	return docs
}

type ReconcileOptions struct {
	// PrevBufferMinLines is how many lines a document needs inside the
	// previous buffer day before it is admitted. Values below 1 mean 1.
	PrevBufferMinLines int
}

// Reconciliation keeps a snapshot of every stage so each step can be
// inspected on its own. Records is the canonical in-window set.
type Reconciliation[T BufferRecord] struct {
	Window domain.Period

	Main       []T
	PrevBuffer []T
	NextBuffer []T
	Outside    []T

	MainDocs          DocSet
	NextDocs          DocSet
	FilteredMain      []T
	RemainingMainDocs DocSet
	KeptNext          []T
	KeptPrev          []T

	Records []T
}

// Dropped counts in-window and buffer records that did not survive.
func (r Reconciliation[T]) Dropped() int {
	return (len(r.Main) - len(r.FilteredMain)) +
		(len(r.NextBuffer) - len(r.KeptNext)) +
		(len(r.PrevBuffer) - len(r.KeptPrev))
}

// SpilledOver counts main records removed because their document
// continues into the next buffer day.
func (r Reconciliation[T]) SpilledOver() int {
	return len(r.Main) - len(r.FilteredMain)
}

// Reconcile decides which records fetched for the padded window
// [window.From-1, window.To+1] belong to the primary window.
//
// Main records whose document also appears on the next buffer day are
// removed: that document belongs to the next period. Next-day lines of a
// document still present in the filtered main set are pulled in, and
// previous-day lines of a document present in the original main set are
// pulled in. Empty document numbers never match.
func Reconcile[T BufferRecord](records []T, window domain.Period, opts ReconcileOptions) Reconciliation[T] {
	rec := Reconciliation[T]{Window: window}

	rec.Main, rec.PrevBuffer, rec.NextBuffer, rec.Outside = partition(records, window)

	rec.MainDocs = collectDocs(rec.Main)
	rec.NextDocs = collectDocs(rec.NextBuffer)

	rec.FilteredMain = excludeDocs(rec.Main, rec.NextDocs)
	rec.RemainingMainDocs = collectDocs(rec.FilteredMain)

	rec.KeptNext = keepDocs(rec.NextBuffer, rec.RemainingMainDocs)
	rec.KeptPrev = keepDocs(rec.PrevBuffer, admitPrev(rec.PrevBuffer, rec.MainDocs, opts.PrevBufferMinLines))

	rec.Records = make([]T, 0, len(rec.FilteredMain)+len(rec.KeptNext)+len(rec.KeptPrev))
	rec.Records = append(rec.Records, rec.FilteredMain...)
	rec.Records = append(rec.Records, rec.KeptNext...)
	rec.Records = append(rec.Records, rec.KeptPrev...)

	return rec
}

func partition[T BufferRecord](records []T, window domain.Period) (main, prev, next, outside []T) {
	prevDay := window.From.AddDate(0, 0, -1)
	nextDay := window.To.AddDate(0, 0, 1)

	for _, r := range records {
		day, ok := r.RecordDate()
		switch {
		case !ok:
			outside = append(outside, r)
		case !day.Before(window.From) && !day.After(window.To):
			main = append(main, r)
		case day.Equal(prevDay):
			prev = append(prev, r)
		case day.Equal(nextDay):
			next = append(next, r)
		default:
			outside = append(outside, r)
		}
	}
	return main, prev, next, outside
}

func collectDocs[T BufferRecord](records []T) DocSet {
	docs := make(DocSet)
	for _, r := range records {
		if doc := r.DocumentID(); doc != "" {
			docs[doc] = struct{}{}
		}
	}
	return docs
}

func excludeDocs[T BufferRecord](records []T, docs DocSet) []T {
	kept := make([]T, 0, len(records))
	for _, r := range records {
		if docs.Has(r.DocumentID()) {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

func keepDocs[T BufferRecord](records []T, docs DocSet) []T {
	var kept []T
	for _, r := range records {
		if docs.Has(r.DocumentID()) {
			kept = append(kept, r)
		}
	}
	return kept
}

// admitPrev narrows mainDocs to the documents with at least minLines
// lines on the previous buffer day.
func admitPrev[T BufferRecord](prev []T, mainDocs DocSet, minLines int) DocSet {
	if minLines <= 1 {
		return mainDocs
	}

	lines := make(map[string]int)
	for _, r := range prev {
		if doc := r.DocumentID(); doc != "" {
			lines[doc]++
		}
	}

	admitted := make(DocSet)
	for doc := range mainDocs {
		if lines[doc] >= minLines {
			admitted[doc] = struct{}{}
		}
	}
	return admitted
}
