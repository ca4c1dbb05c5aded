// Package stream multiplexes standing document queries into tagged
// results so consumers can tell "no rows match" apart from "the feed
// broke" without inspecting errors themselves.
package stream

import "spotwise/internal/infra/docstore"

type Tag int

const (
	// Ok carries one or more matching records.
	Ok Tag = iota
	// Empty means the query ran and nothing matches. Consumers must be
	// invoked for it: an emptied feed is a signal, not silence.
	Empty
	// Err means the feed failed; Records is nil and Err is set.
	Err
)

func (t Tag) String() string {
	switch t {
	case Ok:
		return "ok"
	case Empty:
		return "empty"
	case Err:
		return "err"
	default:
		return "unknown"
	}
}

// Result is one delivery of a standing query: the full current result
// set, classified.
type Result struct {
	Tag     Tag
	Records []docstore.Document
	Err     error
}

func classify(docs []docstore.Document, err error) Result {
	switch {
	case err != nil:
		return Result{Tag: Err, Err: err}
	case len(docs) == 0:
		return Result{Tag: Empty}
	default:
		return Result{Tag: Ok, Records: docs}
	}
}

// First returns the first record of an Ok result. Handy for feeds keyed
// by a unique field where at most one document can match.
func (r Result) First() (docstore.Document, bool) {
	if r.Tag != Ok {
		return docstore.Document{}, false
	}
	return r.Records[0], true
}
