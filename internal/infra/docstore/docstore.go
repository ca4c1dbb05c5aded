// Package docstore is the narrow surface the coordinator needs from the
// remote document database: filtered reads, merge writes, and standing
// filtered watches that redeliver the full matching result set on every
// change (snapshots, never deltas).
package docstore

import (
	"context"
	"strconv"
)

// Collection names. Per-facility subcollections are addressed as
// "slot/<facility>/slotData" and "res/<facility>/resData".
const (
	CollReservations   = "reservations"
	CollEstablishments = "establishments"
	CollResStatus      = "resStatus"
	CollUsers          = "users"
	CollNotifications  = "notifications"
)

func SlotDataCollection(facility string) string {
	return "slot/" + facility + "/slotData"
}

func ResDataCollection(facility string) string {
	return "res/" + facility + "/resData"
}

// Document is one record, tagged with its identifier.
type Document struct {
	ID     string
	Fields map[string]any
}

func (d Document) String(field string) string {
	s, _ := d.Fields[field].(string)
	return s
}

func (d Document) Int(field string) int {
	switch n := d.Fields[field].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

type Operator string

const (
	OpEqual        Operator = "=="
	OpNotEqual     Operator = "!="
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
)

// Condition is one filter clause; a query is the conjunction of all its
// conditions.
type Condition struct {
	Field string
	Op    Operator
	Value any
}

func Where(field string, op Operator, value any) Condition {
	return Condition{Field: field, Op: op, Value: value}
}

// SnapshotFunc receives the full current result set of a watch, or the
// error that broke the watch. Exactly one of the two is meaningful.
type SnapshotFunc func(docs []Document, err error)

// CancelFunc stops a watch. Implementations must make it idempotent.
type CancelFunc func()

type Store interface {
	// Query runs a one-shot filtered fetch.
	Query(ctx context.Context, collection string, conds ...Condition) ([]Document, error)

	// Set writes a document under a known id. With merge, existing fields
	// not present in the write survive.
	Set(ctx context.Context, collection, id string, fields map[string]any, merge bool) error

	// Update patches fields of an existing document.
	Update(ctx context.Context, collection, id string, fields map[string]any) error

	Delete(ctx context.Context, collection, id string) error

	// Add creates a document with a generated id and returns it.
	Add(ctx context.Context, collection string, fields map[string]any) (string, error)

	// Watch issues a standing filtered query. fn is invoked with the full
	// current result set immediately and again after every change to the
	// collection, including when the set becomes empty.
	Watch(ctx context.Context, collection string, conds []Condition, fn SnapshotFunc) (CancelFunc, error)
}

// Matches evaluates a condition conjunction against raw document fields.
func Matches(fields map[string]any, conds []Condition) bool {
	for _, c := range conds {
		if !matchOne(fields[c.Field], c) {
			return false
		}
	}
	return true
}

func matchOne(got any, c Condition) bool {
	switch c.Op {
	case OpEqual:
		return equalValues(got, c.Value)
	case OpNotEqual:
		return !equalValues(got, c.Value)
	case OpLess, OpLessEqual, OpGreater, OpGreaterEqual:
		return compareOrdered(got, c.Value, c.Op)
	default:
		return false
	}
}

func equalValues(a, b any) bool {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}
		return false
	}
	return a == b
}

func compareOrdered(a, b any, op Operator) bool {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return applyOrder(af < bf, af == bf, op)
		}
		return false
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if !aok || !bok {
		return false
	}
	return applyOrder(as < bs, as == bs, op)
}

func applyOrder(less, equal bool, op Operator) bool {
	switch op {
	case OpLess:
		return less
	case OpLessEqual:
		return less || equal
	case OpGreater:
		return !less && !equal
	case OpGreaterEqual:
		return !less
	default:
		return false
	}
}

// asFloat coerces the numeric types JSON decoding produces so that 2 and
// 2.0 compare equal across feeds.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
