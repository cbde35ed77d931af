// Package query normalizes loosely-typed list/search parameters into a
// descriptor a collection can execute: a match condition built from a
// free-text filter applied across named fields, plus sort and pagination
// options that always resolve to safe values.
package query

import (
	"regexp"
	"strconv"
	"strings"
)

// Defaults applied when a parameter is absent or unparseable. Malformed
// input never fails normalization; stricter rejection belongs to the
// request-validation layer upstream.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	DefaultSort  = "createdAt"
)

// Order is the sort direction of a query.
type Order int

// Sort directions. The wire encoding follows the original API: "1"
// ascending, "-1" descending.
const (
	Ascending  Order = 1
	Descending Order = -1
)

// Params are the raw string parameters of a list request, straight from the
// query string. Every field is optional.
type Params struct {
	Filter string // Free-text filter.
	Fields string // Comma-separated field names to match the filter against.
	Sort   string // Field to sort by.
	Order  string // "1" ascending, "-1" descending.
	Page   string // 1-based page number.
	Limit  string // Page size.
}

// FieldMatch is a single field's case-insensitive substring predicate.
// Text is the literal filter the pattern was built from; relational
// backends translate it to a LIKE clause instead of running the regexp.
type FieldMatch struct {
	Field   string
	Text    string
	Pattern *regexp.Regexp
}

// Condition is the match predicate of a descriptor: an OR over field
// matches. An empty condition matches every document.
type Condition []FieldMatch

// Matches reports whether a document, presented as field name → value,
// satisfies the condition.
func (c Condition) Matches(doc map[string]any) bool {
	if len(c) == 0 {
		return true
	}
	for _, m := range c {
		v, ok := doc[m.Field]
		if !ok {
			continue
		}
		if s, ok := v.(string); ok && m.Pattern.MatchString(s) {
			return true
		}
	}
	return false
}

// Options are the resolved pagination and sort settings of a descriptor.
// Page and Limit are always positive.
type Options struct {
	Sort     string
	Order    Order
	Page     int
	Limit    int
	Populate []string // Relation names to expand, supplied by the caller context.
}

// HasPopulate reports whether the named relation was requested.
func (o Options) HasPopulate(name string) bool {
	for _, p := range o.Populate {
		if p == name {
			return true
		}
	}
	return false
}

// Offset returns the number of documents to skip for the current page.
func (o Options) Offset() int {
	return (o.Page - 1) * o.Limit
}

// Descriptor is a normalized, executable list query.
type Descriptor struct {
	Condition Condition
	Options   Options
}

// Option customizes normalization.
type Option func(*settings)

type settings struct {
	allowedFields map[string]bool
	populate      []string
}

// WithAllowedFields restricts which field names from Params.Fields make it
// into the condition. Field names outside the allowlist are dropped rather
// than forwarded to the store, so callers never match against arbitrary
// document fields.
func WithAllowedFields(fields ...string) Option {
	return func(s *settings) {
		s.allowedFields = make(map[string]bool, len(fields))
		for _, f := range fields {
			s.allowedFields[f] = true
		}
	}
}

// WithPopulate passes relation names through to the descriptor options.
// This comes from the caller, never from the raw request.
func WithPopulate(relations ...string) Option {
	return func(s *settings) {
		s.populate = relations
	}
}

// Normalize turns raw parameters into a complete descriptor. It is total:
// absent or malformed values fall back to defaults, and page/limit clamp to
// at least 1 (limit additionally caps at MaxLimit).
func Normalize(p Params, opts ...Option) Descriptor {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	return Descriptor{
		Condition: buildCondition(p, s),
		Options: Options{
			Sort:     buildSort(p.Sort),
			Order:    buildOrder(p.Order),
			Page:     clampInt(p.Page, DefaultPage, 0),
			Limit:    clampInt(p.Limit, DefaultLimit, MaxLimit),
			Populate: s.populate,
		},
	}
}

// buildCondition builds the OR-of-substring-matches condition. Both filter
// and fields must be present; otherwise the condition matches everything.
func buildCondition(p Params, s settings) Condition {
	if p.Filter == "" || p.Fields == "" {
		return nil
	}

	// The filter text is matched literally, not as a user-supplied regex.
	pattern := regexp.MustCompile("(?i)" + regexp.QuoteMeta(p.Filter))

	var cond Condition
	for _, field := range strings.Split(p.Fields, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if s.allowedFields != nil && !s.allowedFields[field] {
			continue
		}
		cond = append(cond, FieldMatch{Field: field, Text: p.Filter, Pattern: pattern})
	}
	return cond
}

func buildSort(sort string) string {
	if sort = strings.TrimSpace(sort); sort != "" {
		return sort
	}
	return DefaultSort
}

func buildOrder(order string) Order {
	if order == "1" {
		return Ascending
	}
	// Absent or unparseable input falls back to descending.
	return Descending
}

// clampInt parses a base-10 integer, substituting fallback for missing,
// malformed, zero and negative input. A max of 0 means uncapped.
func clampInt(raw string, fallback, maxVal int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return fallback
	}
	if maxVal > 0 && n > maxVal {
		return maxVal
	}
	return n
}
