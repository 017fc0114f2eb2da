package analyzer

import "errors"

// Sentinel hard-failure errors (spec.md §7). Unlike findings, these abort
// analysis immediately with no partial report; callers classify via
// errors.Is after wrapping with fmt.Errorf("%w: ...", Err...).
var (
	// ErrMalformedDescription signals an LDF/DBC that violates an invariant
	// the analyzer relies on (e.g. a dangling SignalID, multiplexor
	// recursion, or an overlapping bit range).
	ErrMalformedDescription = errors.New("malformed_description")
	// ErrConfigError signals a non-finite or negative tolerance in Config.
	ErrConfigError = errors.New("config_error")
	// ErrInternalInvariant signals a bug: an internal precondition this
	// package assumed was false. It is test-visible and should never occur
	// on well-formed input.
	ErrInternalInvariant = errors.New("internal_invariant_violated")
)
