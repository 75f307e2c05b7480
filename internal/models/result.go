package models

// Result carries the outcome of an analytic step that never fails outright.
// A degraded result still holds a usable default Value; Reason says why the
// step could not produce its normal output.
type Result[T any] struct {
	Value  T
	Reason string
}

// Ok wraps a normally computed value
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Degraded wraps a fallback value together with the cause
func Degraded[T any](fallback T, reason string) Result[T] {
	if reason == "" {
		reason = "degraded"
	}
	return Result[T]{Value: fallback, Reason: reason}
}

// IsDegraded reports whether the value is a fallback
func (r Result[T]) IsDegraded() bool {
	return r.Reason != ""
}
