// Package condition evaluates dynamic permission conditions written in
// a small embedded expression language (github.com/expr-lang/expr).
//
// A condition is a single boolean expression evaluated against a
// snapshot of the principal, resource, request, and environment:
//
//	user.department == "finance" && !time.isWeekend()
//	resource.owner == user.id || hasRole(user, "auditor")
//	request.countryCode in ["US", "CA"] && isBusinessHours()
//
// Evaluation is sandboxed and fail-closed: expressions have no access
// to I/O or globals beyond the provided snapshot, a compile error,
// runtime fault, non-boolean result, or exceeded time budget all count
// as "condition not satisfied", and the fault is reported to the
// caller for logging, never panicked.
//
// Compiled programs are cached by expression text, so repeated
// evaluation of the same policy condition does not recompile.
package condition
