// Package restriction provides the small predicate objects that gate a
// permission on "when" and "where": time-of-day/weekday windows and
// geographic allow/block lists over country codes and IP networks.
//
// Restrictions are pure predicates. Time restrictions are evaluated
// against an explicit time value supplied by the caller (see Clock),
// never against a hard system-time read, so decisions stay
// deterministic under test.
//
// Evaluation is fail-closed: values that cannot be interpreted (bad
// timezone, unparsable IP while network restrictions are configured)
// deny rather than permit.
package restriction
