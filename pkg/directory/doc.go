// Package directory provides the policy stores behind the engine's
// PrincipalDirectory and ResourceDirectory interfaces.
//
// Three implementations cover the deployment spectrum:
//
//   - Memory: a mutable in-process store, used for tests and as the
//     target the YAML loader hydrates.
//   - LoadFile / Parse: a declarative YAML snapshot with reference
//     resolution, for static policy sets shipped alongside the
//     service.
//   - Postgres: the production store, loading principal aggregates on
//     demand with a short-lived in-process catalog of roles and
//     permission definitions.
//
// All implementations return fully hydrated snapshots: role
// assignments carry their role with permissions and parents resolved,
// so the engine never performs follow-up lookups of its own.
package directory
