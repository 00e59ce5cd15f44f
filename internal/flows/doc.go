// Package flows contains pure-function orchestrators for the session
// lifecycle and admin grant operations of the Engine.
//
// Each flow function (RunLogin, RunResolve, RunGrantAdmin) accepts a typed
// dependency struct and returns results without side-effects beyond those
// dependencies. Flows are generic over the host's user and admin types, so
// the Engine passes its own records through without conversion.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the session store, user and admin
// directories, hasher and login limiter. They do NOT own any of these
// resources; ownership stays with the Engine. Audit and metrics are emitted
// by the Engine from the returned results.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import sessionauth (to avoid import cycles).
//   - Perform I/O directly. All I/O is mediated through dependency functions.
package flows
