// Package sessionauth provides session-based authentication and role
// authorization backed by opaque server-side sessions in Redis.
//
// A successful [Engine.Login] stores a session hash under sess:{sid} with an
// absolute TTL and returns the session id. [Engine.ResolveCurrentUser] maps a
// session id back to an active [User] and renews the TTL. Admin and
// super-admin roles are rows in an [AdminDirectory]; the guards in the
// middleware package call [Engine.AuthorizeAdmin] and
// [Engine.AuthorizeSuperAdmin] after identity resolution.
//
// Engine methods are safe to call from multiple goroutines after
// [Builder.Build].
//
// # Architecture boundaries
//
// sessionauth is the public surface. It exposes [Engine], [Builder], [Config],
// the directory and store interfaces, and value types. Flow orchestration,
// session id generation and login throttling live under internal/.
// Persistence lives in the postgres and memdir packages, HTTP transport in
// httpapi and middleware.
//
// # Errors
//
// Expected outcomes are returned as *[Error] values whose [Kind] maps to one
// HTTP status. Everything else (Redis or database faults) is returned as a
// plain wrapped error and should be treated as internal.
//
// # What this package must NOT do
//
//   - Return session ids, password hashes or plaintext passwords in errors,
//     logs or audit events.
//   - Sweep sessions on deactivation; an inactive user is rejected at
//     resolution time instead.
//   - Import any sub-package that re-imports sessionauth.
package sessionauth
