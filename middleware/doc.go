// Package middleware exposes net/http guards that authenticate requests by
// session cookie and gate them on admin roles.
//
// # Guards
//
//   - [RequireUser]: resolves the session cookie to an active user.
//   - [RequireAdmin]: requires an admin row for the resolved user.
//   - [RequireSuperAdmin]: requires the super-admin flag.
//   - [ClientIP]: copies the caller address and User-Agent into the context.
//
// Role guards must be mounted behind RequireUser. Without a resolved user
// they reject the request as unauthenticated and never consult the admin
// directory.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. Every decision is
// delegated to sessionauth.Engine; error rendering is delegated to the
// configured [ErrorHandler].
//
// # What this package must NOT do
//
//   - Read or write Redis or the database directly.
//   - Log session ids.
package middleware
