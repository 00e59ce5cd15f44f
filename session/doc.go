// Package session provides Redis-backed session persistence for opaque
// session identifiers.
//
// # Layout
//
// A session lives in a single Redis hash at "{prefix}:{sid}" with three text
// fields: user_id (decimal), issued_at and expires_at (RFC 3339, UTC). The
// key carries an absolute TTL that is written together with the fields and
// renewed explicitly by the caller.
//
// # Architecture boundaries
//
// This package owns the [Store] (Redis operations) and the [Session] model. It
// does NOT look up users, check roles, or decide whether a session grants
// access. Those decisions belong to the Engine.
//
// # What this package must NOT do
//
//   - Import sessionauth or any other upward package.
//   - Store anything but the user id and timestamps in the hash.
package session
