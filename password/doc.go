// Package password implements credential hashing and verification.
//
// # Output format
//
// New hashes are bcrypt strings ($2a$ / $2b$) at cost 12 unless configured
// otherwise. Argon2id hashes in PHC format are still accepted for
// verification:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Hasher.NeedsRehash] reports hashes that are not bcrypt at the configured
// cost, so a caller can re-hash on the next successful login.
//
// # Verification contract
//
// Verify returns a bool only. Malformed hashes, unsupported algorithms and
// oversize inputs are indistinguishable from a wrong password.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive hashes.
//   - Import any other sessionauth package.
//   - Log plaintext passwords or hash parameters at runtime.
package password
