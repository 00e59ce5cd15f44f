// Package memdir implements sessionauth.UserDirectory and
// sessionauth.AdminDirectory in memory.
//
// Both directories emulate the unique constraints of the SQL schema: a second
// user with the same email or a second admin row for the same user is
// rejected with an error wrapping sessionauth.ErrDuplicate. They are intended
// for tests, examples and single-process demos; nothing is persisted.
package memdir
