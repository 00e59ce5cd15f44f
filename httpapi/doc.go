// Package httpapi exposes the Engine over JSON/HTTP.
//
// Routes are mounted on a chi router by Handler.Routes. Profile routes sit
// behind middleware.RequireUser, read-only admin routes behind RequireAdmin,
// and admin management behind RequireSuperAdmin.
//
// Every failure is answered with the same envelope:
//
//	{"error":{"code":404,"message":"User not found","status":"NOT_FOUND"}}
//
// Engine errors carry their own status through sessionauth.Kind. Request
// decoding and validation failures use 400 or 422 with INVALID_ARGUMENT.
// Anything else is logged and reported as a bare 500 INTERNAL.
package httpapi
