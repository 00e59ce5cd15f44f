package internaldefs

import (
	"github.com/MrEthical07/sessionauth"
)

// CounterDef names one engine counter for export.
type CounterDef struct {
	ID   sessionauth.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for export.
type HistogramDef struct {
	ID   sessionauth.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter exported for sessionauth.Engine.AuditDropped.
const AuditDroppedName = "sessionauth_audit_dropped_total"

// AuditDroppedHelp describes AuditDroppedName.
const AuditDroppedHelp = "Audit events dropped because the dispatcher buffer was full."

var CounterDefs = []CounterDef{
	{ID: sessionauth.MetricRegisterSuccess, Name: "sessionauth_register_success_total", Help: "Successful registrations."},
	{ID: sessionauth.MetricRegisterConflict, Name: "sessionauth_register_conflict_total", Help: "Registrations rejected because the email was taken."},
	{ID: sessionauth.MetricLoginSuccess, Name: "sessionauth_login_success_total", Help: "Successful logins."},
	{ID: sessionauth.MetricLoginFailure, Name: "sessionauth_login_failure_total", Help: "Logins rejected for invalid credentials."},
	{ID: sessionauth.MetricLoginInactive, Name: "sessionauth_login_inactive_total", Help: "Logins rejected because the user is inactive."},
	{ID: sessionauth.MetricLoginRateLimited, Name: "sessionauth_login_rate_limited_total", Help: "Logins rejected by the throttle."},
	{ID: sessionauth.MetricSessionCreated, Name: "sessionauth_session_created_total", Help: "Sessions written to the store."},
	{ID: sessionauth.MetricSessionResolved, Name: "sessionauth_session_resolved_total", Help: "Sessions resolved to an active user."},
	{ID: sessionauth.MetricSessionExpired, Name: "sessionauth_session_expired_total", Help: "Resolutions of missing, expired, or malformed sessions."},
	{ID: sessionauth.MetricLogout, Name: "sessionauth_logout_total", Help: "Logouts."},
	{ID: sessionauth.MetricAccessDenied, Name: "sessionauth_access_denied_total", Help: "Role checks that denied access."},
	{ID: sessionauth.MetricAdminGranted, Name: "sessionauth_admin_granted_total", Help: "Admin rows inserted."},
	{ID: sessionauth.MetricAdminGrantRace, Name: "sessionauth_admin_grant_race_total", Help: "Admin grants that lost an insert race and returned the existing row."},
	{ID: sessionauth.MetricAdminRevoked, Name: "sessionauth_admin_revoked_total", Help: "Admin removals."},
	{ID: sessionauth.MetricSuperAdminChanged, Name: "sessionauth_super_admin_changed_total", Help: "Super-admin flag updates."},
	{ID: sessionauth.MetricProfileUpdated, Name: "sessionauth_profile_updated_total", Help: "Profile updates that wrote changes."},
	{ID: sessionauth.MetricUserDeactivated, Name: "sessionauth_user_deactivated_total", Help: "Users soft-deleted."},
	{ID: sessionauth.MetricPasswordUpgraded, Name: "sessionauth_password_upgraded_total", Help: "Stored password hashes replaced after a successful login."},
	{ID: sessionauth.MetricBackendError, Name: "sessionauth_backend_error_total", Help: "Unexpected session store or directory failures."},
}

var HistogramDefs = []HistogramDef{
	{ID: sessionauth.MetricResolveLatency, Name: "sessionauth_resolve_latency_seconds", Help: "Session resolution latency."},
}

// BucketCount is the number of histogram buckets, +Inf included.
const BucketCount = 8

// HistogramBounds are the upper bounds in seconds of the finite buckets.
var HistogramBounds = [BucketCount - 1]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket in instrument names.
var HistogramBoundSuffix = [BucketCount]string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size array, padding with zeros.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
