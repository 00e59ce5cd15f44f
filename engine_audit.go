package sessionauth

import (
	"context"
	"errors"
)

const (
	auditEventRegisterSuccess   = "register_success"
	auditEventRegisterDuplicate = "register_duplicate"
	auditEventRegisterRejected  = "register_rejected"
	auditEventLoginSuccess      = "login_success"
	auditEventLoginFailure      = "login_failure"
	auditEventLoginRateLimited  = "login_rate_limited"
	auditEventLogout            = "logout"
	auditEventSessionExpired    = "session_expired"
	auditEventAccessDenied      = "access_denied"
	auditEventAdminGranted      = "admin_granted"
	auditEventAdminRevoked      = "admin_revoked"
	auditEventSuperAdminChanged = "super_admin_changed"
	auditEventProfileUpdated    = "profile_updated"
	auditEventUserDeactivated   = "user_deactivated"
)

// AuditErrorCode is the stable error label written to AuditEvent.Error.
type AuditErrorCode string

const (
	auditErrUnauthenticated    AuditErrorCode = "unauthenticated"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrSessionExpired     AuditErrorCode = "session_expired"
	auditErrForbidden          AuditErrorCode = "forbidden"
	auditErrInactiveUser       AuditErrorCode = "inactive_user"
	auditErrNotFound           AuditErrorCode = "not_found"
	auditErrConflict           AuditErrorCode = "conflict"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrInvalidInput       AuditErrorCode = "invalid_input"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID int64,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		UserID:    userID,
		IP:        ClientIPFromContext(ctx),
		UserAgent: UserAgentFromContext(ctx),
		RequestID: RequestIDFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrRedisUnavailable) {
		return auditErrUnavailable
	}

	switch KindOf(err) {
	case KindNotAuthenticated:
		return auditErrUnauthenticated
	case KindInvalidCredentials:
		return auditErrInvalidCredentials
	case KindSessionExpired:
		return auditErrSessionExpired
	case KindForbidden:
		return auditErrForbidden
	case KindInactiveUser:
		return auditErrInactiveUser
	case KindNotFound:
		return auditErrNotFound
	case KindConflict:
		return auditErrConflict
	case KindRateLimited:
		return auditErrRateLimited
	case KindInvalidInput:
		return auditErrInvalidInput
	default:
		return auditErrInternal
	}
}
