package sessionauth

import (
	"context"
	"errors"
	"strconv"

	"github.com/MrEthical07/sessionauth/internal/flows"
)

// AddAdmin grants the admin role to an existing user.
//
// When a concurrent grant wins the insert race the existing row is returned
// as if this call had created it.
func (e *Engine) AddAdmin(ctx context.Context, userID int64, superAdmin bool) (*Admin, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	res, err := flows.RunGrantAdmin(ctx, userID, superAdmin, e.flows.Grant)
	if err != nil {
		if KindOf(err) != KindInternal {
			return nil, err
		}
		return nil, e.backendFailure(ctx, "admin.grant", err)
	}

	if res.Raced {
		e.metricInc(MetricAdminGrantRace)
	} else {
		e.metricInc(MetricAdminGranted)
	}
	e.emitAudit(ctx, auditEventAdminGranted, true, userID, nil, func() map[string]string {
		return map[string]string{
			"super_admin": strconv.FormatBool(res.Admin.SuperAdmin),
			"raced":       strconv.FormatBool(res.Raced),
		}
	})

	return res.Admin, nil
}

// RemoveAdmin revokes the admin role. Revoking a user who is not an admin
// succeeds.
func (e *Engine) RemoveAdmin(ctx context.Context, userID int64) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	if err := e.admins.Delete(ctx, userID); err != nil {
		return e.backendFailure(ctx, "admin.revoke", err)
	}

	e.metricInc(MetricAdminRevoked)
	e.emitAudit(ctx, auditEventAdminRevoked, true, userID, nil, nil)

	return nil
}

// SetSuperAdmin sets the super-admin flag on an existing admin row and
// returns the row as stored afterwards.
func (e *Engine) SetSuperAdmin(ctx context.Context, userID int64, value bool) (*Admin, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	if _, err := e.admins.GetByUserID(ctx, userID); err != nil {
		if errors.Is(err, ErrNoRecord) {
			return nil, newError(KindNotFound, "Admin not found")
		}
		return nil, e.backendFailure(ctx, "admin.super.lookup", err)
	}

	if err := e.admins.SetSuperAdmin(ctx, userID, value); err != nil {
		return nil, e.backendFailure(ctx, "admin.super.update", err)
	}

	admin, err := e.admins.GetByUserID(ctx, userID)
	if err != nil {
		// revoked between the update and the re-read
		if errors.Is(err, ErrNoRecord) {
			return nil, newError(KindNotFound, "Admin not found after update")
		}
		return nil, e.backendFailure(ctx, "admin.super.reload", err)
	}

	e.metricInc(MetricSuperAdminChanged)
	e.emitAudit(ctx, auditEventSuperAdminChanged, true, userID, nil, func() map[string]string {
		return map[string]string{"super_admin": strconv.FormatBool(admin.SuperAdmin)}
	})

	return admin, nil
}

func (e *Engine) ListAdmins(ctx context.Context) ([]Admin, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	admins, err := e.admins.List(ctx)
	if err != nil {
		return nil, e.backendFailure(ctx, "admin.list", err)
	}
	if admins == nil {
		admins = []Admin{}
	}
	return admins, nil
}

func (e *Engine) GetAdmin(ctx context.Context, userID int64) (*Admin, error) {
	admin, err := e.lookupAdmin(ctx, userID)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, newError(KindNotFound, "Admin not found")
	}
	return admin, nil
}
