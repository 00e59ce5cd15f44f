package sessionauth

import (
	"context"
	"errors"
	"sort"
	"strings"
)

func (e *Engine) GetUser(ctx context.Context, id int64) (*User, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	user, err := e.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNoRecord) {
			return nil, newError(KindNotFound, "User not found")
		}
		return nil, e.backendFailure(ctx, "user.get", err)
	}
	return user, nil
}

// UpdateProfile applies the non-blank fields of upd to an active user. An
// email change is normalized like at registration and must not collide with
// another user. An update that changes nothing performs no write.
func (e *Engine) UpdateProfile(ctx context.Context, id int64, upd ProfileUpdate) (*User, error) {
	user, err := e.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, newError(KindForbidden, "Inactive user cannot be updated")
	}

	var changes UserChanges
	if upd.Email != nil {
		email := normalizeEmail(*upd.Email)
		if email != "" && email != user.Email {
			taken, err := e.users.EmailExists(ctx, email, user.ID)
			if err != nil {
				return nil, e.backendFailure(ctx, "profile.email_exists", err)
			}
			if taken {
				return nil, emailInUse()
			}
			changes.Email = &email
		}
	}
	if v := trimmedOrNil(upd.FirstName); v != nil && *v != user.FirstName {
		changes.FirstName = v
	}
	if v := trimmedOrNil(upd.LastName); v != nil && *v != user.LastName {
		changes.LastName = v
	}
	if v := trimmedOrNil(upd.MiddleName); v != nil && (user.MiddleName == nil || *v != *user.MiddleName) {
		changes.MiddleName = v
	}

	if changes.Empty() {
		return user, nil
	}

	updated, err := e.users.Update(ctx, user.ID, changes)
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicate):
			return nil, emailInUse()
		case errors.Is(err, ErrNoRecord):
			return nil, newError(KindNotFound, "User not found")
		default:
			return nil, e.backendFailure(ctx, "profile.update", err)
		}
	}

	e.metricInc(MetricProfileUpdated)
	e.emitAudit(ctx, auditEventProfileUpdated, true, user.ID, nil, func() map[string]string {
		return map[string]string{"fields": changedFields(changes)}
	})

	return updated, nil
}

func emailInUse() error {
	return newError(KindConflict, "Email is already in use")
}

func changedFields(c UserChanges) string {
	var fields []string
	if c.Email != nil {
		fields = append(fields, "email")
	}
	if c.FirstName != nil {
		fields = append(fields, "first_name")
	}
	if c.LastName != nil {
		fields = append(fields, "last_name")
	}
	if c.MiddleName != nil {
		fields = append(fields, "middle_name")
	}
	sort.Strings(fields)
	return strings.Join(fields, ",")
}

// SoftDelete deactivates a user. The row is kept and an already inactive
// user is left as is. Open sessions are not swept; they fail resolution
// with ErrInactiveUser from now on.
func (e *Engine) SoftDelete(ctx context.Context, id int64) error {
	user, err := e.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if !user.IsActive {
		return nil
	}

	if err := e.users.SetActive(ctx, user.ID, false); err != nil {
		if errors.Is(err, ErrNoRecord) {
			return newError(KindNotFound, "User not found")
		}
		return e.backendFailure(ctx, "user.deactivate", err)
	}

	e.metricInc(MetricUserDeactivated)
	e.emitAudit(ctx, auditEventUserDeactivated, true, user.ID, nil, nil)

	return nil
}
