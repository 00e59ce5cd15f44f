package flows

import "context"

// GrantErrors carries host-level errors returned by the admin grant flow.
type GrantErrors struct {
	UserNotFound error
	AlreadyAdmin error
}

// GrantDeps captures admin grant dependencies.
type GrantDeps[A any] struct {
	UserExists  func(ctx context.Context, userID int64) (bool, error)
	GetAdmin    func(ctx context.Context, userID int64) (A, error)
	InsertAdmin func(ctx context.Context, userID int64, superAdmin bool) (A, error)
	IsNoRecord  func(error) bool
	IsDuplicate func(error) bool

	Errors GrantErrors
}

// GrantResult reports the admin row and whether it was created by a
// concurrent caller.
type GrantResult[A any] struct {
	Admin A
	Raced bool
}

// RunGrantAdmin creates an admin row for userID. A uniqueness violation on
// insert means another caller won the race: the existing row is returned
// instead of an error. If the re-read finds nothing, the violation was not a
// benign race and the insert error is returned unchanged.
func RunGrantAdmin[A any](ctx context.Context, userID int64, superAdmin bool, deps GrantDeps[A]) (GrantResult[A], error) {
	var res GrantResult[A]

	exists, err := deps.UserExists(ctx, userID)
	if err != nil {
		return res, err
	}
	if !exists {
		return res, deps.Errors.UserNotFound
	}

	if _, err := deps.GetAdmin(ctx, userID); err == nil {
		return res, deps.Errors.AlreadyAdmin
	} else if !deps.IsNoRecord(err) {
		return res, err
	}

	admin, insertErr := deps.InsertAdmin(ctx, userID, superAdmin)
	if insertErr == nil {
		res.Admin = admin
		return res, nil
	}
	// the user was deleted between the existence check and the insert
	if deps.IsNoRecord(insertErr) {
		return res, deps.Errors.UserNotFound
	}
	if !deps.IsDuplicate(insertErr) {
		return res, insertErr
	}

	existing, err := deps.GetAdmin(ctx, userID)
	if err != nil {
		if deps.IsNoRecord(err) {
			return res, insertErr
		}
		return res, err
	}

	res.Admin = existing
	res.Raced = true
	return res, nil
}
