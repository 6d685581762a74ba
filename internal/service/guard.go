package service

import "guitar-service/internal/model"

// AuthorizeOwnerScoped allows a user-scoped read only for the user it names.
func AuthorizeOwnerScoped(requestedUserID int64, caller model.Identity) error {
	if caller.UserID == 0 || requestedUserID != caller.UserID {
		return ErrForbidden
	}
	return nil
}
