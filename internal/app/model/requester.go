package model

import (
	"strings"

	"github.com/google/uuid"
)

// Requester identifies who reserves or contributes: exactly one of an
// authenticated user or a guest display name.
type Requester interface {
	// Columns returns the storage form; exactly one result is non-nil.
	Columns() (userID *uuid.UUID, guestName *string)
	String() string
}

type AuthenticatedRequester struct {
	UserID uuid.UUID
}

func (r AuthenticatedRequester) Columns() (*uuid.UUID, *string) {
	id := r.UserID
	return &id, nil
}

func (r AuthenticatedRequester) String() string {
	return "user:" + r.UserID.String()
}

type GuestRequester struct {
	Name string
}

func (r GuestRequester) Columns() (*uuid.UUID, *string) {
	name := r.Name
	return nil, &name
}

func (r GuestRequester) String() string {
	return "guest:" + r.Name
}

// NewGuestRequester trims the display name; ok is false when nothing is left.
func NewGuestRequester(name string) (GuestRequester, bool) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return GuestRequester{}, false
	}
	return GuestRequester{Name: trimmed}, true
}

func requesterFromColumns(userID *uuid.UUID, guestName *string) Requester {
	if userID != nil {
		return AuthenticatedRequester{UserID: *userID}
	}
	if guestName != nil {
		return GuestRequester{Name: *guestName}
	}
	return nil
}

func holderName(userID *uuid.UUID, guestName *string, names map[uuid.UUID]string) string {
	switch {
	case guestName != nil && *guestName != "":
		return *guestName
	case userID != nil:
		if name, ok := names[*userID]; ok && name != "" {
			return name
		}
		return ShortUserLabel(*userID)
	default:
		return "Anonymous"
	}
}
