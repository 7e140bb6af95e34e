package bookings

import "github.com/shareit/shareit-backend/pkg/db/models"

// Permission is an access predicate over a booking and an acting user.
type Permission int

const (
	PermissionOwner Permission = iota
	PermissionBooker
	PermissionBookerOrOwner
)

// Allows reports whether userID passes the check. The booking's Item must be
// loaded for owner checks.
func (p Permission) Allows(b *models.Booking, userID int64) bool {
	if b == nil {
		return false
	}
	isBooker := b.BookerID == userID
	isOwner := b.Item != nil && b.Item.OwnerID == userID
	switch p {
	case PermissionOwner:
		return isOwner
	case PermissionBooker:
		return isBooker
	case PermissionBookerOrOwner:
		return isBooker || isOwner
	default:
		return false
	}
}
