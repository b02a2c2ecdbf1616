package perm

import (
	"strings"

	"planboard/internal/model"
)

// CanRead enforces read visibility for an entity.
//
// Rules:
// - The owner can always read.
// - Anyone (including anonymous callers) can read a published entity that is not archived.
func CanRead(ownerID string, e model.Entity) bool {
	if isOwner(ownerID, e) {
		return true
	}
	return e.Readable()
}

// CanEdit enforces ownership for every write: only the owner may patch, archive or
// delete an entity, or edit its board.
func CanEdit(ownerID string, e model.Entity) bool {
	return isOwner(ownerID, e)
}

// CanRemoveComment allows the guestbook owner, or whoever knows the password the
// comment was posted with.
func CanRemoveComment(ownerID string, gb model.Entity, passwordMatches bool) bool {
	return passwordMatches || isOwner(ownerID, gb)
}

func isOwner(ownerID string, e model.Entity) bool {
	ownerID = strings.TrimSpace(ownerID)
	return ownerID != "" && ownerID == e.OwnerID
}
