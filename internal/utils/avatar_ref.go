package utils

import (
	"github.com/google/uuid"
)

// NewAvatarRef generates an opaque reference under which the upload layer
// stores a profile picture. The core only ever persists this token.
func NewAvatarRef() string {
	return "avatar-" + uuid.NewString()
}
