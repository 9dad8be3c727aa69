package dto

import (
	"time"

	"github.com/taskflow-ai/taskflow-api/internal/models"
)

// UserDTO is the public view of an account. The password hash never leaves
// the service layer.
type UserDTO struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	}
}

// userRef returns nil for relations that were not preloaded.
func userRef(user models.User) *UserDTO {
	if user.ID == "" {
		return nil
	}
	u := ToUserDTO(user)
	return &u
}
