package auth

import (
	"github.com/angelmondragon/buttery-backend/pkg/db/models"
	"github.com/angelmondragon/buttery-backend/pkg/enums"
)

// LoginRequest carries an identity asserted by the campus login provider.
type LoginRequest struct {
	NetID string `json:"netid" validate:"required,netid"`
	Name  string `json:"name" validate:"omitempty,max=120"`
	Email string `json:"email" validate:"omitempty,email"`
}

// UserDTO is the public view of a signed-in user.
type UserDTO struct {
	NetID string         `json:"netid"`
	Name  string         `json:"name"`
	Email string         `json:"email"`
	Role  enums.UserRole `json:"role"`
}

// LoginResponse contains the bearer token and the signed-in user.
type LoginResponse struct {
	AccessToken string   `json:"access_token"`
	User        *UserDTO `json:"user"`
}

func fromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{NetID: u.NetID, Name: u.Name, Email: u.Email, Role: u.Role}
}
