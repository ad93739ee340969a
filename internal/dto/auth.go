package dto

import "github.com/noah-isme/uniportal-api/internal/models"

// LoginRequest holds credentials submitted to the login form or API.
// Identifier is a username (staff or matric number) or an email address.
type LoginRequest struct {
	Identifier string `json:"identifier" form:"identifier" validate:"required,max=254"`
	Password   string `json:"password" form:"password" validate:"required"`
	IP         string `json:"-" form:"-"`
	UserAgent  string `json:"-" form:"-"`
}

// LoginResult reports where the client should go after signing in.
type LoginResult struct {
	RedirectTo string             `json:"redirect_to"`
	Session    models.SessionView `json:"session"`
}
