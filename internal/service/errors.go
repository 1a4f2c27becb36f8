package service

import "github.com/vineet-vishwakarma/Chat-App/internal/apperr"

// Errors the handlers map straight to HTTP responses.
var (
	ErrUserExists          = apperr.Conflict("User with email or username already exists", nil)
	ErrMissingIdentifier   = apperr.Validation("username or email is required", nil)
	ErrUserNotFound        = apperr.NotFound("User does not exist", nil)
	ErrInvalidCredentials  = apperr.Unauthorized("Invalid user credentials", nil)
	ErrInvalidRefreshToken = apperr.Unauthorized("Invalid or expired refresh token", nil)
	ErrWrongPassword       = apperr.Validation("Invalid old password", nil)
)
