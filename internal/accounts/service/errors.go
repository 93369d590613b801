package service

import "net/http"

// Error is the typed failure every core operation returns: a numeric status
// and a user-safe message. Lower-layer errors never escape unclassified; the
// HTTP layer writes Status and Message straight into the response envelope.
type Error struct {
	Status  int
	Message string
	Err     error // underlying cause, for logs only
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

var (
	// Registration / input validation.
	ErrFieldsRequired     = &Error{Status: http.StatusBadRequest, Message: "All fields are required."}
	ErrIdentifierRequired = &Error{Status: http.StatusBadRequest, Message: "Username or email is required."}
	ErrPasswordRequired   = &Error{Status: http.StatusBadRequest, Message: "Password is required."}
	ErrAvatarRequired     = &Error{Status: http.StatusBadRequest, Message: "Avatar file is required."}
	ErrCoverRequired      = &Error{Status: http.StatusBadRequest, Message: "Cover image file is required."}
	ErrInvalidOldPassword = &Error{Status: http.StatusBadRequest, Message: "Invalid old password."}

	// Uniqueness.
	ErrUserExists = &Error{Status: http.StatusConflict, Message: "User with email or username already exists."}

	// The login path reports a missing identity distinctly from a bad
	// password. Token paths below do not make that distinction.
	ErrUserNotFound = &Error{Status: http.StatusNotFound, Message: "User does not exist."}

	// Credential and token failures. Uniform 401s so the token paths never
	// reveal whether an identity exists.
	ErrInvalidCredentials  = &Error{Status: http.StatusUnauthorized, Message: "Invalid user credentials."}
	ErrUnauthorized        = &Error{Status: http.StatusUnauthorized, Message: "Unauthorized request."}
	ErrInvalidAccessToken  = &Error{Status: http.StatusUnauthorized, Message: "Invalid access token."}
	ErrInvalidRefreshToken = &Error{Status: http.StatusUnauthorized, Message: "Invalid refresh token."}
	ErrRefreshTokenReused  = &Error{Status: http.StatusUnauthorized, Message: "Refresh token is expired or already used."}
)

// internalError wraps an unexpected failure. The message stays generic; the
// cause is kept for logging only.
func internalError(message string, err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: message, Err: err}
}
