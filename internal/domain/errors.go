package domain

import "errors"

var (
	// ErrRequestNotFound is returned when a diet request does not exist
	ErrRequestNotFound = errors.New("diet request not found")

	// ErrProfileNotFound is returned when the owning user has no nutrition profile
	ErrProfileNotFound = errors.New("user profile not found")

	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrFoodNotFound is returned when a reference food entry does not exist
	ErrFoodNotFound = errors.New("reference food not found")

	// ErrEmailTaken is returned when registering an email that already exists
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned on failed login
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNoUsableText is returned when the text-generation provider returns no output
	ErrNoUsableText = errors.New("model returned no usable text")

	// ErrGenerationFailed is returned when both plan generation attempts fail
	ErrGenerationFailed = errors.New("plan generation failed")
)
