package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the user lacks permission for this action
	ErrForbidden = errors.New("forbidden")

	// ErrSessionNotFound indicates the quiz session does not exist
	ErrSessionNotFound = errors.New("session not found")

	// ErrGenerationBusy indicates a generation pass is already running for the session
	ErrGenerationBusy = errors.New("generation already in progress")

	// ErrDocumentUnreadable indicates text extraction produced no usable text
	ErrDocumentUnreadable = errors.New("document unreadable")

	// ErrEmptyDocument indicates chunking produced zero usable chunks
	ErrEmptyDocument = errors.New("empty document")

	// ErrInvalidPayload indicates model output could not be normalized into a question
	ErrInvalidPayload = errors.New("invalid payload shape")

	// ErrModelTimeout indicates the model call exceeded its time budget
	ErrModelTimeout = errors.New("model timeout")

	// ErrModelEmptyResponse indicates the model returned no content
	ErrModelEmptyResponse = errors.New("model returned empty response")

	// ErrModelInvalidJSON indicates the model returned malformed JSON after retries
	ErrModelInvalidJSON = errors.New("model returned invalid JSON")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrInvalidCredentials indicates wrong email/password combination
	ErrInvalidCredentials = errors.New("invalid credentials")
)
