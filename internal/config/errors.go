package config

const (
	// Database errors
	ErrInitializeDatabaseFmt = "Failed to initialize database: %v"
	ErrInitializeStorageFmt  = "Failed to initialize storage backend: %v"

	// Service errors
	ErrWritingNotFound  = "Writing not found"
	ErrInvalidRequest   = "Invalid request body"
	ErrInvalidPage      = "Invalid page number"
	ErrInternalServer   = "Internal server error"
	ErrMethodNotAllowed = "Method not allowed"

	// Remote client errors
	ErrRemoteStatusFmt = "request failed with status %d"
	ErrRemoteNoMessage = "remote call failed"
)
