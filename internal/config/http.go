package config

const (
	HCType        = "Content-Type"
	HCacheControl = "Cache-Control"

	CTypeJSON = "application/json"
	CTypeText = "text/plain"
)

const (
	HTTPErrMethodNotAllowed = "Method not allowed"
)

// API routes of the writing service. Shared by the server mux and the remote
// client so the two cannot drift apart.
const (
	PostsPath        = "/posts"
	PostsIDPrefix    = "/posts/"
	AutosaveIDPrefix = "/auto-save/"
)

// Query parameters accepted by the list endpoint.
const (
	QueryPage   = "page"
	QuerySearch = "search"
)
