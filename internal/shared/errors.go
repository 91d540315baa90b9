package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed = fmt.Errorf("authentication failed")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")

	// Generation outcomes
	ErrEmptyPool          = fmt.Errorf("no songs survived filtering")
	ErrPartialFulfillment = fmt.Errorf("playlist shorter than target length")
	ErrNoPlaylistsCreated = fmt.Errorf("no playlists were created")

	// Input validation errors
	ErrInvalidArgument   = fmt.Errorf("invalid argument")
	ErrInvalidFlag       = fmt.Errorf("invalid flag value")
	ErrUnsupportedFormat = fmt.Errorf("unsupported format")
)
