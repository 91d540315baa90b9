package shared

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrors(t *testing.T) {
	sentinels := []struct {
		name string
		err  error
	}{
		{"missing config", ErrMissingConfig},
		{"invalid config", ErrInvalidConfig},
		{"missing credentials", ErrMissingCredentials},
		{"auth failed", ErrAuthFailed},
		{"api request", ErrAPIRequest},
		{"service unavailable", ErrServiceUnavailable},
		{"playlist not found", ErrPlaylistNotFound},
		{"empty pool", ErrEmptyPool},
		{"partial fulfillment", ErrPartialFulfillment},
		{"no playlists created", ErrNoPlaylistsCreated},
		{"invalid argument", ErrInvalidArgument},
		{"invalid flag", ErrInvalidFlag},
		{"unsupported format", ErrUnsupportedFormat},
	}

	for i, tt := range sentinels {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("context: %w", tt.err)
			if !errors.Is(wrapped, tt.err) {
				t.Errorf("expected wrapped error to match %v", tt.err)
			}
			for j, other := range sentinels {
				if i != j && errors.Is(wrapped, other.err) {
					t.Errorf("%v also matches %v", tt.err, other.err)
				}
			}
		})
	}
}
