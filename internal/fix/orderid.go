package fix

import "github.com/google/uuid"

// NextOrderID returns a fresh client order ID. IDs must be unique across
// process restarts, so they are random rather than sequential.
func NextOrderID() string {
	return uuid.NewString()
}
