package flows

import "fmt"

// RejectionError records the status and message of a response the server did not acknowledge.
type RejectionError struct {
	Status  int
	Message string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("server rejected request (status %d): %s", e.Status, e.Message)
}
