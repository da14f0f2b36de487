package calendar

import (
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"
)

// RemoteServiceError reports a failed Calendar API call. The provider's
// message is carried verbatim so agents can relay it to the user.
type RemoteServiceError struct {
	Op  string // gateway operation: freebusy, create, list, update, delete
	Err error
}

func (e *RemoteServiceError) Error() string {
	return fmt.Sprintf("calendar %s failed: %v", e.Op, e.Err)
}

func (e *RemoteServiceError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status of the underlying API error, or 0 when
// the failure happened before a response arrived.
func (e *RemoteServiceError) StatusCode() int {
	var apiErr *googleapi.Error
	if errors.As(e.Err, &apiErr) {
		return apiErr.Code
	}
	return 0
}
