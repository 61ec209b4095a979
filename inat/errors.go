package inat

import (
	"fmt"
)

// SourceError is returned when a call to the iNaturalist API fails
// with a transport error, a non-2xx status or an undecodable body.
type SourceError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *SourceError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("inat %s: unexpected response code %d: %s", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("inat %s: %s", e.Op, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}
