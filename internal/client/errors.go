package client

import (
	"errors"
	"fmt"
)

// ErrNoTaskID is returned when a vendor accepts a generation request but the
// response carries no job identifier to poll.
var ErrNoTaskID = errors.New("vendor response missing task id")

// ErrNoImageURL is returned when an image generation response carries no
// downloadable artifact URL.
var ErrNoImageURL = errors.New("image response missing url")

// MalformedResponseError reports a vendor payload that parsed but did not
// contain the fields a stage requires.
type MalformedResponseError struct {
	Vendor string
	Detail string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s returned a malformed response: %s", e.Vendor, e.Detail)
}
