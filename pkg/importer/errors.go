package importer

import (
	"errors"
)

// ErrReportInit means the begin entry of a run could not be written, so no
// run was started.
var ErrReportInit = errors.New("could not initialise import report")

var (
	errMissingContentType = errors.New("missing content type")
	errUnsupportedType    = errors.New("upload must be text/csv")
)

type ValidationError struct {
	reason error
}

func (e ValidationError) Error() string {
	return e.reason.Error()
}

func (e ValidationError) Unwrap() error {
	return e.reason
}

func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
