package pkg

import (
	"errors"
	"fmt"
)

type Error struct {
	orig error
	msg  string
	code error
}

func (e *Error) Error() string {
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}

	return e.msg
}

func (e *Error) Unwrap() error {
	return e.orig
}

func WrapErrorf(orig error, code error, format string, a ...interface{}) error {
	return &Error{
		code: code,
		orig: orig,
		msg:  fmt.Sprintf(format, a...),
	}
}

func (e *Error) Code() error {
	return e.code
}

// ErrorCode returns the code of the first *Error in err's chain, or ErrInternalServerError.
func ErrorCode(err error) error {
	var ierr *Error
	if errors.As(err, &ierr) && ierr.code != nil {
		return ierr.code
	}
	return ErrInternalServerError
}

var (
	ErrInternalServerError = errors.New("internal Server Error")
	ErrNotFound            = errors.New("your requested Item is not found")
	ErrConflict            = errors.New("your Item already exist")
	ErrBadParamInput       = errors.New("given Param is not valid")
	ErrServiceUnavailable  = errors.New("service is busy, try again later")
)

var MessageInternalServerError string = "internal server error"

// pipeline error kinds
var (
	ErrInvalidBoundingBox   = errors.New("invalid bounding box")
	ErrTileFetchFailure     = errors.New("geometry tile fetch failed")
	ErrDataTileFetchFailure = errors.New("data tile fetch failed")
	ErrInvalidSegmentID     = errors.New("invalid segment id")
	ErrSpeedLookupMiss      = errors.New("speed lookup miss")
	ErrRouteLookupFailure   = errors.New("route lookup failed")
	ErrSinkFailure          = errors.New("render sink failure")
)
