package repository

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every error returned by a Repository matches exactly one of these with errors.Is.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrTransport       = errors.New("transport error")
	ErrDeserialization = errors.New("deserialization error")
	ErrClosed          = errors.New("repository closed")
)

// APIError describes a failed repository call.
type APIError struct {
	Kind       error
	Endpoint   string
	URL        string
	StatusCode int
	Code       string
	Reason     string
	Err        error
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString("battlenet: ")
	if e.Endpoint != "" {
		b.WriteString(e.Endpoint)
		b.WriteString(": ")
	}
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	}
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *APIError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// envelope is the error body the API returns, either with an error status or,
// on the legacy endpoints, with 200.
type envelope struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
	Detail string `json:"detail"`
}

func (e envelope) message() string {
	if e.Reason != "" {
		return e.Reason
	}
	return e.Detail
}
