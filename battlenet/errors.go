package battlenet

import "github.com/tnicklin/nephalem/battlenet/repository"

// Error kinds returned by Client, matched with errors.Is.
var (
	ErrInvalidArgument = repository.ErrInvalidArgument
	ErrNotFound        = repository.ErrNotFound
	ErrTransport       = repository.ErrTransport
	ErrDeserialization = repository.ErrDeserialization
	ErrClosed          = repository.ErrClosed
)

// APIError carries the details of a failed lookup.
type APIError = repository.APIError
