package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and collaborator clients
// return these (optionally wrapped) so services can translate them into domain
// errors with stable codes.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record does not exist in the store or collaborator
// - ErrUnavailable: collaborator transport failed or timed out
// - ErrDecode: collaborator response could not be interpreted
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
	ErrDecode      = errors.New("undecodable response")
)
