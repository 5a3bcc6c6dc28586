package model

// Principal identifies the caller. Token is forwarded to the backend as is,
// Owner is a stable key derived from it for process-local state.
type Principal struct {
	Owner string
	Token string
}
