package errs

import (
	"errors"
	"fmt"
)

// ConnectivityError means the source database or the NetBox API could not be
// reached. It is the only error class that aborts a migration run.
type ConnectivityError struct {
	Target string
	Err    error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("%s unreachable: %v", e.Target, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// Connectivity wraps err as a ConnectivityError for target. nil stays nil.
func Connectivity(target string, err error) error {
	if err == nil {
		return nil
	}
	var ce *ConnectivityError
	if errors.As(err, &ce) {
		return err
	}
	return &ConnectivityError{Target: target, Err: err}
}

// IsConnectivity reports whether err (or anything it wraps) is a ConnectivityError.
func IsConnectivity(err error) bool {
	var ce *ConnectivityError
	return errors.As(err, &ce)
}
