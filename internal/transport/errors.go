package transport

import "fmt"

// ConnectError is returned by Connect when the caller cancels before a
// connection could be opened. Err is the failure of the last attempt.
type ConnectError struct {
	URL string
	Err error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("could not open %s: %v", e.URL, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}
