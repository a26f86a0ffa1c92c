package pointsnav

import "errors"

// ErrUnauthenticated is returned when a protected operation is attempted
// with no session token; the request never reaches the network.
var ErrUnauthenticated = errors.New("pointsnav: not logged in")

// ErrUnauthorized is returned when the API rejects a request with a 401.
// By the time the caller sees it the unauthorized hook has already fired
// and the session has been torn down.
var ErrUnauthorized = errors.New("pointsnav: session rejected by server")

// IsUnauthorized reports whether err means the session expired server-side.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsUnauthenticated reports whether err means no session was present.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}
