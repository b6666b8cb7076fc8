package client

import (
	"errors"
	"fmt"
)

// DefaultInterceptorMessage is reported when a request interceptor fails without a message.
const DefaultInterceptorMessage = "Something went wrong"

var ErrBodyTooLarge = errors.New("httpx/client: response body too large")

// InterceptorError rejects a request whose interceptor failed. The request is never sent.
type InterceptorError struct {
	// Interceptor names the failing stage, e.g. "xsrf-token".
	Interceptor string
	Err         error
}

func (e *InterceptorError) Error() string {
	if e == nil || e.Err == nil || e.Err.Error() == "" {
		return DefaultInterceptorMessage
	}
	return e.Err.Error()
}

func (e *InterceptorError) Unwrap() error { return e.Err }

func panicError(p any) error {
	if err, ok := p.(error); ok {
		return err
	}
	return fmt.Errorf("%v", p)
}
