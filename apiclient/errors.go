package apiclient

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/evan-idocoding/clientkit/httpx/client"
)

// ResponseError reports a response whose status is outside 2xx.
type ResponseError struct {
	Method     string
	Route      string
	StatusCode int
	// Body holds up to 1 MiB of the response body.
	Body []byte
	// Response is the original response; its Body reads from the buffered Body.
	Response *http.Response
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("apiclient: %s %s: status %d", e.Method, e.Route, e.StatusCode)
}

func newResponseError(req *http.Request, resp *http.Response) *ResponseError {
	e := &ResponseError{
		Method:     req.Method,
		Route:      routeOf(req),
		StatusCode: resp.StatusCode,
		Response:   resp,
	}
	// A body over the limit is still reported, only its content is dropped.
	e.Body, _ = client.ReadAllAndCloseLimit(resp.Body, maxErrorBody)
	resp.Body = io.NopCloser(bytes.NewReader(e.Body))
	return e
}

func routeOf(req *http.Request) string {
	if req == nil {
		return ""
	}
	if route, ok := req.Context().Value(routeKey{}).(string); ok {
		return route
	}
	if req.URL == nil {
		return ""
	}
	return req.URL.String()
}
