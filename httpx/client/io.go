package client

import (
	"encoding/json"
	"io"
	"math"
)

// ReadAllAndCloseLimit reads at most limit bytes from body and always closes it.
//
// It returns ErrBodyTooLarge when body holds more than limit bytes. A negative limit reads nothing.
func ReadAllAndCloseLimit(body io.ReadCloser, limit int64) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	if limit < 0 {
		limit = 0
	}

	defer func() {
		_ = body.Close()
	}()

	// Read up to limit+1 so we can detect overflow.
	n := limit
	if limit < math.MaxInt64 {
		n = limit + 1
	}
	lr := &io.LimitedReader{R: body, N: n}
	b, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, ErrBodyTooLarge
	}
	return b, nil
}

// DrainAndClose drains up to max bytes from body (discarding them) and then closes it.
//
// It is useful to increase the chance of HTTP connection reuse.
//
// If max <= 0, it does not drain and only closes.
func DrainAndClose(body io.ReadCloser, max int64) error {
	if body == nil {
		return nil
	}
	var readErr error
	if max > 0 {
		_, readErr = io.Copy(io.Discard, io.LimitReader(body, max))
	}
	closeErr := body.Close()
	if readErr != nil {
		return readErr
	}
	return closeErr
}

// DecodeJSONAndClose decodes at most limit bytes of JSON from body into v and closes body.
func DecodeJSONAndClose(body io.ReadCloser, limit int64, v any) error {
	b, err := ReadAllAndCloseLimit(body, limit)
	if err != nil {
		return err
	}
	if len(b) == 0 {
		return io.ErrUnexpectedEOF
	}
	return json.Unmarshal(b, v)
}
