package httpx

import (
	"sync"

	"github.com/google/uuid"
)

// Headers exchanged between browser-style clients and their backends.
const (
	// TabIDHeader identifies the client window (tab) that issued a request.
	TabIDHeader = "TabId"
	// XSRFTokenHeader carries the anti-forgery token on outgoing requests. It is also the key
	// under which the latest token is stored.
	XSRFTokenHeader = "X-XSRF-TOKEN"
	// XSRFResponseHeader is the response header a server uses to hand out a refreshed token.
	XSRFResponseHeader = "xsrf-token"
)

var (
	windowMu   sync.RWMutex
	windowName string
)

// WindowName returns the process-wide window name used as the default tab id.
//
// It is a random UUID generated on first use unless SetWindowName was called.
func WindowName() string {
	windowMu.RLock()
	name := windowName
	windowMu.RUnlock()
	if name != "" {
		return name
	}

	windowMu.Lock()
	defer windowMu.Unlock()
	if windowName == "" {
		windowName = uuid.NewString()
	}
	return windowName
}

// SetWindowName overrides the process-wide window name. An empty name restores a fresh random one
// on the next WindowName call.
func SetWindowName(name string) {
	windowMu.Lock()
	windowName = name
	windowMu.Unlock()
}
