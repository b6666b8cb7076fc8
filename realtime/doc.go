// Package realtime manages one publish/subscribe broker connection for the lifetime of its owner.
//
// A Hook activates a Broker when it is created, reconnects when its Params change and tears the
// broker down on Close. Subscriptions can only be made while connected; before that Subscribe
// returns nil and the caller is expected to retry when its state listener reports Connected.
//
// The default Broker speaks STOMP over websocket (NewSTOMPBroker). The broker URL carries the
// bearer token and, optionally, a fresh request id and the window name:
//
//	wss://host/ws?Authorization=Bearer%20<token>&X-Request-Id=<uuid>&TabId=<window name>
//
// Message bodies are decoded as JSON. Decode failures and panicking handlers are reported through
// WithMessageErrorHandler or the logger; they never stop the subscription.
package realtime
