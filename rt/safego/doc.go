// Package safego runs functions with panic and error reporting.
//
// safego does not return errors to its caller. Errors and panics are reported via handlers
// if configured, otherwise to a *slog.Logger (slog.Default unless WithLogger is given). This
// makes it suitable for background goroutines and callbacks where failures must still be seen,
// such as message handlers invoked from a broker read loop.
//
// # Synchronous vs asynchronous
//
// Go/GoErr start a new goroutine. Run/RunErr execute synchronously.
// A nil ctx is treated as context.Background().
//
// # WaitGroup integration
//
//	wg.Add(1)
//	safego.GoErr(ctx, work,
//		safego.WithName("read-loop"),
//		safego.WithFinally(wg.Done),
//	)
//
// # Error reporting
//
// context.Canceled and context.DeadlineExceeded are not reported by default because they are
// common during shutdown. Use WithReportContextCancel(true) to report them.
//
// # Panic policy
//
// RecoverAndReport (the default) recovers and reports. RepanicAfterReport reports and then
// panics again. RecoverOnly recovers silently.
//
// WithFinally functions always run, in LIFO order, including on repanic.
package safego
