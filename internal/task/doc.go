// Package task runs background work off the caller's goroutine.
//
// A TaskRunner is created once per process. Submit starts a task right away
// on its own goroutine (optionally bounded by a concurrency limit) and returns
// a Handle the caller can wait on. WaitFirst blocks until the first of several
// handles completes, without holding up any other task. Stop refuses new
// tasks and drains the ones in flight.
package task
