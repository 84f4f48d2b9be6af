package provider

import "time"

// Sleeper pauses the calling goroutine. Injectable so that
// timing-dependent tests never wait on the wall clock.
type Sleeper func(d time.Duration)

// ProgressSink is the surface a blocking wait reports to. Cancelling
// the sink stops the wait, not the background work it was waiting for.
type ProgressSink interface {
	SetTitle(title string)
	SetMessage(message string)
	SetIndeterminate()
	Cancelled() bool
}

// ProgressRunner runs a blocking task together with its progress
// surface. Implementations that own a UI marshal the call onto the
// interactive thread so progress reporting stays single-threaded.
type ProgressRunner interface {
	Run(task func(ProgressSink))
}

// nopSink discards progress and is never cancelled.
type nopSink struct{}

func (nopSink) SetTitle(string)   {}
func (nopSink) SetMessage(string) {}
func (nopSink) SetIndeterminate() {}
func (nopSink) Cancelled() bool   { return false }

// nopRunner runs the task inline with a discarding sink. It is the
// default for headless use.
type nopRunner struct{}

func (nopRunner) Run(task func(ProgressSink)) { task(nopSink{}) }
