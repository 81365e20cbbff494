// Package watch drives the live menu view: it bootstraps a session, owns
// the single collection subscription, folds snapshots into the view model,
// and exposes the connection state machine the presentation layer renders.
package watch

import "github.com/helloservices00-blip/fresh-ear-client-ui/internal/menu"

// ConnState tracks the subscription pipeline's lifecycle. Transitions are
// monotonic: Initializing moves to Ready or Failed and never back.
type ConnState int

const (
	// ConnInitializing holds until the first snapshot delivery or failure.
	ConnInitializing ConnState = iota
	// ConnReady means at least one snapshot has been delivered.
	ConnReady
	// ConnFailed is terminal; the diagnostic travels in Update.Err.
	ConnFailed
)

func (s ConnState) String() string {
	switch s {
	case ConnInitializing:
		return "initializing"
	case ConnReady:
		return "ready"
	case ConnFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DisplayState is the presentation layer's rendering dispatch. The four
// states are mutually exclusive and evaluated in precedence order.
type DisplayState int

const (
	DisplayLoading DisplayState = iota
	DisplayError
	DisplayEmpty
	DisplayPopulated
)

// Update is one emission of the pipeline: connection state, the sticky
// error (if any), the reduced view model, and whether the fallback
// configuration is active.
type Update struct {
	Conn     ConnState
	Err      error
	View     menu.ViewState
	Fallback bool
}

// Display derives the rendering state. Loading suppresses everything;
// an error pre-empts empty and populated even when products from an
// earlier delivery are still held; empty requires a delivered snapshot
// with zero available products.
func (u Update) Display() DisplayState {
	switch {
	case u.Conn == ConnInitializing:
		return DisplayLoading
	case u.Err != nil:
		return DisplayError
	case u.View.Empty():
		return DisplayEmpty
	default:
		return DisplayPopulated
	}
}
