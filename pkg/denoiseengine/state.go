package denoiseengine

import (
	"fmt"
)

type State int

const (
	StateUninitialized = State(iota)
	StateReady
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("unknown_state_%d", int(s))
	}
}
