package noisemodel

import (
	"fmt"
	"sync"
)

// Dummy is a pass-through NoiseModel.
type Dummy struct {
	Locker sync.Mutex

	// VADScore is returned by every ProcessFrame call.
	VADScore float32

	// FailCreate makes CreateState return a nil handle.
	FailCreate bool

	// DestroyError is returned by DestroyState (after the state is counted
	// as destroyed).
	DestroyError error

	Created   uint
	Destroyed uint
	Processed uint
}

var _ NoiseModel = (*Dummy)(nil)

type dummyState struct {
	id uint
}

func NewDummy() *Dummy {
	return &Dummy{}
}

func (m *Dummy) CreateState() (StateHandle, error) {
	m.Locker.Lock()
	defer m.Locker.Unlock()
	if m.FailCreate {
		return nil, nil
	}
	m.Created++
	return &dummyState{id: m.Created}, nil
}

func (m *Dummy) DestroyState(state StateHandle) error {
	if _, ok := state.(*dummyState); !ok {
		return fmt.Errorf("unexpected state type %T", state)
	}
	m.Locker.Lock()
	defer m.Locker.Unlock()
	m.Destroyed++
	return m.DestroyError
}

func (m *Dummy) ProcessFrame(state StateHandle, output, input []float32) float32 {
	m.Locker.Lock()
	defer m.Locker.Unlock()
	m.Processed++
	copy(output, input)
	return m.VADScore
}

// Alive returns the amount of states created but not destroyed yet.
func (m *Dummy) Alive() uint {
	m.Locker.Lock()
	defer m.Locker.Unlock()
	return m.Created - m.Destroyed
}
