package codegen

import (
	"reflect"

	"github.com/wippyai/codecgen/emit"
	"github.com/wippyai/codecgen/errors"
	"github.com/wippyai/codecgen/wire"
)

// trackedEmitter mirrors emitter transitions into the session's type state.
// Each transition holds the session lock from the open-check through the
// state update, so Generate never observes a half-appended routine.
type trackedEmitter struct {
	emit.Emitter
	session *Session
	typ     reflect.Type
}

func (t *trackedEmitter) EmitRoutines() error {
	s := t.session
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(errors.PhaseEmit); err != nil {
		return err
	}
	if err := t.Emitter.EmitRoutines(); err != nil {
		return err
	}
	s.setState(t.typ, RoutinesEmitted)
	return nil
}

func (t *trackedEmitter) Finalize() (wire.Codec, error) {
	s := t.session
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(errors.PhaseFinalize); err != nil {
		return nil, err
	}
	c, err := t.Emitter.Finalize()
	if err != nil {
		return nil, err
	}
	s.setState(t.typ, Finalized)

	s.finishedMu.Lock()
	s.finished[t.typ] = c
	s.finishedMu.Unlock()
	return c, nil
}

// setState must be called with s.mu held.
func (s *Session) setState(t reflect.Type, st TypeState) {
	if e, ok := s.entries[t]; ok {
		e.state = st
	}
}
