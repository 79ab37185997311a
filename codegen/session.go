package codegen

import (
	"context"
	"reflect"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/codecgen/config"
	"github.com/wippyai/codecgen/emit"
	"github.com/wippyai/codecgen/errors"
	"github.com/wippyai/codecgen/generic"
	"github.com/wippyai/codecgen/program"
	"github.com/wippyai/codecgen/registry"
	"github.com/wippyai/codecgen/shape"
	"github.com/wippyai/codecgen/unit"
	"github.com/wippyai/codecgen/wire"
)

// ShapeResolver recognizes container shapes that can be served without
// generation.
type ShapeResolver interface {
	Supports(desc *shape.Descriptor, traits shape.Traits, preferSpecialized bool) bool
	Build(desc *shape.Descriptor, traits shape.Traits, r wire.Resolver) (wire.Codec, error)
}

type lifecycle uint8

const (
	open lifecycle = iota
	closed
	failed
)

type entry struct {
	desc     *shape.Descriptor
	strategy Strategy
	state    TypeState
}

// Session holds the state of one generation run.
type Session struct {
	mu       sync.Mutex
	cfg      config.Config
	unit     *unit.Unit
	env      *emit.Environment
	registry *registry.Registry
	shapes   ShapeResolver
	codecs   wire.Resolver
	policy   emit.Policy
	prefer   bool
	entries  map[reflect.Type]*entry
	state    lifecycle
	logger   *zap.Logger

	finishedMu sync.RWMutex
	finished   map[reflect.Type]wire.Codec
}

// Option configures a Session.
type Option func(*Session)

// WithRegistry sets the built-in codec registry.
func WithRegistry(r *registry.Registry) Option {
	return func(s *Session) { s.registry = r }
}

// WithResolver sets the generic shape resolver.
func WithResolver(r ShapeResolver) Option {
	return func(s *Session) { s.shapes = r }
}

// WithCodecResolver sets the resolver emitted programs use for nested types.
// Without it the session resolves nested types itself from the registry,
// generic shapes and the codecs finalized so far.
func WithCodecResolver(r wire.Resolver) Option {
	return func(s *Session) { s.codecs = r }
}

// NewSession opens a session whose output unit is named cfg.Session.Name.
func NewSession(cfg config.Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	u, err := unit.New(cfg.Session.Name)
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:      cfg,
		unit:     u,
		policy:   policyOf(cfg.Policy),
		prefer:   cfg.Policy.PreferSpecialized,
		entries:  make(map[reflect.Type]*entry),
		finished: make(map[reflect.Type]wire.Codec),
		logger:   Logger().With(zap.String("session", cfg.Session.Name)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = registry.New()
	}
	if s.shapes == nil {
		s.shapes = generic.New()
	}
	if s.codecs == nil {
		s.codecs = s
	}

	s.env = emit.NewEnvironment(u, emit.WithCompression(cfg.Session.Compression))
	if err := s.env.Prepare(u); err != nil {
		return nil, err
	}

	s.logger.Debug("session created", zap.Bool("prefer_specialized", s.prefer))
	emitSessionCreated(cfg.Session.Name, s.prefer)
	return s, nil
}

func policyOf(p config.Policy) emit.Policy {
	pol := emit.DefaultPolicy()
	if p.Method == config.MethodMap {
		pol.Method = program.LayoutMap
	}
	if p.EnumMethod == config.EnumByValue {
		pol.EnumMethod = program.LayoutValue
	}
	return pol
}

// Name returns the session name.
func (s *Session) Name() string { return s.cfg.Session.Name }

// Unit returns the session's output unit.
func (s *Session) Unit() *unit.Unit { return s.unit }

// Registry returns the built-in codec registry.
func (s *Session) Registry() *registry.Registry { return s.registry }

// PreferSpecialized reports whether generic shapes are disabled.
func (s *Session) PreferSpecialized() bool { return s.prefer }

// HasBuiltInCodec reports whether desc is served without generation. It has
// no side effects.
func (s *Session) HasBuiltInCodec(desc *shape.Descriptor, traits shape.Traits) (bool, error) {
	if err := desc.Valid(); err != nil {
		return false, err
	}
	return s.shapes.Supports(desc, traits, s.prefer) || s.registry.Contains(desc.Type), nil
}

// Decide returns the strategy for desc without recording it. Built-in
// matches come first, then generic shapes unless specialized codecs are
// preferred, then generation.
func (s *Session) Decide(desc *shape.Descriptor, traits shape.Traits) (Strategy, error) {
	if err := desc.Valid(); err != nil {
		return StrategyNone, err
	}
	switch {
	case s.registry.Contains(desc.Type):
		return BuiltIn, nil
	case s.shapes.Supports(desc, traits, s.prefer):
		return GenericShape, nil
	default:
		return Specialized, nil
	}
}

// Resolve decides the strategy for desc and records it. Later calls for the
// same type return the recorded strategy.
func (s *Session) Resolve(desc *shape.Descriptor, traits shape.Traits) (Strategy, error) {
	st, err := s.Decide(desc, traits)
	if err != nil {
		return StrategyNone, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(errors.PhaseLookup); err != nil {
		return StrategyNone, err
	}
	if e, ok := s.entries[desc.Type]; ok {
		return e.strategy, nil
	}
	s.entries[desc.Type] = &entry{desc: desc, strategy: st, state: matchedState(st)}

	s.logger.Debug("strategy decided",
		zap.String("type", desc.Identity),
		zap.Stringer("strategy", st))
	emitStrategyDecided(s.Name(), desc.Identity, st)
	return st, nil
}

// Complete marks a built-in or shape matched type as finalized once the
// caller has installed its codec.
func (s *Session) Complete(desc *shape.Descriptor) error {
	if err := desc.Valid(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(errors.PhaseLookup); err != nil {
		return err
	}
	e, ok := s.entries[desc.Type]
	if !ok {
		return errors.InvalidSessionState(errors.PhaseLookup, desc.Identity+" has not been resolved")
	}
	switch e.state {
	case BuiltInMatched, ShapeMatched:
		e.state = Finalized
		return nil
	case Finalized:
		return errors.InvalidSessionState(errors.PhaseLookup, desc.Identity+" is already finalized")
	default:
		return errors.InvalidSessionState(errors.PhaseLookup,
			desc.Identity+" is "+e.state.String()+" and must finalize through its emitter")
	}
}

// State returns the pipeline state of desc's type.
func (s *Session) State(desc *shape.Descriptor) TypeState {
	if desc == nil || desc.Type == nil {
		return Unresolved
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[desc.Type]; ok {
		return e.state
	}
	return Unresolved
}

// Strategy returns the recorded strategy of desc's type.
func (s *Session) Strategy(desc *shape.Descriptor) (Strategy, bool) {
	if desc == nil || desc.Type == nil {
		return StrategyNone, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[desc.Type]; ok {
		return e.strategy, true
	}
	return StrategyNone, false
}

// CreateEmitter returns an emitter for desc bound to the session unit. Only
// one emitter can be created per type, and none for a type already served
// by a built-in or generic shape codec.
func (s *Session) CreateEmitter(desc *shape.Descriptor, family emit.Family) (emit.Emitter, error) {
	if err := desc.Valid(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(errors.PhaseEmit); err != nil {
		return nil, err
	}

	e, ok := s.entries[desc.Type]
	if ok && e.state != SpecializedPending {
		return nil, errors.DuplicateGeneration(errors.PhaseEmit, desc.Identity)
	}

	inner, err := s.env.EmitterFor(desc, family, s.codecs, s.policy)
	if err != nil {
		return nil, err
	}
	if !ok {
		e = &entry{desc: desc, strategy: Specialized}
		s.entries[desc.Type] = e
	}
	e.state = EmitterCreated

	s.logger.Debug("emitter created",
		zap.String("type", desc.Identity),
		zap.Stringer("family", family))
	emitEmitterCreated(s.Name(), desc.Identity, family.String())
	return &trackedEmitter{Emitter: inner, session: s, typ: desc.Type}, nil
}

// Generate persists the output unit as <OutputDir>/<Name>.wasm and closes
// the session. A type left mid-pipeline fails the session. A write failure
// leaves the session open so the caller may retry.
func (s *Session) Generate() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case closed:
		return nil, errors.InvalidSessionState(errors.PhaseFinalize, "session "+s.Name()+" already generated")
	case failed:
		return nil, errors.InvalidSessionState(errors.PhaseFinalize, "session "+s.Name()+" has failed")
	}

	if pending := s.pending(); len(pending) > 0 {
		s.state = failed
		err := errors.IncompleteGeneration(pending)
		s.logger.Error("generation incomplete", zap.Strings("types", pending))
		emitSessionGenerated(s.Name(), "", s.unit.Len(), err)
		return nil, err
	}

	data, err := s.unit.Encode()
	if err == nil && s.cfg.Session.Verify {
		err = unit.Verify(context.Background(), data)
	}
	if err != nil {
		s.state = failed
		s.logger.Error("encode unit", zap.Error(err))
		emitSessionGenerated(s.Name(), "", s.unit.Len(), err)
		return nil, err
	}

	path, err := unit.WriteFile(s.cfg.Session.OutputDir, s.unit.FileName(), data)
	if err != nil {
		s.logger.Warn("write unit", zap.String("dir", s.cfg.Session.OutputDir), zap.Error(err))
		emitSessionGenerated(s.Name(), "", s.unit.Len(), err)
		return nil, err
	}

	s.state = closed
	s.logger.Info("session generated",
		zap.String("path", path),
		zap.Int("codecs", s.unit.Len()))
	emitSessionGenerated(s.Name(), path, s.unit.Len(), nil)
	return []string{path}, nil
}

// pending lists the identities of types not yet finalized, sorted.
func (s *Session) pending() []string {
	var ids []string
	for _, e := range s.entries {
		if !e.state.Terminal() {
			ids = append(ids, e.desc.Identity)
		}
	}
	slices.Sort(ids)
	return ids
}

func (s *Session) checkOpen(phase errors.Phase) error {
	switch s.state {
	case closed:
		return errors.InvalidSessionState(phase, "session "+s.Name()+" is closed")
	case failed:
		return errors.InvalidSessionState(phase, "session "+s.Name()+" has failed")
	}
	return nil
}

// CodecFor resolves nested types for emitted programs when no codec
// resolver was configured.
func (s *Session) CodecFor(t reflect.Type) (wire.Codec, error) {
	s.finishedMu.RLock()
	c, ok := s.finished[t]
	s.finishedMu.RUnlock()
	if ok {
		return c, nil
	}
	if c, ok := s.registry.Lookup(t); ok {
		return c, nil
	}

	desc, err := shape.Describe(t)
	if err != nil {
		return nil, err
	}
	traits, err := shape.Analyze(desc)
	if err != nil {
		return nil, err
	}
	if !traits.Kind.IsContainer() {
		return nil, errors.NotFound(errors.PhaseLookup, "codec for", desc.Identity)
	}
	return s.shapes.Build(desc, traits, s)
}
