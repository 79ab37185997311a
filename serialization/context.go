// Package serialization builds MessagePack serializers for Go type graphs.
//
// A Context provisions one codec per type through a codegen.Session and
// caches it. Types without a built-in or generic shape codec get a generated
// program, and Generate persists those programs as a .wasm artifact that a
// later process can Load instead of generating again.
package serialization

import (
	"context"
	"os"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/codecgen/codegen"
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

// Context owns a generation session and the codecs provisioned through it.
type Context struct {
	session  *codegen.Session
	registry *registry.Registry
	shapes   *generic.Resolver
	codecs   sync.Map // reflect.Type -> wire.Codec
	mu       sync.Mutex
	logger   *zap.Logger
}

// New creates a context with a fresh session for cfg.
func New(cfg config.Config) (*Context, error) {
	c := &Context{
		registry: registry.New(),
		shapes:   generic.New(),
		logger:   Logger().With(zap.String("session", cfg.Session.Name)),
	}
	s, err := codegen.NewSession(cfg,
		codegen.WithRegistry(c.registry),
		codegen.WithResolver(c.shapes),
		codegen.WithCodecResolver(c))
	if err != nil {
		return nil, err
	}
	c.session = s
	return c, nil
}

// Session returns the underlying generation session.
func (c *Context) Session() *codegen.Session { return c.session }

// Registry returns the built-in codec registry. Codecs registered before a
// type is first provisioned take precedence over generation.
func (c *Context) Registry() *registry.Registry { return c.registry }

// CodecFor returns the codec for t, provisioning it on first use.
func (c *Context) CodecFor(t reflect.Type) (wire.Codec, error) {
	if t == nil {
		return nil, errors.InvalidArgument(errors.PhaseLookup, "type cannot be nil")
	}
	if v, ok := c.codecs.Load(t); ok {
		return v.(wire.Codec), nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.codecs.Load(t); ok {
		return v.(wire.Codec), nil
	}
	desc, err := shape.Describe(t)
	if err != nil {
		return nil, err
	}
	traits, err := shape.Analyze(desc)
	if err != nil {
		return nil, err
	}
	return c.provision(desc, traits)
}

// Provision provisions types and every type reachable from them. Shapes are
// analyzed in parallel; codecs are then created one type at a time.
func (c *Context) Provision(ctx context.Context, types ...reflect.Type) error {
	graph, err := c.walk(types)
	if err != nil {
		return err
	}
	descs := make([]*shape.Descriptor, len(graph))
	for i, t := range graph {
		if descs[i], err = shape.Describe(t); err != nil {
			return err
		}
	}
	traits, err := shape.AnalyzeAll(ctx, descs)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, d := range descs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, ok := c.codecs.Load(d.Type); ok {
			continue
		}
		if _, err := c.provision(d, traits[i]); err != nil {
			return err
		}
	}
	c.logger.Debug("provisioned", zap.Int("types", len(descs)))
	return nil
}

// provision creates and caches the codec for desc. Callers hold c.mu.
func (c *Context) provision(desc *shape.Descriptor, traits shape.Traits) (wire.Codec, error) {
	st, err := c.session.Resolve(desc, traits)
	if err != nil {
		return nil, err
	}

	var codec wire.Codec
	switch st {
	case codegen.BuiltIn:
		codec, _ = c.registry.Lookup(desc.Type)
		err = c.session.Complete(desc)
	case codegen.GenericShape:
		codec, err = c.shapes.Build(desc, traits, c)
		if err == nil {
			err = c.session.Complete(desc)
		}
	default:
		codec, err = c.generate(desc)
	}
	if err != nil {
		c.logger.Warn("provision failed", zap.String("type", desc.Identity), zap.Error(err))
		return nil, err
	}

	c.codecs.Store(desc.Type, codec)
	c.logger.Debug("codec provisioned",
		zap.String("type", desc.Identity),
		zap.Stringer("strategy", st))
	return codec, nil
}

func (c *Context) generate(desc *shape.Descriptor) (wire.Codec, error) {
	family := emit.FieldBasedObject
	if desc.IsEnumeration() {
		family = emit.Enumeration
	}
	em, err := c.session.CreateEmitter(desc, family)
	if err != nil {
		return nil, err
	}
	if err := em.EmitRoutines(); err != nil {
		return nil, err
	}
	return em.Finalize()
}

// walk lists types and their dependencies, dependencies first. Registry
// types are leaves.
func (c *Context) walk(roots []reflect.Type) ([]reflect.Type, error) {
	seen := make(map[reflect.Type]bool)
	var out []reflect.Type

	var visit func(t reflect.Type) error
	visit = func(t reflect.Type) error {
		if t == nil {
			return errors.InvalidArgument(errors.PhaseAnalyze, "type cannot be nil")
		}
		if seen[t] {
			return nil
		}
		seen[t] = true

		if !c.registry.Contains(t) {
			tr := shape.AnalyzeType(t)
			var deps []reflect.Type
			switch tr.Kind {
			case shape.KindRecord:
				members, err := shape.Members(t)
				if err != nil {
					return err
				}
				for _, m := range members {
					deps = append(deps, m.Type)
				}
			case shape.KindSequence, shape.KindArray, shape.KindNullable:
				deps = append(deps, tr.Elem)
			case shape.KindMapping:
				deps = append(deps, tr.Key, tr.Elem)
			case shape.KindSet:
				deps = append(deps, tr.Key)
			}
			for _, d := range deps {
				if err := visit(d); err != nil {
					return err
				}
			}
		}
		out = append(out, t)
		return nil
	}

	for _, t := range roots {
		if err := visit(t); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Generate persists the generated programs and closes the session.
func (c *Context) Generate() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Generate()
}

// Load installs codecs for types from the artifact at path. Each type is
// bound to the program with its identity, so nothing is generated for it.
func (c *Context) Load(ctx context.Context, path string, types ...reflect.Type) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.IOFailure(errors.PhaseLoad, path, err)
	}
	if err := unit.Verify(ctx, data); err != nil {
		return err
	}
	u, err := unit.Decode(data)
	if err != nil {
		return err
	}
	if wf, ok := u.Attribute(unit.AttrWireFormat); ok && wf != "msgpack" {
		return errors.Unsupported(errors.PhaseLoad, "wire format "+wf)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range types {
		if t == nil {
			return errors.InvalidArgument(errors.PhaseLoad, "type cannot be nil")
		}
		id := shape.Identity(t)
		p, ok := u.Program(id)
		if !ok {
			return errors.NotFound(errors.PhaseLoad, "program", id)
		}
		if _, ok := c.codecs.Load(t); ok {
			return errors.DuplicateGeneration(errors.PhaseLoad, id)
		}
		codec, err := program.Compile(p, t, c)
		if err != nil {
			return err
		}
		c.codecs.Store(t, codec)
	}
	c.logger.Info("artifact loaded",
		zap.String("path", path),
		zap.Int("codecs", len(types)))
	return nil
}
