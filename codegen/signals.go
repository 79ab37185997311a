package codegen

import (
	"context"

	"github.com/zoobzio/capitan"
)

// Signals for session lifecycle events.
var (
	SignalSessionCreated   = capitan.NewSignal("codegen.session.created", "Generation session opened")
	SignalStrategyDecided  = capitan.NewSignal("codegen.strategy.decided", "Codec strategy recorded for a type")
	SignalEmitterCreated   = capitan.NewSignal("codegen.emitter.created", "Emitter bound to the session unit")
	SignalSessionGenerated = capitan.NewSignal("codegen.session.generated", "Session unit persisted")
)

// Keys for typed event data.
var (
	KeySession  = capitan.NewStringKey("session")
	KeyType     = capitan.NewStringKey("type")
	KeyStrategy = capitan.NewStringKey("strategy")
	KeyFamily   = capitan.NewStringKey("family")
	KeyPath     = capitan.NewStringKey("path")
	KeyCodecs   = capitan.NewIntKey("codecs")
	KeyError    = capitan.NewErrorKey("error")
)

func emitSessionCreated(session string, prefer bool) {
	strategy := GenericShape.String()
	if prefer {
		strategy = Specialized.String()
	}
	capitan.Emit(context.Background(), SignalSessionCreated,
		KeySession.Field(session),
		KeyStrategy.Field(strategy),
	)
}

func emitStrategyDecided(session, typeName string, st Strategy) {
	capitan.Emit(context.Background(), SignalStrategyDecided,
		KeySession.Field(session),
		KeyType.Field(typeName),
		KeyStrategy.Field(st.String()),
	)
}

func emitEmitterCreated(session, typeName, family string) {
	capitan.Emit(context.Background(), SignalEmitterCreated,
		KeySession.Field(session),
		KeyType.Field(typeName),
		KeyFamily.Field(family),
	)
}

func emitSessionGenerated(session, path string, codecs int, err error) {
	fields := []capitan.Field{
		KeySession.Field(session),
		KeyPath.Field(path),
		KeyCodecs.Field(codecs),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(context.Background(), SignalSessionGenerated, fields...)
		return
	}
	capitan.Emit(context.Background(), SignalSessionGenerated, fields...)
}
