package unit

import (
	"context"

	"github.com/tetratelabs/wazero"

	"github.com/wippyai/codecgen/errors"
)

// Verify checks that data is a loadable WebAssembly module carrying a
// codecgen manifest.
func Verify(ctx context.Context, data []byte) error {
	cfg := wazero.NewRuntimeConfigInterpreter().WithCustomSections(true)
	rt := wazero.NewRuntimeWithConfig(ctx, cfg)
	defer rt.Close(ctx)

	compiled, err := rt.CompileModule(ctx, data)
	if err != nil {
		return errors.New(errors.PhaseFinalize, errors.KindInvalidData).
			Detail("artifact is not a loadable module").
			Cause(err).
			Build()
	}
	defer compiled.Close(ctx)

	for _, cs := range compiled.CustomSections() {
		if cs.Name() == SectionManifest {
			return nil
		}
	}
	return errors.InvalidData(errors.PhaseFinalize, nil, "module has no "+SectionManifest+" section")
}
