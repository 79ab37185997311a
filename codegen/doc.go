// Package codegen is the generation context of a codec provisioning run.
//
// A Session decides, once per type, whether the type is served by a built-in
// codec, by a codec derived from its generic shape, or by a specialized
// program generated through an emitter. Specialized programs accumulate in
// the session's output unit, which Generate persists exactly once as
// <name>.wasm.
//
//	s, _ := codegen.NewSession(cfg)
//	desc, _ := shape.DescribeOf[Point]()
//	traits, _ := shape.Analyze(desc)
//	if st, _ := s.Resolve(desc, traits); st == codegen.Specialized {
//		em, _ := s.CreateEmitter(desc, emit.FieldBasedObject)
//		_ = em.EmitRoutines()
//		codec, _ := em.Finalize()
//		_ = codec
//	}
//	paths, err := s.Generate()
//
// A Session is single-writer. Its methods are mutex-guarded, but callers
// provisioning a type graph should analyze shapes in parallel and feed the
// session one type at a time.
package codegen
