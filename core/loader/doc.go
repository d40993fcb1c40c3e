// Package loader registers HTTP features.
//
// Each feature implements Feature and mounts its own routes when loaded.
// The Manager keeps features in registration order and skips disabled ones.
//
//	mgr := loader.NewManager()
//	mgr.Register(pipeline.NewFeature(svc, logger))
//	if err := mgr.LoadAll(app); err != nil { ... }
package loader
