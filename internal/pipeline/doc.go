// Package pipeline runs a gated extract, transform, quality-gate and load
// sequence over an opaque dataset type D.
//
// Steps execute one at a time in registration order. The quality gate is a
// hard veto: if any check fails, no load step runs. Run never panics or
// returns an error for step and check failures; callers inspect the returned
// RunResult's Status and FailurePhase instead.
//
//	p := pipeline.New[*dataset.Frame](pipeline.WithName("vehicles")).
//		AddExtractStep("read", readCSV, config.Options{"path": "in.csv"}).
//		AddTransformStep("normalize", normalize).
//		AddQualityCheck(rules.NewCompletion([]string{"id"}, 0)).
//		AddLoadStep("db", loadSQL, config.Options{"table": "t"})
//	res := p.Run(ctx)
//
// A Pipeline may be run any number of times; steps are not consumed.
package pipeline
