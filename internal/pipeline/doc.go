// Package pipeline runs shelf detection over whole documents.
//
// A Session owns the geometry provider and the recognition engine. Both are
// initialized once, asynchronously, by Start; Await blocks until both are
// ready or one has failed. Run processes pages strictly in order and stops at
// the first error, in which case no partial results are returned and the
// session's last result set is cleared so exports never reuse stale data.
//
// # Usage
//
//	s := pipeline.NewSession(cfg)
//	s.Start()
//	defer s.Close()
//	res, err := s.Run(ctx, pages, pipeline.OptionsFromConfig(cfg))
package pipeline
