// Package extractor turns a free-form utterance into a structured meeting
// slot {date, start_time, end_time} using a language model.
//
// Backends constrain the model to a fixed three-field JSON schema and every
// answer goes through DecodeSlot, so callers either get a complete slot or an
// extraction failure (session.KindExtraction). Partial slots never escape.
//
// Decorators add pacing (RateLimited) and telemetry (Instrumented):
//
//	var ex extractor.Extractor = extractor.NewGemini(client, extractor.DefaultGeminiModel)
//	ex = extractor.NewRateLimited(ex, 30)
//	ex = extractor.NewInstrumented(ex, "gemini", extractor.DefaultGeminiModel, metrics)
package extractor
