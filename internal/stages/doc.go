// Package stages implements the seven pipeline stages: transcription,
// normalization, keyword extraction, topic segmentation, summarization,
// assessment generation, and evaluation. Each stage reads the context fields
// earlier stages produced and returns only what it adds.
package stages
