// Package llm wraps an OpenRouter-compatible chat completion endpoint with
// retry and JSON decoding tolerant of code fences and streaming-schema
// responses. The typed helpers cover summarization and assessment generation.
package llm
