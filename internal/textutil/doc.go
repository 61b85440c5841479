// Package textutil provides the text plumbing the pipeline stages share:
// transcript cleaning, tokenization, term-frequency fingerprints for topic
// similarity, frequency-based keyphrase extraction, and the WER and ROUGE
// quality metrics.
package textutil
