package stage

// Stage labels in pipeline order. These strings surface directly in job
// status responses, so changing one changes the public contract.
const (
	LabelTranscription        = "Transcription"
	LabelNormalization        = "Normalization"
	LabelKeywordExtraction    = "Keyword Extraction"
	LabelTopicSegmentation    = "Topic Segmentation"
	LabelSummarization        = "Summarization"
	LabelAssessmentGeneration = "Assessment Generation"
	LabelEvaluation           = "Evaluation"
)

// Labels returns the fixed stage order.
func Labels() []string {
	return []string{
		LabelTranscription,
		LabelNormalization,
		LabelKeywordExtraction,
		LabelTopicSegmentation,
		LabelSummarization,
		LabelAssessmentGeneration,
		LabelEvaluation,
	}
}
