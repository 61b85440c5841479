package config

const (
	defaultDataDir                  = "~/.local/share/lectern"
	defaultUploadDir                = "~/.local/share/lectern/uploads"
	defaultLogDir                   = "~/.local/share/lectern/logs"
	defaultAPIBind                  = "127.0.0.1:7319"
	defaultWhisperModel             = "base"
	defaultLLMBaseURL               = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel                 = "google/gemini-3-flash-preview"
	defaultLLMReferer               = "https://github.com/lectern/lectern"
	defaultLLMTitle                 = "Lectern"
	defaultLLMTimeoutSeconds        = 60
	defaultMaxConcurrentJobs        = 2
	defaultKeywordTopN              = 10
	defaultTopicSimilarityThreshold = 0.40
	defaultLogFormat                = "console"
	defaultLogLevel                 = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			UploadDir: defaultUploadDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		Whisper: Whisper{
			Model: defaultWhisperModel,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Pipeline: Pipeline{
			MaxConcurrentJobs:        defaultMaxConcurrentJobs,
			KeywordTopN:              defaultKeywordTopN,
			TopicSimilarityThreshold: defaultTopicSimilarityThreshold,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
