package config

// Default returns the baseline configuration targeting the Python 3
// standard library documentation and a local LibreTranslate instance.
func Default() Config {
	return Config{
		Paths: Paths{
			DocsDir: "docs",
			LogDir:  "~/.local/share/pagemill/logs",
		},
		Fetch: Fetch{
			BaseURL:        "https://docs.python.org/3/",
			IndexPath:      "contents.html",
			TimeoutSeconds: 30,
		},
		Translate: Translate{
			Endpoint:            "http://127.0.0.1:5000/translate",
			SourceLang:          "en",
			TargetLang:          "ru",
			MaxChunkLen:         4500,
			TranslatedThreshold: 0.35,
			TimeoutSeconds:      45,
		},
		Workflow: Workflow{
			MaxAttempts:           3,
			AttemptTimeoutSeconds: 60,
			BackoffMillis:         500,
			PaceMillis:            500,
			MinFreeMB:             100,
		},
		LogLevel:  "info",
		LogFormat: "",
	}
}
