package config

const (
	defaultStateDir             = "~/.local/share/screener/state"
	defaultLogDir               = "~/.local/share/screener/logs"
	defaultTMDBLanguage         = "en-US"
	defaultTMDBBaseURL          = "https://api.themoviedb.org/3"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultPlotWeight           = 0.5
	defaultKeywordWeight        = 0.3
	defaultTitleWeight          = 0.2
	defaultMatchThreshold       = 0.65
	defaultMaxAttempts          = 3
	defaultBackoffBaseSeconds   = 2
	defaultBackoffCapSeconds    = 60
	defaultLookupTimeoutSeconds = 10
	defaultPollIntervalSeconds  = 2
	defaultWorkers              = 1
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		TMDB: TMDB{
			Language: defaultTMDBLanguage,
			BaseURL:  defaultTMDBBaseURL,
		},
		Scoring: Scoring{
			PlotWeight:     defaultPlotWeight,
			KeywordWeight:  defaultKeywordWeight,
			TitleWeight:    defaultTitleWeight,
			MatchThreshold: defaultMatchThreshold,
		},
		Queue: Queue{
			MaxAttempts:          defaultMaxAttempts,
			BackoffBaseSeconds:   defaultBackoffBaseSeconds,
			BackoffCapSeconds:    defaultBackoffCapSeconds,
			LookupTimeoutSeconds: defaultLookupTimeoutSeconds,
			PollIntervalSeconds:  defaultPollIntervalSeconds,
			Workers:              defaultWorkers,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
