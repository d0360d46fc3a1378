package config

const (
	defaultStateDir             = "~/.local/share/streamfinder"
	defaultAPIBind              = "127.0.0.1:7488"
	defaultTMDBLanguage         = "vi-VN"
	defaultTMDBBaseURL          = "https://api.themoviedb.org/3"
	defaultPhimAPIBaseURL       = "https://phimapi.com/tmdb"
	defaultOphimBaseURL         = "https://ophim1.com/v1/api"
	defaultSourceTimeoutSeconds = 8
	defaultUserAgent            = "streamfinder/dev"
	defaultMissingStreamPolicy  = "drop"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 14
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			APIBind:  defaultAPIBind,
		},
		TMDB: TMDB{
			BaseURL:  defaultTMDBBaseURL,
			Language: defaultTMDBLanguage,
		},
		Sources: Sources{
			PhimAPIBaseURL: defaultPhimAPIBaseURL,
			OphimBaseURL:   defaultOphimBaseURL,
			TimeoutSeconds: defaultSourceTimeoutSeconds,
			UserAgent:      defaultUserAgent,
		},
		Streams: Streams{
			MissingStreamPolicy: defaultMissingStreamPolicy,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
