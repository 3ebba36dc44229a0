package config

const (
	defaultLogDir                   = "~/.local/share/uploadq/logs"
	defaultLogFormat                = "console"
	defaultLogLevel                 = "info"
	defaultEndpointRequestTimeout   = 60
	defaultMaxConcurrent            = 3
	defaultMaxRetries               = 3
	defaultRetryBaseDelayMs         = 1000
	defaultChunkSizeBytes           = 1 << 20
	defaultChunkThresholdMultiplier = 5
	defaultCompletedLingerSeconds   = 30
	defaultNotifyRequestTimeout     = 10
	defaultNotifyBatchMinItems      = 2
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		Endpoint: Endpoint{
			RequestTimeout: defaultEndpointRequestTimeout,
		},
		Upload: Upload{
			MaxConcurrent:            defaultMaxConcurrent,
			MaxRetries:               defaultMaxRetries,
			RetryBaseDelayMs:         defaultRetryBaseDelayMs,
			ChunkSizeBytes:           defaultChunkSizeBytes,
			ChunkThresholdMultiplier: defaultChunkThresholdMultiplier,
			CompletedLingerSeconds:   defaultCompletedLingerSeconds,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			BatchMinItems:  defaultNotifyBatchMinItems,
			Errors:         true,
		},
		Logging: Logging{
			LogLevel:  defaultLogLevel,
			LogFormat: defaultLogFormat,
		},
	}
}
