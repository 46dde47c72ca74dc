package config

const (
	defaultStorageDir             = "~/.local/share/video-editor/storage"
	defaultDataDir                = "~/.local/share/video-editor/data"
	defaultLogDir                 = "~/.local/share/video-editor/logs"
	defaultBind                   = "127.0.0.1:8060"
	defaultShutdownTimeoutSeconds = 10
	defaultStoreDriver            = StoreDriverJSON
	defaultFFmpegBinary           = "ffmpeg"
	defaultFFprobeBinary          = "ffprobe"
	defaultThumbnailOffsetSeconds = 5
	defaultResizeThreads          = 2
	defaultSpawnRetrySeconds      = 1
	defaultMetricsBind            = "127.0.0.1:9160"
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

var defaultAllowedExtensions = []string{"mov", "mp4"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StorageDir: defaultStorageDir,
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
		},
		Server: Server{
			Bind:                   defaultBind,
			ShutdownTimeoutSeconds: defaultShutdownTimeoutSeconds,
		},
		Store: Store{
			Driver: defaultStoreDriver,
		},
		Media: Media{
			FFmpegBinary:           defaultFFmpegBinary,
			FFprobeBinary:          defaultFFprobeBinary,
			ThumbnailOffsetSeconds: defaultThumbnailOffsetSeconds,
			ResizeThreads:          defaultResizeThreads,
			AllowedExtensions:      append([]string(nil), defaultAllowedExtensions...),
		},
		Supervisor: Supervisor{
			SpawnRetrySeconds: defaultSpawnRetrySeconds,
		},
		Metrics: Metrics{
			Bind: defaultMetricsBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
