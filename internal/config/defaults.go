package config

const (
	defaultConfigPath = "~/.config/menucast/config.toml"

	defaultBuildDir = "./build"
	defaultMenuDir  = "./menu"
	defaultDataDir  = "./data"
	defaultLogDir   = "~/.local/share/menucast/logs"
	defaultStateDir = "~/.local/share/menucast"

	defaultBaseURL                  = "https://api.minimax.io"
	defaultChatModel                = "MiniMax-M2"
	defaultImageModel               = "image-01"
	defaultTTSModel                 = "speech-2.6-hd"
	defaultMusicModel               = "music-2.0"
	defaultVideoModel               = "MiniMax-Hailuo-2.3"
	defaultRateLimitRPM             = 60
	defaultMaxRetries               = 3
	defaultTimeoutSeconds           = 60
	defaultVideoPollIntervalSeconds = 3
	defaultVideoTimeoutSeconds      = 180
	defaultTextPath                 = "/v1/text/chat/completions"
	defaultImagePath                = "/v1/image_generation"
	defaultTTSPath                  = "/v1/t2a_v2"
	defaultMusicPath                = "/v1/music_generation"
	defaultVideoPath                = "/v1/video_generation"
	defaultVideoQueryPath           = "/v1/video_generation/query"

	defaultStylePreset   = "hero"
	defaultVoiceProfile  = "warm"
	defaultMusicVibe     = "ambient"
	defaultMediaDuration = 20

	defaultBrand         = "41 Bistro"
	defaultMinImageBytes = 10 * 1024
	defaultMinAudioBytes = 1024
	defaultMinVideoBytes = 50 * 1024

	defaultBatchSize         = 10
	defaultShareLinkTTLHours = 168
	defaultUploadPrefix      = "menucast"
	defaultBackupPrefix      = "minimax-pipeline"
	defaultSMTPPort          = 587
	defaultRequestTimeout    = 10

	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			BuildDir: defaultBuildDir,
			MenuDir:  defaultMenuDir,
			DataDir:  defaultDataDir,
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		MiniMax: MiniMax{
			BaseURL:                  defaultBaseURL,
			ChatModel:                defaultChatModel,
			ImageModel:               defaultImageModel,
			TTSModel:                 defaultTTSModel,
			MusicModel:               defaultMusicModel,
			VideoModel:               defaultVideoModel,
			RateLimitRPM:             defaultRateLimitRPM,
			MaxRetries:               defaultMaxRetries,
			TimeoutSeconds:           defaultTimeoutSeconds,
			VideoPollIntervalSeconds: defaultVideoPollIntervalSeconds,
			VideoTimeoutSeconds:      defaultVideoTimeoutSeconds,
			TextPath:                 defaultTextPath,
			ImagePath:                defaultImagePath,
			TTSPath:                  defaultTTSPath,
			MusicPath:                defaultMusicPath,
			VideoPath:                defaultVideoPath,
			VideoQueryPath:           defaultVideoQueryPath,
		},
		Media: Media{
			StylePreset:          defaultStylePreset,
			ImageVariants:        1,
			VoiceProfile:         defaultVoiceProfile,
			MusicVibe:            defaultMusicVibe,
			MusicDurationSeconds: defaultMediaDuration,
			VideoDurationSeconds: defaultMediaDuration,
		},
		Local: Local{
			Restaurant: defaultBrand,
			City:       "Fort Myers, FL",
			Region:     "Southwest Florida",
			Keywords: []string{
				"Fort Myers dining",
				"Italian restaurant Fort Myers",
				"best Italian food FL",
				"Southwest Florida food scene",
				"date night Fort Myers",
				"outdoor dining Fort Myers",
			},
			Hashtags: []string{"#41Bistro", "#FortMyersEats", "#ItalianFoodFL", "#FortMyersDining", "#SWFL"},
			CallsToAction: []string{
				"Visit us at 41 Bistro",
				"Reserve your table",
				"Italian dining in Fort Myers",
			},
		},
		QA: QA{
			Brand:         defaultBrand,
			LocalTerms:    []string{"Fort Myers", "Southwest Florida"},
			MinImageBytes: defaultMinImageBytes,
			MinAudioBytes: defaultMinAudioBytes,
			MinVideoBytes: defaultMinVideoBytes,
		},
		Batch: Batch{
			Size: defaultBatchSize,
		},
		Upload: Upload{
			Prefix:            defaultUploadPrefix,
			ShareLinkTTLHours: defaultShareLinkTTLHours,
		},
		Backup: Backup{
			Prefix: defaultBackupPrefix,
		},
		Notifications: Notifications{
			SMTPPort:       defaultSMTPPort,
			RequestTimeout: defaultRequestTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
