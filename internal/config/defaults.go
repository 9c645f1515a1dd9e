package config

import "queuewatch/internal/shape"

const (
	defaultConfigPath               = "~/.config/queuewatch/config.toml"
	projectConfigName               = "queuewatch.toml"
	defaultLogDir                   = "~/.local/share/queuewatch/logs"
	defaultAPIBind                  = "127.0.0.1:7488"
	defaultAttachListen             = "127.0.0.1:7489"
	defaultMaxBodyBytes             = 4 << 20
	defaultRefreshIntervalMS        = 1000
	defaultNameMaxRunes             = 50
	defaultNotifyRequestTimeout     = 10
	defaultNotifyDedupWindowSeconds = 600
	defaultLogFormat                = "console"
	defaultLogLevel                 = "info"
)

// Default returns a Config populated with defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Attach: Attach{
			Listen: defaultAttachListen,
		},
		Interception: Interception{
			URLFragments:          append([]string(nil), shape.DefaultURLFragments...),
			MaxBodyBytes:          defaultMaxBodyBytes,
			DecodeContentEncoding: true,
		},
		Dashboard: Dashboard{
			RefreshIntervalMS: defaultRefreshIntervalMS,
			NameMaxRunes:      defaultNameMaxRunes,
		},
		Notifications: Notifications{
			RequestTimeout:     defaultNotifyRequestTimeout,
			Detected:           true,
			Likely:             true,
			TurnReached:        true,
			DedupWindowSeconds: defaultNotifyDedupWindowSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
