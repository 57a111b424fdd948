// Package config provides configuration for the addon engine.
//
// Two layers exist. Process configuration is 12-factor: it is loaded from
// environment variables with defaults and decides where state lives, how the
// repository client behaves and how many folders are hashed at once. User
// settings are the choices a person makes (flavor, game directory, release
// channels, ignored addons) and persist in settings.toml.
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	settings, err := config.LoadSettings(layout.SettingsFile())
//	if err != nil {
//		logger.Warn("settings unreadable, using defaults", zap.Error(err))
//	}
//
// Environment Variables:
//   - CHMON_DATA_DIR, CHMON_LOG_LEVEL, CHMON_LOG_DEV, CHMON_LOG_FILE
//   - CHMON_HTTP_TIMEOUT, CHMON_HTTP_RETRIES, CHMON_HTTP_RPS, CHMON_USER_AGENT
//   - CHMON_FINGERPRINT_WORKERS, CHMON_FS_RETRY_STEPS, CHMON_FS_RETRY_START
//   - CHMON_CURSE_URL, CHMON_TUKUI_URL, CHMON_WOWI_URL, CHMON_HUB_URL
//   - CHMON_GITHUB_URL, CHMON_GITLAB_URL, CHMON_GITHUB_TOKEN
package config
