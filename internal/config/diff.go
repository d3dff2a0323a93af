package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked; anything else
// is summarised by RestartRequired.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// RestartRequired is true when providers, store, or server wiring
	// changed. Those are constructed once at startup and cannot be
	// swapped under a live server.
	RestartRequired bool
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Server.ListenAddr != new.Server.ListenAddr {
		d.RestartRequired = true
	}
	if !tlsEqual(old.Server.TLS, new.Server.TLS) {
		d.RestartRequired = true
	}
	if !entryEqual(old.Providers.Transcription, new.Providers.Transcription) {
		d.RestartRequired = true
	}
	if !entryEqual(old.Providers.Generative, new.Providers.Generative) {
		d.RestartRequired = true
	}
	if !entryEqual(old.Providers.GenerativeFallback, new.Providers.GenerativeFallback) {
		d.RestartRequired = true
	}
	if old.Store.PostgresDSN != new.Store.PostgresDSN {
		d.RestartRequired = true
	}
	if old.Session.ProviderTimeout != new.Session.ProviderTimeout {
		d.RestartRequired = true
	}

	return d
}

func tlsEqual(a, b *TLSConfig) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.CertFile == b.CertFile && a.KeyFile == b.KeyFile
}

// entryEqual ignores Options: provider-specific options are only read at
// construction time, so a change there already forces a restart through the
// surrounding fields in practice and is not worth a deep comparison here.
func entryEqual(a, b ProviderEntry) bool {
	return a.Name == b.Name &&
		a.APIKey == b.APIKey &&
		a.BaseURL == b.BaseURL &&
		a.Model == b.Model &&
		a.Language == b.Language
}
