package config

import "time"

const (
	// Outbound HTTP request timeout
	RequestTimeout = 5 * time.Second

	// Message re-fetch interval while a conversation is open
	PollInterval = 3 * time.Second

	// Session file name inside the user config directory
	SessionFileName = "ahelp_auth.json"

	// Directory under os.UserConfigDir holding client state
	ConfigDirName = "ahelp"

	// Access token lifetime issued by the stub backend
	StubAccessTokenTTL = 30 * time.Minute
)
