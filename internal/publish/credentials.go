package publish

import (
	"log/slog"
	"os"

	"reelsmith/internal/logging"
)

// sensitiveEnvVars is the fixed allow-list of credentials wiped after a run.
// Warm daemon processes serve unrelated runs back to back, so secrets must
// not outlive the run that needed them.
var sensitiveEnvVars = []string{
	"OPENAI_API_KEY",
	"ELEVENLABS_API_KEY",
	"SUNO_API_KEY",
	"REMOTION_LAMBDA_TOKEN",
	"AWS_SECRET_ACCESS_KEY",
	"AWS_SESSION_TOKEN",
	"REELSMITH_SIGNING_SECRET",
	"NTFY_TOKEN",
}

// FlushCredentials removes the allow-listed credential variables from the
// process environment and returns how many were present. Wiping an absent
// variable is a no-op, so calling it twice reports zero the second time.
func FlushCredentials(logger *slog.Logger) int {
	if logger == nil {
		logger = slog.Default()
	}

	wiped := 0
	for _, name := range sensitiveEnvVars {
		if _, present := os.LookupEnv(name); !present {
			continue
		}
		os.Unsetenv(name)
		wiped++
	}

	logger.Info("credentials flushed",
		logging.FieldComponent, "publish",
		logging.FieldEventType, "credentials_flushed",
		"wiped", wiped)
	return wiped
}
