package cli

import "errors"

// CLI-specific sentinel errors.
// These are validation/usage errors that don't belong to domain packages.

var (
	// ErrAPIKeyMissing indicates OPENAI_API_KEY is not set.
	ErrAPIKeyMissing = errors.New("OPENAI_API_KEY environment variable not set")

	// ErrDeepSeekKeyMissing indicates DEEPSEEK_API_KEY is not set.
	ErrDeepSeekKeyMissing = errors.New("DEEPSEEK_API_KEY environment variable not set")

	// ErrBookDirMissing indicates the chapter directory does not exist.
	ErrBookDirMissing = errors.New("book directory not found")

	// ErrNoPublishBackend indicates the manifest configures no publish target.
	ErrNoPublishBackend = errors.New("no publish backend configured")
)
