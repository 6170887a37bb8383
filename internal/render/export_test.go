package render

// Test-only exports.

var (
	WithExecutor = withExecutor
	WithTempDir  = withTempDir
)
