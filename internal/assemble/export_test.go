package assemble

// Test-only access to unexported options.
var WithExecutor = withExecutor
