package storage

// Test-only access to unexported options.
var WithClient = withClient
