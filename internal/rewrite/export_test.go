package rewrite

// Test-only exports.

// WithChatCompleter exposes the private completer injection for tests.
var WithChatCompleter = withChatCompleter

// ChunkInput exposes chunk message building for tests.
var ChunkInput = chunkInput
