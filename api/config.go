// Package api provides the cake HTTP API: chat, knowledge inspection and
// semantic search over the fact store.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// DefaultTopK is the number of search results returned when the request
	// does not set top_k.
	DefaultTopK int

	// MCP mounts the MCP knowledge search server at /mcp.
	MCP bool
}
