package ports

// GatewayServer defines the interface for the inbound message server
type GatewayServer interface {
	// Start starts the server
	Start() error

	// Stop stops the server
	Stop() error
}
