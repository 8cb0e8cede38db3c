package lsp

import "github.com/polyls/polyls/internal/lsp/protocol"

func (c *Client) setCapabilities(caps protocol.ServerCapabilities) {
	c.capsMu.Lock()
	defer c.capsMu.Unlock()
	c.caps = caps
	c.capsSet.Store(true)
}

func (c *Client) getCapabilities() (protocol.ServerCapabilities, bool) {
	c.capsMu.RLock()
	defer c.capsMu.RUnlock()
	return c.caps, c.capsSet.Load()
}

// IsMethodSupported reports whether the backend's advertised capabilities
// cover method. Lifecycle methods are always supported. Until capabilities
// have been recorded (initialize hasn't completed yet), every method is
// permitted so callers don't deadlock waiting on a capability that never
// arrives.
func (c *Client) IsMethodSupported(method string) bool {
	switch method {
	case "initialize", "shutdown", "exit", "$/cancelRequest":
		return true
	}

	caps, ok := c.getCapabilities()
	if !ok {
		return true
	}

	switch method {
	case "textDocument/definition":
		return protocol.Supported(caps.DefinitionProvider)
	case "textDocument/references":
		return protocol.Supported(caps.ReferencesProvider)
	case "textDocument/documentSymbol":
		return protocol.Supported(caps.DocumentSymbolProvider)
	case "workspace/symbol":
		return protocol.Supported(caps.WorkspaceSymbolProvider)
	default:
		return true
	}
}
