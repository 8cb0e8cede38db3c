package lsp

import (
	"context"
	"fmt"
	"os"

	"github.com/polyls/polyls/internal/lsp/protocol"
	"github.com/polyls/polyls/internal/perr"
)

// Initialize performs the LSP initialize/initialized handshake against
// workspaceDir and records the server's advertised capabilities. It must be
// called exactly once, before any other Call.
func (c *Client) Initialize(ctx context.Context, workspaceDir string) (*protocol.InitializeResult, error) {
	if !c.initialized.CompareAndSwap(false, true) {
		return nil, perr.New(perr.ProtocolError, fmt.Sprintf("backend %q already initialized", c.name))
	}

	uri := protocol.URIFromPath(workspaceDir)
	params := protocol.InitializeParams{
		ProcessID: int32(os.Getpid()),
		ClientInfo: &protocol.ClientInfo{
			Name:    "polyls",
			Version: "0.1.0",
		},
		RootURI: uri,
		WorkspaceFolders: []protocol.WorkspaceFolder{
			{URI: uri, Name: workspaceDir},
		},
		Capabilities: protocol.ClientCapabilities{
			Workspace: &protocol.WorkspaceClientCapabilities{
				Configuration: true,
				DidChangeWatchedFiles: &protocol.DidChangeWatchedFilesClientCapability{
					DynamicRegistration: true,
				},
				Symbol:           &protocol.WorkspaceSymbolClientCapability{DynamicRegistration: true},
				WorkspaceFolders: true,
			},
			TextDocument: &protocol.TextDocumentClientCapabilities{
				DocumentSymbol:     &protocol.DocumentSymbolClientCapability{HierarchicalDocumentSymbolSupport: true},
				Definition:         &protocol.DefinitionClientCapability{LinkSupport: true},
				References:         &protocol.ReferenceClientCapability{},
				PublishDiagnostics: &protocol.PublishDiagnosticsClientCapability{},
			},
		},
	}

	var result protocol.InitializeResult
	if err := c.Call(ctx, "initialize", params, &result); err != nil {
		c.state.Store(int32(StateError))
		return nil, err
	}

	c.setCapabilities(result.Capabilities)

	if err := c.Notify("initialized", struct{}{}); err != nil {
		c.state.Store(int32(StateError))
		return nil, err
	}

	c.state.Store(int32(StateReady))
	return &result, nil
}
