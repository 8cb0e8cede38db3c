package lsp

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/polyls/polyls/internal/lsp/protocol"
)

// handleWorkspaceConfiguration answers workspace/configuration requests.
// This system carries no per-section configuration a backend would pull,
// so it returns one empty object per requested item, same as an editor
// with nothing configured for that section would.
func handleWorkspaceConfiguration(_ context.Context, _ *Client, params json.RawMessage) (any, error) {
	var req protocol.ConfigurationParams
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, err
	}
	results := make([]map[string]any, len(req.Items))
	for i := range results {
		results[i] = map[string]any{}
	}
	return results, nil
}

// handleRegisterCapability answers client/registerCapability requests.
// workspace/didChangeWatchedFiles registrations are acknowledged without
// bookkeeping: the Manager already forwards every watcher event matching
// the active patterns to every live backend regardless of which globs it
// registered for, so there is nothing per-registration to record. Every
// other capability registration is acknowledged the same way, since this
// system never disables a backend capability it didn't ask for.
func handleRegisterCapability(_ context.Context, client *Client, params json.RawMessage) (any, error) {
	var req protocol.RegistrationParams
	if err := json.Unmarshal(params, &req); err != nil {
		slog.Warn("malformed registerCapability request", "backend", client.name, "err", err)
		return nil, err
	}
	return nil, nil
}

// handleDiagnostics records a publishDiagnostics notification in the
// client's diagnostics cache and notifies OnDiagnosticsChanged, if set,
// with the running total across all documents.
func handleDiagnostics(_ context.Context, client *Client, params json.RawMessage) {
	var p protocol.PublishDiagnosticsParams
	if err := json.Unmarshal(params, &p); err != nil {
		slog.Warn("malformed publishDiagnostics notification", "backend", client.name, "err", err)
		return
	}

	client.diagMu.Lock()
	client.diagnostics[p.URI] = p.Diagnostics
	total := 0
	for _, ds := range client.diagnostics {
		total += len(ds)
	}
	client.diagMu.Unlock()

	if client.onDiagnosticsChanged != nil {
		client.onDiagnosticsChanged(client.name, total)
	}
}

// Diagnostics returns a snapshot of the currently cached diagnostics for uri.
func (c *Client) Diagnostics(uri protocol.DocumentURI) []protocol.Diagnostic {
	c.diagMu.RLock()
	defer c.diagMu.RUnlock()
	return append([]protocol.Diagnostic(nil), c.diagnostics[uri]...)
}

// AllDiagnostics returns a snapshot of every document's cached diagnostics.
func (c *Client) AllDiagnostics() map[protocol.DocumentURI][]protocol.Diagnostic {
	c.diagMu.RLock()
	defer c.diagMu.RUnlock()
	out := make(map[protocol.DocumentURI][]protocol.Diagnostic, len(c.diagnostics))
	for uri, ds := range c.diagnostics {
		out[uri] = append([]protocol.Diagnostic(nil), ds...)
	}
	return out
}
