package lsp

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/polyls/polyls/internal/lsp/protocol"
	"github.com/polyls/polyls/internal/perr"
)

// openFileInfo tracks the version number of a document this Client has
// told the backend about, so NotifyChange can send a monotonically
// increasing version.
type openFileInfo struct {
	version int32
}

// HandlesFile reports whether path's extension is one this backend was
// configured for. An empty fileTypes list handles every file, matching a
// backend registered with no extension filter.
func (c *Client) HandlesFile(fileTypes []string, path string) bool {
	if len(fileTypes) == 0 {
		return true
	}
	name := strings.ToLower(filepath.Base(path))
	for _, ft := range fileTypes {
		suffix := strings.ToLower(ft)
		if !strings.HasPrefix(suffix, ".") {
			suffix = "." + suffix
		}
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// OpenFile reads path from disk and sends textDocument/didOpen, unless it
// is already open, in which case it is a no-op.
func (c *Client) OpenFile(ctx context.Context, path, languageID string) error {
	uri := protocol.URIFromPath(path)

	c.openMu.Lock()
	if _, exists := c.open[uri]; exists {
		c.openMu.Unlock()
		return nil
	}
	c.openMu.Unlock()

	content, err := os.ReadFile(path)
	if err != nil {
		return perr.Wrap(perr.IoError, "read file to open", err)
	}

	params := struct {
		TextDocument protocol.TextDocumentItem `json:"textDocument"`
	}{
		TextDocument: protocol.TextDocumentItem{
			URI:        uri,
			LanguageID: languageID,
			Version:    1,
			Text:       string(content),
		},
	}
	if err := c.Notify("textDocument/didOpen", params); err != nil {
		return err
	}

	c.openMu.Lock()
	c.open[uri] = &openFileInfo{version: 1}
	c.openMu.Unlock()
	return nil
}

// NotifyChange re-reads path and sends a whole-document textDocument/didChange.
// path must already be open; CloseFile and OpenFile manage that invariant.
func (c *Client) NotifyChange(ctx context.Context, path string) error {
	uri := protocol.URIFromPath(path)

	content, err := os.ReadFile(path)
	if err != nil {
		return perr.Wrap(perr.IoError, "read file to notify change", err)
	}

	c.openMu.Lock()
	info, isOpen := c.open[uri]
	if !isOpen {
		c.openMu.Unlock()
		return perr.New(perr.IoError, "cannot notify change for unopened file: "+path)
	}
	info.version++
	version := info.version
	c.openMu.Unlock()

	params := struct {
		TextDocument   protocol.VersionedTextDocumentIdentifier `json:"textDocument"`
		ContentChanges []struct {
			Text string `json:"text"`
		} `json:"contentChanges"`
	}{
		TextDocument: protocol.VersionedTextDocumentIdentifier{URI: uri, Version: version},
	}
	params.ContentChanges = []struct {
		Text string `json:"text"`
	}{{Text: string(content)}}

	return c.Notify("textDocument/didChange", params)
}

// CloseFile sends textDocument/didClose, unless the file is already closed.
func (c *Client) CloseFile(ctx context.Context, path string) error {
	uri := protocol.URIFromPath(path)

	c.openMu.Lock()
	if _, exists := c.open[uri]; !exists {
		c.openMu.Unlock()
		return nil
	}
	c.openMu.Unlock()

	params := struct {
		TextDocument protocol.TextDocumentIdentifier `json:"textDocument"`
	}{TextDocument: protocol.TextDocumentIdentifier{URI: uri}}
	if err := c.Notify("textDocument/didClose", params); err != nil {
		return err
	}

	c.openMu.Lock()
	delete(c.open, uri)
	c.openMu.Unlock()
	return nil
}

// IsFileOpen reports whether path has an outstanding textDocument/didOpen.
func (c *Client) IsFileOpen(path string) bool {
	uri := protocol.URIFromPath(path)
	c.openMu.Lock()
	defer c.openMu.Unlock()
	_, exists := c.open[uri]
	return exists
}

// Definition issues textDocument/definition for the given position, failing
// with perr.NotSupported if the backend never advertised definitionProvider.
func (c *Client) Definition(ctx context.Context, uri protocol.DocumentURI, pos protocol.Position) ([]protocol.Location, error) {
	if !c.IsMethodSupported("textDocument/definition") {
		return nil, perr.New(perr.NotSupported, "backend does not support textDocument/definition")
	}
	params := protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Position:     pos,
	}
	var locs []protocol.Location
	if err := c.Call(ctx, "textDocument/definition", params, &locs); err != nil {
		return nil, err
	}
	return locs, nil
}

// References issues textDocument/references for the given position.
func (c *Client) References(ctx context.Context, uri protocol.DocumentURI, pos protocol.Position, includeDeclaration bool) ([]protocol.Location, error) {
	if !c.IsMethodSupported("textDocument/references") {
		return nil, perr.New(perr.NotSupported, "backend does not support textDocument/references")
	}
	params := protocol.ReferenceParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     pos,
		},
		Context: protocol.ReferenceContext{IncludeDeclaration: includeDeclaration},
	}
	var locs []protocol.Location
	if err := c.Call(ctx, "textDocument/references", params, &locs); err != nil {
		return nil, err
	}
	return locs, nil
}

// DocumentSymbols issues textDocument/documentSymbol, returning whichever of
// the hierarchical or flat shape the backend responded with as hierarchical
// DocumentSymbol nodes (a flat SymbolInformation response is lifted into
// single-level DocumentSymbol nodes).
func (c *Client) DocumentSymbols(ctx context.Context, uri protocol.DocumentURI) ([]protocol.DocumentSymbol, error) {
	if !c.IsMethodSupported("textDocument/documentSymbol") {
		return nil, perr.New(perr.NotSupported, "backend does not support textDocument/documentSymbol")
	}
	params := struct {
		TextDocument protocol.TextDocumentIdentifier `json:"textDocument"`
	}{TextDocument: protocol.TextDocumentIdentifier{URI: uri}}

	var raw rawSymbolResult
	if err := c.Call(ctx, "textDocument/documentSymbol", params, &raw); err != nil {
		return nil, err
	}
	return raw.asDocumentSymbols(), nil
}

// WorkspaceSymbols issues workspace/symbol for query.
func (c *Client) WorkspaceSymbols(ctx context.Context, query string) ([]protocol.SymbolInformation, error) {
	if !c.IsMethodSupported("workspace/symbol") {
		return nil, perr.New(perr.NotSupported, "backend does not support workspace/symbol")
	}
	params := struct {
		Query string `json:"query"`
	}{Query: query}
	var syms []protocol.SymbolInformation
	if err := c.Call(ctx, "workspace/symbol", params, &syms); err != nil {
		return nil, err
	}
	return syms, nil
}
