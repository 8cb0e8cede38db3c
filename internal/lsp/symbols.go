package lsp

import (
	"encoding/json"

	"github.com/polyls/polyls/internal/lsp/protocol"
)

// rawSymbolResult decodes textDocument/documentSymbol's response, which per
// the LSP spec is either DocumentSymbol[] (hierarchical) or
// SymbolInformation[] (flat) depending on the backend. It is decoded lazily
// since the two shapes only share the "name" and "kind" fields at the top
// level.
type rawSymbolResult struct {
	raw json.RawMessage
}

func (r *rawSymbolResult) UnmarshalJSON(data []byte) error {
	r.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (r *rawSymbolResult) asDocumentSymbols() []protocol.DocumentSymbol {
	if len(r.raw) == 0 || string(r.raw) == "null" {
		return nil
	}

	var hierarchical []protocol.DocumentSymbol
	if err := json.Unmarshal(r.raw, &hierarchical); err == nil && hasSelectionRange(r.raw) {
		return hierarchical
	}

	var flat []protocol.SymbolInformation
	if err := json.Unmarshal(r.raw, &flat); err != nil {
		return nil
	}
	out := make([]protocol.DocumentSymbol, 0, len(flat))
	for _, s := range flat {
		out = append(out, protocol.DocumentSymbol{
			Name:           s.Name,
			Kind:           s.Kind,
			Range:          s.Location.Range,
			SelectionRange: s.Location.Range,
		})
	}
	return out
}

// hasSelectionRange sniffs whether the raw array's elements carry a
// selectionRange field, which only DocumentSymbol (not SymbolInformation)
// has, to disambiguate the two response shapes.
func hasSelectionRange(raw json.RawMessage) bool {
	var probe []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil || len(probe) == 0 {
		return false
	}
	_, ok := probe[0]["selectionRange"]
	return ok
}
