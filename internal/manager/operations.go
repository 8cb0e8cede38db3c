package manager

import (
	"context"

	"github.com/polyls/polyls/internal/astmatch"
	"github.com/polyls/polyls/internal/docstore"
	"github.com/polyls/polyls/internal/lsp/protocol"
	"github.com/polyls/polyls/internal/perr"
)

// matcherRuleSets gives each language without (or alongside) a semantic
// backend an inline rule per astmatch.RuleKind. Bodies are placeholders for
// the matcher's own pattern language; only their presence/absence under a
// RuleKind matters to Scan's NotSupported check.
var matcherRuleSets = map[string]astmatch.RuleSet{
	"python": {
		astmatch.RuleFunctionDeclaration: "def $NAME($$$ARGS): $$$BODY",
		astmatch.RuleClassDeclaration:    "class $NAME: $$$BODY",
		astmatch.RuleVariableDeclarator:  "$NAME = $VALUE",
	},
	"golang": {
		astmatch.RuleFunctionDeclaration: "func $NAME($$$ARGS) $$$RET { $$$BODY }",
		astmatch.RuleMethodDeclaration:   "func ($RECV) $NAME($$$ARGS) $$$RET { $$$BODY }",
		astmatch.RuleClassDeclaration:    "type $NAME struct { $$$FIELDS }",
	},
	"typescript": {
		astmatch.RuleFunctionDeclaration: "function $NAME($$$ARGS) { $$$BODY }",
		astmatch.RuleClassDeclaration:    "class $NAME { $$$BODY }",
		astmatch.RuleVariableDeclarator:  "const $NAME = $VALUE",
	},
	"rust": {
		astmatch.RuleFunctionDeclaration: "fn $NAME($$$ARGS) $$$RET { $$$BODY }",
		astmatch.RuleClassDeclaration:    "struct $NAME { $$$FIELDS }",
		astmatch.RuleEnumConstant:        "enum $NAME { $$$VARIANTS }",
	},
	"cpp": {
		astmatch.RuleFunctionDeclaration: "$RET $NAME($$$ARGS) { $$$BODY }",
		astmatch.RuleClassDeclaration:    "class $NAME { $$$BODY };",
	},
	"java": {
		astmatch.RuleFunctionDeclaration: "$RET $NAME($$$ARGS) { $$$BODY }",
		astmatch.RuleClassDeclaration:    "class $NAME { $$$BODY }",
	},
}

// DefinitionsInFile returns every symbol defined in relPath, nested ones
// included (document-symbol children are flattened into the list). It
// prefers the live backend's textDocument/documentSymbol; when the backend
// cannot be obtained, its documentSymbol request fails with any error, or
// it returns zero symbols, it falls back to the AST matcher.
func (m *Manager) DefinitionsInFile(ctx context.Context, relPath string) ([]Symbol, error) {
	absPath := m.store.AbsPath(relPath)

	lang, ok := languageForPath(relPath)
	if !ok {
		return nil, perr.New(perr.NotSupported, "no language recognized for "+relPath)
	}

	if client, err := m.backendWithRetry(ctx, lang); err == nil {
		_ = client.OpenFile(ctx, absPath, lang)
		uri := protocol.URIFromPath(absPath)
		docSyms, err := client.DocumentSymbols(ctx, uri)
		if err == nil && len(docSyms) > 0 {
			return flattenDocumentSymbols(docSyms), nil
		}
	}

	return m.matchDefinitions(ctx, lang, absPath)
}

func (m *Manager) matchDefinitions(ctx context.Context, lang, absPath string) ([]Symbol, error) {
	rules, ok := matcherRuleSets[lang]
	if !ok {
		return nil, perr.New(perr.NotSupported, "no matcher rules registered for "+lang)
	}

	kinds := []astmatch.RuleKind{
		astmatch.RuleFunctionDeclaration,
		astmatch.RuleMethodDeclaration,
		astmatch.RuleClassDeclaration,
		astmatch.RuleVariableDeclarator,
		astmatch.RuleEnumConstant,
	}

	var symbols []Symbol
	for _, kind := range kinds {
		if _, ok := rules[kind]; !ok {
			continue
		}
		matches, err := m.matcher.Scan(ctx, rules, kind, absPath)
		if err != nil {
			if perr.KindOf(err) == perr.NotSupported {
				continue
			}
			return nil, err
		}
		for _, mt := range matches {
			symbols = append(symbols, Symbol{
				Name: mt.Text,
				Kind: matcherSymbolKindName(kind),
				IdentifierPosition: docstore.Position{
					Line:      mt.Range.Start.Line,
					Character: mt.Range.Start.Character,
				},
				Range: docstore.Range{
					Start: docstore.Position{Line: mt.Range.Start.Line, Character: mt.Range.Start.Character},
					End:   docstore.Position{Line: mt.Range.End.Line, Character: mt.Range.End.Character},
				},
			})
		}
	}
	return symbols, nil
}

func flattenDocumentSymbols(syms []protocol.DocumentSymbol) []Symbol {
	out := make([]Symbol, 0, len(syms))
	for _, s := range syms {
		out = append(out, Symbol{
			Name: s.Name,
			Kind: symbolKindName(s.Kind),
			IdentifierPosition: docstore.Position{
				Line:      int(s.SelectionRange.Start.Line),
				Character: int(s.SelectionRange.Start.Character),
			},
			Range: docstore.Range{
				Start: docstore.Position{Line: int(s.Range.Start.Line), Character: int(s.Range.Start.Character)},
				End:   docstore.Position{Line: int(s.Range.End.Line), Character: int(s.Range.End.Character)},
			},
		})
		out = append(out, flattenDocumentSymbols(s.Children)...)
	}
	return out
}

func symbolKindName(k protocol.SymbolKind) string {
	switch k {
	case protocol.SymbolKindFile:
		return "file"
	case protocol.SymbolKindModule:
		return "module"
	case protocol.SymbolKindNamespace:
		return "namespace"
	case protocol.SymbolKindClass:
		return "class"
	case protocol.SymbolKindMethod:
		return "method"
	case protocol.SymbolKindProperty:
		return "property"
	case protocol.SymbolKindField:
		return "field"
	case protocol.SymbolKindConstructor:
		return "constructor"
	case protocol.SymbolKindInterface:
		return "interface"
	case protocol.SymbolKindFunction:
		return "function"
	case protocol.SymbolKindVariable:
		return "variable"
	case protocol.SymbolKindConstant:
		return "constant"
	case protocol.SymbolKindStruct:
		return "struct"
	case protocol.SymbolKindEnum:
		return "enum"
	case protocol.SymbolKindEnumMember:
		return "enum_member"
	case protocol.SymbolKindTypeParameter:
		return "type_parameter"
	default:
		return "unknown"
	}
}

// matcherSymbolKindName translates an astmatch.RuleKind into the closed
// Symbol.kind vocabulary, the same way symbolKindName does for the
// semantic-backend path, so a fallback symbol carries the same kind tokens
// a real document-symbol response would.
func matcherSymbolKindName(kind astmatch.RuleKind) string {
	switch kind {
	case astmatch.RuleVariableDeclarator:
		return "variable"
	case astmatch.RuleFunctionDeclaration:
		return "function"
	case astmatch.RuleMethodDeclaration:
		return "method"
	case astmatch.RuleClassDeclaration:
		return "class"
	case astmatch.RuleEnumConstant:
		return "enum"
	default:
		return "unknown"
	}
}

// FindDefinition resolves the definition(s) of the symbol at position
// (line, character) in relPath.
func (m *Manager) FindDefinition(ctx context.Context, relPath string, pos docstore.Position) ([]FileRange, error) {
	return m.locate(ctx, relPath, pos, false, false)
}

// FindReferences resolves every reference to the symbol at position
// (line, character) in relPath, including its declaration.
func (m *Manager) FindReferences(ctx context.Context, relPath string, pos docstore.Position) ([]FileRange, error) {
	return m.locate(ctx, relPath, pos, true, true)
}

func (m *Manager) locate(ctx context.Context, relPath string, pos docstore.Position, references, includeDeclaration bool) ([]FileRange, error) {
	absPath := m.store.AbsPath(relPath)

	lang, ok := languageForPath(relPath)
	if !ok {
		return nil, perr.New(perr.NotSupported, "no language recognized for "+relPath)
	}

	client, err := m.backendWithRetry(ctx, lang)
	if err != nil {
		return nil, err
	}
	_ = client.OpenFile(ctx, absPath, lang)

	uri := protocol.URIFromPath(absPath)
	lspPos := protocol.Position{Line: uint32(pos.Line), Character: uint32(pos.Character)}

	var locs []protocol.Location
	if references {
		locs, err = client.References(ctx, uri, lspPos, includeDeclaration)
	} else {
		locs, err = client.Definition(ctx, uri, lspPos)
	}
	if err != nil {
		return nil, err
	}

	out := make([]FileRange, 0, len(locs))
	for _, loc := range locs {
		path := protocol.PathFromURI(loc.URI)
		rel, err := m.store.RelPath(path)
		if err != nil {
			continue
		}
		out = append(out, FileRange{
			RelPath: rel,
			Range: docstore.Range{
				Start: docstore.Position{Line: int(loc.Range.Start.Line), Character: int(loc.Range.Start.Character)},
				End:   docstore.Position{Line: int(loc.Range.End.Line), Character: int(loc.Range.End.Character)},
			},
		})
	}
	return out, nil
}

// Diagnostics returns the current cached diagnostics for relPath. It opens
// the file with its backend first so a caller who never issued any other
// request still sees diagnostics once the backend has had a chance to
// analyze it.
func (m *Manager) Diagnostics(ctx context.Context, relPath string) ([]protocol.Diagnostic, error) {
	absPath := m.store.AbsPath(relPath)

	lang, ok := languageForPath(relPath)
	if !ok {
		return nil, perr.New(perr.NotSupported, "no language recognized for "+relPath)
	}

	client, err := m.backendWithRetry(ctx, lang)
	if err != nil {
		return nil, err
	}
	_ = client.OpenFile(ctx, absPath, lang)

	uri := protocol.URIFromPath(absPath)
	return client.Diagnostics(uri), nil
}
