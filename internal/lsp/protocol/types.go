// Package protocol defines the subset of LSP 3.17 wire types the Manager and
// Client need: document positions, the capability negotiation shapes, and
// the text-document/workspace notifications and requests the Client
// exercises, trimmed to what this system actually sends and receives and
// named to match the upstream LSP spec's own field names.
package protocol

import "encoding/json"

// DocumentURI is a file:// URI identifying a text document.
type DocumentURI string

// Position is a zero-based line/character (UTF-16 code unit) offset.
type Position struct {
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
}

// Range is a half-open [Start, End) span within a document.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Location identifies a Range within a specific document.
type Location struct {
	URI   DocumentURI `json:"uri"`
	Range Range       `json:"range"`
}

// TextDocumentIdentifier identifies a document by URI alone.
type TextDocumentIdentifier struct {
	URI DocumentURI `json:"uri"`
}

// TextDocumentItem is the full document payload sent on didOpen.
type TextDocumentItem struct {
	URI        DocumentURI `json:"uri"`
	LanguageID string      `json:"languageId"`
	Version    int32       `json:"version"`
	Text       string      `json:"text"`
}

// VersionedTextDocumentIdentifier identifies a document at a specific edit
// version, used on didChange.
type VersionedTextDocumentIdentifier struct {
	URI     DocumentURI `json:"uri"`
	Version int32       `json:"version"`
}

// TextDocumentPositionParams is the common shape of definition/references
// requests: which document, which position in it.
type TextDocumentPositionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

// ReferenceContext controls whether references includes the declaration.
type ReferenceContext struct {
	IncludeDeclaration bool `json:"includeDeclaration"`
}

// ReferenceParams is textDocument/references' request params.
type ReferenceParams struct {
	TextDocumentPositionParams
	Context ReferenceContext `json:"context"`
}

// WorkspaceFolder is one root folder a client exposes to the server.
type WorkspaceFolder struct {
	URI  DocumentURI `json:"uri"`
	Name string      `json:"name"`
}

// SymbolKind is the LSP enum identifying what a symbol denotes.
type SymbolKind uint32

// The subset of LSP's SymbolKind enum the Manager translates into kind
// tokens.
const (
	SymbolKindFile          SymbolKind = 1
	SymbolKindModule        SymbolKind = 2
	SymbolKindNamespace     SymbolKind = 3
	SymbolKindClass         SymbolKind = 5
	SymbolKindMethod        SymbolKind = 6
	SymbolKindProperty      SymbolKind = 7
	SymbolKindField         SymbolKind = 8
	SymbolKindConstructor   SymbolKind = 9
	SymbolKindInterface     SymbolKind = 11
	SymbolKindFunction      SymbolKind = 12
	SymbolKindVariable      SymbolKind = 13
	SymbolKindConstant      SymbolKind = 14
	SymbolKindStruct        SymbolKind = 23
	SymbolKindEnum          SymbolKind = 10
	SymbolKindEnumMember    SymbolKind = 22
	SymbolKindTypeParameter SymbolKind = 26
)

// SymbolInformation is the flat (non-hierarchical) shape
// workspace/symbol and some servers' textDocument/documentSymbol return.
type SymbolInformation struct {
	Name          string     `json:"name"`
	Kind          SymbolKind `json:"kind"`
	ContainerName string     `json:"containerName,omitempty"`
	Location      Location   `json:"location"`
}

// DocumentSymbol is the hierarchical shape textDocument/documentSymbol
// returns when a server supports nested symbols.
type DocumentSymbol struct {
	Name           string           `json:"name"`
	Detail         string           `json:"detail,omitempty"`
	Kind           SymbolKind       `json:"kind"`
	Range          Range            `json:"range"`
	SelectionRange Range            `json:"selectionRange"`
	Children       []DocumentSymbol `json:"children,omitempty"`
}

// Diagnostic is one entry of a textDocument/publishDiagnostics notification.
type Diagnostic struct {
	Range    Range   `json:"range"`
	Severity int     `json:"severity,omitempty"`
	Code     any     `json:"code,omitempty"`
	Source   string  `json:"source,omitempty"`
	Message  string  `json:"message"`
}

// PublishDiagnosticsParams is textDocument/publishDiagnostics' payload.
type PublishDiagnosticsParams struct {
	URI         DocumentURI  `json:"uri"`
	Version     *int32       `json:"version,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// FileChangeType mirrors LSP's FileChangeType enum for didChangeWatchedFiles.
type FileChangeType int

const (
	FileChangeCreated FileChangeType = 1
	FileChangeChanged FileChangeType = 2
	FileChangeDeleted FileChangeType = 3
)

// FileEvent is one entry in workspace/didChangeWatchedFiles' params.
type FileEvent struct {
	URI  DocumentURI    `json:"uri"`
	Type FileChangeType `json:"type"`
}

// DidChangeWatchedFilesParams is workspace/didChangeWatchedFiles' payload.
type DidChangeWatchedFilesParams struct {
	Changes []FileEvent `json:"changes"`
}

// ClientCapabilities is the subset of capability negotiation this system
// actually exercises: dynamic registration for watched files and
// configuration pull, nothing about completion/hover/formatting since
// this system never edits source or offers IDE features.
type ClientCapabilities struct {
	Workspace    *WorkspaceClientCapabilities    `json:"workspace,omitempty"`
	TextDocument *TextDocumentClientCapabilities `json:"textDocument,omitempty"`
}

type WorkspaceClientCapabilities struct {
	Configuration         bool `json:"configuration,omitempty"`
	DidChangeWatchedFiles *DidChangeWatchedFilesClientCapability `json:"didChangeWatchedFiles,omitempty"`
	Symbol                *WorkspaceSymbolClientCapability       `json:"symbol,omitempty"`
	WorkspaceFolders      bool                                   `json:"workspaceFolders,omitempty"`
}

type DidChangeWatchedFilesClientCapability struct {
	DynamicRegistration bool `json:"dynamicRegistration,omitempty"`
}

type WorkspaceSymbolClientCapability struct {
	DynamicRegistration bool `json:"dynamicRegistration,omitempty"`
}

type TextDocumentClientCapabilities struct {
	DocumentSymbol     *DocumentSymbolClientCapability     `json:"documentSymbol,omitempty"`
	Definition         *DefinitionClientCapability         `json:"definition,omitempty"`
	References         *ReferenceClientCapability          `json:"references,omitempty"`
	PublishDiagnostics *PublishDiagnosticsClientCapability `json:"publishDiagnostics,omitempty"`
}

type DocumentSymbolClientCapability struct {
	HierarchicalDocumentSymbolSupport bool `json:"hierarchicalDocumentSymbolSupport,omitempty"`
}

type DefinitionClientCapability struct {
	LinkSupport bool `json:"linkSupport,omitempty"`
}

type ReferenceClientCapability struct{}

type PublishDiagnosticsClientCapability struct{}

// ServerCapabilities is the subset of a server's initialize result this
// system inspects to decide whether a request is supported, per caps.go's
// IsMethodSupported pattern.
type ServerCapabilities struct {
	DefinitionProvider     json.RawMessage `json:"definitionProvider,omitempty"`
	ReferencesProvider     json.RawMessage `json:"referencesProvider,omitempty"`
	DocumentSymbolProvider json.RawMessage `json:"documentSymbolProvider,omitempty"`
	WorkspaceSymbolProvider json.RawMessage `json:"workspaceSymbolProvider,omitempty"`
	TextDocumentSync       json.RawMessage `json:"textDocumentSync,omitempty"`
}

// Supported reports whether raw is present and not a literal JSON `false`,
// matching LSP's convention that capability fields are either absent,
// `false`, `true`, or an options object.
func Supported(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	return string(raw) != "false"
}

// ClientInfo identifies this client to the server during initialize.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeParams is the initialize request's payload.
type InitializeParams struct {
	ProcessID         int32              `json:"processId"`
	ClientInfo        *ClientInfo        `json:"clientInfo,omitempty"`
	RootURI           DocumentURI        `json:"rootUri"`
	WorkspaceFolders  []WorkspaceFolder  `json:"workspaceFolders,omitempty"`
	Capabilities      ClientCapabilities `json:"capabilities"`
	InitializationOptions any             `json:"initializationOptions,omitempty"`
}

// InitializeResult is the initialize response's payload.
type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
	ServerInfo   *ClientInfo        `json:"serverInfo,omitempty"`
}

// URIFromPath converts an absolute filesystem path to a file:// DocumentURI.
func URIFromPath(path string) DocumentURI {
	return DocumentURI("file://" + path)
}

// PathFromURI strips the file:// scheme from a DocumentURI, returning the
// filesystem path unchanged otherwise.
func PathFromURI(uri DocumentURI) string {
	const prefix = "file://"
	s := string(uri)
	if len(s) >= len(prefix) && s[:len(prefix)] == prefix {
		return s[len(prefix):]
	}
	return s
}

// WatchKind mirrors LSP's WatchKind bitmask for FileSystemWatcher.
type WatchKind int

const (
	WatchCreate WatchKind = 1
	WatchChange WatchKind = 2
	WatchDelete WatchKind = 4
)

// FileSystemWatcher is one entry of a client/registerCapability registration
// for workspace/didChangeWatchedFiles.
type FileSystemWatcher struct {
	GlobPattern string     `json:"globPattern"`
	Kind        *WatchKind `json:"kind,omitempty"`
}

// DidChangeWatchedFilesRegistrationOptions is the registerCapability options
// payload for workspace/didChangeWatchedFiles.
type DidChangeWatchedFilesRegistrationOptions struct {
	Watchers []FileSystemWatcher `json:"watchers"`
}

// Registration is one entry of a client/registerCapability request.
type Registration struct {
	ID              string          `json:"id"`
	Method          string          `json:"method"`
	RegisterOptions json.RawMessage `json:"registerOptions,omitempty"`
}

// RegistrationParams is client/registerCapability's request payload.
type RegistrationParams struct {
	Registrations []Registration `json:"registrations"`
}

// ConfigurationItem identifies one section of a workspace/configuration
// request.
type ConfigurationItem struct {
	ScopeURI DocumentURI `json:"scopeUri,omitempty"`
	Section  string      `json:"section,omitempty"`
}

// ConfigurationParams is workspace/configuration's request payload.
type ConfigurationParams struct {
	Items []ConfigurationItem `json:"items"`
}
