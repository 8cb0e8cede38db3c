// Package config loads and serves polyls's workspace configuration: the
// LSP backend command lines, watch glob patterns, and AST-matcher binary
// path.
//
// Loading is plain encoding/json with github.com/invopop/jsonschema struct
// tags describing each field, so `polyls schema` can reflect a JSON Schema
// straight from the Config type instead of a hand-maintained document.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/polyls/polyls/internal/perr"
)

// LSPConfig describes one per-language backend.
type LSPConfig struct {
	Disabled    bool              `json:"disabled,omitempty" jsonschema:"description=Whether this backend is disabled,default=false"`
	Command     string            `json:"command" jsonschema:"required,description=Executable to launch for this backend,example=gopls"`
	Args        []string          `json:"args,omitempty" jsonschema:"description=Arguments passed to the backend command"`
	Env         map[string]string `json:"env,omitempty" jsonschema:"description=Extra environment variables for the backend process"`
	FileTypes   []string          `json:"filetypes,omitempty" jsonschema:"description=File extensions this backend handles,example=go,example=mod"`
	RootMarkers []string          `json:"root_markers,omitempty" jsonschema:"description=Files or glob patterns that identify a directory as this backend's root,example=go.mod"`
	InitOptions map[string]any    `json:"init_options,omitempty" jsonschema:"description=Backend initializationOptions (stored in the config but not sent on the initialize request)"`
}

// ResolvedEnv renders Env as a NAME=VALUE slice suitable for exec.Cmd.Env.
func (l LSPConfig) ResolvedEnv() []string {
	out := make([]string, 0, len(l.Env))
	for k, v := range l.Env {
		out = append(out, k+"="+v)
	}
	return out
}

// WatchConfig describes the Document Store's include/exclude glob patterns.
type WatchConfig struct {
	Include []string `json:"include,omitempty" jsonschema:"description=Glob patterns a file must match at least one of to be tracked"`
	Exclude []string `json:"exclude,omitempty" jsonschema:"description=Glob patterns that exclude a file even if it matches Include"`
}

// Config is polyls's full workspace configuration.
type Config struct {
	WorkspaceRoot string               `json:"workspace_root" jsonschema:"required,description=Absolute path to the workspace root"`
	LSP           map[string]LSPConfig `json:"lsp,omitempty" jsonschema:"description=Backend configuration keyed by language tag"`
	Watch         WatchConfig          `json:"watch,omitempty" jsonschema:"description=Document Store include/exclude glob patterns"`
	MatcherBinary string               `json:"matcher_binary,omitempty" jsonschema:"description=Path to the AST-pattern matcher binary,default=ast-grep"`
	Addr          string               `json:"addr,omitempty" jsonschema:"description=HTTP listen address,default=:4583"`
	Debug         bool                 `json:"debug,omitempty" jsonschema:"description=Enable debug logging,default=false"`
}

// defaultExcludes become Watch.Exclude whenever the loaded config leaves
// Watch.Exclude empty.
var defaultExcludes = []string{
	"**/node_modules",
	"**/__pycache__",
	"**/.*",
	"**/dist",
	"**/target",
	"**/build",
	".git",
}

// defaultFileTypes gives every well-known language tag a default set of
// file extensions, used by applyLSPDefaults when a loaded LSPConfig leaves
// FileTypes empty.
var defaultFileTypes = map[string][]string{
	"golang":     {"go"},
	"python":     {"py"},
	"typescript": {"ts", "tsx", "js", "jsx"},
	"rust":       {"rs"},
	"cpp":        {"c", "cpp", "cc", "cxx", "h", "hpp"},
	"java":       {"java"},
}

// defaultRootMarkers mirrors defaultFileTypes for RootMarkers. Per-language
// lists are grounded in lsproxy's own PYRIGHT_ROOT_FILES/TYPESCRIPT_ROOT_FILES/
// RUST_ANALYZER_ROOT_FILES/CPP_ROOT_FILES/GOLANG_ROOT_FILES constants.
var defaultRootMarkers = map[string][]string{
	"golang":     {"go.mod", "go.work"},
	"python":     {"pyproject.toml", "setup.py", "setup.cfg", "requirements.txt", "Pipfile", "pyrightconfig.json"},
	"typescript": {"tsconfig.json", "jsconfig.json", "package.json"},
	"rust":       {"Cargo.toml"},
	"cpp":        {"makefile", ".clangd", ".clang-tidy", ".clang-format", "compile_commands.json", "compile_flags.txt", "configure.ac"},
	"java":       {"pom.xml", "build.gradle"},
}

// applyLSPDefaults fills in FileTypes and RootMarkers for any configured
// backend that left them empty, keyed by its language tag, and seeds
// Watch's include patterns from every backend's FileTypes when Watch.Include
// itself was left empty.
func applyLSPDefaults(cfg *Config) {
	include := append([]string(nil), cfg.Watch.Include...)

	for lang, lsp := range cfg.LSP {
		if len(lsp.FileTypes) == 0 {
			lsp.FileTypes = defaultFileTypes[lang]
		}
		if len(lsp.RootMarkers) == 0 {
			lsp.RootMarkers = defaultRootMarkers[lang]
		}
		cfg.LSP[lang] = lsp

		if len(cfg.Watch.Include) == 0 {
			for _, ext := range lsp.FileTypes {
				include = append(include, "**/*."+ext)
			}
		}
	}
	cfg.Watch.Include = include

	if len(cfg.Watch.Exclude) == 0 {
		cfg.Watch.Exclude = append([]string(nil), defaultExcludes...)
	}
	if cfg.MatcherBinary == "" {
		cfg.MatcherBinary = "ast-grep"
	}
	if cfg.Addr == "" {
		cfg.Addr = ":4583"
	}
}

// Load reads and validates the configuration file at path, applying
// defaults for anything left unset. workspaceRoot overrides the file's
// WorkspaceRoot if non-empty, matching a --cwd flag taking precedence over
// a config file's value.
func Load(path, workspaceRoot string) (*Config, error) {
	var cfg Config

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, perr.Wrap(perr.IoError, "read config file", err)
		}
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, perr.Wrap(perr.ProtocolError, "parse config file", err)
		}
	}

	if workspaceRoot != "" {
		cfg.WorkspaceRoot = workspaceRoot
	}
	if cfg.LSP == nil {
		cfg.LSP = make(map[string]LSPConfig)
	}

	if cfg.WorkspaceRoot == "" {
		return nil, perr.New(perr.IoError, "workspace_root is required")
	}
	if !filepath.IsAbs(cfg.WorkspaceRoot) {
		return nil, perr.New(perr.IoError, fmt.Sprintf("workspace_root must be absolute: %q", cfg.WorkspaceRoot))
	}
	if info, err := os.Stat(cfg.WorkspaceRoot); err != nil || !info.IsDir() {
		return nil, perr.New(perr.IoError, fmt.Sprintf("workspace_root does not exist or is not a directory: %q", cfg.WorkspaceRoot))
	}

	applyLSPDefaults(&cfg)
	return &cfg, nil
}
