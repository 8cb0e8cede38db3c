// Package astmatch drives an external AST-pattern matcher binary: a
// structural search tool invoked per file with an inline rule set, whose
// JSON output is parsed into typed matches.
//
// Subprocess invocation classifies a non-zero exit by its captured stderr
// rather than trying to recover partial stdout. Each inline-rule Scan run
// is tagged with a github.com/google/uuid id that appears in its error
// message for correlation.
package astmatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"

	"github.com/google/uuid"

	"github.com/polyls/polyls/internal/perr"
)

// Match is one structural match the binary reported, normalized from its
// JSON output.
type Match struct {
	Text          string            `json:"text"`
	Range         Range             `json:"range"`
	MetaVariables map[string]string `json:"metaVariables"`
}

// Range mirrors the matcher's own range shape, distinct from docstore's
// LSP-flavored Range since the matcher speaks byte/line offsets, not
// UTF-16 code units.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Position is a line/character pair as reported by the matcher binary.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type rawMatch struct {
	Text          string            `json:"text"`
	Range         Range             `json:"range"`
	MetaVariables map[string]string `json:"metaVariables"`
}

// Matcher invokes a configured matcher binary against workspace files.
type Matcher struct {
	binary string
}

// New returns a Matcher that shells out to binary (resolved via PATH if
// not absolute).
func New(binary string) *Matcher {
	return &Matcher{binary: binary}
}

// RuleKind names what an inline rule targets. Each supported source
// language contributes its own RuleSet mapping RuleKind to a rule body.
type RuleKind string

const (
	RuleVariableDeclarator  RuleKind = "variable_declarator"
	RuleFunctionDeclaration RuleKind = "function_declaration"
	RuleMethodDeclaration   RuleKind = "method_declaration"
	RuleClassDeclaration    RuleKind = "class_declaration"
	RuleEnumConstant        RuleKind = "enum_constant"
	RuleIdentifierUsage     RuleKind = "identifier_usage"
)

// RuleSet maps a RuleKind to the matcher's rule-language pattern string
// for one source language.
type RuleSet map[RuleKind]string

// Scan runs the matcher against file using the rule body registered under
// kind in rules, returning its matches sorted by (line, character)
// ascending. An unrecognized kind is a NotSupported error, not a matcher
// invocation.
func (m *Matcher) Scan(ctx context.Context, rules RuleSet, kind RuleKind, file string) ([]Match, error) {
	rule, ok := rules[kind]
	if !ok {
		return nil, perr.New(perr.NotSupported, fmt.Sprintf("no %s rule for this language", kind))
	}

	id := uuid.NewString()
	cmd := exec.CommandContext(ctx, m.binary, "scan", "--inline-rules", rule, "--json", file)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, perr.Wrap(perr.MatcherFailed,
			fmt.Sprintf("matcher run %s failed (rule %s): %s", id, kind, stderr.String()), err)
	}

	return parseMatches(stdout.Bytes(), fmt.Sprintf("matcher run %s", id))
}

// ScanWithConfig runs the matcher against file using an on-disk rule config
// rather than an inline rule, for callers that keep a persistent rule file.
func (m *Matcher) ScanWithConfig(ctx context.Context, configPath, file string) ([]Match, error) {
	cmd := exec.CommandContext(ctx, m.binary, "scan", "--config", configPath, "--json", file)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, perr.Wrap(perr.MatcherFailed, "matcher scan with config failed: "+stderr.String(), err)
	}

	return parseMatches(stdout.Bytes(), "matcher scan with config")
}

func parseMatches(stdout []byte, label string) ([]Match, error) {
	var raw []rawMatch
	if err := json.Unmarshal(stdout, &raw); err != nil {
		return nil, perr.Wrap(perr.MatcherBadOutput, label+" produced invalid JSON", err)
	}

	matches := make([]Match, len(raw))
	for i, r := range raw {
		matches[i] = Match{Text: r.Text, Range: r.Range, MetaVariables: r.MetaVariables}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Range.Start.Line != matches[j].Range.Start.Line {
			return matches[i].Range.Start.Line < matches[j].Range.Start.Line
		}
		return matches[i].Range.Start.Character < matches[j].Range.Start.Character
	})
	return matches, nil
}
