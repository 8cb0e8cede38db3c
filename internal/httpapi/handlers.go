package httpapi

import (
	"net/http"

	"github.com/polyls/polyls/internal/manager"
	"github.com/polyls/polyls/internal/perr"
)

// symbolDTO is the wire shape for manager.Symbol: name, kind,
// identifier_position, range.
type symbolDTO struct {
	Name               string      `json:"name"`
	Kind               string      `json:"kind"`
	IdentifierPosition positionDTO `json:"identifier_position"`
	Range              rangeDTO    `json:"range"`
}

type positionDTO struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type rangeDTO struct {
	Start positionDTO `json:"start"`
	End   positionDTO `json:"end"`
}

// fileRangeDTO is the wire shape for manager.FileRange: a workspace-
// relative path plus the range within it.
type fileRangeDTO struct {
	FilePath string   `json:"file_path"`
	Range    rangeDTO `json:"range"`
}

func (s *Server) handleDefinitionsInFile(w http.ResponseWriter, r *http.Request) {
	filePath := r.URL.Query().Get("file_path")
	if filePath == "" {
		writeError(w, perr.New(perr.NotFound, "file_path is required"))
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	symbols, err := s.mgr.DefinitionsInFile(ctx, filePath)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]symbolDTO, len(symbols))
	for i, sym := range symbols {
		out[i] = toSymbolDTO(sym)
	}
	writeJSON(w, out)
}

func (s *Server) handleFindDefinition(w http.ResponseWriter, r *http.Request) {
	filePath := r.URL.Query().Get("file_path")
	if filePath == "" {
		writeError(w, perr.New(perr.NotFound, "file_path is required"))
		return
	}
	pos, err := queryPosition(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	ranges, err := s.mgr.FindDefinition(ctx, filePath, pos)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, toFileRangeDTOs(ranges))
}

func (s *Server) handleFindReferences(w http.ResponseWriter, r *http.Request) {
	filePath := r.URL.Query().Get("file_path")
	if filePath == "" {
		writeError(w, perr.New(perr.NotFound, "file_path is required"))
		return
	}
	pos, err := queryPosition(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	ranges, err := s.mgr.FindReferences(ctx, filePath, pos)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, toFileRangeDTOs(ranges))
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.mgr.ListFiles()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, files)
}

// handleDiagnostics surfaces the diagnostics cache that falls out of the
// Client's publishDiagnostics notification handler.
func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	filePath := r.URL.Query().Get("file_path")
	if filePath == "" {
		writeError(w, perr.New(perr.NotFound, "file_path is required"))
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	diags, err := s.mgr.Diagnostics(ctx, filePath)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, diags)
}

func toSymbolDTO(sym manager.Symbol) symbolDTO {
	return symbolDTO{
		Name: sym.Name,
		Kind: sym.Kind,
		IdentifierPosition: positionDTO{
			Line:      sym.IdentifierPosition.Line,
			Character: sym.IdentifierPosition.Character,
		},
		Range: rangeDTO{
			Start: positionDTO{Line: sym.Range.Start.Line, Character: sym.Range.Start.Character},
			End:   positionDTO{Line: sym.Range.End.Line, Character: sym.Range.End.Character},
		},
	}
}

func toFileRangeDTOs(ranges []manager.FileRange) []fileRangeDTO {
	out := make([]fileRangeDTO, len(ranges))
	for i, fr := range ranges {
		out[i] = fileRangeDTO{
			FilePath: fr.RelPath,
			Range: rangeDTO{
				Start: positionDTO{Line: fr.Range.Start.Line, Character: fr.Range.Start.Character},
				End:   positionDTO{Line: fr.Range.End.Line, Character: fr.Range.End.Character},
			},
		}
	}
	return out
}
