package api

import (
	"net/http"

	"github.com/thisisjab/cmoon/entity"
	"github.com/thisisjab/cmoon/lexer"
	"github.com/thisisjab/cmoon/parser"
)

type sourceRequest struct {
	Source string `json:"source"`
	// Recover collects every lexical error instead of stopping at the first one.
	Recover bool `json:"recover"`
}

func (s *server) lexHandler(w http.ResponseWriter, r *http.Request) {
	var req sourceRequest
	if s.returnOnError(w, r, s.readJson(w, r, &req)) {
		return
	}

	if req.Recover {
		tokens, err := lexer.New(req.Source).ScanAll()
		s.writeJson( // nolint:errcheck
			w,
			http.StatusOK,
			apiResponse{
				Success: err == nil,
				Data: map[string]any{
					"tokens":      tokens,
					"diagnostics": entity.DiagnosticsFromError(err),
				},
			},
			nil,
		)
		return
	}

	tokens, err := lexer.Scan(req.Source)
	if s.returnOnError(w, r, err) {
		return
	}

	s.writeJson(w, http.StatusOK, apiResponse{Success: true, Data: map[string]any{"tokens": tokens}}, nil) //nolint:errcheck
}

func (s *server) parseHandler(w http.ResponseWriter, r *http.Request) {
	var req sourceRequest
	if s.returnOnError(w, r, s.readJson(w, r, &req)) {
		return
	}

	tokens, err := lexer.Scan(req.Source)
	if s.returnOnError(w, r, err) {
		return
	}

	program, err := parser.New(tokens).ParseProgram()
	if s.returnOnError(w, r, err) {
		return
	}

	s.writeJson( // nolint:errcheck
		w,
		http.StatusOK,
		apiResponse{
			Success: true,
			Data: map[string]any{
				"tokens":  tokens,
				"program": program,
				"tree":    program.String(),
			},
		},
		nil,
	)
}
