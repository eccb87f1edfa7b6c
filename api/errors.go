package api

import (
	"errors"
	"net/http"

	"github.com/thisisjab/cmoon/fault"
)

func (s *server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var f fault.Fault
	if errors.As(err, &f) {
		switch f.Code() {
		case fault.UnrecognizedCharacterCode, fault.InvalidConstantCode, fault.UnexpectedTokenCode, fault.UnexpectedEOFCode:
			// The request was well-formed but the program in it is not.
			s.writeError(w, r, http.StatusUnprocessableEntity, apiResponse{
				Success: false,
				Message: f.Error(),
				Metadata: map[string]any{
					"code":    f.Code(),
					"line":    f.Line(),
					"context": f.Metadata(),
				},
			})
		case fault.BadInputCode:
			if md, ok := f.Metadata().(fault.FieldErrorsMetadata); ok {
				// This is a 422 error since it's related to specific field
				s.writeError(w, r, http.StatusUnprocessableEntity, apiResponse{
					Success: false,
					Message: f.Message(),
					Metadata: map[string]any{
						"fields": md,
					},
				})
			} else {
				// This is a 400 as it's a bad request with no metadata or unknown metadata
				s.writeError(w, r, http.StatusBadRequest, apiResponse{
					Success:  false,
					Message:  f.Message(),
					Metadata: map[string]any{"context": f.Metadata()},
				})
			}
		default:
			s.internalServerError(w, r, f)
		}

		return
	}

	s.internalServerError(w, r, err)
}

// returnOnError writes the error response for err, if any, and reports whether it did.
func (s *server) returnOnError(w http.ResponseWriter, r *http.Request, err error) bool {
	if err == nil {
		return false
	}

	s.handleError(w, r, err)
	return true
}

func (s *server) logError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("internal server error", "method", r.Method, "path", r.RequestURI, "remote-addr", r.RemoteAddr, "error", err)
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, status int, response apiResponse) {
	s.writeJson(w, status, response, nil) //nolint:errcheck
}

func (s *server) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	s.logError(w, r, err)
	s.writeError(w, r, http.StatusInternalServerError, apiResponse{Success: false, Message: "Internal server error"})
}
