package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thisisjab/cmoon/entity"
	"github.com/thisisjab/cmoon/token"
)

func TestLogStorage(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogStorage(slog.New(slog.NewJSONHandler(&buf, nil)))

	clean := entity.Report{ID: uuid.New(), Source: "files", Path: "ok.c", Tokens: []token.Token{token.New(token.INT, "int")}}
	broken := entity.Report{ID: uuid.New(), Source: "files", Path: "bad.c", Stage: entity.LexStage,
		Diagnostics: []entity.Diagnostic{{Code: "unrecognized_character", Line: 2, Message: "unrecognized character '@'"}}}

	require.NoError(t, s.StoreReports(context.Background(), clean, broken))

	dec := json.NewDecoder(&buf)
	var first, second map[string]any
	require.NoError(t, dec.Decode(&first))
	require.NoError(t, dec.Decode(&second))

	assert.Equal(t, "INFO", first["level"])
	assert.Equal(t, "ok.c", first["path"])
	assert.Equal(t, float64(1), first["tokens"])

	assert.Equal(t, "ERROR", second["level"])
	assert.Equal(t, "unrecognized character '@'", second["msg"])
	assert.Equal(t, float64(2), second["line"])
	assert.Equal(t, "lex", second["stage"])
}
