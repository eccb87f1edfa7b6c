package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thisisjab/cmoon/processor"
	"github.com/thisisjab/cmoon/source"
	"github.com/thisisjab/cmoon/storage"
	"go.yaml.in/yaml/v3"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParse(t *testing.T) {
	dir := t.TempDir()
	script := writeFile(t, dir, "rules.lua", "function check_tokens(tokens, path) return nil end")
	program := writeFile(t, dir, "main.c", "int main(void) { return 0; }")

	doc := `
logger:
  level: debug
  type: json
  output: ` + filepath.Join(dir, "out.log") + `
storage:
  type: log
processors:
  - name: lexer
    type: lex
    config:
      recover: true
  - name: parser
    type: parse
  - name: rules
    type: lua
    config:
      script-path: ` + script + `
sources:
  - name: programs
    type: file
    processors: [lexer, parser, rules]
    config:
      paths: [` + program + `]
storage_flush_interval: 2s
processor_workers_count: 2
`

	cfg := Default()
	require.NoError(t, yaml.Unmarshal([]byte(doc), &cfg))

	engineCfg, logger, err := cfg.Parse()
	require.NoError(t, err)
	require.NotNil(t, logger)

	assert.IsType(t, &storage.LogStorage{}, engineCfg.Storage)
	assert.Equal(t, 2*time.Second, engineCfg.StorageFlushInterval)
	assert.Equal(t, uint(2), engineCfg.ProcessorWorkersCount)
	assert.Equal(t, uint(defaultBufferSize), engineCfg.FilesBufferMaxSize)
	assert.Equal(t, uint(defaultBufferSize), engineCfg.ReportsBufferMaxSize)
	assert.Equal(t, uint(defaultBufferSize), engineCfg.StorageBufferMaxSize)

	require.Len(t, engineCfg.Processors, 3)
	assert.IsType(t, &processor.LexProcessor{}, engineCfg.Processors["lexer"])
	assert.IsType(t, &processor.ParseProcessor{}, engineCfg.Processors["parser"])
	assert.IsType(t, &processor.LuaProcessor{}, engineCfg.Processors["rules"])

	require.Len(t, engineCfg.Sources, 1)
	src, ok := engineCfg.Sources[0].(*source.FileSource)
	require.True(t, ok)
	assert.Equal(t, "programs", src.Name())
	assert.Equal(t, []string{"lexer", "parser", "rules"}, src.ProcessorNames())
}

func TestParseClickHouseStorage(t *testing.T) {
	cfg := Default()
	cfg.Storage = StorageConfig{
		Type:   "clickhouse",
		Config: map[string]any{"addr": []string{"localhost:9000"}, "database": "cmoon"},
	}

	engineCfg, _, err := cfg.Parse()
	require.NoError(t, err)
	assert.IsType(t, &storage.ClickHouseStorage{}, engineCfg.Storage)
}

func TestParseErrors(t *testing.T) {
	tests := map[string]Config{
		"invalid log level": {
			Logger: LoggerConfig{Level: "loud"},
		},
		"invalid log type": {
			Logger: LoggerConfig{Type: "xml"},
		},
		"invalid storage": {
			Storage: StorageConfig{Type: "postgres"},
		},
		"clickhouse without address": {
			Storage: StorageConfig{Type: "clickhouse"},
		},
		"invalid processor": {
			Processors: []ProcessorConfig{{Name: "p", Type: "format"}},
		},
		"missing lua script": {
			Processors: []ProcessorConfig{{Name: "p", Type: "lua", Config: map[string]any{"script-path": "/does/not/exist.lua"}}},
		},
		"invalid source": {
			Sources: []SourceConfig{{Name: "s", Type: "socket"}},
		},
		"file source without paths": {
			Sources: []SourceConfig{{Name: "s", Type: "file"}},
		},
	}

	for name, cfg := range tests {
		t.Run(name, func(t *testing.T) {
			engineCfg, _, err := cfg.Parse()
			assert.Error(t, err)
			assert.Nil(t, engineCfg)
		})
	}
}

func TestDefaultLogger(t *testing.T) {
	logger, err := Default().NewLogger()
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestParseStorageBufferSize(t *testing.T) {
	tests := []struct {
		doc      string
		expected uint
	}{
		{"storage_flush_interval: 1s\n", defaultBufferSize},
		{"storage_buffer_size: 0\nstorage_flush_interval: 1s\n", 0},
		{"storage_buffer_size: 8\n", 8},
	}

	for i, tt := range tests {
		cfg := Default()
		require.NoError(t, yaml.Unmarshal([]byte(tt.doc), &cfg), "#%d", i)

		engineCfg, _, err := cfg.Parse()
		require.NoError(t, err, "#%d", i)
		assert.Equal(t, tt.expected, engineCfg.StorageBufferMaxSize, "#%d", i)
	}
}
