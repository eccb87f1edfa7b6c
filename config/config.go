package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/thisisjab/cmoon/api"
	"github.com/thisisjab/cmoon/engine"
	"github.com/thisisjab/cmoon/processor"
	"github.com/thisisjab/cmoon/source"
	"github.com/thisisjab/cmoon/storage"
	"go.yaml.in/yaml/v3"
)

const (
	defaultBufferSize   = 64
	defaultWorkersCount = 4
)

type Config struct {
	Logger                LoggerConfig      `yaml:"logger"`
	Storage               StorageConfig     `yaml:"storage"`
	Processors            []ProcessorConfig `yaml:"processors"`
	Sources               []SourceConfig    `yaml:"sources"`
	API                   api.Config        `yaml:"api"`
	FilesBufferSize       uint              `yaml:"files_buffer_size"`
	ReportsBufferSize     uint              `yaml:"reports_buffer_size"`
	StorageFlushInterval  time.Duration     `yaml:"storage_flush_interval"`
	ProcessorWorkersCount uint              `yaml:"processor_workers_count"`

	// StorageBufferSize left unset defaults to 64. An explicit 0 disables size-triggered
	// flushing and then requires storage_flush_interval.
	StorageBufferSize *uint `yaml:"storage_buffer_size"`
}

type LoggerConfig struct {
	Level  string `yaml:"level"`
	Type   string `yaml:"type"`
	Output string `yaml:"output"`
}

type StorageConfig struct {
	Type   string `yaml:"type"`
	Config any    `yaml:"config"`
}

type ProcessorConfig struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
	Config any    `yaml:"config"`
}

type SourceConfig struct {
	Name       string   `yaml:"name"`
	Type       string   `yaml:"type"`
	Processors []string `yaml:"processors"`
	Config     any      `yaml:"config"`
}

// Default is used by the driver when no config file is given.
func Default() Config {
	return Config{
		Logger: LoggerConfig{Level: "info", Type: "colored-text", Output: "stderr"},
	}
}

func (cfg Config) Parse() (*engine.Config, *slog.Logger, error) {
	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, nil, fmt.Errorf("cannot create logger: %w", err)
	}

	st, err := parseStorageConfig(logger, cfg.Storage)
	if err != nil {
		return nil, logger, fmt.Errorf("cannot create storage: %w", err)
	}

	processors := make(map[string]engine.Processor, len(cfg.Processors))
	for _, pc := range cfg.Processors {
		p, err := parseProcessorConfig(pc)
		if err != nil {
			return nil, logger, fmt.Errorf("cannot create processor `%s`: %w", pc.Name, err)
		}
		processors[pc.Name] = p
	}

	sources := make([]engine.Source, len(cfg.Sources))
	for i, sc := range cfg.Sources {
		s, err := parseSourceConfig(logger, sc)
		if err != nil {
			return nil, logger, fmt.Errorf("cannot create source `%s`: %w", sc.Name, err)
		}
		sources[i] = s
	}

	storageBufferSize := uint(defaultBufferSize)
	if cfg.StorageBufferSize != nil {
		storageBufferSize = *cfg.StorageBufferSize
	}

	return &engine.Config{
		Sources:               sources,
		Processors:            processors,
		Storage:               st,
		StorageFlushInterval:  cfg.StorageFlushInterval,
		FilesBufferMaxSize:    orDefault(cfg.FilesBufferSize, defaultBufferSize),
		ReportsBufferMaxSize:  orDefault(cfg.ReportsBufferSize, defaultBufferSize),
		StorageBufferMaxSize:  storageBufferSize,
		ProcessorWorkersCount: orDefault(cfg.ProcessorWorkersCount, defaultWorkersCount),
	}, logger, nil
}

func orDefault(v, def uint) uint {
	if v == 0 {
		return def
	}
	return v
}

func (cfg Config) NewLogger() (*slog.Logger, error) {
	return parseLoggerConfig(cfg.Logger)
}

func parseLoggerConfig(cfg LoggerConfig) (*slog.Logger, error) {
	var handler slog.Handler

	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level: %s", cfg.Level)
	}

	var w io.Writer
	switch cfg.Output {
	case "stdout", "":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("cannot open log output: %w", err)
		}
		w = f
	}

	switch cfg.Type {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case "text":
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	case "colored-text", "":
		handler = tint.NewHandler(w, &tint.Options{Level: level, AddSource: level == slog.LevelDebug, TimeFormat: time.Kitchen})
	default:
		return nil, fmt.Errorf("invalid log type: %s", cfg.Type)
	}

	return slog.New(handler), nil
}

func parseStorageConfig(logger *slog.Logger, cfg StorageConfig) (engine.Storage, error) {
	switch cfg.Type {
	case "log", "":
		return storage.NewLogStorage(logger), nil

	case "clickhouse":
		var clickHouseConfig storage.ClickHouseStorageConfig

		if err := remarshal(cfg.Config, &clickHouseConfig); err != nil {
			return nil, fmt.Errorf("cannot parse clickhouse storage config: %w", err)
		}

		s, err := storage.NewClickHouseStorage(clickHouseConfig)
		if err != nil {
			return nil, fmt.Errorf("cannot create clickhouse storage: %w", err)
		}

		return s, nil

	default:
		return nil, fmt.Errorf("invalid storage type: %s", cfg.Type)
	}
}

func parseSourceConfig(logger *slog.Logger, cfg SourceConfig) (engine.Source, error) {
	switch cfg.Type {
	case "file":
		var fileConfig source.FileSourceConfig
		err := remarshal(cfg.Config, &fileConfig)
		if err != nil {
			return nil, fmt.Errorf("cannot create file source: %w", err)
		}

		fileConfig.Name = cfg.Name
		fileConfig.ProcessorNames = cfg.Processors

		s, err := source.NewFileSource(logger, fileConfig)
		if err != nil {
			return nil, fmt.Errorf("cannot create file source: %w", err)
		}

		return s, nil
	default:
		return nil, fmt.Errorf("invalid source type: %s", cfg.Type)
	}
}

func parseProcessorConfig(cfg ProcessorConfig) (engine.Processor, error) {
	switch cfg.Type {
	case "lex":
		var lexConfig processor.LexProcessorConfig
		if err := remarshal(cfg.Config, &lexConfig); err != nil {
			return nil, fmt.Errorf("cannot create lex processor: %w", err)
		}

		lexConfig.Name = cfg.Name

		return processor.NewLexProcessor(lexConfig)
	case "parse":
		return processor.NewParseProcessor(processor.ParseProcessorConfig{Name: cfg.Name})
	case "lua":
		var luaConfig processor.LuaProcessorConfig
		if err := remarshal(cfg.Config, &luaConfig); err != nil {
			return nil, fmt.Errorf("cannot create lua processor: %w", err)
		}

		luaConfig.Name = cfg.Name

		p, err := processor.NewLuaProcessor(luaConfig)
		if err != nil {
			return nil, fmt.Errorf("cannot create lua processor: %w", err)
		}

		return p, nil
	default:
		return nil, fmt.Errorf("invalid processor type: %s", cfg.Type)
	}
}

// remarshal takes an input value, marshals it to YAML, and then unmarshals it into a new value of the same type.
// This is useful for converting generic interfaces (like map[string]any) into concrete struct types.
// The output parameter must be a pointer to the target type.
func remarshal(input any, output any) error {
	if input == nil {
		return nil
	}

	// Marshal the input to YAML
	yamlBytes, err := yaml.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to marshal to YAML: %w", err)
	}

	// Unmarshal the YAML into the output
	if err := yaml.Unmarshal(yamlBytes, output); err != nil {
		return fmt.Errorf("failed to unmarshal from YAML: %w", err)
	}

	return nil
}
