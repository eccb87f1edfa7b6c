package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/thisisjab/cmoon/entity"
)

type ClickHouseStorageConfig struct {
	Addr     []string `yaml:"addr"`
	Database string   `yaml:"database"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
}

// ClickHouseStorage keeps one row per report and one row per diagnostic so lexical
// failures can be queried across runs.
type ClickHouseStorage struct {
	conn clickhouse.Conn
	cfg  ClickHouseStorageConfig
}

func NewClickHouseStorage(cfg ClickHouseStorageConfig) (*ClickHouseStorage, error) {
	if len(cfg.Addr) == 0 {
		return nil, errors.New("clickhouse storage needs at least one address")
	}
	return &ClickHouseStorage{cfg: cfg}, nil
}

func setupClickHouseTables(ctx context.Context, conn driver.Conn) error {
	err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS lex_reports (
			id UUID,
			source String,
			path String,
			timestamp DateTime64(3),
			stage LowCardinality(String),
			token_count UInt32,
			diagnostic_count UInt32
		)
		ENGINE = MergeTree
		ORDER BY (source, path, timestamp, id)
		PARTITION BY toYYYYMM(timestamp)
	`)
	if err != nil {
		return err
	}

	err = conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS lex_diagnostics (
			report_id UUID,
			path String,
			timestamp DateTime64(3),
			code LowCardinality(String),
			line Int32,
			message String
		)
		ENGINE = MergeTree
		ORDER BY (path, timestamp, code)
		PARTITION BY toYYYYMM(timestamp)
	`)
	return err
}

func (s *ClickHouseStorage) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: s.cfg.Addr,
		Auth: clickhouse.Auth{
			Database: s.cfg.Database,
			Username: s.cfg.Username,
			Password: s.cfg.Password,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})

	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping the database: %w", err)
	}

	s.conn = conn

	if err := setupClickHouseTables(ctx, conn); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	return nil
}

func (s *ClickHouseStorage) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *ClickHouseStorage) StoreReports(ctx context.Context, reports ...entity.Report) error {
	if len(reports) == 0 {
		return nil
	}
	if s.conn == nil {
		return errors.New("clickhouse storage is not connected")
	}

	ctx, cancel := context.WithTimeout(ctx, 1*time.Minute)
	defer cancel()

	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO lex_reports (id, source, path, timestamp, stage, token_count, diagnostic_count)")
	if err != nil {
		return fmt.Errorf("couldn't prepare batch: %w", err)
	}
	// Releases the connection when Send is never reached; a no-op after Send.
	defer batch.Abort() //nolint:errcheck

	for _, r := range reports {
		err = batch.Append(r.ID, r.Source, r.Path, r.Timestamp, r.Stage, uint32(len(r.Tokens)), uint32(len(r.Diagnostics)))
		if err != nil {
			return fmt.Errorf("couldn't append report to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("couldn't send batch: %w", err)
	}

	return s.storeDiagnostics(ctx, reports)
}

func (s *ClickHouseStorage) storeDiagnostics(ctx context.Context, reports []entity.Report) error {
	rows := diagnosticRows(reports)
	if len(rows) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO lex_diagnostics (report_id, path, timestamp, code, line, message)")
	if err != nil {
		return fmt.Errorf("couldn't prepare batch: %w", err)
	}
	// Releases the connection when Send is never reached; a no-op after Send.
	defer batch.Abort() //nolint:errcheck

	for _, row := range rows {
		if err := batch.Append(row...); err != nil {
			return fmt.Errorf("couldn't append diagnostic to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("couldn't send batch: %w", err)
	}

	return nil
}

func diagnosticRows(reports []entity.Report) [][]any {
	var rows [][]any
	for _, r := range reports {
		for _, d := range r.Diagnostics {
			rows = append(rows, []any{r.ID, r.Path, r.Timestamp, d.Code, int32(d.Line), d.Message})
		}
	}
	return rows
}
