package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"GridPulse/internal/domain/models"
	applogger "GridPulse/pkg/logger"
)

// Execer runs statements that return no rows; *clickhouse.Client satisfies it.
type Execer interface {
	Exec(ctx context.Context, query string, args ...any) error
}

// ClickHouseSink replaces one ClickHouse table per Write.
type ClickHouseSink struct {
	db        Execer
	database  string
	runID     string
	batchSize int
	l         *applogger.Logger
}

// NewClickHouseSink creates a sink writing into database.
func NewClickHouseSink(db Execer, database, runID string, batchSize int, l *applogger.Logger) *ClickHouseSink {
	if batchSize <= 0 {
		batchSize = 2000
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &ClickHouseSink{db: db, database: database, runID: runID, batchSize: batchSize, l: l}
}

func (s *ClickHouseSink) Name() string { return "clickhouse" }

// Write drops and recreates t.Name, then inserts every row stamped with the run ID.
func (s *ClickHouseSink) Write(ctx context.Context, t *models.Table) error {
	start := time.Now()
	qualified := quoteIdent(s.database) + "." + quoteIdent(t.Name)

	ddl := []string{
		"CREATE DATABASE IF NOT EXISTS " + quoteIdent(s.database),
		"DROP TABLE IF EXISTS " + qualified,
		createTableSQL(qualified, t.Columns),
	}
	for _, stmt := range ddl {
		if err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("clickhouse %s: %w", t.Name, err)
		}
	}

	names := make([]string, 0, len(t.Columns)+1)
	for _, c := range t.Columns {
		names = append(names, quoteIdent(c.Name))
	}
	names = append(names, "`run_id`")
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ") + ")"

	for lo := 0; lo < len(t.Rows); lo += s.batchSize {
		hi := lo + s.batchSize
		if hi > len(t.Rows) {
			hi = len(t.Rows)
		}

		values := make([]string, 0, hi-lo)
		args := make([]any, 0, (hi-lo)*len(names))
		for _, row := range t.Rows[lo:hi] {
			values = append(values, placeholder)
			args = append(args, row...)
			args = append(args, s.runID)
		}
		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", qualified, strings.Join(names, ", "), strings.Join(values, ","))
		if err := s.db.Exec(ctx, q, args...); err != nil {
			s.l.Error("clickhouse insert failed",
				applogger.String("table", t.Name),
				applogger.Int("offset", lo),
				applogger.Error(err),
			)
			return fmt.Errorf("clickhouse insert %s: %w", t.Name, err)
		}
	}

	s.l.Info("clickhouse table replaced",
		applogger.String("table", t.Name),
		applogger.Int("rows", len(t.Rows)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

func (s *ClickHouseSink) Close() error { return nil }

func createTableSQL(qualified string, cols []models.Column) string {
	defs := make([]string, 0, len(cols)+1)
	var order []string
	for _, c := range cols {
		typ := chType(c.Type)
		if c.Nullable {
			typ = "Nullable(" + typ + ")"
		} else if c.Name == ColRegion || c.Name == ColDate || c.Name == ColTimestamp {
			order = append(order, quoteIdent(c.Name))
		}
		defs = append(defs, quoteIdent(c.Name)+" "+typ)
	}
	defs = append(defs, "`run_id` String")

	orderBy := "tuple()"
	if len(order) > 0 {
		orderBy = "(" + strings.Join(order, ", ") + ")"
	}
	return fmt.Sprintf("CREATE TABLE %s (%s) ENGINE = MergeTree ORDER BY %s", qualified, strings.Join(defs, ", "), orderBy)
}

func chType(t models.ColumnType) string {
	switch t {
	case models.ColFloat:
		return "Float64"
	case models.ColInt:
		return "Int64"
	case models.ColBool:
		return "Bool"
	case models.ColDate:
		return "Date"
	case models.ColDateTime:
		return "DateTime"
	default:
		return "String"
	}
}

func quoteIdent(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "\\`") + "`"
}
