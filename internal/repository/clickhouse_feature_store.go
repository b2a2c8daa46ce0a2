package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"GridPulse/internal/domain/models"
	applogger "GridPulse/pkg/logger"
)

// CHFeatureStore implements FeatureStore over the loaded daily_price_features table.
type CHFeatureStore struct {
	db       *sql.DB
	database string
	l        *applogger.Logger
}

func NewCHFeatureStore(db *sql.DB, database string, l *applogger.Logger) *CHFeatureStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHFeatureStore{db: db, database: database, l: l}
}

const featureSelect = `
        SELECT date, region, mean_price, price_volatility, mean_emissions_intensity,
               rolling_correlation, anomaly_flag, anomaly_score
        FROM %s.%s
        WHERE %s
        ORDER BY %s
        LIMIT ?
    `

func (s *CHFeatureStore) Features(ctx context.Context, region models.Region, from, to time.Time, limit int) ([]models.DailyFeatureRecord, error) {
	where := "region = ?"
	args := []any{string(region)}
	if !from.IsZero() {
		where += " AND date >= ?"
		args = append(args, from)
	}
	if !to.IsZero() {
		where += " AND date <= ?"
		args = append(args, to)
	}
	args = append(args, limit)
	return s.query(ctx, "features", fmt.Sprintf(featureSelect, quoteIdent(s.database), TableFeatures, where, "date ASC"), args...)
}

func (s *CHFeatureStore) Anomalies(ctx context.Context, region models.Region, limit int) ([]models.DailyFeatureRecord, error) {
	where := "anomaly_flag"
	var args []any
	if region != "" {
		where += " AND region = ?"
		args = append(args, string(region))
	}
	args = append(args, limit)
	return s.query(ctx, "anomalies", fmt.Sprintf(featureSelect, quoteIdent(s.database), TableFeatures, where, "date DESC, region ASC"), args...)
}

func (s *CHFeatureStore) Regions(ctx context.Context) []models.Region {
	q := fmt.Sprintf("SELECT DISTINCT region FROM %s.%s ORDER BY region", quoteIdent(s.database), TableFeatures)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		s.l.Error("clickhouse regions query error", applogger.Error(err))
		return nil
	}
	defer rows.Close()

	var out []models.Region
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			s.l.Error("clickhouse regions scan error", applogger.Error(err))
			return out
		}
		out = append(out, models.Region(r))
	}
	return out
}

func (s *CHFeatureStore) query(ctx context.Context, op, q string, args ...any) ([]models.DailyFeatureRecord, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.l.Error("clickhouse query error", applogger.String("op", op), applogger.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := make([]models.DailyFeatureRecord, 0, 64)
	for rows.Next() {
		var (
			rec                          models.DailyFeatureRecord
			region                       string
			mean, vol, emis, corr, score sql.NullFloat64
		)
		if err := rows.Scan(&rec.Date, &region, &mean, &vol, &emis, &corr, &rec.AnomalyFlag, &score); err != nil {
			return nil, fmt.Errorf("scan %s: %w", op, err)
		}
		rec.Region = models.Region(region)
		rec.MeanPrice = nullFloat(mean)
		rec.PriceVolatility = nullFloat(vol)
		rec.MeanEmissionsIntensity = nullFloat(emis)
		rec.RollingCorrelation = nullFloat(corr)
		rec.AnomalyScore = nullFloat(score)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
