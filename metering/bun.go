package metering

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/wayfarer-ai/wayfinder/agent/contract"
)

type requestMetricsRow struct {
	bun.BaseModel `bun:"table:request_metrics"`

	ID             int64   `bun:"id,pk,autoincrement"`
	Timestamp      string  `bun:"timestamp,notnull"`
	ProcessingTime float64 `bun:"processing_time,notnull"`
	AgentsUsed     int     `bun:"agents_used,notnull"`
	APICalls       int     `bun:"api_calls,notnull"`
	Errors         int     `bun:"errors,notnull"`
	Success        bool    `bun:"success,notnull"`
}

// BunStore is the Postgres usage recorder, selected over the file
// recorder when a metering DSN is configured. Schema creation is
// idempotent and happens on construction.
type BunStore struct {
	db *bun.DB
}

func NewBunStore(ctx context.Context, dsn string) (*BunStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: metering dsn is empty", contractx.ErrValidation)
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("metering db ping: %w", err)
	}
	if _, err := db.NewCreateTable().Model((*requestMetricsRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("metering schema: %w", err)
	}
	return &BunStore{db: db}, nil
}

func (s *BunStore) Close() error {
	return s.db.Close()
}

// Record inserts one per-request metrics row.
func (s *BunStore) Record(ctx context.Context, rec contractx.RequestMetrics) error {
	row := requestMetricsRow{
		Timestamp:      rec.Timestamp,
		ProcessingTime: rec.ProcessingTime,
		AgentsUsed:     rec.AgentsUsed,
		APICalls:       rec.APICalls,
		Errors:         rec.Errors,
		Success:        rec.Success,
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert request metrics: %w", err)
	}
	return nil
}

// Stats aggregates all rows with a single query.
func (s *BunStore) Stats(ctx context.Context) (contractx.UsageStats, error) {
	var agg struct {
		Total      int     `bun:"total"`
		Successful int     `bun:"successful"`
		Errors     int     `bun:"errors"`
		TotalTime  float64 `bun:"total_time"`
	}

	err := s.db.NewSelect().
		Model((*requestMetricsRow)(nil)).
		ColumnExpr("count(*) AS total").
		ColumnExpr("count(*) FILTER (WHERE success) AS successful").
		ColumnExpr("coalesce(sum(errors), 0) AS errors").
		ColumnExpr("coalesce(sum(processing_time), 0) AS total_time").
		Scan(ctx, &agg)
	if err != nil {
		return contractx.UsageStats{}, fmt.Errorf("aggregate request metrics: %w", err)
	}
	if agg.Total == 0 {
		return contractx.UsageStats{}, nil
	}

	return contractx.UsageStats{
		TotalRequests:      agg.Total,
		SuccessfulRequests: agg.Successful,
		SuccessRate:        fmt.Sprintf("%.1f%%", float64(agg.Successful)/float64(agg.Total)*100),
		AverageTime:        fmt.Sprintf("%.2fs", agg.TotalTime/float64(agg.Total)),
		TotalErrors:        agg.Errors,
	}, nil
}
