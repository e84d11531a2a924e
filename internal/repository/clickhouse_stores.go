package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"MarketSentry/internal/domain/models"
	pkgch "MarketSentry/pkg/clickhouse"
	applogger "MarketSentry/pkg/logger"
)

// Schema statements are idempotent; Init runs them on startup.
var sampleSchema = []string{
	`CREATE DATABASE IF NOT EXISTS marketsentry`,
	`CREATE TABLE IF NOT EXISTS marketsentry.price_samples (
        ts     DateTime('UTC'),
        symbol LowCardinality(String),
        price  Float64,
        volume Float64
    ) ENGINE = MergeTree()
    PARTITION BY toYYYYMM(ts)
    ORDER BY (symbol, ts)
    TTL ts + INTERVAL 180 DAY`,
	`CREATE TABLE IF NOT EXISTS marketsentry.alerts (
        ts               DateTime('UTC'),
        symbol           LowCardinality(String),
        message          String,
        severity         LowCardinality(String),
        rvol             Float64,
        sentiment        Float64,
        price_change_pct Float64
    ) ENGINE = MergeTree()
    PARTITION BY toYYYYMM(ts)
    ORDER BY (ts, symbol)`,
	`CREATE TABLE IF NOT EXISTS marketsentry.alert_configs (
        symbol              String,
        price_threshold_pct Float64,
        sentiment_threshold Float64,
        updated_at          DateTime('UTC')
    ) ENGINE = ReplacingMergeTree(updated_at)
    ORDER BY symbol`,
}

// SampleStore persists price samples to ClickHouse.
type SampleStore struct {
	client *pkgch.Client
	db     *sql.DB
	table  string
	l      *applogger.Logger
}

func NewSampleStore(client *pkgch.Client, l *applogger.Logger) *SampleStore {
	return &SampleStore{
		client: client,
		db:     client.DB(),
		table:  "marketsentry.price_samples",
		l:      l,
	}
}

// Init creates the database and tables if absent.
func (s *SampleStore) Init(ctx context.Context) error {
	return s.client.InitSchema(ctx, sampleSchema)
}

func (s *SampleStore) Store(ctx context.Context, sample *models.PriceSample) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, symbol, price, volume) VALUES (?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q,
		time.Unix(sample.Timestamp, 0).UTC(),
		sample.Symbol,
		sample.Price,
		sample.Volume,
	)
	if err != nil {
		return fmt.Errorf("store sample: %w", err)
	}
	return nil
}

func (s *SampleStore) StoreBatch(ctx context.Context, samples []*models.PriceSample) error {
	if len(samples) == 0 {
		return nil
	}
	// Multi-row VALUES to cut round-trips; 2000 rows per statement.
	const chunkSize = 2000
	for start := 0; start < len(samples); start += chunkSize {
		end := start + chunkSize
		if end > len(samples) {
			end = len(samples)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*4)
		for _, sm := range samples[start:end] {
			if sm == nil || sm.Symbol == "" || sm.Timestamp == 0 {
				continue
			}
			values = append(values, "(?, ?, ?, ?)")
			args = append(args,
				time.Unix(sm.Timestamp, 0).UTC(),
				sm.Symbol,
				sm.Price,
				sm.Volume,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ts, symbol, price, volume) VALUES %s",
			s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("store sample batch: %w", err)
		}
	}
	return nil
}

func (s *SampleStore) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.PriceSample, error) {
	if limit <= 0 {
		limit = 10000
	}
	q := fmt.Sprintf(
		"SELECT symbol, ts, price, volume FROM %s WHERE symbol = ? AND ts >= ? AND ts <= ? ORDER BY ts ASC LIMIT ?",
		s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var out []*models.PriceSample
	for rows.Next() {
		var sm models.PriceSample
		var ts time.Time
		if err := rows.Scan(&sm.Symbol, &ts, &sm.Price, &sm.Volume); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		sm.Timestamp = ts.Unix()
		out = append(out, &sm)
	}
	return out, rows.Err()
}

func (s *SampleStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SampleStore) Close() error {
	return nil // pool owned by pkg/clickhouse
}

// AlertStore is the append-only alert log.
type AlertStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewAlertStore(client *pkgch.Client, l *applogger.Logger) *AlertStore {
	return &AlertStore{db: client.DB(), table: "marketsentry.alerts", l: l}
}

func (s *AlertStore) Append(ctx context.Context, a *models.AlertEvent) error {
	q := fmt.Sprintf(
		"INSERT INTO %s (ts, symbol, message, severity, rvol, sentiment, price_change_pct) VALUES (?, ?, ?, ?, ?, ?, ?)",
		s.table)
	_, err := s.db.ExecContext(ctx, q,
		a.Timestamp.UTC(),
		a.Symbol,
		a.Message,
		a.Severity,
		a.RVOL,
		a.SentimentScore,
		a.PriceChangePct,
	)
	if err != nil {
		return fmt.Errorf("append alert: %w", err)
	}
	return nil
}

// Recent returns the newest alerts, optionally filtered by symbol.
func (s *AlertStore) Recent(ctx context.Context, symbol string, limit int) ([]*models.AlertEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var (
		rows *sql.Rows
		err  error
	)
	if symbol != "" {
		q := fmt.Sprintf(
			"SELECT ts, symbol, message, severity, rvol, sentiment, price_change_pct FROM %s WHERE symbol = ? ORDER BY ts DESC LIMIT ?",
			s.table)
		rows, err = s.db.QueryContext(ctx, q, symbol, limit)
	} else {
		q := fmt.Sprintf(
			"SELECT ts, symbol, message, severity, rvol, sentiment, price_change_pct FROM %s ORDER BY ts DESC LIMIT ?",
			s.table)
		rows, err = s.db.QueryContext(ctx, q, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("recent alerts: %w", err)
	}
	defer rows.Close()

	out := make([]*models.AlertEvent, 0, limit)
	for rows.Next() {
		var a models.AlertEvent
		if err := rows.Scan(&a.Timestamp, &a.Symbol, &a.Message, &a.Severity,
			&a.RVOL, &a.SentimentScore, &a.PriceChangePct); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// ConfigStore keeps per-symbol thresholds. Backed by ReplacingMergeTree so a
// Put is a plain insert and FINAL collapses to the newest row.
type ConfigStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewConfigStore(client *pkgch.Client, l *applogger.Logger) *ConfigStore {
	return &ConfigStore{db: client.DB(), table: "marketsentry.alert_configs", l: l}
}

// Get returns (nil, nil) when the symbol has no stored thresholds; callers
// fall back to defaults.
func (s *ConfigStore) Get(ctx context.Context, symbol string) (*models.ThresholdConfig, error) {
	q := fmt.Sprintf(
		"SELECT symbol, price_threshold_pct, sentiment_threshold FROM %s FINAL WHERE symbol = ? LIMIT 1",
		s.table)
	var cfg models.ThresholdConfig
	err := s.db.QueryRowContext(ctx, q, symbol).
		Scan(&cfg.Symbol, &cfg.PriceThresholdPct, &cfg.SentimentThreshold)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get config: %w", err)
	}
	return &cfg, nil
}

func (s *ConfigStore) Put(ctx context.Context, cfg *models.ThresholdConfig) error {
	q := fmt.Sprintf(
		"INSERT INTO %s (symbol, price_threshold_pct, sentiment_threshold, updated_at) VALUES (?, ?, ?, ?)",
		s.table)
	_, err := s.db.ExecContext(ctx, q,
		cfg.Symbol,
		cfg.PriceThresholdPct,
		cfg.SentimentThreshold,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("put config: %w", err)
	}
	s.l.Info("thresholds updated",
		applogger.String("symbol", cfg.Symbol),
		applogger.Float64("price_threshold_pct", cfg.PriceThresholdPct),
		applogger.Float64("sentiment_threshold", cfg.SentimentThreshold),
	)
	return nil
}
