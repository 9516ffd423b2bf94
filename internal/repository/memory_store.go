package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"TradeMind/internal/domain/models"
	"TradeMind/internal/domain/repository"
)

// Table names of the append-only memory. Rows are inserted once and never
// updated; retention is the only delete path.
const (
	TableFilters  = "mt_filters"
	TableVerdicts = "mt_verdicts"
	TableTrades   = "mt_trades"
)

// ClickHouseMemoryStore implements MemoryStore on ClickHouse MergeTree
// tables with a TTL matching the configured retention.
type ClickHouseMemoryStore struct {
	db            *sql.DB
	retentionDays int
}

func NewClickHouseMemoryStore(db *sql.DB, retentionDays int) repository.MemoryStore {
	return &ClickHouseMemoryStore{db: db, retentionDays: retentionDays}
}

// Init creates the tables if missing. Idempotent.
func (s *ClickHouseMemoryStore) Init(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			module_timestamp DateTime64(3),
			candle_timestamp Int64,
			filter_name String,
			score Float64,
			flag String,
			metrics String,
			reason String
		) ENGINE = MergeTree()
		ORDER BY (module_timestamp, filter_name)
		TTL toDateTime(module_timestamp) + INTERVAL %d DAY`, TableFilters, s.retentionDays),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			module_timestamp DateTime64(3),
			candle_timestamp Int64,
			direction String,
			entry_price Float64,
			verdict String,
			confidence Float64,
			reason String
		) ENGINE = MergeTree()
		ORDER BY module_timestamp
		TTL toDateTime(module_timestamp) + INTERVAL %d DAY`, TableVerdicts, s.retentionDays),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			module_timestamp DateTime64(3),
			candle_timestamp Int64,
			direction String,
			quantity Float64,
			entry_price Float64,
			simulated UInt8,
			failed UInt8,
			reason String,
			order_data String,
			ai_verdict String
		) ENGINE = MergeTree()
		ORDER BY module_timestamp
		TTL toDateTime(module_timestamp) + INTERVAL %d DAY`, TableTrades, s.retentionDays),
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: init schema: %v", models.ErrPersistence, err)
		}
	}
	return nil
}

func (s *ClickHouseMemoryStore) SaveFilterResult(ctx context.Context, r *models.FilterResult) error {
	metrics, err := json.Marshal(r.Metrics)
	if err != nil {
		return fmt.Errorf("%w: marshal metrics: %v", models.ErrPersistence, err)
	}
	q := fmt.Sprintf(`INSERT INTO %s
		(module_timestamp, candle_timestamp, filter_name, score, flag, metrics, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, TableFilters)
	if _, err := s.db.ExecContext(ctx, q,
		r.ModuleTimestamp, r.CandleTimestamp, r.FilterName,
		r.Score, string(r.Flag), string(metrics), r.Reason,
	); err != nil {
		return fmt.Errorf("%w: insert filter result: %v", models.ErrPersistence, err)
	}
	return nil
}

func (s *ClickHouseMemoryStore) SaveVerdict(ctx context.Context, v *models.Verdict) error {
	decision := v.Decision
	if decision == "" {
		decision = string(v.Direction)
	}
	q := fmt.Sprintf(`INSERT INTO %s
		(module_timestamp, candle_timestamp, direction, entry_price, verdict, confidence, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, TableVerdicts)
	if _, err := s.db.ExecContext(ctx, q,
		v.ModuleTimestamp, v.CandleTimestamp, string(v.Direction),
		v.EntryPrice, decision, v.Confidence, v.Reason,
	); err != nil {
		return fmt.Errorf("%w: insert verdict: %v", models.ErrPersistence, err)
	}
	return nil
}

func (s *ClickHouseMemoryStore) SaveTradeRecord(ctx context.Context, t *models.TradeRecord) error {
	orderData, err := json.Marshal(t.OrderData)
	if err != nil {
		return fmt.Errorf("%w: marshal order data: %v", models.ErrPersistence, err)
	}
	verdict, err := json.Marshal(t.AIVerdict)
	if err != nil {
		return fmt.Errorf("%w: marshal verdict: %v", models.ErrPersistence, err)
	}
	q := fmt.Sprintf(`INSERT INTO %s
		(module_timestamp, candle_timestamp, direction, quantity, entry_price,
		 simulated, failed, reason, order_data, ai_verdict)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, TableTrades)
	if _, err := s.db.ExecContext(ctx, q,
		t.ModuleTimestamp, t.CandleTimestamp, string(t.Direction),
		t.Quantity, t.EntryPrice, boolToUInt8(t.Simulated), boolToUInt8(t.Failed),
		t.Reason, string(orderData), string(verdict),
	); err != nil {
		return fmt.Errorf("%w: insert trade record: %v", models.ErrPersistence, err)
	}
	return nil
}

func (s *ClickHouseMemoryStore) RecentFilterResults(ctx context.Context, limit int) ([]models.FilterResult, error) {
	q := fmt.Sprintf(`SELECT module_timestamp, candle_timestamp, filter_name, score, flag, metrics, reason
		FROM %s ORDER BY module_timestamp DESC LIMIT ?`, TableFilters)
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query filters: %v", models.ErrPersistence, err)
	}
	defer rows.Close()

	var out []models.FilterResult
	for rows.Next() {
		var r models.FilterResult
		var flag, metrics string
		if err := rows.Scan(&r.ModuleTimestamp, &r.CandleTimestamp, &r.FilterName,
			&r.Score, &flag, &metrics, &r.Reason); err != nil {
			return nil, fmt.Errorf("%w: scan filter row: %v", models.ErrPersistence, err)
		}
		r.Flag = models.Flag(flag)
		if err := json.Unmarshal([]byte(metrics), &r.Metrics); err != nil {
			r.Metrics = map[string]float64{}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *ClickHouseMemoryStore) RecentVerdicts(ctx context.Context, limit int) ([]models.Verdict, error) {
	q := fmt.Sprintf(`SELECT module_timestamp, candle_timestamp, direction, entry_price, verdict, confidence, reason
		FROM %s ORDER BY module_timestamp DESC LIMIT ?`, TableVerdicts)
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query verdicts: %v", models.ErrPersistence, err)
	}
	defer rows.Close()

	var out []models.Verdict
	for rows.Next() {
		var v models.Verdict
		var direction string
		if err := rows.Scan(&v.ModuleTimestamp, &v.CandleTimestamp, &direction,
			&v.EntryPrice, &v.Decision, &v.Confidence, &v.Reason); err != nil {
			return nil, fmt.Errorf("%w: scan verdict row: %v", models.ErrPersistence, err)
		}
		v.Direction = models.Direction(direction)
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *ClickHouseMemoryStore) RecentTradeRecords(ctx context.Context, limit int) ([]models.TradeRecord, error) {
	q := fmt.Sprintf(`SELECT module_timestamp, candle_timestamp, direction, quantity, entry_price,
		simulated, failed, reason, order_data, ai_verdict
		FROM %s ORDER BY module_timestamp DESC LIMIT ?`, TableTrades)
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query trades: %v", models.ErrPersistence, err)
	}
	defer rows.Close()

	var out []models.TradeRecord
	for rows.Next() {
		var t models.TradeRecord
		var direction, orderData, verdict string
		var simulated, failed uint8
		if err := rows.Scan(&t.ModuleTimestamp, &t.CandleTimestamp, &direction,
			&t.Quantity, &t.EntryPrice, &simulated, &failed,
			&t.Reason, &orderData, &verdict); err != nil {
			return nil, fmt.Errorf("%w: scan trade row: %v", models.ErrPersistence, err)
		}
		t.Direction = models.Direction(direction)
		t.Simulated = simulated != 0
		t.Failed = failed != 0
		_ = json.Unmarshal([]byte(orderData), &t.OrderData)
		_ = json.Unmarshal([]byte(verdict), &t.AIVerdict)
		out = append(out, t)
	}
	return out, rows.Err()
}

// Prune drops rows older than the cutoff. The schema TTL does the same
// server-side; this is the explicit path for operators and tests.
func (s *ClickHouseMemoryStore) Prune(ctx context.Context, olderThan time.Time) error {
	for _, table := range []string{TableFilters, TableVerdicts, TableTrades} {
		q := fmt.Sprintf(`ALTER TABLE %s DELETE WHERE module_timestamp < ?`, table)
		if _, err := s.db.ExecContext(ctx, q, olderThan); err != nil {
			return fmt.Errorf("%w: prune %s: %v", models.ErrPersistence, table, err)
		}
	}
	return nil
}

func (s *ClickHouseMemoryStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseMemoryStore) Close() error {
	return nil // pool owned by pkg/clickhouse client
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
