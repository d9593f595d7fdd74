package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"vinechain/config"
	"vinechain/core/events"
	"vinechain/core/types"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Open connects to the archive database selected by cfg and migrates it. A
// nil DB is returned when the archive is disabled.
func Open(cfg config.IndexerConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case config.DriverNone, "":
		return nil, nil
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("indexer: unsupported driver %q", cfg.Driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("indexer: open %s: %w", cfg.Driver, err)
	}
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("indexer: migrate: %w", err)
	}
	return db, nil
}

// Indexer archives committed events. It implements events.Emitter so it can
// sit directly behind the state processor.
type Indexer struct {
	db     *gorm.DB
	logger *slog.Logger
	now    func() time.Time
}

var _ events.Emitter = (*Indexer)(nil)

// New wraps an open archive database.
func New(db *gorm.DB, log *slog.Logger) *Indexer {
	if log == nil {
		log = slog.Default()
	}
	return &Indexer{db: db, logger: log, now: time.Now}
}

// Emit archives evt. Failures are logged; committed state is never affected
// by the archive.
func (ix *Indexer) Emit(evt events.Event) {
	if ix == nil || evt == nil {
		return
	}
	if _, err := ix.Record(context.Background(), events.Render(evt)); err != nil {
		ix.logger.Error("archive event", slog.String("type", evt.EventType()), slog.Any("error", err))
	}
}

// Record stores a rendered event and returns its archive id.
func (ix *Indexer) Record(ctx context.Context, evt *types.Event) (uuid.UUID, error) {
	if evt == nil {
		return uuid.Nil, fmt.Errorf("indexer: nil event")
	}
	record := EventRecord{
		EventID:    uuid.New(),
		Type:       evt.Type,
		Attributes: evt.Attributes,
		CreatedAt:  ix.now().UTC(),
	}
	if err := ix.db.WithContext(ctx).Create(&record).Error; err != nil {
		return uuid.Nil, err
	}
	return record.EventID, nil
}

// Query selects archived events.
type Query struct {
	// Type filters on the exact event type when set.
	Type string
	// After returns only records with a greater sequence number.
	After uint64
	Limit int
}

// Events returns archived events in commit order.
func (ix *Indexer) Events(ctx context.Context, q Query) ([]EventRecord, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	tx := ix.db.WithContext(ctx).Model(&EventRecord{}).Where("seq > ?", q.After)
	if q.Type != "" {
		tx = tx.Where("type = ?", q.Type)
	}
	var out []EventRecord
	if err := tx.Order("seq ASC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of archived events of typ, or of every type when
// typ is empty.
func (ix *Indexer) Count(ctx context.Context, typ string) (int64, error) {
	tx := ix.db.WithContext(ctx).Model(&EventRecord{})
	if typ != "" {
		tx = tx.Where("type = ?", typ)
	}
	var n int64
	if err := tx.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
