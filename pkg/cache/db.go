package cache

import (
	"context"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// slowQueryThreshold mirrors the teacher's pkg/database.go warning
// threshold for slow GORM queries.
const slowQueryThreshold = 200 * time.Millisecond

// gormHclogAdapter adapts a hclog.Logger to GORM's logger.Interface,
// copied from the teacher's pkg/database.go gormHclogAdapter.
type gormHclogAdapter struct {
	log hclog.Logger
}

func newGormLogger(log hclog.Logger) gormlogger.Interface {
	return &gormHclogAdapter{log: log}
}

func (a *gormHclogAdapter) LogMode(gormlogger.LogLevel) gormlogger.Interface { return a }

func (a *gormHclogAdapter) Info(_ context.Context, msg string, args ...any) {
	a.log.Info(msg, args...)
}

func (a *gormHclogAdapter) Warn(_ context.Context, msg string, args ...any) {
	a.log.Warn(msg, args...)
}

func (a *gormHclogAdapter) Error(_ context.Context, msg string, args ...any) {
	a.log.Error(msg, args...)
}

func (a *gormHclogAdapter) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()
	switch {
	case err != nil:
		a.log.Error("gorm query failed", "error", err, "sql", sql, "rows", rows, "elapsed", elapsed)
	case elapsed > slowQueryThreshold:
		a.log.Warn("slow gorm query", "sql", sql, "rows", rows, "elapsed", elapsed)
	default:
		a.log.Trace("gorm query", "sql", sql, "rows", rows, "elapsed", elapsed)
	}
}

// openDB opens (creating if absent) the SQLite database at dir/cache.db.
func openDB(dir string, log hclog.Logger) (*gorm.DB, error) {
	dsn := filepath.Join(dir, "cache.db") + "?_journal_mode=WAL&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: newGormLogger(log),
	})
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
