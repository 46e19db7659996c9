package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/tnicklin/nephalem/clock"
	"github.com/tnicklin/nephalem/logger"
	"github.com/tnicklin/nephalem/models"
)

var _ Store = (*SQLiteStore)(nil)

//go:embed schema/*.sql
var schemaFiles embed.FS

const (
	memoryDSNFormat = "file:nephalem-%d?mode=memory&cache=shared&_foreign_keys=on&_busy_timeout=5000"
	defaultDebounce = 5 * time.Second
)

// Each store gets its own shared-cache memory database.
var memorySeq atomic.Int64

// SQLiteStore keeps its working set in an in-memory database and snapshots it to disk
// after writes settle.
type SQLiteStore struct {
	mu           sync.RWMutex
	db           *sql.DB
	snapshotPath string
	logger       logger.Logger
	clock        clock.Clock

	// Debounced flush
	flushDebounce time.Duration
	flushTimer    *time.Timer
	flushMu       sync.Mutex
	dirty         bool
	ctx           context.Context
	cancel        context.CancelFunc
}

type Params struct {
	Config Config
	Logger logger.Logger
	Clock  clock.Clock
}

func NewSQLiteStore(p Params) *SQLiteStore {
	debounce := p.Config.FlushDebounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	log := p.Logger
	if log == nil {
		log = logger.NewNop()
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.System()
	}
	return &SQLiteStore{
		snapshotPath:  p.Config.Path,
		flushDebounce: debounce,
		logger:        log,
		clock:         clk,
	}
}

// SetFlushDebounce sets the debounce duration for disk flushes.
// Must be called before Open().
func (s *SQLiteStore) SetFlushDebounce(d time.Duration) {
	s.flushDebounce = d
}

func (s *SQLiteStore) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}

	database, err := sql.Open("sqlite3", fmt.Sprintf(memoryDSNFormat, memorySeq.Add(1)))
	if err != nil {
		return err
	}
	database.SetMaxOpenConns(1)
	database.SetMaxIdleConns(1)

	if err = database.PingContext(ctx); err != nil {
		_ = database.Close()
		return err
	}

	s.db = database
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s.applySchema(ctx)
}

// Close closes the database without flushing. Use Shutdown for graceful shutdown.
func (s *SQLiteStore) Close() error {
	s.flushMu.Lock()
	s.stopFlushTimer()
	s.flushMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Shutdown performs a final flush to disk and closes the database.
func (s *SQLiteStore) Shutdown(ctx context.Context) error {
	s.flushMu.Lock()
	s.stopFlushTimer()
	dirty := s.dirty
	s.flushMu.Unlock()

	s.mu.RLock()
	path := s.snapshotPath
	s.mu.RUnlock()

	if dirty && path != "" {
		if err := s.FlushToDisk(ctx, path); err != nil {
			s.logger.ErrorW("store: shutdown flush failed", "path", path, "error", err)
		} else {
			s.flushMu.Lock()
			s.dirty = false
			s.flushMu.Unlock()
		}
	}

	return s.Close()
}

func (s *SQLiteStore) RestoreFromDisk(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return ErrNotOpen
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	fileDB, err := sql.Open("sqlite3", sqliteFileDSN(path))
	if err != nil {
		return err
	}
	defer fileDB.Close()

	if err = s.backup(ctx, fileDB, s.db); err != nil {
		return err
	}

	s.logger.InfoW("store: restored snapshot", "path", path)
	return s.applySchema(ctx)
}

func (s *SQLiteStore) FlushToDisk(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.flushLocked(ctx, path)
}

func (s *SQLiteStore) TrackBattleTag(ctx context.Context, tracked TrackedBattleTag) error {
	if !tracked.BattleTag.Valid() {
		return errors.New("store: battle tag is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return ErrNotOpen
	}

	addedAt := tracked.AddedAt
	if addedAt.IsZero() {
		addedAt = s.clock.Now()
	}

	res, err := s.db.ExecContext(ctx, `
INSERT INTO tracked_battle_tags (tag_key, battle_tag, added_by, added_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(tag_key) DO NOTHING`,
		tracked.BattleTag.Key(),
		tracked.BattleTag.Display(),
		tracked.AddedBy,
		formatTime(addedAt),
	)
	if err != nil {
		s.logger.ErrorW("store: track battle tag failed", "battle_tag", tracked.BattleTag, "error", err)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAlreadyTracked
	}

	s.logger.DebugW("store: tracking battle tag", "battle_tag", tracked.BattleTag, "added_by", tracked.AddedBy)
	s.scheduleFlush()
	return nil
}

// UntrackBattleTag removes the tag and its hero snapshots.
func (s *SQLiteStore) UntrackBattleTag(ctx context.Context, tag models.BattleTag) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return ErrNotOpen
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM tracked_battle_tags WHERE tag_key = ?`, tag.Key())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotTracked
	}

	s.scheduleFlush()
	return nil
}

func (s *SQLiteStore) ListTrackedBattleTags(ctx context.Context) ([]TrackedBattleTag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrNotOpen
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT battle_tag, added_by, added_at, refreshed_at
FROM tracked_battle_tags
ORDER BY added_at, tag_key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TrackedBattleTag
	for rows.Next() {
		var (
			tag       string
			addedBy   string
			addedAt   string
			refreshed sql.NullString
		)
		if err = rows.Scan(&tag, &addedBy, &addedAt, &refreshed); err != nil {
			return nil, err
		}
		out = append(out, TrackedBattleTag{
			BattleTag:   models.BattleTag(tag),
			AddedBy:     addedBy,
			AddedAt:     parseTime(addedAt),
			RefreshedAt: parseTime(refreshed.String),
		})
	}
	return out, rows.Err()
}

// ReplaceHeroSnapshots swaps the stored heroes of tag for heroes and marks the tag refreshed.
func (s *SQLiteStore) ReplaceHeroSnapshots(ctx context.Context, tag models.BattleTag, heroes []HeroSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return ErrNotOpen
	}

	key := tag.Key()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.ErrorW("store: begin transaction failed", "error", err)
		return err
	}

	res, err := tx.ExecContext(ctx, `UPDATE tracked_battle_tags SET refreshed_at = ? WHERE tag_key = ?`,
		formatTime(s.clock.Now()), key)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_ = tx.Rollback()
		return ErrNotTracked
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM hero_snapshots WHERE tag_key = ?`, key); err != nil {
		_ = tx.Rollback()
		return err
	}

	for _, h := range heroes {
		_, err = tx.ExecContext(ctx, `
INSERT INTO hero_snapshots
    (tag_key, hero_id, name, class, level, paragon_level, hardcore, seasonal, dead, last_updated)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			key, h.HeroID, h.Name, h.Class, h.Level, h.ParagonLevel, h.Hardcore, h.Seasonal, h.Dead, h.LastUpdated,
		)
		if err != nil {
			_ = tx.Rollback()
			s.logger.ErrorW("store: insert hero snapshot failed",
				"battle_tag", tag,
				"hero_id", h.HeroID,
				"error", err,
			)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		s.logger.ErrorW("store: commit failed", "error", err)
		return err
	}

	s.logger.DebugW("store: hero snapshots replaced", "battle_tag", tag, "count", len(heroes))
	s.scheduleFlush()
	return nil
}

func (s *SQLiteStore) ListHeroSnapshots(ctx context.Context, tag models.BattleTag) ([]HeroSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrNotOpen
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT hero_id, name, class, level, paragon_level, hardcore, seasonal, dead, last_updated
FROM hero_snapshots
WHERE tag_key = ?
ORDER BY hero_id`, tag.Key())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HeroSnapshot
	for rows.Next() {
		var h HeroSnapshot
		if err = rows.Scan(
			&h.HeroID, &h.Name, &h.Class, &h.Level, &h.ParagonLevel,
			&h.Hardcore, &h.Seasonal, &h.Dead, &h.LastUpdated,
		); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// scheduleFlush must be called with s.mu held.
func (s *SQLiteStore) scheduleFlush() {
	if s.snapshotPath == "" {
		return
	}

	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.dirty = true
	if s.flushTimer != nil {
		s.flushTimer.Stop()
	}

	s.flushTimer = time.AfterFunc(s.flushDebounce, s.performScheduledFlush)
}

func (s *SQLiteStore) performScheduledFlush() {
	s.flushMu.Lock()
	if !s.dirty {
		s.flushMu.Unlock()
		return
	}
	s.flushMu.Unlock()

	s.mu.RLock()
	path := s.snapshotPath
	parent := s.ctx
	s.mu.RUnlock()
	if parent == nil {
		return
	}

	ctx, cancel := context.WithTimeout(parent, 30*time.Second)
	defer cancel()

	if err := s.FlushToDisk(ctx, path); err != nil {
		s.logger.ErrorW("store: scheduled flush failed", "path", path, "error", err)
		return
	}

	s.flushMu.Lock()
	s.dirty = false
	s.flushMu.Unlock()
}

func (s *SQLiteStore) stopFlushTimer() {
	if s.flushTimer != nil {
		s.flushTimer.Stop()
		s.flushTimer = nil
	}
}

func (s *SQLiteStore) flushLocked(ctx context.Context, path string) error {
	if s.db == nil {
		return ErrNotOpen
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	fileDB, err := sql.Open("sqlite3", sqliteFileDSN(path))
	if err != nil {
		return err
	}
	defer fileDB.Close()

	return s.backup(ctx, s.db, fileDB)
}

func (s *SQLiteStore) backup(ctx context.Context, src *sql.DB, dst *sql.DB) error {
	srcConn, err := src.Conn(ctx)
	if err != nil {
		return err
	}
	defer srcConn.Close()

	dstConn, err := dst.Conn(ctx)
	if err != nil {
		return err
	}
	defer dstConn.Close()

	return dstConn.Raw(func(dstDriver any) error {
		return srcConn.Raw(func(srcDriver any) error {
			dstSQLite, ok := dstDriver.(*sqlite3.SQLiteConn)
			if !ok {
				return fmt.Errorf("store: unexpected destination driver: %T", dstDriver)
			}
			srcSQLite, ok := srcDriver.(*sqlite3.SQLiteConn)
			if !ok {
				return fmt.Errorf("store: unexpected source driver: %T", srcDriver)
			}

			backup, err := dstSQLite.Backup("main", srcSQLite, "main")
			if err != nil {
				return err
			}
			defer backup.Finish()

			_, err = backup.Step(-1)
			return err
		})
	})
}

// applySchema runs the embedded schema files in name order. Statements are idempotent.
func (s *SQLiteStore) applySchema(ctx context.Context) error {
	if s.db == nil {
		return ErrNotOpen
	}

	entries, err := schemaFiles.ReadDir("schema")
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	slices.Sort(names)

	for _, name := range names {
		content, err := schemaFiles.ReadFile("schema/" + name)
		if err != nil {
			return err
		}
		sqlText := strings.TrimSpace(string(content))
		if sqlText == "" {
			continue
		}
		if _, err = s.db.ExecContext(ctx, sqlText); err != nil {
			return fmt.Errorf("store: schema %s: %w", name, err)
		}
	}
	return nil
}

func sqliteFileDSN(path string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
