package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"tradepost.gg/internal/sim/catalogs"
	"tradepost.gg/internal/sim/tuning"
	"tradepost.gg/internal/sim/world"
)

// SQLiteIndex is a queryable secondary index over the audit stream. Writes
// go through a buffered channel and a single writer goroutine; when the
// indexer falls behind, entries are dropped and the JSONL audit log stays
// the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan world.AuditEntry
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan world.AuditEntry, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads; NORMAL is a decent
	// durability tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS transactions (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			tx_id TEXT NOT NULL,
			actor TEXT NOT NULL,
			store TEXT NOT NULL,
			kind TEXT NOT NULL,
			listing_id TEXT NOT NULL,
			product TEXT NOT NULL,
			currency TEXT NOT NULL,
			unit_price INTEGER NOT NULL,
			count INTEGER NOT NULL,
			total INTEGER NOT NULL,
			remaining INTEGER NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_actor_tick ON transactions(actor, tick);`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_store_tick ON transactions(store, tick);`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_tx_id ON transactions(tx_id);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			actor TEXT NOT NULL,
			store TEXT NOT NULL,
			kind TEXT NOT NULL,
			reason TEXT,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_store_tick ON sessions(store, tick);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) WriteAudit(entry world.AuditEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- entry:
	default:
		// Drop rather than stall the world loop.
	}
	return nil
}

// UpsertCatalogs snapshots the loaded config (digests plus raw JSON) so an
// audit row can always be matched to the catalog revision it ran against.
func (s *SQLiteIndex) UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	raw := map[string][]byte{}
	read := func(name, path string) {
		b, err := os.ReadFile(path)
		if err != nil {
			return
		}
		raw[name] = b
	}
	if configDir != "" {
		read("entities", filepath.Join(configDir, "entities.json"))
		read("stacks", filepath.Join(configDir, "stacks.json"))
		read("access", filepath.Join(configDir, "access.json"))
	}

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if b := raw["entities"]; len(b) > 0 {
		rows = append(rows, kv{name: "entities", digest: cats.Entities.Digest, json: b})
	}
	if b := raw["stacks"]; len(b) > 0 {
		rows = append(rows, kv{name: "stacks", digest: cats.Stacks.Digest, json: b})
	}
	if b := raw["access"]; len(b) > 0 {
		rows = append(rows, kv{name: "access", digest: cats.Access.Digest, json: b})
	}
	{
		// Presets come from yaml; store the canonical JSON form.
		if b, _ := json.Marshal(cats.Presets.ByID); len(b) > 0 {
			rows = append(rows, kv{name: "presets", digest: cats.Presets.Digest, json: b})
		}
	}
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.name == "" || r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func isTradeKind(kind string) bool {
	return kind == "BUY" || kind == "SELL"
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertTx, _ := s.db.Prepare(`INSERT OR REPLACE INTO transactions(tick,seq,tx_id,actor,store,kind,listing_id,product,currency,unit_price,count,total,remaining,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	insertSession, _ := s.db.Prepare(`INSERT OR REPLACE INTO sessions(tick,seq,actor,store,kind,reason,raw_json) VALUES(?,?,?,?,?,?,?)`)
	defer func() {
		if insertTx != nil {
			_ = insertTx.Close()
		}
		if insertSession != nil {
			_ = insertSession.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second

		lastTick uint64
		seq      int
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for a := range s.ch {
		begin()
		if tx == nil {
			continue
		}

		if a.Tick != lastTick {
			lastTick = a.Tick
			seq = 0
		}
		n := seq
		seq++

		raw, _ := json.Marshal(a)

		if isTradeKind(a.Kind) {
			if insertTx == nil {
				continue
			}
			if _, err := tx.Stmt(insertTx).Exec(
				int64(a.Tick), n, a.TxID, a.Actor, a.Store, a.Kind,
				a.ListingID, a.Product, a.Currency,
				a.UnitPrice, a.Count, a.Total, a.Remaining,
				string(raw),
			); err != nil {
				rollback()
				continue
			}
		} else {
			if insertSession == nil {
				continue
			}
			if _, err := tx.Stmt(insertSession).Exec(
				int64(a.Tick), n, a.Actor, a.Store, a.Kind, a.Reason, string(raw),
			); err != nil {
				rollback()
				continue
			}
		}
		opCount++

		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}
	commit()
}
