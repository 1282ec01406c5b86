// Package journal keeps a write-only sqlite history of committed batches and
// collected surveys. It is never read back into the live state.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"surveyor/internal/events"
	"surveyor/internal/log"
	"surveyor/internal/survey"
)

// Memory opens a journal that lives only as long as the process.
const Memory = ":memory:"

// ErrNotFound is returned by OpenReadOnly when there is no journal to read.
var ErrNotFound = errors.New("journal not found")

type Journal struct {
	db      *sql.DB
	session string
	psql    squirrel.StatementBuilderType

	ch     chan request
	wg     sync.WaitGroup
	closed sync.Once
}

type request struct {
	batch      *events.BatchCommit
	collection *events.Collection
	done       chan struct{}
}

// ResourceSummary is the journal's tally for one resource. Committed counts
// surveys in committed batches, after deduplication, not every sighting line.
type ResourceSummary struct {
	Resource  string
	Committed int
	Collected int
}

// Open opens or creates the journal at path and starts a new session.
func Open(path string) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("empty journal path")
	}
	if path != Memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	j := &Journal{
		db:      db,
		session: uuid.NewString(),
		psql:    squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		ch:      make(chan request, 1024),
	}

	if err := j.init(); err != nil {
		db.Close()
		return nil, err
	}

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		j.loop()
	}()

	log.Info("journal opened", "path", path, "session", j.session)
	return j, nil
}

// OpenReadOnly opens an existing journal for Summary and SessionCount. It
// records no session, runs no migrations and never creates the file.
func OpenReadOnly(path string) (*Journal, error) {
	if path == "" || path == Memory {
		return nil, fmt.Errorf("%q: %w", path, ErrNotFound)
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	db.SetMaxOpenConns(1)

	j := &Journal{
		db:   db,
		psql: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if _, err := db.Exec("PRAGMA query_only=ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal pragma: %w", err)
	}

	var tables int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'schema_version';`).Scan(&tables)
	if err == nil && tables == 0 {
		err = fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) init() error {
	for _, p := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := j.db.Exec(p); err != nil {
			return fmt.Errorf("journal pragma: %w", err)
		}
	}
	if err := j.runMigrations(); err != nil {
		return err
	}

	query, args, err := j.psql.Insert("sessions").Columns("id").Values(j.session).ToSql()
	if err != nil {
		return err
	}
	if _, err := j.db.Exec(query, args...); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	return nil
}

// Session is the id of this run's session, empty for a read-only journal.
func (j *Journal) Session() string {
	return j.session
}

// Attach records BatchCommitted and SurveyCollected events from bus. Writes
// happen on the journal's own goroutine. The returned func detaches.
func (j *Journal) Attach(bus *events.Bus) func() {
	batchSub := bus.Subscribe(events.BatchCommitted, func(ev events.Event) {
		if b, ok := ev.Data.(events.BatchCommit); ok {
			j.enqueue(request{batch: &b})
		}
	})
	collSub := bus.Subscribe(events.SurveyCollected, func(ev events.Event) {
		if c, ok := ev.Data.(events.Collection); ok {
			j.enqueue(request{collection: &c})
		}
	})

	return func() {
		bus.Unsubscribe(events.BatchCommitted, batchSub)
		bus.Unsubscribe(events.SurveyCollected, collSub)
	}
}

func (j *Journal) enqueue(r request) {
	if j.ch == nil {
		return
	}
	select {
	case j.ch <- r:
	default:
		log.Warn("journal queue full, dropping entry", "session", j.session)
	}
}

// Sync blocks until every queued entry has been written.
func (j *Journal) Sync() {
	if j.ch == nil {
		return
	}
	done := make(chan struct{})
	j.ch <- request{done: done}
	<-done
}

func (j *Journal) loop() {
	for r := range j.ch {
		switch {
		case r.batch != nil:
			if err := j.RecordBatch(r.batch.Zone, r.batch.Surveys); err != nil {
				log.Error("journal batch write failed", "error", err)
			}
		case r.collection != nil:
			if err := j.RecordCollection(*r.collection); err != nil {
				log.Error("journal collection write failed", "error", err)
			}
		}
		if r.done != nil {
			close(r.done)
		}
	}
}

// RecordBatch stores one committed batch.
func (j *Journal) RecordBatch(zone string, surveys []survey.Survey) error {
	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query, args, err := j.psql.Insert("batches").
		Columns("session_id", "zone").
		Values(j.session, zone).
		ToSql()
	if err != nil {
		return err
	}
	res, err := tx.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	batchID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	if len(surveys) > 0 {
		ins := j.psql.Insert("batch_surveys").Columns("batch_id", "idx", "resource", "dx", "dy")
		for i, s := range surveys {
			ins = ins.Values(batchID, i, s.Resource, s.DX, s.DY)
		}
		query, args, err = ins.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("insert batch surveys: %w", err)
		}
	}
	return tx.Commit()
}

// RecordCollection stores one collected survey.
func (j *Journal) RecordCollection(c events.Collection) error {
	query, args, err := j.psql.Insert("collections").
		Columns("session_id", "zone", "idx", "resource", "dx", "dy").
		Values(j.session, c.Zone, c.Index, c.Survey.Resource, c.Survey.DX, c.Survey.DY).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := j.db.Exec(query, args...); err != nil {
		return fmt.Errorf("insert collection: %w", err)
	}
	return nil
}

// Summary tallies committed and collected surveys per resource across all
// sessions, sorted by resource.
func (j *Journal) Summary() ([]ResourceSummary, error) {
	committed := j.psql.Select("resource", "COUNT(*) AS committed", "0 AS collected").
		From("batch_surveys").
		GroupBy("resource")
	collected := j.psql.Select("resource", "0 AS committed", "COUNT(*) AS collected").
		From("collections").
		GroupBy("resource")

	committedSQL, _, err := committed.ToSql()
	if err != nil {
		return nil, err
	}
	collectedSQL, _, err := collected.ToSql()
	if err != nil {
		return nil, err
	}

	query, args, err := j.psql.
		Select("resource", "SUM(committed)", "SUM(collected)").
		From("(" + committedSQL + " UNION ALL " + collectedSQL + ") AS t").
		GroupBy("resource").
		OrderBy("resource").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("journal summary: %w", err)
	}
	defer rows.Close()

	var out []ResourceSummary
	for rows.Next() {
		var r ResourceSummary
		if err := rows.Scan(&r.Resource, &r.Committed, &r.Collected); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SessionCount is the number of sessions recorded in the journal.
func (j *Journal) SessionCount() (int, error) {
	query, args, err := j.psql.Select("COUNT(*)").From("sessions").ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	err = j.db.QueryRow(query, args...).Scan(&n)
	return n, err
}

// Close flushes pending writes and closes the database. Detach from the bus
// first.
func (j *Journal) Close() error {
	var err error
	j.closed.Do(func() {
		if j.ch != nil {
			close(j.ch)
			j.wg.Wait()
		}
		err = j.db.Close()
	})
	return err
}
