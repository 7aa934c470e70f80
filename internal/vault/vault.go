// Package vault owns the persistent replica of all known conversation
// history. Exactly one goroutine owns the database connection; every read and
// write is submitted as a unit of work and executed strictly in submission
// order, never concurrently with another. That total ordering is what lets
// callers rely on write-then-read consistency without any synchronization of
// their own.
package vault

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/grove/pkg/debug"
)

// ErrStopped is returned when work is submitted after Close.
var ErrStopped = errors.New("vault: stopped")

// Vault is the store actor. Obtain one with Open or OpenInMemory, hand it
// around by pointer, and Close it exactly once on shutdown.
type Vault struct {
	db        *sql.DB
	jobs      chan func(*sql.DB)
	done      chan struct{}
	ephemeral bool

	mu     sync.Mutex
	closed bool
}

// Open opens or creates the vault database at path and brings the schema up
// to date. Connection setup and migration failures are fatal: running against
// a schema this build does not understand risks silent corruption.
func Open(path string) (*Vault, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create vault directory: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}
	debug.Log("opening vault at %s", path)

	// Locking mode is set before journal mode so sqlite never needs to
	// create shared-memory (*-shm) files; setting the journal mode then
	// immediately acquires the exclusive lock.
	pragmas := []string{
		"PRAGMA locking_mode = EXCLUSIVE",
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA trusted_schema = OFF",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("configure vault (%s): %w", pragma, err)
		}
	}

	return launch(db, false)
}

// OpenInMemory opens a transient vault with the same contract as Open but no
// durability guarantee.
func OpenInMemory() (*Vault, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open ephemeral vault: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure ephemeral vault: %w", err)
	}
	return launch(db, true)
}

func launch(db *sql.DB, ephemeral bool) (*Vault, error) {
	// The actor model depends on there being exactly one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := prepare(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare vault: %w", err)
	}

	v := &Vault{
		db:        db,
		jobs:      make(chan func(*sql.DB), 64),
		done:      make(chan struct{}),
		ephemeral: ephemeral,
	}
	go v.run()
	return v, nil
}

func (v *Vault) run() {
	defer close(v.done)
	for job := range v.jobs {
		job(v.db)
	}
	if err := v.db.Close(); err != nil {
		log.Printf("warning: closing vault database: %v", err)
	}
}

// Ephemeral reports whether this vault has no backing file.
func (v *Vault) Ephemeral() bool { return v.ephemeral }

// Close stops accepting new work, finishes all already-queued work, and
// releases the connection. No queued unit of work is dropped. Close is
// idempotent and blocks until the drain completes.
func (v *Vault) Close() {
	v.mu.Lock()
	if !v.closed {
		v.closed = true
		close(v.jobs)
	}
	v.mu.Unlock()
	<-v.done
}

// submit enqueues a unit of work. The intake lock is held across the channel
// send so Close can never close the channel mid-send.
func (v *Vault) submit(job func(*sql.DB)) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrStopped
	}
	v.jobs <- job
	return nil
}

type result[T any] struct {
	val T
	err error
}

// Execute submits fn as a unit of work and waits for its result. Work items
// run in submission order on the actor goroutine. If ctx is cancelled while
// waiting, the job is not cancelled — it still runs to completion and its
// result is discarded; the caller just stops waiting.
func Execute[T any](ctx context.Context, v *Vault, fn func(*sql.DB) (T, error)) (T, error) {
	var zero T
	res := make(chan result[T], 1)
	err := v.submit(func(db *sql.DB) {
		val, err := fn(db)
		res <- result[T]{val: val, err: err}
	})
	if err != nil {
		return zero, err
	}
	select {
	case r := <-res:
		return r.val, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Gc reclaims free space and refreshes the query planner statistics. It takes
// the same serialized execution slot as ordinary work, so it cannot race a
// concurrent write; expect it to block for a visible but bounded moment.
func (v *Vault) Gc(ctx context.Context) error {
	_, err := Execute(ctx, v, func(db *sql.DB) (struct{}, error) {
		if _, err := db.Exec("ANALYZE"); err != nil {
			return struct{}{}, fmt.Errorf("analyze: %w", err)
		}
		if _, err := db.Exec("VACUUM"); err != nil {
			return struct{}{}, fmt.Errorf("vacuum: %w", err)
		}
		return struct{}{}, nil
	})
	return err
}

// Rooms lists the names of all rooms known to the vault.
func (v *Vault) Rooms(ctx context.Context) ([]string, error) {
	return Execute(ctx, v, func(db *sql.DB) ([]string, error) {
		rows, err := db.Query(`SELECT name FROM rooms ORDER BY name`)
		if err != nil {
			return nil, fmt.Errorf("list rooms: %w", err)
		}
		defer rows.Close()

		var names []string
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return nil, err
			}
			names = append(names, name)
		}
		return names, rows.Err()
	})
}

// DeleteRoom removes a room and all of its messages.
func (v *Vault) DeleteRoom(ctx context.Context, name string) error {
	_, err := Execute(ctx, v, func(db *sql.DB) (struct{}, error) {
		if _, err := db.Exec(`DELETE FROM rooms WHERE name = ?`, name); err != nil {
			return struct{}{}, fmt.Errorf("delete room %s: %w", name, err)
		}
		return struct{}{}, nil
	})
	return err
}
