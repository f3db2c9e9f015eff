package trace

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/amlvm/engine/vm"
)

// Log is a durable execution-trace sink backed by a pure-Go SQLite
// database (modernc.org/sqlite, no cgo — the pack's storage layer
// choice for a library meant to be embedded in a kernel).
type Log struct {
	db *sql.DB
}

// Open opens (creating if necessary) a trace database at path.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("trace: open %s: %w", path, err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS activations (
	id          TEXT PRIMARY KEY,
	method_path TEXT NOT NULL,
	duration_ns INTEGER NOT NULL,
	outcome     TEXT NOT NULL,
	snapshot    BLOB
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("trace: create schema: %w", err)
	}
	return &Log{db: db}, nil
}

// Close releases the underlying database handle.
func (l *Log) Close() error { return l.db.Close() }

// Outcome tags how an activation ended.
type Outcome string

const (
	OutcomeOK        Outcome = "ok"
	OutcomeFatal     Outcome = "fatal"
	OutcomeAbandoned Outcome = "abandoned"
)

// Record appends one activation's trace to the log. snapshot is nil
// unless outcome is OutcomeAbandoned.
func (l *Log) Record(methodPath string, durationNS int64, outcome Outcome, snapshot *Snapshot) (id string, err error) {
	id = uuid.New().String()
	var blob []byte
	if snapshot != nil {
		blob, err = MarshalSnapshot(snapshot)
		if err != nil {
			return "", err
		}
	}
	_, err = l.db.Exec(
		`INSERT INTO activations (id, method_path, duration_ns, outcome, snapshot) VALUES (?, ?, ?, ?, ?)`,
		id, methodPath, durationNS, string(outcome), blob,
	)
	if err != nil {
		return "", fmt.Errorf("trace: record: %w", err)
	}
	return id, nil
}

// NewSnapshot builds a Snapshot of a's current args/locals, tagged
// with a fresh activation id.
func NewSnapshot(method *vm.Method, ip int, a *vm.Activation) *Snapshot {
	s := &Snapshot{
		ActivationID: uuid.New().String(),
		MethodPath:   method.Path,
		IP:           ip,
	}
	for _, arg := range a.Arg {
		s.Args = append(s.Args, ViewOf(arg))
	}
	for _, local := range a.Local {
		s.Locals = append(s.Locals, ViewOf(local))
	}
	return s
}
