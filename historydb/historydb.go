// Package historydb persists each published Snapshot to PostgreSQL so
// past trajectories can be replayed or audited after the fact. It
// implements pfuclt.Observer.
package historydb

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/MrProteus/pfuclt-omni-dataset"
)

// Store is a pfuclt.Observer backed by a Postgres connection. It never
// blocks the filter: a failed insert is logged and dropped, matching
// the fire-and-forget publishing behavior of the original's result
// publisher.
type Store struct {
	db *sql.DB
}

// Open connects to a Postgres instance using drivername/dsn (drivername
// is normally "postgres") and verifies the connection.
func Open(drivername, dsn string) (*Store, error) {
	db, err := sql.Open(drivername, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "historydb: failed to open database")
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "historydb: failed to ping database")
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

// EnsureSchema creates the tables Store writes to if they do not
// already exist. Safe to call on every startup.
func (s *Store) EnsureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS pfuclt_robot_pose (
			id SERIAL PRIMARY KEY,
			recorded_at TIMESTAMPTZ NOT NULL,
			robot INT NOT NULL,
			x DOUBLE PRECISION NOT NULL,
			y DOUBLE PRECISION NOT NULL,
			theta DOUBLE PRECISION NOT NULL,
			confidence DOUBLE PRECISION NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS pfuclt_target (
			id SERIAL PRIMARY KEY,
			recorded_at TIMESTAMPTZ NOT NULL,
			x DOUBLE PRECISION NOT NULL,
			y DOUBLE PRECISION NOT NULL,
			z DOUBLE PRECISION NOT NULL,
			vx DOUBLE PRECISION NOT NULL,
			vy DOUBLE PRECISION NOT NULL,
			vz DOUBLE PRECISION NOT NULL,
			velocity_ready BOOLEAN NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.Wrap(err, "historydb: failed to create schema")
		}
	}
	return nil
}

// OnIterationComplete implements pfuclt.Observer by inserting one row
// per robot and one target row for the snapshot.
func (s *Store) OnIterationComplete(snap pfuclt.Snapshot) {
	now := time.Now()
	for r, belief := range snap.Robots {
		_, err := s.db.Exec(`
			INSERT INTO pfuclt_robot_pose (recorded_at, robot, x, y, theta, confidence)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			now, r, belief.Pose[0], belief.Pose[1], belief.Pose[2], belief.Conf)
		if err != nil {
			log.Warnf("historydb: failed to insert robot %d pose: %v", r, err)
		}
	}
	t := snap.Target
	_, err := s.db.Exec(`
		INSERT INTO pfuclt_target (recorded_at, x, y, z, vx, vy, vz, velocity_ready)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		now, t.Pos[0], t.Pos[1], t.Pos[2], t.Vel[0], t.Vel[1], t.Vel[2], t.VelReady)
	if err != nil {
		log.Warnf("historydb: failed to insert target state: %v", err)
	}
}
