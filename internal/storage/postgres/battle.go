package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/tactics/internal/game/battle"
	"github.com/cory-johannsen/tactics/internal/game/combat"
)

// ErrBattleExists is returned when a battle with the same ID is already archived.
var ErrBattleExists = errors.New("battle already archived")

// DefaultListLimit bounds ListRecent when the caller passes a non-positive limit.
const DefaultListLimit = 20

// BattleRepository stores finished battles. It implements battle.Archive.
type BattleRepository struct {
	db *pgxpool.Pool
}

// NewBattleRepository creates a BattleRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewBattleRepository(db *pgxpool.Pool) *BattleRepository {
	return &BattleRepository{db: db}
}

// Save inserts r with its event journal as JSONB.
//
// Precondition: r must not be nil.
// Postcondition: Returns ErrBattleExists if r.ID is already archived, and an
// error wrapping battle.ErrUnfinished if r has no final outcome.
func (r *BattleRepository) Save(ctx context.Context, rec *battle.Record) error {
	if rec == nil {
		return errors.New("saving battle: nil record")
	}
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("saving battle: %w", err)
	}
	journal := rec.Journal
	if journal == nil {
		journal = []combat.Event{}
	}
	enemies := rec.Enemies
	if enemies == nil {
		enemies = []string{}
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO battles
			(id, replay_key, party, enemies, outcome, rounds, started_at, ended_at, event_count, journal)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		rec.ID, rec.ReplayKey, rec.Party, enemies, rec.Outcome, rec.Rounds,
		rec.StartedAt, rec.EndedAt, len(journal), journal,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrBattleExists
		}
		return fmt.Errorf("inserting battle: %w", err)
	}
	return nil
}

// Get returns the archived battle with id, journal included.
//
// Postcondition: Returns battle.ErrRecordNotFound if no such battle exists.
func (r *BattleRepository) Get(ctx context.Context, id string) (*battle.Record, error) {
	var rec battle.Record
	err := r.db.QueryRow(ctx, `
		SELECT id, replay_key, party, enemies, outcome, rounds, started_at, ended_at, journal
		FROM battles WHERE id = $1`, id,
	).Scan(
		&rec.ID, &rec.ReplayKey, &rec.Party, &rec.Enemies, &rec.Outcome, &rec.Rounds,
		&rec.StartedAt, &rec.EndedAt, &rec.Journal,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, battle.ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying battle %s: %w", id, err)
	}
	return &rec, nil
}

// ListRecent returns up to limit summaries, most recently archived first.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *BattleRepository) ListRecent(ctx context.Context, limit int) ([]battle.Summary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, replay_key, party, outcome, rounds, event_count, started_at, ended_at
		FROM battles ORDER BY archived_at DESC, started_at DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing battles: %w", err)
	}
	defer rows.Close()

	var out []battle.Summary
	for rows.Next() {
		var s battle.Summary
		if err := rows.Scan(&s.ID, &s.ReplayKey, &s.Party, &s.Outcome, &s.Rounds, &s.Events, &s.StartedAt, &s.EndedAt); err != nil {
			return nil, fmt.Errorf("scanning battle: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
