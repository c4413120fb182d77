package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// BlockRepository manages directed block edges between users.
type BlockRepository interface {
	Block(ctx context.Context, blockerID, blockedID int) error
	Unblock(ctx context.Context, blockerID, blockedID int) error
	IsBlocked(ctx context.Context, blockerID, blockedID int) (bool, error)
	IsBlockedEither(ctx context.Context, a, b int) (bool, error)
}

// BlockRepo is a sqlx-backed repository.
type BlockRepo struct {
	db *sqlx.DB
}

// NewBlockRepo constructs BlockRepo.
func NewBlockRepo(db *sqlx.DB) *BlockRepo {
	return &BlockRepo{db: db}
}

// Block inserts the edge. Re-blocking an already blocked user is a no-op.
func (r *BlockRepo) Block(ctx context.Context, blockerID, blockedID int) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO blocks (blocker_id, blocked_id) VALUES ($1, $2)
        ON CONFLICT (blocker_id, blocked_id) DO NOTHING`, blockerID, blockedID)
	return err
}

// Unblock removes the edge; removal is the unblock action, there is no
// separate "unblocked" row.
func (r *BlockRepo) Unblock(ctx context.Context, blockerID, blockedID int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM blocks WHERE blocker_id=$1 AND blocked_id=$2`, blockerID, blockedID)
	return err
}

// IsBlocked checks the directed edge.
func (r *BlockRepo) IsBlocked(ctx context.Context, blockerID, blockedID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM blocks WHERE blocker_id=$1 AND blocked_id=$2)`, blockerID, blockedID)
	return exists, err
}

// IsBlockedEither reports whether either direction of the pair is blocked.
func (r *BlockRepo) IsBlockedEither(ctx context.Context, a, b int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(
        SELECT 1 FROM blocks WHERE (blocker_id=$1 AND blocked_id=$2) OR (blocker_id=$2 AND blocked_id=$1))`, a, b)
	return exists, err
}
