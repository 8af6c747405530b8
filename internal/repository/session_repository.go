package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/welshlidar/portal/api/internal/database"
	"github.com/welshlidar/portal/api/internal/models"
)

// SessionRepository resolves bearer tokens to authenticated users. Session
// issuance lives outside this service; we only read.
type SessionRepository interface {
	// UserByToken returns the user owning a live session token.
	// Returns nil, nil when the token is unknown or expired.
	UserByToken(ctx context.Context, token string) (*models.User, error)
}

type sessionRepository struct {
	db *database.Database
}

// NewSessionRepository creates a new instance of SessionRepository.
func NewSessionRepository(db *database.Database) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) UserByToken(ctx context.Context, token string) (*models.User, error) {
	query := `
		SELECT u.id, u.username
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = $1 AND s.expires_at > now()
	`

	var user models.User
	err := r.db.Pool.QueryRow(ctx, query, token).Scan(&user.ID, &user.Username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}

	return &user, nil
}
