package repository

import (
	"context"
	"fmt"

	"github.com/welshlidar/portal/api/internal/database"
	"github.com/welshlidar/portal/api/internal/models"
)

// recordColumns is the column list shared by every record query, joined to
// users for the submitter's username.
const recordColumns = `
	r.id,
	r.title,
	r.prn,
	r.description,
	r.site_type,
	r.monument_type,
	r.period,
	r.date_recorded,
	r.polygon_coordinate,
	r.picture1,
	r.picture2,
	r.picture3,
	r.picture4,
	r.picture5,
	r.recorded_by,
	u.username,
	r.created_at,
	r.updated_at
`

// RecordRepository defines the data access operations for record submissions.
type RecordRepository interface {
	// CountAll returns the total number of stored records. Used by the
	// capacity guard before any insert happens.
	CountAll(ctx context.Context) (int, error)

	// Insert persists a new record inside its own transaction and fills in
	// the generated ID and timestamps. The transaction is committed before
	// Insert returns, so anything scheduled after a successful Insert runs
	// strictly post-commit.
	Insert(ctx context.Context, record *models.Record) error

	// GetByID returns a single record by ID, or nil if no record exists.
	GetByID(ctx context.Context, id int64) (*models.Record, error)

	// List returns every record, newest first by ID.
	List(ctx context.Context) ([]models.Record, error)

	// ListByUser returns the records submitted by the given user, newest
	// first by ID.
	ListByUser(ctx context.Context, userID int64) ([]models.Record, error)
}

type recordRepository struct {
	db *database.Database
}

// NewRecordRepository creates a new instance of RecordRepository.
func NewRecordRepository(db *database.Database) RecordRepository {
	return &recordRepository{db: db}
}

func (r *recordRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM records`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

func (r *recordRepository) Insert(ctx context.Context, record *models.Record) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO records (
			title, prn, description, site_type, monument_type, period,
			date_recorded, polygon_coordinate,
			picture1, picture2, picture3, picture4, picture5,
			recorded_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at
	`

	err = tx.QueryRow(ctx, query,
		record.Title,
		record.PRN,
		record.Description,
		record.SiteType,
		record.MonumentType,
		record.Period,
		record.DateRecorded,
		record.PolygonCoordinate,
		record.Picture1,
		record.Picture2,
		record.Picture3,
		record.Picture4,
		record.Picture5,
		record.RecordedBy,
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit record insert: %w", err)
	}

	return nil
}

func (r *recordRepository) GetByID(ctx context.Context, id int64) (*models.Record, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM records r
		JOIN users u ON u.id = r.recorded_by
		WHERE r.id = $1
	`, recordColumns)

	rows, err := r.db.Pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query record %d: %w", id, err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		// Not found is not an error
		return nil, nil
	}
	return &records[0], nil
}

func (r *recordRepository) List(ctx context.Context) ([]models.Record, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM records r
		JOIN users u ON u.id = r.recorded_by
		ORDER BY r.id DESC
	`, recordColumns)

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (r *recordRepository) ListByUser(ctx context.Context, userID int64) ([]models.Record, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM records r
		JOIN users u ON u.id = r.recorded_by
		WHERE r.recorded_by = $1
		ORDER BY r.id DESC
	`, recordColumns)

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records for user %d: %w", userID, err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// rowScanner matches both pgx.Rows and pgx.Row for the shared scan helper.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanRecords(rows rowScanner) ([]models.Record, error) {
	var records []models.Record

	for rows.Next() {
		var rec models.Record
		err := rows.Scan(
			&rec.ID,
			&rec.Title,
			&rec.PRN,
			&rec.Description,
			&rec.SiteType,
			&rec.MonumentType,
			&rec.Period,
			&rec.DateRecorded,
			&rec.PolygonCoordinate,
			&rec.Picture1,
			&rec.Picture2,
			&rec.Picture3,
			&rec.Picture4,
			&rec.Picture5,
			&rec.RecordedBy,
			&rec.RecordedByName,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record row: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating record rows: %w", err)
	}

	if records == nil {
		records = []models.Record{}
	}
	return records, nil
}
