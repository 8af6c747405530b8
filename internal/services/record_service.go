package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/welshlidar/portal/api/internal/geometry"
	"github.com/welshlidar/portal/api/internal/logger"
	"github.com/welshlidar/portal/api/internal/models"
	"github.com/welshlidar/portal/api/internal/repository"
)

// CapacityMessage is the user-facing message returned when the record store
// is at capacity. The wording is part of the portal's public contract.
const CapacityMessage = "Opps, we are really sorry about this, but it looks like the database is currently full. We can not save your record right now. Please bear with us."

// Service-level errors
var (
	ErrCapacityFull   = errors.New(CapacityMessage)
	ErrRecordNotFound = errors.New("record not found")
)

// dateInputFormat is the layout accepted for the date_recorded field.
const dateInputFormat = "2006-01-02"

// Notifier announces a freshly committed record to the HER. Implementations
// must swallow their own failures; the create path never observes them.
type Notifier interface {
	NotifyRecordCreated(ctx context.Context, record *models.Record)
}

// RecordService defines the business operations over record submissions.
type RecordService interface {
	// Create validates and persists a new submission for the given principal.
	// The raw field map is normalized first (spec'd blank-string scrubbing and
	// JSON re-parse of the polygon), then the polygon shape contract and the
	// enum vocabularies are enforced, then the capacity guard runs, and only
	// then does the insert happen. Exactly one notification attempt is
	// scheduled after the insert transaction commits.
	// Validation failures are *geometry.FieldError values; a full store is
	// ErrCapacityFull.
	Create(ctx context.Context, user *models.User, fields map[string]any) (*models.Record, error)

	// Get returns a single record by ID. A missing record is ErrRecordNotFound.
	Get(ctx context.Context, id int64) (*models.Record, error)

	// List returns every record, newest first.
	List(ctx context.Context) ([]models.Record, error)

	// ListOwned returns the records submitted by the given user, newest first.
	ListOwned(ctx context.Context, userID int64) ([]models.Record, error)
}

type recordService struct {
	repo          repository.RecordRepository
	notifier      Notifier
	log           *logger.Logger
	capacityLimit int
}

// NewRecordService creates a new instance of RecordService.
func NewRecordService(repo repository.RecordRepository, notifier Notifier, capacityLimit int, log *logger.Logger) RecordService {
	return &recordService{
		repo:          repo,
		notifier:      notifier,
		log:           log,
		capacityLimit: capacityLimit,
	}
}

func (s *recordService) Create(ctx context.Context, user *models.User, fields map[string]any) (*models.Record, error) {
	norm, err := geometry.NormalizeFields(fields)
	if err != nil {
		return nil, err
	}

	polygon, err := geometry.ValidatePolygon(norm[geometry.PolygonField])
	if err != nil {
		return nil, err
	}

	record, err := buildRecord(norm, polygon)
	if err != nil {
		return nil, err
	}
	record.RecordedBy = user.ID
	record.RecordedByName = user.Username

	// Capacity guard runs before anything is persisted.
	count, err := s.repo.CountAll(ctx)
	if err != nil {
		s.log.Error("Failed to count records for capacity check", err, nil)
		return nil, fmt.Errorf("failed to check record capacity: %w", err)
	}
	if count >= s.capacityLimit {
		s.log.Warn("Record store at capacity, rejecting submission", map[string]interface{}{
			"count": count,
			"limit": s.capacityLimit,
			"user":  user.Username,
		})
		return nil, ErrCapacityFull
	}

	if err := s.repo.Insert(ctx, record); err != nil {
		s.log.Error("Failed to insert record", err, map[string]interface{}{
			"title": record.Title,
			"user":  user.Username,
		})
		return nil, fmt.Errorf("failed to save record: %w", err)
	}

	s.log.Info("Record created", map[string]interface{}{
		"record_id": record.ID,
		"title":     record.Title,
		"user":      user.Username,
	})

	// Insert has committed; the notification is fire-and-forget from here.
	s.dispatchNotification(record)

	return record, nil
}

func (s *recordService) Get(ctx context.Context, id int64) (*models.Record, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to get record", err, map[string]interface{}{
			"record_id": id,
		})
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	if record == nil {
		return nil, ErrRecordNotFound
	}
	return record, nil
}

func (s *recordService) List(ctx context.Context) ([]models.Record, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		s.log.Error("Failed to list records", err, nil)
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return records, nil
}

func (s *recordService) ListOwned(ctx context.Context, userID int64) ([]models.Record, error) {
	records, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.log.Error("Failed to list records for user", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return records, nil
}

// dispatchNotification hands the committed record to the notifier without
// letting anything the notifier does reach the create response.
func (s *recordService) dispatchNotification(record *models.Record) {
	if s.notifier == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("Notification panicked", fmt.Errorf("panic: %v", r), map[string]interface{}{
					"record_id": record.ID,
				})
			}
		}()
		s.notifier.NotifyRecordCreated(context.Background(), record)
	}()
}

// buildRecord maps normalized submission fields onto a Record, enforcing the
// enum vocabularies and date format.
func buildRecord(fields map[string]any, polygon []any) (*models.Record, error) {
	rec := &models.Record{}

	title, err := requiredString(fields, "title")
	if err != nil {
		return nil, err
	}
	rec.Title = title

	description, err := requiredString(fields, "description")
	if err != nil {
		return nil, err
	}
	rec.Description = description

	rec.SiteType, err = requiredChoice(fields, "site_type", models.SiteTypes)
	if err != nil {
		return nil, err
	}
	rec.MonumentType, err = requiredChoice(fields, "monument_type", models.MonumentTypes)
	if err != nil {
		return nil, err
	}
	rec.Period, err = requiredChoice(fields, "period", models.Periods)
	if err != nil {
		return nil, err
	}

	rec.PRN, err = optionalInt(fields, "PRN")
	if err != nil {
		return nil, err
	}

	rec.DateRecorded, err = dateRecorded(fields)
	if err != nil {
		return nil, err
	}

	rec.Picture1 = optionalString(fields, "picture1")
	rec.Picture2 = optionalString(fields, "picture2")
	rec.Picture3 = optionalString(fields, "picture3")
	rec.Picture4 = optionalString(fields, "picture4")
	rec.Picture5 = optionalString(fields, "picture5")

	raw, err := json.Marshal(polygon)
	if err != nil {
		return nil, fmt.Errorf("failed to encode polygon for storage: %w", err)
	}
	rec.PolygonCoordinate = raw

	return rec, nil
}

func requiredString(fields map[string]any, name string) (string, error) {
	value, ok := fields[name]
	if !ok || value == nil {
		return "", &geometry.FieldError{Field: name, Message: "This field is required."}
	}
	s, ok := value.(string)
	if !ok {
		return "", &geometry.FieldError{Field: name, Message: "This field must be a string."}
	}
	return s, nil
}

func requiredChoice(fields map[string]any, name string, vocab models.Vocabulary) (string, error) {
	code, err := requiredString(fields, name)
	if err != nil {
		return "", err
	}
	if !vocab.Valid(code) {
		return "", &geometry.FieldError{
			Field:   name,
			Message: fmt.Sprintf("%q is not a valid choice.", code),
		}
	}
	return code, nil
}

func optionalString(fields map[string]any, name string) *string {
	value, ok := fields[name]
	if !ok || value == nil {
		return nil
	}
	if s, ok := value.(string); ok && s != "" {
		return &s
	}
	return nil
}

func optionalInt(fields map[string]any, name string) (*int, error) {
	value, ok := fields[name]
	if !ok || value == nil {
		return nil, nil
	}

	var n int
	switch v := value.(type) {
	case int:
		n = v
	case int64:
		n = int(v)
	case float64:
		n = int(v)
	case json.Number:
		parsed, err := v.Int64()
		if err != nil {
			return nil, &geometry.FieldError{Field: name, Message: "A valid integer is required."}
		}
		n = int(parsed)
	case string:
		var parsed int
		if _, err := fmt.Sscanf(v, "%d", &parsed); err != nil {
			return nil, &geometry.FieldError{Field: name, Message: "A valid integer is required."}
		}
		n = parsed
	default:
		return nil, &geometry.FieldError{Field: name, Message: "A valid integer is required."}
	}
	return &n, nil
}

// dateRecorded parses the submitted date or defaults to today, matching the
// portal's behavior for untouched date fields.
func dateRecorded(fields map[string]any) (time.Time, error) {
	value, ok := fields["date_recorded"]
	if !ok || value == nil {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	s, ok := value.(string)
	if !ok {
		return time.Time{}, &geometry.FieldError{Field: "date_recorded", Message: "Date has wrong format. Use YYYY-MM-DD."}
	}
	t, err := time.Parse(dateInputFormat, s)
	if err != nil {
		return time.Time{}, &geometry.FieldError{Field: "date_recorded", Message: "Date has wrong format. Use YYYY-MM-DD."}
	}
	return t, nil
}
