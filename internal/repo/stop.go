package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/securecheck/internal/domain"
)

// StopRepo defines the persistence operations for stop records.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type StopRepo interface {
	// ListAll returns every record in table order.
	ListAll(ctx context.Context) ([]domain.StopRecord, error)

	// Create inserts a record. Booleans are stored as 0/1 and the stop time
	// as its HH:MM:SS text form.
	Create(ctx context.Context, rec domain.StopRecord) error

	// FindByKey returns every record matching vehicle number, stop date and
	// stop time. The key is not unique, so more than one row may come back.
	FindByKey(ctx context.Context, vehicle string, date time.Time, at domain.TimeOfDay) ([]domain.StopRecord, error)

	// ListRecent returns the limit most recent records ordered by stop_date
	// then stop_time, both descending.
	ListRecent(ctx context.Context, limit int) ([]domain.StopRecord, error)

	// DeleteByVehicleAndTime removes every record matching vehicle number and
	// stop time on any date, and returns the number of rows removed.
	DeleteByVehicleAndTime(ctx context.Context, vehicle string, at domain.TimeOfDay) (int64, error)

	// MostCommonOutcome returns the stop_outcome recorded most often for the
	// violation and drug flag. Ties go to the alphabetically first outcome.
	// Returns domain.ErrNotFound when no history matches.
	MostCommonOutcome(ctx context.Context, violation string, drugs bool) (string, error)
}

// pgStopRepo is the Postgres implementation of StopRepo.
type pgStopRepo struct {
	store *Store
}

// NewStopRepo constructs a StopRepo that runs its statements through store.
func NewStopRepo(store *Store) StopRepo {
	return &pgStopRepo{store: store}
}

const stopColumns = `
	vehicle_number, country, stop_date, stop_time,
	driver_gender, driver_age, driver_race, violation,
	search_conducted, search_type, stop_outcome,
	is_arrested, drugs_related_stop, stop_duration`

// ListAll returns every record in the table.
func (r *pgStopRepo) ListAll(ctx context.Context) ([]domain.StopRecord, error) {
	const q = `SELECT` + stopColumns + ` FROM police_stops`

	var out []domain.StopRecord
	err := r.store.Do(ctx, "repo.StopRepo.ListAll", func(c Conn) error {
		var err error
		out, err = queryStops(ctx, c, q, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a new record positionally.
func (r *pgStopRepo) Create(ctx context.Context, rec domain.StopRecord) error {
	const q = `
		INSERT INTO police_stops (
			vehicle_number, country, stop_date, stop_time,
			driver_gender, driver_age, driver_race, violation,
			search_conducted, search_type, stop_outcome,
			is_arrested, drugs_related_stop, stop_duration
		) VALUES (
			@vehicle_number, @country, @stop_date, @stop_time,
			@driver_gender, @driver_age, @driver_race, @violation,
			@search_conducted, @search_type, @stop_outcome,
			@is_arrested, @drugs_related_stop, @stop_duration
		)`

	args := pgx.NamedArgs{
		"vehicle_number":     rec.VehicleNumber,
		"country":            rec.Country,
		"stop_date":          rec.StopDate,
		"stop_time":          rec.StopTime.String(), // fixed HH:MM:SS text
		"driver_gender":      rec.DriverGender,
		"driver_age":         rec.DriverAge,
		"driver_race":        rec.DriverRace,
		"violation":          rec.Violation,
		"search_conducted":   flag(rec.SearchConducted),
		"search_type":        rec.SearchType,
		"stop_outcome":       rec.StopOutcome,
		"is_arrested":        flag(rec.IsArrested),
		"drugs_related_stop": flag(rec.DrugsRelatedStop),
		"stop_duration":      rec.StopDuration,
	}

	if _, err := r.store.Exec(ctx, "repo.StopRepo.Create", q, args); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInsert, err)
	}
	return nil
}

// FindByKey returns every record matching the (vehicle, date, time) key.
func (r *pgStopRepo) FindByKey(ctx context.Context, vehicle string, date time.Time, at domain.TimeOfDay) ([]domain.StopRecord, error) {
	const q = `SELECT` + stopColumns + `
		FROM police_stops
		WHERE vehicle_number = @vehicle_number
		  AND stop_date = @stop_date
		  AND stop_time = @stop_time`

	args := pgx.NamedArgs{
		"vehicle_number": vehicle,
		"stop_date":      date,
		"stop_time":      at.String(),
	}

	var out []domain.StopRecord
	err := r.store.Do(ctx, "repo.StopRepo.FindByKey", func(c Conn) error {
		var err error
		out, err = queryStops(ctx, c, q, args)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListRecent returns the most recent records first.
func (r *pgStopRepo) ListRecent(ctx context.Context, limit int) ([]domain.StopRecord, error) {
	const q = `SELECT` + stopColumns + `
		FROM police_stops
		ORDER BY stop_date DESC, stop_time DESC
		LIMIT @limit`

	var out []domain.StopRecord
	err := r.store.Do(ctx, "repo.StopRepo.ListRecent", func(c Conn) error {
		var err error
		out, err = queryStops(ctx, c, q, pgx.NamedArgs{"limit": limit})
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteByVehicleAndTime deletes all matches. A zero count is not an error.
func (r *pgStopRepo) DeleteByVehicleAndTime(ctx context.Context, vehicle string, at domain.TimeOfDay) (int64, error) {
	const q = `
		DELETE FROM police_stops
		WHERE vehicle_number = @vehicle_number
		  AND stop_time = @stop_time`

	args := pgx.NamedArgs{"vehicle_number": vehicle, "stop_time": at.String()}

	n, err := r.store.Exec(ctx, "repo.StopRepo.DeleteByVehicleAndTime", q, args)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrDelete, err)
	}
	return n, nil
}

// MostCommonOutcome is a grouped count with the largest group winning.
func (r *pgStopRepo) MostCommonOutcome(ctx context.Context, violation string, drugs bool) (string, error) {
	const q = `
		SELECT stop_outcome, COUNT(*) AS count
		FROM police_stops
		WHERE violation = @violation AND drugs_related_stop = @drugs_related_stop
		GROUP BY stop_outcome
		ORDER BY count DESC, stop_outcome
		LIMIT 1`

	args := pgx.NamedArgs{"violation": violation, "drugs_related_stop": flag(drugs)}

	var outcome string
	err := r.store.Do(ctx, "repo.StopRepo.MostCommonOutcome", func(c Conn) error {
		var count int64
		return c.QueryRow(ctx, q, args).Scan(&outcome, &count)
	})
	if err != nil {
		return "", err
	}
	return outcome, nil
}

// queryStops runs q and maps every row into a domain.StopRecord.
// It always returns a non-nil slice on success.
func queryStops(ctx context.Context, c Conn, q string, args pgx.NamedArgs) ([]domain.StopRecord, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if args == nil {
		rows, err = c.Query(ctx, q)
	} else {
		rows, err = c.Query(ctx, q, args)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.StopRecord{}
	for rows.Next() {
		rec, err := scanStop(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scanStop to be
// reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanStop maps a single database row into a domain.StopRecord.
// It handles the DATE/TIME conversions and the 0/1 boolean columns.
func scanStop(s scanner) (domain.StopRecord, error) {
	var (
		rec                       domain.StopRecord
		date                      pgtype.Date
		at                        pgtype.Time
		searched, arrested, drugs int16
	)

	err := s.Scan(
		&rec.VehicleNumber, &rec.Country, &date, &at,
		&rec.DriverGender, &rec.DriverAge, &rec.DriverRace, &rec.Violation,
		&searched, &rec.SearchType, &rec.StopOutcome,
		&arrested, &drugs, &rec.StopDuration,
	)
	if err != nil {
		return domain.StopRecord{}, err
	}

	rec.StopDate = date.Time
	rec.StopTime = domain.TimeOfDayFromDuration(time.Duration(at.Microseconds) * time.Microsecond)
	rec.SearchConducted = searched == 1
	rec.IsArrested = arrested == 1
	rec.DrugsRelatedStop = drugs == 1
	return rec, nil
}

// flag converts a boolean to the 0/1 form the boolean columns store.
func flag(b bool) int16 {
	if b {
		return 1
	}
	return 0
}
