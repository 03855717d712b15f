package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/unievent/server/internal/domain/events"
	"github.com/unievent/server/internal/domain/participation"
)

var _ participation.Repository = (*ParticipationRepository)(nil)

const participantColumns = `
	id, event_ulid, user_ulid, status, ticket_code, application_id, created_at, attended_at`

const applicationColumns = `
	id, event_ulid, user_ulid, status, message, decided_by, decided_at, created_at`

func (r *ParticipationRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

// WithTx runs fn inside one transaction; FOR UPDATE locks taken by fn
// hold until commit or rollback.
func (r *ParticipationRepository) WithTx(ctx context.Context, fn func(context.Context, participation.Repository) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	wrapped := &ParticipationRepository{pool: r.pool, tx: tx}
	if err := fn(ctx, wrapped); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetEventForUpdate locks the event row, serializing concurrent
// admissions for the same event.
func (r *ParticipationRepository) GetEventForUpdate(ctx context.Context, eventULID string) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx,
		`SELECT`+eventColumns+` FROM events WHERE ulid = $1 FOR UPDATE`, eventULID)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, participation.ErrNotFound
		}
		return nil, fmt.Errorf("lock event: %w", err)
	}
	return event, nil
}

func (r *ParticipationRepository) GetEvent(ctx context.Context, eventULID string) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx,
		`SELECT`+eventColumns+` FROM events WHERE ulid = $1`, eventULID)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, participation.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (r *ParticipationRepository) CountParticipants(ctx context.Context, eventULID string) (int, error) {
	var count int
	err := r.queryer().QueryRow(ctx,
		`SELECT count(*) FROM participants WHERE event_ulid = $1`, eventULID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count participants: %w", err)
	}
	return count, nil
}

func (r *ParticipationRepository) FindParticipant(ctx context.Context, eventULID, userULID string) (*participation.Participant, error) {
	row := r.queryer().QueryRow(ctx,
		`SELECT`+participantColumns+` FROM participants WHERE event_ulid = $1 AND user_ulid = $2`,
		eventULID, userULID)
	return scanParticipant(row, "find participant")
}

func (r *ParticipationRepository) InsertParticipant(ctx context.Context, p *participation.Participant) error {
	err := r.queryer().QueryRow(ctx, `
INSERT INTO participants (event_ulid, user_ulid, status, ticket_code, application_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`,
		p.EventULID, p.UserULID, string(p.Status), p.TicketCode, p.ApplicationID, p.CreatedAt,
	).Scan(&p.ID)
	if err != nil {
		if uniqueViolation(err, "participants_event_ulid_user_ulid_key") {
			return participation.ErrAlreadyRegistered
		}
		if uniqueViolation(err, "participants_ticket_code_key") {
			return participation.ErrTicketUsed
		}
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

func (r *ParticipationRepository) DeleteParticipant(ctx context.Context, eventULID, userULID string) error {
	tag, err := r.queryer().Exec(ctx,
		`DELETE FROM participants WHERE event_ulid = $1 AND user_ulid = $2`, eventULID, userULID)
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return participation.ErrNotFound
	}
	return nil
}

func (r *ParticipationRepository) GetParticipantByTicketForUpdate(ctx context.Context, eventULID, ticketCode string) (*participation.Participant, error) {
	row := r.queryer().QueryRow(ctx,
		`SELECT`+participantColumns+` FROM participants WHERE event_ulid = $1 AND ticket_code = $2 FOR UPDATE`,
		eventULID, ticketCode)
	return scanParticipant(row, "lock participant by ticket")
}

func (r *ParticipationRepository) GetParticipantByIDForUpdate(ctx context.Context, eventULID string, participantID int64) (*participation.Participant, error) {
	row := r.queryer().QueryRow(ctx,
		`SELECT`+participantColumns+` FROM participants WHERE event_ulid = $1 AND id = $2 FOR UPDATE`,
		eventULID, participantID)
	return scanParticipant(row, "lock participant by id")
}

func (r *ParticipationRepository) MarkAttended(ctx context.Context, participantID int64) error {
	tag, err := r.queryer().Exec(ctx, `
UPDATE participants
   SET status = 'ATTENDED',
       attended_at = now()
 WHERE id = $1`,
		participantID)
	if err != nil {
		return fmt.Errorf("mark attended: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return participation.ErrNotFound
	}
	return nil
}

func (r *ParticipationRepository) FindApplication(ctx context.Context, eventULID, userULID string) (*participation.Application, error) {
	row := r.queryer().QueryRow(ctx,
		`SELECT`+applicationColumns+` FROM applications WHERE event_ulid = $1 AND user_ulid = $2`,
		eventULID, userULID)
	return scanApplication(row, "find application")
}

func (r *ParticipationRepository) InsertApplication(ctx context.Context, a *participation.Application) error {
	err := r.queryer().QueryRow(ctx, `
INSERT INTO applications (event_ulid, user_ulid, status, message, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`,
		a.EventULID, a.UserULID, string(a.Status), a.Message, a.CreatedAt,
	).Scan(&a.ID)
	if err != nil {
		if uniqueViolation(err, "applications_event_ulid_user_ulid_key") {
			return participation.ErrAlreadyApplied
		}
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (r *ParticipationRepository) GetApplicationForUpdate(ctx context.Context, applicationID int64) (*participation.Application, error) {
	row := r.queryer().QueryRow(ctx,
		`SELECT`+applicationColumns+` FROM applications WHERE id = $1 FOR UPDATE`, applicationID)
	return scanApplication(row, "lock application")
}

func (r *ParticipationRepository) UpdateApplicationStatus(ctx context.Context, a *participation.Application) error {
	tag, err := r.queryer().Exec(ctx, `
UPDATE applications
   SET status = $2,
       decided_by = $3,
       decided_at = $4
 WHERE id = $1`,
		a.ID, string(a.Status), a.DecidedBy, timestamptz(a.DecidedAt))
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return participation.ErrNotFound
	}
	return nil
}

func (r *ParticipationRepository) DeleteApplication(ctx context.Context, eventULID, userULID string) error {
	tag, err := r.queryer().Exec(ctx,
		`DELETE FROM applications WHERE event_ulid = $1 AND user_ulid = $2`, eventULID, userULID)
	if err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return participation.ErrNotFound
	}
	return nil
}

func (r *ParticipationRepository) ListParticipants(ctx context.Context, eventULID string) ([]*participation.Participant, error) {
	rows, err := r.queryer().Query(ctx,
		`SELECT`+participantColumns+` FROM participants WHERE event_ulid = $1 ORDER BY created_at, id`,
		eventULID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var out []*participation.Participant
	for rows.Next() {
		p, err := scanParticipant(rows, "scan participant")
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ParticipationRepository) ListApplications(ctx context.Context, eventULID string) ([]*participation.Application, error) {
	rows, err := r.queryer().Query(ctx,
		`SELECT`+applicationColumns+` FROM applications WHERE event_ulid = $1 ORDER BY created_at, id`,
		eventULID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var out []*participation.Application
	for rows.Next() {
		a, err := scanApplication(rows, "scan application")
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanParticipant(row pgx.Row, op string) (*participation.Participant, error) {
	var (
		p          participation.Participant
		status     string
		attendedAt pgtype.Timestamptz
	)
	err := row.Scan(&p.ID, &p.EventULID, &p.UserULID, &status, &p.TicketCode, &p.ApplicationID, &p.CreatedAt, &attendedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, participation.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p.Status = participation.ParticipantStatus(status)
	p.AttendedAt = timeOrNil(attendedAt)
	return &p, nil
}

func scanApplication(row pgx.Row, op string) (*participation.Application, error) {
	var (
		a         participation.Application
		status    string
		decidedAt pgtype.Timestamptz
	)
	err := row.Scan(&a.ID, &a.EventULID, &a.UserULID, &status, &a.Message, &a.DecidedBy, &decidedAt, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, participation.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.Status = participation.ApplicationStatus(status)
	a.DecidedAt = timeOrNil(decidedAt)
	return &a, nil
}
