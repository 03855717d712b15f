package participation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/unievent/server/internal/domain/events"
	"github.com/unievent/server/internal/domain/ids"
)

// Service serializes every seat-granting and seat-consuming operation
// through a row lock on the event (for admission) or the participant
// (for check-in), so capacity and at-most-once check-in hold under
// concurrency.
type Service struct {
	repo   Repository
	users  UserDirectory
	logger zerolog.Logger
}

func NewService(repo Repository, users UserDirectory, logger zerolog.Logger) *Service {
	return &Service{repo: repo, users: users, logger: logger}
}

// Admit registers a user directly for an event. The event row is
// locked for the duration of the capacity check and insert, so the
// participant count can never pass the capacity.
func (s *Service) Admit(ctx context.Context, eventULID, userULID string) (*Participant, error) {
	var admitted *Participant
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		event, err := repo.GetEventForUpdate(ctx, eventULID)
		if err != nil {
			return err
		}
		if event.Status != events.StatusFuture {
			return ErrStateConflict
		}
		if event.RequiresApplication {
			return ErrApplicationRequired
		}
		if err := s.checkGender(ctx, event, userULID); err != nil {
			return err
		}

		if _, err := repo.FindParticipant(ctx, eventULID, userULID); err == nil {
			return ErrAlreadyRegistered
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		if err := checkCapacity(ctx, repo, event); err != nil {
			return err
		}

		admitted = &Participant{
			EventULID:  eventULID,
			UserULID:   userULID,
			Status:     StatusNoShow,
			TicketCode: ids.NewTicketCode(),
			CreatedAt:  time.Now().UTC(),
		}
		return repo.InsertParticipant(ctx, admitted)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("event_id", eventULID).
		Str("user_id", userULID).
		Msg("participant admitted")
	return admitted, nil
}

// CheckIn marks a participant ATTENDED exactly once and returns the
// holder's username and name for the gate operator. The participant
// row is locked before the status check, so of two concurrent
// check-ins one commits and the other sees ATTENDED and fails with
// ErrTicketUsed. Authorization against the event owner happens at the
// transport layer.
func (s *Service) CheckIn(ctx context.Context, eventULID string, ref CheckInRef) (*CheckInResult, error) {
	if err := ref.validate(); err != nil {
		return nil, err
	}

	var checked *Participant
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var (
			participant *Participant
			err         error
		)
		if ref.TicketCode != "" {
			participant, err = repo.GetParticipantByTicketForUpdate(ctx, eventULID, ref.TicketCode)
		} else {
			participant, err = repo.GetParticipantByIDForUpdate(ctx, eventULID, ref.ParticipantID)
		}
		if err != nil {
			return err
		}
		if participant.Status == StatusAttended {
			return ErrTicketUsed
		}
		if err := repo.MarkAttended(ctx, participant.ID); err != nil {
			return err
		}
		now := time.Now().UTC()
		participant.Status = StatusAttended
		participant.AttendedAt = &now
		checked = participant
		return nil
	})
	if err != nil {
		return nil, err
	}

	username, name, err := s.users.Identity(ctx, checked.UserULID)
	if err != nil {
		return nil, fmt.Errorf("resolve ticket holder: %w", err)
	}

	s.logger.Info().
		Str("event_id", eventULID).
		Int64("participant_id", checked.ID).
		Str("username", username).
		Msg("participant checked in")
	return &CheckInResult{Participant: checked, Username: username, Name: name}, nil
}

// Apply files an application for an application-only event. No seat is
// held; capacity is checked at approval time.
func (s *Service) Apply(ctx context.Context, eventULID, userULID, message string) (*Application, error) {
	message = strings.TrimSpace(message)
	if len(message) > 2000 {
		return nil, ValidationError{Field: "message", Message: "must be at most 2000 characters"}
	}

	var application *Application
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		event, err := repo.GetEvent(ctx, eventULID)
		if err != nil {
			return err
		}
		if event.Status != events.StatusFuture {
			return ErrStateConflict
		}
		if !event.RequiresApplication {
			return ErrDirectRegistration
		}
		if err := s.checkGender(ctx, event, userULID); err != nil {
			return err
		}
		if _, err := repo.FindParticipant(ctx, eventULID, userULID); err == nil {
			return ErrAlreadyRegistered
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		application = &Application{
			EventULID: eventULID,
			UserULID:  userULID,
			Status:    ApplicationPending,
			Message:   message,
			CreatedAt: time.Now().UTC(),
		}
		return repo.InsertApplication(ctx, application)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("event_id", eventULID).
		Str("user_id", userULID).
		Msg("application filed")
	return application, nil
}

// Decide resolves a pending application. Approval is the admission
// point: the event row is locked and capacity rechecked against the
// current count before the seat is granted. When capacity would be
// exceeded nothing is written and the application stays PENDING.
func (s *Service) Decide(ctx context.Context, eventULID string, applicationID int64, decision Decision, decidedBy string) (*Application, error) {
	var decided *Application
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		application, err := repo.GetApplicationForUpdate(ctx, applicationID)
		if err != nil {
			return err
		}
		if application.EventULID != eventULID {
			return ErrNotFound
		}
		if application.Status != ApplicationPending {
			return ErrAlreadyDecided
		}

		now := time.Now().UTC()
		application.DecidedBy = &decidedBy
		application.DecidedAt = &now

		if decision == DecisionRejected {
			application.Status = ApplicationRejected
			decided = application
			return repo.UpdateApplicationStatus(ctx, application)
		}

		event, err := repo.GetEventForUpdate(ctx, application.EventULID)
		if err != nil {
			return err
		}
		if event.Status != events.StatusFuture {
			return ErrStateConflict
		}
		if err := checkCapacity(ctx, repo, event); err != nil {
			return err
		}

		participant := &Participant{
			EventULID:     application.EventULID,
			UserULID:      application.UserULID,
			Status:        StatusNoShow,
			TicketCode:    ids.NewTicketCode(),
			ApplicationID: &application.ID,
			CreatedAt:     now,
		}
		if err := repo.InsertParticipant(ctx, participant); err != nil {
			return err
		}

		application.Status = ApplicationApproved
		decided = application
		return repo.UpdateApplicationStatus(ctx, application)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("application_id", applicationID).
		Str("decision", string(decision)).
		Str("decided_by", decidedBy).
		Msg("application decided")
	return decided, nil
}

// Withdraw releases the caller's own seat. Seats already consumed by
// check-in cannot be withdrawn, and the event must still be upcoming.
func (s *Service) Withdraw(ctx context.Context, eventULID, userULID string) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		event, err := repo.GetEventForUpdate(ctx, eventULID)
		if err != nil {
			return err
		}
		if event.Status != events.StatusFuture {
			return ErrStateConflict
		}
		participant, err := repo.FindParticipant(ctx, eventULID, userULID)
		if err != nil {
			return err
		}
		if participant.Status == StatusAttended {
			return ErrTicketUsed
		}
		return repo.DeleteParticipant(ctx, eventULID, userULID)
	})
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("event_id", eventULID).
		Str("user_id", userULID).
		Msg("participant withdrew")
	return nil
}

// WithdrawApplication deletes the caller's own pending application.
func (s *Service) WithdrawApplication(ctx context.Context, eventULID, userULID string) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		application, err := repo.FindApplication(ctx, eventULID, userULID)
		if err != nil {
			return err
		}
		if application.Status != ApplicationPending {
			return ErrAlreadyDecided
		}
		return repo.DeleteApplication(ctx, eventULID, userULID)
	})
}

// Remove evicts a participant on the event manager's behalf, freeing
// the seat. Checked-in participants cannot be removed.
func (s *Service) Remove(ctx context.Context, eventULID, userULID string) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		participant, err := repo.FindParticipant(ctx, eventULID, userULID)
		if err != nil {
			return err
		}
		if participant.Status == StatusAttended {
			return ErrTicketUsed
		}
		return repo.DeleteParticipant(ctx, eventULID, userULID)
	})
}

func (s *Service) ListParticipants(ctx context.Context, eventULID string) ([]*Participant, error) {
	return s.repo.ListParticipants(ctx, eventULID)
}

func (s *Service) ListApplications(ctx context.Context, eventULID string) ([]*Application, error) {
	return s.repo.ListApplications(ctx, eventULID)
}

func (s *Service) checkGender(ctx context.Context, event *events.Event, userULID string) error {
	if event.OnlyEligibleGender == nil {
		return nil
	}
	gender, err := s.users.Gender(ctx, userULID)
	if err != nil {
		return fmt.Errorf("resolve user gender: %w", err)
	}
	if !strings.EqualFold(gender, *event.OnlyEligibleGender) {
		return ErrGenderRestricted
	}
	return nil
}

func checkCapacity(ctx context.Context, repo Repository, event *events.Event) error {
	if event.Capacity == nil {
		return nil
	}
	count, err := repo.CountParticipants(ctx, event.ULID)
	if err != nil {
		return err
	}
	if count >= *event.Capacity {
		return ErrCapacityExceeded
	}
	return nil
}
