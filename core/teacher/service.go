package teacher

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/roster/core"
)

var (
	// errors
	ErrNotFound           = errors.New("teacher not found")
	ErrEmailExists        = errors.New("a teacher with this email already exists")
	ErrInvalidStatus      = errors.New("payment status must be one of Paid, Pending or Overdue")
	ErrInvalidPaymentDate = errors.New("last payment date must be an RFC 3339 timestamp")
	ErrPaidWithoutDate    = errors.New("last payment date is required when payment status is Paid")

	errInvalidTeacher = errors.New("invalid teacher data")

	nowFunc = time.Now
)

type (
	Repository interface {
		CheckEmailUniqueness(email string, excludedIDs ...string) error
		// CreateTeacher assigns a fresh ID to t and records it.
		CreateTeacher(ctx context.Context, t Teacher) (Teacher, error)
		// QueryAllTeachers applies filter then orderings, in order of precedence.
		QueryAllTeachers(ctx context.Context, filter *QueryFilter, orderings []core.Ordering) ([]Teacher, error)
		GetTeacherByID(ctx context.Context, id string) (Teacher, error)
		// UpdateTeacher replaces every field of the matching record but ID & CreatedAt.
		UpdateTeacher(ctx context.Context, t Teacher) (Teacher, error)
		// UpdateTeacherPaymentStatus applies Teacher.ApplyPaymentStatus under the table lock.
		UpdateTeacherPaymentStatus(
			ctx context.Context,
			id string,
			status PaymentStatus,
			lastPaymentDate string,
			at time.Time,
		) (Teacher, error)
		DeleteTeacher(ctx context.Context, id string, at time.Time) error
		Version(ctx context.Context) uint64
		// Changes returns the changes applied after version `since`, and the current version.
		Changes(ctx context.Context, since uint64) ([]Change, uint64)
	}

	// Service is the teacher record store shared by every consumer.
	Service interface {
		CheckEmailUniqueness(email string, excludedIDs ...string) error
		Create(ctx context.Context, nt NewTeacher) (Teacher, error)
		Import(ctx context.Context, teachers ...Teacher) ([]Teacher, error)
		QueryAll(ctx context.Context, filter *QueryFilter, orderings []core.Ordering) ([]Teacher, error)
		GetByID(ctx context.Context, id string) (Teacher, error)
		Update(ctx context.Context, id string, upd UpdateTeacher) (Teacher, error)
		SetPaymentStatus(ctx context.Context, id string, status PaymentStatus, lastPaymentDate string) (Teacher, error)
		Delete(ctx context.Context, id string) error
		Version(ctx context.Context) uint64
		Changes(ctx context.Context, since uint64) ([]Change, uint64)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CheckEmailUniqueness(email string, excludedIDs ...string) error {
	if err := svc.repo.CheckEmailUniqueness(email, excludedIDs...); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "basic.email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nt NewTeacher) (Teacher, error) {
	now := nowFunc().UTC()
	t := nt.Teacher()
	t.CreatedAt = now
	t.UpdatedAt = now
	return svc.repo.CreateTeacher(ctx, t)
}

// Import records already-formed teachers (eg. seed data); their IDs are re-assigned.
func (svc *service) Import(ctx context.Context, teachers ...Teacher) ([]Teacher, error) {
	now := nowFunc().UTC()
	created := make([]Teacher, 0, len(teachers))
	for _, t := range teachers {
		if t.PaymentStatus == "" {
			t.PaymentStatus = StatusPending
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		t.UpdatedAt = now
		newT, err := svc.repo.CreateTeacher(ctx, t)
		if err != nil {
			return created, errors.Wrapf(err, "importing teacher %q", t.Email)
		}
		created = append(created, newT)
	}
	return created, nil
}

func (svc *service) QueryAll(ctx context.Context, filter *QueryFilter, orderings []core.Ordering) ([]Teacher, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	return svc.repo.QueryAllTeachers(ctx, filter, orderings)
}

func (svc *service) GetByID(ctx context.Context, id string) (Teacher, error) {
	return svc.repo.GetTeacherByID(ctx, id)
}

func (svc *service) Update(ctx context.Context, id string, upd UpdateTeacher) (Teacher, error) {
	t := upd.Teacher()
	t.ID = id
	t.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateTeacher(ctx, t)
}

func (svc *service) SetPaymentStatus(
	ctx context.Context,
	id string,
	status PaymentStatus,
	lastPaymentDate string,
) (Teacher, error) {
	return svc.repo.UpdateTeacherPaymentStatus(ctx, id, status, core.CleanString(lastPaymentDate), nowFunc().UTC())
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteTeacher(ctx, id, nowFunc().UTC())
}

func (svc *service) Version(ctx context.Context) uint64 {
	return svc.repo.Version(ctx)
}

func (svc *service) Changes(ctx context.Context, since uint64) ([]Change, uint64) {
	return svc.repo.Changes(ctx, since)
}
