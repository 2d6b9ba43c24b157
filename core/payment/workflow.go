package payment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/roster/core"
	"github.com/trezcool/roster/core/teacher"
)

type State string

// Workflow states
const (
	StateIdle                 State = "idle"
	StateValidating           State = "validating"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateCommitting           State = "committing"
	StateSettled              State = "settled"
	StateCancelled            State = "cancelled"
	StateFailed               State = "failed"
)

const irreversibleWarning = "This action cannot be undone."

var (
	ErrInvalidTransition = errors.New("action not allowed in the current payment state")
	ErrAlreadyPaid       = errors.New("Payment already completed for this teacher")
	ErrWorkflowSettled   = errors.New("payment already settled, start a new payment")

	nowFunc = time.Now

	commits = commitGuard{teachers: make(map[string]struct{})}
)

// commitGuard lets a single commit run per teacher, whatever the workflow.
type commitGuard struct {
	mu       sync.Mutex
	teachers map[string]struct{}
}

func (g *commitGuard) acquire(teacherID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.teachers[teacherID]; busy {
		return false
	}
	g.teachers[teacherID] = struct{}{}
	return true
}

func (g *commitGuard) release(teacherID string) {
	g.mu.Lock()
	delete(g.teachers, teacherID)
	g.mu.Unlock()
}

// CommitError reports a failed disbursement; the workflow is back to Idle.
type CommitError struct {
	Err error
}

func (e *CommitError) Error() string { return "payment failed: " + e.Err.Error() }
func (e *CommitError) Unwrap() error { return e.Err }

func IsCommitError(err error) bool {
	_, ok := errors.Cause(err).(*CommitError)
	return ok
}

// Deps are the collaborators shared by every workflow.
type Deps struct {
	Teachers      teacher.Service
	Validator     *Validator
	Disburser     Disburser
	Receipts      ReceiptRepository
	Notifier      Notifier
	Logger        core.Logger
	Currency      string
	CommitTimeout time.Duration
}

// Snapshot is the observable state of a Workflow.
type Snapshot struct {
	ID          string            `json:"id"`
	TeacherID   string            `json:"teacher_id"`
	TeacherName string            `json:"teacher_name"`
	State       State             `json:"state"`
	Outcome     State             `json:"outcome,omitempty"` // last Cancelled | Failed branch taken
	Method      Method            `json:"method"`
	Available   []Method          `json:"available_methods"`
	Warning     string            `json:"warning,omitempty"`
	Status      StatusInfo        `json:"payment"`
	Attempt     *Attempt          `json:"attempt,omitempty"`
	Errors      []string          `json:"errors"`
	FieldErrors map[string]string `json:"field_errors"`
	Error       string            `json:"error,omitempty"`
	Receipt     *Receipt          `json:"receipt,omitempty"`
	CanSubmit   bool              `json:"can_submit"`
}

// Workflow drives one payment of one teacher:
// Idle -> Validating -> AwaitingConfirmation -> Committing -> Settled.
// Cancel and commit failures resolve back to Idle.
type Workflow struct {
	mu sync.Mutex

	id        string
	teacherID string
	deps      Deps
	createdAt time.Time

	state       State
	outcome     State
	selector    *Selector
	staged      *Attempt
	errors      []string
	fieldErrors map[string]string
	lastErr     string
	receipt     *Receipt
}

func NewWorkflow(ctx context.Context, teacherID string, deps Deps) (*Workflow, error) {
	t, err := deps.Teachers.GetByID(ctx, teacherID)
	if err != nil {
		return nil, errors.Wrap(err, "loading teacher")
	}
	if deps.CommitTimeout <= 0 {
		deps.CommitTimeout = 10 * time.Second
	}
	return &Workflow{
		id:          uuid.NewString(),
		teacherID:   t.ID,
		deps:        deps,
		createdAt:   nowFunc(),
		state:       StateIdle,
		selector:    SelectorFor(t),
		errors:      []string{},
		fieldErrors: map[string]string{},
	}, nil
}

func (w *Workflow) ID() string        { return w.id }
func (w *Workflow) TeacherID() string { return w.teacherID }

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// teacher reloads the teacher and refreshes the method availability; callers must hold w.mu.
func (w *Workflow) teacher(ctx context.Context) (teacher.Teacher, error) {
	t, err := w.deps.Teachers.GetByID(ctx, w.teacherID)
	if err != nil {
		return teacher.Teacher{}, err
	}
	w.selector.Refresh(t)
	return t, nil
}

// checkState returns the error matching an action attempted outside of `want`.
func (w *Workflow) checkState(want State) error {
	if w.state == want {
		return nil
	}
	if w.state == StateSettled {
		return ErrWorkflowSettled
	}
	return ErrInvalidTransition
}

func (w *Workflow) Snapshot(ctx context.Context) (Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := Snapshot{
		ID:          w.id,
		TeacherID:   w.teacherID,
		State:       w.state,
		Outcome:     w.outcome,
		Errors:      append([]string{}, w.errors...),
		FieldErrors: make(map[string]string, len(w.fieldErrors)),
		Error:       w.lastErr,
	}
	for k, v := range w.fieldErrors {
		snap.FieldErrors[k] = v
	}
	if w.staged != nil {
		attempt := *w.staged
		snap.Attempt = &attempt
	}
	if w.receipt != nil {
		receipt := *w.receipt
		snap.Receipt = &receipt
	}

	t, err := w.teacher(ctx)
	if err != nil {
		if w.state == StateSettled && errors.Cause(err) == teacher.ErrNotFound {
			snap.Method = w.selector.Method()
			return snap, nil
		}
		return Snapshot{}, err
	}
	snap.TeacherName = t.Name
	snap.Status = Derive(t, nowFunc())
	snap.Method = w.selector.Method()
	snap.Available = w.selector.Available()
	snap.Warning = w.selector.Warning()
	snap.CanSubmit = w.state == StateIdle && snap.Method != MethodNone && snap.Status.Status != StatusPaid
	return snap, nil
}

// SelectMethod toggles the payment method; it reports false when m is not available.
func (w *Workflow) SelectMethod(ctx context.Context, m Method) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkState(StateIdle); err != nil {
		return false, err
	}
	if _, err := w.teacher(ctx); err != nil {
		return false, err
	}
	return w.selector.Select(m), nil
}

// Validate runs a live validation of form without changing the state.
func (w *Workflow) Validate(ctx context.Context, form Form) (Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkState(StateIdle); err != nil {
		return Result{}, err
	}
	t, err := w.teacher(ctx)
	if err != nil {
		return Result{}, err
	}
	res := w.validate(t, form)
	w.errors, w.fieldErrors = res.Errors, res.FieldErrors
	return res, nil
}

func (w *Workflow) validate(t teacher.Teacher, form Form) Result {
	return w.deps.Validator.Validate(Input{
		Form:    form,
		Method:  w.selector.Method(),
		Salary:  t.Salary,
		HasBank: w.selector.HasBank(),
		HasUPI:  w.selector.HasUPI(),
	})
}

// Submit validates form and, when valid, stages it for confirmation.
func (w *Workflow) Submit(ctx context.Context, form Form) (Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkState(StateIdle); err != nil {
		return Result{}, err
	}
	w.state = StateValidating
	w.lastErr = ""

	t, err := w.teacher(ctx)
	if err != nil {
		w.state = StateIdle
		return Result{}, err
	}
	if Derive(t, nowFunc()).Status == StatusPaid {
		w.state = StateIdle
		w.errors = []string{ErrAlreadyPaid.Error()}
		return Result{}, ErrAlreadyPaid
	}

	res := w.validate(t, form)
	w.errors, w.fieldErrors = res.Errors, res.FieldErrors
	if !res.IsValid {
		w.state = StateIdle
		return res, res.Err()
	}

	attempt := *res.Attempt
	w.staged = &attempt
	w.state = StateAwaitingConfirmation
	return res, nil
}

// Summary recaps the staged attempt awaiting confirmation.
func (w *Workflow) Summary(ctx context.Context) (Summary, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkState(StateAwaitingConfirmation); err != nil {
		return Summary{}, err
	}
	t, err := w.deps.Teachers.GetByID(ctx, w.teacherID)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		TeacherID:    t.ID,
		TeacherName:  t.Name,
		TeacherEmail: t.Email,
		Subject:      t.Subject,
		Amount:       w.staged.Amount,
		Note:         w.staged.Note,
		Method:       w.staged.Method,
		MethodLabel:  w.staged.Method.Label(),
		Destination:  Destination(t, w.staged.Method),
		Warning:      irreversibleWarning,
	}, nil
}

// Cancel discards the staged attempt; the teacher is left untouched.
func (w *Workflow) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkState(StateAwaitingConfirmation); err != nil {
		return err
	}
	w.staged = nil
	w.outcome = StateCancelled
	w.state = StateIdle
	return nil
}

// fail resolves a failed commit back to Idle.
func (w *Workflow) fail(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.staged = nil
	w.outcome = StateFailed
	w.lastErr = err.Error()
	w.state = StateIdle
}

// Confirm commits the staged attempt: the money is disbursed, then the teacher is marked Paid.
// The workflow stays in Committing meanwhile, so concurrent actions get ErrInvalidTransition,
// as does a Confirm of another workflow of the same teacher.
// Once committing, the caller going away no longer cancels the commit; only CommitTimeout does.
func (w *Workflow) Confirm(ctx context.Context) (Receipt, error) {
	w.mu.Lock()
	if err := w.checkState(StateAwaitingConfirmation); err != nil {
		w.mu.Unlock()
		return Receipt{}, err
	}
	if !commits.acquire(w.teacherID) {
		w.mu.Unlock()
		return Receipt{}, ErrInvalidTransition
	}
	defer commits.release(w.teacherID)
	w.state = StateCommitting
	attempt := *w.staged
	w.mu.Unlock()

	ctx = context.WithoutCancel(ctx)

	t, err := w.deps.Teachers.GetByID(ctx, w.teacherID)
	if err != nil {
		w.fail(err)
		return Receipt{}, err
	}
	if Derive(t, nowFunc()).Status == StatusPaid {
		w.fail(ErrAlreadyPaid)
		return Receipt{}, ErrAlreadyPaid
	}

	commitCtx, cancel := context.WithTimeout(ctx, w.deps.CommitTimeout)
	defer cancel()
	receipt, err := w.deps.Disburser.SubmitPayment(commitCtx, Request{
		TeacherID:   t.ID,
		Amount:      attempt.Amount,
		Note:        attempt.Note,
		Method:      attempt.Method,
		Destination: Destination(t, attempt.Method),
	})
	if err != nil {
		cErr := &CommitError{Err: err}
		w.fail(cErr)
		w.log().Warn(fmt.Sprintf("payment of %s to teacher %s failed: %v", attempt.Amount, t.ID, err), err, t)
		return Receipt{}, cErr
	}

	if receipt.ID == "" {
		receipt.ID = uuid.NewString()
	}
	if receipt.SettledAt.IsZero() {
		receipt.SettledAt = nowFunc()
	}
	receipt.SettledAt = receipt.SettledAt.UTC()
	receipt.TeacherID = t.ID
	receipt.TeacherName = t.Name
	receipt.Amount = attempt.Amount
	receipt.Note = attempt.Note
	receipt.Method = attempt.Method
	if receipt.Currency == "" {
		receipt.Currency = w.deps.Currency
	}

	t, err = w.deps.Teachers.SetPaymentStatus(ctx, t.ID, teacher.StatusPaid, receipt.SettledAt.Format(time.RFC3339))
	if err != nil {
		w.log().Error(
			fmt.Sprintf("payment %s disbursed but teacher %s could not be marked as paid: %v", receipt.Reference, receipt.TeacherID, err),
			err, receipt,
		)
		w.fail(err)
		return Receipt{}, errors.Wrap(err, "marking teacher as paid")
	}

	if w.deps.Receipts != nil {
		stored, err := w.deps.Receipts.CreateReceipt(ctx, receipt)
		if err != nil {
			w.log().Error(fmt.Sprintf("recording receipt %s: %v", receipt.Reference, err), err, receipt)
		} else {
			receipt = stored
		}
	}
	if w.deps.Notifier != nil {
		w.deps.Notifier.PaymentSettled(t, receipt)
	}
	w.log().Info(fmt.Sprintf("$%s has been sent to %s (%s)", receipt.Amount.StringFixed(2), t.Name, receipt.Reference))

	w.mu.Lock()
	defer w.mu.Unlock()
	w.staged = nil
	w.receipt = &receipt
	w.lastErr = ""
	w.state = StateSettled
	return receipt, nil
}

func (w *Workflow) log() core.Logger {
	if w.deps.Logger != nil {
		return w.deps.Logger
	}
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}
