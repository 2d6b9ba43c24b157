package payment

import (
	"strings"
	"unicode/utf8"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/roster/core"
)

const (
	maxNoteLength = 200
)

var (
	minAmount = decimal.NewFromInt(1)
	maxAmount = decimal.NewFromInt(1000000)

	// field-level tags & texts
	amountNumberTag  = "amountnumber"
	amountNumberText = "Amount must be a number"

	amountMinTag  = "amountmin"
	amountMinText = "Amount must be at least $1"

	amountMaxTag  = "amountmax"
	amountMaxText = "Amount cannot exceed $1,000,000"

	noteMaxTag  = "notemax"
	noteMaxText = "Note cannot exceed 200 characters"

	// business rules
	errAmountNotNumber    = "Amount must be a number"
	errAmountNotPositive  = "Payment amount must be greater than $0"
	errAmountBelowMin     = "Amount must be at least $1"
	errAmountAboveSalary  = "Payment amount cannot exceed 2x the teacher's salary"
	errAmountAboveMax     = "Payment amount cannot exceed $1,000,000"
	errNoteTooLong        = "Note cannot exceed 200 characters"
	errBankUnavailable    = "Bank transfer details are not available for this teacher"
	errUPIUnavailable     = "UPI payment details are not available for this teacher"
	errNoMethodAvailable  = "No payment method available for this teacher"
	errPaymentFormInvalid = errors.New("invalid payment")
)

// InitValidators registers the payment form validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(amountNumberTag, amountNumberValidation)
	core.RegisterCustomTranslation(validate, translator, amountNumberTag, amountNumberText)

	_ = validate.RegisterValidation(amountMinTag, amountMinValidation)
	core.RegisterCustomTranslation(validate, translator, amountMinTag, amountMinText)

	_ = validate.RegisterValidation(amountMaxTag, amountMaxValidation)
	core.RegisterCustomTranslation(validate, translator, amountMaxTag, amountMaxText)

	_ = validate.RegisterValidation(noteMaxTag, noteMaxValidation)
	core.RegisterCustomTranslation(validate, translator, noteMaxTag, noteMaxText)
}

func parseAmount(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(raw))
}

func amountNumberValidation(fl validator.FieldLevel) bool {
	_, err := parseAmount(fl.Field().String())
	return err == nil
}

func amountMinValidation(fl validator.FieldLevel) bool {
	amount, err := parseAmount(fl.Field().String())
	return err == nil && amount.GreaterThanOrEqual(minAmount)
}

func amountMaxValidation(fl validator.FieldLevel) bool {
	amount, err := parseAmount(fl.Field().String())
	return err == nil && amount.LessThanOrEqual(maxAmount)
}

func noteMaxValidation(fl validator.FieldLevel) bool {
	return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) <= maxNoteLength
}

// Input is everything a validation run looks at.
type Input struct {
	Form    Form
	Method  Method
	Salary  decimal.Decimal
	HasBank bool
	HasUPI  bool
}

// Validator checks a payment form against the field-level schema and the business rules.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func NewValidator(validate *validator.Validate, translator ut.Translator) *Validator {
	return &Validator{validate: validate, translator: translator}
}

// Validate collects every violation; nothing short-circuits.
func (v *Validator) Validate(in Input) Result {
	res := Result{Errors: []string{}, FieldErrors: map[string]string{}}
	note := strings.TrimSpace(in.Form.Note)

	// field-level schema
	if err := v.validate.Struct(in.Form); err != nil {
		if vErrs, ok := errors.Cause(err).(validator.ValidationErrors); ok {
			res.FieldErrors = core.TranslateErrors(vErrs, v.translator)
		} else {
			res.FieldErrors["amount"] = err.Error()
		}
	}

	// business rules
	raw := strings.TrimSpace(string(in.Form.Amount))
	amount, err := parseAmount(raw)
	if err != nil {
		amount = decimal.Zero
		if raw != "" {
			res.Errors = append(res.Errors, errAmountNotNumber)
		}
	}
	if err == nil || raw == "" {
		switch {
		case !amount.IsPositive():
			res.Errors = append(res.Errors, errAmountNotPositive)
		case amount.LessThan(minAmount):
			res.Errors = append(res.Errors, errAmountBelowMin)
		}
	}
	if in.Salary.IsPositive() && amount.GreaterThan(in.Salary.Mul(decimal.NewFromInt(2))) {
		res.Errors = append(res.Errors, errAmountAboveSalary)
	}
	if amount.GreaterThan(maxAmount) {
		res.Errors = append(res.Errors, errAmountAboveMax)
	}
	if utf8.RuneCountInString(note) > maxNoteLength {
		res.Errors = append(res.Errors, errNoteTooLong)
	}

	switch in.Method {
	case MethodBank:
		if !in.HasBank {
			res.Errors = append(res.Errors, errBankUnavailable)
		}
	case MethodUPI:
		if !in.HasUPI {
			res.Errors = append(res.Errors, errUPIUnavailable)
		}
	default:
		res.Errors = append(res.Errors, errNoMethodAvailable)
	}

	res.IsValid = len(res.Errors) == 0 && len(res.FieldErrors) == 0
	if res.IsValid {
		res.Attempt = &Attempt{Amount: amount, Note: note, Method: in.Method}
	}
	return res
}

// Err converts an invalid Result into a *core.ValidationError.
func (res Result) Err() error {
	if res.IsValid {
		return nil
	}
	flds := make([]core.FieldError, 0, len(res.FieldErrors)+len(res.Errors))
	for field, msg := range res.FieldErrors {
		flds = append(flds, core.FieldError{Field: field, Error: msg})
	}
	for _, msg := range res.Errors {
		flds = append(flds, core.FieldError{Field: "non_field_errors", Error: msg})
	}
	return core.NewValidationError(errPaymentFormInvalid, flds...)
}
