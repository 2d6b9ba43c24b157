package clipboardsvc

import (
	"github.com/atotto/clipboard"
	"github.com/pkg/errors"

	"github.com/trezcool/roster/core/teacher"
)

var (
	ErrNothingToCopy = errors.New("No data available to copy")

	writeAllFunc = clipboard.WriteAll // mockable
)

// ClipboardError reports a failed write to the system clipboard.
type ClipboardError struct {
	Field string
	Err   error
}

func (e *ClipboardError) Error() string {
	return "failed to copy " + e.Field + ": " + e.Err.Error()
}

func (e *ClipboardError) Unwrap() error { return e.Err }

// Copy writes value to the system clipboard.
// Empty values and the NotProvided sentinel are refused with ErrNothingToCopy.
func Copy(value, field string) error {
	if !teacher.IsAvailable(value) {
		return ErrNothingToCopy
	}
	if err := writeAllFunc(value); err != nil {
		return &ClipboardError{Field: field, Err: err}
	}
	return nil
}

// Field returns the value of a copyable field of t: account, ifsc, upi, email or phone.
func Field(t teacher.Teacher, field string) (string, error) {
	switch field {
	case "account":
		if t.BankDetails != nil {
			return t.BankDetails.AccountNumber, nil
		}
	case "ifsc":
		if t.BankDetails != nil {
			return t.BankDetails.IFSCCode, nil
		}
	case "upi":
		if t.UPIDetails != nil {
			return t.UPIDetails.UPIID, nil
		}
	case "email":
		return t.Email, nil
	case "phone":
		return t.Phone, nil
	default:
		return "", errors.Errorf("unknown field %q, expected one of account, ifsc, upi, email or phone", field)
	}
	return "", nil
}
