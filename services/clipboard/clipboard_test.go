package clipboardsvc

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/roster/core/teacher"
)

func TestCopy(t *testing.T) {
	var written string
	errNoClipboard := errors.New("no clipboard utilities available")
	origWriteAll := writeAllFunc
	defer func() { writeAllFunc = origWriteAll }()

	tests := []struct {
		name      string
		value     string
		writeErr  error
		wantErr   error
		wantWrite string
	}{
		{name: "empty", value: "  ", wantErr: ErrNothingToCopy},
		{name: "sentinel", value: teacher.NotProvided, wantErr: ErrNothingToCopy},
		{name: "copied", value: "1234567890", wantWrite: "1234567890"},
		{name: "clipboard failure", value: "1234567890", writeErr: errNoClipboard, wantWrite: "1234567890"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			written = ""
			writeAllFunc = func(text string) error {
				written = text
				return tt.writeErr
			}

			err := Copy(tt.value, "account")
			switch {
			case tt.writeErr != nil:
				var cErr *ClipboardError
				if assert.True(t, errors.As(err, &cErr)) {
					assert.Equal(t, "account", cErr.Field)
					assert.Equal(t, tt.writeErr, errors.Unwrap(cErr))
				}
			default:
				assert.Equal(t, tt.wantErr, err)
			}
			assert.Equal(t, tt.wantWrite, written)
		})
	}
}

func TestField(t *testing.T) {
	tchr := teacher.Teacher{
		Email:       "john@example.com",
		BankDetails: &teacher.BankDetails{AccountNumber: "1234567890", IFSCCode: "SBIN0001234"},
	}
	tests := []struct {
		field   string
		want    string
		wantErr bool
	}{
		{field: "account", want: "1234567890"},
		{field: "ifsc", want: "SBIN0001234"},
		{field: "upi", want: ""},
		{field: "email", want: "john@example.com"},
		{field: "phone", want: ""},
		{field: "salary", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			got, err := Field(tchr, tt.field)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
