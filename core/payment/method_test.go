package payment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/roster/core/payment"
	"github.com/trezcool/roster/core/teacher"
)

func TestSelector(t *testing.T) {
	tests := []struct {
		name          string
		hasBank       bool
		hasUPI        bool
		wantMethod    payment.Method
		wantAvailable []payment.Method
		selectUPI     bool
		selectBank    bool
		wantWarning   bool
	}{
		{name: "none", wantMethod: payment.MethodNone, wantAvailable: []payment.Method{}, wantWarning: true},
		{name: "bank only", hasBank: true, wantMethod: payment.MethodBank,
			wantAvailable: []payment.Method{payment.MethodBank}, selectBank: true},
		{name: "upi only", hasUPI: true, wantMethod: payment.MethodUPI,
			wantAvailable: []payment.Method{payment.MethodUPI}, selectUPI: true},
		{name: "both, bank first", hasBank: true, hasUPI: true, wantMethod: payment.MethodBank,
			wantAvailable: []payment.Method{payment.MethodBank, payment.MethodUPI}, selectUPI: true, selectBank: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := payment.NewSelector(tt.hasBank, tt.hasUPI)
			assert.Equal(t, tt.wantMethod, s.Method())
			assert.Equal(t, tt.wantAvailable, s.Available())
			assert.Equal(t, tt.wantWarning, s.Warning() != "")

			assert.Equal(t, tt.selectUPI, s.Select(payment.MethodUPI))
			if !tt.selectUPI {
				assert.Equal(t, tt.wantMethod, s.Method(), "unavailable method is a no-op")
			}
			assert.Equal(t, tt.selectBank, s.Select(payment.MethodBank))
			assert.False(t, s.Select("cash"))
		})
	}
}

func TestSelector_Refresh(t *testing.T) {
	tchr := teacher.Teacher{
		BankDetails: &teacher.BankDetails{AccountNumber: "1234567890", IFSCCode: "SBIN0001234"},
		UPIDetails:  &teacher.UPIDetails{UPIID: "john@okaxis"},
	}
	s := payment.SelectorFor(tchr)
	assert.True(t, s.Select(payment.MethodUPI))

	tchr.BankDetails.IFSCCode = teacher.NotProvided
	s.Refresh(tchr)
	assert.Equal(t, payment.MethodUPI, s.Method(), "the choice is kept")
	assert.False(t, s.HasBank())

	tchr.UPIDetails = nil
	s.Refresh(tchr)
	assert.Equal(t, payment.MethodNone, s.Method())
	assert.NotEmpty(t, s.Warning())
}

func TestDestination(t *testing.T) {
	tchr := teacher.Teacher{
		BankDetails: &teacher.BankDetails{AccountNumber: "1234567890", IFSCCode: teacher.NotProvided},
		UPIDetails:  &teacher.UPIDetails{UPIID: "john@okaxis"},
	}
	assert.Equal(t, "", payment.Destination(tchr, payment.MethodBank), "half bank details are unavailable")
	assert.Equal(t, "john@okaxis", payment.Destination(tchr, payment.MethodUPI))
	assert.Equal(t, "", payment.Destination(tchr, payment.MethodNone))

	assert.Equal(t, "Bank Transfer", payment.MethodBank.Label())
	assert.Equal(t, "None", payment.MethodNone.Label())
}
