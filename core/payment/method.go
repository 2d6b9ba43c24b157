package payment

import "github.com/trezcool/roster/core/teacher"

const noMethodWarning = "No payment details available. Please add bank or UPI details to the teacher profile."

func HasBankDetails(t teacher.Teacher) bool {
	return t.BankDetails != nil &&
		teacher.IsAvailable(t.BankDetails.AccountNumber) &&
		teacher.IsAvailable(t.BankDetails.IFSCCode)
}

func HasUPIDetails(t teacher.Teacher) bool {
	return t.UPIDetails != nil && teacher.IsAvailable(t.UPIDetails.UPIID)
}

// Destination returns where the money goes for method m, or "" when unavailable.
func Destination(t teacher.Teacher, m Method) string {
	switch {
	case m == MethodBank && HasBankDetails(t):
		return t.BankDetails.AccountNumber
	case m == MethodUPI && HasUPIDetails(t):
		return t.UPIDetails.UPIID
	}
	return ""
}

// Selector holds the chosen payment method, constrained to the available ones.
type Selector struct {
	hasBank bool
	hasUPI  bool
	method  Method
}

// NewSelector auto-selects bank when available, UPI otherwise.
func NewSelector(hasBank, hasUPI bool) *Selector {
	s := &Selector{hasBank: hasBank, hasUPI: hasUPI}
	switch {
	case hasBank:
		s.method = MethodBank
	case hasUPI:
		s.method = MethodUPI
	}
	return s
}

func SelectorFor(t teacher.Teacher) *Selector {
	return NewSelector(HasBankDetails(t), HasUPIDetails(t))
}

func (s *Selector) Method() Method { return s.method }
func (s *Selector) HasBank() bool  { return s.hasBank }
func (s *Selector) HasUPI() bool   { return s.hasUPI }

func (s *Selector) IsAvailable(m Method) bool {
	switch m {
	case MethodBank:
		return s.hasBank
	case MethodUPI:
		return s.hasUPI
	}
	return false
}

// Select switches to m; selecting an unavailable method is a no-op returning false.
func (s *Selector) Select(m Method) bool {
	if !s.IsAvailable(m) {
		return false
	}
	s.method = m
	return true
}

func (s *Selector) Available() []Method {
	methods := make([]Method, 0, 2)
	if s.hasBank {
		methods = append(methods, MethodBank)
	}
	if s.hasUPI {
		methods = append(methods, MethodUPI)
	}
	return methods
}

// Warning is set when no method can be selected.
func (s *Selector) Warning() string {
	if s.method == MethodNone {
		return noMethodWarning
	}
	return ""
}

// Refresh re-applies the availability of t, keeping the current choice when still possible.
func (s *Selector) Refresh(t teacher.Teacher) {
	current := s.method
	*s = *SelectorFor(t)
	s.Select(current)
}
