package teacher

import (
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/roster/core"
)

// NotProvided stands for a banking value that is known to be missing.
const NotProvided = "Not provided"

type PaymentStatus string

// Payment statuses
const (
	StatusPaid    PaymentStatus = "Paid"
	StatusPending PaymentStatus = "Pending"
	StatusOverdue PaymentStatus = "Overdue"
)

var PaymentStatuses = []PaymentStatus{StatusPaid, StatusPending, StatusOverdue}

func (s PaymentStatus) IsValid() bool {
	for _, status := range PaymentStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// ParsePaymentStatus accepts any casing, eg. `paid` or `PAID`.
func ParsePaymentStatus(val string) (PaymentStatus, bool) {
	val = core.CleanString(val, true /* lower */)
	for _, status := range PaymentStatuses {
		if strings.ToLower(string(status)) == val {
			return status, true
		}
	}
	return "", false
}

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// IsAvailable reports whether a banking value is set and not the NotProvided sentinel.
func IsAvailable(val string) bool {
	val = strings.TrimSpace(val)
	return val != "" && val != NotProvided
}

type (
	BankDetails struct {
		AccountName   string `json:"account_name"`
		AccountNumber string `json:"account_number"`
		IFSCCode      string `json:"ifsc_code"`
		BankName      string `json:"bank_name"`
		Branch        string `json:"branch"`
	}

	UPIDetails struct {
		UPIID  string `json:"upi_id"`
		QRCode string `json:"qr_code,omitempty"`
	}

	EmergencyContact struct {
		Name         string `json:"name"`
		Phone        string `json:"phone"`
		Relationship string `json:"relationship"`
	}

	Teacher struct {
		ID        string          `json:"id"`
		Name      string          `json:"name"`
		Email     string          `json:"email"`
		Subject   string          `json:"subject"`
		Salary    decimal.Decimal `json:"salary"`
		AvatarURL string          `json:"avatar_url"`

		Phone         string `json:"phone,omitempty"`
		DOB           string `json:"dob,omitempty"` // YYYY-MM-DD
		Gender        Gender `json:"gender,omitempty"`
		Address       string `json:"address,omitempty"`
		JoiningDate   string `json:"joining_date,omitempty"` // YYYY-MM-DD
		Qualification string `json:"qualification,omitempty"`
		Experience    int    `json:"experience"` // years

		BankDetails      *BankDetails      `json:"bank_details,omitempty"`
		UPIDetails       *UPIDetails       `json:"upi_details,omitempty"`
		EmergencyContact *EmergencyContact `json:"emergency_contact,omitempty"`

		PaymentStatus   PaymentStatus `json:"payment_status"`
		LastPaymentDate string        `json:"last_payment_date"` // RFC 3339

		CreatedAt time.Time `json:"created_at"` // UTC
		UpdatedAt time.Time `json:"updated_at"` // UTC
	}
)

// Clone returns a deep copy of t; sub-records are not shared.
func (t Teacher) Clone() Teacher {
	if t.BankDetails != nil {
		bank := *t.BankDetails
		t.BankDetails = &bank
	}
	if t.UPIDetails != nil {
		upi := *t.UPIDetails
		t.UPIDetails = &upi
	}
	if t.EmergencyContact != nil {
		contact := *t.EmergencyContact
		t.EmergencyContact = &contact
	}
	return t
}

// LastPayment parses LastPaymentDate; ok is false when it is empty or malformed.
func (t *Teacher) LastPayment() (time.Time, bool) {
	if t.LastPaymentDate == "" {
		return time.Time{}, false
	}
	tstamp, err := time.Parse(time.RFC3339, t.LastPaymentDate)
	if err != nil {
		return time.Time{}, false
	}
	return tstamp, true
}

// Joined parses JoiningDate; ok is false when it is empty or malformed.
func (t *Teacher) Joined() (time.Time, bool) {
	if t.JoiningDate == "" {
		return time.Time{}, false
	}
	date, err := time.Parse(core.DateLayout, t.JoiningDate)
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}

// ApplyPaymentStatus sets both the payment status and the last payment date, or neither.
// An empty lastPaymentDate keeps the previous one.
func (t *Teacher) ApplyPaymentStatus(status PaymentStatus, lastPaymentDate string) error {
	if !status.IsValid() {
		return core.NewValidationError(
			ErrInvalidStatus,
			core.FieldError{Field: "payment_status", Error: ErrInvalidStatus.Error()},
		)
	}

	date := t.LastPaymentDate
	if lastPaymentDate != "" {
		tstamp, err := time.Parse(time.RFC3339, lastPaymentDate)
		if err != nil {
			return core.NewValidationError(
				ErrInvalidPaymentDate,
				core.FieldError{Field: "last_payment_date", Error: ErrInvalidPaymentDate.Error()},
			)
		}
		date = tstamp.UTC().Format(time.RFC3339)
	}
	if status == StatusPaid && date == "" {
		return core.NewValidationError(
			ErrPaidWithoutDate,
			core.FieldError{Field: "last_payment_date", Error: ErrPaidWithoutDate.Error()},
		)
	}

	t.PaymentStatus = status
	t.LastPaymentDate = date
	return nil
}

// Form sections

type (
	BasicInfo struct {
		Name      string          `json:"name" validate:"required,notblank"`
		Email     string          `json:"email" validate:"required,email"`
		Phone     string          `json:"phone" validate:"omitempty,phone"`
		Subject   string          `json:"subject" validate:"required,notblank"`
		Salary    decimal.Decimal `json:"salary" validate:"required,gt=0"`
		AvatarURL string          `json:"avatar_url" validate:"omitempty,url"`
		DOB       string          `json:"dob" validate:"omitempty,isodate"`
		Gender    Gender          `json:"gender" validate:"omitempty,oneof=Male Female Other"`
		Address   string          `json:"address" validate:"max=500"`
	}

	ProfessionalInfo struct {
		JoiningDate   string `json:"joining_date" validate:"omitempty,isodate"`
		Qualification string `json:"qualification" validate:"max=200"`
		Experience    int    `json:"experience" validate:"gte=0,lte=80"`
	}

	BankingInfo struct {
		AccountName   string `json:"account_name" validate:"max=200"`
		AccountNumber string `json:"account_number" validate:"required_with=IFSCCode,omitempty,account"`
		IFSCCode      string `json:"ifsc_code" validate:"required_with=AccountNumber,omitempty,ifsc"`
		BankName      string `json:"bank_name" validate:"max=200"`
		Branch        string `json:"branch" validate:"max=200"`
		UPIID         string `json:"upi_id" validate:"omitempty,upi"`
	}

	EmergencyInfo struct {
		Name         string `json:"name" validate:"required_with=Phone Relationship"`
		Phone        string `json:"phone" validate:"required_with=Name,omitempty,phone"`
		Relationship string `json:"relationship" validate:"max=100"`
	}

	section interface {
		key() string
		clean()
	}
)

func (BasicInfo) key() string        { return "basic" }
func (ProfessionalInfo) key() string { return "professional" }
func (BankingInfo) key() string      { return "banking" }
func (EmergencyInfo) key() string    { return "emergency" }

func (b *BasicInfo) clean() {
	b.Name = core.CleanString(b.Name)
	b.Email = core.CleanString(b.Email, true /* lower */)
	b.Phone = core.CleanString(b.Phone)
	b.Subject = core.CleanString(b.Subject)
	b.AvatarURL = core.CleanString(b.AvatarURL)
	b.DOB = core.CleanString(b.DOB)
	b.Address = core.CleanString(b.Address)
}

func (p *ProfessionalInfo) clean() {
	p.JoiningDate = core.CleanString(p.JoiningDate)
	p.Qualification = core.CleanString(p.Qualification)
}

func (b *BankingInfo) clean() {
	b.AccountName = core.CleanString(b.AccountName)
	b.AccountNumber = core.CleanString(b.AccountNumber)
	b.IFSCCode = strings.ToUpper(core.CleanString(b.IFSCCode))
	b.BankName = core.CleanString(b.BankName)
	b.Branch = core.CleanString(b.Branch)
	b.UPIID = core.CleanString(b.UPIID)
	if b.IFSCCode == strings.ToUpper(NotProvided) {
		b.IFSCCode = NotProvided
	}
}

func (e *EmergencyInfo) clean() {
	e.Name = core.CleanString(e.Name)
	e.Phone = core.CleanString(e.Phone)
	e.Relationship = core.CleanString(e.Relationship)
}

func (b *BasicInfo) Validate(validate *validator.Validate) error {
	b.clean()
	return validate.Struct(b)
}

func (p *ProfessionalInfo) Validate(validate *validator.Validate) error {
	p.clean()
	return validate.Struct(p)
}

func (b *BankingInfo) Validate(validate *validator.Validate) error {
	b.clean()
	return validate.Struct(b)
}

func (e *EmergencyInfo) Validate(validate *validator.Validate) error {
	e.clean()
	return validate.Struct(e)
}

func (b BankingInfo) bankDetails() *BankDetails {
	if b.AccountName == "" && b.AccountNumber == "" && b.IFSCCode == "" && b.BankName == "" && b.Branch == "" {
		return nil
	}
	return &BankDetails{
		AccountName:   b.AccountName,
		AccountNumber: b.AccountNumber,
		IFSCCode:      b.IFSCCode,
		BankName:      b.BankName,
		Branch:        b.Branch,
	}
}

func (e EmergencyInfo) contact() *EmergencyContact {
	if e.Name == "" && e.Phone == "" && e.Relationship == "" {
		return nil
	}
	return &EmergencyContact{Name: e.Name, Phone: e.Phone, Relationship: e.Relationship}
}

// NewTeacher contains information needed to create a new Teacher.
type NewTeacher struct {
	Basic        BasicInfo        `json:"basic"`
	Professional ProfessionalInfo `json:"professional"`
	Banking      BankingInfo      `json:"banking"`
	Emergency    EmergencyInfo    `json:"emergency"`

	PaymentStatus   PaymentStatus `json:"payment_status" validate:"omitempty,oneof=Paid Pending Overdue"`
	LastPaymentDate string        `json:"last_payment_date" validate:"omitempty,timestamp"`
}

func (nt *NewTeacher) Validate(validate *validator.Validate, translator ut.Translator, svc Service) error {
	nt.LastPaymentDate = core.CleanString(nt.LastPaymentDate)

	flds, err := validateSections(validate, translator, &nt.Basic, &nt.Professional, &nt.Banking, &nt.Emergency)
	if err != nil {
		return err
	}
	statusFlds, err := validatePaymentFields(validate, translator, nt, nt.PaymentStatus, nt.LastPaymentDate)
	if err != nil {
		return err
	}
	flds = append(flds, statusFlds...)
	if len(flds) > 0 {
		return core.NewValidationError(errInvalidTeacher, flds...)
	}
	return svc.CheckEmailUniqueness(nt.Basic.Email)
}

// Teacher combines the sections into a Teacher; ID and timestamps are left to the store.
func (nt *NewTeacher) Teacher() Teacher {
	t := Teacher{
		Name:             nt.Basic.Name,
		Email:            nt.Basic.Email,
		Subject:          nt.Basic.Subject,
		Salary:           nt.Basic.Salary,
		AvatarURL:        nt.Basic.AvatarURL,
		Phone:            nt.Basic.Phone,
		DOB:              nt.Basic.DOB,
		Gender:           nt.Basic.Gender,
		Address:          nt.Basic.Address,
		JoiningDate:      nt.Professional.JoiningDate,
		Qualification:    nt.Professional.Qualification,
		Experience:       nt.Professional.Experience,
		BankDetails:      nt.Banking.bankDetails(),
		EmergencyContact: nt.Emergency.contact(),
		PaymentStatus:    nt.PaymentStatus,
		LastPaymentDate:  nt.LastPaymentDate,
	}
	if nt.Banking.UPIID != "" {
		t.UPIDetails = &UPIDetails{UPIID: nt.Banking.UPIID}
	}
	if t.PaymentStatus == "" {
		t.PaymentStatus = StatusPending
	}
	return t
}

// UpdateTeacher defines what information may be provided to modify an existing Teacher.
// Blank identity fields, salary, payment status and date keep their original values.
type UpdateTeacher struct {
	Basic        BasicInfo        `json:"basic"`
	Professional ProfessionalInfo `json:"professional"`
	Banking      BankingInfo      `json:"banking"`
	Emergency    EmergencyInfo    `json:"emergency"`

	PaymentStatus   PaymentStatus `json:"payment_status" validate:"omitempty,oneof=Paid Pending Overdue"`
	LastPaymentDate string        `json:"last_payment_date" validate:"omitempty,timestamp"`

	orig Teacher
}

func (upd *UpdateTeacher) Validate(validate *validator.Validate, translator ut.Translator, orig Teacher, svc Service) error {
	upd.orig = orig
	if core.CleanString(upd.Basic.Name) == "" {
		upd.Basic.Name = orig.Name
	}
	if core.CleanString(upd.Basic.Email) == "" {
		upd.Basic.Email = orig.Email
	}
	if core.CleanString(upd.Basic.Subject) == "" {
		upd.Basic.Subject = orig.Subject
	}
	if upd.Basic.Salary.IsZero() {
		upd.Basic.Salary = orig.Salary
	}
	// payment fields left blank are kept by the store, they are only checked against orig
	upd.LastPaymentDate = core.CleanString(upd.LastPaymentDate)
	status, date := upd.PaymentStatus, upd.LastPaymentDate
	if status == "" {
		status = orig.PaymentStatus
	}
	if date == "" {
		date = orig.LastPaymentDate
	}

	flds, err := validateSections(validate, translator, &upd.Basic, &upd.Professional, &upd.Banking, &upd.Emergency)
	if err != nil {
		return err
	}
	statusFlds, err := validatePaymentFields(validate, translator, upd, status, date)
	if err != nil {
		return err
	}
	flds = append(flds, statusFlds...)
	if len(flds) > 0 {
		return core.NewValidationError(errInvalidTeacher, flds...)
	}
	return svc.CheckEmailUniqueness(upd.Basic.Email, orig.ID)
}

// Teacher applies the update on top of the original Teacher, ID & CreatedAt are preserved.
// Payment status & date are only set when provided: the stored ones win otherwise.
func (upd *UpdateTeacher) Teacher() Teacher {
	t := upd.orig
	t.Name = upd.Basic.Name
	t.Email = upd.Basic.Email
	t.Subject = upd.Basic.Subject
	t.Salary = upd.Basic.Salary
	t.AvatarURL = upd.Basic.AvatarURL
	t.Phone = upd.Basic.Phone
	t.DOB = upd.Basic.DOB
	t.Gender = upd.Basic.Gender
	t.Address = upd.Basic.Address
	t.JoiningDate = upd.Professional.JoiningDate
	t.Qualification = upd.Professional.Qualification
	t.Experience = upd.Professional.Experience
	t.BankDetails = upd.Banking.bankDetails()
	t.EmergencyContact = upd.Emergency.contact()
	t.PaymentStatus = upd.PaymentStatus
	t.LastPaymentDate = upd.LastPaymentDate

	t.UPIDetails = nil
	if upd.Banking.UPIID != "" {
		upi := UPIDetails{UPIID: upd.Banking.UPIID}
		if upd.orig.UPIDetails != nil && upd.orig.UPIDetails.UPIID == upi.UPIID {
			upi.QRCode = upd.orig.UPIDetails.QRCode
		}
		t.UPIDetails = &upi
	}
	return t
}

// validateSections validates each section independently and keys field errors as `section.field`.
func validateSections(validate *validator.Validate, translator ut.Translator, sections ...interface {
	section
	Validate(*validator.Validate) error
}) ([]core.FieldError, error) {
	var flds []core.FieldError
	for _, sec := range sections {
		err := sec.Validate(validate)
		if err == nil {
			continue
		}
		vErrs, ok := errors.Cause(err).(validator.ValidationErrors)
		if !ok {
			return nil, errors.Wrapf(err, "validating %s section", sec.key())
		}
		for _, vErr := range vErrs {
			flds = append(flds, core.FieldError{
				Field: sec.key() + "." + vErr.Field(),
				Error: vErr.Translate(translator),
			})
		}
	}
	return flds, nil
}

func validatePaymentFields(
	validate *validator.Validate,
	translator ut.Translator,
	form interface{},
	status PaymentStatus,
	lastPaymentDate string,
) ([]core.FieldError, error) {
	var flds []core.FieldError
	if err := validate.StructPartial(form, "PaymentStatus", "LastPaymentDate"); err != nil {
		vErrs, ok := errors.Cause(err).(validator.ValidationErrors)
		if !ok {
			return nil, errors.Wrap(err, "validating payment fields")
		}
		for field, msg := range core.TranslateErrors(vErrs, translator) {
			flds = append(flds, core.FieldError{Field: field, Error: msg})
		}
	}
	if status == StatusPaid && lastPaymentDate == "" {
		flds = append(flds, core.FieldError{Field: "last_payment_date", Error: ErrPaidWithoutDate.Error()})
	}
	return flds, nil
}

type QueryFilter struct {
	Search   string          `query:"search"`
	Statuses []PaymentStatus `query:"status"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && len(qf.Statuses) == 0
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search, true /* lower */)
	statuses := qf.Statuses[:0]
	for _, s := range qf.Statuses {
		if status, ok := ParsePaymentStatus(string(s)); ok {
			statuses = append(statuses, status)
		}
	}
	qf.Statuses = statuses
}

// Match applies AND on the set filters; Search is a case-insensitive match on name, email or subject.
func (qf *QueryFilter) Match(t Teacher) bool {
	if qf.Search != "" &&
		!strings.Contains(strings.ToLower(t.Name), qf.Search) &&
		!strings.Contains(strings.ToLower(t.Email), qf.Search) &&
		!strings.Contains(strings.ToLower(t.Subject), qf.Search) {
		return false
	}
	if len(qf.Statuses) > 0 {
		for _, s := range qf.Statuses {
			if t.PaymentStatus == s {
				return true
			}
		}
		return false
	}
	return true
}

// Compare orders two teachers on an ordering field; unknown fields compare equal.
func Compare(a, b Teacher, field string) int {
	switch field {
	case "name":
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case "salary":
		return a.Salary.Cmp(b.Salary)
	case "created_at":
		return compareTime(a.CreatedAt, b.CreatedAt)
	case "last_payment_date":
		ta, _ := a.LastPayment()
		tb, _ := b.LastPayment()
		return compareTime(ta, tb)
	case "payment_status":
		return strings.Compare(string(a.PaymentStatus), string(b.PaymentStatus))
	}
	return 0
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

// Change operations
const (
	OpCreate  = "create"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpPayment = "payment"
)

// Change is one applied mutation of the store.
type Change struct {
	Version   uint64    `json:"version"`
	Op        string    `json:"op"`
	TeacherID string    `json:"teacher_id"`
	At        time.Time `json:"at"` // UTC
}
