package echoapi_test

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/roster/apps/api/echo"
	"github.com/trezcool/roster/core/teacher"
	"github.com/trezcool/roster/tests"
)

func Test_teacherApi_create(t *testing.T) {
	app := setup(t)
	testutil.CreateTeacher(t, app.TeacherRepo, "Jane Smith", "jane@example.com", "English", 5200)

	newTeacher := func(name, email, salary string, extra ...string) []byte {
		body := `{"basic": {"name": "` + name + `", "email": "` + email + `", "subject": "Maths", "salary": ` + salary + `}`
		for _, e := range extra {
			body += ", " + e
		}
		return []byte(body + "}")
	}

	tests := []httpTest{
		{
			name:     "missing fields",
			method:   http.MethodPost,
			path:     "/v1/teachers",
			body:     []byte(`{"basic": {}}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{
				"basic.name": "this field is required",
				"basic.email": "this field is required",
				"basic.subject": "this field is required",
				"basic.salary": "this field is required"
			}`),
		},
		{
			name:     "duplicate email",
			method:   http.MethodPost,
			path:     "/v1/teachers",
			body:     newTeacher("John Doe", "JANE@example.com", "5000"),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"basic.email": "a teacher with this email already exists"}`),
		},
		{
			name:     "paid without date",
			method:   http.MethodPost,
			path:     "/v1/teachers",
			body:     newTeacher("John Doe", "john@example.com", "5000", `"payment_status": "Paid"`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"last_payment_date": "last payment date is required when payment status is Paid"}`),
		},
		{
			name:     "half bank details",
			method:   http.MethodPost,
			path:     "/v1/teachers",
			body:     newTeacher("John Doe", "john@example.com", "5000", `"banking": {"account_number": "1234567890"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"banking.ifsc_code": "this field is required"}`),
		},
		{
			name:     "success",
			method:   http.MethodPost,
			path:     "/v1/teachers",
			body:     newTeacher("  John Doe ", "John@Example.com", "5000", `"banking": {"upi_id": "john@okaxis"}`),
			wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(tt.method, tt.path, tt.body)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusCreated {
				var got echoapi.TeacherResponse
				decode(t, rec, &got)
				assert.NotEmpty(t, got.ID)
				assert.Equal(t, "John Doe", got.Name)
				assert.Equal(t, "john@example.com", got.Email)
				assert.Equal(t, teacher.StatusPending, got.PaymentStatus)
				assert.Equal(t, "pending", string(got.Payment.Status))
				if assert.NotNil(t, got.UPIDetails) {
					assert.Equal(t, "john@okaxis", got.UPIDetails.UPIID)
				}
				assert.Equal(t, uint64(2), app.TeacherRepo.Version(ctxBg))
			}
		})
	}
}

func Test_teacherApi_query(t *testing.T) {
	app := setup(t)

	now := time.Now()
	paidOn := now.UTC().Format(time.RFC3339)
	john := testutil.CreateTeacher(t, app.TeacherRepo, "John Doe", "john@example.com", "Mathematics", 5000,
		testutil.WithPayment(teacher.StatusPaid, paidOn), testutil.WithCreatedAt(now))
	jane := testutil.CreateTeacher(t, app.TeacherRepo, "Jane Smith", "jane@example.com", "English", 5200,
		testutil.WithCreatedAt(now.Add(time.Minute)))
	bob := testutil.CreateTeacher(t, app.TeacherRepo, "Bob Maths", "bob@example.com", "Physics", 4800,
		testutil.WithPayment(teacher.StatusOverdue, ""), testutil.WithCreatedAt(now.Add(2*time.Minute)))

	path := func(search, ordering string, statuses ...string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		for _, s := range statuses {
			v.Add("status", s)
		}
		return "/v1/teachers?" + v.Encode()
	}

	tests := []struct {
		name    string
		path    string
		wantIDs []string
	}{
		{name: "all, oldest first", path: path("", ""), wantIDs: []string{john.ID, jane.ID, bob.ID}},
		{name: "search matches name or subject", path: path("MATH", ""), wantIDs: []string{john.ID, bob.ID}},
		{name: "search matches email", path: path("jane@", ""), wantIDs: []string{jane.ID}},
		{name: "status filter", path: path("", "", "paid", "Overdue"), wantIDs: []string{john.ID, bob.ID}},
		{name: "search AND status", path: path("math", "", "overdue"), wantIDs: []string{bob.ID}},
		{name: "ordering", path: path("", "-salary"), wantIDs: []string{jane.ID, john.ID, bob.ID}},
		{name: "no match", path: path("nobody", ""), wantIDs: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(http.MethodGet, tt.path)
			require.Equal(t, http.StatusOK, rec.Code)

			var got []echoapi.TeacherResponse
			decode(t, rec, &got)
			ids := make([]string, 0, len(got))
			for _, tchr := range got {
				ids = append(ids, tchr.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}

	t.Run("derived payment info", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/v1/teachers/"+john.ID)
		require.Equal(t, http.StatusOK, rec.Code)

		var got echoapi.TeacherResponse
		decode(t, rec, &got)
		assert.Equal(t, "paid", string(got.Payment.Status))
		assert.True(t, got.Payment.IsPaidThisMonth)
		assert.Equal(t, 0, got.Payment.DaysSinceLastPayment)
		assert.Empty(t, got.Methods)
	})
}

func Test_teacherApi_retrieveUpdateDestroy(t *testing.T) {
	app := setup(t)
	john := testutil.CreateTeacher(t, app.TeacherRepo, "John Doe", "john@example.com", "Mathematics", 5000,
		testutil.WithUPI("john@okaxis"))
	testutil.CreateTeacher(t, app.TeacherRepo, "Jane Smith", "jane@example.com", "English", 5200)

	tests := []httpTest{
		{
			name:     "retrieve unknown",
			method:   http.MethodGet,
			path:     "/v1/teachers/nope",
			wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: "not found"}),
		},
		{
			name:     "update with taken email",
			method:   http.MethodPut,
			path:     "/v1/teachers/" + john.ID,
			body:     []byte(`{"basic": {"email": "jane@example.com"}}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"basic.email": "a teacher with this email already exists"}`),
		},
		{
			name:     "update with invalid status",
			method:   http.MethodPut,
			path:     "/v1/teachers/" + john.ID,
			body:     []byte(`{"payment_status": "Late"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "update keeps blank identity fields",
			method:   http.MethodPut,
			path:     "/v1/teachers/" + john.ID,
			body:     []byte(`{"basic": {"subject": "Physics"}, "banking": {"upi_id": "john@okaxis"}}`),
			wantCode: http.StatusOK,
		},
		{
			name:     "destroy",
			method:   http.MethodDelete,
			path:     "/v1/teachers/" + john.ID,
			wantCode: http.StatusNoContent,
		},
		{
			name:     "destroy twice",
			method:   http.MethodDelete,
			path:     "/v1/teachers/" + john.ID,
			wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: "not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(tt.method, tt.path, tt.body)
			checkCodeAndData(t, tt, rec)

			if tt.method == http.MethodPut && tt.wantCode == http.StatusOK {
				var got echoapi.TeacherResponse
				decode(t, rec, &got)
				assert.Equal(t, john.ID, got.ID)
				assert.Equal(t, "John Doe", got.Name)
				assert.Equal(t, "john@example.com", got.Email)
				assert.Equal(t, "Physics", got.Subject)
				assert.True(t, john.Salary.Equal(got.Salary))
				assert.Equal(t, john.CreatedAt.Unix(), got.CreatedAt.Unix())
			}
		})
	}
}

func Test_teacherApi_setPaymentStatus(t *testing.T) {
	app := setup(t)
	john := testutil.CreateTeacher(t, app.TeacherRepo, "John Doe", "john@example.com", "Mathematics", 5000)
	path := "/v1/teachers/" + john.ID + "/payment-status"

	tests := []httpTest{
		{
			name:     "unknown status",
			method:   http.MethodPut,
			path:     path,
			body:     []byte(`{"status": "Late"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"status": "payment status must be one of Paid, Pending or Overdue"}`),
		},
		{
			name:     "paid without date",
			method:   http.MethodPut,
			path:     path,
			body:     []byte(`{"status": "Paid"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "invalid date",
			method:   http.MethodPut,
			path:     path,
			body:     []byte(`{"status": "Paid", "last_payment_date": "May 15"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "paid",
			method:   http.MethodPut,
			path:     path,
			body:     []byte(`{"status": "paid", "last_payment_date": "2024-05-15T10:00:00Z"}`),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(tt.method, tt.path, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}

	// failed attempts left the record untouched
	got, err := app.TeacherRepo.GetTeacherByID(ctxBg, john.ID)
	require.NoError(t, err)
	assert.Equal(t, teacher.StatusPaid, got.PaymentStatus)
	assert.Equal(t, "2024-05-15T10:00:00Z", got.LastPaymentDate)
	assert.Equal(t, uint64(2), app.TeacherRepo.Version(ctxBg))
}

func Test_teacherApi_changes(t *testing.T) {
	app := setup(t)
	john := testutil.CreateTeacher(t, app.TeacherRepo, "John Doe", "john@example.com", "Mathematics", 5000)
	jane := testutil.CreateTeacher(t, app.TeacherRepo, "Jane Smith", "jane@example.com", "English", 5200)
	require.Equal(t, http.StatusNoContent, app.do(http.MethodDelete, "/v1/teachers/"+john.ID).Code)

	t.Run("invalid since", func(t *testing.T) {
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"since": "since must be a non-negative integer"}`),
		}, app.do(http.MethodGet, "/v1/teachers/changes?since=-1"))
	})

	t.Run("since 1", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/v1/teachers/changes?since=1")
		require.Equal(t, http.StatusOK, rec.Code)

		var got echoapi.ChangesResponse
		decode(t, rec, &got)
		assert.Equal(t, uint64(3), got.Version)
		if assert.Len(t, got.Changes, 2) {
			assert.Equal(t, uint64(2), got.Changes[0].Version)
			assert.Equal(t, teacher.OpCreate, got.Changes[0].Op)
			assert.Equal(t, jane.ID, got.Changes[0].TeacherID)
			assert.Equal(t, uint64(3), got.Changes[1].Version)
			assert.Equal(t, teacher.OpDelete, got.Changes[1].Op)
			assert.Equal(t, john.ID, got.Changes[1].TeacherID)
		}
	})

	t.Run("up to date", func(t *testing.T) {
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: []byte(`{"version": 3, "changes": []}`),
		}, app.do(http.MethodGet, "/v1/teachers/changes?since=3"))
	})
}
