package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/roster/core/teacher"
	"github.com/trezcool/roster/services/clipboard"
	"github.com/trezcool/roster/tests"
)

// setup serves a fresh API over HTTP; it returns the CLI, the app behind it, the CLI output and the API URL.
func setup(t *testing.T) (*commandLine, *testutil.App, *bytes.Buffer, string) {
	app := testutil.NewApp(t)
	srv := httptest.NewServer(app.Server)
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	return &commandLine{out: &out}, app, &out, srv.URL
}

type cliTest struct {
	name       string
	args       []string // without program name and --api
	wantErr    error
	wantErrStr string
	wantOut    []string
}

func (tt cliTest) check(t *testing.T, err error, out string) {
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, errors.Cause(err))
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Equal(t, tt.wantErrStr, err.Error())
		}
	default:
		assert.NoError(t, err)
	}
	for _, want := range tt.wantOut {
		assert.Contains(t, out, want)
	}
}

func runArgs(apiURL string, args ...string) []string {
	return append([]string{"roster-admin", "--api", apiURL}, args...)
}

func Test_commandLine_teachers(t *testing.T) {
	cli, app, out, srvURL := setup(t)

	john := testutil.CreateTeacher(t, app.TeacherRepo, "John Doe", "john@example.com", "Mathematics", 5000,
		testutil.WithBank("1234567890123456", "SBIN0001234"), testutil.WithPayment(teacher.StatusPaid, "2024-05-15T10:00:00Z"))
	testutil.CreateTeacher(t, app.TeacherRepo, "Jane Smith", "jane@example.com", "English", 5200)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "teachers: no subcommand", args: []string{"teachers"}, wantErr: errHelp},
		{name: "list", args: []string{"teachers", "list"}, wantOut: []string{"John Doe", "Jane Smith", "5000.00", "2024-05-15"}},
		{name: "list: status filter", args: []string{"teachers", "list", "--status", "pending"}, wantOut: []string{"Jane Smith"}},
		{name: "show: unknown", args: []string{"teachers", "show", "nope"}, wantErrStr: "not found (404)"},
		{name: "show", args: []string{"teachers", "show", john.ID}, wantOut: []string{"john@example.com", "SBIN0001234", "Bank Transfer"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			err := cli.run(runArgs(srvURL, tt.args...))
			tt.check(t, err, out.String())
		})
	}

	t.Run("status filter excludes the others", func(t *testing.T) {
		out.Reset()
		require.NoError(t, cli.run(runArgs(srvURL, "teachers", "list", "--status", "pending")))
		assert.NotContains(t, out.String(), "John Doe")
	})
}

func Test_commandLine_pay(t *testing.T) {
	cli, app, out, srvURL := setup(t)

	john := testutil.CreateTeacher(t, app.TeacherRepo, "John Doe", "john@example.com", "Mathematics", 5000,
		testutil.WithBank("1234567890123456", "SBIN0001234"))
	jane := testutil.CreateTeacher(t, app.TeacherRepo, "Jane Smith", "jane@example.com", "English", 5200)

	type prompt struct {
		terminal bool
		answer   string
	}
	tests := []struct {
		cliTest
		prompt     prompt
		wantStatus teacher.PaymentStatus
	}{
		{
			cliTest:    cliTest{name: "no amount", args: []string{"pay", john.ID}, wantErr: errHelp},
			wantStatus: teacher.StatusPending,
		},
		{
			cliTest: cliTest{
				name:       "unavailable method",
				args:       []string{"pay", john.ID, "--amount", "5000", "--method", "upi"},
				wantErrStr: "UPI is not available for John Doe",
			},
			wantStatus: teacher.StatusPending,
		},
		{
			cliTest: cliTest{
				name:       "invalid amount",
				args:       []string{"pay", john.ID, "--amount", "15000", "-y"},
				wantErrStr: "Payment amount cannot exceed 2x the teacher's salary (400)",
			},
			wantStatus: teacher.StatusPending,
		},
		{
			cliTest: cliTest{
				name:       "no payment method",
				args:       []string{"pay", jane.ID, "--amount", "100", "-y"},
				wantErrStr: "No payment method available for this teacher (400)",
			},
			wantStatus: teacher.StatusPending,
		},
		{
			cliTest: cliTest{
				name:    "not a terminal",
				args:    []string{"pay", john.ID, "--amount", "5000", "--note", "May"},
				wantErr: errConfirmRequired,
				wantOut: []string{"John Doe", "$5000.00", "This action cannot be undone."},
			},
			wantStatus: teacher.StatusPending,
		},
		{
			cliTest: cliTest{
				name:    "declined",
				args:    []string{"pay", john.ID, "--amount", "5000"},
				wantOut: []string{"Payment cancelled."},
			},
			prompt:     prompt{terminal: true, answer: "n\n"},
			wantStatus: teacher.StatusPending,
		},
		{
			cliTest: cliTest{
				name:    "confirmed",
				args:    []string{"pay", john.ID, "--amount", "5000", "--note", "May", "--method", "bank"},
				wantOut: []string{"Bank Transfer (1234567890123456)", "$5000.00 has been sent to John Doe"},
			},
			prompt:     prompt{terminal: true, answer: "yes\n"},
			wantStatus: teacher.StatusPaid,
		},
		{
			cliTest: cliTest{
				name:       "already paid",
				args:       []string{"pay", john.ID, "--amount", "5000", "-y"},
				wantErrStr: "Payment already completed for this teacher (409)",
			},
			wantStatus: teacher.StatusPaid,
		},
	}
	for _, tt := range tests {
		isTerminalFunc = func(fd int) bool { return tt.prompt.terminal }
		readConfirmFunc = func(string) (string, error) { return tt.prompt.answer, nil }

		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			err := cli.run(runArgs(srvURL, tt.args...))
			tt.check(t, err, out.String())

			got, err := app.TeacherRepo.GetTeacherByID(context.Background(), john.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got.PaymentStatus)
			assert.Zero(t, app.Registry.Len(), "sessions are discarded")
		})
	}
}

func Test_commandLine_copy(t *testing.T) {
	cli, app, out, srvURL := setup(t)

	john := testutil.CreateTeacher(t, app.TeacherRepo, "John Doe", "john@example.com", "Mathematics", 5000,
		testutil.WithBank(teacher.NotProvided, teacher.NotProvided), testutil.WithUPI("john@okaxis"))

	var copied string
	copyFunc = func(value, field string) error {
		if !teacher.IsAvailable(value) {
			return clipboardsvc.ErrNothingToCopy
		}
		copied = value
		return nil
	}

	tests := []struct {
		cliTest
		wantCopied string
	}{
		{cliTest: cliTest{name: "unknown field", args: []string{"copy", john.ID, "--field", "salary"},
			wantErrStr: `unknown field "salary", expected one of account, ifsc, upi, email or phone`}},
		{cliTest: cliTest{name: "sentinel", args: []string{"copy", john.ID, "--field", "ifsc"}, wantErr: clipboardsvc.ErrNothingToCopy}},
		{cliTest: cliTest{name: "default field is the account", args: []string{"copy", john.ID}, wantErr: clipboardsvc.ErrNothingToCopy}},
		{cliTest: cliTest{name: "upi", args: []string{"copy", john.ID, "-f", "upi"}, wantOut: []string{"upi copied to clipboard"}}, wantCopied: "john@okaxis"},
		{cliTest: cliTest{name: "email", args: []string{"copy", john.ID, "-f", "email"}}, wantCopied: "john@example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			copied = ""
			err := cli.run(runArgs(srvURL, tt.args...))
			tt.check(t, err, out.String())
			assert.Equal(t, tt.wantCopied, copied)
		})
	}
}
