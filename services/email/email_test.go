package emailsvc

import (
	"io"
	"log"
	"net/mail"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/roster/core"
	"github.com/trezcool/roster/services/logger"
)

func newTestConfig() *core.Config {
	return &core.Config{AppName: "Roster", TestMode: true}
}

func newTestLogger(conf *core.Config) core.Logger {
	l := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	l.Enable(false)
	return l
}

func testMessage(t *testing.T) *core.EmailMessage {
	msg := &core.EmailMessage{
		To:      []mail.Address{{Name: "John Doe", Address: "john@example.com"}},
		Cc:      []mail.Address{{Address: "finance@example.com"}},
		Subject: "Payment received",
		BodyStr: "Hello John",
	}
	require.NoError(t, msg.Attach(strings.NewReader("%PDF-1.3"), "receipt.pdf", "application/pdf"))
	return msg
}

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	conf := newTestConfig()
	svc := NewConsoleServiceMock(conf, newTestLogger(conf))
	ResetSentMessages()

	svc.SendMessages(
		testMessage(t),
		&core.EmailMessage{Subject: "no recipients", BodyStr: "dropped"},
		&core.EmailMessage{To: []mail.Address{{Address: "john@example.com"}}, Subject: "no content"},
	)

	sent := LastSentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "Payment received", sent[0].Subject)
	assert.Equal(t, "Hello John", sent[0].TextContent)

	ResetSentMessages()
	assert.Empty(t, LastSentMessages())
}

func TestConsoleService_send(t *testing.T) {
	conf := newTestConfig()
	var out strings.Builder
	svc := consoleService{
		defaultFromEmail: mail.Address{Name: "Roster", Address: "noreply@localhost"},
		subjPrefix:       "[Roster] ",
		std:              log.New(&out, "", 0),
		logger:           newTestLogger(conf),
	}

	msg := testMessage(t)
	require.NoError(t, msg.Render())
	require.NoError(t, svc.send(*msg))

	body := out.String()
	assert.Contains(t, body, "Subject: [Roster] Payment received")
	assert.Contains(t, body, `To: "John Doe" <john@example.com>`)
	assert.Contains(t, body, "CC: <finance@example.com>")
	assert.Contains(t, body, "Content-Type: multipart/mixed")
	assert.Contains(t, body, "attachment; filename=receipt.pdf")
	assert.Contains(t, body, "Hello John")
}

func TestSendgridService_prepare(t *testing.T) {
	conf := newTestConfig()
	svc := NewSendgridService(conf, newTestLogger(conf)).(*sendgridService)

	msg := testMessage(t)
	msg.TemplateName = "payment_receipt"
	msg.HTMLContent = "<p>Hello John</p>"
	require.NoError(t, msg.Render())
	m := svc.prepare(*msg)

	require.Len(t, m.Personalizations, 1)
	p := m.Personalizations[0]
	assert.Equal(t, "[Roster] Payment received", p.Subject)
	require.Len(t, p.To, 1)
	assert.Equal(t, "john@example.com", p.To[0].Address)
	require.Len(t, p.CC, 1)

	assert.Equal(t, "noreply@localhost", m.From.Address)
	require.Len(t, m.Content, 2)
	assert.Equal(t, "text/plain", m.Content[0].Type)
	assert.Equal(t, "text/html", m.Content[1].Type)

	require.Len(t, m.Attachments, 1)
	assert.Equal(t, "receipt.pdf", m.Attachments[0].Filename)
	assert.Equal(t, "attachment", m.Attachments[0].Disposition)

	assert.Equal(t, []string{"payment_receipt"}, m.Categories)
	require.NotNil(t, m.MailSettings)
	assert.True(t, *m.MailSettings.SandboxMode.Enable, "test mode only validates")
}

func TestSendgridService_send(t *testing.T) {
	conf := newTestConfig()
	svc := NewSendgridService(conf, newTestLogger(conf)).(*sendgridService)
	origAPI := sendgridAPIFunc
	defer func() { sendgridAPIFunc = origAPI }()

	errDown := errors.New("connection refused")
	tests := []struct {
		name     string
		msg      *core.EmailMessage
		res      *rest.Response
		apiErr   error
		wantCall bool
		wantErr  bool
	}{
		{name: "accepted", msg: testMessage(t), res: &rest.Response{StatusCode: 202}, wantCall: true},
		{name: "rejected", msg: testMessage(t), res: &rest.Response{StatusCode: 400, Body: "bad"}, wantCall: true, wantErr: true},
		{name: "unreachable", msg: testMessage(t), apiErr: errDown, wantCall: true, wantErr: true},
		{name: "no recipients", msg: &core.EmailMessage{BodyStr: "dropped"}},
		{name: "unknown template", msg: &core.EmailMessage{To: []mail.Address{{Address: "john@example.com"}}, TemplateName: "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			sendgridAPIFunc = func(req rest.Request) (*rest.Response, error) {
				called = true
				assert.Equal(t, rest.Post, req.Method)
				assert.Contains(t, req.BaseURL, "/v3/mail/send")
				return tt.res, tt.apiErr
			}

			err := svc.send(tt.msg)
			assert.Equal(t, tt.wantCall, called)
			assert.Equal(t, tt.wantErr, err != nil, "err = %v", err)
		})
	}
}
