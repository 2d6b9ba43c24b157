package receiptsvc

import (
	"bytes"
	"fmt"
	"net/mail"

	"github.com/trezcool/roster/core"
	"github.com/trezcool/roster/core/payment"
	"github.com/trezcool/roster/core/teacher"
)

const receiptTemplate = "payment_receipt"

type emailNotifier struct {
	appName string
	mailSvc core.EmailService
	logger  core.Logger
}

var _ payment.Notifier = (*emailNotifier)(nil)

// NewEmailNotifier mails a receipt, PDF attached, to the teacher of every settled payment.
func NewEmailNotifier(conf *core.Config, mailSvc core.EmailService, logger core.Logger) payment.Notifier {
	return &emailNotifier{appName: conf.AppName, mailSvc: mailSvc, logger: logger}
}

func (n *emailNotifier) PaymentSettled(t teacher.Teacher, r payment.Receipt) {
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: t.Name, Address: t.Email}},
		Subject:      "Payment received",
		TemplateName: receiptTemplate,
		TemplateData: map[string]interface{}{
			"AppName":   n.appName,
			"Name":      t.Name,
			"Amount":    r.Amount.StringFixed(2),
			"Currency":  r.Currency,
			"Method":    r.Method.Label(),
			"Reference": r.Reference,
			"Note":      r.Note,
			"SettledAt": r.SettledAt.Format("January 2, 2006 15:04 MST"),
		},
	}

	var pdf bytes.Buffer
	if err := Render(&pdf, r, n.appName); err != nil {
		n.logger.Error(fmt.Sprintf("rendering receipt %s: %v", r.ID, err), err, r)
	} else if err := msg.Attach(&pdf, Filename(r), "application/pdf"); err != nil {
		n.logger.Error(fmt.Sprintf("attaching receipt %s: %v", r.ID, err), err, r)
	}

	n.mailSvc.SendMessages(msg)
}
