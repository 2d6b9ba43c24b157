package receiptsvc

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"

	"github.com/trezcool/roster/core/payment"
)

// Filename is the download name of the receipt PDF.
func Filename(r payment.Receipt) string {
	return fmt.Sprintf("receipt-%s.pdf", r.Reference)
}

// Render writes r as a one-page A4 PDF.
func Render(w io.Writer, r payment.Receipt, appName string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Payment Receipt "+r.Reference, true)
	pdf.SetCreator(appName, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, appName)
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 10, "Payment Receipt")
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "", 12)
	row := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(45, 8, label)
		pdf.SetFont("Helvetica", "", 12)
		pdf.Cell(0, 8, value)
		pdf.Ln(8)
	}
	row("Receipt", r.ID)
	row("Reference", r.Reference)
	row("Teacher", r.TeacherName)
	row("Amount", fmt.Sprintf("%s %s", r.Amount.StringFixed(2), r.Currency))
	row("Method", r.Method.Label())
	row("Settled at", r.SettledAt.UTC().Format(time.RFC1123))
	if r.Note != "" {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(45, 8, "Note")
		pdf.SetFont("Helvetica", "", 12)
		pdf.MultiCell(0, 8, r.Note, "", "L", false)
	}

	pdf.Ln(10)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.Cell(0, 6, "This receipt was generated automatically.")

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(err, "rendering receipt pdf")
	}
	return nil
}
