package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	echoapi "github.com/trezcool/roster/apps/api/echo"
	"github.com/trezcool/roster/core/payment"
	"github.com/trezcool/roster/core/teacher"
	clipboardsvc "github.com/trezcool/roster/services/clipboard"
)

const defaultAPIURL = "http://localhost:8000"

var (
	// mockable
	isTerminalFunc  = term.IsTerminal
	readConfirmFunc = readConfirm
	copyFunc        = clipboardsvc.Copy

	errHelp            = errors.New("help provided")
	errConfirmRequired = errors.New("payment not confirmed: re-run with --yes when stdin is not a terminal")
)

type commandLine struct {
	apiURL string
	out    io.Writer
	client *apiClient
}

func (cli *commandLine) run(args []string) error {
	root := cli.rootCommand()
	root.SetArgs(args[1:])
	if cli.out != nil {
		root.SetOut(cli.out)
		root.SetErr(cli.out)
	}
	return root.ExecuteContext(context.Background())
}

func (cli *commandLine) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "roster-admin",
		Short:         "Administer the teacher roster through its API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cli.client = newAPIClient(cli.apiURL)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errHelp
		},
	}

	apiURL := os.Getenv("ROSTER_API")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	root.PersistentFlags().StringVar(&cli.apiURL, "api", apiURL, "base URL of the roster API (env ROSTER_API)")

	root.AddCommand(cli.teachersCommand(), cli.payCommand(), cli.copyCommand())
	return root
}

func (cli *commandLine) teachersCommand() *cobra.Command {
	var search string
	var statuses []string

	cmd := &cobra.Command{
		Use:   "teachers",
		Short: "List or show teachers",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errHelp
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the teachers, by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			teachers, err := cli.client.listTeachers(cmd.Context(), search, statuses)
			if err != nil {
				return err
			}
			printTeachers(cmd.OutOrStdout(), teachers)
			return nil
		},
	}
	list.Flags().StringVarP(&search, "search", "s", "", "filter on name, email or subject")
	list.Flags().StringSliceVar(&statuses, "status", nil, "filter on payment status (Paid, Pending, Overdue)")

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Show a teacher's profile and payment info",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := cli.client.getTeacher(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printTeacher(cmd.OutOrStdout(), t)
			return nil
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}

func (cli *commandLine) payCommand() *cobra.Command {
	var amount, note, method string
	var yes bool

	cmd := &cobra.Command{
		Use:   "pay ID",
		Short: "Pay a teacher",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if amount == "" {
				_ = cmd.Usage()
				return errHelp
			}
			return cli.pay(cmd.Context(), cmd.OutOrStdout(), args[0], payment.Method(method), payment.Form{
				Amount: payment.RawAmount(amount),
				Note:   note,
			}, yes)
		},
	}
	cmd.Flags().StringVarP(&amount, "amount", "a", "", "amount to pay")
	cmd.Flags().StringVarP(&note, "note", "n", "", "note attached to the payment")
	cmd.Flags().StringVarP(&method, "method", "m", "", "payment method: bank or upi (defaults to the first available)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not prompt for confirmation")
	return cmd
}

// pay runs a whole payment session: select the method, submit, confirm then commit.
func (cli *commandLine) pay(ctx context.Context, w io.Writer, teacherID string, m payment.Method, form payment.Form, yes bool) error {
	snap, err := cli.client.startPayment(ctx, teacherID)
	if err != nil {
		return err
	}
	defer func() { _ = cli.client.discardPayment(context.Background(), snap.ID) }()

	if m != payment.MethodNone && m != snap.Method {
		selected, err := cli.client.selectMethod(ctx, snap.ID, m)
		if err != nil {
			return err
		}
		if !selected {
			return errors.Errorf("%s is not available for %s", m.Label(), snap.TeacherName)
		}
	}

	summary, err := cli.client.submitPayment(ctx, snap.ID, form)
	if err != nil {
		return err
	}
	printSummary(w, summary)

	if !yes {
		if !isTerminalFunc(int(os.Stdin.Fd())) {
			_ = cli.client.cancelPayment(ctx, snap.ID)
			return errConfirmRequired
		}
		answer, err := readConfirmFunc(fmt.Sprintf("Confirm payment of $%s to %s? [y/N]: ", summary.Amount.StringFixed(2), summary.TeacherName))
		if err != nil {
			return errors.Wrap(err, "reading confirmation")
		}
		if answer = strings.ToLower(strings.TrimSpace(answer)); answer != "y" && answer != "yes" {
			if err := cli.client.cancelPayment(ctx, snap.ID); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(w, "Payment cancelled.")
			return nil
		}
	}

	_, _ = fmt.Fprintln(w, "Processing payment...")
	receipt, err := cli.client.confirmPayment(ctx, snap.ID)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "$%s has been sent to %s (ref %s)\n", receipt.Amount.StringFixed(2), receipt.TeacherName, receipt.Reference)
	return nil
}

func (cli *commandLine) copyCommand() *cobra.Command {
	var field string

	cmd := &cobra.Command{
		Use:   "copy ID",
		Short: "Copy a teacher's field to the clipboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := cli.client.getTeacher(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			value, err := clipboardsvc.Field(t.Teacher, field)
			if err != nil {
				return err
			}
			if err := copyFunc(value, field); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s copied to clipboard\n", field)
			return nil
		},
	}
	cmd.Flags().StringVarP(&field, "field", "f", "account", "account, ifsc, upi, email or phone")
	return cmd
}

func readConfirm(prompt string) (string, error) {
	fmt.Print(prompt)
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return answer, nil
}

// Output

func printTeachers(w io.Writer, teachers []echoapi.TeacherResponse) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tSUBJECT\tSALARY\tSTATUS\tLAST PAYMENT")
	for _, t := range teachers {
		last := "-"
		if t.Payment.LastPaymentDate != nil {
			last = fmt.Sprintf("%s (%d days)", t.Payment.LastPaymentDate.Format("2006-01-02"), t.Payment.DaysSinceLastPayment)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.Name, t.Subject, t.Salary.StringFixed(2), t.PaymentStatus, last)
	}
	_ = tw.Flush()
}

func printTeacher(w io.Writer, t echoapi.TeacherResponse) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	row := func(label, value string) {
		if value == "" {
			value = teacher.NotProvided
		}
		_, _ = fmt.Fprintf(tw, "%s:\t%s\n", label, value)
	}
	row("ID", t.ID)
	row("Name", t.Name)
	row("Email", t.Email)
	row("Phone", t.Phone)
	row("Subject", t.Subject)
	row("Salary", t.Salary.StringFixed(2))
	row("Joined", t.JoiningDate)
	row("Status", string(t.PaymentStatus))
	row("Paid this month", fmt.Sprint(t.Payment.IsPaidThisMonth))
	row("Days since payment", fmt.Sprint(t.Payment.DaysSinceLastPayment))
	if t.BankDetails != nil {
		row("Bank account", t.BankDetails.AccountNumber)
		row("IFSC", t.BankDetails.IFSCCode)
	}
	if t.UPIDetails != nil {
		row("UPI", t.UPIDetails.UPIID)
	}
	methods := make([]string, 0, len(t.Methods))
	for _, m := range t.Methods {
		methods = append(methods, m.Label())
	}
	row("Payment methods", strings.Join(methods, ", "))
	_ = tw.Flush()
}

func printSummary(w io.Writer, s payment.Summary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "Teacher:\t%s <%s>\n", s.TeacherName, s.TeacherEmail)
	_, _ = fmt.Fprintf(tw, "Subject:\t%s\n", s.Subject)
	_, _ = fmt.Fprintf(tw, "Amount:\t$%s\n", s.Amount.StringFixed(2))
	if s.Note != "" {
		_, _ = fmt.Fprintf(tw, "Note:\t%s\n", s.Note)
	}
	_, _ = fmt.Fprintf(tw, "Method:\t%s (%s)\n", s.MethodLabel, s.Destination)
	_ = tw.Flush()
	_, _ = fmt.Fprintln(w, s.Warning)
}
