package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/FACorreiaa/payslip-vault/internal/domain/payslip"
	"github.com/FACorreiaa/payslip-vault/pkg/money"
)

// EmailNotifier delivers events by email through Resend.
type EmailNotifier struct {
	client *resend.Client
	from   string
	to     string
}

var _ Notifier = (*EmailNotifier)(nil)

// NewEmailNotifier creates a Resend-backed notifier.
func NewEmailNotifier(apiKey, from, to string) *EmailNotifier {
	return &EmailNotifier{
		client: resend.NewClient(apiKey),
		from:   from,
		to:     to,
	}
}

// PayslipStored sends the vaulting confirmation.
func (e *EmailNotifier) PayslipStored(ctx context.Context, event StoredEvent) error {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Payslip Secured</h2>")
	fmt.Fprintf(&b, "<p><b>Original file:</b> %s<br>", event.Filename)
	fmt.Fprintf(&b, "<b>Stored as:</b> %s<br>", event.BlobName)
	fmt.Fprintf(&b, "<b>Received:</b> %s</p>", event.StoredAt.Format("2 January 2006 15:04"))

	return e.send(ctx, "Payslip secured", b.String())
}

// PayslipChanges sends the change report for a period.
func (e *EmailNotifier) PayslipChanges(ctx context.Context, periodDate time.Time, changes []payslip.Change) error {
	if len(changes) == 0 {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Payslip Changes — %s</h2><ul>", periodDate.Format("January 2006"))
	for _, c := range changes {
		switch c.Type {
		case payslip.ChangeNew:
			fmt.Fprintf(&b, "<li><b>%s</b> is new: %s</li>", c.Field, money.Display(c.CurrentAmount))
		case payslip.ChangeRemoved:
			fmt.Fprintf(&b, "<li><b>%s</b> removed (was %s)</li>", c.Field, money.Display(c.PreviousAmount))
		default:
			fmt.Fprintf(&b, "<li><b>%s</b> %s%%: %s → %s</li>",
				c.Field, c.PercentChange.String(),
				money.Display(c.PreviousAmount), money.Display(c.CurrentAmount))
		}
	}
	b.WriteString("</ul>")

	return e.send(ctx, "Payslip changes for "+periodDate.Format("January 2006"), b.String())
}

func (e *EmailNotifier) send(ctx context.Context, subject, html string) error {
	_, err := e.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    e.from,
		To:      []string{e.to},
		Subject: subject,
		Html:    html,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
