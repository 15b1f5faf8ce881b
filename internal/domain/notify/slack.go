package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/FACorreiaa/payslip-vault/internal/domain/payslip"
	"github.com/FACorreiaa/payslip-vault/pkg/money"
)

// SlackNotifier posts Block Kit messages to an incoming webhook. Slack caps
// incoming webhooks at roughly one message per second, so posts go through a
// limiter.
type SlackNotifier struct {
	webhookURL    string
	viewerBaseURL string
	client        *http.Client
	limiter       *rate.Limiter
}

var _ Notifier = (*SlackNotifier)(nil)

// NewSlackNotifier creates a webhook-backed notifier. viewerBaseURL is used
// for the "View Payslip" button and may be empty.
func NewSlackNotifier(webhookURL, viewerBaseURL string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL:    webhookURL,
		viewerBaseURL: viewerBaseURL,
		client:        &http.Client{Timeout: 10 * time.Second},
		limiter:       rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

type slackText struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

type slackBlock struct {
	Type     string       `json:"type"`
	Text     *slackText   `json:"text,omitempty"`
	Fields   []slackText  `json:"fields,omitempty"`
	Elements []slackBlock `json:"elements,omitempty"`
	URL      string       `json:"url,omitempty"`
}

// PayslipStored posts the "Payslip Secured" confirmation.
func (s *SlackNotifier) PayslipStored(ctx context.Context, event StoredEvent) error {
	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: "Payslip Secured", Emoji: true},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Original File:*\n" + event.Filename},
				{Type: "mrkdwn", Text: "*Stored As:*\n" + event.BlobName},
				{Type: "mrkdwn", Text: "*Encryption:*\nAES-256-GCM"},
				{Type: "mrkdwn", Text: "*Received:*\n" + event.StoredAt.Format("Monday, 2 January 2006 15:04")},
			},
		},
	}
	if s.viewerBaseURL != "" {
		blocks = append(blocks, slackBlock{
			Type: "actions",
			Elements: []slackBlock{{
				Type: "button",
				Text: &slackText{Type: "plain_text", Text: "View Payslip"},
				URL:  s.viewerBaseURL + "/view/" + event.BlobID,
			}},
		})
	}
	blocks = append(blocks, slackBlock{
		Type: "context",
		Elements: []slackBlock{{
			Type: "mrkdwn",
			Text: &slackText{Type: "mrkdwn", Text: "Password-protected · Decrypted in your browser only"},
		}},
	})

	return s.post(ctx, blocks)
}

// PayslipChanges posts the ordered change report for a period.
func (s *SlackNotifier) PayslipChanges(ctx context.Context, periodDate time.Time, changes []payslip.Change) error {
	if len(changes) == 0 {
		return nil
	}

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{
				Type:  "plain_text",
				Text:  "Payslip Changes — " + periodDate.Format("January 2006"),
				Emoji: true,
			},
		},
	}
	for _, c := range changes {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: formatChange(c)},
		})
	}

	return s.post(ctx, blocks)
}

func formatChange(c payslip.Change) string {
	switch c.Type {
	case payslip.ChangeNew:
		return fmt.Sprintf("*%s* is new: %s", c.Field, money.Display(c.CurrentAmount))
	case payslip.ChangeRemoved:
		return fmt.Sprintf("*%s* removed (was %s)", c.Field, money.Display(c.PreviousAmount))
	default:
		arrow := "▲"
		if c.Type == payslip.ChangeDecreased {
			arrow = "▼"
		}
		return fmt.Sprintf("*%s* %s %s%% — %s → %s",
			c.Field, arrow, c.PercentChange.String(),
			money.Display(c.PreviousAmount), money.Display(c.CurrentAmount))
	}
}

func (s *SlackNotifier) post(ctx context.Context, blocks []slackBlock) error {
	if s.webhookURL == "" {
		return nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(map[string]any{"blocks": blocks})
	if err != nil {
		return fmt.Errorf("failed to marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack webhook failed: %d %s", resp.StatusCode, string(msg))
	}
	return nil
}
