package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/yourusername/contest-api/internal/domain/entity"
)

// EmailService sends transactional emails after a contest settles.
type EmailService interface {
	SendSettlementSummary(ctx context.Context, toEmail string, contest *entity.Contest, settlement *entity.Settlement, idempotencyKey string) error
}

// NoopEmailService is used when no email backend is configured.
type NoopEmailService struct{}

func (s *NoopEmailService) SendSettlementSummary(ctx context.Context, toEmail string, contest *entity.Contest, settlement *entity.Settlement, idempotencyKey string) error {
	log.Printf("[EmailService] noop send settlement summary to=%s contest=%d", toEmail, contest.ID)
	return nil
}

// ResendEmailService sends emails via the Resend REST API.
type ResendEmailService struct {
	from   string
	client *resend.Client
}

func NewResendEmailService(apiKey, from string) (*ResendEmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	return &ResendEmailService{
		from:   from,
		client: resend.NewClient(apiKey),
	}, nil
}

// SendSettlementSummary mails the podium and payouts of a settled contest.
func (s *ResendEmailService) SendSettlementSummary(ctx context.Context, toEmail string, contest *entity.Contest, settlement *entity.Settlement, idempotencyKey string) error {
	if toEmail == "" {
		return fmt.Errorf("toEmail is required")
	}

	var textLines strings.Builder
	var htmlRows strings.Builder
	fmt.Fprintf(&textLines, "Contest %q settled.\nPrize pool: %.2f, platform fee: %.2f, winners pool: %.2f\n\n",
		contest.Title, settlement.PrizePool, settlement.PlatformFee, settlement.WinnersPool)
	for _, r := range settlement.Results {
		if r.PayoutAmount <= 0 {
			continue
		}
		fmt.Fprintf(&textLines, "Rank %d: submission #%d, total %.1f, payout %.2f\n",
			r.Rank, r.SubmissionID, r.TotalScore, r.PayoutAmount)
		fmt.Fprintf(&htmlRows, "<tr><td>%d</td><td>#%d</td><td>%.1f</td><td>%.2f</td></tr>",
			r.Rank, r.SubmissionID, r.TotalScore, r.PayoutAmount)
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{toEmail},
		Subject: fmt.Sprintf("Contest %q settled", contest.Title),
		Text:    textLines.String(),
		Html: fmt.Sprintf("<p>Contest <strong>%s</strong> settled. Winners pool: %.2f</p><table><tr><th>Rank</th><th>Submission</th><th>Total</th><th>Payout</th></tr>%s</table>",
			contest.Title, settlement.WinnersPool, htmlRows.String()),
	}

	options := &resend.SendEmailOptions{}
	if strings.TrimSpace(idempotencyKey) != "" {
		options.IdempotencyKey = strings.TrimSpace(idempotencyKey)
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		_, err := s.client.Emails.SendWithOptions(ctx, params, options)
		if err == nil {
			return nil
		}
		lastErr = err

		if wait, ok := resendRetryDelay(err, attempt); ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
				continue
			}
		}

		return fmt.Errorf("resend send failed: %w", err)
	}

	return fmt.Errorf("resend send failed after retries: %w", lastErr)
}

func resendRetryDelay(err error, attempt int) (time.Duration, bool) {
	var rateLimitErr *resend.RateLimitError
	if errors.As(err, &rateLimitErr) {
		if seconds, convErr := strconv.Atoi(strings.TrimSpace(rateLimitErr.RetryAfter)); convErr == nil && seconds > 0 {
			if seconds > 30 {
				seconds = 30
			}
			return time.Duration(seconds) * time.Second, true
		}
		return time.Duration(attempt+1) * time.Second, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && (netErr.Timeout() || netErr.Temporary()) {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "temporar") {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	return 0, false
}
