package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"monty/internal/storage"
)

// Completer generates a short text from a system and user prompt.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Broadcaster delivers a message to the configured chats.
type Broadcaster interface {
	Broadcast(text string) error
}

const digestSystemPrompt = "You are a friendly personal finance assistant for a couple. " +
	"Write a short, warm evening digest of today's spending. " +
	"Two or three sentences, one light observation, no financial advice."

// DigestService builds the daily spending digest and delivers it to
// Telegram. All clients are injected; a nil completer degrades to the
// plain summary text.
type DigestService struct {
	storage   *storage.SQLiteRepository
	completer Completer
	sender    Broadcaster
	now       func() time.Time
}

func NewDigestService(storage *storage.SQLiteRepository, completer Completer, sender Broadcaster) *DigestService {
	return &DigestService{
		storage:   storage,
		completer: completer,
		sender:    sender,
		now:       time.Now,
	}
}

// SendDaily composes and broadcasts the digest for today.
func (s *DigestService) SendDaily(ctx context.Context) (string, error) {
	return s.SendFor(ctx, s.now().UTC())
}

// SendFor composes and broadcasts the digest for the given day.
func (s *DigestService) SendFor(ctx context.Context, day time.Time) (string, error) {
	text, err := s.Compose(ctx, day)
	if err != nil {
		return "", err
	}
	if s.sender == nil {
		return text, fmt.Errorf("telegram sender not configured")
	}
	if err := s.sender.Broadcast(text); err != nil {
		return text, fmt.Errorf("deliver digest: %w", err)
	}
	return text, nil
}

// Compose builds the digest text without sending it.
func (s *DigestService) Compose(ctx context.Context, day time.Time) (string, error) {
	sums, err := s.storage.CategoryTotalsForDay(ctx, day)
	if err != nil {
		return "", fmt.Errorf("load daily totals: %w", err)
	}

	summary := buildDaySummary(day, sums)
	if s.completer == nil {
		return summary, nil
	}

	digest, err := s.completer.Complete(ctx, digestSystemPrompt, summary)
	if err != nil || strings.TrimSpace(digest) == "" {
		// fall back to the factual summary when the model is unavailable
		return summary, nil
	}
	return digest, nil
}

func buildDaySummary(day time.Time, sums []storage.CategorySum) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Spending for %s:\n", day.Format("2006-01-02"))
	if len(sums) == 0 {
		b.WriteString("No transactions recorded today.")
		return b.String()
	}
	var total int64
	for _, s := range sums {
		fmt.Fprintf(&b, "%s %s: %d\n", s.Icon, s.Name, s.Amount)
		total += s.Amount
	}
	fmt.Fprintf(&b, "Total: %d", total)
	return b.String()
}
