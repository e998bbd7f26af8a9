package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDigestSendFor(t *testing.T) {
	repo := newRepo(t)
	user := newUser(t, repo, 1, "Ann")
	day := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)

	seedTransaction(t, repo, "a", user.ID, catGroceries, 2500, day.Add(10*time.Hour))
	seedTransaction(t, repo, "b", user.ID, catSavings, 1000, day.Add(12*time.Hour))
	// different day, must not appear
	seedTransaction(t, repo, "c", user.ID, catGroceries, 9999, day.AddDate(0, 0, 1))

	completer := &fakeCompleter{response: "A cozy day: groceries and a bit set aside."}
	sender := &fakeBroadcaster{}
	svc := NewDigestService(repo, completer, sender)

	text, err := svc.SendFor(context.Background(), day)
	if err != nil {
		t.Fatalf("SendFor() error = %v", err)
	}
	if text != completer.response {
		t.Errorf("text = %q", text)
	}
	if len(sender.sent) != 1 || sender.sent[0] != completer.response {
		t.Errorf("sent = %v", sender.sent)
	}

	if len(completer.prompts) != 1 {
		t.Fatalf("prompts = %v", completer.prompts)
	}
	prompt := completer.prompts[0]
	if !strings.Contains(prompt, "2024-03-05") || !strings.Contains(prompt, "Groceries: 2500") {
		t.Errorf("prompt = %q", prompt)
	}
	if !strings.Contains(prompt, "Total: 3500") {
		t.Errorf("prompt total missing: %q", prompt)
	}
	if strings.Contains(prompt, "9999") {
		t.Errorf("prompt leaked another day: %q", prompt)
	}
}

func TestDigestFallsBackWithoutModel(t *testing.T) {
	repo := newRepo(t)
	user := newUser(t, repo, 1, "Ann")
	day := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	seedTransaction(t, repo, "a", user.ID, catGroceries, 2500, day.Add(time.Hour))

	svc := NewDigestService(repo, nil, &fakeBroadcaster{})
	text, err := svc.SendFor(context.Background(), day)
	if err != nil {
		t.Fatalf("SendFor() error = %v", err)
	}
	if !strings.Contains(text, "Groceries: 2500") {
		t.Errorf("fallback text = %q", text)
	}
}

func TestDigestFallsBackOnModelError(t *testing.T) {
	repo := newRepo(t)
	user := newUser(t, repo, 1, "Ann")
	day := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	seedTransaction(t, repo, "a", user.ID, catGroceries, 2500, day.Add(time.Hour))

	svc := NewDigestService(repo, &fakeCompleter{err: errors.New("rate limited")}, &fakeBroadcaster{})
	text, err := svc.SendFor(context.Background(), day)
	if err != nil {
		t.Fatalf("SendFor() error = %v", err)
	}
	if !strings.Contains(text, "Total: 2500") {
		t.Errorf("fallback text = %q", text)
	}
}

func TestDigestEmptyDay(t *testing.T) {
	repo := newRepo(t)
	svc := NewDigestService(repo, nil, nil)

	text, err := svc.Compose(context.Background(), time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if !strings.Contains(text, "No transactions") {
		t.Errorf("text = %q", text)
	}
}

func TestDigestDeliveryError(t *testing.T) {
	repo := newRepo(t)
	svc := NewDigestService(repo, nil, &fakeBroadcaster{err: errors.New("telegram down")})

	if _, err := svc.SendFor(context.Background(), time.Now().UTC()); err == nil {
		t.Error("expected delivery error")
	}
}
