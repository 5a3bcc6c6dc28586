package gateway

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/polkiloo/storefront/internal/domain/model"
)

type recorder struct {
	proofs    []model.PaymentProof
	dismissed int
	failures  []error
}

func (r *recorder) session() *Session {
	return &Session{
		Key:       "rzp_key",
		Amount:    11800000,
		Currency:  "INR",
		Name:      "Storefront",
		OrderRef:  "order_rzp",
		OnSuccess: func(p model.PaymentProof) { r.proofs = append(r.proofs, p) },
		OnDismiss: func() { r.dismissed++ },
		OnError:   func(err error) { r.failures = append(r.failures, err) },
	}
}

func newHosted() *Hosted {
	return NewHosted(slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

func TestOpenPublishesView(t *testing.T) {
	h := newHosted()
	rec := &recorder{}

	view, err := h.Open(rec.session())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.ID == "" {
		t.Fatal("expected generated session id")
	}
	if view.Amount != 11800000 || view.Currency != "INR" || view.OrderRef != "order_rzp" {
		t.Fatalf("unexpected view %+v", view)
	}
	got, ok := h.Lookup(view.ID)
	if !ok || got != view {
		t.Fatalf("expected lookup to return view, got %+v %v", got, ok)
	}
}

func TestOpenRejectsIncompleteSession(t *testing.T) {
	h := newHosted()
	rec := &recorder{}

	cases := map[string]func(s *Session){
		"key":      func(s *Session) { s.Key = "" },
		"amount":   func(s *Session) { s.Amount = 0 },
		"order":    func(s *Session) { s.OrderRef = "" },
		"callback": func(s *Session) { s.OnDismiss = nil },
	}
	for name, mutate := range cases {
		s := rec.session()
		mutate(s)
		if _, err := h.Open(s); !errors.Is(err, ErrInvalidSession) {
			t.Fatalf("%s: expected invalid session, got %v", name, err)
		}
	}
	if _, err := h.Open(nil); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected invalid session for nil, got %v", err)
	}
}

func TestSucceedFiresOnceAndFillsOrderRef(t *testing.T) {
	h := newHosted()
	rec := &recorder{}
	view, err := h.Open(rec.session())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := h.Succeed(view.ID, model.PaymentProof{GatewayPaymentID: "pay_1", GatewaySignature: "sig"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.proofs) != 1 || rec.proofs[0].GatewayOrderID != "order_rzp" {
		t.Fatalf("unexpected proofs %+v", rec.proofs)
	}

	if err := h.Succeed(view.ID, model.PaymentProof{}); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("expected unknown session on second outcome, got %v", err)
	}
	if err := h.Dismiss(view.ID); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("expected unknown session on late dismiss, got %v", err)
	}
	if len(rec.proofs) != 1 || rec.dismissed != 0 {
		t.Fatalf("expected exactly one outcome, got %+v", rec)
	}
}

func TestDismissAndFail(t *testing.T) {
	h := newHosted()
	rec := &recorder{}

	first, _ := h.Open(rec.session())
	second, _ := h.Open(rec.session())

	if err := h.Dismiss(first.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cause := errors.New("card declined")
	if err := h.Fail(second.ID, cause); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.dismissed != 1 {
		t.Fatalf("expected one dismissal, got %d", rec.dismissed)
	}
	if len(rec.failures) != 1 || !errors.Is(rec.failures[0], cause) {
		t.Fatalf("unexpected failures %v", rec.failures)
	}
}

func TestCloseDropsWithoutCallback(t *testing.T) {
	h := newHosted()
	rec := &recorder{}
	view, _ := h.Open(rec.session())

	h.Close(view.ID)

	if _, ok := h.Lookup(view.ID); ok {
		t.Fatal("expected session to be dropped")
	}
	if err := h.Dismiss(view.ID); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("expected unknown session, got %v", err)
	}
	if rec.dismissed != 0 {
		t.Fatal("close must not fire callbacks")
	}
}
