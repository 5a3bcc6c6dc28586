package gateway

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/polkiloo/storefront/internal/domain/model"
)

var (
	// ErrUnknownSession indicates the gateway session was never opened or was already closed.
	ErrUnknownSession = errors.New("unknown gateway session")
	// ErrInvalidSession indicates the session misses mandatory launch parameters.
	ErrInvalidSession = errors.New("invalid gateway session")
)

// Prefill holds customer details shown on the payment form.
type Prefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

// Session is an opaque payment session. Exactly one of the callbacks fires per session.
type Session struct {
	ID          string
	Key         string
	Amount      int64
	Currency    string
	Name        string
	Description string
	OrderRef    string
	Prefill     Prefill

	OnSuccess func(model.PaymentProof)
	OnDismiss func()
	OnError   func(error)
}

// View is the part of a session the UI needs to render the hosted payment form.
type View struct {
	ID          string  `json:"id"`
	Key         string  `json:"key"`
	Amount      int64   `json:"amount"`
	Currency    string  `json:"currency"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	OrderRef    string  `json:"orderId"`
	Prefill     Prefill `json:"prefill"`
}

func (s *Session) view() View {
	return View{
		ID:          s.ID,
		Key:         s.Key,
		Amount:      s.Amount,
		Currency:    s.Currency,
		Name:        s.Name,
		Description: s.Description,
		OrderRef:    s.OrderRef,
		Prefill:     s.Prefill,
	}
}

func (s *Session) validate() error {
	switch {
	case s.Key == "":
		return fmt.Errorf("%w: missing key", ErrInvalidSession)
	case s.Amount <= 0:
		return fmt.Errorf("%w: non-positive amount", ErrInvalidSession)
	case s.OrderRef == "":
		return fmt.Errorf("%w: missing order reference", ErrInvalidSession)
	case s.OnSuccess == nil || s.OnDismiss == nil || s.OnError == nil:
		return fmt.Errorf("%w: missing callbacks", ErrInvalidSession)
	}
	return nil
}

// Launcher opens gateway sessions. Open returns as soon as the session is handed over.
type Launcher interface {
	Open(s *Session) (View, error)
	Close(id string)
}

// Hosted publishes sessions to the UI and dispatches the outcomes it reports back.
type Hosted struct {
	mu       sync.Mutex
	sessions map[string]*Session
	logger   *slog.Logger
}

// NewHosted creates empty hosted launcher.
func NewHosted(logger *slog.Logger) *Hosted {
	return &Hosted{sessions: make(map[string]*Session), logger: logger}
}

// Open registers the session and returns what the UI needs to launch it.
func (h *Hosted) Open(s *Session) (View, error) {
	if s == nil {
		return View{}, ErrInvalidSession
	}
	if err := s.validate(); err != nil {
		return View{}, err
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	h.mu.Lock()
	h.sessions[s.ID] = s
	h.mu.Unlock()

	h.logger.Info("gateway session opened",
		slog.String("gateway_session", s.ID),
		slog.String("order_ref", s.OrderRef),
		slog.Int64("amount", s.Amount),
	)
	return s.view(), nil
}

// Close drops the session without firing any callback.
func (h *Hosted) Close(id string) {
	h.mu.Lock()
	delete(h.sessions, id)
	h.mu.Unlock()
}

// Lookup returns the view of an open session.
func (h *Hosted) Lookup(id string) (View, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[id]
	if !ok {
		return View{}, false
	}
	return s.view(), true
}

// Succeed reports a completed payment.
func (h *Hosted) Succeed(id string, proof model.PaymentProof) error {
	s, err := h.take(id)
	if err != nil {
		return err
	}
	if proof.GatewayOrderID == "" {
		proof.GatewayOrderID = s.OrderRef
	}
	s.OnSuccess(proof)
	return nil
}

// Dismiss reports that the user closed the payment form.
func (h *Hosted) Dismiss(id string) error {
	s, err := h.take(id)
	if err != nil {
		return err
	}
	s.OnDismiss()
	return nil
}

// Fail reports a gateway side failure.
func (h *Hosted) Fail(id string, cause error) error {
	s, err := h.take(id)
	if err != nil {
		return err
	}
	s.OnError(cause)
	return nil
}

// take removes the session so that later outcomes for it are rejected.
func (h *Hosted) take(id string) (*Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[id]
	if !ok {
		return nil, ErrUnknownSession
	}
	delete(h.sessions, id)
	return s, nil
}
