package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/polkiloo/storefront/internal/adapter/backend"
	"github.com/polkiloo/storefront/internal/adapter/gateway"
	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
	"github.com/polkiloo/storefront/internal/pricing"
	"github.com/polkiloo/storefront/internal/usecase"
)

const trialSignature = "trial_signature"

// CartStore is the cart mirror the orchestrator reads and clears.
type CartStore interface {
	Get(ctx context.Context, p model.Principal) (*model.Cart, error)
	Snapshot(owner string) (*model.Cart, bool)
	Clear(ctx context.Context, p model.Principal) (*model.Cart, error)
}

// AddressResolver prefills the shipping address.
type AddressResolver interface {
	Resolve(ctx context.Context, p model.Principal, at *model.Coordinates) usecase.AddressResolution
}

// PaymentGateway launches payment sessions and routes the outcomes the UI reports.
type PaymentGateway interface {
	gateway.Launcher
	Succeed(id string, proof model.PaymentProof) error
	Dismiss(id string) error
	Fail(id string, cause error) error
}

// Options tune the orchestrator.
type Options struct {
	Currency        string
	Merchant        string
	ConfirmInterval time.Duration
	ConfirmAttempts int
	SessionTTL      time.Duration
}

// Orchestrator drives checkout sessions from address entry to a placed order.
type Orchestrator struct {
	backend   backend.Client
	carts     CartStore
	addresses AddressResolver
	gateway   PaymentGateway
	attempts  repository.AttemptRepository
	opts      Options
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator constructs Orchestrator. attempts may be nil, the ledger is then skipped.
func NewOrchestrator(
	client backend.Client,
	carts CartStore,
	addresses AddressResolver,
	gw PaymentGateway,
	attempts repository.AttemptRepository,
	opts Options,
	logger *slog.Logger,
) *Orchestrator {
	if opts.Currency == "" {
		opts.Currency = "INR"
	}
	if opts.ConfirmAttempts <= 0 {
		opts.ConfirmAttempts = 1
	}
	if opts.ConfirmInterval < 0 {
		opts.ConfirmInterval = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		backend:   client,
		carts:     carts,
		addresses: addresses,
		gateway:   gw,
		attempts:  attempts,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
		sessions:  make(map[string]*session),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Close cancels pending verifications and waits for them to finish.
func (o *Orchestrator) Close() {
	o.cancel()
	o.wg.Wait()
}

// Start opens a checkout session for a non-empty cart with a prefilled address.
func (o *Orchestrator) Start(ctx context.Context, p model.Principal, hint *model.Coordinates) (Snapshot, error) {
	cart, err := o.carts.Get(ctx, p)
	if err != nil {
		return Snapshot{}, err
	}
	if cart.IsEmpty() {
		return Snapshot{}, domainErrors.ErrEmptyCart
	}

	res := o.addresses.Resolve(ctx, p, hint)
	now := o.now()
	s := &session{
		id:        uuid.NewString(),
		owner:     p.Owner,
		created:   now,
		principal: p,
		profile:   res.Profile,
		state:     AddressEntry{Address: res.Address, Source: res.Source},
		updated:   now,
		changed:   make(chan struct{}),
	}

	o.mu.Lock()
	o.sessions[s.id] = s
	o.mu.Unlock()

	o.logger.Info("checkout started",
		slog.String("session", s.id),
		slog.String("owner", s.owner),
		slog.String("address_source", string(res.Source)),
	)
	return o.snapshot(s), nil
}

// Get returns the current state of the session.
func (o *Orchestrator) Get(p model.Principal, id string) (Snapshot, error) {
	s, err := o.lookup(p, id)
	if err != nil {
		return Snapshot{}, err
	}
	return o.snapshot(s), nil
}

// AwaitSettled blocks while the session is submitting or verifying. On context
// expiry it returns the current state together with the context error.
func (o *Orchestrator) AwaitSettled(ctx context.Context, p model.Principal, id string) (Snapshot, error) {
	s, err := o.lookup(p, id)
	if err != nil {
		return Snapshot{}, err
	}
	for {
		s.mu.Lock()
		st, changed := s.state, s.changed
		s.mu.Unlock()
		if !processing(st) {
			return o.snapshot(s), nil
		}
		select {
		case <-ctx.Done():
			return o.snapshot(s), ctx.Err()
		case <-changed:
		}
	}
}

// UpdateAddress replaces the address form contents.
func (o *Orchestrator) UpdateAddress(p model.Principal, id string, addr model.ShippingAddress) (Snapshot, error) {
	return o.transition(p, id, func(st State) (State, error) {
		cur, ok := st.(AddressEntry)
		if !ok {
			return nil, domainErrors.ErrIllegalTransition
		}
		return updateAddress(cur, addr), nil
	})
}

// ConfirmAddress moves to payment selection once the address is complete.
func (o *Orchestrator) ConfirmAddress(p model.Principal, id string) (Snapshot, error) {
	return o.transition(p, id, func(st State) (State, error) {
		cur, ok := st.(AddressEntry)
		if !ok {
			return nil, domainErrors.ErrIllegalTransition
		}
		return confirmAddress(cur)
	})
}

// EditAddress goes back from payment selection to the address form.
func (o *Orchestrator) EditAddress(p model.Principal, id string) (Snapshot, error) {
	return o.transition(p, id, func(st State) (State, error) {
		cur, ok := st.(PaymentSelection)
		if !ok {
			return nil, domainErrors.ErrIllegalTransition
		}
		return editAddress(cur), nil
	})
}

// SelectPaymentMethod chooses online payment or cash on delivery.
func (o *Orchestrator) SelectPaymentMethod(p model.Principal, id string, method model.PaymentMethod) (Snapshot, error) {
	return o.transition(p, id, func(st State) (State, error) {
		cur, ok := st.(PaymentSelection)
		if !ok {
			return nil, domainErrors.ErrIllegalTransition
		}
		return selectMethod(cur, method)
	})
}

// Retry returns a retryable failure to payment selection.
func (o *Orchestrator) Retry(p model.Principal, id string) (Snapshot, error) {
	return o.transition(p, id, func(st State) (State, error) {
		cur, ok := st.(Failed)
		if !ok {
			return nil, domainErrors.ErrIllegalTransition
		}
		return retry(cur)
	})
}

// Discard drops the session. An open gateway session is closed without outcome.
func (o *Orchestrator) Discard(p model.Principal, id string) error {
	s, err := o.lookup(p, id)
	if err != nil {
		return err
	}
	if !s.gate.TryLock() {
		return domainErrors.ErrTransitionInFlight
	}
	defer s.gate.Unlock()

	o.drop(o.ctx, s)
	o.logger.Info("checkout discarded", slog.String("session", s.id))
	return nil
}

// Submit places the order. A live online order opens the payment gateway; every
// other order is confirmed in the background while the session shows VERIFYING.
// Backend failures end in a retryable FAILED state, not in an error.
func (o *Orchestrator) Submit(ctx context.Context, p model.Principal, id string) (Snapshot, error) {
	s, err := o.lookup(p, id)
	if err != nil {
		return Snapshot{}, err
	}
	if !s.gate.TryLock() {
		return Snapshot{}, domainErrors.ErrTransitionInFlight
	}

	s.mu.Lock()
	cur, ok := s.state.(PaymentSelection)
	if !ok {
		s.mu.Unlock()
		s.gate.Unlock()
		return Snapshot{}, domainErrors.ErrIllegalTransition
	}
	sub := submit(cur, uuid.NewString())
	o.setState(s, sub)
	principal := s.principal
	s.mu.Unlock()

	// Once the order request is sent its outcome belongs to the session, not to
	// the caller. BACKEND_TIMEOUT still bounds the call.
	ctx = context.WithoutCancel(ctx)

	o.beginAttempt(ctx, s, sub)

	placed, err := o.backend.CreateOrder(ctx, principal.Token, backend.CreateOrderRequest{
		Address:        sub.Address,
		Method:         sub.Method,
		IdempotencyKey: sub.IdempotencyKey,
	})
	if err == nil && (placed == nil || placed.Order == nil) {
		err = backend.ErrMalformedResponse
	}
	if err != nil {
		o.logger.Warn("order creation failed", slog.String("session", s.id), slog.Any("error", err))
		o.apply(s, rejected(sub, err))
		o.updateAttempt(ctx, s, func(a *model.Attempt) {
			a.Status = model.AttemptRejected
			a.LastError = err.Error()
		})
		s.gate.Unlock()
		return o.snapshot(s), nil
	}

	order := placed.Order
	o.checkTotals(s.owner, sub.Method, order)
	o.updateAttempt(ctx, s, func(a *model.Attempt) {
		a.OrderID = order.ID
		a.OrderNumber = order.Number
		a.GatewayOrderID = placed.GatewayOrderID
		a.PaymentStatus = order.Payment.Status
	})

	if sub.Method == model.PaymentOnline && !placed.TrialMode && placed.GatewayOrderID != "" {
		o.launchGateway(ctx, s, sub, placed)
		s.gate.Unlock()
		return o.snapshot(s), nil
	}

	next := deferConfirmation(sub, placed)
	o.apply(s, next)
	o.updateAttempt(ctx, s, func(a *model.Attempt) { a.Status = model.AttemptVerifying })

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer s.gate.Unlock()
		o.confirmDeferred(s, next)
	}()
	return o.snapshot(s), nil
}

// GatewaySucceeded routes a completed gateway payment into verification.
func (o *Orchestrator) GatewaySucceeded(p model.Principal, id string, proof model.PaymentProof) (Snapshot, error) {
	s, cur, err := o.awaitingGateway(p, id)
	if err != nil {
		return Snapshot{}, err
	}
	var missing []string
	if strings.TrimSpace(proof.GatewayPaymentID) == "" {
		missing = append(missing, "razorpayPaymentId")
	}
	if strings.TrimSpace(proof.GatewaySignature) == "" {
		missing = append(missing, "razorpaySignature")
	}
	if len(missing) > 0 {
		return Snapshot{}, domainErrors.NewValidationError("incomplete payment confirmation", missing...)
	}
	if proof.GatewayOrderID != "" && proof.GatewayOrderID != cur.Gateway.OrderRef {
		return Snapshot{}, domainErrors.NewValidationError("payment does not belong to this order", "razorpayOrderId")
	}
	if err := o.gateway.Succeed(cur.Gateway.ID, proof); err != nil {
		return Snapshot{}, gatewayErr(err)
	}
	return o.snapshot(s), nil
}

// GatewayDismissed reports that the user closed the payment form.
func (o *Orchestrator) GatewayDismissed(p model.Principal, id string) (Snapshot, error) {
	s, cur, err := o.awaitingGateway(p, id)
	if err != nil {
		return Snapshot{}, err
	}
	if err := o.gateway.Dismiss(cur.Gateway.ID); err != nil {
		return Snapshot{}, gatewayErr(err)
	}
	return o.snapshot(s), nil
}

// GatewayFailed reports a payment form failure such as a network error.
func (o *Orchestrator) GatewayFailed(p model.Principal, id, reason string) (Snapshot, error) {
	s, cur, err := o.awaitingGateway(p, id)
	if err != nil {
		return Snapshot{}, err
	}
	if reason == "" {
		reason = "gateway error"
	}
	if err := o.gateway.Fail(cur.Gateway.ID, errors.New(reason)); err != nil {
		return Snapshot{}, gatewayErr(err)
	}
	return o.snapshot(s), nil
}

func (o *Orchestrator) awaitingGateway(p model.Principal, id string) (*session, GatewayAwaiting, error) {
	s, err := o.lookup(p, id)
	if err != nil {
		return nil, GatewayAwaiting{}, err
	}
	s.mu.Lock()
	cur, ok := s.state.(GatewayAwaiting)
	s.mu.Unlock()
	if !ok {
		return nil, GatewayAwaiting{}, domainErrors.ErrIllegalTransition
	}
	return s, cur, nil
}

func gatewayErr(err error) error {
	if errors.Is(err, gateway.ErrUnknownSession) {
		return domainErrors.ErrIllegalTransition
	}
	return err
}

func (o *Orchestrator) launchGateway(ctx context.Context, s *session, sub OrderSubmitting, placed *model.PlacedOrder) {
	s.mu.Lock()
	profile := s.profile
	s.mu.Unlock()

	order := placed.Order
	gs := &gateway.Session{
		Key:         placed.GatewayKey,
		Amount:      pricing.MinorUnits(order.Pricing.Total),
		Currency:    o.opts.Currency,
		Name:        o.opts.Merchant,
		Description: "Order " + order.Number,
		OrderRef:    placed.GatewayOrderID,
		Prefill: gateway.Prefill{
			Name:    firstNonEmpty(profile.Name, sub.Address.FullName),
			Email:   profile.Email,
			Contact: firstNonEmpty(profile.Phone, sub.Address.Phone),
		},
		OnSuccess: func(proof model.PaymentProof) { o.onGatewaySuccess(s, proof) },
		OnDismiss: func() { o.onGatewayDismiss(s) },
		OnError:   func(err error) { o.onGatewayError(s, err) },
	}

	view, err := o.gateway.Open(gs)
	if err != nil {
		o.logger.Error("gateway launch failed",
			slog.String("session", s.id),
			slog.String("order", order.Number),
			slog.Any("error", err),
		)
		o.apply(s, gatewayUnavailable(sub))
		o.updateAttempt(ctx, s, func(a *model.Attempt) {
			a.Status = model.AttemptAbandoned
			a.LastError = err.Error()
		})
		return
	}

	next := awaitGateway(sub, placed)
	next.Gateway = view
	o.apply(s, next)
	o.updateAttempt(ctx, s, func(a *model.Attempt) { a.Status = model.AttemptAwaitingGateway })
}

func (o *Orchestrator) onGatewaySuccess(s *session, proof model.PaymentProof) {
	s.gate.Lock()
	s.mu.Lock()
	cur, ok := s.state.(GatewayAwaiting)
	if !ok {
		s.mu.Unlock()
		s.gate.Unlock()
		o.logger.Warn("gateway success for inactive checkout", slog.String("session", s.id))
		return
	}
	next := gatewayPaid(cur)
	o.setState(s, next)
	principal := s.principal
	s.mu.Unlock()

	o.updateAttempt(o.ctx, s, func(a *model.Attempt) { a.Status = model.AttemptVerifying })

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer s.gate.Unlock()
		o.verifyLive(s, next, principal, proof)
	}()
}

func (o *Orchestrator) onGatewayDismiss(s *session) {
	o.leaveGateway(s, "", func(cur GatewayAwaiting) PaymentSelection { return gatewayDismissed(cur) })
}

func (o *Orchestrator) onGatewayError(s *session, cause error) {
	o.logger.Warn("gateway reported an error", slog.String("session", s.id), slog.Any("error", cause))
	o.leaveGateway(s, cause.Error(), func(cur GatewayAwaiting) PaymentSelection { return gatewayFailed(cur) })
}

// leaveGateway returns to payment selection. The order stays pending server side.
func (o *Orchestrator) leaveGateway(s *session, reason string, to func(GatewayAwaiting) PaymentSelection) {
	s.gate.Lock()
	defer s.gate.Unlock()

	s.mu.Lock()
	cur, ok := s.state.(GatewayAwaiting)
	if ok {
		o.setState(s, to(cur))
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	o.updateAttempt(o.ctx, s, func(a *model.Attempt) {
		a.Status = model.AttemptAbandoned
		a.LastError = firstNonEmpty(reason, (&domainErrors.GatewayAbort{}).Error())
	})
}

// verifyLive checks the gateway proof with the backend. It is never retried.
func (o *Orchestrator) verifyLive(s *session, cur Verifying, p model.Principal, proof model.PaymentProof) {
	order, err := o.backend.VerifyPayment(o.ctx, p.Token, cur.Order.ID, proof)
	if err != nil {
		o.fail(s, cur, FailureContactSupport, &domainErrors.VerificationFailure{OrderID: cur.Order.ID, Err: err})
		return
	}
	o.succeed(s, cur, p, order)
}

// confirmDeferred waits for the backend to serve the order, then verifies trial
// payments with placeholder identifiers. Cash on delivery orders are confirmed at creation.
func (o *Orchestrator) confirmDeferred(s *session, cur Verifying) {
	s.mu.Lock()
	p := s.principal
	s.mu.Unlock()

	order, err := o.awaitOrder(o.ctx, p.Token, cur.Order.ID)
	if err != nil {
		o.fail(s, cur, FailureRedirectToOrders, &domainErrors.VerificationFailure{OrderID: cur.Order.ID, Err: err})
		return
	}
	if cur.GatewayOrderID != "" {
		proof := model.PaymentProof{
			GatewayOrderID:   cur.GatewayOrderID,
			GatewayPaymentID: fmt.Sprintf("trial_%d", o.now().UnixMilli()),
			GatewaySignature: trialSignature,
		}
		order, err = o.backend.VerifyPayment(o.ctx, p.Token, cur.Order.ID, proof)
		if err != nil {
			o.fail(s, cur, FailureRedirectToOrders, &domainErrors.VerificationFailure{OrderID: cur.Order.ID, Err: err})
			return
		}
	}
	o.succeed(s, cur, p, order)
}

func (o *Orchestrator) awaitOrder(ctx context.Context, token, orderID string) (*model.Order, error) {
	var lastErr error
	for i := 0; i < o.opts.ConfirmAttempts; i++ {
		if i > 0 || o.opts.ConfirmInterval > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(o.opts.ConfirmInterval):
			}
		}
		order, err := o.backend.GetOrder(ctx, token, orderID)
		if err == nil {
			return order, nil
		}
		lastErr = err
		o.logger.Debug("order not confirmed yet", slog.String("order", orderID), slog.Int("attempt", i+1), slog.Any("error", err))
	}
	return nil, lastErr
}

func (o *Orchestrator) succeed(s *session, cur Verifying, p model.Principal, order *model.Order) {
	if order == nil {
		order = cur.Order
	}
	o.clearCartOnce(s, p)
	o.updateAttempt(o.ctx, s, func(a *model.Attempt) {
		a.Status = model.AttemptSucceeded
		a.PaymentStatus = order.Payment.Status
		a.LastError = ""
	})
	o.apply(s, verified(cur, order))
}

func (o *Orchestrator) fail(s *session, cur Verifying, kind FailureKind, err error) {
	o.logger.Error("checkout verification failed",
		slog.String("session", s.id),
		slog.String("order", cur.Order.Number),
		slog.String("kind", string(kind)),
		slog.Any("error", err),
	)
	o.updateAttempt(o.ctx, s, func(a *model.Attempt) {
		a.Status = model.AttemptFailed
		a.LastError = err.Error()
	})
	o.apply(s, verificationFailed(cur, kind, err))
}

func (o *Orchestrator) clearCartOnce(s *session, p model.Principal) {
	s.mu.Lock()
	if s.cleared {
		s.mu.Unlock()
		return
	}
	s.cleared = true
	s.mu.Unlock()

	if _, err := o.carts.Clear(o.ctx, p); err != nil {
		o.logger.Warn("cart clear after order failed", slog.String("session", s.id), slog.Any("error", err))
	}
}

// checkTotals compares the backend order total with the local preview. The backend figure always wins.
func (o *Orchestrator) checkTotals(owner string, method model.PaymentMethod, order *model.Order) {
	cart, ok := o.carts.Snapshot(owner)
	if !ok {
		return
	}
	preview := pricing.ComputeTotals(cart, method)
	if !preview.Total.Equal(order.Pricing.Total) {
		o.logger.Warn("order total differs from preview",
			slog.String("order", order.Number),
			slog.String("preview_total", preview.Total.StringFixed(2)),
			slog.String("order_total", order.Pricing.Total.StringFixed(2)),
		)
	}
}

// transition runs a synchronous step under the session gate.
func (o *Orchestrator) transition(p model.Principal, id string, step func(State) (State, error)) (Snapshot, error) {
	s, err := o.lookup(p, id)
	if err != nil {
		return Snapshot{}, err
	}
	if !s.gate.TryLock() {
		return Snapshot{}, domainErrors.ErrTransitionInFlight
	}
	defer s.gate.Unlock()

	s.mu.Lock()
	next, err := step(s.state)
	if err == nil {
		o.setState(s, next)
	}
	s.mu.Unlock()
	if err != nil {
		return Snapshot{}, err
	}
	return o.snapshot(s), nil
}

func (o *Orchestrator) lookup(p model.Principal, id string) (*session, error) {
	o.mu.RLock()
	s, ok := o.sessions[id]
	o.mu.RUnlock()
	if !ok || s.owner != p.Owner {
		return nil, domainErrors.ErrSessionNotFound
	}
	if p.Token != "" {
		s.mu.Lock()
		s.principal = p
		s.mu.Unlock()
	}
	return s, nil
}

func (o *Orchestrator) apply(s *session, next State) {
	s.mu.Lock()
	o.setState(s, next)
	s.mu.Unlock()
}

// setState switches the state and wakes waiters. Caller holds s.mu.
func (o *Orchestrator) setState(s *session, next State) {
	prev := s.state
	s.state = next
	s.updated = o.now()
	close(s.changed)
	s.changed = make(chan struct{})

	attrs := []any{
		slog.String("session", s.id),
		slog.String("from", string(prev.Step())),
		slog.String("to", string(next.Step())),
	}
	if order := orderOf(next); order != nil {
		attrs = append(attrs, slog.String("order", order.Number))
	}
	o.logger.Info("checkout transition", attrs...)
}

func (o *Orchestrator) snapshot(s *session) Snapshot {
	s.mu.Lock()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if snap.Order == nil {
		if cart, ok := o.carts.Snapshot(s.owner); ok {
			totals := pricing.ComputeTotals(cart, snap.Method)
			snap.Totals = &totals
		}
	}
	return snap
}

// drop forgets the session. Caller holds s.gate.
func (o *Orchestrator) drop(ctx context.Context, s *session) {
	s.mu.Lock()
	cur, awaiting := s.state.(GatewayAwaiting)
	s.mu.Unlock()
	if awaiting {
		o.gateway.Close(cur.Gateway.ID)
		o.updateAttempt(ctx, s, func(a *model.Attempt) { a.Status = model.AttemptAbandoned })
	}

	o.mu.Lock()
	delete(o.sessions, s.id)
	o.mu.Unlock()
}

func (o *Orchestrator) beginAttempt(ctx context.Context, s *session, sub OrderSubmitting) {
	attempt := &model.Attempt{
		ID:             uuid.NewString(),
		SessionID:      s.id,
		Owner:          s.owner,
		IdempotencyKey: sub.IdempotencyKey,
		PaymentMethod:  sub.Method,
		Status:         model.AttemptSubmitting,
		PaymentStatus:  model.PaymentStatusPending,
	}
	s.mu.Lock()
	s.attempt = attempt
	record := *attempt
	s.mu.Unlock()

	if o.attempts == nil {
		return
	}
	if err := o.attempts.Create(ctx, &record); err != nil {
		o.logger.Warn("checkout attempt not recorded", slog.String("attempt", record.ID), slog.Any("error", err))
	}
}

func (o *Orchestrator) updateAttempt(ctx context.Context, s *session, mutate func(*model.Attempt)) {
	s.mu.Lock()
	if s.attempt == nil {
		s.mu.Unlock()
		return
	}
	mutate(s.attempt)
	record := *s.attempt
	s.mu.Unlock()

	if o.attempts == nil {
		return
	}
	if err := o.attempts.Update(context.WithoutCancel(ctx), &record); err != nil {
		o.logger.Warn("checkout attempt update failed", slog.String("attempt", record.ID), slog.Any("error", err))
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
