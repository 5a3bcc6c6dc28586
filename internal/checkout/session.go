package checkout

import (
	"sync"
	"time"

	"github.com/polkiloo/storefront/internal/adapter/gateway"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/pricing"
)

// session is one checkout attempt of one owner. It lives in memory only.
type session struct {
	id      string
	owner   string
	created time.Time

	// gate is held for the whole transition, including its asynchronous tail.
	gate sync.Mutex

	mu        sync.Mutex
	principal model.Principal
	profile   model.Profile
	state     State
	attempt   *model.Attempt
	cleared   bool
	updated   time.Time
	changed   chan struct{}
}

// Failure describes why a checkout ended in FAILED.
type Failure struct {
	Kind    FailureKind
	Message string
}

// Snapshot is a read-only copy of a checkout session.
type Snapshot struct {
	ID            string
	Step          Step
	Processing    bool
	Address       model.ShippingAddress
	AddressSource model.AddressSource
	Method        model.PaymentMethod
	Notice        string
	Order         *model.Order
	Gateway       *gateway.View
	Failure       *Failure
	Totals        *pricing.Totals
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// snapshotLocked copies the session state. Caller holds s.mu.
func (s *session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:         s.id,
		Step:       s.state.Step(),
		Processing: processing(s.state),
		CreatedAt:  s.created,
		UpdatedAt:  s.updated,
	}
	switch st := s.state.(type) {
	case AddressEntry:
		snap.Address = st.Address
		snap.AddressSource = st.Source
		snap.Method = model.PaymentOnline
	case PaymentSelection:
		snap.Address = st.Address
		snap.Method = st.Method
		snap.Notice = st.Notice
	case OrderSubmitting:
		snap.Address = st.Address
		snap.Method = st.Method
	case GatewayAwaiting:
		snap.Address = st.Address
		snap.Method = st.Method
		snap.Order = st.Order
		view := st.Gateway
		snap.Gateway = &view
	case Verifying:
		snap.Address = st.Address
		snap.Method = st.Method
		snap.Order = st.Order
	case Succeeded:
		snap.Order = st.Order
		if st.Order != nil {
			snap.Address = st.Order.ShippingAddress
			snap.Method = st.Order.Payment.Method
		}
	case Failed:
		snap.Address = st.Address
		snap.Method = st.Method
		snap.Order = st.Order
		snap.Failure = &Failure{Kind: st.Kind, Message: st.Message}
	}
	return snap
}

func orderOf(st State) *model.Order {
	switch s := st.(type) {
	case GatewayAwaiting:
		return s.Order
	case Verifying:
		return s.Order
	case Succeeded:
		return s.Order
	case Failed:
		return s.Order
	}
	return nil
}
