package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/adam936936/bagua-ai/internal/backend"
	"github.com/adam936936/bagua-ai/internal/storage"
)

// VipState is the vip store's persisted state.
type VipState struct {
	Status       backend.VipStatus          `json:"status"`
	Plans        map[string]backend.VipPlan `json:"plans"`
	Orders       []backend.VipOrder         `json:"orders"`
	CurrentOrder *backend.VipOrder          `json:"currentOrder"`
}

// Vip orchestrates the plan listing and purchase workflows.
type Vip struct {
	api     *backend.Client
	session *Session
	store   storage.Storage
	log     zerolog.Logger

	mu    sync.Mutex
	state VipState
}

func NewVip(api *backend.Client, session *Session, store storage.Storage, log zerolog.Logger) *Vip {
	v := &Vip{
		api:     api,
		session: session,
		store:   store,
		log:     log,
	}
	v.restore()
	return v
}

func (v *Vip) restore() {
	raw, ok := v.store.Get(storage.SnapshotKey("vip"))
	if !ok {
		return
	}
	var st VipState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		v.log.Warn().Err(err).Msg("discarding corrupt vip snapshot")
		return
	}
	v.state = st
}

func (v *Vip) saveLocked() {
	raw, err := json.Marshal(v.state)
	if err != nil {
		v.log.Error().Err(err).Msg("encode vip snapshot")
		return
	}
	if err := v.store.Set(storage.SnapshotKey("vip"), string(raw)); err != nil {
		v.log.Error().Err(err).Msg("persist vip snapshot")
	}
}

// defaultPlans keeps the purchase page usable when the plan fetch fails.
func defaultPlans() map[string]backend.VipPlan {
	return map[string]backend.VipPlan{
		"monthly":  {Name: "月度会员", Price: 19.90},
		"yearly":   {Name: "年度会员", Price: 99.90},
		"lifetime": {Name: "终身会员", Price: 199.90},
	}
}

// LoadPlans fetches the plan catalog, falling back to fixed defaults on
// failure. Never returns an error.
func (v *Vip) LoadPlans(ctx context.Context) map[string]backend.VipPlan {
	plans, err := v.api.Plans(ctx)
	if err != nil || len(plans) == 0 {
		if err != nil {
			v.log.Warn().Err(err).Msg("plan fetch failed, using defaults")
		}
		plans = defaultPlans()
	}

	v.mu.Lock()
	v.state.Plans = plans
	v.saveLocked()
	v.mu.Unlock()
	return plans
}

// LoadStatus refreshes the plan-level VIP state. Best-effort: cached state
// survives a failed fetch.
func (v *Vip) LoadStatus(ctx context.Context) {
	status, err := v.api.Status(ctx, v.session.CurrentUserID())
	if err != nil {
		v.log.Warn().Err(err).Msg("vip status refresh failed, keeping cached state")
		return
	}

	v.mu.Lock()
	v.state.Status = *status
	v.saveLocked()
	v.mu.Unlock()
}

// LoadOrders refreshes the order list, best-effort.
func (v *Vip) LoadOrders(ctx context.Context) {
	orders, err := v.api.Orders(ctx, v.session.CurrentUserID())
	if err != nil {
		v.log.Warn().Err(err).Msg("order list refresh failed, keeping cached list")
		return
	}

	v.mu.Lock()
	v.state.Orders = orders
	v.saveLocked()
	v.mu.Unlock()
}

// CreateOrder creates a purchase order for the given plan and remembers it
// as the order currently being paid.
func (v *Vip) CreateOrder(ctx context.Context, planType string) (*backend.VipOrder, error) {
	order, err := v.api.CreateOrder(ctx, v.session.CurrentUserID(), planType)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	v.state.CurrentOrder = order
	v.saveLocked()
	v.mu.Unlock()
	return order, nil
}

// Pay requests host payment parameters for an order. The host runtime
// completes the payment; callers refresh status afterwards.
func (v *Vip) Pay(ctx context.Context, orderNo string) (*backend.PayParams, error) {
	return v.api.Pay(ctx, orderNo, v.session.OpenID())
}

// MockPayment settles an order through the test-only payment path, then
// reconciles VIP status with the server.
func (v *Vip) MockPayment(ctx context.Context, orderNo string) error {
	if err := v.api.MockPay(ctx, orderNo); err != nil {
		return err
	}
	v.LoadStatus(ctx)
	v.session.FetchVipStatus(ctx)
	return nil
}

// Purchase runs the full buy workflow: create order, pay, refresh status.
// Any failing step aborts and propagates; an abandoned order is left to
// expire server-side.
func (v *Vip) Purchase(ctx context.Context, planType string, mockPay bool) error {
	order, err := v.CreateOrder(ctx, planType)
	if err != nil {
		return err
	}

	if mockPay {
		return v.MockPayment(ctx, order.OrderNo)
	}

	if _, err := v.Pay(ctx, order.OrderNo); err != nil {
		return err
	}
	v.LoadStatus(ctx)
	v.session.FetchVipStatus(ctx)
	return nil
}

// IsVip reports the plan-level VIP flag.
func (v *Vip) IsVip() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.Status.IsVip
}

// State returns a copy of the current vip state.
func (v *Vip) State() VipState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Reset clears all vip state.
func (v *Vip) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = VipState{}
	v.store.Remove(storage.SnapshotKey("vip"))
}
