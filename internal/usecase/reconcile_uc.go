// File: internal/usecase/reconcile_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"discord-membership-payments/internal/domain"
	"discord-membership-payments/internal/domain/model"
	"discord-membership-payments/internal/domain/ports/repository"
	"discord-membership-payments/internal/infra/metrics"
)

// Compile-time check
var _ ReconcileUseCase = (*reconcileUC)(nil)

// ReconcileUseCase converges the membership store to match one lifecycle
// signal. Apply is safe under concurrent duplicate and competing deliveries.
type ReconcileUseCase interface {
	Apply(ctx context.Context, sig *model.Signal) error
}

// Outcome labels for logs and metrics.
const (
	OutcomeActivated     = "activated"
	OutcomeRenewed       = "renewed"
	OutcomeCancelled     = "cancelled"
	OutcomePaymentFailed = "payment_failed"
	OutcomeAccountSynced = "account_synced"
	OutcomeDuplicate     = "duplicate"
	OutcomeNotFound      = "not_found"
	OutcomeNoop          = "noop"
)

// Decision is the output of the pure transition function: the record to
// commit (nil means no write) and the side effects to dispatch after the
// write commits.
type Decision struct {
	Record  *model.MembershipRecord
	Effects []model.Effect
	Outcome string
}

// Decide computes the next membership state for one signal. It performs no
// I/O; the caller loads current (nil when absent) and commits the returned
// record before running any effect.
func Decide(now time.Time, feeBps int64, current *model.MembershipRecord, sig *model.Signal) (Decision, error) {
	switch sig.Kind {
	case model.SignalCheckoutCompleted:
		return decideCheckout(now, feeBps, current, sig.Checkout)

	case model.SignalSubscriptionRenewed:
		if current == nil {
			return Decision{Outcome: OutcomeNotFound}, nil
		}
		// Renewal returns cancelled or payment-failed records to active;
		// renewing an already-active record is a plain no-op write.
		return Decision{Record: current.WithStatus(model.MembershipStatusActive, now), Outcome: OutcomeRenewed}, nil

	case model.SignalSubscriptionCancelled:
		if current == nil {
			return Decision{Outcome: OutcomeNotFound}, nil
		}
		if current.Status == model.MembershipStatusCancelled {
			return Decision{Outcome: OutcomeDuplicate}, nil
		}
		return Decision{
			Record: current.WithStatus(model.MembershipStatusCancelled, now),
			Effects: []model.Effect{
				{Kind: model.EffectRevokeAccess, SubjectID: current.SubjectID, OrganizationID: current.OrganizationID, Tier: current.Tier},
				{Kind: model.EffectNotifySubject, SubjectID: current.SubjectID, OrganizationID: current.OrganizationID, Tier: current.Tier, Notice: model.NoticeSubscriptionCancelled},
				{Kind: model.EffectRefreshDashboard, OrganizationID: current.OrganizationID},
			},
			Outcome: OutcomeCancelled,
		}, nil

	case model.SignalPaymentFailed:
		if current == nil {
			return Decision{Outcome: OutcomeNotFound}, nil
		}
		if current.Status == model.MembershipStatusPaymentFailed {
			return Decision{Outcome: OutcomeDuplicate}, nil
		}
		// Access is not revoked on a first failure; the record is marked so a
		// later renewal can bring it back, and the subject gets a warning.
		return Decision{
			Record: current.WithStatus(model.MembershipStatusPaymentFailed, now),
			Effects: []model.Effect{
				{Kind: model.EffectNotifySubject, SubjectID: current.SubjectID, OrganizationID: current.OrganizationID, Tier: current.Tier, Notice: model.NoticePaymentWarning},
			},
			Outcome: OutcomePaymentFailed,
		}, nil

	default:
		return Decision{Outcome: OutcomeNoop}, nil
	}
}

func decideCheckout(now time.Time, feeBps int64, current *model.MembershipRecord, co *model.CheckoutCompleted) (Decision, error) {
	if current != nil && current.PaymentRef == co.PaymentRef {
		// Redelivery of a checkout we already applied.
		return Decision{Outcome: OutcomeDuplicate}, nil
	}

	split, err := model.SplitFee(co.GrossAmount, feeBps)
	if err != nil {
		return Decision{}, err
	}
	rec, err := model.NewMembershipRecord(
		uuid.NewString(),
		co.SubjectID,
		co.OrganizationID,
		co.Tier,
		co.PaymentMode,
		co.PaymentRef,
		co.SubscriptionRef,
		co.GrossAmount,
		split,
	)
	if err != nil {
		return Decision{}, err
	}
	// A fresh checkout replaces whatever record exists for (subject, tier),
	// keeping the at-most-one-active invariant without a delete.
	return Decision{
		Record: rec,
		Effects: []model.Effect{
			{Kind: model.EffectGrantAccess, SubjectID: co.SubjectID, OrganizationID: co.OrganizationID, Tier: co.Tier},
			{Kind: model.EffectNotifySubject, SubjectID: co.SubjectID, OrganizationID: co.OrganizationID, Tier: co.Tier, Notice: model.NoticePaymentSuccess},
			{Kind: model.EffectPostReceipt, SubjectID: co.SubjectID, OrganizationID: co.OrganizationID, Tier: co.Tier, Record: rec},
			{Kind: model.EffectRefreshDashboard, OrganizationID: co.OrganizationID},
		},
		Outcome: OutcomeActivated,
	}, nil
}

type reconcileUC struct {
	members    repository.MembershipRepository
	accounts   repository.ConnectedAccountRepository
	locker     repository.Locker
	dedup      repository.EventDeduper
	dispatcher EffectDispatcher
	feeBps     int64
	lockTTL    time.Duration
	log        *zerolog.Logger
}

func NewReconcileUseCase(
	members repository.MembershipRepository,
	accounts repository.ConnectedAccountRepository,
	locker repository.Locker,
	dedup repository.EventDeduper,
	dispatcher EffectDispatcher,
	feeBps int64,
	lockTTL time.Duration,
	logger *zerolog.Logger,
) *reconcileUC {
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	return &reconcileUC{
		members:    members,
		accounts:   accounts,
		locker:     locker,
		dedup:      dedup,
		dispatcher: dispatcher,
		feeBps:     feeBps,
		lockTTL:    lockTTL,
		log:        logger,
	}
}

func (u *reconcileUC) Apply(ctx context.Context, sig *model.Signal) error {
	if sig == nil {
		return domain.ErrInvalidArgument
	}

	seen, err := u.dedup.Seen(ctx, sig.EventID)
	if err != nil {
		// The dedup window is an optimization; the transition table absorbs
		// replays, so a redis hiccup must not fail the delivery.
		u.log.Warn().Err(err).Str("event_id", sig.EventID).Msg("event dedup unavailable")
	} else if seen {
		u.log.Debug().Str("event_id", sig.EventID).Msg("duplicate event id, skipping")
		metrics.IncSignal(string(sig.Kind), OutcomeDuplicate)
		return nil
	}

	if sig.Kind == model.SignalAccountUpdated {
		err = u.applyAccount(ctx, sig)
	} else {
		err = u.applyMembership(ctx, sig)
	}
	if err != nil {
		return err
	}
	// Mark only after the delivery is fully applied. A delivery answered
	// non-2xx stays unmarked so the processor's redelivery is not swallowed.
	if err := u.dedup.Mark(ctx, sig.EventID); err != nil {
		u.log.Warn().Err(err).Str("event_id", sig.EventID).Msg("event dedup mark failed")
	}
	return nil
}

func (u *reconcileUC) applyMembership(ctx context.Context, sig *model.Signal) error {
	key := lockKey(sig)
	token, err := u.locker.TryLock(ctx, key, u.lockTTL)
	if err != nil {
		return err
	}
	defer func() {
		if err := u.locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
			u.log.Warn().Err(err).Str("key", key).Msg("unlock failed")
		}
	}()

	current, err := u.loadCurrent(ctx, sig)
	if err != nil {
		return err
	}

	d, err := Decide(time.Now(), u.feeBps, current, sig)
	if err != nil {
		return err
	}
	if d.Record != nil {
		if err := u.members.Upsert(ctx, d.Record); err != nil {
			return err
		}
	}

	metrics.IncSignal(string(sig.Kind), d.Outcome)
	if d.Outcome == OutcomeActivated {
		metrics.IncPayment(string(d.Record.PaymentMode), d.Record.GrossAmount, d.Record.PlatformFee)
	}
	if d.Outcome == OutcomeNotFound {
		// Acknowledge anyway: events for subscriptions we never saw (manual
		// deletes in the processor dashboard, test events) must not retry forever.
		u.log.Warn().
			Str("kind", string(sig.Kind)).
			Str("subscription_ref", sig.SubscriptionRef).
			Msg("record not found for correlation key")
		return nil
	}
	u.log.Info().
		Str("kind", string(sig.Kind)).
		Str("outcome", d.Outcome).
		Int("effects", len(d.Effects)).
		Msg("signal applied")

	u.dispatcher.Dispatch(d.Effects)
	return nil
}

func (u *reconcileUC) applyAccount(ctx context.Context, sig *model.Signal) error {
	upd := sig.Account
	acc, err := u.accounts.GetByAccountRef(ctx, upd.ExternalAccountRef)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			u.log.Warn().Str("account_ref", upd.ExternalAccountRef).Msg("connected account not found")
			metrics.IncSignal(string(sig.Kind), OutcomeNotFound)
			return nil
		}
		return err
	}
	next := acc.WithCapabilities(upd.OnboardingComplete, upd.ChargesEnabled, upd.PayoutsEnabled, time.Now())
	if err := u.accounts.Upsert(ctx, next); err != nil {
		return err
	}
	metrics.IncSignal(string(sig.Kind), OutcomeAccountSynced)
	u.log.Info().
		Str("account_ref", upd.ExternalAccountRef).
		Bool("charges_enabled", upd.ChargesEnabled).
		Bool("payouts_enabled", upd.PayoutsEnabled).
		Msg("connected account capabilities updated")
	return nil
}

func (u *reconcileUC) loadCurrent(ctx context.Context, sig *model.Signal) (*model.MembershipRecord, error) {
	var (
		rec *model.MembershipRecord
		err error
	)
	if sig.Kind == model.SignalCheckoutCompleted {
		rec, err = u.members.Get(ctx, sig.Checkout.SubjectID, sig.Checkout.Tier)
	} else {
		rec, err = u.members.GetBySubscriptionRef(ctx, sig.SubscriptionRef)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

func lockKey(sig *model.Signal) string {
	if sig.Kind == model.SignalCheckoutCompleted {
		return "lock:member:" + sig.Checkout.SubjectID + ":" + sig.Checkout.Tier
	}
	return "lock:sub:" + sig.SubscriptionRef
}
