package model

// EffectKind names a side effect ordered by the reconciliation engine.
// Persisting the record is not an effect; the store write commits before any
// effect runs so redelivery of the same event can recover a crashed dispatch.
type EffectKind string

const (
	EffectGrantAccess      EffectKind = "grant_access"
	EffectRevokeAccess     EffectKind = "revoke_access"
	EffectNotifySubject    EffectKind = "notify_subject"
	EffectPostReceipt      EffectKind = "post_receipt"
	EffectRefreshDashboard EffectKind = "refresh_dashboard"
)

type NoticeKind string

const (
	NoticePaymentSuccess        NoticeKind = "payment_success"
	NoticeSubscriptionCancelled NoticeKind = "subscription_cancelled"
	NoticePaymentWarning        NoticeKind = "payment_warning"
)

// Effect is one unit of work for the dispatcher. Fields beyond Kind are set
// as the kind requires: Notice for EffectNotifySubject, Record for
// EffectPostReceipt.
type Effect struct {
	Kind           EffectKind
	SubjectID      string
	OrganizationID string
	Tier           string
	Notice         NoticeKind
	Record         *MembershipRecord
}
