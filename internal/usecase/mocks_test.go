//go:build !integration

package usecase_test

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"discord-membership-payments/internal/config"
	"discord-membership-payments/internal/domain"
	"discord-membership-payments/internal/domain/model"
	"discord-membership-payments/internal/domain/ports/adapter"
	"discord-membership-payments/internal/domain/ports/repository"
	"discord-membership-payments/internal/usecase"
)

func testLogger() *zerolog.Logger {
	l := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	return &l
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{PublicURL: "https://pay.example.test"},
		Fees:   config.FeesConfig{PlatformBps: 300},
		Discord: config.DiscordConfig{
			PaymentLogChannel:            "log-chan",
			DashboardChannel:             "dash-chan",
			PaymentSuccessMessage:        "Welcome to {tier}!",
			SubscriptionCancelledMessage: "Goodbye from {tier}.",
			PaymentWarningMessage:        "Payment failed for {tier}.",
		},
		Tiers: map[string]config.TierConfig{
			"gold": {
				Name:    "Gold",
				RoleRef: "role-gold",
				OneTime: config.TierPrice{PriceRef: "price_gold_once", AmountCents: 4999},
				Monthly: config.TierPrice{PriceRef: "price_gold_month", AmountCents: 999},
			},
			"silver": {
				Name:    "Silver",
				RoleRef: "role-silver",
				Monthly: config.TierPrice{PriceRef: "price_silver_month", AmountCents: 499},
			},
		},
	}
}

// =============================
// Repositories
// =============================

// MockMembershipRepo is an in-memory MembershipRepository keyed like the real
// table: primary on (subject, tier), secondary on subscription ref.
type MockMembershipRepo struct {
	mu      sync.Mutex
	records map[string]*model.MembershipRecord

	GetFunc    func(ctx context.Context, subjectID, tier string) (*model.MembershipRecord, error)
	UpsertFunc func(ctx context.Context, rec *model.MembershipRecord) error
}

var _ repository.MembershipRepository = (*MockMembershipRepo)(nil)

func NewMockMembershipRepo() *MockMembershipRepo {
	return &MockMembershipRepo{records: make(map[string]*model.MembershipRecord)}
}

func key(subjectID, tier string) string { return subjectID + "|" + tier }

func (m *MockMembershipRepo) Get(ctx context.Context, subjectID, tier string) (*model.MembershipRecord, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, subjectID, tier)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key(subjectID, tier)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *MockMembershipRepo) GetBySubscriptionRef(ctx context.Context, ref string) (*model.MembershipRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.records {
		if rec.SubscriptionRef != nil && *rec.SubscriptionRef == ref {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockMembershipRepo) Upsert(ctx context.Context, rec *model.MembershipRecord) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.records[key(rec.SubjectID, rec.Tier)] = &cp
	return nil
}

func (m *MockMembershipRepo) ListActive(ctx context.Context) ([]*model.MembershipRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.MembershipRecord
	for _, rec := range m.records {
		if rec.Status == model.MembershipStatusActive {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockMembershipRepo) ListActiveByOrganization(ctx context.Context, organizationID string) ([]*model.MembershipRecord, error) {
	all, _ := m.ListActive(ctx)
	var out []*model.MembershipRecord
	for _, rec := range all {
		if rec.OrganizationID == organizationID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// ---- Mock ConnectedAccountRepository ----

type MockAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*model.ConnectedAccount

	GetByOrganizationFunc func(ctx context.Context, organizationID string) (*model.ConnectedAccount, error)
	UpsertFunc            func(ctx context.Context, acc *model.ConnectedAccount) error
}

var _ repository.ConnectedAccountRepository = (*MockAccountRepo)(nil)

func NewMockAccountRepo() *MockAccountRepo {
	return &MockAccountRepo{accounts: make(map[string]*model.ConnectedAccount)}
}

func (m *MockAccountRepo) GetByOrganization(ctx context.Context, organizationID string) (*model.ConnectedAccount, error) {
	if m.GetByOrganizationFunc != nil {
		return m.GetByOrganizationFunc(ctx, organizationID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[organizationID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *acc
	return &cp, nil
}

func (m *MockAccountRepo) GetByAccountRef(ctx context.Context, externalAccountRef string) (*model.ConnectedAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acc := range m.accounts {
		if acc.ExternalAccountRef == externalAccountRef {
			cp := *acc
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockAccountRepo) Upsert(ctx context.Context, acc *model.ConnectedAccount) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, acc)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *acc
	m.accounts[acc.OrganizationID] = &cp
	return nil
}

func (m *MockAccountRepo) List(ctx context.Context) ([]*model.ConnectedAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.ConnectedAccount
	for _, acc := range m.accounts {
		cp := *acc
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockAccountRepo) Delete(ctx context.Context, organizationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[organizationID]; !ok {
		return domain.ErrNotFound
	}
	delete(m.accounts, organizationID)
	return nil
}

// =============================
// Locking and dedup
// =============================

type MockLocker struct {
	mu   sync.Mutex
	held map[string]string

	TryLockFunc func(ctx context.Context, key string, ttl time.Duration) (string, error)
}

var _ repository.Locker = (*MockLocker)(nil)

func NewMockLocker() *MockLocker {
	return &MockLocker{held: make(map[string]string)}
}

func (m *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if m.TryLockFunc != nil {
		return m.TryLockFunc(ctx, key, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.held[key]; held {
		return "", domain.ErrLockNotAcquired
	}
	m.held[key] = "tok"
	return "tok", nil
}

func (m *MockLocker) Unlock(ctx context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, key)
	return nil
}

type MockDeduper struct {
	mu   sync.Mutex
	seen map[string]bool

	SeenFunc func(ctx context.Context, eventID string) (bool, error)
	MarkFunc func(ctx context.Context, eventID string) error
}

var _ repository.EventDeduper = (*MockDeduper)(nil)

func NewMockDeduper() *MockDeduper {
	return &MockDeduper{seen: make(map[string]bool)}
}

func (m *MockDeduper) Seen(ctx context.Context, eventID string) (bool, error) {
	if m.SeenFunc != nil {
		return m.SeenFunc(ctx, eventID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen[eventID], nil
}

func (m *MockDeduper) Mark(ctx context.Context, eventID string) error {
	if m.MarkFunc != nil {
		return m.MarkFunc(ctx, eventID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen[eventID] = true
	return nil
}

func (m *MockDeduper) Marked(eventID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen[eventID]
}

// =============================
// Dispatcher and adapters
// =============================

// MockDispatcher captures dispatched effects synchronously.
type MockDispatcher struct {
	mu      sync.Mutex
	Batches [][]model.Effect
}

var _ usecase.EffectDispatcher = (*MockDispatcher)(nil)

func (m *MockDispatcher) Dispatch(effects []model.Effect) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Batches = append(m.Batches, effects)
}

func (m *MockDispatcher) All() []model.Effect {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Effect
	for _, b := range m.Batches {
		out = append(out, b...)
	}
	return out
}

// ---- Mock ChatPlatform ----

type chatCall struct {
	Op             string
	OrganizationID string
	SubjectID      string
	RoleRef        string
	ChannelRef     string
	MessageRef     string
	Text           string
	Content        adapter.ChannelContent
}

type MockChat struct {
	mu    sync.Mutex
	Calls []chatCall

	GrantRoleFunc          func(ctx context.Context, organizationID, subjectID, roleRef string) error
	RevokeRoleFunc         func(ctx context.Context, organizationID, subjectID, roleRef string) error
	SendDirectMessageFunc  func(ctx context.Context, subjectID, text string) error
	PostToChannelFunc      func(ctx context.Context, channelRef string, content adapter.ChannelContent) (string, error)
	EditChannelMessageFunc func(ctx context.Context, channelRef, messageRef string, content adapter.ChannelContent) error
	ListMembersFunc        func(ctx context.Context, organizationID, roleRef string) ([]adapter.Member, error)
}

var _ adapter.ChatPlatform = (*MockChat)(nil)

func (m *MockChat) record(c chatCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, c)
}

func (m *MockChat) CallsFor(op string) []chatCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []chatCall
	for _, c := range m.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (m *MockChat) GrantRole(ctx context.Context, organizationID, subjectID, roleRef string) error {
	if m.GrantRoleFunc != nil {
		return m.GrantRoleFunc(ctx, organizationID, subjectID, roleRef)
	}
	m.record(chatCall{Op: "grant", OrganizationID: organizationID, SubjectID: subjectID, RoleRef: roleRef})
	return nil
}

func (m *MockChat) RevokeRole(ctx context.Context, organizationID, subjectID, roleRef string) error {
	if m.RevokeRoleFunc != nil {
		return m.RevokeRoleFunc(ctx, organizationID, subjectID, roleRef)
	}
	m.record(chatCall{Op: "revoke", OrganizationID: organizationID, SubjectID: subjectID, RoleRef: roleRef})
	return nil
}

func (m *MockChat) SendDirectMessage(ctx context.Context, subjectID, text string) error {
	if m.SendDirectMessageFunc != nil {
		return m.SendDirectMessageFunc(ctx, subjectID, text)
	}
	m.record(chatCall{Op: "dm", SubjectID: subjectID, Text: text})
	return nil
}

func (m *MockChat) PostToChannel(ctx context.Context, channelRef string, content adapter.ChannelContent) (string, error) {
	if m.PostToChannelFunc != nil {
		return m.PostToChannelFunc(ctx, channelRef, content)
	}
	m.record(chatCall{Op: "post", ChannelRef: channelRef, Content: content})
	return "msg-1", nil
}

func (m *MockChat) EditChannelMessage(ctx context.Context, channelRef, messageRef string, content adapter.ChannelContent) error {
	if m.EditChannelMessageFunc != nil {
		return m.EditChannelMessageFunc(ctx, channelRef, messageRef, content)
	}
	m.record(chatCall{Op: "edit", ChannelRef: channelRef, MessageRef: messageRef, Content: content})
	return nil
}

func (m *MockChat) ListMembersWithRole(ctx context.Context, organizationID, roleRef string) ([]adapter.Member, error) {
	if m.ListMembersFunc != nil {
		return m.ListMembersFunc(ctx, organizationID, roleRef)
	}
	return nil, nil
}

// ---- Mock PaymentGateway ----

type MockGateway struct {
	mu       sync.Mutex
	Sessions []adapter.CheckoutParams

	CreateCheckoutSessionFunc func(ctx context.Context, p adapter.CheckoutParams) (string, error)
	CreateMerchantAccountFunc func(ctx context.Context) (string, error)
	RetrieveAccountFunc       func(ctx context.Context, accountRef string) (adapter.AccountState, error)
}

var _ adapter.PaymentGateway = (*MockGateway)(nil)

func (m *MockGateway) Name() string { return "mock" }

func (m *MockGateway) CreateCheckoutSession(ctx context.Context, p adapter.CheckoutParams) (string, error) {
	if m.CreateCheckoutSessionFunc != nil {
		return m.CreateCheckoutSessionFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sessions = append(m.Sessions, p)
	return "https://pay.example/session", nil
}

func (m *MockGateway) CreateMerchantAccount(ctx context.Context) (string, error) {
	if m.CreateMerchantAccountFunc != nil {
		return m.CreateMerchantAccountFunc(ctx)
	}
	return "acct_new", nil
}

func (m *MockGateway) CreateOnboardingLink(ctx context.Context, accountRef, refreshURL, returnURL string) (string, error) {
	return "https://connect.example/onboard/" + accountRef, nil
}

func (m *MockGateway) CreateManagementLink(ctx context.Context, accountRef string) (string, error) {
	return "https://connect.example/manage/" + accountRef, nil
}

func (m *MockGateway) RetrieveAccount(ctx context.Context, accountRef string) (adapter.AccountState, error) {
	if m.RetrieveAccountFunc != nil {
		return m.RetrieveAccountFunc(ctx, accountRef)
	}
	return adapter.AccountState{}, nil
}

// ---- Mock DashboardUseCase ----

type MockDashboards struct {
	mu        sync.Mutex
	Refreshed []string

	RefreshFunc func(ctx context.Context, organizationID string) error
}

var _ usecase.DashboardUseCase = (*MockDashboards)(nil)

func (m *MockDashboards) Refresh(ctx context.Context, organizationID string) error {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, organizationID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Refreshed = append(m.Refreshed, organizationID)
	return nil
}
