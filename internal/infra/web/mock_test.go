//go:build !integration

package web_test

import (
	"context"
	"os"

	"github.com/rs/zerolog"

	"discord-membership-payments/internal/domain/model"
	"discord-membership-payments/internal/infra/web"
	"discord-membership-payments/internal/usecase"
)

func testLogger() *zerolog.Logger {
	l := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	return &l
}

type MockParser struct {
	VerifyAndParseFunc func(payload []byte, sigHeader string) (*model.Signal, error)
}

var _ web.SignalParser = (*MockParser)(nil)

func (m *MockParser) VerifyAndParse(payload []byte, sigHeader string) (*model.Signal, error) {
	return m.VerifyAndParseFunc(payload, sigHeader)
}

type MockReconciler struct {
	ApplyFunc func(ctx context.Context, sig *model.Signal) error
	Applied   []*model.Signal
}

var _ usecase.ReconcileUseCase = (*MockReconciler)(nil)

func (m *MockReconciler) Apply(ctx context.Context, sig *model.Signal) error {
	m.Applied = append(m.Applied, sig)
	if m.ApplyFunc != nil {
		return m.ApplyFunc(ctx, sig)
	}
	return nil
}

type MockCheckout struct {
	CreateSessionFunc func(ctx context.Context, subjectID, organizationID, tierKey string, mode model.PaymentMode) (string, error)
}

var _ usecase.CheckoutUseCase = (*MockCheckout)(nil)

func (m *MockCheckout) CreateSession(ctx context.Context, subjectID, organizationID, tierKey string, mode model.PaymentMode) (string, error) {
	return m.CreateSessionFunc(ctx, subjectID, organizationID, tierKey, mode)
}

type MockConnect struct {
	BeginOnboardingFunc    func(ctx context.Context, organizationID string) (string, error)
	RefreshOnboardingFunc  func(ctx context.Context, organizationID string) (string, error)
	CompleteOnboardingFunc func(ctx context.Context, organizationID string) (usecase.OnboardingStatus, error)
	StatusFunc             func(ctx context.Context, organizationID string) (usecase.OnboardingStatus, error)
	DisconnectFunc         func(ctx context.Context, organizationID string) error
}

var _ usecase.ConnectUseCase = (*MockConnect)(nil)

func (m *MockConnect) BeginOnboarding(ctx context.Context, organizationID string) (string, error) {
	return m.BeginOnboardingFunc(ctx, organizationID)
}

func (m *MockConnect) RefreshOnboarding(ctx context.Context, organizationID string) (string, error) {
	return m.RefreshOnboardingFunc(ctx, organizationID)
}

func (m *MockConnect) CompleteOnboarding(ctx context.Context, organizationID string) (usecase.OnboardingStatus, error) {
	return m.CompleteOnboardingFunc(ctx, organizationID)
}

func (m *MockConnect) Status(ctx context.Context, organizationID string) (usecase.OnboardingStatus, error) {
	return m.StatusFunc(ctx, organizationID)
}

func (m *MockConnect) Disconnect(ctx context.Context, organizationID string) error {
	return m.DisconnectFunc(ctx, organizationID)
}

type MockStats struct {
	CollectFunc func(ctx context.Context) (*usecase.Stats, error)
}

var _ usecase.StatsUseCase = (*MockStats)(nil)

func (m *MockStats) Collect(ctx context.Context) (*usecase.Stats, error) {
	return m.CollectFunc(ctx)
}
