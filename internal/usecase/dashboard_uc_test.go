//go:build !integration

package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"discord-membership-payments/internal/domain"
	"discord-membership-payments/internal/domain/model"
	"discord-membership-payments/internal/domain/ports/adapter"
	"discord-membership-payments/internal/usecase"
)

func seedActiveRecord(t *testing.T, members *MockMembershipRepo, subject, tier string, mode model.PaymentMode, gross int64, subRef *string) {
	t.Helper()
	split, err := model.SplitFee(gross, testFeeBps)
	if err != nil {
		t.Fatalf("SplitFee: %v", err)
	}
	rec, err := model.NewMembershipRecord("id-"+subject+tier, subject, "guild-1", tier, mode, "cs_"+subject+tier, subRef, gross, split)
	if err != nil {
		t.Fatalf("NewMembershipRecord: %v", err)
	}
	if err := members.Upsert(context.Background(), rec); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
}

func TestBuildDashboard(t *testing.T) {
	cfg := testConfig()

	t.Run("empty store", func(t *testing.T) {
		content := usecase.BuildDashboard(nil, cfg.Tiers)
		if !strings.Contains(content.Description, "No active paid members") {
			t.Errorf("description = %q", content.Description)
		}
		if len(content.Fields) != 0 {
			t.Errorf("expected no fields, got %d", len(content.Fields))
		}
	})

	t.Run("groups by tier and mode", func(t *testing.T) {
		members := NewMockMembershipRepo()
		seedActiveRecord(t, members, "u1", "gold", model.PaymentModeRecurring, 999, strPtr("sub_u1"))
		seedActiveRecord(t, members, "u2", "gold", model.PaymentModeOneTime, 4999, nil)
		seedActiveRecord(t, members, "u3", "silver", model.PaymentModeRecurring, 499, strPtr("sub_u3"))
		records, _ := members.ListActive(context.Background())

		content := usecase.BuildDashboard(records, cfg.Tiers)
		var names []string
		for _, f := range content.Fields {
			names = append(names, f.Name)
		}
		joined := strings.Join(names, "|")
		for _, want := range []string{"Gold - One-time (1)", "Gold - Subscription (1)", "Silver - Subscription (1)", "Statistics"} {
			if !strings.Contains(joined, want) {
				t.Errorf("missing field %q in %q", want, joined)
			}
		}

		stats := content.Fields[len(content.Fields)-1]
		for _, want := range []string{
			"**Total Active Members:** 3",
			"**Subscription Members:** 2",
			"**Total Revenue:** $64.97",
			"**MRR (Monthly Recurring):** $14.98",
		} {
			if !strings.Contains(stats.Value, want) {
				t.Errorf("stats missing %q:\n%s", want, stats.Value)
			}
		}
	})

	t.Run("caps field length", func(t *testing.T) {
		members := NewMockMembershipRepo()
		for i := 0; i < 100; i++ {
			subject := "user-" + strings.Repeat("x", 10) + string(rune('a'+i%26)) + string(rune('a'+i/26))
			seedActiveRecord(t, members, subject, "gold", model.PaymentModeOneTime, 4999, nil)
		}
		records, _ := members.ListActive(context.Background())

		content := usecase.BuildDashboard(records, cfg.Tiers)
		for _, f := range content.Fields {
			if len(f.Value) > 1024 {
				t.Errorf("field %q exceeds 1024 chars: %d", f.Name, len(f.Value))
			}
		}
	})
}

func TestDashboard_RefreshPostsThenEdits(t *testing.T) {
	members := NewMockMembershipRepo()
	accounts := NewMockAccountRepo()
	onboardedAccount(t, accounts, "guild-1")
	seedActiveRecord(t, members, "u1", "gold", model.PaymentModeRecurring, 999, strPtr("sub_u1"))
	chat := &MockChat{}
	uc := usecase.NewDashboardUseCase(members, accounts, chat, testConfig(), testLogger())

	// First refresh has no binding, so it posts.
	if err := uc.Refresh(context.Background(), "guild-1"); err != nil {
		t.Fatalf("first Refresh: %v", err)
	}
	if got := len(chat.CallsFor("post")); got != 1 {
		t.Fatalf("posted %d times, want 1", got)
	}
	acc, _ := accounts.GetByOrganization(context.Background(), "guild-1")
	if acc.Dashboard == nil || acc.Dashboard.MessageRef != "msg-1" {
		t.Fatalf("dashboard binding not persisted: %+v", acc.Dashboard)
	}

	// Second refresh edits in place.
	if err := uc.Refresh(context.Background(), "guild-1"); err != nil {
		t.Fatalf("second Refresh: %v", err)
	}
	if got := len(chat.CallsFor("edit")); got != 1 {
		t.Errorf("edited %d times, want 1", got)
	}
	if got := len(chat.CallsFor("post")); got != 1 {
		t.Errorf("posted %d times after edit path, want still 1", got)
	}
}

func TestDashboard_RefreshRecreatesDeletedMessage(t *testing.T) {
	members := NewMockMembershipRepo()
	accounts := NewMockAccountRepo()
	acc := onboardedAccount(t, accounts, "guild-1")
	acc.Dashboard = &model.DashboardRef{ChannelRef: "dash-chan", MessageRef: "gone"}
	acc.UpdatedAt = time.Now()
	if err := accounts.Upsert(context.Background(), acc); err != nil {
		t.Fatalf("seed binding: %v", err)
	}

	chat := &MockChat{
		EditChannelMessageFunc: func(ctx context.Context, channelRef, messageRef string, content adapter.ChannelContent) error {
			return domain.ErrNotFound
		},
	}

	uc := usecase.NewDashboardUseCase(members, accounts, chat, testConfig(), testLogger())
	if err := uc.Refresh(context.Background(), "guild-1"); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := len(chat.CallsFor("post")); got != 1 {
		t.Errorf("posted %d times, want 1 after stale binding", got)
	}
	got, _ := accounts.GetByOrganization(context.Background(), "guild-1")
	if got.Dashboard == nil || got.Dashboard.MessageRef != "msg-1" {
		t.Errorf("binding not replaced: %+v", got.Dashboard)
	}
}
