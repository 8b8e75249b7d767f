//go:build !integration

package model_test

import (
	"errors"
	"testing"

	"discord-membership-payments/internal/domain"
	"discord-membership-payments/internal/domain/model"
)

func TestSplitFee(t *testing.T) {
	cases := []struct {
		name       string
		gross      int64
		feeBps     int64
		wantFee    int64
		wantPayout int64
	}{
		{"flat percentage", 1000, 300, 30, 970},
		{"floors fractional cents", 999, 300, 29, 970},
		{"single cent", 1, 300, 0, 1},
		{"zero gross", 0, 300, 0, 0},
		{"zero fee", 1000, 0, 0, 1000},
		{"full fee", 1000, 10000, 1000, 0},
		{"large amount", 123456789, 250, 3086419, 120370370},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			split, err := model.SplitFee(tc.gross, tc.feeBps)
			if err != nil {
				t.Fatalf("SplitFee(%d, %d): %v", tc.gross, tc.feeBps, err)
			}
			if split.PlatformFee != tc.wantFee || split.PayoutAmount != tc.wantPayout {
				t.Errorf("got %d/%d, want %d/%d", split.PlatformFee, split.PayoutAmount, tc.wantFee, tc.wantPayout)
			}
			if split.PlatformFee+split.PayoutAmount != tc.gross {
				t.Errorf("fee %d + payout %d != gross %d", split.PlatformFee, split.PayoutAmount, tc.gross)
			}
		})
	}
}

func TestSplitFeeRejectsInvalidInput(t *testing.T) {
	for _, tc := range []struct {
		name   string
		gross  int64
		feeBps int64
	}{
		{"negative gross", -1, 300},
		{"negative bps", 100, -1},
		{"bps above cap", 100, 10001},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := model.SplitFee(tc.gross, tc.feeBps); !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("err = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestRecurringFeeBps(t *testing.T) {
	override := int64(500)
	bad := int64(20000)

	t.Run("default", func(t *testing.T) {
		bps, err := model.RecurringFeeBps(300, nil)
		if err != nil || bps != 300 {
			t.Errorf("got %d, %v; want 300, nil", bps, err)
		}
	})
	t.Run("override wins", func(t *testing.T) {
		bps, err := model.RecurringFeeBps(300, &override)
		if err != nil || bps != 500 {
			t.Errorf("got %d, %v; want 500, nil", bps, err)
		}
	})
	t.Run("override validated", func(t *testing.T) {
		if _, err := model.RecurringFeeBps(300, &bad); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("err = %v, want ErrInvalidArgument", err)
		}
	})
}
