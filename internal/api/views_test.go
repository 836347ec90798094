package api

import (
	"testing"

	"shrike/internal/models"
)

func TestTransferPrecision_FUSDTVsDefault(t *testing.T) {
	if got := transferPrecision(fusdtContract); got != fusdtPrecision {
		t.Fatalf("FUSDT precision = %v, want %v", got, fusdtPrecision)
	}
	if got := transferPrecision("0xsomethingelse"); got != gasPrecision {
		t.Fatalf("default precision = %v, want %v", got, gasPrecision)
	}
}

func TestNewNotificationView_DerivesAmountOnlyForTransfer(t *testing.T) {
	raw := "250000000"
	n := models.TransactionNotification{
		ContractHash: "0xgas",
		EventName:    "Transfer",
		StateValues: []models.NotificationStateValue{
			{ValueText: strPtr("from")},
			{ValueText: strPtr("to")},
			{ValueText: &raw},
		},
	}
	v := newNotificationView(n)
	if v.Amount == nil {
		t.Fatal("expected a derived amount for a Transfer notification")
	}
	if *v.Amount != 2.5 {
		t.Fatalf("amount = %v, want 2.5", *v.Amount)
	}
}

func TestNewNotificationView_NonTransferHasNoAmount(t *testing.T) {
	n := models.TransactionNotification{EventName: "Deploy"}
	v := newNotificationView(n)
	if v.Amount != nil {
		t.Fatalf("expected no derived amount for a non-Transfer event, got %v", *v.Amount)
	}
}

func TestNewNotificationView_ShortStateValuesYieldsNoAmount(t *testing.T) {
	n := models.TransactionNotification{
		EventName:   "Transfer",
		StateValues: []models.NotificationStateValue{{ValueText: strPtr("from")}},
	}
	v := newNotificationView(n)
	if v.Amount != nil {
		t.Fatalf("expected no amount when fewer than 3 state values are present")
	}
}
