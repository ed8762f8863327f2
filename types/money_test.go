package types

import (
	"encoding/json"
	"testing"
)

func TestMoneyConstructors(t *testing.T) {
	tests := []struct {
		name     string
		money    Money
		amount   int64
		currency string
		display  string
	}{
		{"USD", USD(12000), 12000, "usd", "$120.00"},
		{"EUR", EUR(2000), 2000, "eur", "€20.00"},
		{"GBP", GBP(9950), 9950, "gbp", "£99.50"},
		{"Zero USD", Zero("USD"), 0, "usd", "$0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.money.Amount != tt.amount {
				t.Errorf("Amount: got %d, want %d", tt.money.Amount, tt.amount)
			}
			if tt.money.Currency != tt.currency {
				t.Errorf("Currency: got %s, want %s", tt.money.Currency, tt.currency)
			}
			if tt.money.String() != tt.display {
				t.Errorf("Display: got %s, want %s", tt.money.String(), tt.display)
			}
		})
	}
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		currency string
		want     Money
		wantErr  bool
	}{
		{"whole", "200", "usd", USD(20000), false},
		{"two places", "20.00", "usd", USD(2000), false},
		{"rounds half up", "19.995", "usd", USD(2000), false},
		{"rounds down", "19.994", "usd", USD(1999), false},
		{"empty is zero", "  ", "eur", EUR(0), false},
		{"zero decimal currency", "150.6", "jpy", Money{Amount: 151, Currency: "jpy"}, false},
		{"garbage", "twenty", "usd", USD(0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMoney(tt.input, tt.currency)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMoneyRatio(t *testing.T) {
	tests := []struct {
		name     string
		money    Money
		num, den int64
		want     Money
	}{
		{"half", USD(20000), 5, 10, USD(10000)},
		{"thirds round down", USD(10000), 1, 3, USD(3333)},
		{"two thirds round up", USD(10000), 2, 3, USD(6667)},
		{"half cent rounds away", USD(1), 1, 2, USD(1)},
		{"full", USD(4900), 7, 7, USD(4900)},
		{"none", USD(4900), 0, 7, USD(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.money.Ratio(tt.num, tt.den)
			if !got.Equal(tt.want) {
				t.Errorf("Got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMoneyRatioByZero(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for division by zero")
		}
	}()

	_ = USD(100).Ratio(1, 0)
}

func TestMoneyFloorZero(t *testing.T) {
	if got := USD(-5).FloorZero(); !got.Equal(USD(0)) {
		t.Errorf("FloorZero(-5): got %v", got)
	}
	if got := USD(5).FloorZero(); !got.Equal(USD(5)) {
		t.Errorf("FloorZero(5): got %v", got)
	}
}

func TestMoneyMarshalJSON(t *testing.T) {
	data, err := json.Marshal(USD(12000))
	if err != nil {
		t.Fatal(err)
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out["display"] != "$120.00" {
		t.Errorf("display: got %v", out["display"])
	}
	if out["currency"] != "usd" {
		t.Errorf("currency: got %v", out["currency"])
	}
}
