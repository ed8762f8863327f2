package pricing

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/xraph/courseprice/course"
	"github.com/xraph/courseprice/schedule"
	"github.com/xraph/courseprice/types"
)

func date(s string) types.Date { return types.MustParseDate(s) }

// tenMondays starts on 2024-01-01 and runs ten Mondays to 2024-03-04.
func tenMondays(base, rate int64) course.Context {
	return course.New(course.Params{
		ProductID:     "p",
		VariationID:   "v",
		BasePrice:     types.USD(base),
		SessionRate:   types.USD(rate),
		TotalSessions: 10,
		StartDate:     date("2024-01-01"),
		Weekday:       course.Monday,
	})
}

func TestCalculateGuards(t *testing.T) {
	calc := NewCalculator(nil)
	ctx := context.Background()

	t.Run("missing total sessions", func(t *testing.T) {
		cc := course.New(course.Params{BasePrice: types.USD(4900), SessionRate: types.USD(1000)})
		res := calc.Calculate(ctx, cc, date("2024-01-10"), Hint{})
		if res.Guard != GuardMissingTotalSessions {
			t.Errorf("Guard: got %s", res.Guard)
		}
		if !res.Price.Equal(types.USD(4900)) {
			t.Errorf("Price: got %v, want base", res.Price)
		}
	})

	t.Run("future start", func(t *testing.T) {
		res := calc.Calculate(ctx, tenMondays(20000, 2000), date("2023-12-31"), Hint{})
		if res.Guard != GuardFutureStart {
			t.Errorf("Guard: got %s", res.Guard)
		}
		if !res.Price.Equal(types.USD(20000)) {
			t.Errorf("Price: got %v, want base", res.Price)
		}
		if res.Remaining != 10 {
			t.Errorf("Remaining: got %d, want 10", res.Remaining)
		}
		if !res.Guard.Fired() {
			t.Error("expected guard to be fired")
		}
	})

	t.Run("start day is not future", func(t *testing.T) {
		res := calc.Calculate(ctx, tenMondays(20000, 2000), date("2024-01-01"), Hint{})
		if res.Guard.Fired() {
			t.Errorf("unexpected guard %s", res.Guard)
		}
		if !res.Price.Equal(types.USD(20000)) {
			t.Errorf("Price: got %v, want 10 × 20.00", res.Price)
		}
	})
}

func TestCalculateSessionRate(t *testing.T) {
	calc := NewCalculator(nil)

	// Six sessions left from 2024-01-29: 29, 5, 12, 19, 26, 4.
	res := calc.Calculate(context.Background(), tenMondays(20000, 2000), date("2024-01-29"), Hint{})
	if res.Remaining != 6 {
		t.Fatalf("Remaining: got %d, want 6", res.Remaining)
	}
	if res.Method != MethodSessionRate {
		t.Errorf("Method: got %s", res.Method)
	}
	if !res.Price.Equal(types.USD(12000)) {
		t.Errorf("Price: got %v, want $120.00", res.Price)
	}
	if res.Guard != GuardNone {
		t.Errorf("Guard: got %s, want none", res.Guard)
	}
}

func TestCalculateProportional(t *testing.T) {
	calc := NewCalculator(nil)
	ctx := context.Background()

	tests := []struct {
		name string
		base int64
		asOf string
		want int64
	}{
		{"half remaining", 20000, "2024-02-05", 10000},
		{"all remaining", 20000, "2024-01-01", 20000},
		{"one of ten", 20000, "2024-03-04", 2000},
		{"finished", 20000, "2024-03-05", 0},
		{"three of ten", 10000, "2024-02-19", 3000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := calc.Calculate(ctx, tenMondays(tt.base, 0), date(tt.asOf), Hint{})
			if res.Method != MethodProportional {
				t.Errorf("Method: got %s", res.Method)
			}
			if !res.Price.Equal(types.USD(tt.want)) {
				t.Errorf("Price: got %v, want %v", res.Price, types.USD(tt.want))
			}
		})
	}
}

func TestCalculateProportionalRounding(t *testing.T) {
	cc := course.New(course.Params{
		BasePrice:     types.USD(10000),
		TotalSessions: 3,
		StartDate:     date("2024-01-01"),
		Weekday:       course.Monday,
	})

	res := NewCalculator(nil).Calculate(context.Background(), cc, date("2024-01-02"), Hint{})
	if res.Remaining != 2 {
		t.Fatalf("Remaining: got %d", res.Remaining)
	}
	if !res.Price.Equal(types.USD(6667)) {
		t.Errorf("Price: got %v, want $66.67", res.Price)
	}
}

func TestCalculateRateWithNothingLeft(t *testing.T) {
	res := NewCalculator(nil).Calculate(context.Background(), tenMondays(20000, 2000), date("2024-06-01"), Hint{})
	if !res.Price.IsZero() {
		t.Errorf("Price: got %v, want zero", res.Price)
	}
	if res.Method != MethodProportional {
		t.Errorf("Method: got %s", res.Method)
	}
}

func TestCalculateUnresolvedWeekdayFailsOpen(t *testing.T) {
	cc := course.New(course.Params{
		BasePrice:     types.USD(20000),
		TotalSessions: 10,
		StartDate:     date("2024-01-01"),
		WeekdayLabel:  "??",
	})

	res := NewCalculator(nil).Calculate(context.Background(), cc, date("2024-02-20"), Hint{})
	if res.Remaining != 10 {
		t.Errorf("Remaining: got %d, want full term", res.Remaining)
	}
	if !res.Price.Equal(types.USD(20000)) {
		t.Errorf("Price: got %v, want base", res.Price)
	}
}

func TestCalculateHintNeverWins(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	calc := NewCalculator(schedule.NewCalculator(), WithLogger(logger))

	res := calc.Calculate(context.Background(), tenMondays(20000, 2000), date("2024-01-29"), RemainingHint(9))
	if !res.HintMismatch {
		t.Error("expected hint mismatch")
	}
	if res.Remaining != 6 || !res.Price.Equal(types.USD(12000)) {
		t.Errorf("computed values must win: got remaining %d price %v", res.Remaining, res.Price)
	}
	if !strings.Contains(buf.String(), "hint disagrees") {
		t.Errorf("expected warning log, got %q", buf.String())
	}

	buf.Reset()
	res = calc.Calculate(context.Background(), tenMondays(20000, 2000), date("2024-01-29"), RemainingHint(6))
	if res.HintMismatch {
		t.Error("matching hint flagged as mismatch")
	}
	if buf.Len() != 0 {
		t.Errorf("unexpected log output: %q", buf.String())
	}
}

func TestCheckHint(t *testing.T) {
	calc := NewCalculator(schedule.NewCalculator(), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	ctx := context.Background()

	tests := []struct {
		name         string
		asOf         string
		hint         Hint
		wantComputed int
		wantMismatch bool
	}{
		{"no hint", "2024-01-29", Hint{}, 0, false},
		{"agrees", "2024-01-29", RemainingHint(6), 6, false},
		{"disagrees", "2024-01-29", RemainingHint(99), 6, true},
		{"before start", "2023-12-01", RemainingHint(3), 10, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			computed, mismatch := calc.CheckHint(ctx, tenMondays(20000, 2000), date(tt.asOf), tt.hint)
			if computed != tt.wantComputed || mismatch != tt.wantMismatch {
				t.Errorf("got (%d, %v), want (%d, %v)", computed, mismatch, tt.wantComputed, tt.wantMismatch)
			}
		})
	}
}
