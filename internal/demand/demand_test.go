package demand

import (
	"math"
	"testing"
)

func TestMax_ClampsNegative(t *testing.T) {
	n, ok := Max(-3).Limit()
	if !ok || n != 0 {
		t.Errorf("Max(-3).Limit() = (%d, %v), want (0, true)", n, ok)
	}
}

func TestDemand_Add(t *testing.T) {
	tests := []struct {
		name string
		a, b Demand
		want Demand
	}{
		{"bounded plus bounded", Max(2), Max(3), Max(5)},
		{"bounded plus none", Max(2), None, Max(2)},
		{"none plus none", None, None, None},
		{"unlimited absorbs bounded", Unlimited, Max(3), Unlimited},
		{"bounded plus unlimited", Max(3), Unlimited, Unlimited},
		{"overflow saturates", Max(math.MaxInt), Max(1), Unlimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Add(tt.b); got != tt.want {
				t.Errorf("%v.Add(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestDemand_String(t *testing.T) {
	tests := []struct {
		d    Demand
		want string
	}{
		{Unlimited, "unlimited"},
		{None, "max(0)"},
		{Max(7), "max(7)"},
	}

	for _, tt := range tests {
		if got := tt.d.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestDemand_IsUnlimited(t *testing.T) {
	if !Unlimited.IsUnlimited() {
		t.Error("Unlimited.IsUnlimited() = false, want true")
	}
	if Max(10).IsUnlimited() {
		t.Error("Max(10).IsUnlimited() = true, want false")
	}
	if _, ok := Unlimited.Limit(); ok {
		t.Error("Unlimited.Limit() ok = true, want false")
	}
}
