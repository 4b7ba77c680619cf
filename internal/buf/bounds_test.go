package buf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddOverflowSafe(t *testing.T) {
	if sum, ok := AddOverflowSafe(10, 5); !ok || sum != 15 {
		t.Fatalf("AddOverflowSafe(10,5)=%d,%v want 15,true", sum, ok)
	}
	if _, ok := AddOverflowSafe(math.MaxInt, 1); ok {
		t.Fatalf("expected overflow when adding to MaxInt")
	}
	if _, ok := AddOverflowSafe(math.MinInt, -1); ok {
		t.Fatalf("expected underflow when subtracting from MinInt")
	}
}

func TestMulOverflowSafe(t *testing.T) {
	got, ok := MulOverflowSafe(12, 4)
	require.True(t, ok)
	require.Equal(t, 48, got)

	_, ok = MulOverflowSafe(math.MaxInt/2, 3)
	require.False(t, ok)

	_, ok = MulOverflowSafe(-1, 4)
	require.False(t, ok)
}

func TestCheckListBounds(t *testing.T) {
	end, err := CheckListBounds(100, 8, 4, 12)
	require.NoError(t, err)
	require.Equal(t, 56, end)

	_, err = CheckListBounds(50, 8, 4, 12)
	require.ErrorContains(t, err, "bounds")

	_, err = CheckListBounds(100, -1, 1, 1)
	require.ErrorContains(t, err, "negative offset")

	_, err = CheckListBounds(100, 0, math.MaxInt, 8)
	require.ErrorContains(t, err, "overflow")
}

func TestCheckRange(t *testing.T) {
	require.NoError(t, CheckRange(10, 4, 6))
	require.Error(t, CheckRange(10, 5, 6))
	require.Error(t, CheckRange(10, -1, 2))
	require.Error(t, CheckRange(10, math.MaxInt64, 1))
}

func TestSliceAndHas(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4}
	if got, ok := Slice(data, 1, 3); !ok || len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("Slice returned unexpected result: %v, %v", got, ok)
	}
	if _, ok := Slice(data, 4, 2); ok {
		t.Fatalf("Slice should fail when extending beyond len")
	}
	if Has(data, 2, 4) {
		t.Fatalf("Has should be false for out-of-bounds range")
	}
	if !Has(data, 2, 1) {
		t.Fatalf("Has should be true for valid range")
	}
}
