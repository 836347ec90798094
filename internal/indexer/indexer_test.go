package indexer

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestFirstSyncHeight(t *testing.T) {
	cases := []struct {
		name       string
		stored     uint64
		startBlock uint64
		want       uint64
	}{
		{"no configured floor resumes after stored", 100, 0, 101},
		{"configured floor above stored wins", 100, 500, 500},
		{"configured floor below stored is ignored", 500, 100, 501},
		{"empty store with a configured floor starts there", 0, 1000, 1000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := firstSyncHeight(tc.stored, tc.startBlock); got != tc.want {
				t.Fatalf("firstSyncHeight(%d, %d) = %d, want %d", tc.stored, tc.startBlock, got, tc.want)
			}
		})
	}
}

func TestPriceGateOpen(t *testing.T) {
	mk := func(hour, min, sec int) uint64 {
		t := time.Date(2024, 1, 1, hour, min, sec, 0, time.UTC)
		return uint64(t.UnixMilli())
	}

	cases := []struct {
		name  string
		index uint64
		time  uint64
		want  bool
	}{
		{"below block floor", 663999, mk(23, 59, 41), false},
		{"at block floor is not past it", 664000, mk(23, 59, 41), false},
		{"above block floor but before cutoff", 664001, mk(23, 59, 39), false},
		{"above block floor and at cutoff is not past it", 664001, mk(23, 59, 40), false},
		{"above block floor and past cutoff", 664001, mk(23, 59, 41), true},
		{"well past both thresholds", 700000, mk(23, 59, 59), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := priceGateOpen(tc.index, tc.time)
			if got != tc.want {
				t.Fatalf("priceGateOpen(%d, %d) = %v, want %v", tc.index, tc.time, got, tc.want)
			}
		})
	}
}

func TestFanOut_PreservesOrder(t *testing.T) {
	items := []int{5, 4, 3, 2, 1, 0}
	results, err := fanOut(context.Background(), items, 3, func(_ context.Context, n int) (int, error) {
		return n * n, nil
	})
	if err != nil {
		t.Fatalf("fanOut: %v", err)
	}
	want := []int{25, 16, 9, 4, 1, 0}
	for i, w := range want {
		if results[i] != w {
			t.Fatalf("results[%d] = %d, want %d", i, results[i], w)
		}
	}
}

func TestFanOut_ReturnsFirstError(t *testing.T) {
	items := []int{1, 2, 3}
	_, err := fanOut(context.Background(), items, 2, func(_ context.Context, n int) (int, error) {
		if n == 2 {
			return 0, fmt.Errorf("boom on %d", n)
		}
		return n, nil
	})
	if err == nil {
		t.Fatal("expected an error from the failing item")
	}
}
