package framesync

import (
	"testing"

	"github.com/teslashibe/go-naneye/pkg/naneye"
)

func frameAt(ts int64) naneye.Frame {
	return naneye.Frame{Timestamp: ts, Width: 1, Height: 1, Data: []byte{0, 0, 0}}
}

func slots(ts ...int64) []slot {
	out := make([]slot, len(ts))
	for i, t := range ts {
		out[i] = slot{seq: uint64(i + 1), frame: frameAt(t)}
	}
	return out
}

func TestBestPair(t *testing.T) {
	tests := []struct {
		name      string
		left      []int64
		right     []int64
		tolerance int64
		wantOK    bool
		wantL     int64
		wantR     int64
	}{
		{
			name: "closest pair wins",
			left: []int64{100, 200, 300}, right: []int64{140},
			tolerance: 20000,
			wantOK:    true, wantL: 100, wantR: 140,
		},
		{
			name: "tie broken by scan order",
			// 100 and 200 are both 50µs from 150; the first scanned wins
			left: []int64{100, 200}, right: []int64{150},
			tolerance: 20000,
			wantOK:    true, wantL: 100, wantR: 150,
		},
		{
			name: "out of tolerance yields nothing",
			left: []int64{100}, right: []int64{100000},
			tolerance: 20000,
			wantOK:    false,
		},
		{
			name: "exactly at tolerance is accepted",
			left: []int64{0}, right: []int64{20000},
			tolerance: 20000,
			wantOK:    true, wantL: 0, wantR: 20000,
		},
		{
			name: "empty left",
			left: nil, right: []int64{10, 20},
			tolerance: 20000,
			wantOK:    false,
		},
		{
			name: "empty right",
			left: []int64{10, 20}, right: nil,
			tolerance: 20000,
			wantOK:    false,
		},
		{
			name: "later arrival can still match early frame",
			left: []int64{5000}, right: []int64{900000, 9000},
			tolerance: 20000,
			wantOK:    true, wantL: 5000, wantR: 9000,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l, r, ok := bestPair(slots(tc.left...), slots(tc.right...), tc.tolerance)
			if ok != tc.wantOK {
				t.Fatalf("ok=%v, want %v", ok, tc.wantOK)
			}
			if !ok {
				return
			}
			if l.frame.Timestamp != tc.wantL || r.frame.Timestamp != tc.wantR {
				t.Errorf("pair=(%d,%d), want (%d,%d)",
					l.frame.Timestamp, r.frame.Timestamp, tc.wantL, tc.wantR)
			}
		})
	}
}

func TestHasPair_AgreesWithBestPair(t *testing.T) {
	cases := []struct {
		left, right []int64
		tolerance   int64
	}{
		{[]int64{100, 200, 300}, []int64{140}, 20000},
		{[]int64{100}, []int64{100000}, 20000},
		{nil, nil, 20000},
		{[]int64{0}, []int64{20000}, 20000},
		{[]int64{0}, []int64{20001}, 20000},
	}
	for _, tc := range cases {
		_, _, ok := bestPair(slots(tc.left...), slots(tc.right...), tc.tolerance)
		if got := hasPair(slots(tc.left...), slots(tc.right...), tc.tolerance); got != ok {
			t.Errorf("left=%v right=%v: hasPair=%v, bestPair ok=%v",
				tc.left, tc.right, got, ok)
		}
	}
}
