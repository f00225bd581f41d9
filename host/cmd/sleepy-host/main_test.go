package main

import (
	"math"
	"strconv"
	"testing"
)

type sleepBudgetCase struct {
	in      uint
	want    uint32
	wantErr bool
}

func TestSleepBudget(t *testing.T) {
	tests := []sleepBudgetCase{
		{0, 0, false},
		{5000, 5000, false},
		{math.MaxUint32, math.MaxUint32, false},
	}
	if strconv.IntSize == 64 {
		over := uint64(math.MaxUint32) + 1
		tests = append(tests,
			sleepBudgetCase{uint(over), 0, true},
			sleepBudgetCase{uint(over << 8), 0, true},
		)
	}

	for _, tt := range tests {
		got, err := sleepBudget(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("sleepBudget(%d): error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("sleepBudget(%d) = %d, expected %d", tt.in, got, tt.want)
		}
	}
}
