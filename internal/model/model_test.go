package model

import "testing"

func TestVisitsUntilReward(t *testing.T) {
	tests := []struct {
		washCount int
		want      int
	}{
		{0, 5},
		{1, 4},
		{4, 1},
		{5, 5},
		{7, 3},
		{12, 3},
	}

	for _, tt := range tests {
		if got := VisitsUntilReward(tt.washCount); got != tt.want {
			t.Errorf("VisitsUntilReward(%d) = %d, want %d", tt.washCount, got, tt.want)
		}
	}
}
