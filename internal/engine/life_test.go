package engine

import "testing"

func TestComputeNewLife(t *testing.T) {
	const maxLife = 7

	tests := []struct {
		name       string
		lastUpdate uint32
		delta      int32
		mask       uint8
		life       uint32
		target     uint32
		wantLife   uint32
		wantEpoch  uint32
	}{
		{
			name:       "uninitialized cell is a no-op",
			lastUpdate: 0, delta: 5, life: 3, target: 10,
			wantLife: 3, wantEpoch: 0,
		},
		{
			name:       "dead cell stays dead",
			lastUpdate: 4, delta: 5, life: 0, target: 10,
			wantLife: 0, wantEpoch: 4,
		},
		{
			name:       "target not past lastUpdate",
			lastUpdate: 5, delta: 2, life: 3, target: 5,
			wantLife: 3, wantEpoch: 5,
		},
		{
			name:       "simple growth",
			lastUpdate: 1, delta: 2, life: 1, target: 3,
			wantLife: 5, wantEpoch: 3,
		},
		{
			name:       "growth saturates and stops the clock",
			lastUpdate: 1, delta: 3, life: 1, target: 10,
			// room 6, rate 3, reaches max at epoch 1+2=3.
			wantLife: maxLife, wantEpoch: 3,
		},
		{
			name:       "exact saturation",
			lastUpdate: 2, delta: 2, life: 3, target: 4,
			// room 4, gain 4: lands exactly on max at 2+2=4.
			wantLife: maxLife, wantEpoch: 4,
		},
		{
			name:       "simple decay",
			lastUpdate: 1, delta: -1, mask: 1, life: 5, target: 3,
			wantLife: 3, wantEpoch: 3,
		},
		{
			name:       "decay floors at zero and stops the clock",
			lastUpdate: 1, delta: -2, mask: 1, life: 3, target: 10,
			// ceil(3/2)=2: dead at epoch 3.
			wantLife: 0, wantEpoch: 3,
		},
		{
			name:       "single point dies next epoch",
			lastUpdate: 1, delta: -1, mask: 8, life: 1, target: 5,
			wantLife: 0, wantEpoch: 2,
		},
		{
			name:       "idle with enemies decays at one",
			lastUpdate: 1, delta: 0, mask: 2, life: 4, target: 3,
			wantLife: 2, wantEpoch: 3,
		},
		{
			name:       "idle without enemies is suppressed",
			lastUpdate: 1, delta: 0, mask: 0, life: 4, target: 9,
			wantLife: 4, wantEpoch: 9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotLife, gotEpoch := ComputeNewLife(tt.lastUpdate, tt.delta, tt.mask, tt.life, tt.target, maxLife)
			if gotLife != tt.wantLife || gotEpoch != tt.wantEpoch {
				t.Errorf("ComputeNewLife = (%d, %d), want (%d, %d)",
					gotLife, gotEpoch, tt.wantLife, tt.wantEpoch)
			}
		})
	}
}

// Re-advancing from a saturation result must not bank the unconsumed
// epochs: the second call starts where the first stopped.
func TestComputeNewLifeIdempotentReAdvance(t *testing.T) {
	const maxLife = 7
	life1, used1 := ComputeNewLife(1, 3, 0, 1, 10, maxLife)
	if life1 != maxLife {
		t.Fatalf("first advance life = %d, want %d", life1, maxLife)
	}
	// A saturated cell with positive delta is a fixpoint: the clock
	// stays pinned at the saturation epoch.
	life2, used2 := ComputeNewLife(used1, 3, 0, life1, 10, maxLife)
	if life2 != maxLife || used2 != used1 {
		t.Errorf("re-advance = (%d, %d), want (%d, %d)", life2, used2, maxLife, used1)
	}
}

// Two one-epoch steps must land where one two-epoch step lands.
func TestComputeNewLifeStepwiseEqualsDirect(t *testing.T) {
	const maxLife = 7
	direct, _ := ComputeNewLife(1, 2, 0, 1, 3, maxLife)

	step1, used1 := ComputeNewLife(1, 2, 0, 1, 2, maxLife)
	step2, _ := ComputeNewLife(used1, 2, 0, step1, 3, maxLife)
	if step2 != direct {
		t.Errorf("stepwise = %d, direct = %d", step2, direct)
	}
}
