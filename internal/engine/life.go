package engine

// ComputeNewLife advances a cell's life from lastUpdate to target and
// returns the new life plus the epoch actually consumed. It is a pure
// function; every caller on both sides of a replay must hit identical
// results, so all arithmetic is integer with explicit ceiling division.
//
// Rules:
//   - No-op when the cell was never initialized, is already dead, or
//     target does not advance past lastUpdate.
//   - delta == 0 behaves as -1 (idle cells bleed out slowly) unless the
//     enemy mask is empty: isolated friendly cells do not decay.
//   - Growth saturates at maxLife; decay floors at 0. epochUsed stops
//     at the saturation/death epoch, never past it. Epochs beyond
//     saturation are not banked.
func ComputeNewLife(lastUpdate uint32, delta int32, enemyMask uint8, life, target, maxLife uint32) (newLife, epochUsed uint32) {
	if lastUpdate == 0 || life == 0 || target <= lastUpdate {
		return life, lastUpdate
	}

	effective := int64(delta)
	if effective == 0 && enemyMask != 0 {
		effective = -1
	}

	elapsed := uint64(target - lastUpdate)
	switch {
	case effective > 0:
		room := uint64(maxLife - life)
		gain := uint64(effective) * elapsed
		if gain < room {
			return life + uint32(gain), target
		}
		needed := ceilDiv(room, uint64(effective))
		return maxLife, lastUpdate + uint32(needed)

	case effective < 0:
		rate := uint64(-effective)
		loss := rate * elapsed
		if loss < uint64(life) {
			return life - uint32(loss), target
		}
		needed := ceilDiv(uint64(life), rate)
		return 0, lastUpdate + uint32(needed)

	default:
		// Suppressed decay: nothing changes, but the time is consumed.
		return life, target
	}
}

// ceilDiv is ceil(a/b) for non-negative a and positive b.
func ceilDiv(a, b uint64) uint64 { return (a + b - 1) / b }
