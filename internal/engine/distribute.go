package engine

import "fmt"

// transferList pools payouts for one resolution batch, coalescing by
// recipient so the sink sees one transfer per account. First-seen
// order is preserved: settlement order is part of the deterministic
// contract. Capacity is the 4x-moves bound; exceeding it is an
// invariant violation that aborts the batch.
type transferList struct {
	order   []string
	amounts map[string]uint64
	cap     int
}

func newTransferList(capacity int) *transferList {
	return &transferList{
		amounts: make(map[string]uint64),
		cap:     capacity,
	}
}

// add credits amount to recipient. Empty recipients and zero amounts
// are dropped here rather than at settle time so they never consume
// capacity.
func (t *transferList) add(recipient string, amount uint64) error {
	if recipient == "" || amount == 0 {
		return nil
	}
	if _, seen := t.amounts[recipient]; !seen {
		if len(t.order) >= t.cap {
			return ErrTransferOverflow
		}
		t.order = append(t.order, recipient)
	}
	t.amounts[recipient] += amount
	return nil
}

// settle issues one external transfer per recipient, in first-seen
// order, and reports each through emit.
func (t *transferList) settle(sink TransferSink, emit func(recipient string, amount uint64)) error {
	for _, r := range t.order {
		amt := t.amounts[r]
		if amt == 0 {
			continue
		}
		if err := sink.Transfer(r, amt); err != nil {
			return fmt.Errorf("transfer to %s: %w", r, err)
		}
		if emit != nil {
			emit(r, amt)
		}
	}
	return nil
}

// total is the sum of all pooled amounts. Used by conservation checks.
func (t *transferList) total() uint64 {
	var sum uint64
	for _, amt := range t.amounts {
		sum += amt
	}
	return sum
}

// distributeDeath splits a dead cell's stake among its still-eligible
// enemy neighbors, walking the fixed direction order up, left, down,
// right. A neighbor is eligible if its enemy bit is set and it is
// alive now or was last touched exactly at the death epoch (it changed
// in the same instant). The first N-1 recipients get floor(stake/N);
// the last gets the exact remainder, so the distributed total always
// equals the stake. With no eligible enemy the stake reverts to the
// dead cell's own owner.
func (e *Engine) distributeDeath(rx *resolution, pos Position, enemyMask uint8, epochOfDeath uint32) error {
	stake := e.cfg.StakePerGem

	var recipients []string
	for d := Direction(0); d < NumDirections; d++ {
		if enemyMask&d.Bit() == 0 {
			continue
		}
		np := pos.Neighbor(d)
		nc := e.store.Cell(np)
		if nc.Life == 0 && nc.LastUpdate != epochOfDeath {
			continue
		}
		owner := e.store.Owner(np)
		if owner == "" {
			continue
		}
		recipients = append(recipients, owner)
	}

	if len(recipients) == 0 {
		return rx.transfers.add(e.store.Owner(pos), stake)
	}

	share := stake / uint64(len(recipients))
	var allocated uint64
	for i, r := range recipients {
		amt := share
		if i == len(recipients)-1 {
			amt = stake - allocated
		}
		allocated += amt
		if err := rx.transfers.add(r, amt); err != nil {
			return err
		}
	}
	return nil
}
