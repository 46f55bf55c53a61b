package escrow

import (
	"fmt"
	"math/big"

	"github.com/fundra-network/gfundra/common"
)

// computeRefund builds the pro-rata refund batch for total. Shares are
// computed for every contributor first, then emitted as one batch, so
// iteration can never observe partial application. Returns the instruction
// list and the summed refund (total minus rounding dust).
func (c *Campaign) computeRefund(total *big.Int) ([]TransferInstruction, *big.Int) {
	instrs := make([]TransferInstruction, 0, len(c.order))
	refunded := new(big.Int)
	if c.totalRaised.Sign() == 0 {
		return instrs, refunded
	}
	for _, addr := range c.order {
		rec := c.contributors[addr]
		if rec.Principal.Sign() == 0 {
			continue
		}
		// share = principal * total / totalRaised, rounded down. The floors
		// guarantee the batch can never exceed total.
		share := new(big.Int).Mul(rec.Principal, total)
		share.Div(share, c.totalRaised)
		if share.Sign() == 0 {
			continue
		}
		instrs = append(instrs, TransferInstruction{To: addr, Amount: share})
		refunded.Add(refunded, share)
	}
	return instrs, refunded
}

// Terminate sweeps any rounding dust left in the pool to the recipient after
// the final milestone has passed, and completes the campaign. Owner only.
func (c *Campaign) Terminate(caller common.Address, now uint64) error {
	// ── Validation phase ────────────────────────────────────────────────
	if err := c.requireOwner(caller); err != nil {
		return err
	}
	if c.phase != PhaseSucceeded {
		return fmt.Errorf("%w: campaign is %s", ErrPhaseViolation, c.phase)
	}
	if c.current < len(c.milestones) {
		return fmt.Errorf("%w: %d milestones outstanding", ErrPhaseViolation, len(c.milestones)-c.current)
	}

	dust := new(big.Int).Set(c.remainingPool)
	if dust.Sign() > 0 {
		instr := []TransferInstruction{{To: c.cfg.Recipient, Amount: dust}}
		if err := c.sink.TransferBatch(instr); err != nil {
			return fmt.Errorf("%w: %v", ErrTransferFailure, err)
		}
	}

	// ── Mutation phase ──────────────────────────────────────────────────
	c.remainingPool.SetInt64(0)
	c.phase = PhaseCompleted

	c.logger.Info("campaign completed", "dust_swept", dust)
	c.record("CAMPAIGN_TERMINATE", caller, dust, now)
	return nil
}
