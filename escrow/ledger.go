package escrow

import (
	"fmt"
	"math/big"

	"github.com/fundra-network/gfundra/common"
)

// Contribute records a contribution of amount from the caller. Valid only
// while the funding window is open and the hard cap is not exceeded.
// First-time contributors are registered in the contributor arena.
func (c *Campaign) Contribute(from common.Address, amount *big.Int, now uint64) error {
	// ── Validation phase (no state writes) ──────────────────────────────
	if c.phase != PhaseFunding {
		return fmt.Errorf("%w: campaign is %s", ErrPhaseViolation, c.phase)
	}
	if now > c.cfg.FundingDeadline {
		return fmt.Errorf("%w: funding deadline passed", ErrPhaseViolation)
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: contribution must be positive", ErrInvalidAmount)
	}
	newTotal := new(big.Int).Add(c.totalRaised, amount)
	if newTotal.Cmp(c.cfg.HardCap) > 0 {
		return fmt.Errorf("%w: %s over hard cap %s", ErrCapExceeded, newTotal, c.cfg.HardCap)
	}

	// ── Mutation phase ──────────────────────────────────────────────────
	rec := c.contributor(from)
	rec.Principal.Add(rec.Principal, amount)
	rec.OwnWeight.Mul(rec.Principal, c.cfg.Rate)
	c.totalRaised.Set(newTotal)

	c.logger.Debug("contribution recorded",
		"from", from, "amount", amount, "total", c.totalRaised)
	c.record("CONTRIBUTE", from, amount, now)
	return nil
}

// CloseFunding closes the funding window exactly once. If the soft cap was
// met the campaign transitions to Succeeded with milestone 0 armed for
// voting; otherwise it transitions to Failed and the full pool is refunded
// pro rata. A second call fails with ErrPhaseViolation.
func (c *Campaign) CloseFunding(caller common.Address, now uint64) error {
	// ── Validation phase ────────────────────────────────────────────────
	if err := c.requireOwner(caller); err != nil {
		return err
	}
	if c.phase != PhaseFunding {
		return fmt.Errorf("%w: funding already closed", ErrPhaseViolation)
	}
	if now <= c.cfg.FundingDeadline && !c.cfg.AllowEarlyClose {
		return fmt.Errorf("%w: funding deadline not reached", ErrPhaseViolation)
	}

	if c.totalRaised.Cmp(c.cfg.SoftCap) >= 0 {
		// ── Mutation phase: success path ────────────────────────────────
		c.phase = PhaseSucceeded
		c.remainingPool.Set(c.totalRaised)
		c.current = 0

		c.logger.Info("funding succeeded",
			"raised", c.totalRaised, "softcap", c.cfg.SoftCap)
		c.record("CLOSE_FUNDING", caller, c.totalRaised, now)
		return nil
	}

	// Failure path: refund every contributor their full principal. The batch
	// is computed and submitted before any state is touched, so a rejected
	// batch leaves the campaign unchanged.
	instrs, refunded := c.computeRefund(c.totalRaised)
	if err := c.sink.TransferBatch(instrs); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailure, err)
	}

	// ── Mutation phase: failure path ────────────────────────────────────
	c.phase = PhaseFailed
	c.remainingPool.Set(c.totalRaised)
	c.remainingPool.Sub(c.remainingPool, refunded)

	c.logger.Info("funding failed, pool refunded",
		"raised", c.totalRaised, "softcap", c.cfg.SoftCap, "refunded", refunded)
	c.record("CLOSE_FUNDING", caller, refunded, now)
	return nil
}
