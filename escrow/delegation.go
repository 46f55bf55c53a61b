package escrow

import (
	"fmt"
	"math/big"

	"github.com/fundra-network/gfundra/common"
)

// Delegate moves amount of voting weight from the caller's own pool to to's
// delegated-in pool. Delegation changes are disallowed while a milestone
// vote is open, so weight cannot shift under an in-flight tally. now is the
// externally supplied operation time, recorded in the audit trail.
func (c *Campaign) Delegate(from, to common.Address, amount *big.Int, now uint64) error {
	// ── Validation phase ────────────────────────────────────────────────
	if c.phase != PhaseFunding && c.phase != PhaseSucceeded {
		return fmt.Errorf("%w: campaign is %s", ErrPhaseViolation, c.phase)
	}
	if c.milestoneActive() {
		return fmt.Errorf("%w: milestone vote open", ErrPhaseViolation)
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: delegation must be positive", ErrInvalidAmount)
	}
	if from == to {
		return fmt.Errorf("%w: self-delegation", ErrInvalidAmount)
	}
	src, ok := c.contributors[from]
	if !ok || src.Principal.Sign() == 0 {
		return fmt.Errorf("%w: delegator has no principal", ErrInsufficientWeight)
	}
	dst, ok := c.contributors[to]
	if !ok || dst.Principal.Sign() == 0 {
		return fmt.Errorf("%w: delegate has no principal", ErrInvalidAmount)
	}
	avail := new(big.Int).Sub(src.OwnWeight, src.DelegatedOut)
	if amount.Cmp(avail) > 0 {
		return fmt.Errorf("%w: %s over available %s", ErrInsufficientWeight, amount, avail)
	}

	// ── Mutation phase ──────────────────────────────────────────────────
	out, ok := c.edges[from]
	if !ok {
		out = make(map[common.Address]*big.Int)
		c.edges[from] = out
	}
	if edge, ok := out[to]; ok {
		edge.Add(edge, amount)
	} else {
		out[to] = new(big.Int).Set(amount)
	}
	src.DelegatedOut.Add(src.DelegatedOut, amount)
	dst.DelegatedIn.Add(dst.DelegatedIn, amount)

	c.logger.Debug("weight delegated", "from", from, "to", to, "amount", amount)
	c.record("DELEGATE", from, amount, now)
	return nil
}

// Undelegate returns amount of previously delegated weight from to back to
// the caller. The (from, to) edge must hold at least amount; like Delegate,
// it is disallowed while a milestone vote is open.
func (c *Campaign) Undelegate(from, to common.Address, amount *big.Int, now uint64) error {
	// ── Validation phase ────────────────────────────────────────────────
	if c.phase != PhaseFunding && c.phase != PhaseSucceeded {
		return fmt.Errorf("%w: campaign is %s", ErrPhaseViolation, c.phase)
	}
	if c.milestoneActive() {
		return fmt.Errorf("%w: milestone vote open", ErrPhaseViolation)
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: undelegation must be positive", ErrInvalidAmount)
	}
	edge := c.edgeAmount(from, to)
	if edge == nil || edge.Cmp(amount) < 0 {
		return fmt.Errorf("%w: edge smaller than %s", ErrInsufficientWeight, amount)
	}

	// ── Mutation phase ──────────────────────────────────────────────────
	edge.Sub(edge, amount)
	if edge.Sign() == 0 {
		delete(c.edges[from], to)
		if len(c.edges[from]) == 0 {
			delete(c.edges, from)
		}
	}
	src := c.contributors[from]
	dst := c.contributors[to]
	src.DelegatedOut.Sub(src.DelegatedOut, amount)
	dst.DelegatedIn.Sub(dst.DelegatedIn, amount)

	c.logger.Debug("weight undelegated", "from", from, "to", to, "amount", amount)
	c.record("UNDELEGATE", from, amount, now)
	return nil
}

// edgeAmount returns the live edge value for (from, to), or nil.
func (c *Campaign) edgeAmount(from, to common.Address) *big.Int {
	if out, ok := c.edges[from]; ok {
		return out[to]
	}
	return nil
}
