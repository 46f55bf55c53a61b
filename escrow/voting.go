package escrow

import (
	"fmt"
	"math"
	"math/big"

	"github.com/fundra-network/gfundra/common"
	"github.com/fundra-network/gfundra/params"
)

// StartMilestone opens the vote on the current milestone. The total votable
// weight is snapshotted at this instant and fixed for the whole vote, so
// later contributions or delegations cannot retroactively alter quorum math.
func (c *Campaign) StartMilestone(caller common.Address, now uint64) error {
	// ── Validation phase ────────────────────────────────────────────────
	if err := c.requireOwner(caller); err != nil {
		return err
	}
	if c.phase != PhaseSucceeded {
		return fmt.Errorf("%w: campaign is %s", ErrPhaseViolation, c.phase)
	}
	if c.current >= len(c.milestones) {
		return fmt.Errorf("%w: no milestone left to start", ErrPhaseViolation)
	}
	m := c.milestones[c.current]
	if m.State != MilestoneNotStarted {
		return fmt.Errorf("%w: milestone %d is %s", ErrPhaseViolation, c.current, m.State)
	}
	if m.Duration > math.MaxUint64-now {
		return fmt.Errorf("%w: vote end time overflows", ErrInvalidAmount)
	}

	// ── Mutation phase ──────────────────────────────────────────────────
	m.State = MilestoneActive
	m.EndTime = now + m.Duration
	m.Snapshot = c.totalOwnWeight()

	c.logger.Info("milestone vote opened",
		"index", c.current, "snapshot", m.Snapshot, "ends", m.EndTime)
	c.record("MILESTONE_START", caller, nil, now)
	return nil
}

// CastVote adds amount of the caller's weight to the open milestone's tally.
// With viaDelegated the weight is drawn from the caller's delegated-in pool,
// otherwise from their own votable weight; either pool is marked spent so the
// same weight cannot vote twice within the milestone.
func (c *Campaign) CastVote(from common.Address, amount *big.Int, favor, viaDelegated bool, now uint64) error {
	// ── Validation phase ────────────────────────────────────────────────
	if c.phase != PhaseSucceeded || !c.milestoneActive() {
		return fmt.Errorf("%w: no milestone vote open", ErrPhaseViolation)
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: vote weight must be positive", ErrInvalidAmount)
	}
	rec, ok := c.contributors[from]
	if !ok {
		return fmt.Errorf("%w: unknown contributor", ErrInsufficientWeight)
	}
	var avail *big.Int
	if viaDelegated {
		avail = rec.delegatedVotable()
	} else {
		avail = rec.ownVotable()
	}
	if amount.Cmp(avail) > 0 {
		return fmt.Errorf("%w: %s over votable %s", ErrInsufficientWeight, amount, avail)
	}

	// ── Mutation phase ──────────────────────────────────────────────────
	m := c.milestones[c.current]
	if viaDelegated {
		rec.DelegatedVoted.Add(rec.DelegatedVoted, amount)
	} else {
		rec.VotedWeight.Add(rec.VotedWeight, amount)
	}
	if favor {
		m.FavorWeight.Add(m.FavorWeight, amount)
	} else {
		m.OpposeWeight.Add(m.OpposeWeight, amount)
	}

	c.logger.Debug("vote cast",
		"from", from, "amount", amount, "favor", favor, "delegated", viaDelegated)
	c.record("VOTE", from, amount, now)
	return nil
}

// EndMilestone closes the open vote once its window has elapsed and resolves
// it. Quorum is checked first against the start snapshot; a quorate vote
// passes when favor weight reaches the threshold fraction of the snapshot.
// Passing disburses the milestone's instalment and advances the schedule;
// failing refunds the remaining pool and fails the campaign.
func (c *Campaign) EndMilestone(caller common.Address, now uint64) error {
	// ── Validation phase ────────────────────────────────────────────────
	if err := c.requireOwner(caller); err != nil {
		return err
	}
	if c.phase != PhaseSucceeded || !c.milestoneActive() {
		return fmt.Errorf("%w: no milestone vote open", ErrPhaseViolation)
	}
	m := c.milestones[c.current]
	if now < m.EndTime {
		return fmt.Errorf("%w: vote open until %d", ErrPhaseViolation, m.EndTime)
	}

	if c.resolve(m) {
		return c.passMilestone(caller, m, now)
	}
	return c.failMilestone(caller, m, now)
}

// resolve applies the quorum and threshold rules against the start snapshot.
func (c *Campaign) resolve(m *Milestone) bool {
	denom := new(big.Int).SetUint64(params.BPSDenominator)

	cast := new(big.Int).Add(m.FavorWeight, m.OpposeWeight)
	quorum := new(big.Int).Mul(m.Snapshot, new(big.Int).SetUint64(m.QuorumBPS))
	quorum.Div(quorum, denom)
	if cast.Cmp(quorum) < 0 {
		return false
	}

	threshold := new(big.Int).Mul(m.Snapshot, new(big.Int).SetUint64(m.ThresholdBPS))
	threshold.Div(threshold, denom)
	return m.FavorWeight.Cmp(threshold) >= 0
}

// passMilestone disburses the instalment, advances the schedule and resets
// the per-milestone vote counters. The payout batch is submitted before any
// state is touched; a rejected batch aborts the whole operation.
func (c *Campaign) passMilestone(caller common.Address, m *Milestone, now uint64) error {
	amount := new(big.Int).Mul(c.totalRaised, new(big.Int).SetUint64(m.InstalmentBPS))
	amount.Div(amount, new(big.Int).SetUint64(params.BPSDenominator))
	if amount.Cmp(c.remainingPool) > 0 {
		return fmt.Errorf("%w: instalment %s over pool %s", ErrTransferFailure, amount, c.remainingPool)
	}
	if amount.Sign() > 0 {
		instr := []TransferInstruction{{To: c.cfg.Recipient, Amount: new(big.Int).Set(amount)}}
		if err := c.sink.TransferBatch(instr); err != nil {
			return fmt.Errorf("%w: %v", ErrTransferFailure, err)
		}
	}

	// ── Mutation phase ──────────────────────────────────────────────────
	m.State = MilestonePassed
	c.remainingPool.Sub(c.remainingPool, amount)
	c.releasedBPS += m.InstalmentBPS
	c.current++
	for _, addr := range c.order {
		rec := c.contributors[addr]
		rec.VotedWeight.SetInt64(0)
		rec.DelegatedVoted.SetInt64(0)
	}

	c.logger.Info("milestone passed",
		"index", c.current-1, "released", amount, "pool", c.remainingPool)
	c.record("MILESTONE_END", caller, amount, now)
	return nil
}

// failMilestone refunds the remaining pool pro rata and fails the campaign.
func (c *Campaign) failMilestone(caller common.Address, m *Milestone, now uint64) error {
	instrs, refunded := c.computeRefund(c.remainingPool)
	if err := c.sink.TransferBatch(instrs); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailure, err)
	}

	// ── Mutation phase ──────────────────────────────────────────────────
	m.State = MilestoneFailed
	c.phase = PhaseFailed
	c.remainingPool.Sub(c.remainingPool, refunded)

	c.logger.Info("milestone failed, pool refunded",
		"index", c.current, "favor", m.FavorWeight, "oppose", m.OpposeWeight,
		"refunded", refunded, "dust", c.remainingPool)
	c.record("MILESTONE_END", caller, refunded, now)
	return nil
}
