package escrow

import (
	"fmt"
	"math/big"

	"github.com/fundra-network/gfundra/common"
	"github.com/fundra-network/gfundra/params"
)

// InsertMilestone amends the schedule by inserting a new milestone at index,
// shifting every milestone at positions >= index one slot to the right. The
// new instalment share is carved out of the donor milestone, so the global
// sum-to-10000 invariant is preserved. Both index and donorIndex must lie
// strictly beyond the currently-active index; insertion fails atomically if
// any precondition does not hold.
func (c *Campaign) InsertMilestone(caller common.Address, index int, m params.MilestoneConfig, donorIndex int, now uint64) error {
	// ── Validation phase ────────────────────────────────────────────────
	if err := c.requireOwner(caller); err != nil {
		return err
	}
	if c.phase != PhaseFunding && c.phase != PhaseSucceeded {
		return fmt.Errorf("%w: campaign is %s", ErrPhaseViolation, c.phase)
	}
	if c.milestoneActive() {
		return fmt.Errorf("%w: milestone vote open", ErrPhaseViolation)
	}
	if index <= c.current {
		return fmt.Errorf("%w: index %d not beyond current %d", ErrScheduleInvariant, index, c.current)
	}
	if index > len(c.milestones) {
		return fmt.Errorf("%w: index %d beyond schedule end %d", ErrScheduleInvariant, index, len(c.milestones))
	}
	if donorIndex <= c.current || donorIndex >= len(c.milestones) {
		return fmt.Errorf("%w: donor %d not an amendable milestone", ErrScheduleInvariant, donorIndex)
	}
	if len(c.milestones) >= params.MaxMilestones {
		return fmt.Errorf("%w: schedule full", ErrScheduleInvariant)
	}
	if m.QuorumBPS > params.BPSDenominator || m.ThresholdBPS > params.BPSDenominator {
		return fmt.Errorf("%w: quorum/threshold out of range", ErrInvalidAmount)
	}
	if m.InstalmentBPS == 0 || m.InstalmentBPS > params.BPSDenominator {
		return fmt.Errorf("%w: instalment out of range", ErrInvalidAmount)
	}
	if m.InstalmentBPS > params.BPSDenominator-c.releasedBPS {
		return fmt.Errorf("%w: instalment %d over unreleased share %d",
			ErrScheduleInvariant, m.InstalmentBPS, params.BPSDenominator-c.releasedBPS)
	}
	donor := c.milestones[donorIndex]
	if donor.InstalmentBPS < m.InstalmentBPS {
		return fmt.Errorf("%w: donor share %d smaller than instalment %d",
			ErrScheduleInvariant, donor.InstalmentBPS, m.InstalmentBPS)
	}

	// ── Mutation phase ──────────────────────────────────────────────────
	inserted := &Milestone{
		Duration:      m.Duration,
		QuorumBPS:     m.QuorumBPS,
		ThresholdBPS:  m.ThresholdBPS,
		InstalmentBPS: m.InstalmentBPS,
		State:         MilestoneNotStarted,
		Snapshot:      new(big.Int),
		FavorWeight:   new(big.Int),
		OpposeWeight:  new(big.Int),
	}
	donor.InstalmentBPS -= m.InstalmentBPS

	schedule := make([]*Milestone, 0, len(c.milestones)+1)
	schedule = append(schedule, c.milestones[:index]...)
	schedule = append(schedule, inserted)
	schedule = append(schedule, c.milestones[index:]...)
	c.milestones = schedule

	// The sum-to-10000 invariant must still hold here.
	if err := c.checkScheduleSum(); err != nil {
		panic(err)
	}

	c.logger.Info("milestone inserted",
		"index", index, "instalment_bps", m.InstalmentBPS, "donor", donorIndex)
	c.record("MILESTONE_INSERT", caller, nil, now)
	return nil
}

// checkScheduleSum verifies that all instalment shares sum to exactly
// params.BPSDenominator.
func (c *Campaign) checkScheduleSum() error {
	var sum uint64
	for _, m := range c.milestones {
		sum += m.InstalmentBPS
	}
	if sum != params.BPSDenominator {
		return fmt.Errorf("%w: instalments sum to %d", ErrScheduleInvariant, sum)
	}
	return nil
}
