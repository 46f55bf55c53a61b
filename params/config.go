// Package params holds campaign configuration and protocol constants.
package params

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/fundra-network/gfundra/common"
)

// Configuration validation errors.
var (
	ErrNoOwner        = errors.New("params: campaign owner address must be set")
	ErrNoRecipient    = errors.New("params: campaign recipient address must be set")
	ErrBadCaps        = errors.New("params: caps must satisfy 0 < softCap <= hardCap")
	ErrBadRate        = errors.New("params: weight rate must be positive")
	ErrNoMilestones   = errors.New("params: schedule must contain at least one milestone")
	ErrTooManyStones  = errors.New("params: schedule exceeds MaxMilestones")
	ErrBadBPS         = errors.New("params: basis-point value out of range")
	ErrScheduleSum    = errors.New("params: milestone instalments must sum to exactly 10000 bps")
	ErrZeroInstalment = errors.New("params: milestone instalment must be positive")
)

// MilestoneConfig describes one scheduled instalment proposal.
type MilestoneConfig struct {
	// Duration is the voting window in seconds, counted from the moment the
	// milestone vote is started.
	Duration uint64

	// QuorumBPS is the minimum fraction of the snapshot votable weight that
	// must be cast (favor plus oppose) for the vote to be decided on its merits.
	QuorumBPS uint64

	// ThresholdBPS is the minimum fraction of the snapshot votable weight
	// that must vote in favor for the milestone to pass.
	ThresholdBPS uint64

	// InstalmentBPS is the fraction of total raised funds released to the
	// recipient when this milestone passes.
	InstalmentBPS uint64
}

// CampaignConfig is the immutable configuration of a campaign. It is fixed at
// construction; only the milestone schedule may later grow through the
// MILESTONE_INSERT operation.
type CampaignConfig struct {
	// Owner gates the administrative operations (closing the funding window,
	// amending the schedule, starting/ending milestone votes, terminating).
	Owner common.Address

	// Recipient receives every instalment disbursed by a passing milestone.
	Recipient common.Address

	// SoftCap is the minimum total raised for the funding phase to succeed.
	SoftCap *big.Int

	// HardCap is the maximum total the campaign accepts.
	HardCap *big.Int

	// Rate converts contributed principal into voting weight:
	// ownWeight = principal * Rate.
	Rate *big.Int

	// FundingDeadline is the unix time after which no further contributions
	// are accepted and the funding window may be closed.
	FundingDeadline uint64

	// AllowEarlyClose permits the owner to close the funding window before
	// FundingDeadline has passed.
	AllowEarlyClose bool

	// Milestones is the initial instalment schedule. Instalments must sum to
	// exactly BPSDenominator.
	Milestones []MilestoneConfig
}

// Validate checks the configuration for internal consistency.
func (c *CampaignConfig) Validate() error {
	if c.Owner == (common.Address{}) {
		return ErrNoOwner
	}
	if c.Recipient == (common.Address{}) {
		return ErrNoRecipient
	}
	if c.SoftCap == nil || c.HardCap == nil ||
		c.SoftCap.Sign() <= 0 || c.SoftCap.Cmp(c.HardCap) > 0 {
		return ErrBadCaps
	}
	if c.Rate == nil || c.Rate.Sign() <= 0 {
		return ErrBadRate
	}
	if len(c.Milestones) == 0 {
		return ErrNoMilestones
	}
	if len(c.Milestones) > MaxMilestones {
		return ErrTooManyStones
	}
	var sum uint64
	for i, m := range c.Milestones {
		if m.QuorumBPS > BPSDenominator || m.ThresholdBPS > BPSDenominator {
			return fmt.Errorf("%w: milestone %d", ErrBadBPS, i)
		}
		if m.InstalmentBPS == 0 {
			return fmt.Errorf("%w: milestone %d", ErrZeroInstalment, i)
		}
		if m.InstalmentBPS > BPSDenominator {
			return fmt.Errorf("%w: milestone %d", ErrBadBPS, i)
		}
		sum += m.InstalmentBPS
	}
	if sum != BPSDenominator {
		return fmt.Errorf("%w: got %d", ErrScheduleSum, sum)
	}
	return nil
}
