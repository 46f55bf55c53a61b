// Package escrow implements the staged-funding escrow campaign: contribution
// accounting, delegated vote-weight bookkeeping, the milestone proposal
// schedule, quorum/threshold vote tallying, instalment disbursement and
// pro-rata refunds. All state lives in a single Campaign aggregate; every
// operation either completes fully or fails with zero observable mutation.
package escrow

import (
	"errors"
	"math/big"

	"github.com/fundra-network/gfundra/common"
)

// Phase is the lifecycle state of a campaign.
type Phase uint8

const (
	// PhaseFunding accepts contributions until the funding window closes.
	PhaseFunding Phase = iota
	// PhaseSucceeded means the soft cap was met; milestones are voted in order.
	PhaseSucceeded
	// PhaseFailed is terminal: funding fell short or a milestone vote failed,
	// and the remaining pool was refunded pro rata.
	PhaseFailed
	// PhaseCompleted is terminal: every milestone passed and any dust was swept.
	PhaseCompleted
)

// String implements fmt.Stringer.
func (p Phase) String() string {
	switch p {
	case PhaseFunding:
		return "Funding"
	case PhaseSucceeded:
		return "Succeeded"
	case PhaseFailed:
		return "Failed"
	case PhaseCompleted:
		return "Completed"
	}
	return "Unknown"
}

// MilestoneState is the per-milestone vote state machine.
type MilestoneState uint8

const (
	MilestoneNotStarted MilestoneState = iota
	MilestoneActive
	MilestonePassed
	MilestoneFailed
)

// String implements fmt.Stringer.
func (s MilestoneState) String() string {
	switch s {
	case MilestoneNotStarted:
		return "NotStarted"
	case MilestoneActive:
		return "Active"
	case MilestonePassed:
		return "Passed"
	case MilestoneFailed:
		return "Failed"
	}
	return "Unknown"
}

// Sentinel errors returned by campaign operations. Every operation validates
// all preconditions before mutating state; on failure the campaign is left
// byte-for-byte unchanged.
var (
	// ErrInvalidAmount rejects zero, negative or otherwise malformed operands.
	ErrInvalidAmount = errors.New("escrow: invalid amount")
	// ErrPhaseViolation rejects an operation not valid in the current
	// campaign or milestone state.
	ErrPhaseViolation = errors.New("escrow: operation not valid in current phase")
	// ErrCapExceeded rejects a contribution that would exceed the hard cap.
	ErrCapExceeded = errors.New("escrow: hard cap exceeded")
	// ErrInsufficientWeight rejects a vote or delegation exceeding the
	// caller's available weight pool.
	ErrInsufficientWeight = errors.New("escrow: insufficient votable weight")
	// ErrScheduleInvariant rejects a schedule amendment that would break the
	// instalment-sum invariant or touch an already-reached index.
	ErrScheduleInvariant = errors.New("escrow: milestone schedule invariant violated")
	// ErrUnauthorized rejects a non-owner calling an owner-only operation.
	ErrUnauthorized = errors.New("escrow: caller is not the campaign owner")
	// ErrTransferFailure means an external payout instruction could not be
	// satisfied; the whole triggering operation is aborted.
	ErrTransferFailure = errors.New("escrow: transfer instruction rejected")
)

// Contributor is the per-caller accounting record. Contributors are created
// on first contribution and never deleted; zero-balance contributors remain
// addressable for historical queries.
type Contributor struct {
	Addr      common.Address
	Principal *big.Int
	OwnWeight *big.Int // Principal * rate

	// Per-milestone vote spend, reset when a milestone passes. Direct votes
	// and delegated-pool votes are tracked independently so a delegate
	// cannot double-spend received weight as if it were their own.
	VotedWeight    *big.Int
	DelegatedVoted *big.Int

	DelegatedOut *big.Int
	DelegatedIn  *big.Int
}

func newContributor(addr common.Address) *Contributor {
	return &Contributor{
		Addr:           addr,
		Principal:      new(big.Int),
		OwnWeight:      new(big.Int),
		VotedWeight:    new(big.Int),
		DelegatedVoted: new(big.Int),
		DelegatedOut:   new(big.Int),
		DelegatedIn:    new(big.Int),
	}
}

// ownVotable is the weight still spendable as direct votes.
func (c *Contributor) ownVotable() *big.Int {
	avail := new(big.Int).Sub(c.OwnWeight, c.DelegatedOut)
	return avail.Sub(avail, c.VotedWeight)
}

// delegatedVotable is the received weight still spendable as delegated votes.
func (c *Contributor) delegatedVotable() *big.Int {
	return new(big.Int).Sub(c.DelegatedIn, c.DelegatedVoted)
}

// Milestone is one stage of the funding schedule, gated by a weighted vote.
type Milestone struct {
	Duration      uint64
	QuorumBPS     uint64
	ThresholdBPS  uint64
	InstalmentBPS uint64

	State        MilestoneState
	EndTime      uint64   // set at start: now + Duration
	Snapshot     *big.Int // total votable weight at start, fixed for quorum math
	FavorWeight  *big.Int
	OpposeWeight *big.Int
}

// TransferInstruction is one computed value movement emitted to the external
// execution environment. The core computes who gets how much; it never moves
// value itself.
type TransferInstruction struct {
	To     common.Address
	Amount *big.Int
}

// TransferSink receives payout instruction batches. A batch is all-or-nothing:
// a non-nil error means no instruction in the batch was executed, and the
// triggering campaign operation is aborted without state change.
type TransferSink interface {
	TransferBatch(instrs []TransferInstruction) error
}

// CollectSink is a TransferSink that records every instruction and never
// fails. It is the default sink and is convenient in tests.
type CollectSink struct {
	Instructions []TransferInstruction
}

// TransferBatch implements TransferSink.
func (s *CollectSink) TransferBatch(instrs []TransferInstruction) error {
	s.Instructions = append(s.Instructions, instrs...)
	return nil
}
