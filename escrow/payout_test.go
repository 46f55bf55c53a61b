package escrow

import (
	"math/big"
	"testing"

	"github.com/fundra-network/gfundra/common"
	"github.com/fundra-network/gfundra/params"
)

// passMilestoneAt drives the milestone at the current index through a
// unanimous vote by voter.
func passMilestoneAt(t *testing.T, c *Campaign, voter common.Address, weight int64, start uint64) {
	t.Helper()
	if err := c.StartMilestone(owner, start); err != nil {
		t.Fatalf("start milestone %d: %v", c.CurrentMilestone(), err)
	}
	if err := c.CastVote(voter, big.NewInt(weight), true, false, start+1); err != nil {
		t.Fatalf("vote milestone %d: %v", c.CurrentMilestone(), err)
	}
	if err := c.EndMilestone(owner, start+100); err != nil {
		t.Fatalf("end milestone %d: %v", c.CurrentMilestone(), err)
	}
}

// TestPoolConservation drives a three-instalment schedule to completion and
// checks the pool decreases by exactly the amounts paid out.
func TestPoolConservation(t *testing.T) {
	schedule := []params.MilestoneConfig{
		{Duration: 50, QuorumBPS: 0, ThresholdBPS: 5000, InstalmentBPS: 3333},
		{Duration: 50, QuorumBPS: 0, ThresholdBPS: 5000, InstalmentBPS: 3333},
		{Duration: 50, QuorumBPS: 0, ThresholdBPS: 5000, InstalmentBPS: 3334},
	}
	c, sink := newTestCampaign(t, testConfig(schedule))
	a := tAddr(1)
	mustContribute(t, c, a, 101, 10)
	closeSucceeded(t, c)

	start := uint64(102)
	for i := 0; i < 3; i++ {
		passMilestoneAt(t, c, a, 101, start)
		start += 200
	}

	// 101*3333/10000 = 33 twice, then 101*3334/10000 = 33; 99 paid in total.
	paid := new(big.Int)
	for _, in := range sink.Instructions {
		if in.To != recipient {
			t.Errorf("disbursement to %v, want recipient", in.To)
		}
		paid.Add(paid, in.Amount)
	}
	if paid.Cmp(big.NewInt(99)) != 0 {
		t.Errorf("total paid: want 99, got %s", paid)
	}
	if got := c.RemainingPool(); got.Cmp(big.NewInt(2)) != 0 {
		t.Errorf("dust in pool: want 2, got %s", got)
	}
	if got := c.ReleasedBPS(); got != 10_000 {
		t.Errorf("released bps: want 10000, got %d", got)
	}

	// Terminate sweeps the dust to the recipient and completes the campaign.
	if err := c.Terminate(owner, 1000); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	last := sink.Instructions[len(sink.Instructions)-1]
	if last.To != recipient || last.Amount.Cmp(big.NewInt(2)) != 0 {
		t.Errorf("dust sweep: want 2 to recipient, got %s to %v", last.Amount, last.To)
	}
	if c.Phase() != PhaseCompleted {
		t.Errorf("phase: want Completed, got %s", c.Phase())
	}
	if got := c.RemainingPool(); got.Sign() != 0 {
		t.Errorf("pool after sweep: want 0, got %s", got)
	}
}

func TestTerminateValidation(t *testing.T) {
	c, _ := newTestCampaign(t, testConfig(oneMilestone(0, 5000)))
	a := tAddr(1)
	mustContribute(t, c, a, 100, 10)

	wantErr(t, c.Terminate(a, 20), ErrUnauthorized)
	wantErr(t, c.Terminate(owner, 20), ErrPhaseViolation) // still Funding

	closeSucceeded(t, c)
	wantErr(t, c.Terminate(owner, 102), ErrPhaseViolation) // milestone outstanding

	passMilestoneAt(t, c, a, 100, 102)
	if err := c.Terminate(owner, 300); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	wantErr(t, c.Terminate(owner, 301), ErrPhaseViolation) // already Completed
}

// TestDisbursementRejectionAborts verifies a rejected instalment payout
// leaves the vote resolvable again later.
func TestDisbursementRejectionAborts(t *testing.T) {
	sink := &failSink{}
	c, err := New(testConfig(oneMilestone(0, 5000)), WithSink(sink))
	if err != nil {
		t.Fatalf("new campaign: %v", err)
	}
	a := tAddr(1)
	mustContribute(t, c, a, 100, 10)
	closeSucceeded(t, c)
	if err := c.StartMilestone(owner, 102); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := c.CastVote(a, big.NewInt(60), true, false, 110); err != nil {
		t.Fatalf("vote: %v", err)
	}

	wantErr(t, c.EndMilestone(owner, 152), ErrTransferFailure)

	// No state moved: milestone still Active, pool untouched, index at 0.
	m, _ := c.MilestoneInfo(0)
	if m.State != MilestoneActive {
		t.Errorf("milestone state: want Active, got %s", m.State)
	}
	if got := c.RemainingPool(); got.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("pool: want 100, got %s", got)
	}
	if got := c.CurrentMilestone(); got != 0 {
		t.Errorf("current: want 0, got %d", got)
	}
}

// TestRefundProRataFloors verifies shares round down and dust stays pooled.
func TestRefundProRataFloors(t *testing.T) {
	cfg := testConfig(oneMilestone(0, 5000))
	cfg.SoftCap = big.NewInt(1000) // force the undershoot path
	c, sink := newTestCampaign(t, cfg)
	mustContribute(t, c, tAddr(1), 3, 10)
	mustContribute(t, c, tAddr(2), 7, 10)
	mustContribute(t, c, tAddr(3), 90, 10)

	if err := c.CloseFunding(owner, 101); err != nil {
		t.Fatalf("close: %v", err)
	}
	if c.Phase() != PhaseFailed {
		t.Fatalf("phase: want Failed, got %s", c.Phase())
	}
	// Full-pool refund has no rounding: 3, 7, 90.
	want := []int64{3, 7, 90}
	if len(sink.Instructions) != len(want) {
		t.Fatalf("instructions: want %d, got %d", len(want), len(sink.Instructions))
	}
	for i, amount := range want {
		if sink.Instructions[i].Amount.Cmp(big.NewInt(amount)) != 0 {
			t.Errorf("refund %d: want %d, got %s", i, amount, sink.Instructions[i].Amount)
		}
	}
}

// TestMilestoneFailRefundsRemaining verifies a failed mid-schedule vote
// refunds only what is still pooled, pro rata on principal.
func TestMilestoneFailRefundsRemaining(t *testing.T) {
	schedule := []params.MilestoneConfig{
		{Duration: 50, QuorumBPS: 0, ThresholdBPS: 5000, InstalmentBPS: 4000},
		{Duration: 50, QuorumBPS: 0, ThresholdBPS: 9000, InstalmentBPS: 6000},
	}
	c, sink := newTestCampaign(t, testConfig(schedule))
	mustContribute(t, c, tAddr(1), 60, 10)
	mustContribute(t, c, tAddr(2), 40, 10)
	closeSucceeded(t, c)

	passMilestoneAt(t, c, tAddr(1), 60, 102)
	// 40 disbursed, 60 remain.
	if got := c.RemainingPool(); got.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("pool after milestone 0: want 60, got %s", got)
	}

	// Milestone 1 needs favor >= 90; 60 is not enough.
	if err := c.StartMilestone(owner, 400); err != nil {
		t.Fatalf("start 1: %v", err)
	}
	if err := c.CastVote(tAddr(1), big.NewInt(60), true, false, 410); err != nil {
		t.Fatalf("vote 1: %v", err)
	}
	if err := c.EndMilestone(owner, 452); err != nil {
		t.Fatalf("end 1: %v", err)
	}
	if c.Phase() != PhaseFailed {
		t.Fatalf("phase: want Failed, got %s", c.Phase())
	}

	// Refund of the 60 pool: 60*60/100=36 and 40*60/100=24.
	refunds := sink.Instructions[len(sink.Instructions)-2:]
	if refunds[0].Amount.Cmp(big.NewInt(36)) != 0 || refunds[1].Amount.Cmp(big.NewInt(24)) != 0 {
		t.Errorf("refunds: want 36/24, got %s/%s", refunds[0].Amount, refunds[1].Amount)
	}
	if got := c.RemainingPool(); got.Sign() != 0 {
		t.Errorf("pool after refund: want 0, got %s", got)
	}
}
