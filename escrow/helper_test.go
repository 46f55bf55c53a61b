package escrow

import (
	"errors"
	"math/big"
	"testing"

	"github.com/fundra-network/gfundra/common"
	"github.com/fundra-network/gfundra/params"
)

var (
	owner     = common.Address{0xaa}
	recipient = common.Address{0xbb}
)

// tAddr generates a deterministic test address.
func tAddr(b byte) common.Address { return common.Address{b} }

// oneMilestone is a schedule releasing everything through a single vote.
func oneMilestone(quorumBPS, thresholdBPS uint64) []params.MilestoneConfig {
	return []params.MilestoneConfig{
		{Duration: 50, QuorumBPS: quorumBPS, ThresholdBPS: thresholdBPS, InstalmentBPS: 10_000},
	}
}

// testConfig returns a small valid campaign config: caps 100/1000, rate 1,
// funding deadline at t=100.
func testConfig(milestones []params.MilestoneConfig) params.CampaignConfig {
	return params.CampaignConfig{
		Owner:           owner,
		Recipient:       recipient,
		SoftCap:         big.NewInt(100),
		HardCap:         big.NewInt(1000),
		Rate:            big.NewInt(1),
		FundingDeadline: 100,
		Milestones:      milestones,
	}
}

func newTestCampaign(t *testing.T, cfg params.CampaignConfig, opts ...Option) (*Campaign, *CollectSink) {
	t.Helper()
	sink := &CollectSink{}
	camp, err := New(cfg, append([]Option{WithSink(sink)}, opts...)...)
	if err != nil {
		t.Fatalf("new campaign: %v", err)
	}
	return camp, sink
}

// mustContribute fails the test if a contribution is rejected.
func mustContribute(t *testing.T, c *Campaign, from common.Address, amount int64, now uint64) {
	t.Helper()
	if err := c.Contribute(from, big.NewInt(amount), now); err != nil {
		t.Fatalf("contribute %d from %v: %v", amount, from, err)
	}
}

// closeSucceeded closes funding after the deadline and requires success.
func closeSucceeded(t *testing.T, c *Campaign) {
	t.Helper()
	if err := c.CloseFunding(owner, 101); err != nil {
		t.Fatalf("close funding: %v", err)
	}
	if c.Phase() != PhaseSucceeded {
		t.Fatalf("phase after close: want Succeeded, got %s", c.Phase())
	}
}

// wantErr requires errors.Is(err, want).
func wantErr(t *testing.T, err, want error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("want %v, got %v", want, err)
	}
}

// failSink rejects every batch, standing in for an execution environment
// that cannot satisfy payout instructions.
type failSink struct{ calls int }

func (s *failSink) TransferBatch([]TransferInstruction) error {
	s.calls++
	return errors.New("payout rejected")
}
