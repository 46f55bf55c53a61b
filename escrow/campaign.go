package escrow

import (
	"math/big"

	"github.com/hashicorp/go-hclog"

	"github.com/fundra-network/gfundra/audit"
	"github.com/fundra-network/gfundra/common"
	"github.com/fundra-network/gfundra/params"
)

// Campaign is the aggregate owning all mutable escrow state: the contributor
// arena, the delegation edges, the milestone schedule and the pooled balance.
// It assumes strictly serialized execution; each operation runs to completion
// with no interleaving, as if holding an exclusive lock over the aggregate.
type Campaign struct {
	cfg    params.CampaignConfig
	logger hclog.Logger
	sink   TransferSink
	trail  *audit.Log

	// Contributor arena: identity -> record, plus an explicit insertion-order
	// identity list for deterministic iteration during refunds.
	contributors map[common.Address]*Contributor
	order        []common.Address

	// Delegation edges, coalesced per (from, to) pair.
	edges map[common.Address]map[common.Address]*big.Int

	milestones []*Milestone

	totalRaised   *big.Int
	remainingPool *big.Int
	current       int    // index of the milestone currently being processed
	releasedBPS   uint64 // sum of instalments already disbursed
	phase         Phase
}

// Option configures a Campaign at construction.
type Option func(*Campaign)

// WithLogger sets the campaign logger.
func WithLogger(l hclog.Logger) Option {
	return func(c *Campaign) { c.logger = l }
}

// WithSink sets the transfer sink receiving payout instruction batches.
func WithSink(s TransferSink) Option {
	return func(c *Campaign) { c.sink = s }
}

// WithAuditLog sets the append-only audit log receiving one record per
// successful state transition.
func WithAuditLog(l *audit.Log) Option {
	return func(c *Campaign) { c.trail = l }
}

// New creates a campaign in the Funding phase from a validated configuration.
func New(cfg params.CampaignConfig, opts ...Option) (*Campaign, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Campaign{
		cfg:           cfg,
		logger:        hclog.NewNullLogger(),
		sink:          &CollectSink{},
		contributors:  make(map[common.Address]*Contributor),
		edges:         make(map[common.Address]map[common.Address]*big.Int),
		totalRaised:   new(big.Int),
		remainingPool: new(big.Int),
		phase:         PhaseFunding,
	}
	for _, m := range cfg.Milestones {
		c.milestones = append(c.milestones, &Milestone{
			Duration:      m.Duration,
			QuorumBPS:     m.QuorumBPS,
			ThresholdBPS:  m.ThresholdBPS,
			InstalmentBPS: m.InstalmentBPS,
			State:         MilestoneNotStarted,
			Snapshot:      new(big.Int),
			FavorWeight:   new(big.Int),
			OpposeWeight:  new(big.Int),
		})
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Config returns the campaign configuration.
func (c *Campaign) Config() params.CampaignConfig { return c.cfg }

// contributor returns the record for addr, creating it on first use.
func (c *Campaign) contributor(addr common.Address) *Contributor {
	rec, ok := c.contributors[addr]
	if !ok {
		rec = newContributor(addr)
		c.contributors[addr] = rec
		c.order = append(c.order, addr)
	}
	return rec
}

// requireOwner gates the administrative operations.
func (c *Campaign) requireOwner(caller common.Address) error {
	if caller != c.cfg.Owner {
		return ErrUnauthorized
	}
	return nil
}

// record appends one audit record for a completed state transition. Audit
// persistence problems are logged, never propagated: the transition itself
// has already committed.
func (c *Campaign) record(op string, caller common.Address, amount *big.Int, now uint64) {
	if c.trail == nil {
		return
	}
	rec := audit.Record{
		Op:        op,
		Caller:    caller.Hex(),
		Phase:     c.phase.String(),
		Milestone: c.current,
		Time:      now,
	}
	if amount != nil {
		rec.Amount = amount.String()
	}
	if _, err := c.trail.Append(rec); err != nil {
		c.logger.Warn("audit append failed", "op", op, "err", err)
	}
}

// --- query surface (pure, no mutation) ---

// Phase returns the campaign phase.
func (c *Campaign) Phase() Phase { return c.phase }

// TotalRaised returns the total contributed during the funding phase.
func (c *Campaign) TotalRaised() *big.Int { return new(big.Int).Set(c.totalRaised) }

// RemainingPool returns the pooled balance not yet disbursed or refunded.
func (c *Campaign) RemainingPool() *big.Int { return new(big.Int).Set(c.remainingPool) }

// CurrentMilestone returns the index of the milestone currently being
// processed. It equals the schedule length once every milestone has passed.
func (c *Campaign) CurrentMilestone() int { return c.current }

// ReleasedBPS returns the sum of instalment shares already disbursed.
func (c *Campaign) ReleasedBPS() uint64 { return c.releasedBPS }

// MilestoneCount returns the schedule length.
func (c *Campaign) MilestoneCount() int { return len(c.milestones) }

// ContributorView is a defensive copy of one contributor record.
type ContributorView struct {
	Principal      *big.Int
	OwnWeight      *big.Int
	VotedWeight    *big.Int
	DelegatedVoted *big.Int
	DelegatedOut   *big.Int
	DelegatedIn    *big.Int
}

// ContributorState returns a copy of the record for addr. The second return
// is false if addr never contributed.
func (c *Campaign) ContributorState(addr common.Address) (ContributorView, bool) {
	rec, ok := c.contributors[addr]
	if !ok {
		return ContributorView{}, false
	}
	return ContributorView{
		Principal:      new(big.Int).Set(rec.Principal),
		OwnWeight:      new(big.Int).Set(rec.OwnWeight),
		VotedWeight:    new(big.Int).Set(rec.VotedWeight),
		DelegatedVoted: new(big.Int).Set(rec.DelegatedVoted),
		DelegatedOut:   new(big.Int).Set(rec.DelegatedOut),
		DelegatedIn:    new(big.Int).Set(rec.DelegatedIn),
	}, true
}

// MilestoneView is a defensive copy of one milestone's schedule entry, tally
// and state.
type MilestoneView struct {
	State         MilestoneState
	Duration      uint64
	QuorumBPS     uint64
	ThresholdBPS  uint64
	InstalmentBPS uint64
	EndTime       uint64
	Snapshot      *big.Int
	FavorWeight   *big.Int
	OpposeWeight  *big.Int
}

// MilestoneInfo returns a copy of milestone index's tally and state.
func (c *Campaign) MilestoneInfo(index int) (MilestoneView, bool) {
	if index < 0 || index >= len(c.milestones) {
		return MilestoneView{}, false
	}
	m := c.milestones[index]
	return MilestoneView{
		State:         m.State,
		Duration:      m.Duration,
		QuorumBPS:     m.QuorumBPS,
		ThresholdBPS:  m.ThresholdBPS,
		InstalmentBPS: m.InstalmentBPS,
		EndTime:       m.EndTime,
		Snapshot:      new(big.Int).Set(m.Snapshot),
		FavorWeight:   new(big.Int).Set(m.FavorWeight),
		OpposeWeight:  new(big.Int).Set(m.OpposeWeight),
	}, true
}

// Delegated returns the coalesced delegation edge amount from -> to.
func (c *Campaign) Delegated(from, to common.Address) *big.Int {
	if out, ok := c.edges[from]; ok {
		if amt, ok := out[to]; ok {
			return new(big.Int).Set(amt)
		}
	}
	return new(big.Int)
}

// milestoneActive reports whether any milestone vote is currently open.
func (c *Campaign) milestoneActive() bool {
	return c.current < len(c.milestones) && c.milestones[c.current].State == MilestoneActive
}

// totalOwnWeight sums every contributor's own weight. Delegation only moves
// weight between holders, so this equals the total votable weight.
func (c *Campaign) totalOwnWeight() *big.Int {
	total := new(big.Int)
	for _, addr := range c.order {
		total.Add(total, c.contributors[addr].OwnWeight)
	}
	return total
}
