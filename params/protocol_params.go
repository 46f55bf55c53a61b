package params

const (
	// BPSDenominator is the fixed-point denominator for all basis-point
	// quantities (quorum, threshold, instalment shares). 10000 bps = 100.00%.
	BPSDenominator uint64 = 10_000

	// MaxMilestones bounds the length of a campaign's milestone schedule,
	// including milestones added later through MILESTONE_INSERT.
	MaxMilestones = 64
)
