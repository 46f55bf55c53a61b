package main

import (
	"fmt"
	"math/big"
	"os"

	"github.com/naoina/toml"

	"github.com/fundra-network/gfundra/common"
	"github.com/fundra-network/gfundra/params"
)

// scenarioFile is the on-disk TOML layout: one campaign configuration and an
// ordered list of attributed operation steps.
type scenarioFile struct {
	Campaign campaignFile
	Steps    []stepFile
}

// campaignFile mirrors params.CampaignConfig with string-encoded amounts.
type campaignFile struct {
	Owner           string
	Recipient       string
	SoftCap         string
	HardCap         string
	Rate            string
	FundingDeadline uint64
	AllowEarlyClose bool
	Milestones      []milestoneFile
}

type milestoneFile struct {
	Duration      uint64
	QuorumBPS     uint64
	ThresholdBPS  uint64
	InstalmentBPS uint64
}

// stepFile is one scripted operation. Op selects the action; the remaining
// fields are read per-op (Value for CONTRIBUTE, To/Amount for delegation,
// Amount/Favor/ViaDelegated for VOTE, the milestone fields for insertion).
type stepFile struct {
	Op    string
	From  string
	At    uint64
	Value string

	To           string
	Amount       string
	Favor        bool
	ViaDelegated bool

	Index         int
	Duration      uint64
	QuorumBPS     uint64
	ThresholdBPS  uint64
	InstalmentBPS uint64
	DonorIndex    int
}

// loadScenario reads and parses a scenario file.
func loadScenario(path string) (*scenarioFile, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc scenarioFile
	if err := toml.Unmarshal(blob, &sc); err != nil {
		return nil, fmt.Errorf("scenario %s: %v", path, err)
	}
	return &sc, nil
}

// toConfig converts the file form into a validated params.CampaignConfig.
func (f *campaignFile) toConfig() (params.CampaignConfig, error) {
	var cfg params.CampaignConfig

	owner, err := parseAddress("Owner", f.Owner)
	if err != nil {
		return cfg, err
	}
	recipient, err := parseAddress("Recipient", f.Recipient)
	if err != nil {
		return cfg, err
	}
	softCap, err := parseAmount("SoftCap", f.SoftCap)
	if err != nil {
		return cfg, err
	}
	hardCap, err := parseAmount("HardCap", f.HardCap)
	if err != nil {
		return cfg, err
	}
	rate, err := parseAmount("Rate", f.Rate)
	if err != nil {
		return cfg, err
	}

	cfg = params.CampaignConfig{
		Owner:           owner,
		Recipient:       recipient,
		SoftCap:         softCap,
		HardCap:         hardCap,
		Rate:            rate,
		FundingDeadline: f.FundingDeadline,
		AllowEarlyClose: f.AllowEarlyClose,
	}
	for _, m := range f.Milestones {
		cfg.Milestones = append(cfg.Milestones, params.MilestoneConfig{
			Duration:      m.Duration,
			QuorumBPS:     m.QuorumBPS,
			ThresholdBPS:  m.ThresholdBPS,
			InstalmentBPS: m.InstalmentBPS,
		})
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func parseAddress(field, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("campaign %s: invalid address %q", field, s)
	}
	return common.HexToAddress(s), nil
}

func parseAmount(field, s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("campaign %s: invalid amount %q", field, s)
	}
	return v, nil
}
