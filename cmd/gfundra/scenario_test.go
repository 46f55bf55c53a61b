package main

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fundra-network/gfundra/audit"
	"github.com/fundra-network/gfundra/common"
	"github.com/fundra-network/gfundra/escrow"
	"github.com/fundra-network/gfundra/sysaction"
)

func TestLoadScenario(t *testing.T) {
	sc, err := loadScenario("testdata/scenario.toml")
	require.NoError(t, err)
	require.Len(t, sc.Steps, 11)
	require.Len(t, sc.Campaign.Milestones, 2)

	cfg, err := sc.Campaign.toConfig()
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress("0xa1"), cfg.Owner)
	require.Equal(t, big.NewInt(100), cfg.SoftCap)
	require.Equal(t, uint64(100), cfg.FundingDeadline)
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := loadScenario("testdata/nope.toml")
	require.Error(t, err)
}

func TestConfigRejectsBadAddress(t *testing.T) {
	sc, err := loadScenario("testdata/scenario.toml")
	require.NoError(t, err)
	sc.Campaign.Owner = "not-an-address"
	_, err = sc.Campaign.toConfig()
	require.Error(t, err)
}

func TestBuildAction(t *testing.T) {
	kind, payload, err := buildAction(stepFile{Op: "delegate", To: "0x01", Amount: "5"})
	require.NoError(t, err)
	require.Equal(t, sysaction.ActionDelegate, kind)
	require.Equal(t, sysaction.DelegatePayload{To: "0x01", Amount: "5"}, payload)

	kind, payload, err = buildAction(stepFile{Op: "CONTRIBUTE"})
	require.NoError(t, err)
	require.Equal(t, sysaction.ActionContribute, kind)
	require.Nil(t, payload)

	_, _, err = buildAction(stepFile{Op: "EXPLODE"})
	require.Error(t, err)
}

// TestScenarioRunsToCompletion drives the bundled scenario through the action
// registry and checks the campaign ends completed with an empty pool.
func TestScenarioRunsToCompletion(t *testing.T) {
	sc, err := loadScenario("testdata/scenario.toml")
	require.NoError(t, err)
	cfg, err := sc.Campaign.toConfig()
	require.NoError(t, err)

	sink := &escrow.CollectSink{}
	camp, err := escrow.New(cfg, escrow.WithSink(sink))
	require.NoError(t, err)

	registry := sysaction.NewRegistry()
	registry.Register(escrow.NewActionHandler(camp))

	for i, st := range sc.Steps {
		require.NoError(t, applyStep(registry, st), "step %d (%s)", i, st.Op)
	}

	require.Equal(t, escrow.PhaseCompleted, camp.Phase())
	require.Equal(t, big.NewInt(100), camp.TotalRaised())
	require.Zero(t, camp.RemainingPool().Sign())
	// 40 + 60 instalments to the recipient; no dust on this split.
	require.Len(t, sink.Instructions, 2)
	require.Equal(t, big.NewInt(40), sink.Instructions[0].Amount)
	require.Equal(t, big.NewInt(60), sink.Instructions[1].Amount)
}

// TestAuditFeedStreamsPerStep verifies each applied step's audit record is on
// the feed before the next step runs, not only after the scenario ends.
func TestAuditFeedStreamsPerStep(t *testing.T) {
	sc, err := loadScenario("testdata/scenario.toml")
	require.NoError(t, err)
	cfg, err := sc.Campaign.toConfig()
	require.NoError(t, err)

	trail := audit.NewLog(nil)
	feed, cancel := trail.Subscribe(16)
	defer cancel()

	camp, err := escrow.New(cfg, escrow.WithAuditLog(trail))
	require.NoError(t, err)
	registry := sysaction.NewRegistry()
	registry.Register(escrow.NewActionHandler(camp))

	for i, st := range sc.Steps {
		require.NoError(t, applyStep(registry, st), "step %d (%s)", i, st.Op)
		select {
		case rec := <-feed:
			require.Equal(t, uint64(i), rec.Seq, "step %d", i)
		default:
			t.Fatalf("step %d (%s): no audit record on the feed", i, st.Op)
		}
	}
	require.Equal(t, escrow.PhaseCompleted, camp.Phase())
	require.Equal(t, uint64(len(sc.Steps)), trail.Len())
}
