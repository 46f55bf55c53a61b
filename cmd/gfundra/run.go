package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/naoina/toml"
	"github.com/urfave/cli/v2"

	"github.com/fundra-network/gfundra/audit"
	"github.com/fundra-network/gfundra/common"
	"github.com/fundra-network/gfundra/escrow"
	"github.com/fundra-network/gfundra/sysaction"
)

// logSink prints every transfer instruction the campaign emits. Instructions
// are advisory here; an embedding execution environment would move value.
type logSink struct {
	logger hclog.Logger
}

func (s *logSink) TransferBatch(instrs []escrow.TransferInstruction) error {
	for _, in := range instrs {
		s.logger.Info("transfer instruction", "to", in.To, "amount", in.Amount)
	}
	return nil
}

func runScenario(ctx *cli.Context) error {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:  clientIdentifier,
		Level: hclog.LevelFromString(ctx.String(logLevelFlag.Name)),
	})

	sc, err := loadScenario(ctx.String(scenarioFlag.Name))
	if err != nil {
		return err
	}
	cfg, err := sc.Campaign.toConfig()
	if err != nil {
		return err
	}

	var store audit.Store
	if dir := ctx.String(auditDBFlag.Name); dir != "" {
		ls, err := audit.OpenLevelStore(dir)
		if err != nil {
			return fmt.Errorf("open audit store: %v", err)
		}
		defer ls.Close()
		store = ls
	}
	trail := audit.NewLog(store)
	feed, cancel := trail.Subscribe(4096)
	defer cancel()

	camp, err := escrow.New(cfg,
		escrow.WithLogger(logger.Named("escrow")),
		escrow.WithSink(&logSink{logger: logger}),
		escrow.WithAuditLog(trail),
	)
	if err != nil {
		return err
	}

	registry := sysaction.NewRegistry()
	registry.Register(escrow.NewActionHandler(camp))

	failed := 0
	for i, st := range sc.Steps {
		err := applyStep(registry, st)
		drainAudit(feed)
		if err != nil {
			failed++
			logger.Error("step failed", "step", i, "op", st.Op, "err", err)
			if ctx.Bool(strictFlag.Name) {
				return fmt.Errorf("step %d (%s): %v", i, st.Op, err)
			}
			continue
		}
		logger.Debug("step applied", "step", i, "op", st.Op)
	}

	logger.Info("scenario finished",
		"steps", len(sc.Steps), "failed", failed,
		"phase", camp.Phase(), "raised", camp.TotalRaised(), "pool", camp.RemainingPool())
	return nil
}

// applyStep encodes one scripted step as a campaign action and executes it.
func applyStep(registry *sysaction.Registry, st stepFile) error {
	if !common.IsHexAddress(st.From) {
		return fmt.Errorf("invalid From address %q", st.From)
	}
	kind, payload, err := buildAction(st)
	if err != nil {
		return err
	}
	data, err := sysaction.MakeSysAction(kind, payload)
	if err != nil {
		return err
	}
	actx := &sysaction.Context{
		From: common.HexToAddress(st.From),
		Now:  st.At,
	}
	if st.Value != "" {
		value, ok := new(big.Int).SetString(st.Value, 10)
		if !ok {
			return fmt.Errorf("invalid Value %q", st.Value)
		}
		actx.Value = value
	}
	return registry.Execute(actx, data)
}

// buildAction maps a step onto its action kind and payload.
func buildAction(st stepFile) (sysaction.ActionKind, interface{}, error) {
	switch strings.ToUpper(st.Op) {
	case string(sysaction.ActionContribute):
		return sysaction.ActionContribute, nil, nil
	case string(sysaction.ActionCloseFunding):
		return sysaction.ActionCloseFunding, nil, nil
	case string(sysaction.ActionDelegate):
		return sysaction.ActionDelegate, sysaction.DelegatePayload{To: st.To, Amount: st.Amount}, nil
	case string(sysaction.ActionUndelegate):
		return sysaction.ActionUndelegate, sysaction.DelegatePayload{To: st.To, Amount: st.Amount}, nil
	case string(sysaction.ActionVote):
		return sysaction.ActionVote, sysaction.VotePayload{
			Amount:       st.Amount,
			Favor:        st.Favor,
			ViaDelegated: st.ViaDelegated,
		}, nil
	case string(sysaction.ActionMilestoneInsert):
		return sysaction.ActionMilestoneInsert, sysaction.MilestoneInsertPayload{
			Index:         st.Index,
			Duration:      st.Duration,
			QuorumBPS:     st.QuorumBPS,
			ThresholdBPS:  st.ThresholdBPS,
			InstalmentBPS: st.InstalmentBPS,
			DonorIndex:    st.DonorIndex,
		}, nil
	case string(sysaction.ActionMilestoneStart):
		return sysaction.ActionMilestoneStart, nil, nil
	case string(sysaction.ActionMilestoneEnd):
		return sysaction.ActionMilestoneEnd, nil, nil
	case string(sysaction.ActionTerminate):
		return sysaction.ActionTerminate, nil, nil
	}
	return "", nil, fmt.Errorf("unknown op %q", st.Op)
}

// drainAudit prints whatever the audit feed has delivered so far. Called
// after every step, so the trail streams alongside execution.
func drainAudit(feed <-chan audit.Record) {
	for {
		select {
		case rec := <-feed:
			blob, err := json.Marshal(&rec)
			if err != nil {
				continue
			}
			fmt.Println(string(blob))
		default:
			return
		}
	}
}

func dumpConfig(ctx *cli.Context) error {
	sc, err := loadScenario(ctx.String(scenarioFlag.Name))
	if err != nil {
		return err
	}
	if _, err := sc.Campaign.toConfig(); err != nil {
		return err
	}
	out, err := toml.Marshal(&sc.Campaign)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}
