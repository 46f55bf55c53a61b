package escrow

import (
	"fmt"
	"math/big"

	"github.com/fundra-network/gfundra/common"
	"github.com/fundra-network/gfundra/params"
	"github.com/fundra-network/gfundra/sysaction"
)

// ActionHandler implements sysaction.Handler for all campaign actions,
// dispatching each decoded action to its aggregate operation.
type ActionHandler struct {
	c *Campaign
}

// NewActionHandler creates a handler bound to one campaign.
func NewActionHandler(c *Campaign) *ActionHandler {
	return &ActionHandler{c: c}
}

// CanHandle implements sysaction.Handler.
func (h *ActionHandler) CanHandle(kind sysaction.ActionKind) bool {
	switch kind {
	case sysaction.ActionContribute,
		sysaction.ActionCloseFunding,
		sysaction.ActionDelegate,
		sysaction.ActionUndelegate,
		sysaction.ActionMilestoneInsert,
		sysaction.ActionMilestoneStart,
		sysaction.ActionVote,
		sysaction.ActionMilestoneEnd,
		sysaction.ActionTerminate:
		return true
	}
	return false
}

// Handle implements sysaction.Handler.
func (h *ActionHandler) Handle(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	switch sa.Action {
	case sysaction.ActionContribute:
		return h.c.Contribute(ctx.From, ctx.Value, ctx.Now)

	case sysaction.ActionCloseFunding:
		return h.c.CloseFunding(ctx.From, ctx.Now)

	case sysaction.ActionDelegate:
		to, amount, err := decodeDelegate(sa)
		if err != nil {
			return err
		}
		return h.c.Delegate(ctx.From, to, amount, ctx.Now)

	case sysaction.ActionUndelegate:
		to, amount, err := decodeDelegate(sa)
		if err != nil {
			return err
		}
		return h.c.Undelegate(ctx.From, to, amount, ctx.Now)

	case sysaction.ActionMilestoneInsert:
		var p sysaction.MilestoneInsertPayload
		if err := sysaction.DecodePayload(sa, &p); err != nil {
			return fmt.Errorf("milestone insert: %w", err)
		}
		m := params.MilestoneConfig{
			Duration:      p.Duration,
			QuorumBPS:     p.QuorumBPS,
			ThresholdBPS:  p.ThresholdBPS,
			InstalmentBPS: p.InstalmentBPS,
		}
		return h.c.InsertMilestone(ctx.From, p.Index, m, p.DonorIndex, ctx.Now)

	case sysaction.ActionMilestoneStart:
		return h.c.StartMilestone(ctx.From, ctx.Now)

	case sysaction.ActionVote:
		var p sysaction.VotePayload
		if err := sysaction.DecodePayload(sa, &p); err != nil {
			return fmt.Errorf("vote: %w", err)
		}
		amount, err := decodeAmount(p.Amount)
		if err != nil {
			return fmt.Errorf("vote: %w", err)
		}
		return h.c.CastVote(ctx.From, amount, p.Favor, p.ViaDelegated, ctx.Now)

	case sysaction.ActionMilestoneEnd:
		return h.c.EndMilestone(ctx.From, ctx.Now)

	case sysaction.ActionTerminate:
		return h.c.Terminate(ctx.From, ctx.Now)
	}
	return fmt.Errorf("escrow handler: unsupported action %q", sa.Action)
}

func decodeDelegate(sa *sysaction.SysAction) (common.Address, *big.Int, error) {
	var p sysaction.DelegatePayload
	if err := sysaction.DecodePayload(sa, &p); err != nil {
		return common.Address{}, nil, fmt.Errorf("delegate: %w", err)
	}
	if !common.IsHexAddress(p.To) {
		return common.Address{}, nil, fmt.Errorf("delegate: %w: to address %q", ErrInvalidAmount, p.To)
	}
	amount, err := decodeAmount(p.Amount)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("delegate: %w", err)
	}
	return common.HexToAddress(p.To), amount, nil
}

func decodeAmount(s string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%w: amount %q", ErrInvalidAmount, s)
	}
	return amount, nil
}
