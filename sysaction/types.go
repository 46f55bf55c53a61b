// Package sysaction implements the gfundra campaign action protocol.
//
// Campaign actions are attributed operations submitted by an external
// execution environment that has already authenticated the caller and
// serialized all operations. Each action carries a JSON-encoded SysAction
// message; Registry.Execute dispatches it to the registered handler.
package sysaction

import "encoding/json"

// ActionKind identifies the type of campaign action.
type ActionKind string

const (
	// Contributor actions
	ActionContribute ActionKind = "CONTRIBUTE"
	ActionDelegate   ActionKind = "DELEGATE"
	ActionUndelegate ActionKind = "UNDELEGATE"
	ActionVote       ActionKind = "VOTE"

	// Owner actions
	ActionCloseFunding    ActionKind = "CLOSE_FUNDING"
	ActionMilestoneInsert ActionKind = "MILESTONE_INSERT"
	ActionMilestoneStart  ActionKind = "MILESTONE_START"
	ActionMilestoneEnd    ActionKind = "MILESTONE_END"
	ActionTerminate       ActionKind = "CAMPAIGN_TERMINATE"
)

// SysAction is the top-level envelope carried by a campaign action.
type SysAction struct {
	Action  ActionKind      `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// DelegatePayload is the payload for DELEGATE and UNDELEGATE.
type DelegatePayload struct {
	To     string `json:"to"`
	Amount string `json:"amount"` // decimal weight amount
}

// VotePayload is the payload for VOTE.
type VotePayload struct {
	Amount       string `json:"amount"` // decimal weight amount
	Favor        bool   `json:"favor"`
	ViaDelegated bool   `json:"via_delegated,omitempty"`
}

// MilestoneInsertPayload is the payload for MILESTONE_INSERT.
type MilestoneInsertPayload struct {
	Index         int    `json:"index"`
	Duration      uint64 `json:"duration"`
	QuorumBPS     uint64 `json:"quorum_bps"`
	ThresholdBPS  uint64 `json:"threshold_bps"`
	InstalmentBPS uint64 `json:"instalment_bps"`
	DonorIndex    int    `json:"donor_index"`
}
