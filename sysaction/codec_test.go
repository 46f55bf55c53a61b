package sysaction

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeRejectsMalformedData(t *testing.T) {
	for _, data := range [][]byte{
		nil,
		{},
		[]byte("not json"),
		[]byte(`{"payload":{}}`), // missing action
	} {
		_, err := Decode(data)
		if !errors.Is(err, ErrInvalidSysAction) {
			t.Errorf("Decode(%q): want ErrInvalidSysAction, got %v", data, err)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	data, err := MakeSysAction(ActionVote, VotePayload{Amount: "50", Favor: true})
	require.NoError(t, err)

	sa, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, ActionVote, sa.Action)

	var p VotePayload
	require.NoError(t, DecodePayload(sa, &p))
	require.Equal(t, "50", p.Amount)
	require.True(t, p.Favor)
	require.False(t, p.ViaDelegated)
}

func TestMakeSysActionWithoutPayload(t *testing.T) {
	data, err := MakeSysAction(ActionCloseFunding, nil)
	require.NoError(t, err)

	sa, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, ActionCloseFunding, sa.Action)
	require.Empty(t, sa.Payload)
}
