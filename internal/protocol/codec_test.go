package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestEnvelopeRoundTrip(t *testing.T) {
	data := MustMarshal(HandshakeRequest{ProfileID: "aaa", Name: "alice"})
	b, err := EncodeRequest(7, TypeHandshake, data)
	require.NoError(t, err)

	env, err := DecodeEnvelope(b)
	require.NoError(t, err)
	require.NotNil(t, env.Request)
	assert.Nil(t, env.Response)
	assert.Equal(t, int64(7), env.Request.Seq)
	assert.Equal(t, TypeHandshake, env.Request.Type)

	var hs HandshakeRequest
	require.NoError(t, Unmarshal(env.Request.Data, &hs))
	assert.Equal(t, "aaa", hs.ProfileID)
	assert.Equal(t, "alice", hs.Name)
}

func TestResponseEnvelopeRoundTrip(t *testing.T) {
	b, err := EncodeResponse(3, MustMarshal(UpdateGameStateResponse{Success: true}))
	require.NoError(t, err)

	env, err := DecodeEnvelope(b)
	require.NoError(t, err)
	require.NotNil(t, env.Response)
	assert.Equal(t, int64(3), env.Response.Seq)
}

func TestWireNamesArePascalCase(t *testing.T) {
	b, err := EncodeRequest(1, TypeDoGeneralAction, MustMarshal(DoGeneralActionRequest{
		Action: ActionRaiseBet,
		Data:   MustMarshal(RaiseBetData{Bet: 5}),
	}))
	require.NoError(t, err)

	var outer map[string]any
	require.NoError(t, json.Unmarshal(b, &outer))
	assert.EqualValues(t, 0, outer["Type"])

	var inner map[string]any
	require.NoError(t, json.Unmarshal([]byte(outer["Data"].(string)), &inner))
	assert.EqualValues(t, 1, inner["Seq"])
	assert.Equal(t, TypeDoGeneralAction, inner["Type"])

	var action map[string]any
	require.NoError(t, json.Unmarshal([]byte(inner["Data"].(string)), &action))
	assert.EqualValues(t, 2, action["Action"])
	assert.JSONEq(t, `{"Bet":5}`, action["Data"].(string))
}

func TestDecodeEnvelopeRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":            `{"Type":`,
		"missing type":        `{"Data":"{}"}`,
		"missing data":        `{"Type":0}`,
		"unknown type":        `{"Type":9,"Data":"{}"}`,
		"request not json":    `{"Type":0,"Data":"nope"}`,
		"request missing seq": `{"Type":0,"Data":"{\"Type\":\"HandshakeRequest\"}"}`,
		"request missing typ": `{"Type":0,"Data":"{\"Seq\":1}"}`,
		"response no seq":     `{"Type":1,"Data":"{\"Data\":\"\"}"}`,
	}
	for name, raw := range cases {
		_, err := DecodeEnvelope([]byte(raw))
		assert.ErrorIs(t, err, ErrMalformed, name)
	}
}

func TestUnmarshalWrapsErrMalformed(t *testing.T) {
	var hs HandshakeRequest
	assert.ErrorIs(t, Unmarshal("{", &hs), ErrMalformed)
	assert.ErrorIs(t, Unmarshal(`{"ProfileId":12}`, &hs), ErrMalformed)
}

func TestPlayersTurnStateDataHas(t *testing.T) {
	d := PlayersTurnStateData{GeneralActions: []GeneralAction{ActionRaiseBet, ActionFold}}
	assert.True(t, d.Has(ActionFold))
	assert.False(t, d.Has(ActionShowdown))
}
