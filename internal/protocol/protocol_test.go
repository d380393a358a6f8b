// internal/protocol/protocol_test.go
package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope_IDByKind(t *testing.T) {
	b, err := json.Marshal(ControlGet("Gain1", "Mute1").Envelope())
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":2,"method":"Control.Get","params":["Gain1","Mute1"],"id":1}`, string(b))

	b, err = json.Marshal(NoOp().Envelope())
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":2,"method":"NoOp","params":{},"id":2}`, string(b))

	// zero kind stamps as a set
	b, err = json.Marshal(Command{Method: "Snapshot.Load"}.Envelope())
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":2,"method":"Snapshot.Load","params":{},"id":2}`, string(b))
}

func TestLogon_CredentialsOnlyWhenBothSet(t *testing.T) {
	assert.Empty(t, Logon("ops", "").Params)
	assert.Empty(t, Logon("", "secret").Params)
	assert.Equal(t, map[string]string{"User": "ops", "Password": "secret"}, Logon("ops", "secret").Params)
}

func TestStandbySafe_ExactList(t *testing.T) {
	for _, m := range []string{"StatusGet", "NoOp", "Logon"} {
		assert.True(t, StandbySafe(m), m)
	}
	for _, m := range []string{"Control.Get", "Control.Set", "Component.Set", "statusget", ""} {
		assert.False(t, StandbySafe(m), m)
	}
}

func TestTarget_Includes(t *testing.T) {
	assert.True(t, TargetAll.Includes(Primary))
	assert.True(t, TargetAll.Includes(Secondary))
	assert.True(t, TargetOf(Secondary).Includes(Secondary))
	assert.False(t, TargetPrimary.Includes(Secondary))
}

func TestInbound_Shapes(t *testing.T) {
	var m Inbound
	require.NoError(t, json.Unmarshal([]byte(`{"id":2,"result":{"Platform":"Core 110f","State":"Active"}}`), &m))
	assert.True(t, m.HasID(KindSet))
	assert.True(t, m.IsStatusResult())
	assert.False(t, m.HasError())

	m = Inbound{}
	require.NoError(t, json.Unmarshal([]byte(`{"id":2,"result":true}`), &m))
	assert.False(t, m.IsStatusResult())

	m = Inbound{}
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"result":[{"Name":"Gain1","Value":-3}]}`), &m))
	assert.True(t, m.HasID(KindGet))
	assert.True(t, m.ResultIsArray())

	m = Inbound{}
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"error":{"code":8,"message":"bad name"}}`), &m))
	assert.True(t, m.HasError())

	m = Inbound{}
	require.NoError(t, json.Unmarshal([]byte(`{"method":"EngineStatus","params":{"State":"Idle"}}`), &m))
	assert.False(t, m.ID.Present())
	assert.Equal(t, MethodEngineStatus, m.Method)
}

func TestInbound_LooseIDs(t *testing.T) {
	for _, doc := range []string{
		`{"id":"1","result":[]}`,
		`{"id":1.0,"result":[]}`,
		`{"id":" 1 ","result":[]}`,
	} {
		var m Inbound
		require.NoError(t, json.Unmarshal([]byte(doc), &m), doc)
		assert.True(t, m.HasID(KindGet), doc)
		assert.False(t, m.HasID(KindSet), doc)
	}

	for _, doc := range []string{
		`{"id":"abc","result":[]}`,
		`{"id":null,"result":[]}`,
		`{"id":{"x":1},"result":[]}`,
	} {
		var m Inbound
		require.NoError(t, json.Unmarshal([]byte(doc), &m), doc)
		assert.False(t, m.ID.Present(), doc)
		assert.True(t, m.ResultIsArray(), doc)
	}
}

func TestInbound_RPCError(t *testing.T) {
	var m Inbound
	require.NoError(t, json.Unmarshal([]byte(`{"id":2,"error":{"code":8,"message":"Unknown control"}}`), &m))
	e, ok := m.RPCError()
	require.True(t, ok)
	assert.Equal(t, 8, e.Code)
	assert.Equal(t, "Unknown control", e.Message)

	m = Inbound{}
	require.NoError(t, json.Unmarshal([]byte(`{"id":2,"error":"Logon required"}`), &m))
	e, ok = m.RPCError()
	require.True(t, ok)
	assert.Equal(t, "Logon required", e.Message)

	m = Inbound{}
	require.NoError(t, json.Unmarshal([]byte(`{"id":2,"result":true}`), &m))
	_, ok = m.RPCError()
	assert.False(t, ok)
}

func TestControlUpdate_AbsentVersusZero(t *testing.T) {
	var u ControlUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"Name":"Mute1","Value":0}`), &u))
	require.NotNil(t, u.Value)
	assert.EqualValues(t, 0, *u.Value)
	assert.Nil(t, u.String)
	assert.Nil(t, u.Position)
}

func TestGeneric_KindFromMethod(t *testing.T) {
	assert.Equal(t, KindGet, Generic("Control.Get", []string{"x"}).Kind)
	assert.Equal(t, KindSet, Generic("Mixer.SetInputMute", nil).Kind)
}
