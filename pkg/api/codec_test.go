package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/emptypb"
)

func TestTimeJSON(t *testing.T) {
	data, err := json.Marshal(Income{ID: "i1", Amount: "10.00", CreatedAt: NewTime(1700000000)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"i1","profileId":"","amount":"10.00","createdAt":"2023-11-14T22:13:20Z"}`, string(data))

	var back Income
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, int64(1700000000), back.CreatedAt.Unix())

	data, err = json.Marshal(Income{})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"createdAt":null`)
}

func TestTimeRejectsGarbage(t *testing.T) {
	var req RecordIncomeRequest
	err := json.Unmarshal([]byte(`{"createdAt":"yesterday"}`), &req)
	assert.ErrorContains(t, err, "invalid timestamp")
}

func TestUnixOf(t *testing.T) {
	assert.Zero(t, UnixOf(nil))
	ts := NewTime(42)
	assert.Equal(t, int64(42), UnixOf(&ts))
	assert.True(t, NewTime(0).IsZero())
}

func TestCodec(t *testing.T) {
	assert.Equal(t, "json", Codec.Name())

	data, err := Codec.Marshal(&GetBalanceRequest{ProfileID: "p1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"profileId":"p1"}`, string(data))

	var req GetBalanceRequest
	require.NoError(t, Codec.Unmarshal(data, &req))
	assert.Equal(t, "p1", req.ProfileID)

	data, err = Codec.Marshal(&emptypb.Empty{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))
	assert.NoError(t, Codec.Unmarshal([]byte(`{"ignored":1}`), &emptypb.Empty{}))
	assert.NoError(t, Codec.Unmarshal(nil, &emptypb.Empty{}))
}
