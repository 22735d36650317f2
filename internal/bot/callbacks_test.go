package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeCallback(t *testing.T) {
	data := encodeCallback(cbOpenHomework, 2, 17)
	assert.Equal(t, "openHomework:2:17", data)

	payload := decodeCallback(data)
	assert.Equal(t, cbOpenHomework, payload.Action)

	page := payload.Page(0)
	assert.Equal(t, 2, page)

	id, ok := payload.Int64(1)
	require.True(t, ok)
	assert.Equal(t, int64(17), id)
}

func TestCallbackPayload_InvalidArgs(t *testing.T) {
	payload := decodeCallback("setGrade:abc")

	_, ok := payload.Int64(0)
	assert.False(t, ok)
	_, ok = payload.Int64(5)
	assert.False(t, ok)

	assert.Equal(t, 0, payload.Page(0))
	assert.Equal(t, "abc", payload.Str(0))
	assert.Equal(t, "", payload.Str(3))
}

func TestDecodeCallback_ActionOnly(t *testing.T) {
	payload := decodeCallback("none")
	assert.Equal(t, cbNone, payload.Action)
	assert.Empty(t, payload.Args)
}
