package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemHandler_Ping(t *testing.T) {
	r := newHandlerRouter(t, NewSystemHandler())

	w := doJSON(t, r, http.MethodGet, "/api/v1/system/ping", nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w)
	assert.True(t, resp.Success)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "pong", data["message"])
	assert.NotEmpty(t, data["timestamp"])
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	r := newHandlerRouter(t, NewSystemHandler())

	w := doJSON(t, r, http.MethodGet, "/api/v1/system/info", nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w)
	assert.True(t, resp.Success)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Cobranca Backend API", data["name"])
	assert.Equal(t, "1.0.0", data["version"])
	assert.Contains(t, data["go_version"], "go")
}
