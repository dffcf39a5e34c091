package request

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToJsonReq(t *testing.T) {
	buf, err := ToJsonReq(map[string]string{"reference": "ABC123"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"reference":"ABC123"}`, buf.String())
}

func TestCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	req, err := http.NewRequest("POST", server.URL, nil)
	require.NoError(t, err)

	var response map[string]interface{}
	resp, err := Call(req, &response)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, response["ok"])
}
