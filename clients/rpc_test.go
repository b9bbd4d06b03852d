package clients

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

// rpcHandler answers JSON-RPC requests by method name.
type rpcHandler func(method string, params []any) (result any, rpcErr map[string]any)

// newRPCServer starts a JSON-RPC server and counts calls per method.
func newRPCServer(t *testing.T, handle rpcHandler) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     any    `json:"id"`
			Method string `json:"method"`
			Params []any  `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			assert.NoError(t, err)
			return
		}
		calls.Add(1)

		result, rpcErr := handle(req.Method, req.Params)
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}

		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(server.Close)

	return server, &calls
}
