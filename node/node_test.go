package node

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Version string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type handlerFunc func(method string, params []json.RawMessage) (any, *rpcError)

// newNode serves single and batch JSON-RPC calls from handle.
func newNode(t *testing.T, handle handlerFunc) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		answer := func(req rpcRequest) rpcResponse {
			result, rpcErr := handle(req.Method, req.Params)
			return rpcResponse{Version: "2.0", ID: req.ID, Result: result, Error: rpcErr}
		}

		w.Header().Set("Content-Type", "application/json")
		if bytes.HasPrefix(bytes.TrimSpace(body), []byte("[")) {
			var reqs []rpcRequest
			if err := json.Unmarshal(body, &reqs); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			resps := make([]rpcResponse, len(reqs))
			for i, req := range reqs {
				resps[i] = answer(req)
			}
			json.NewEncoder(w).Encode(resps)
			return
		}

		var req rpcRequest
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(answer(req))
	}))
	t.Cleanup(srv.Close)

	return srv
}

func sampleNode(method string, params []json.RawMessage) (any, *rpcError) {
	switch method {
	case "getblockchaininfo":
		return map[string]any{"chain": "main", "blocks": 1200}, nil
	case "getaddressutxos":
		return []map[string]any{
			{"address": "RAddr1", "txid": "aa", "outputIndex": 0, "satoshis": 1500000000, "interest": 2500000, "height": 1100},
			{"address": "RAddr1", "txid": "bb", "outputIndex": 1, "satoshis": 500000000, "interest": 0, "height": 1150},
			{"address": "RAddr1", "txid": "aa", "outputIndex": 2, "satoshis": 100000000, "interest": 0, "height": 1100},
		}, nil
	case "getrawtransaction":
		var txid string
		json.Unmarshal(params[0], &txid)
		switch txid {
		case "aa":
			return map[string]any{"txid": "aa", "locktime": 1500000000, "confirmations": 101, "time": 1600000000, "blocktime": 1600000100}, nil
		default:
			return nil, &rpcError{Code: -5, Message: "No such mempool or blockchain transaction"}
		}
	}
	return nil, &rpcError{Code: -32601, Message: "Method not found"}
}

func TestBalanceSumsOutputs(t *testing.T) {
	srv := newNode(t, sampleNode)
	c, err := NewClient(ClientOpts{Endpoint: srv.URL, CoinName: "SAFE"})
	require.NoError(t, err)
	defer c.Close()

	info, err := c.Balance(context.Background(), "RAddr1")
	require.NoError(t, err)
	require.False(t, info.Failed())
	require.InDelta(t, 21.0, info.Balance, 1e-9)
	require.InDelta(t, 0.025, info.Interest, 1e-9)
	require.InDelta(t, 21.025, info.Total, 1e-9)
}

func TestUnspentsDecoratesOutputs(t *testing.T) {
	srv := newNode(t, sampleNode)
	c, err := NewClient(ClientOpts{Endpoint: srv.URL, CoinName: "SAFE"})
	require.NoError(t, err)

	outputs, err := c.Unspents(context.Background(), "RAddr1")
	require.NoError(t, err)
	require.Len(t, outputs, 3)

	first := outputs[0]
	require.Equal(t, "aa", first.TxID)
	require.InDelta(t, 15.0, first.Amount, 1e-9)
	require.Equal(t, int64(1500000000), first.Locktime)
	require.Equal(t, 101, first.Confirmations)
	require.Equal(t, int64(1600000100), first.Timestamp)
	require.Equal(t, "SAFE", first.Coin.Name)
	require.Equal(t, int64(1100), *first.Coin.BlockIndex)

	// bb is unknown to the node and stays undecorated
	require.Equal(t, "bb", outputs[1].TxID)
	require.Zero(t, outputs[1].Locktime)
	require.Equal(t, uint32(2), outputs[2].Vout)
}

func TestNodeErrorKeepsCode(t *testing.T) {
	srv := newNode(t, func(method string, params []json.RawMessage) (any, *rpcError) {
		if method == "getaddressutxos" {
			return nil, &rpcError{Code: -5, Message: "Invalid address"}
		}
		return sampleNode(method, params)
	})
	c, err := NewClient(ClientOpts{Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = c.Balance(context.Background(), "bogus")
	require.Error(t, err)

	var rpcErr rpc.Error
	require.True(t, errors.As(err, &rpcErr))
	require.Equal(t, -5, rpcErr.ErrorCode())
	require.Equal(t, "Invalid address", rpcErr.Error())
}

func TestBasicAuthHeader(t *testing.T) {
	var got string
	srv := newNode(t, sampleNode)
	auth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		srv.Config.Handler.ServeHTTP(w, r)
	}))
	defer auth.Close()

	c, err := NewClient(ClientOpts{Endpoint: auth.URL, User: "user", Password: "pass"})
	require.NoError(t, err)
	_, err = c.Balance(context.Background(), "RAddr1")
	require.NoError(t, err)
	require.Equal(t, "Basic dXNlcjpwYXNz", got)
}

func TestNodeErrorOverHTTP500(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{
			"result": nil,
			"error":  rpcError{Code: -5, Message: "Invalid address"},
			"id":     req.ID,
		})
	}))
	defer srv.Close()

	c, err := NewClient(ClientOpts{Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = c.Balance(context.Background(), "bogus")
	var rpcErr rpc.Error
	require.True(t, errors.As(err, &rpcErr))
	require.Equal(t, -5, rpcErr.ErrorCode())
	require.Equal(t, "Invalid address", rpcErr.Error())

	_, err = c.Unspents(context.Background(), "bogus")
	require.True(t, errors.As(err, &rpcErr))
	require.Equal(t, -5, rpcErr.ErrorCode())
}

func TestNodeErrorKeepsUnparsableHTTPBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := NewClient(ClientOpts{Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = c.Balance(context.Background(), "RAddr1")
	var httpErr rpc.HTTPError
	require.True(t, errors.As(err, &httpErr))
	require.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
}
