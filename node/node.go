package node

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/safecoin/interest-api/types"
)

const satoshisPerCoin = 1e8

// Client talks JSON-RPC to a coin node with the address index enabled.
type Client struct {
	rpc    *rpc.Client
	logger *slog.Logger
	Opts   *ClientOpts
}

type ClientOpts struct {
	Endpoint string
	User     string
	Password string
	CoinName string
	Logger   *slog.Logger
	Timeout  time.Duration
}

// Error is a JSON-RPC error object returned by the node.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string  { return e.Message }
func (e *Error) ErrorCode() int { return e.Code }

type blockchainInfo struct {
	Chain  string `json:"chain"`
	Blocks uint64 `json:"blocks"`
}

type addressUtxo struct {
	Address     string `json:"address"`
	TxID        string `json:"txid"`
	OutputIndex uint32 `json:"outputIndex"`
	Satoshis    int64  `json:"satoshis"`
	Interest    int64  `json:"interest"`
	Height      int64  `json:"height"`
}

type rawTransaction struct {
	TxID          string `json:"txid"`
	Locktime      int64  `json:"locktime"`
	Confirmations int    `json:"confirmations"`
	Time          int64  `json:"time"`
	BlockTime     int64  `json:"blocktime"`
}

// NewClient returns a new node client over HTTP.
func NewClient(opts ClientOpts) (*Client, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	var dialOpts []rpc.ClientOption
	if opts.User != "" {
		dialOpts = append(dialOpts, rpc.WithHTTPAuth(basicAuth(opts.User, opts.Password)))
	}

	client, err := rpc.DialOptions(ctx, opts.Endpoint, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to node: %w", err)
	}

	var info blockchainInfo
	if err := client.CallContext(ctx, &info, "getblockchaininfo"); err != nil {
		opts.Logger.Warn("node did not answer getblockchaininfo", "endpoint", opts.Endpoint, "error", err)
	} else {
		opts.Logger.Info("Connected to node", "chain", info.Chain, "blocks", info.Blocks)
	}

	return &Client{
		rpc:    client,
		logger: opts.Logger,
		Opts:   &opts,
	}, nil
}

func (c *Client) Close() {
	c.rpc.Close()
}

// Balance sums the outputs of address.
func (c *Client) Balance(ctx context.Context, address string) (types.BalanceInfo, error) {
	utxos, err := c.addressUtxos(ctx, address)
	if err != nil {
		return types.BalanceInfo{}, err
	}

	var balance, interest int64
	for _, u := range utxos {
		balance += u.Satoshis
		interest += u.Interest
	}

	return types.BalanceInfo{
		Balance:  toCoins(balance),
		Interest: toCoins(interest),
		Total:    toCoins(balance + interest),
	}, nil
}

// Unspents lists the outputs of address, decorated with the locktime,
// confirmations and time of their transactions.
func (c *Client) Unspents(ctx context.Context, address string) ([]types.UnspentOutput, error) {
	utxos, err := c.addressUtxos(ctx, address)
	if err != nil {
		return nil, err
	}
	if len(utxos) == 0 {
		return []types.UnspentOutput{}, nil
	}

	txs, err := c.rawTransactions(ctx, utxos)
	if err != nil {
		return nil, err
	}

	outputs := make([]types.UnspentOutput, len(utxos))
	for i, u := range utxos {
		height := u.Height
		tx := txs[u.TxID]

		timestamp := tx.BlockTime
		if timestamp == 0 {
			timestamp = tx.Time
		}

		outputs[i] = types.UnspentOutput{
			Amount:        toCoins(u.Satoshis),
			Interest:      toCoins(u.Interest),
			Locktime:      tx.Locktime,
			Confirmations: tx.Confirmations,
			TxID:          u.TxID,
			Vout:          u.OutputIndex,
			Coin: &types.Coin{
				Name:       c.Opts.CoinName,
				BlockIndex: &height,
				TxID:       u.TxID,
			},
			Timestamp: timestamp,
		}
	}

	return outputs, nil
}

func (c *Client) addressUtxos(ctx context.Context, address string) ([]addressUtxo, error) {
	var utxos []addressUtxo
	err := c.rpc.CallContext(ctx, &utxos, "getaddressutxos", map[string]any{
		"addresses": []string{address},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get address utxos: %w", nodeError(err))
	}
	return utxos, nil
}

// rawTransactions fetches every distinct transaction of utxos in one batch.
func (c *Client) rawTransactions(ctx context.Context, utxos []addressUtxo) (map[string]rawTransaction, error) {
	txs := make(map[string]rawTransaction, len(utxos))
	batch := make([]rpc.BatchElem, 0, len(utxos))
	results := make([]*rawTransaction, 0, len(utxos))

	seen := make(map[string]bool, len(utxos))
	for _, u := range utxos {
		if seen[u.TxID] {
			continue
		}
		seen[u.TxID] = true

		result := &rawTransaction{}
		results = append(results, result)
		batch = append(batch, rpc.BatchElem{
			Method: "getrawtransaction",
			Args:   []any{u.TxID, 1},
			Result: result,
		})
	}

	if err := c.rpc.BatchCallContext(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to get raw transactions: %w", nodeError(err))
	}

	for i, elem := range batch {
		txid := elem.Args[0].(string)
		if elem.Error != nil {
			// unknown transactions leave the output undecorated
			c.logger.Warn("failed to get raw transaction", "txid", txid, "error", elem.Error)
			continue
		}
		txs[txid] = *results[i]
	}

	return txs, nil
}

// nodeError recovers the JSON-RPC error of a failed call. bitcoind-style
// nodes answer errors with HTTP 500, which the rpc client only reports as an
// HTTPError carrying the response body.
func nodeError(err error) error {
	var httpErr rpc.HTTPError
	if !errors.As(err, &httpErr) {
		return err
	}

	var resp struct {
		Error *Error `json:"error"`
	}
	if json.Unmarshal(httpErr.Body, &resp) != nil || resp.Error == nil {
		return err
	}
	return resp.Error
}

func toCoins(satoshis int64) float64 {
	return float64(satoshis) / satoshisPerCoin
}

func basicAuth(user, password string) rpc.HTTPAuth {
	token := base64.StdEncoding.EncodeToString([]byte(user + ":" + password))
	return func(h http.Header) error {
		h.Set("Authorization", "Basic "+token)
		return nil
	}
}
