package blockchain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type LogFilter struct {
	FromBlock uint64
	ToBlock   uint64
	Address   string
	Topics    []string
}

type LogEntry struct {
	Address         string
	Topics          []string
	Data            string
	BlockNumber     uint64
	TransactionHash string
	LogIndex        uint64
	Removed         bool
}

type Receipt struct {
	TransactionHash string
	BlockNumber     uint64
	Status          uint64
}

// RPCError carries the node's reported message so callers can surface it
// verbatim.
type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type Client struct {
	httpURL    string
	httpClient *http.Client
}

func NewClient(httpURL string) (*Client, error) {
	if strings.TrimSpace(httpURL) == "" {
		return nil, fmt.Errorf("missing CHAIN_HTTP_RPC")
	}
	return &Client{
		httpURL:    strings.TrimSpace(httpURL),
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}, nil
}

func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var out string
	if err := c.rpc(ctx, "eth_blockNumber", []any{}, &out); err != nil {
		return 0, err
	}
	return ParseHexUint64(out)
}

func (c *Client) GetLogs(ctx context.Context, filter LogFilter) ([]LogEntry, error) {
	topics := make([]any, 0, len(filter.Topics))
	for _, t := range filter.Topics {
		if t == "" {
			topics = append(topics, nil)
			continue
		}
		topics = append(topics, t)
	}
	reqFilter := map[string]any{
		"fromBlock": fmt.Sprintf("0x%x", filter.FromBlock),
		"toBlock":   fmt.Sprintf("0x%x", filter.ToBlock),
		"address":   filter.Address,
		"topics":    topics,
	}
	var rawLogs []struct {
		Address         string   `json:"address"`
		Topics          []string `json:"topics"`
		Data            string   `json:"data"`
		BlockNumber     string   `json:"blockNumber"`
		TransactionHash string   `json:"transactionHash"`
		LogIndex        string   `json:"logIndex"`
		Removed         bool     `json:"removed"`
	}
	if err := c.rpc(ctx, "eth_getLogs", []any{reqFilter}, &rawLogs); err != nil {
		return nil, err
	}

	out := make([]LogEntry, 0, len(rawLogs))
	for _, item := range rawLogs {
		blockNum, err := ParseHexUint64(item.BlockNumber)
		if err != nil {
			return nil, fmt.Errorf("invalid blockNumber in log: %w", err)
		}
		logIndex, err := ParseHexUint64(item.LogIndex)
		if err != nil {
			return nil, fmt.Errorf("invalid logIndex in log: %w", err)
		}
		out = append(out, LogEntry{
			Address:         item.Address,
			Topics:          item.Topics,
			Data:            item.Data,
			BlockNumber:     blockNum,
			TransactionHash: item.TransactionHash,
			LogIndex:        logIndex,
			Removed:         item.Removed,
		})
	}
	return out, nil
}

// Call performs an eth_call against contractAddr with pre-encoded calldata
// and returns the raw hex result.
func (c *Client) Call(ctx context.Context, contractAddr, data string) (string, error) {
	callObj := map[string]string{
		"to":   contractAddr,
		"data": data,
	}
	var out string
	if err := c.rpc(ctx, "eth_call", []any{callObj, "latest"}, &out); err != nil {
		return "", err
	}
	return out, nil
}

func (c *Client) SendTransaction(ctx context.Context, from, to, data string, gasLimit uint64) (string, error) {
	txObj := map[string]string{
		"from":  from,
		"to":    to,
		"gas":   fmt.Sprintf("0x%x", gasLimit),
		"data":  data,
		"value": "0x0",
	}
	var txHash string
	if err := c.rpc(ctx, "eth_sendTransaction", []any{txObj}, &txHash); err != nil {
		return "", err
	}
	if !strings.HasPrefix(txHash, "0x") {
		return "", fmt.Errorf("invalid tx hash response")
	}
	return txHash, nil
}

// TransactionReceipt returns nil without error while the transaction is
// still pending.
func (c *Client) TransactionReceipt(ctx context.Context, txHash string) (*Receipt, error) {
	var raw struct {
		TransactionHash string `json:"transactionHash"`
		BlockNumber     string `json:"blockNumber"`
		Status          string `json:"status"`
	}
	found, err := c.rpcNullable(ctx, "eth_getTransactionReceipt", []any{txHash}, &raw)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	blockNum, err := ParseHexUint64(raw.BlockNumber)
	if err != nil {
		return nil, fmt.Errorf("invalid blockNumber in receipt: %w", err)
	}
	status, err := ParseHexUint64(raw.Status)
	if err != nil {
		return nil, fmt.Errorf("invalid status in receipt: %w", err)
	}
	return &Receipt{
		TransactionHash: raw.TransactionHash,
		BlockNumber:     blockNum,
		Status:          status,
	}, nil
}

func (c *Client) rpc(ctx context.Context, method string, params []any, out any) error {
	found, err := c.rpcNullable(ctx, method, params, out)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("rpc empty result")
	}
	return nil
}

func (c *Client) rpcNullable(ctx context.Context, method string, params []any, out any) (bool, error) {
	reqBody, _ := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.httpURL, bytes.NewReader(reqBody))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	var payload struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return false, err
	}
	if payload.Error != nil {
		return false, &RPCError{Code: payload.Error.Code, Message: payload.Error.Message}
	}
	if len(payload.Result) == 0 || string(payload.Result) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(payload.Result, out); err != nil {
		return false, err
	}
	return true, nil
}

func ParseHexUint64(v string) (uint64, error) {
	clean := strings.TrimSpace(strings.ToLower(v))
	clean = strings.TrimPrefix(clean, "0x")
	if clean == "" {
		return 0, fmt.Errorf("empty hex value")
	}
	return strconv.ParseUint(clean, 16, 64)
}
