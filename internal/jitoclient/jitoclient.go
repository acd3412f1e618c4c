// Package jitoclient adapts jito-go-rpc's JSON-RPC client onto the
// solanarpc.BundleSubmitter contract, so the client never imports
// jito-go-rpc's concrete type directly. Grounded on
// other_examples' pump-go-sdk pkg/jito/jito.go Client, trimmed to the one
// call solanarpc.BuildAndSend's jito_tip path needs.
package jitoclient

import (
	"context"
	"encoding/json"
	"fmt"

	jitorpc "github.com/jito-labs/jito-go-rpc"
)

// Client wraps a single Jito Block Engine endpoint. uuid may be empty.
type Client struct {
	endpoint string
	uuid     string
}

// New builds a Client bound to one Jito Block Engine endpoint.
func New(endpoint, uuid string) *Client {
	return &Client{endpoint: endpoint, uuid: uuid}
}

func (c *Client) rpcClient() *jitorpc.JitoJsonRpcClient {
	return jitorpc.NewJitoJsonRpcClient(c.endpoint, c.uuid)
}

// SendBundle submits base64-encoded signed transactions as one atomic
// bundle and returns the bundle ID. Implements solanarpc.BundleSubmitter.
func (c *Client) SendBundle(ctx context.Context, base64Txs []string) (string, error) {
	if len(base64Txs) == 0 {
		return "", fmt.Errorf("jitoclient: bundle requires at least one transaction")
	}

	rawResp, err := c.rpcClient().SendBundle([][]string{base64Txs})
	if err != nil {
		return "", fmt.Errorf("jitoclient: send bundle: %w", err)
	}

	var bundleID string
	if err := json.Unmarshal(rawResp, &bundleID); err != nil {
		return "", fmt.Errorf("jitoclient: unmarshal bundle response: %w", err)
	}
	return bundleID, nil
}

// GetTipAccounts returns the Block Engine's current list of tip accounts.
func (c *Client) GetTipAccounts(ctx context.Context) ([]string, error) {
	rawResp, err := c.rpcClient().GetTipAccounts()
	if err != nil {
		return nil, fmt.Errorf("jitoclient: get tip accounts: %w", err)
	}
	var accounts []string
	if err := json.Unmarshal(rawResp, &accounts); err != nil {
		return nil, fmt.Errorf("jitoclient: unmarshal tip accounts: %w", err)
	}
	return accounts, nil
}
