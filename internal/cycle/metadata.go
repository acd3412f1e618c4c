package cycle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
)

// TokenMetadata is the subset of an existing mint's on-chain asset record
// this agent needs in order to mint a lookalike. Grounded on TokenDTO.
type TokenMetadata struct {
	Name   string
	Symbol string
	URI    string
}

// MetadataFetcher resolves a mint's name/symbol/off-chain metadata URI
// through a Metaplex DAS-compatible `getAsset` RPC endpoint (Helius in the
// original), then follows json_uri to the metadata JSON body itself.
// Grounded on _copy_token_metadata; solana-go's rpc.Client only speaks the
// core Solana JSON-RPC method set (not the DAS getAsset extension), so this
// talks to the endpoint directly over net/http, matching the original's
// direct httpx.AsyncClient use.
type MetadataFetcher struct {
	rpcURL string
	client *http.Client
}

// NewMetadataFetcher builds a MetadataFetcher against a DAS-compatible RPC
// URL. A nil client gets a 20s-timeout default, matching the original's
// httpx.AsyncClient(timeout=20.0).
func NewMetadataFetcher(rpcURL string, client *http.Client) *MetadataFetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &MetadataFetcher{rpcURL: rpcURL, client: client}
}

type getAssetRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      string            `json:"id"`
	Method  string            `json:"method"`
	Params  getAssetParams    `json:"params"`
}

type getAssetParams struct {
	ID string `json:"id"`
}

type getAssetResponse struct {
	Result struct {
		Content struct {
			JSONURI string `json:"json_uri"`
		} `json:"content"`
	} `json:"result"`
}

type assetJSON struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// FetchMetadata resolves mint's asset name/symbol and the json_uri that
// served them.
func (f *MetadataFetcher) FetchMetadata(ctx context.Context, mint solana.PublicKey) (*TokenMetadata, error) {
	body, err := json.Marshal(getAssetRequest{
		JSONRPC: "2.0",
		ID:      "1",
		Method:  "getAsset",
		Params:  getAssetParams{ID: mint.String()},
	})
	if err != nil {
		return nil, fmt.Errorf("cycle: marshal getAsset request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.rpcURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("cycle: build getAsset request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cycle: getAsset request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cycle: getAsset request: status %d", resp.StatusCode)
	}

	var parsed getAssetResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("cycle: decode getAsset response: %w", err)
	}
	jsonURI := parsed.Result.Content.JSONURI
	if jsonURI == "" {
		return nil, fmt.Errorf("cycle: getAsset response missing content.json_uri")
	}

	metaReq, err := http.NewRequestWithContext(ctx, http.MethodGet, jsonURI, nil)
	if err != nil {
		return nil, fmt.Errorf("cycle: build metadata json request: %w", err)
	}
	metaResp, err := f.client.Do(metaReq)
	if err != nil {
		return nil, fmt.Errorf("cycle: fetch metadata json: %w", err)
	}
	defer metaResp.Body.Close()
	if metaResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cycle: fetch metadata json: status %d", metaResp.StatusCode)
	}

	var asset assetJSON
	if err := json.NewDecoder(metaResp.Body).Decode(&asset); err != nil {
		return nil, fmt.Errorf("cycle: decode metadata json: %w", err)
	}

	name := asset.Name
	if name == "" {
		name = "ClonedToken"
	}
	symbol := asset.Symbol
	if symbol == "" {
		symbol = "CLONE"
	}
	return &TokenMetadata{Name: name, Symbol: symbol, URI: jsonURI}, nil
}
