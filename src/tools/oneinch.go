package tools

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// DefaultOneInchBaseURL is the public 1inch developer API host.
const DefaultOneInchBaseURL = "https://api.1inch.dev"

// OneInch is a thin client for the 1inch developer API endpoints the tools
// need: gas price, spot prices, NFT ownership and address history.
type OneInch struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

func NewOneInch(baseURL, apiKey string, log zerolog.Logger) *OneInch {
	if baseURL == "" {
		baseURL = DefaultOneInchBaseURL
	}
	return &OneInch{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

// FeeLevel is one priority tier of the gas price response.
type FeeLevel struct {
	MaxFeePerGas string `json:"maxFeePerGas"`
}

// GasPriceResult is the raw gas price payload. Values are wei strings.
type GasPriceResult struct {
	BaseFee string    `json:"baseFee"`
	Low     *FeeLevel `json:"low"`
	Medium  *FeeLevel `json:"medium"`
	High    *FeeLevel `json:"high"`
	Instant *FeeLevel `json:"instant"`
}

func (c *OneInch) GasPrice(ctx context.Context, chainID string) (GasPriceResult, error) {
	var out GasPriceResult
	err := c.get(ctx, "/gas-price/v1.5/"+chainID, nil, &out)
	return out, err
}

// TokenPrices returns address→price for every whitelisted token on the chain.
func (c *OneInch) TokenPrices(ctx context.Context, chainID, currency string) (map[string]string, error) {
	out := map[string]string{}
	err := c.get(ctx, "/price/v1.1/"+chainID, url.Values{"currency": {currency}}, &out)
	return out, err
}

// NFTAsset is one owned NFT in the ownership response.
type NFTAsset struct {
	Name          string `json:"name"`
	TokenID       string `json:"token_id"`
	AssetContract *struct {
		Address    string `json:"address"`
		SchemaName string `json:"schema_name"`
	} `json:"asset_contract"`
	ChainID  int64  `json:"chainId"`
	ImageURL string `json:"image_url"`
	Provider string `json:"provider"`
}

// NFTResult is the NFT ownership payload.
type NFTResult struct {
	Assets []NFTAsset `json:"assets"`
}

func (c *OneInch) NFTsByAddress(ctx context.Context, address, chainID string) (NFTResult, error) {
	var out NFTResult
	err := c.get(ctx, "/nft/v2/byaddress", url.Values{
		"address":  {address},
		"chainIds": {chainID},
	}, &out)
	return out, err
}

// TokenAction is a token movement inside a history event.
type TokenAction struct {
	Standard  string `json:"standard"`
	Amount    string `json:"amount"`
	Direction string `json:"direction"`
}

// HistoryItem is one address history event.
type HistoryItem struct {
	TimeMs  int64 `json:"timeMs"`
	Details struct {
		Type         string        `json:"type"`
		Status       string        `json:"status"`
		FromAddress  string        `json:"fromAddress"`
		ToAddress    string        `json:"toAddress"`
		TxHash       string        `json:"txHash"`
		TokenActions []TokenAction `json:"tokenActions"`
	} `json:"details"`
}

// HistoryResult is the address history payload.
type HistoryResult struct {
	Items []HistoryItem `json:"items"`
}

func (c *OneInch) History(ctx context.Context, address, chainID string) (HistoryResult, error) {
	var out HistoryResult
	err := c.get(ctx, "/history/v2.0/history/"+address+"/events", url.Values{"chainId": {chainID}}, &out)
	return out, err
}

func (c *OneInch) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.Wrap(err, "1inch: build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.log.Debug().Str("path", path).Msg("1inch request")

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "1inch: %s", path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "1inch: read response")
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("1inch error response")
		return errors.Errorf("1inch: %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "1inch: decode %s response", path)
	}
	return nil
}
