package tools

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/models"
)

// commonTokens maps well-known token addresses to symbols for readability.
var commonTokens = map[string]string{
	"0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee": "ETH",
	"0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2": "WETH",
	"0x2260fac5e5542a773aa44fbcfedf7c193bc2c599": "WBTC",
	"0xdac17f958d2ee523a2206206994597c13d831ec7": "USDT",
	"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48": "USDC",
	"0x6b175474e89094c44da98b954eedeac495271d0f": "DAI",
	"0x1f9840a85d5af5bf1d1762f925bdaddc4201f984": "UNI",
	"0x7d1afa7b718fb893db30a3abc0cfc608aacfebb0": "MATIC",
	"0x4fabb145d64652a948d72533023f6e7a623c7c53": "BUSD",
	"0x514910771af9ca656af840dff83e8264ecf986ca": "LINK",
	"0x95ad61b0a150d79219dcf64e1e6cc01f0b64c4ce": "SHIB",
	"0xb8c77482e45f1f44de1745f52c74426c631bdd52": "BNB",
}

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CNY": "¥",
	"INR": "₹",
	"KRW": "₩",
	"RUB": "₽",
	"CAD": "CA$",
	"AUD": "A$",
}

// TokenPrice is one token's formatted spot price.
type TokenPrice struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
	Price   string `json:"price"`
}

// TokenPriceData is the prepared token price summary. Tokens holds at most
// 20 entries; TokenCount is the full count.
type TokenPriceData struct {
	Network    string       `json:"network"`
	Currency   string       `json:"currency"`
	TokenCount int          `json:"tokenCount"`
	Tokens     []TokenPrice `json:"tokens"`
}

func newTokenPriceTool(client *OneInch) *Descriptor {
	return &Descriptor{
		Schema: models.ToolSchema{
			Name:        NameTokenPrices,
			Description: "Fetches the prices of all whitelisted tokens on a specific blockchain network in the currency of choice. Use when the user asks about token prices, cryptocurrency prices, or market rates.",
			Parameters: models.Parameters{
				Type: "object",
				Properties: map[string]models.Property{
					"network": {
						Type:        "string",
						Description: "The blockchain network to check (e.g., ethereum, polygon, avalanche, binance, arbitrum, optimism, base, fantom, aurora, klaytn)",
					},
					"currency": {
						Type:        "string",
						Description: "The currency to display prices in (e.g., USD, EUR, GBP, JPY, CNY, INR)",
					},
				},
				Required: []string{"network"},
			},
		},
		Run: func(ctx context.Context, args Args) Outcome {
			network := args.Network()
			currency := NormalizeCurrency(args.Currency())

			chainID, name, ok := ChainID(TokenPriceNetworkIDs, network)
			if !ok {
				return errorOutcome(NameTokenPrices, args, fmt.Sprintf(
					"Unsupported network: %s. Supported networks are: %s", network, SupportedNetworks(TokenPriceNetworkIDs)))
			}

			prices, err := client.TokenPrices(ctx, chainID, currency)
			if err != nil {
				return errorOutcome(NameTokenPrices, args, fmt.Sprintf(
					"Failed to fetch token prices for %s in %s: %v", name, currency, err))
			}
			if len(prices) == 0 {
				return emptyOutcome(NameTokenPrices, args, "No token price data found or invalid response format.")
			}

			addresses := make([]string, 0, len(prices))
			for addr := range prices {
				addresses = append(addresses, addr)
			}
			sort.Strings(addresses)

			limit := len(addresses)
			if limit > 20 {
				limit = 20
			}
			tokens := make([]TokenPrice, 0, limit)
			for _, addr := range addresses[:limit] {
				price, _ := strconv.ParseFloat(prices[addr], 64)
				symbol := commonTokens[strings.ToLower(addr)]
				if symbol == "" {
					symbol = "Unknown"
				}
				tokens = append(tokens, TokenPrice{
					Address: addr,
					Symbol:  symbol,
					Price:   formatPrice(currency, price),
				})
			}

			return dataOutcome(NameTokenPrices, args, TokenPriceData{
				Network:    name,
				Currency:   currency,
				TokenCount: len(addresses),
				Tokens:     tokens,
			})
		},
	}
}

// formatPrice renders price with a currency symbol, thousands separators,
// at least 2 and at most 6 fraction digits.
func formatPrice(currency string, price float64) string {
	symbol, ok := currencySymbols[currency]
	if !ok {
		symbol = currency + " "
	}

	s := strconv.FormatFloat(price, 'f', 6, 64)
	intPart, fracPart, _ := strings.Cut(s, ".")
	fracPart = strings.TrimRight(fracPart, "0")
	for len(fracPart) < 2 {
		fracPart += "0"
	}

	neg := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	var grouped strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(d)
	}

	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%s%s%s.%s", sign, symbol, grouped.String(), fracPart)
}
