package tools

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/models"
)

const notAvailable = "Not available"

// GasPriceData is the prepared gas price summary, in gwei.
type GasPriceData struct {
	Network string `json:"network"`
	BaseFee string `json:"baseFee"`
	Low     string `json:"low,omitempty"`
	Medium  string `json:"medium,omitempty"`
	High    string `json:"high,omitempty"`
	Instant string `json:"instant,omitempty"`
}

func newGasPriceTool(client *OneInch) *Descriptor {
	return &Descriptor{
		Schema: models.ToolSchema{
			Name:        NameGasPrice,
			Description: "Fetches the current gas price from a blockchain network. Use when the user asks about gas prices, transaction costs, or network fees for a specific blockchain.",
			Parameters: models.Parameters{
				Type: "object",
				Properties: map[string]models.Property{
					"network": {
						Type:        "string",
						Description: "The blockchain network to check gas prices for (e.g., ethereum, polygon, avalanche, binance, arbitrum, optimism, base, fantom, aurora)",
					},
				},
				Required: []string{"network"},
			},
		},
		Run: func(ctx context.Context, args Args) Outcome {
			network := args.Network()
			chainID, name, ok := ChainID(NetworkIDs, network)
			if !ok {
				return errorOutcome(NameGasPrice, args, fmt.Sprintf(
					"Unsupported network: %s. Supported networks are: %s", network, SupportedNetworks(NetworkIDs)))
			}

			raw, err := client.GasPrice(ctx, chainID)
			if err != nil {
				return errorOutcome(NameGasPrice, args, fmt.Sprintf(
					"Failed to fetch gas price for %s: %v", name, err))
			}

			data := GasPriceData{Network: name, BaseFee: weiToGwei(raw.BaseFee)}
			if raw.Low != nil {
				data.Low = weiToGwei(raw.Low.MaxFeePerGas)
			}
			if raw.Medium != nil {
				data.Medium = weiToGwei(raw.Medium.MaxFeePerGas)
			}
			if raw.High != nil {
				data.High = weiToGwei(raw.High.MaxFeePerGas)
			}
			if raw.Instant != nil {
				data.Instant = weiToGwei(raw.Instant.MaxFeePerGas)
			}
			return dataOutcome(NameGasPrice, args, data)
		},
	}
}

// weiToGwei renders a wei string as "N.NN Gwei".
func weiToGwei(wei string) string {
	if wei == "" {
		return notAvailable
	}
	v, err := strconv.ParseFloat(wei, 64)
	if err != nil {
		return notAvailable
	}
	return fmt.Sprintf("%.2f Gwei", v/1e9)
}
