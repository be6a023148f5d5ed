package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/models"
)

// TokenActionSummary describes the first token movement of a transaction.
type TokenActionSummary struct {
	Type      string `json:"type"`
	Amount    string `json:"amount"`
	Direction string `json:"direction"`
}

// TransactionRecord is one prepared history entry.
type TransactionRecord struct {
	Date   string              `json:"date"`
	Time   string              `json:"time"`
	Type   string              `json:"type"`
	Status string              `json:"status"`
	From   string              `json:"from"`
	To     string              `json:"to"`
	TxHash string              `json:"txHash"`
	Token  *TokenActionSummary `json:"token,omitempty"`
}

// TxHistoryData is the prepared history summary. Recent holds the newest 5
// transactions; TransactionCount is the full count.
type TxHistoryData struct {
	Address          string              `json:"address"`
	Network          string              `json:"network"`
	TransactionCount int                 `json:"transactionCount"`
	Recent           []TransactionRecord `json:"recentTransactions"`
}

func newTxHistoryTool(client *OneInch) *Descriptor {
	return &Descriptor{
		Schema: models.ToolSchema{
			Name:        NameTxHistory,
			Description: "Fetches the transaction history for a specific address on a blockchain network. Use when the user asks about transaction history, wallet activity, or past transfers for a blockchain address.",
			Parameters: models.Parameters{
				Type: "object",
				Properties: map[string]models.Property{
					"address": {
						Type:        "string",
						Description: "The blockchain address to check (e.g., 0x1234...)",
					},
					"network": {
						Type:        "string",
						Description: "The blockchain network to check (e.g., ethereum, polygon, avalanche, binance, arbitrum, optimism, base, fantom, aurora)",
					},
				},
				Required: []string{"address", "network"},
			},
		},
		Run: func(ctx context.Context, args Args) Outcome {
			address := args.Address()
			network := args.Network()

			chainID, name, ok := ChainID(NetworkIDs, network)
			if !ok {
				return errorOutcome(NameTxHistory, args, fmt.Sprintf(
					"Unsupported network: %s. Supported networks are: %s", network, SupportedNetworks(NetworkIDs)))
			}

			if !IsAddress(address) {
				return errorOutcome(NameTxHistory, args, fmt.Sprintf(
					"Invalid Ethereum address format: %s. Address should be a 42-character hexadecimal string starting with 0x.", address))
			}

			raw, err := client.History(ctx, address, chainID)
			if err != nil {
				return errorOutcome(NameTxHistory, args, fmt.Sprintf(
					"Failed to fetch transaction history for %s on %s: %v", address, name, err))
			}
			if len(raw.Items) == 0 {
				return emptyOutcome(NameTxHistory, args, "No transactions found for this address on this network.")
			}

			limit := len(raw.Items)
			if limit > 5 {
				limit = 5
			}
			records := make([]TransactionRecord, 0, limit)
			for _, item := range raw.Items[:limit] {
				ts := time.UnixMilli(item.TimeMs).UTC()
				rec := TransactionRecord{
					Date:   ts.Format("2006-01-02"),
					Time:   ts.Format("15:04:05"),
					Type:   orDefault(item.Details.Type, "Unknown"),
					Status: orDefault(item.Details.Status, "Unknown"),
					From:   item.Details.FromAddress,
					To:     item.Details.ToAddress,
					TxHash: item.Details.TxHash,
				}
				if len(item.Details.TokenActions) > 0 {
					ta := item.Details.TokenActions[0]
					rec.Token = &TokenActionSummary{
						Type:      ta.Standard,
						Amount:    ta.Amount,
						Direction: ta.Direction,
					}
				}
				records = append(records, rec)
			}

			return dataOutcome(NameTxHistory, args, TxHistoryData{
				Address:          address,
				Network:          name,
				TransactionCount: len(raw.Items),
				Recent:           records,
			})
		},
	}
}
