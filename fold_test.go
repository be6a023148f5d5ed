package runtime

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/tools"
)

func TestExtractToolCall(t *testing.T) {
	text := `Let me check that for you. {"name": "GetGasPrice", "arguments": {"network": "ethereum"}} One moment.`
	call, ok := ExtractToolCall(text)
	require.True(t, ok)
	assert.Equal(t, "GetGasPrice", call.Name)
	assert.Equal(t, "ethereum", call.Arguments["network"])
}

func TestExtractToolCallAbsent(t *testing.T) {
	_, ok := ExtractToolCall("Just a normal sentence with {braces} in it.")
	assert.False(t, ok)
}

func TestExtractToolCallBadArguments(t *testing.T) {
	_, ok := ExtractToolCall(`{"name": "GetGasPrice", "arguments": {"network": ethereum}}`)
	assert.False(t, ok)
}

func TestFoldGasPrice(t *testing.T) {
	out := tools.Outcome{
		Tool: tools.NameGasPrice,
		Args: tools.Args{"network": "ethereum"},
		Kind: tools.OutcomeData,
		Data: tools.GasPriceData{
			Network: "ethereum",
			BaseFee: "25.50 Gwei",
			Low:     "26.00 Gwei",
			Medium:  "30.00 Gwei",
			High:    "35.00 Gwei",
			Instant: "42.00 Gwei",
		},
	}

	block := FoldOutcome(out)
	assert.Contains(t, block, "Current gas prices on Ethereum:")
	assert.Contains(t, block, "Base fee: 25.50 Gwei")
	assert.Contains(t, block, "Low priority: 26.00 Gwei")
	assert.Contains(t, block, "Instant: 42.00 Gwei")
	assert.Contains(t, block, "in your character's style")
}

func TestFoldGasPriceError(t *testing.T) {
	out := tools.Outcome{
		Tool:    tools.NameGasPrice,
		Args:    tools.Args{"network": "ethereum"},
		Kind:    tools.OutcomeError,
		ErrText: "upstream unavailable",
	}

	block := FoldOutcome(out)
	assert.Contains(t, block, "encountered an error: upstream unavailable")
	assert.Contains(t, block, "explaining this issue in your character's style")
}

func TestFoldTokenPrices(t *testing.T) {
	out := tools.Outcome{
		Tool: tools.NameTokenPrices,
		Args: tools.Args{"network": "ethereum", "currency": "USD"},
		Kind: tools.OutcomeData,
		Data: tools.TokenPriceData{
			Network:    "ethereum",
			Currency:   "USD",
			TokenCount: 2,
			Tokens: []tools.TokenPrice{
				{Address: "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2", Symbol: "WETH", Price: "$3,100.50"},
				{Address: "0xdac17f958d2ee523a2206206994597c13d831ec7", Symbol: "USDT", Price: "$1.00"},
			},
		},
	}

	block := FoldOutcome(out)
	assert.True(t, strings.HasPrefix(block, "Token prices on Ethereum in USD:"))
	assert.Contains(t, block, "Total tokens available: 2")
	assert.Contains(t, block, "Top tokens (showing 2):")
	assert.Contains(t, block, "1. WETH (0xc02a...6cc2): $3,100.50")
	assert.Contains(t, block, "Summarize the token prices in a way that's easy to understand.")
}

func TestFoldTokenPricesEmpty(t *testing.T) {
	out := tools.Outcome{
		Tool:    tools.NameTokenPrices,
		Args:    tools.Args{},
		Kind:    tools.OutcomeEmpty,
		Message: "No token price data found",
	}

	block := FoldOutcome(out)
	assert.Contains(t, block, "You checked token prices on ethereum in USD and found: No token price data found.")
}

func TestFoldNFTOwnership(t *testing.T) {
	out := tools.Outcome{
		Tool: tools.NameNFT,
		Args: tools.Args{"address": "0x1234567890123456789012345678901234567890", "network": "polygon"},
		Kind: tools.OutcomeData,
		Data: tools.NFTOwnershipData{
			Address:  "0x1234567890123456789012345678901234567890",
			Network:  "polygon",
			NFTCount: 1,
			NFTs: []tools.NFTItem{
				{Name: "Cool Cat #1", TokenID: "1", Collection: "0xabc"},
			},
		},
	}

	block := FoldOutcome(out)
	assert.Contains(t, block, "NFTs owned by 0x1234567890123456789012345678901234567890 on Polygon:")
	assert.Contains(t, block, "1. Cool Cat #1 (token ID 1) from collection 0xabc")
}

func TestFoldTxHistory(t *testing.T) {
	out := tools.Outcome{
		Tool: tools.NameTxHistory,
		Args: tools.Args{"address": "0x1234567890123456789012345678901234567890"},
		Kind: tools.OutcomeData,
		Data: tools.TxHistoryData{
			Address:          "0x1234567890123456789012345678901234567890",
			Network:          "ethereum",
			TransactionCount: 1,
			Recent: []tools.TransactionRecord{
				{
					Date:   "2025-01-01",
					Time:   "00:00:00",
					Type:   "Transfer",
					Status: "completed",
					TxHash: "0xdeadbeef",
					Token:  &tools.TokenActionSummary{Type: "ERC20", Amount: "100", Direction: "In"},
				},
			},
		},
	}

	block := FoldOutcome(out)
	assert.Contains(t, block, "Transaction history for 0x1234567890123456789012345678901234567890 on Ethereum:")
	assert.Contains(t, block, "1. 2025-01-01 00:00:00 at 0xdeadbeef, type Transfer, status completed, In 100 ERC20")
}

func TestFoldGenericTool(t *testing.T) {
	out := tools.Outcome{
		Tool: "SomethingNew",
		Args: tools.Args{},
		Kind: tools.OutcomeData,
		Data: map[string]string{"answer": "42"},
	}

	block := FoldOutcome(out)
	assert.Contains(t, block, "You used the SomethingNew tool")
	assert.Contains(t, block, `"answer":"42"`)
}
