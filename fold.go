package runtime

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/models"
	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/tools"
)

// Models without native function calling emit the tool call inline as JSON.
var jsonToolCallPattern = regexp.MustCompile(`\{\s*"name"\s*:\s*"([^"]+)"\s*,\s*"arguments"\s*:\s*(\{[^}]+\})\s*\}`)

// ExtractToolCall scans free text for an embedded tool call and parses it.
func ExtractToolCall(text string) (models.ToolCall, bool) {
	m := jsonToolCallPattern.FindStringSubmatch(text)
	if m == nil {
		return models.ToolCall{}, false
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(m[2]), &args); err != nil {
		return models.ToolCall{}, false
	}
	return models.ToolCall{Name: m[1], Arguments: args}, true
}

func shortAddress(addr string) string {
	if len(addr) < 42 {
		return addr
	}
	return addr[:6] + "..." + addr[38:]
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// FoldOutcome renders a tool outcome as the data block for the follow-up
// prompt, telling the model what it found and to answer in character.
func FoldOutcome(o tools.Outcome) string {
	switch o.Tool {
	case tools.NameTokenPrices:
		return foldTokenPrices(o)
	case tools.NameGasPrice:
		return foldGasPrice(o)
	case tools.NameNFT:
		return foldNFTOwnership(o)
	case tools.NameTxHistory:
		return foldTxHistory(o)
	default:
		return foldGeneric(o)
	}
}

func foldTokenPrices(o tools.Outcome) string {
	network := o.Args.Network()
	currency := o.Args.Currency()

	switch o.Kind {
	case tools.OutcomeError:
		return fmt.Sprintf("You tried to check token prices on %s in %s but encountered an error: %s. Respond to the user's request by explaining this issue in your character's style.",
			network, currency, o.ErrText)
	case tools.OutcomeEmpty:
		return fmt.Sprintf("You checked token prices on %s in %s and found: %s. Respond to the user's request by explaining this in your character's style.",
			network, currency, o.Message)
	}

	data := o.Data.(tools.TokenPriceData)
	var b strings.Builder
	fmt.Fprintf(&b, "Token prices on %s in %s:\n\n", capitalize(data.Network), data.Currency)
	fmt.Fprintf(&b, "Total tokens available: %d\n\n", data.TokenCount)
	fmt.Fprintf(&b, "Top tokens (showing %d):\n\n", len(data.Tokens))
	for i, token := range data.Tokens {
		fmt.Fprintf(&b, "%d. %s (%s): %s\n", i+1, token.Symbol, shortAddress(token.Address), token.Price)
	}
	b.WriteString("\nRespond to the user's request about token prices by conveying this information in your character's style. Summarize the token prices in a way that's easy to understand.")
	return b.String()
}

func foldGasPrice(o tools.Outcome) string {
	network := o.Args.Network()

	switch o.Kind {
	case tools.OutcomeError:
		return fmt.Sprintf("You tried to check gas prices on %s but encountered an error: %s. Respond to the user's request by explaining this issue in your character's style.",
			network, o.ErrText)
	case tools.OutcomeEmpty:
		return fmt.Sprintf("You checked gas prices on %s and found: %s. Respond to the user's request by explaining this in your character's style.",
			network, o.Message)
	}

	data := o.Data.(tools.GasPriceData)
	var b strings.Builder
	fmt.Fprintf(&b, "Current gas prices on %s:\n\n", capitalize(data.Network))
	fmt.Fprintf(&b, "Base fee: %s\n", data.BaseFee)
	if data.Low != "" {
		fmt.Fprintf(&b, "Low priority: %s\n", data.Low)
	}
	if data.Medium != "" {
		fmt.Fprintf(&b, "Medium priority: %s\n", data.Medium)
	}
	if data.High != "" {
		fmt.Fprintf(&b, "High priority: %s\n", data.High)
	}
	if data.Instant != "" {
		fmt.Fprintf(&b, "Instant: %s\n", data.Instant)
	}
	b.WriteString("\nRespond to the user's request about gas prices by conveying this information in your character's style. Mention that prices fluctuate with network activity.")
	return b.String()
}

func foldNFTOwnership(o tools.Outcome) string {
	network := o.Args.Network()
	address := o.Args.Address()

	switch o.Kind {
	case tools.OutcomeError:
		return fmt.Sprintf("You tried to look up NFTs owned by %s on %s but encountered an error: %s. Respond to the user's request by explaining this issue in your character's style.",
			address, network, o.ErrText)
	case tools.OutcomeEmpty:
		return fmt.Sprintf("You looked up NFTs owned by %s on %s and found: %s. Respond to the user's request by explaining this in your character's style.",
			address, network, o.Message)
	}

	data := o.Data.(tools.NFTOwnershipData)
	var b strings.Builder
	fmt.Fprintf(&b, "NFTs owned by %s on %s:\n\n", data.Address, capitalize(data.Network))
	fmt.Fprintf(&b, "Total NFTs found: %d\n\n", data.NFTCount)
	fmt.Fprintf(&b, "Showing %d:\n\n", len(data.NFTs))
	for i, nft := range data.NFTs {
		fmt.Fprintf(&b, "%d. %s (token ID %s) from collection %s\n", i+1, nft.Name, nft.TokenID, nft.Collection)
	}
	b.WriteString("\nRespond to the user's request about NFT ownership by conveying this information in your character's style.")
	return b.String()
}

func foldTxHistory(o tools.Outcome) string {
	network := o.Args.Network()
	address := o.Args.Address()

	switch o.Kind {
	case tools.OutcomeError:
		return fmt.Sprintf("You tried to look up the transaction history of %s on %s but encountered an error: %s. Respond to the user's request by explaining this issue in your character's style.",
			address, network, o.ErrText)
	case tools.OutcomeEmpty:
		return fmt.Sprintf("You looked up the transaction history of %s on %s and found: %s. Respond to the user's request by explaining this in your character's style.",
			address, network, o.Message)
	}

	data := o.Data.(tools.TxHistoryData)
	var b strings.Builder
	fmt.Fprintf(&b, "Transaction history for %s on %s:\n\n", data.Address, capitalize(data.Network))
	fmt.Fprintf(&b, "Total transactions: %d\n\n", data.TransactionCount)
	fmt.Fprintf(&b, "Most recent (showing %d):\n\n", len(data.Recent))
	for i, tx := range data.Recent {
		fmt.Fprintf(&b, "%d. %s %s at %s, type %s, status %s", i+1, tx.Date, tx.Time, tx.TxHash, tx.Type, tx.Status)
		if tx.Token != nil {
			fmt.Fprintf(&b, ", %s %s %s", tx.Token.Direction, tx.Token.Amount, tx.Token.Type)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nRespond to the user's request about transaction history by conveying this information in your character's style.")
	return b.String()
}

func foldGeneric(o tools.Outcome) string {
	switch o.Kind {
	case tools.OutcomeError:
		return fmt.Sprintf("You tried to use the %s tool but encountered an error: %s. Respond to the user's request by explaining this issue in your character's style.",
			o.Tool, o.ErrText)
	case tools.OutcomeEmpty:
		return fmt.Sprintf("You used the %s tool and found: %s. Respond to the user's request by explaining this in your character's style.",
			o.Tool, o.Message)
	}
	raw, _ := json.Marshal(o.Data)
	return fmt.Sprintf("You used the %s tool and received this data:\n\n%s\n\nRespond to the user's request by conveying this information in your character's style.",
		o.Tool, raw)
}
