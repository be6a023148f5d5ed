// Package tools implements the on-chain data tools an agent can invoke while
// answering: gas price, token prices, NFT ownership and transaction history,
// all served by the 1inch developer API. Tool failures are never transport
// errors; they are captured in the Outcome so the agent can answer in
// character about them.
package tools

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/models"
)

// Tool names as the model sees them.
const (
	NameGasPrice    = "GetGasPrice"
	NameTokenPrices = "GetTokenPrices"
	NameNFT         = "GetNFTOwnership"
	NameTxHistory   = "GetTransactionHistory"
)

// Args holds a tool call's arguments. Models are inconsistent about key
// names and value types, so lookups accept aliases and coerce scalars.
type Args map[string]any

// Text returns the first non-empty string value among keys.
func (a Args) Text(keys ...string) string {
	for _, k := range keys {
		v, ok := a[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64)
		case int:
			return strconv.Itoa(t)
		case json.Number:
			return t.String()
		}
	}
	return ""
}

// Network resolves the network argument under its aliases, defaulting to
// ethereum.
func (a Args) Network() string {
	if n := a.Text("network", "tokenName", "chain", "chainId"); n != "" {
		return n
	}
	return "ethereum"
}

// Currency resolves the currency argument under its aliases, defaulting to
// USD.
func (a Args) Currency() string {
	if c := a.Text("currency", "fromCurrency"); c != "" {
		return c
	}
	return "USD"
}

// Address returns the address argument, empty when absent.
func (a Args) Address() string {
	return a.Text("address", "walletAddress", "wallet")
}

// OutcomeKind tags the Outcome union.
type OutcomeKind int

const (
	// OutcomeError carries a failure message to fold into the reply.
	OutcomeError OutcomeKind = iota
	// OutcomeEmpty means the lookup succeeded but found nothing.
	OutcomeEmpty
	// OutcomeData carries the tool's prepared data.
	OutcomeData
)

// Outcome is the result of one tool invocation.
type Outcome struct {
	Tool    string
	Args    Args
	Kind    OutcomeKind
	ErrText string // OutcomeError
	Message string // OutcomeEmpty
	Data    any    // OutcomeData, one of the tool's prepared types
}

func errorOutcome(tool string, args Args, msg string) Outcome {
	return Outcome{Tool: tool, Args: args, Kind: OutcomeError, ErrText: msg}
}

func emptyOutcome(tool string, args Args, msg string) Outcome {
	return Outcome{Tool: tool, Args: args, Kind: OutcomeEmpty, Message: msg}
}

func dataOutcome(tool string, args Args, data any) Outcome {
	return Outcome{Tool: tool, Args: args, Kind: OutcomeData, Data: data}
}

// Descriptor pairs a tool's schema with its runner.
type Descriptor struct {
	Schema models.ToolSchema
	Run    func(ctx context.Context, args Args) Outcome
}

// Catalog holds the registered tools in a fixed order.
type Catalog struct {
	order []string
	tools map[string]*Descriptor
	log   zerolog.Logger
}

// NewCatalog registers the four on-chain tools against the given client.
func NewCatalog(client *OneInch, log zerolog.Logger) *Catalog {
	c := &Catalog{tools: map[string]*Descriptor{}, log: log}
	c.register(newNFTTool(client))
	c.register(newTxHistoryTool(client))
	c.register(newGasPriceTool(client))
	c.register(newTokenPriceTool(client))
	return c
}

func (c *Catalog) register(d *Descriptor) {
	c.order = append(c.order, d.Schema.Name)
	c.tools[d.Schema.Name] = d
}

// Schemas returns the tool schemas in registration order, for the model.
func (c *Catalog) Schemas() []models.ToolSchema {
	out := make([]models.ToolSchema, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.tools[name].Schema)
	}
	return out
}

// Execute runs a model-requested tool call. A gas price call carrying a
// currency argument is really a token price question, so it is rewritten.
// ok is false for unknown tool names.
func (c *Catalog) Execute(ctx context.Context, call models.ToolCall) (Outcome, bool) {
	name := call.Name
	args := Args(call.Arguments)
	if args == nil {
		args = Args{}
	}

	if name == NameGasPrice && args.Text("currency", "fromCurrency") != "" {
		c.log.Debug().Msg("gas price call carries a currency, rewriting to token prices")
		name = NameTokenPrices
	}

	d, ok := c.tools[name]
	if !ok {
		c.log.Warn().Str("tool", call.Name).Msg("model requested unknown tool")
		return Outcome{}, false
	}

	c.log.Info().Str("tool", name).Interface("args", args).Msg("executing tool")
	return d.Run(ctx, args), true
}
