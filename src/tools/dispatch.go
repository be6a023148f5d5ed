package tools

import "regexp"

// Invocation is a tool call detected from free text.
type Invocation struct {
	Tool string
	Args Args
}

// pattern pairs a compiled regexp with a builder turning its capture groups
// into tool arguments.
type pattern struct {
	re    *regexp.Regexp
	build func(groups []string) Args
}

// route is one tool's ordered pattern list.
type route struct {
	tool     string
	patterns []pattern
}

// Dispatcher detects tool intent in free text with regular expressions.
// Routes are evaluated in a fixed precedence (NFT ownership, transaction
// history, gas price, token prices) and the first match wins, so at most one
// tool runs per request.
type Dispatcher struct {
	routes []route
}

func captureAddressNetwork(groups []string) Args {
	args := Args{"address": groups[1]}
	if len(groups) > 2 && groups[2] != "" {
		args["network"] = groups[2]
	}
	return args
}

func captureNetwork(groups []string) Args {
	return Args{"network": groups[1]}
}

func captureNetworkCurrency(groups []string) Args {
	args := Args{"network": groups[1]}
	if len(groups) > 2 && groups[2] != "" {
		args["currency"] = groups[2]
	}
	return args
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{routes: []route{
		{
			tool: NameNFT,
			patterns: []pattern{
				{
					re:    regexp.MustCompile(`(?i)(?:nft|collectible|token|digital asset)s?(?:\s+owned|\s+holding|\s+collection|\s+ownership|\s+portfolio|\s+holdings).*?(?:for|of|by|from|at|in|on)\s+([0-9a-fA-Fx]{42})(?:.*?(?:on|in)\s+([a-zA-Z]+))?`,
					),
					build: captureAddressNetwork,
				},
				{
					re:    regexp.MustCompile(`(?i)(?:what|which|show|list|get|check|find)(?:'s| is| are)?\s+(?:the\s+)?(?:nft|collectible|token|digital asset)s?.*?(?:for|of|by|from|at|in|on)\s+([0-9a-fA-Fx]{42})(?:.*?(?:on|in)\s+([a-zA-Z]+))?`,
					),
					build: captureAddressNetwork,
				},
				{
					re:    regexp.MustCompile(`(?i)(?:nft|collectible|token|digital asset)s? (?:owned|holding|collection|ownership|portfolio|holdings).*?(?:for|of|by|from|at|in|on) ([0-9a-fA-Fx]{42})(?:.*?(?:on|in) ([a-zA-Z]+))?`,
					),
					build: captureAddressNetwork,
				},
				{
					re: regexp.MustCompile(`(?i)(?:\b(0x[a-fA-F0-9]{40})\b.*?\b(?:nft|collectible|token|digital asset)s?\b|\b(?:nft|collectible|token|digital asset)s?\b.*?\b(0x[a-fA-F0-9]{40})\b)(?:.*?\b(?:on|in)\s+([a-zA-Z]+))?`,
					),
					build: func(groups []string) Args {
						addr := groups[1]
						if addr == "" {
							addr = groups[2]
						}
						args := Args{"address": addr}
						if groups[3] != "" {
							args["network"] = groups[3]
						}
						return args
					},
				},
			},
		},
		{
			tool: NameTxHistory,
			patterns: []pattern{
				{
					re:    regexp.MustCompile(`(?i)(?:transaction|tx|transfer|wallet)(?:\s+history|\s+list|\s+record|\s+activity).*?(?:for|of|by|from)\s+([0-9a-fA-Fx]{42})(?:.*?(?:on|in)\s+([a-zA-Z]+))?`,
					),
					build: captureAddressNetwork,
				},
				{
					re:    regexp.MustCompile(`(?i)(?:what(?:'s| is) the|check|get|show|find).*?(?:transaction|tx|transfer|wallet).*?(?:for|of|by|from)\s+([0-9a-fA-Fx]{42})(?:.*?(?:on|in)\s+([a-zA-Z]+))?`,
					),
					build: captureAddressNetwork,
				},
				{
					re:    regexp.MustCompile(`(?i)(?:transaction|tx|transfer|wallet) (?:history|list|record|activity).*?(?:for|of|by|from) ([0-9a-fA-Fx]{42})(?:.*?(?:on|in) ([a-zA-Z]+))?`,
					),
					build: captureAddressNetwork,
				},
			},
		},
		{
			tool: NameGasPrice,
			patterns: []pattern{
				{
					re:    regexp.MustCompile(`(?i)(?:gas|transaction|tx)(?:\s+fee|\s+price|\s+cost).*(?:on|for|in)\s+([a-zA-Z]+)`),
					build: captureNetwork,
				},
				{
					re:    regexp.MustCompile(`(?i)(?:what(?:'s| is) the|current|check|get|show).*(?:gas|transaction|tx).*(?:on|for|in)\s+([a-zA-Z]+)`),
					build: captureNetwork,
				},
				{
					re:    regexp.MustCompile(`(?i)(?:gas|transaction) (?:price|fee|cost).*(?:on|for|in) ([a-zA-Z]+)`),
					build: captureNetwork,
				},
			},
		},
		{
			tool: NameTokenPrices,
			patterns: []pattern{
				{
					re:    regexp.MustCompile(`(?i)(?:token|crypto|cryptocurrency)(?:\s+prices?|\s+rates?|\s+values?).*?(?:on|in|for)\s+([a-zA-Z]+)(?:.*?(?:in|using|with)\s+([a-zA-Z]{3,}))?`,
					),
					build: captureNetworkCurrency,
				},
				{
					re:    regexp.MustCompile(`(?i)(?:what(?:'s| is| are) the|check|get|show|find).*?(?:token|crypto|cryptocurrency)(?:\s+prices?|\s+rates?|\s+values?).*?(?:on|in|for)\s+([a-zA-Z]+)(?:.*?(?:in|using|with)\s+([a-zA-Z]{3,}))?`,
					),
					build: captureNetworkCurrency,
				},
				{
					re:    regexp.MustCompile(`(?i)(?:token|crypto|cryptocurrency) (?:prices?|rates?|values?).*?(?:on|in|for) ([a-zA-Z]+)(?:.*?(?:in|using|with) ([a-zA-Z]{3,}))?`,
					),
					build: captureNetworkCurrency,
				},
			},
		},
	}}
}

// Detect scans the prompt against every route in precedence order and
// returns the first matching invocation.
func (d *Dispatcher) Detect(prompt string) (Invocation, bool) {
	for _, r := range d.routes {
		for _, p := range r.patterns {
			groups := p.re.FindStringSubmatch(prompt)
			if groups == nil {
				continue
			}
			return Invocation{Tool: r.tool, Args: p.build(groups)}, true
		}
	}
	return Invocation{}, false
}
