package tools

import (
	"regexp"
	"sort"
	"strings"
)

// NetworkIDs maps accepted network names to 1inch chain ids.
var NetworkIDs = map[string]string{
	"ethereum":  "1",
	"eth":       "1",
	"mainnet":   "1",
	"binance":   "56",
	"bsc":       "56",
	"polygon":   "137",
	"matic":     "137",
	"avalanche": "43114",
	"avax":      "43114",
	"arbitrum":  "42161",
	"optimism":  "10",
	"base":      "8453",
	"fantom":    "250",
	"ftm":       "250",
	"aurora":    "1313161554",
}

// TokenPriceNetworkIDs is NetworkIDs plus the chains only the spot-price API
// supports.
var TokenPriceNetworkIDs = func() map[string]string {
	m := make(map[string]string, len(NetworkIDs)+1)
	for k, v := range NetworkIDs {
		m[k] = v
	}
	m["klaytn"] = "8217"
	return m
}()

// Currencies normalizes common fiat currency spellings.
var Currencies = map[string]string{
	"usd": "USD",
	"eur": "EUR",
	"gbp": "GBP",
	"jpy": "JPY",
	"cny": "CNY",
	"inr": "INR",
	"krw": "KRW",
	"rub": "RUB",
	"cad": "CAD",
	"aud": "AUD",
}

// canonicalNames picks one name per chain id for numeric lookups, since
// several aliases share an id.
var canonicalNames = map[string]string{
	"1":          "ethereum",
	"56":         "binance",
	"137":        "polygon",
	"43114":      "avalanche",
	"42161":      "arbitrum",
	"10":         "optimism",
	"8453":       "base",
	"250":        "fantom",
	"1313161554": "aurora",
	"8217":       "klaytn",
}

var addressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// IsAddress reports whether s is a 20-byte hex address with 0x prefix.
func IsAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// ChainID resolves a network name (or a numeric chain id) against ids.
// The second return is the canonical network name; ok is false for unknown
// networks.
func ChainID(ids map[string]string, network string) (chainID, name string, ok bool) {
	trimmed := strings.TrimSpace(network)
	lower := strings.ToLower(trimmed)

	if id, found := ids[lower]; found {
		return id, lower, true
	}

	// Numeric chain ids are accepted and mapped back to a name when known.
	if isDigits(trimmed) {
		if n, found := canonicalNames[trimmed]; found {
			if _, supported := ids[n]; supported {
				return trimmed, n, true
			}
		}
		return trimmed, "chain " + trimmed, true
	}

	return "", "", false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// SupportedNetworks lists the accepted names for an error message, sorted.
func SupportedNetworks(ids map[string]string) string {
	names := make([]string, 0, len(ids))
	for n := range ids {
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// NormalizeCurrency maps a user-supplied currency to its canonical code,
// defaulting to upper-casing unknown codes.
func NormalizeCurrency(currency string) string {
	if c, ok := Currencies[strings.ToLower(strings.TrimSpace(currency))]; ok {
		return c
	}
	return strings.ToUpper(strings.TrimSpace(currency))
}
