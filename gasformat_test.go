package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/character"
	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/tools"
)

func gasOutcome() tools.Outcome {
	return tools.Outcome{
		Tool: tools.NameGasPrice,
		Args: tools.Args{"network": "polygon"},
		Kind: tools.OutcomeData,
		Data: tools.GasPriceData{
			Network: "polygon",
			BaseFee: "25.50 Gwei",
			Low:     "26.00 Gwei",
			Medium:  "28.00 Gwei",
			High:    "31.00 Gwei",
		},
	}
}

func TestFormatGasPriceSummaryPersonalities(t *testing.T) {
	cases := []struct {
		personality string
		want        string
	}{
		{"technical, precise", "According to my analysis of the Polygon blockchain metrics"},
		{"formal and courteous", "I've checked the current gas prices on the Polygon network"},
		{"friendly, warm", "I just looked up the gas prices on Polygon for you!"},
		{"eccentric, wise", "ethereal gas spirits of Polygon"},
		{"brooding", "I checked the current gas prices on Polygon"},
	}
	for _, tc := range cases {
		card := character.Character{Name: "Aria", Personality: tc.personality}
		got := FormatGasPriceSummary(card, gasOutcome())
		assert.Contains(t, got, tc.want, "personality %q", tc.personality)
		assert.Contains(t, got, "Base fee: 25.50 Gwei")
		assert.Contains(t, got, "High priority: 31.00 Gwei")
	}
}

func TestFormatGasPriceSummaryMissingTiers(t *testing.T) {
	o := gasOutcome()
	o.Data = tools.GasPriceData{Network: "polygon", BaseFee: "25.50 Gwei"}
	got := FormatGasPriceSummary(character.Character{Name: "Aria"}, o)
	assert.Contains(t, got, "Base fee: 25.50 Gwei")
	assert.Contains(t, got, "Low priority: Not available")
	assert.Contains(t, got, "Instant: Not available")
}

func TestFormatGasPriceSummaryError(t *testing.T) {
	o := tools.Outcome{
		Tool:    tools.NameGasPrice,
		Args:    tools.Args{"network": "ethereum"},
		Kind:    tools.OutcomeError,
		ErrText: "upstream returned 500",
	}

	formal := FormatGasPriceSummary(character.Character{Name: "Aria", Personality: "Formal"}, o)
	assert.Contains(t, formal, "I regret to inform you")
	assert.Contains(t, formal, "upstream returned 500")

	technical := FormatGasPriceSummary(character.Character{Name: "Aria", Personality: "technical"}, o)
	assert.Contains(t, technical, "query the gas price API for Ethereum")

	plain := FormatGasPriceSummary(character.Character{Name: "Aria", Personality: "gruff"}, o)
	assert.Contains(t, plain, "ran into a problem: upstream returned 500")
}
