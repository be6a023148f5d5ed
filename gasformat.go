package runtime

import (
	"fmt"
	"strings"

	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/character"
	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/tools"
)

// FormatGasPriceSummary renders a gas price outcome as a finished reply
// without going through the model. The wording is picked from the character's
// personality keywords so the canned text still sounds in character.
func FormatGasPriceSummary(card character.Character, o tools.Outcome) string {
	network := capitalize(o.Args.Network())
	personality := strings.ToLower(card.Personality)

	if o.Kind == tools.OutcomeError {
		switch {
		case strings.Contains(personality, "technical"):
			return fmt.Sprintf("I attempted to query the gas price API for %s, but encountered an error: %s", network, o.ErrText)
		case strings.Contains(personality, "formal"):
			return fmt.Sprintf("I regret to inform you that I was unable to retrieve the current gas prices for %s. The system reported: %s", network, o.ErrText)
		default:
			return fmt.Sprintf("I tried to check the gas price for %s, but ran into a problem: %s", network, o.ErrText)
		}
	}
	if o.Kind == tools.OutcomeEmpty {
		return fmt.Sprintf("I checked the gas prices on %s and found: %s", network, o.Message)
	}

	data, ok := o.Data.(tools.GasPriceData)
	if !ok {
		return fmt.Sprintf("I checked the gas prices on %s, but the data came back in a shape I couldn't read.", network)
	}

	base := orNotAvailable(data.BaseFee)
	low := orNotAvailable(data.Low)
	medium := orNotAvailable(data.Medium)
	high := orNotAvailable(data.High)
	instant := orNotAvailable(data.Instant)

	switch {
	case containsAny(personality, "technical", "scientist", "professor"):
		return fmt.Sprintf("According to my analysis of the %s blockchain metrics, the current gas prices are:\n\n"+
			"Base fee: %s\nLow priority: %s\nMedium priority: %s\nHigh priority: %s\nInstant: %s\n\n"+
			"These values represent the cost of computational resources required for transaction processing on the %s network.",
			network, base, low, medium, high, instant, o.Args.Network())
	case containsAny(personality, "formal", "business"):
		return fmt.Sprintf("I've checked the current gas prices on the %s network for you:\n\n"+
			"Base fee: %s\nLow priority: %s\nMedium priority: %s\nHigh priority: %s\nInstant: %s\n\n"+
			"Please note that these prices may vary depending on network activity.",
			network, base, low, medium, high, instant)
	case containsAny(personality, "friendly", "helpful"):
		return fmt.Sprintf("I just looked up the gas prices on %s for you! Here's what I found:\n\n"+
			"Base fee: %s\nLow priority: %s\nMedium priority: %s\nHigh priority: %s\nInstant: %s\n\n"+
			"Keep in mind these prices can change pretty quickly depending on how busy the network is!",
			network, base, low, medium, high, instant)
	case containsAny(personality, "eccentric", "quirky"):
		return fmt.Sprintf("*fiddles with a blockchain calculator* Aha! The ethereal gas spirits of %s are demanding:\n\n"+
			"Base tribute: %s\nSlow offering: %s\nMedium pace: %s\nSwift payment: %s\nLightning speed: %s\n\n"+
			"These mystical numbers shift with the blockchain winds, you know!",
			network, base, low, medium, high, instant)
	default:
		return fmt.Sprintf("I checked the current gas prices on %s:\n\n"+
			"Base fee: %s\nLow priority: %s\nMedium priority: %s\nHigh priority: %s\nInstant: %s\n\n"+
			"These prices might fluctuate based on network activity.",
			network, base, low, medium, high, instant)
	}
}

func orNotAvailable(v string) string {
	if v == "" {
		return "Not available"
	}
	return v
}
