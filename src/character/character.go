// Package character models the persona an agent speaks as, and fetches agent
// records from the registry indexer.
package character

import "strings"

// Character is a persona card. Field names follow the card format the
// registry stores.
type Character struct {
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	Personality    string `json:"personality,omitempty"`
	Scenario       string `json:"scenario,omitempty"`
	FirstMes       string `json:"first_mes,omitempty"`
	MesExample     string `json:"mes_example,omitempty"`
	CreatorComment string `json:"creatorcomment,omitempty"`
}

// Valid reports whether the card carries the minimum a roleplay needs.
func (c Character) Valid() bool {
	return strings.TrimSpace(c.Name) != "" && strings.TrimSpace(c.Personality) != ""
}

// Agent is one registered agent's metadata plus its resolved character card.
type Agent struct {
	ID            string    `json:"id"`
	Subname       string    `json:"subname"`
	Owner         string    `json:"owner"`
	DeviceAddress string    `json:"deviceAddress"`
	Avatar        string    `json:"avatar"`
	IsPublic      bool      `json:"isPublic"`
	PerAPICallFee float64   `json:"perApiCallFee"`
	KeyHash       string    `json:"keyHash"`
	Character     Character `json:"character"`
}
