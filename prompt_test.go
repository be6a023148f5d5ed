package runtime

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/character"
	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/history"
)

func testCard() character.Character {
	return character.Character{
		Name:        "Aria",
		Description: "Tall, silver hair",
		Personality: "Sharp-tongued but kind",
		Scenario:    "Running a tavern",
		FirstMes:    "Welcome, traveler.",
		MesExample:  "Aye, what'll it be?",
	}
}

func TestBuildRoleplayPrompt(t *testing.T) {
	p := BuildRoleplayPrompt(testCard(), "Bob", "What ales do you have?", []history.Turn{
		{Role: "user", Content: "Hello"},
		{Role: "assistant", Content: "Well met"},
	})

	assert.True(t, strings.HasPrefix(p, "### SYSTEM ###"))
	assert.Contains(t, p, "You are roleplaying as Aria.")
	assert.Contains(t, p, "APPEARANCE: Tall, silver hair")
	assert.Contains(t, p, "PERSONALITY: Sharp-tongued but kind")
	assert.Contains(t, p, "SCENARIO: Running a tavern")
	assert.Contains(t, p, `{"name": "ToolName", "arguments": {"param1": "value1"}}`)
	assert.Contains(t, p, "EXAMPLE SPEECH PATTERN: Aye, what'll it be?")
	assert.Contains(t, p, "### CHAT ###")
	assert.Contains(t, p, "Aria: Welcome, traveler.\n\n")
	assert.Contains(t, p, "Bob: Hello\n\n")
	assert.Contains(t, p, "Aria: Well met\n\n")
	assert.Contains(t, p, "Bob: What ales do you have?\n\n")
	assert.True(t, strings.HasSuffix(p, "Aria:"))
}

func TestBuildRoleplayPromptDefaults(t *testing.T) {
	card := character.Character{Name: "Aria", Personality: "Kind"}
	p := BuildRoleplayPrompt(card, "", "hi", nil)

	assert.Contains(t, p, "APPEARANCE: Not specified")
	assert.Contains(t, p, "SCENARIO: Not specified")
	assert.Contains(t, p, "EXAMPLE SPEECH PATTERN: Not specified")
	assert.Contains(t, p, "User: hi\n\n")
	assert.NotContains(t, p, "Aria: Welcome")
}

func TestBuildRoleplayPromptWithData(t *testing.T) {
	p := BuildRoleplayPromptWithData(testCard(), "Bob", "gas on ethereum?", nil, "Base fee: 25.00 Gwei")

	assert.Contains(t, p, "DATA FOR YOUR RESPONSE:\nBase fee: 25.00 Gwei")
	assert.NotContains(t, p, "You have access to tools")
	assert.True(t, strings.HasSuffix(p, "Aria:"))
}

func TestBuildSystemPrompt(t *testing.T) {
	card := testCard()
	card.CreatorComment = "Never swears"
	p := BuildSystemPrompt(card, "Bob")

	assert.True(t, strings.HasPrefix(p, "## Role-playing Instructions"))
	assert.Contains(t, p, "You are now roleplaying as Aria.")
	assert.Contains(t, p, "Physical appearance: Tall, silver hair")
	assert.Contains(t, p, "Personality: Sharp-tongued but kind")
	assert.Contains(t, p, "Current scenario: Running a tavern")
	assert.Contains(t, p, "Additional roleplay guidelines: Never swears")
	assert.Contains(t, p, "You are having a conversation with Bob.")
}

func TestBuildFullPrompt(t *testing.T) {
	card := testCard()
	system := BuildSystemPrompt(card, "Bob")

	// First message appears only when there is no history yet.
	fresh := BuildFullPrompt(system, card, "Bob", "hello", nil)
	require.Contains(t, fresh, "## Examples of Aria's Speech and Behavior")
	assert.Contains(t, fresh, "## Current Conversation")
	assert.Contains(t, fresh, "Aria: Welcome, traveler.\n\n")
	assert.True(t, strings.HasSuffix(fresh, "Aria:"))

	continued := BuildFullPrompt(system, card, "Bob", "hello again", []history.Turn{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	})
	assert.NotContains(t, continued, "Welcome, traveler.")
	assert.Contains(t, continued, "Bob: hi\n\n")
	assert.Contains(t, continued, "Aria: hello\n\n")
}
