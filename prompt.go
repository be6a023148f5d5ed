package runtime

import (
	"fmt"
	"strings"

	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/character"
	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/history"
)

const fallbackUserName = "User"

func valueOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// BuildRoleplayPrompt assembles the single-string roleplay prompt: system
// instructions with the character card, then the transcript, ending on the
// character's turn.
func BuildRoleplayPrompt(card character.Character, userName, prompt string, chatHistory []history.Turn) string {
	var b strings.Builder

	fmt.Fprintf(&b, `### SYSTEM ###
You are roleplaying as %s. You will maintain character consistency at all times.

CHARACTER DETAILS:
APPEARANCE: %s
PERSONALITY: %s
SCENARIO: %s

IMPORTANT INSTRUCTIONS:
1. ALWAYS respond as %s, staying completely in character.
2. Maintain the character's personality traits throughout the conversation.
3. DO NOT break character or add meta-commentary about the roleplay.
4. NEVER prefix your responses with your name, as this is handled automatically.
5. When user requests information that can be provided by an available tool, USE THE TOOL.
6. You have access to tools. When a user asks about information that can be retrieved by a tool (like gas prices), you MUST use the appropriate tool rather than making up information.
7. For instance, if asked about gas prices on Ethereum or any blockchain, use the GetGasPrice tool rather than inventing data.
8. To use a tool, respond with a tool call in this format: {"name": "ToolName", "arguments": {"param1": "value1"}}

EXAMPLE SPEECH PATTERN: %s

### CHAT ###`,
		card.Name,
		valueOr(card.Description, "Not specified"),
		valueOr(card.Personality, "Not specified"),
		valueOr(card.Scenario, "Not specified"),
		card.Name,
		valueOr(card.MesExample, "Not specified"))

	b.WriteString("\n\n")
	writeConversation(&b, card, userName, prompt, chatHistory)
	return b.String()
}

// BuildRoleplayPromptWithData is the follow-up variant: the tool's data block
// replaces the tool instructions, so the model answers from the data instead
// of calling tools again.
func BuildRoleplayPromptWithData(card character.Character, userName, prompt string, chatHistory []history.Turn, dataDescription string) string {
	var b strings.Builder

	fmt.Fprintf(&b, `### SYSTEM ###
You are roleplaying as %s. You will maintain character consistency at all times.

CHARACTER DETAILS:
APPEARANCE: %s
PERSONALITY: %s
SCENARIO: %s

IMPORTANT INSTRUCTIONS:
1. ALWAYS respond as %s, staying completely in character.
2. Maintain the character's personality traits throughout the conversation.
3. DO NOT break character or add meta-commentary about the roleplay.
4. NEVER prefix your responses with your name, as this is handled automatically.

DATA FOR YOUR RESPONSE:
%s

EXAMPLE SPEECH PATTERN: %s

### CHAT ###`,
		card.Name,
		valueOr(card.Description, "Not specified"),
		valueOr(card.Personality, "Not specified"),
		valueOr(card.Scenario, "Not specified"),
		card.Name,
		dataDescription,
		valueOr(card.MesExample, "Not specified"))

	b.WriteString("\n\n")
	writeConversation(&b, card, userName, prompt, chatHistory)
	return b.String()
}

func writeConversation(b *strings.Builder, card character.Character, userName, prompt string, chatHistory []history.Turn) {
	if userName == "" {
		userName = fallbackUserName
	}

	if card.FirstMes != "" {
		fmt.Fprintf(b, "%s: %s\n\n", card.Name, card.FirstMes)
	}
	for _, turn := range chatHistory {
		speaker := userName
		if turn.Role == "assistant" {
			speaker = card.Name
		}
		fmt.Fprintf(b, "%s: %s\n\n", speaker, turn.Content)
	}
	fmt.Fprintf(b, "%s: %s\n\n", userName, prompt)
	fmt.Fprintf(b, "%s:", card.Name)
}

// BuildFullPrompt combines a system prompt with speech examples and the
// transcript for backends that take everything as one user prompt.
func BuildFullPrompt(systemPrompt string, card character.Character, userName, prompt string, chatHistory []history.Turn) string {
	if userName == "" {
		userName = fallbackUserName
	}

	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\n")

	if card.MesExample != "" {
		fmt.Fprintf(&b, "## Examples of %s's Speech and Behavior\n%s\n\n", card.Name, card.MesExample)
	}
	b.WriteString("## Current Conversation\n\n")

	if card.FirstMes != "" && len(chatHistory) == 0 {
		fmt.Fprintf(&b, "%s: %s\n\n", card.Name, card.FirstMes)
	}
	for _, turn := range chatHistory {
		speaker := userName
		if turn.Role == "assistant" {
			speaker = card.Name
		}
		fmt.Fprintf(&b, "%s: %s\n\n", speaker, turn.Content)
	}
	fmt.Fprintf(&b, "%s: %s\n\n%s:", userName, prompt, card.Name)
	return b.String()
}

// BuildSystemPrompt renders the character card as a standalone system prompt
// for backends with a native system role.
func BuildSystemPrompt(card character.Character, userName string) string {
	if userName == "" {
		userName = fallbackUserName
	}

	var info []string
	if card.Description != "" {
		info = append(info, "Physical appearance: "+card.Description)
	}
	if card.Personality != "" {
		info = append(info, "Personality: "+card.Personality)
	}
	if card.Scenario != "" {
		info = append(info, "Current scenario: "+card.Scenario)
	}
	if card.CreatorComment != "" {
		info = append(info, "Additional roleplay guidelines: "+card.CreatorComment)
	}

	return fmt.Sprintf(`## Role-playing Instructions
You are now roleplaying as %[1]s.
- You must ALWAYS respond as %[1]s would, maintaining their exact personality, knowledge, and speech patterns.
- NEVER break character or refer to yourself as an AI, language model, or assistant.
- NEVER use phrases like "As %[1]s, I would..." or "In my role as %[1]s...".
- Write in first person as if you ARE %[1]s.
- If the character would use specific speech patterns, verbal tics, or expressions, you MUST use them.
- Match the character's exact emotional tone, vocabulary level, and communication style.
- Include appropriate actions, gestures, and expressions in *asterisks* if they suit the character.

## %[1]s's Core Traits and Information
%[2]s

## Conversation Context
You are having a conversation with %[3]s. Stay completely in character throughout the entire exchange.`,
		card.Name, strings.Join(info, "\n\n"), userName)
}
