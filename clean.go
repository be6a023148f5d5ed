package runtime

import (
	"regexp"
	"strings"
)

var (
	framingPrefixes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^As [^,]+,\s*`),
		regexp.MustCompile(`(?i)^In my role as [^,]+,\s*`),
		regexp.MustCompile(`(?i)^Playing the role of [^,]+,\s*`),
		regexp.MustCompile(`(?i)^As an AI playing [^,]+,\s*`),
	}
	metaCommentary = []*regexp.Regexp{
		regexp.MustCompile(`(?i)I would respond as follows:\s*`),
		regexp.MustCompile(`(?i)Here's how I would respond:\s*`),
		regexp.MustCompile(`(?i)Here is my response:\s*`),
	}
)

// CleanRoleplayResponse strips out-of-character framing the model sometimes
// wraps around its reply, including a leading "Name:" speaker tag.
func CleanRoleplayResponse(response, characterName string) string {
	if response == "" {
		return ""
	}
	cleaned := response
	for _, re := range framingPrefixes {
		cleaned = re.ReplaceAllString(cleaned, "")
	}
	if characterName != "" {
		namePrefix := regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(characterName) + `:\s*`)
		cleaned = namePrefix.ReplaceAllString(cleaned, "")
	}
	for _, re := range metaCommentary {
		if loc := re.FindStringIndex(cleaned); loc != nil {
			cleaned = cleaned[:loc[0]] + cleaned[loc[1]:]
		}
	}
	return strings.TrimSpace(cleaned)
}
