package momentum

import (
	"regexp"
	"strings"
)

// kidBlocklist covers alcohol, nightlife, gambling and dating terms. Matching is
// whole-word and case-insensitive, so this is best-effort: misspellings and
// compounds pass through.
var kidBlocklist = []string{
	"alcohol", "alcoholic", "beer", "beers", "wine", "vodka", "whiskey", "tequila",
	"cocktail", "cocktails", "booze", "drunk", "bar", "bars", "pub", "pubs",
	"nightclub", "nightclubs", "casino", "gambling", "bet", "betting",
	"dating", "hookup", "flirt", "flirting", "romance", "romantic",
	"tinder", "sexy",
}

var kidBlocklistPattern = regexp.MustCompile(`(?i)\b(?:` + strings.Join(kidBlocklist, "|") + `)\b`)

const redacted = "***"

// SanitizeForKids redacts blocklisted words.
func SanitizeForKids(message string) string {
	return kidBlocklistPattern.ReplaceAllString(message, redacted)
}
