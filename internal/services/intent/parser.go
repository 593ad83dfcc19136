// Package intent extracts a price-lookup intent (token, entry price) from
// free-text chat queries using keyword and pattern heuristics.
package intent

import (
	"regexp"
	"strconv"
	"strings"
)

// Intent is a structured price query
type Intent struct {
	Token      string
	EntryPrice float64
}

var priceKeywords = []string{"price", "cost", "value", "worth", "trading at"}

type tokenPattern struct {
	re    *regexp.Regexp
	group int
}

// ordered by specificity
var tokenPatterns = []tokenPattern{
	{regexp.MustCompile(`buy\s+(\w+)\s+and\s+buy\s+(\w+)`), 2},
	{regexp.MustCompile(`buy\s+(\w+)\s+and\s+(\w+)`), 2},
	{regexp.MustCompile(`sell\s+and\s+buy\s+(\w+)`), 1},
	{regexp.MustCompile(`price\s+of\s+(\w+)`), 1},
	{regexp.MustCompile(`(\w+)\s+price`), 1},
	{regexp.MustCompile(`what\s+is\s+(\w+)`), 1},
	{regexp.MustCompile(`check\s+(\w+)`), 1},
	{regexp.MustCompile(`(\w+)\s+token`), 1},
	{regexp.MustCompile(`(\w+)\s+cost`), 1},
	{regexp.MustCompile(`how\s+much\s+is\s+(\w+)`), 1},
	{regexp.MustCompile(`(\w+)\s+worth`), 1},
	{regexp.MustCompile(`(\w+)\s+trading\s+at`), 1},
	{regexp.MustCompile(`(\w+)\s+value`), 1},
	{regexp.MustCompile(`get\s+(\w+)\s+price`), 1},
}

var ignoreWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"buy": {}, "sell": {}, "and": {}, "or": {}, "i": {}, "you": {}, "me": {}, "we": {}, "they": {},
	"what": {}, "that": {}, "this": {}, "current": {}, "good": {}, "move": {}, "price": {},
}

var tokenAliases = map[string]string{
	"SOLANA":    "SOL",
	"BITCOIN":   "BTC",
	"ETHEREUM":  "ETH",
	"CARDANO":   "ADA",
	"POLYGON":   "MATIC",
	"AVALANCHE": "AVAX",
	"CHAINLINK": "LINK",
	"UNISWAP":   "UNI",
	"RAYDIUM":   "RAY",
}

var entryPricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$\s*([\d.]+)`),
	regexp.MustCompile(`([\d.]+)\s*dollars`),
	regexp.MustCompile(`at\s*\$?\s*([\d.]+)`),
	regexp.MustCompile(`([\d.]+)\s*usd`),
}

// Parse returns the price intent of query. ok is false when the query is not
// a price question or names no recognisable token.
func Parse(query string) (in Intent, ok bool) {
	if !IsPriceQuery(query) {
		return Intent{}, false
	}
	token := ExtractToken(query)
	if token == "" {
		return Intent{}, false
	}
	return Intent{Token: token, EntryPrice: ExtractEntryPrice(query)}, true
}

// IsPriceQuery reports whether query contains a price keyword
func IsPriceQuery(query string) bool {
	lower := strings.ToLower(query)
	for _, kw := range priceKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ExtractToken returns the upper-case ticker named in query, or "".
// Common names are mapped to their ticker (SOLANA -> SOL).
func ExtractToken(query string) string {
	lower := strings.ToLower(query)
	for _, p := range tokenPatterns {
		m := p.re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		word := m[p.group]
		if _, skip := ignoreWords[word]; skip {
			continue
		}
		token := strings.ToUpper(word)
		if alias, ok := tokenAliases[token]; ok {
			return alias
		}
		return token
	}
	return ""
}

// ExtractEntryPrice returns the first price mentioned in query ("$20",
// "20 dollars", "at 20", "20 usd"), or 0.
func ExtractEntryPrice(query string) float64 {
	lower := strings.ToLower(query)
	for _, re := range entryPricePatterns {
		m := re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimRight(m[1], "."), 64)
		if err != nil {
			continue
		}
		return v
	}
	return 0
}
