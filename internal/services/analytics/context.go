package analytics

import "strings"

// Relevance buckets for news text relative to a symbol.
const (
	RelevanceDirect     = "Direct"
	RelevanceSector     = "Sector"
	RelevanceMarketWide = "Market-Wide"
)

// NewsRelevance classifies how specific an article is to a symbol. Symbols
// with an exchange suffix (e.g. "TCS.NS") match on the bare ticker.
func NewsRelevance(text, symbol string) string {
	lower := strings.ToLower(text)
	clean := strings.ToLower(CleanSymbol(symbol))
	if clean != "" && strings.Contains(lower, clean) {
		return RelevanceDirect
	}
	if strings.Contains(lower, "sector") || strings.Contains(lower, "industry") {
		return RelevanceSector
	}
	return RelevanceMarketWide
}

// CleanSymbol strips an exchange suffix from a symbol.
func CleanSymbol(symbol string) string {
	if i := strings.IndexByte(symbol, '.'); i > 0 {
		return symbol[:i]
	}
	return symbol
}
