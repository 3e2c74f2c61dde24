package domain

// CoinGeckoID maps internal symbols to CoinGecko API identifiers.
var CoinGeckoID = map[string]string{
	"BTC": "bitcoin",
	"ETH": "ethereum",
	"SOL": "solana",
	"ADA": "cardano",
	"XRP": "ripple",
}

// CoinGeckoIDToSymbol is the reverse mapping.
var CoinGeckoIDToSymbol map[string]string

func init() {
	CoinGeckoIDToSymbol = make(map[string]string, len(CoinGeckoID))
	for sym, id := range CoinGeckoID {
		CoinGeckoIDToSymbol[id] = sym
	}
}

// SupportedSymbols lists all symbols the pipeline validates.
var SupportedSymbols = []string{"BTC", "ETH", "SOL", "ADA", "XRP"}

// IsSupportedSymbol reports whether the pipeline knows the symbol.
func IsSupportedSymbol(symbol string) bool {
	_, ok := CoinGeckoID[symbol]
	return ok
}
