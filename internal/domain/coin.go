package domain

import (
	"errors"
	"sort"
	"strings"
)

// ErrUnknownCoin is returned when a symbol is not in the coin catalog.
var ErrUnknownCoin = errors.New("unknown coin")

// Coin describes a minable coin and its canonical market defaults.
type Coin struct {
	Symbol      string  `json:"symbol"`
	Name        string  `json:"name"`
	PriceUSD    float64 `json:"price_usd"`
	BlockReward float64 `json:"block_reward"`
	Difficulty  float64 `json:"difficulty"`
	Algorithm   string  `json:"algorithm"`
}

// Coin symbols.
const (
	CoinBTC  = "BTC"
	CoinETH  = "ETH"
	CoinLTC  = "LTC"
	CoinDOGE = "DOGE"
)

// DefaultCoin is selected when nothing else is configured.
const DefaultCoin = CoinBTC

var coinCatalog = map[string]Coin{
	CoinBTC:  {Symbol: CoinBTC, Name: "Bitcoin", PriceUSD: 45000, BlockReward: 6.25, Difficulty: 50000000000000, Algorithm: "SHA-256"},
	CoinETH:  {Symbol: CoinETH, Name: "Ethereum", PriceUSD: 2800, BlockReward: 2, Difficulty: 15000000000000000, Algorithm: "Ethash"},
	CoinLTC:  {Symbol: CoinLTC, Name: "Litecoin", PriceUSD: 75, BlockReward: 12.5, Difficulty: 24000000, Algorithm: "Scrypt"},
	CoinDOGE: {Symbol: CoinDOGE, Name: "Dogecoin", PriceUSD: 0.08, BlockReward: 10000, Difficulty: 8000000, Algorithm: "Scrypt"},
}

// LookupCoin returns the catalog entry for symbol (case-insensitive).
func LookupCoin(symbol string) (Coin, error) {
	c, ok := coinCatalog[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return Coin{}, ErrUnknownCoin
	}
	return c, nil
}

// Coins returns the catalog ordered by symbol.
func Coins() []Coin {
	out := make([]Coin, 0, len(coinCatalog))
	for _, c := range coinCatalog {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

// Market returns the canonical market state for the coin.
func (c Coin) Market() MarketState {
	return MarketState{
		CoinPriceUSD:      c.PriceUSD,
		NetworkDifficulty: c.Difficulty,
		BlockRewardCoins:  c.BlockReward,
	}
}
