package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupCoin(t *testing.T) {
	tests := []struct {
		symbol     string
		want       string
		price      float64
		reward     float64
		difficulty float64
	}{
		{"BTC", CoinBTC, 45000, 6.25, 5e13},
		{"eth", CoinETH, 2800, 2, 1.5e16},
		{" ltc ", CoinLTC, 75, 12.5, 2.4e7},
		{"Doge", CoinDOGE, 0.08, 10000, 8e6},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			c, err := LookupCoin(tt.symbol)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Symbol)

			m := c.Market()
			assert.Equal(t, tt.price, m.CoinPriceUSD)
			assert.Equal(t, tt.reward, m.BlockRewardCoins)
			assert.Equal(t, tt.difficulty, m.NetworkDifficulty)
		})
	}
}

func TestLookupCoin_Unknown(t *testing.T) {
	_, err := LookupCoin("XMR")
	assert.True(t, errors.Is(err, ErrUnknownCoin))

	_, err = LookupCoin("")
	assert.True(t, errors.Is(err, ErrUnknownCoin))
}

func TestCoins_SortedCopy(t *testing.T) {
	coins := Coins()
	require.Len(t, coins, 4)

	symbols := make([]string, len(coins))
	for i, c := range coins {
		symbols[i] = c.Symbol
	}
	assert.Equal(t, []string{"BTC", "DOGE", "ETH", "LTC"}, symbols)

	coins[0].PriceUSD = 1
	btc, _ := LookupCoin(CoinBTC)
	assert.Equal(t, 45000.0, btc.PriceUSD)
}
