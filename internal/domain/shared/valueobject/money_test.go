package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("valid money", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromFloat(100.50), USD)
		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(100.50)))
		assert.Equal(t, USD, m.Currency())
	})

	t.Run("empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(10), "")
		require.Error(t, err)
	})
}

func TestNewMoneyUSDFromString(t *testing.T) {
	m, err := NewMoneyUSDFromString("75.50")
	require.NoError(t, err)
	assert.Equal(t, "75.50", m.StringFixed(2))

	_, err = NewMoneyUSDFromString("not-a-number")
	require.Error(t, err)
}

func TestMoneyArithmetic(t *testing.T) {
	a := NewMoneyUSD(decimal.NewFromFloat(50.00))
	b := NewMoneyUSD(decimal.NewFromFloat(25.50))

	t.Run("add", func(t *testing.T) {
		sum, err := a.Add(b)
		require.NoError(t, err)
		assert.Equal(t, "75.50", sum.StringFixed(2))
	})

	t.Run("subtract", func(t *testing.T) {
		diff, err := a.Subtract(b)
		require.NoError(t, err)
		assert.Equal(t, "24.50", diff.StringFixed(2))
	})

	t.Run("multiply", func(t *testing.T) {
		product := b.Multiply(decimal.NewFromInt(2))
		assert.Equal(t, "51.00", product.StringFixed(2))
	})

	t.Run("currency mismatch", func(t *testing.T) {
		eur, err := NewMoney(decimal.NewFromInt(10), EUR)
		require.NoError(t, err)
		_, err = a.Add(eur)
		require.Error(t, err)
		_, err = a.Subtract(eur)
		require.Error(t, err)
	})

	t.Run("addition is exact", func(t *testing.T) {
		// 0.1 + 0.2 drifts in binary floating point; decimal stays exact
		sum := Zero()
		for i := 0; i < 10; i++ {
			sum = sum.MustAdd(NewMoneyUSD(decimal.NewFromFloat(0.1)))
		}
		assert.True(t, sum.Equals(NewMoneyUSD(decimal.NewFromInt(1))))
	})
}

func TestMoneyJSON(t *testing.T) {
	m := NewMoneyUSD(decimal.NewFromFloat(99.99))

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"99.99","currency":"USD"}`, string(data))

	var decoded Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, m.Equals(decoded))
}

func TestMoneyScan(t *testing.T) {
	var m Money
	require.NoError(t, m.Scan("123.45"))
	assert.Equal(t, "123.45", m.StringFixed(2))
	assert.Equal(t, DefaultCurrency, m.Currency())

	require.Error(t, m.Scan(3.14))
}
