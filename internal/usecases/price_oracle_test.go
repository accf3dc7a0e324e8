package usecases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "subpay-indexer.backend/internal/domain/errors"
)

type fakeVenueClient struct {
	prices map[string]float64
	calls  int
}

func (f *fakeVenueClient) AvgPrice(_ context.Context, symbol string) (float64, error) {
	f.calls++
	return f.prices[symbol], nil
}

type fakePriceCache struct {
	values map[string]float64
}

func newFakePriceCache() *fakePriceCache { return &fakePriceCache{values: map[string]float64{}} }

func (c *fakePriceCache) Get(_ context.Context, symbol string) (float64, bool) {
	v, ok := c.values[symbol]
	return v, ok
}

func (c *fakePriceCache) Set(_ context.Context, symbol string, price float64) error {
	c.values[symbol] = price
	return nil
}

func TestPriceOracle_UnknownPairIsUnsupported(t *testing.T) {
	oracle := NewPriceOracle(&fakeVenueClient{}, newFakePriceCache(), map[string]string{})
	_, err := oracle.GetNativeToToken(context.Background(), "8453", "0xunknown")
	assert.ErrorIs(t, err, domainerrors.ErrUnsupportedToken)
}

func TestPriceOracle_CachesAfterFirstVenueCall(t *testing.T) {
	venue := &fakeVenueClient{prices: map[string]float64{"ETHUSDC": 3000}}
	oracle := NewPriceOracle(venue, newFakePriceCache(), map[string]string{"8453:0xusdc": "ETHUSDC"})

	price, err := oracle.GetNativeToToken(context.Background(), "8453", "0xusdc")
	require.NoError(t, err)
	assert.InDelta(t, 3000, price, 0.0001)
	assert.Equal(t, 1, venue.calls)

	price, err = oracle.GetNativeToToken(context.Background(), "8453", "0xUSDC")
	require.NoError(t, err)
	assert.InDelta(t, 3000, price, 0.0001)
	assert.Equal(t, 1, venue.calls, "second lookup should hit the cache")
}

func TestPriceOracle_GasConversionFixture(t *testing.T) {
	// eth_fee * price == token_fee, per the fixed native->token
	// direction (spec.md §9 Open Question c).
	venue := &fakeVenueClient{prices: map[string]float64{"ETHUSDC": 3000}}
	oracle := NewPriceOracle(venue, newFakePriceCache(), map[string]string{"8453:0xusdc": "ETHUSDC"})

	price, err := oracle.GetNativeToToken(context.Background(), "8453", "0xusdc")
	require.NoError(t, err)

	ethFee := 0.002
	tokenFee := ethFee * price
	assert.InDelta(t, 6, tokenFee, 1e-9)
}
