package usecases

import (
	"context"
	"strings"

	domainerrors "subpay-indexer.backend/internal/domain/errors"
)

// PriceVenueClient is the subset of the price venue client the Price
// Oracle depends on.
type PriceVenueClient interface {
	AvgPrice(ctx context.Context, symbol string) (float64, error)
}

// PriceRepoCache is the short-TTL cache layer in front of the venue.
type PriceRepoCache interface {
	Get(ctx context.Context, symbol string) (float64, bool)
	Set(ctx context.Context, symbol string, price float64) error
}

// PriceOracle resolves a chain/token pair to the price of one unit of
// the chain's native coin denominated in the token, per spec.md §4.6 and
// the fixed native->token direction decided in spec.md §9 Open Question
// (c): eth_fee * price == token_fee.
type PriceOracle struct {
	venue         PriceVenueClient
	cache         PriceRepoCache
	symbolByToken map[string]string // "chainID:tokenAddress" (lowercase) -> venue symbol, native as base asset (e.g. "ETHUSDC")
}

// NewPriceOracle constructs a Price Oracle over a static chain/token ->
// venue-symbol table.
func NewPriceOracle(venue PriceVenueClient, cache PriceRepoCache, symbolByToken map[string]string) *PriceOracle {
	return &PriceOracle{venue: venue, cache: cache, symbolByToken: symbolByToken}
}

func tokenKey(chainID, tokenAddress string) string {
	return strings.ToLower(chainID + ":" + tokenAddress)
}

// GetNativeToToken returns the price of one unit of the chain's native
// coin denominated in the token (the venue's base-asset/quote-asset
// convention, e.g. "ETHUSDC" ~ 3000). Unknown pairs return
// ErrUnsupportedToken.
func (o *PriceOracle) GetNativeToToken(ctx context.Context, chainID, tokenAddress string) (float64, error) {
	symbol, ok := o.symbolByToken[tokenKey(chainID, tokenAddress)]
	if !ok {
		return 0, domainerrors.ErrUnsupportedToken
	}

	if price, ok := o.cache.Get(ctx, symbol); ok {
		return price, nil
	}

	price, err := o.venue.AvgPrice(ctx, symbol)
	if err != nil {
		return 0, err
	}

	_ = o.cache.Set(ctx, symbol, price)
	return price, nil
}
