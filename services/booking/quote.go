package booking

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"staygate/models"
	"staygate/services/pricing"
)

// Quote searches the supplier for rates, picks one, applies the margin
// policy and caches the priced quote for later confirmation.
func (s *DefaultBookingService) Quote(ctx context.Context, req models.QuoteRequest) (*models.PricedQuote, error) {
	if !req.CheckOut.After(req.CheckIn) {
		return nil, &ValidationError{Field: "checkOut", Message: "must be after checkIn"}
	}
	if req.Adults < 1 {
		return nil, &ValidationError{Field: "adults", Message: "at least one adult is required"}
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	rates, err := s.Supplier.Search(ctx, models.SearchRequest{
		HotelID:  req.HotelID,
		CheckIn:  req.CheckIn,
		CheckOut: req.CheckOut,
		Adults:   req.Adults,
		Children: req.Children,
		Currency: currency,
	})
	if err != nil {
		return nil, fmt.Errorf("supplier search failed: %w", err)
	}

	rate, ok := s.pickRate(rates, req.MatchHash)
	if !ok {
		return nil, &ValidationError{Field: "matchHash", Message: "no bookable rate found for the stay"}
	}
	// Margin math assumes one currency end to end; a supplier answering in a
	// different one would silently mix units.
	if rate.Currency != "" && rate.Currency != currency {
		return nil, fmt.Errorf("supplier returned rate in %s, requested %s", rate.Currency, currency)
	}

	customerType := req.CustomerType
	if customerType == "" {
		customerType = models.CustomerTypeB2C
	}

	quoteCtx := models.QuoteContext{
		Country:      req.Country,
		City:         req.City,
		StarRating:   req.StarRating,
		HotelBrand:   req.HotelBrand,
		BookingValue: rate.Price,
		CheckInDate:  req.CheckIn,
		MealType:     rate.MealType,
		CustomerType: customerType,
	}

	rule, matched, err := s.Pricing.SelectRule(ctx, quoteCtx)
	if err != nil {
		return nil, err
	}

	var selected *models.MarginRule
	if matched {
		selected = rule
	}
	margin, final := pricing.ApplyMargin(rate.Price, selected)

	quote := &models.PricedQuote{
		QuoteID:      uuid.New().String(),
		HotelID:      req.HotelID,
		HotelBrand:   req.HotelBrand,
		City:         req.City,
		Country:      req.Country,
		StarRating:   req.StarRating,
		CheckIn:      req.CheckIn,
		CheckOut:     req.CheckOut,
		GuestCount:   req.Adults + len(req.Children),
		Rate:         rate,
		CustomerType: customerType,
		BasePrice:    rate.Price,
		MarginAmount: margin,
		FinalPrice:   final,
		Currency:     rate.Currency,
	}
	if matched {
		quote.RuleID = rule.ID
		quote.RuleName = rule.Name
	}

	data, err := json.Marshal(quote)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal quote: %w", err)
	}
	if err := s.QuoteCache.Set(ctx, quoteKey(quote.QuoteID), data, s.Cfg.QuoteTTL).Err(); err != nil {
		return nil, fmt.Errorf("failed to cache quote: %w", err)
	}

	s.Logger.Info("quote priced",
		zap.String("quoteId", quote.QuoteID),
		zap.String("hotelId", req.HotelID),
		zap.Float64("basePrice", rate.Price),
		zap.Float64("finalPrice", final),
		zap.String("ruleId", quote.RuleID))
	return quote, nil
}

// pickRate selects the rate to quote: the pinned matchHash when given,
// otherwise the cheapest eligible rate. Automated flows only consider
// refundable rates so a compensating cancel cannot bill.
func (s *DefaultBookingService) pickRate(rates []models.Rate, matchHash string) (models.Rate, bool) {
	var best models.Rate
	found := false
	for _, r := range rates {
		if s.Cfg.RefundableOnly && !r.Refundable {
			continue
		}
		if matchHash != "" {
			if r.MatchHash == matchHash {
				return r, true
			}
			continue
		}
		if !found || r.Price < best.Price {
			best = r
			found = true
		}
	}
	return best, found
}

// consumeQuote atomically takes the quote out of the cache. GETDEL means
// exactly one confirm can win a quote; a concurrent second confirm sees it
// as expired.
func (s *DefaultBookingService) consumeQuote(ctx context.Context, quoteID string) (*models.PricedQuote, error) {
	data, err := s.QuoteCache.GetDel(ctx, quoteKey(quoteID)).Result()
	if err != nil {
		return nil, ErrQuoteExpired
	}
	var quote models.PricedQuote
	if err := json.Unmarshal([]byte(data), &quote); err != nil {
		return nil, fmt.Errorf("failed to parse cached quote %s: %w", quoteID, err)
	}
	return &quote, nil
}

func quoteKey(quoteID string) string {
	return "quote:" + quoteID
}
