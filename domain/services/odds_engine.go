package services

import (
	"fmt"
	"time"

	"bookmaker/config"
	"bookmaker/domain/entities"

	"github.com/shopspring/decimal"
)

// OddsEngine converts estimated outcome probabilities into published prices.
// Each probability is margined independently; multi-outcome books are not
// normalized to 1, which biases the book in the operator's favor.
type OddsEngine struct {
	margin   float64
	minPrice decimal.Decimal
	maxPrice decimal.Decimal
	lines    []decimal.Decimal

	overProbAbove float64
	overProbAt    float64
	overProbBelow float64
}

// NewOddsEngine creates an odds engine from the configured margin, price
// bounds and over/under policy.
func NewOddsEngine() *OddsEngine {
	cfg := config.Get()
	return &OddsEngine{
		margin:        cfg.HouseMargin,
		minPrice:      cfg.MinPrice,
		maxPrice:      cfg.MaxPrice,
		lines:         cfg.OverUnderLines,
		overProbAbove: cfg.OverProbAbove,
		overProbAt:    cfg.OverProbAt,
		overProbBelow: cfg.OverProbBelow,
	}
}

// PriceFromProbability computes price = 1 / (p + margin), clamped to the
// configured bounds and rounded to 2 decimal places, half-up. A probability
// of exactly 0 returns the maximum price instead of dividing by zero.
func (e *OddsEngine) PriceFromProbability(p float64) (decimal.Decimal, error) {
	if p < 0 || p > 1 {
		return decimal.Zero, fmt.Errorf("%w: probability %v outside [0,1]", entities.ErrValidation, p)
	}
	if p == 0 {
		return e.maxPrice, nil
	}

	price := decimal.NewFromFloat(1.0 / (p + e.margin)).Round(2)
	if price.LessThan(e.minPrice) {
		return e.minPrice, nil
	}
	if price.GreaterThan(e.maxPrice) {
		return e.maxPrice, nil
	}
	return price, nil
}

// MatchWinnerQuotes builds home/draw/away quotes for a match from estimated
// probabilities. The three probabilities are margined independently.
func (e *OddsEngine) MatchWinnerQuotes(matchID int64, startsAt time.Time, pHome, pDraw, pAway float64) ([]*entities.MarketQuote, error) {
	selections := []struct {
		name string
		prob float64
	}{
		{"home", pHome},
		{"draw", pDraw},
		{"away", pAway},
	}

	quotes := make([]*entities.MarketQuote, 0, len(selections))
	for _, sel := range selections {
		quote, err := e.buildQuote(matchID, startsAt, entities.MarketMatchWinner, sel.name, nil, sel.prob)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, quote)
	}
	return quotes, nil
}

// OverUnderQuotes builds over/under quote pairs for every configured line
// from a baseline expected-goals estimate. The over probability comes from a
// deliberately simple three-bucket policy around the line; it is kept
// configurable because it is a placeholder, not a model.
func (e *OddsEngine) OverUnderQuotes(matchID int64, startsAt time.Time, market entities.MarketType, expectedGoals decimal.Decimal) ([]*entities.MarketQuote, error) {
	quotes := make([]*entities.MarketQuote, 0, len(e.lines)*2)
	for _, line := range e.lines {
		line := line
		pOver := e.overProbability(expectedGoals, line)

		over, err := e.buildQuote(matchID, startsAt, market, "over", &line, pOver)
		if err != nil {
			return nil, err
		}
		under, err := e.buildQuote(matchID, startsAt, market, "under", &line, 1-pOver)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, over, under)
	}
	return quotes, nil
}

func (e *OddsEngine) overProbability(estimate, line decimal.Decimal) float64 {
	switch estimate.Cmp(line) {
	case 1:
		return e.overProbAbove
	case 0:
		return e.overProbAt
	default:
		return e.overProbBelow
	}
}

func (e *OddsEngine) buildQuote(matchID int64, startsAt time.Time, market entities.MarketType, selection string, line *decimal.Decimal, p float64) (*entities.MarketQuote, error) {
	price, err := e.PriceFromProbability(p)
	if err != nil {
		return nil, err
	}
	return &entities.MarketQuote{
		MatchID:            matchID,
		Market:             market,
		Selection:          selection,
		Line:               line,
		Price:              price,
		ImpliedProbability: p,
		Margin:             e.margin,
		Source:             entities.QuoteSourceComputed,
		Active:             true,
		TotalStaked:        decimal.Zero,
		MatchStartsAt:      startsAt,
	}, nil
}
