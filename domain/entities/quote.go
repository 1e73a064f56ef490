package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketType identifies a betting-market rule family.
type MarketType string

const (
	MarketMatchWinner         MarketType = "match_winner"
	MarketFirstHalfWinner     MarketType = "first_half_winner"
	MarketSecondHalfWinner    MarketType = "second_half_winner"
	MarketOverUnder           MarketType = "over_under"
	MarketFirstHalfOverUnder  MarketType = "first_half_over_under"
	MarketSecondHalfOverUnder MarketType = "second_half_over_under"
	MarketBothTeamsScore      MarketType = "both_teams_score"
	MarketExactScore          MarketType = "exact_score"
	MarketDoubleChance        MarketType = "double_chance"
	MarketOddEven             MarketType = "odd_even"
	MarketFirstHalfOddEven    MarketType = "first_half_odd_even"
	MarketTeamScoresFirst     MarketType = "team_scores_first"
	MarketTeamScoresLast      MarketType = "team_scores_last"
	MarketCleanSheetHome      MarketType = "clean_sheet_home"
	MarketCleanSheetAway      MarketType = "clean_sheet_away"
)

// QuoteSource records where a price came from.
type QuoteSource string

const (
	QuoteSourceComputed QuoteSource = "computed"
	QuoteSourceManual   QuoteSource = "manual"
	QuoteSourceFeed     QuoteSource = "external_feed"
)

// MarketQuote is a priced, sellable selection for one market on one match.
// Superseded quotes are deactivated, never deleted, so wagers keep a valid
// reference to the price they locked.
type MarketQuote struct {
	ID                 int64            `db:"id" json:"id"`
	MatchID            int64            `db:"match_id" json:"match_id"`
	Market             MarketType       `db:"market" json:"market"`
	Selection          string           `db:"selection" json:"selection"`
	Line               *decimal.Decimal `db:"line" json:"line,omitempty"`
	Price              decimal.Decimal  `db:"price" json:"price"`
	ImpliedProbability float64          `db:"implied_probability" json:"implied_probability"`
	Margin             float64          `db:"margin" json:"margin"`
	Source             QuoteSource      `db:"source" json:"source"`
	Active             bool             `db:"active" json:"active"`
	WagerCount         int64            `db:"wager_count" json:"wager_count"`
	TotalStaked        decimal.Decimal  `db:"total_staked" json:"total_staked"`
	MatchStartsAt      time.Time        `db:"match_starts_at" json:"match_starts_at"`
	CreatedAt          time.Time        `db:"created_at" json:"created_at"`
}

// IsOpenForBetting reports whether the quote can still be sold at the given
// instant: it must be active and the match must not have started.
func (q *MarketQuote) IsOpenForBetting(now time.Time) bool {
	return q.Active && now.Before(q.MatchStartsAt)
}
