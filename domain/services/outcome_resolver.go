package services

import (
	"fmt"
	"strconv"
	"strings"

	"bookmaker/domain/entities"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// ResolverFunc decides the outcome of one market selection given the final
// match result. Returning an error (missing data, malformed selection) keeps
// the wager unsettled; it never defaults to lost.
type ResolverFunc func(selection string, line *decimal.Decimal, result *entities.MatchResult) (entities.WagerOutcome, error)

// OutcomeResolver maps market types to their resolution rules. New market
// types register a rule without touching existing ones; a market with no
// rule resolves to ErrUnresolvedMarket so settlement pauses instead of
// guessing.
type OutcomeResolver struct {
	rules map[entities.MarketType]ResolverFunc
}

// NewOutcomeResolver creates a resolver with every built-in market rule
// registered.
func NewOutcomeResolver() *OutcomeResolver {
	r := &OutcomeResolver{rules: make(map[entities.MarketType]ResolverFunc)}

	r.Register(entities.MarketMatchWinner, resolveMatchWinner)
	r.Register(entities.MarketFirstHalfWinner, resolveFirstHalfWinner)
	r.Register(entities.MarketSecondHalfWinner, resolveSecondHalfWinner)
	r.Register(entities.MarketOverUnder, resolveOverUnder(fullTimeScore))
	r.Register(entities.MarketFirstHalfOverUnder, resolveOverUnder(firstHalfScore))
	r.Register(entities.MarketSecondHalfOverUnder, resolveOverUnder(secondHalfScore))
	r.Register(entities.MarketBothTeamsScore, resolveBothTeamsScore)
	r.Register(entities.MarketExactScore, resolveExactScore)
	r.Register(entities.MarketDoubleChance, resolveDoubleChance)
	r.Register(entities.MarketOddEven, resolveOddEven(fullTimeScore))
	r.Register(entities.MarketFirstHalfOddEven, resolveOddEven(firstHalfScore))
	r.Register(entities.MarketTeamScoresFirst, resolveTeamScores(firstScorer))
	r.Register(entities.MarketTeamScoresLast, resolveTeamScores(lastScorer))
	r.Register(entities.MarketCleanSheetHome, resolveCleanSheet(entities.TeamHome))
	r.Register(entities.MarketCleanSheetAway, resolveCleanSheet(entities.TeamAway))

	return r
}

// Register adds or replaces the rule for a market type.
func (r *OutcomeResolver) Register(market entities.MarketType, fn ResolverFunc) {
	r.rules[market] = fn
}

// Resolve determines the outcome for one market selection. The resolver is
// idempotent: it recomputes from the result every time and applies no money
// effects itself.
func (r *OutcomeResolver) Resolve(market entities.MarketType, selection string, line *decimal.Decimal, result *entities.MatchResult) (entities.WagerOutcome, error) {
	rule, ok := r.rules[market]
	if !ok {
		log.WithFields(log.Fields{
			"market":  market,
			"matchID": result.MatchID,
		}).Error("No resolution rule registered for market type")
		return "", fmt.Errorf("%w: %s", entities.ErrUnresolvedMarket, market)
	}
	return rule(NormalizeSelection(selection), line, result)
}

// selectionSynonyms maps localized and shorthand selection spellings to their
// canonical form. Matching is case-insensitive.
var selectionSynonyms = map[string]string{
	"si":        "yes",
	"sí":        "yes",
	"y":         "yes",
	"empate":    "draw",
	"tie":       "draw",
	"x":         "draw",
	"local":     "home",
	"casa":      "home",
	"1":         "home",
	"visitante": "away",
	"visita":    "away",
	"2":         "away",
	"impar":     "odd",
	"par":       "even",
	"mas":       "over",
	"más":       "over",
	"alta":      "over",
	"menos":     "under",
	"baja":      "under",
	"x1":        "1x",
	"2x":        "x2",
	"21":        "12",
	"ninguno":   "none",
	"sin gol":   "none",
}

// NormalizeSelection lowercases, trims and maps localized synonyms onto the
// canonical selection vocabulary.
func NormalizeSelection(selection string) string {
	s := strings.ToLower(strings.TrimSpace(selection))
	if canonical, ok := selectionSynonyms[s]; ok {
		return canonical
	}
	return s
}

// Sub-score extractors shared by the winner, over/under and odd/even rules.

func fullTimeScore(result *entities.MatchResult) (*entities.Score, error) {
	score := result.FullTime
	return &score, nil
}

func firstHalfScore(result *entities.MatchResult) (*entities.Score, error) {
	if result.HalfTime == nil {
		return nil, fmt.Errorf("%w: match %d has no half-time score", entities.ErrValidation, result.MatchID)
	}
	return result.HalfTime, nil
}

func secondHalfScore(result *entities.MatchResult) (*entities.Score, error) {
	half := result.SecondHalf()
	if half == nil {
		return nil, fmt.Errorf("%w: match %d has no half-time score", entities.ErrValidation, result.MatchID)
	}
	return half, nil
}

func resolveMatchWinner(selection string, _ *decimal.Decimal, result *entities.MatchResult) (entities.WagerOutcome, error) {
	return winnerOutcome(selection, result.FullTime)
}

func resolveFirstHalfWinner(selection string, _ *decimal.Decimal, result *entities.MatchResult) (entities.WagerOutcome, error) {
	score, err := firstHalfScore(result)
	if err != nil {
		return "", err
	}
	return winnerOutcome(selection, *score)
}

func resolveSecondHalfWinner(selection string, _ *decimal.Decimal, result *entities.MatchResult) (entities.WagerOutcome, error) {
	score, err := secondHalfScore(result)
	if err != nil {
		return "", err
	}
	return winnerOutcome(selection, *score)
}

func winnerOutcome(selection string, score entities.Score) (entities.WagerOutcome, error) {
	var winner string
	switch {
	case score.Home > score.Away:
		winner = "home"
	case score.Away > score.Home:
		winner = "away"
	default:
		winner = "draw"
	}

	switch selection {
	case "home", "draw", "away":
		if selection == winner {
			return entities.OutcomeWon, nil
		}
		return entities.OutcomeLost, nil
	default:
		return "", fmt.Errorf("%w: unknown winner selection %q", entities.ErrValidation, selection)
	}
}

// resolveOverUnder builds the over/under rule for a sub-score. A total that
// lands exactly on the line is a push for both sides: no winner is recorded.
func resolveOverUnder(subScore func(*entities.MatchResult) (*entities.Score, error)) ResolverFunc {
	return func(selection string, line *decimal.Decimal, result *entities.MatchResult) (entities.WagerOutcome, error) {
		if line == nil {
			return "", fmt.Errorf("%w: over/under wager has no line", entities.ErrValidation)
		}
		if selection != "over" && selection != "under" {
			return "", fmt.Errorf("%w: unknown over/under selection %q", entities.ErrValidation, selection)
		}

		score, err := subScore(result)
		if err != nil {
			return "", err
		}

		total := decimal.NewFromInt(int64(score.Total()))
		switch total.Cmp(*line) {
		case 0:
			return entities.OutcomePush, nil
		case 1:
			if selection == "over" {
				return entities.OutcomeWon, nil
			}
			return entities.OutcomeLost, nil
		default:
			if selection == "under" {
				return entities.OutcomeWon, nil
			}
			return entities.OutcomeLost, nil
		}
	}
}

func resolveBothTeamsScore(selection string, _ *decimal.Decimal, result *entities.MatchResult) (entities.WagerOutcome, error) {
	bothScored := result.FullTime.Home > 0 && result.FullTime.Away > 0
	switch selection {
	case "yes":
		return wonIf(bothScored), nil
	case "no":
		return wonIf(!bothScored), nil
	default:
		return "", fmt.Errorf("%w: unknown both-teams-score selection %q", entities.ErrValidation, selection)
	}
}

func resolveExactScore(selection string, _ *decimal.Decimal, result *entities.MatchResult) (entities.WagerOutcome, error) {
	parts := strings.SplitN(selection, "-", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("%w: exact score selection %q is not in H-A form", entities.ErrValidation, selection)
	}
	home, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || home < 0 {
		return "", fmt.Errorf("%w: exact score selection %q is not in H-A form", entities.ErrValidation, selection)
	}
	away, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || away < 0 {
		return "", fmt.Errorf("%w: exact score selection %q is not in H-A form", entities.ErrValidation, selection)
	}
	return wonIf(result.FullTime.Home == home && result.FullTime.Away == away), nil
}

func resolveDoubleChance(selection string, _ *decimal.Decimal, result *entities.MatchResult) (entities.WagerOutcome, error) {
	winner := result.Winner()
	switch selection {
	case "1x":
		return wonIf(winner == nil || *winner == entities.TeamHome), nil
	case "12":
		return wonIf(winner != nil), nil
	case "x2":
		return wonIf(winner == nil || *winner == entities.TeamAway), nil
	default:
		return "", fmt.Errorf("%w: unknown double chance selection %q", entities.ErrValidation, selection)
	}
}

func resolveOddEven(subScore func(*entities.MatchResult) (*entities.Score, error)) ResolverFunc {
	return func(selection string, _ *decimal.Decimal, result *entities.MatchResult) (entities.WagerOutcome, error) {
		score, err := subScore(result)
		if err != nil {
			return "", err
		}
		isOdd := score.Total()%2 == 1
		switch selection {
		case "odd":
			return wonIf(isOdd), nil
		case "even":
			return wonIf(!isOdd), nil
		default:
			return "", fmt.Errorf("%w: unknown odd/even selection %q", entities.ErrValidation, selection)
		}
	}
}

func firstScorer(result *entities.MatchResult) *entities.TeamSide { return result.FirstScorer }
func lastScorer(result *entities.MatchResult) *entities.TeamSide  { return result.LastScorer }

// resolveTeamScores builds the team-to-score-first/last rule. With no goals
// in the match only the "none" selection wins; otherwise the scorer tag from
// the feed is required and its absence pauses settlement.
func resolveTeamScores(scorer func(*entities.MatchResult) *entities.TeamSide) ResolverFunc {
	return func(selection string, _ *decimal.Decimal, result *entities.MatchResult) (entities.WagerOutcome, error) {
		switch selection {
		case "home", "away", "none":
		default:
			return "", fmt.Errorf("%w: unknown scorer selection %q", entities.ErrValidation, selection)
		}

		if result.FullTime.Total() == 0 {
			return wonIf(selection == "none"), nil
		}

		tagged := scorer(result)
		if tagged == nil {
			return "", fmt.Errorf("%w: match %d result carries no scorer tag", entities.ErrValidation, result.MatchID)
		}
		return wonIf(selection == string(*tagged)), nil
	}
}

func resolveCleanSheet(side entities.TeamSide) ResolverFunc {
	return func(selection string, _ *decimal.Decimal, result *entities.MatchResult) (entities.WagerOutcome, error) {
		conceded := result.FullTime.Away
		if side == entities.TeamAway {
			conceded = result.FullTime.Home
		}
		clean := conceded == 0

		switch selection {
		case "yes":
			return wonIf(clean), nil
		case "no":
			return wonIf(!clean), nil
		default:
			return "", fmt.Errorf("%w: unknown clean sheet selection %q", entities.ErrValidation, selection)
		}
	}
}

func wonIf(won bool) entities.WagerOutcome {
	if won {
		return entities.OutcomeWon
	}
	return entities.OutcomeLost
}
