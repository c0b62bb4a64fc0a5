package services

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"roundsettle/domain/entities"
	"roundsettle/domain/interfaces"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// maxCombinationSize is the largest number of simultaneously winning labels in multi-select games
const maxCombinationSize = 3

type outcomeResolver struct {
	games entities.GameTable

	mu  sync.Mutex
	rng *rand.Rand
}

// NewOutcomeResolver creates a resolver over the game table.
// A nil rng is replaced by a time-seeded source.
func NewOutcomeResolver(games entities.GameTable, rng *rand.Rand) interfaces.OutcomeResolver {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &outcomeResolver{
		games: games,
		rng:   rng,
	}
}

// Resolve picks the winning outcome(s) for a round's bets
func (r *outcomeResolver) Resolve(gameType entities.GameType, bets []*entities.Bet) (*entities.Resolution, error) {
	cfg, err := r.games.Get(gameType)
	if err != nil {
		return nil, err
	}

	multipliers := make(map[string]decimal.Decimal, len(cfg.Outcomes))
	summary := make(map[string]*entities.OutcomeSummary, len(cfg.Outcomes))
	for _, o := range cfg.Outcomes {
		multipliers[o.Label] = o.Multiplier
		summary[o.Label] = &entities.OutcomeSummary{Label: o.Label}
	}

	var totalStake int64
	for _, bet := range bets {
		if bet.GameType != "" && bet.GameType != gameType {
			return nil, fmt.Errorf("%w: bet %d is for game %s, not %s", entities.ErrMalformedBet, bet.ID, bet.GameType, gameType)
		}
		if bet.Amount <= 0 {
			return nil, fmt.Errorf("%w: bet %d has non-positive stake %d", entities.ErrMalformedBet, bet.ID, bet.Amount)
		}
		s, ok := summary[bet.Outcome]
		if !ok {
			return nil, fmt.Errorf("%w: %q is not configured for game %s (bet %d)", entities.ErrUnknownOutcome, bet.Outcome, gameType, bet.ID)
		}
		s.BetCount++
		s.StakeSum += bet.Amount
		totalStake += bet.Amount
	}

	for label, s := range summary {
		s.PotentialPayout = entities.PayoutAmount(s.StakeSum, multipliers[label])
	}

	// Payouts are whole points, so comparing against the floored target is exact
	target := decimal.NewFromInt(totalStake).Mul(cfg.HouseEdgeTarget).Floor().IntPart()

	var winners []string
	switch cfg.Mode {
	case entities.GameModeMulti:
		winners = r.pickCombination(cfg, summary, target)
	default:
		winners = r.pickSingle(cfg, summary, target, len(bets) == 0)
	}

	resolution := entities.NewResolution(gameType, winners, multipliers)
	resolution.Summary = summary
	resolution.TotalStake = totalStake
	resolution.Target = target
	for _, w := range winners {
		resolution.TotalPayout += summary[w].PotentialPayout
	}

	log.WithFields(log.Fields{
		"game_type":    gameType,
		"bets":         len(bets),
		"total_stake":  totalStake,
		"target":       target,
		"outcome":      resolution.WinningOutcome(),
		"total_payout": resolution.TotalPayout,
	}).Debug("Resolved round outcome")

	return resolution, nil
}

// pickSingle chooses at random among outcomes whose payout fits the target,
// or among all outcomes when none fit or nobody bet.
func (r *outcomeResolver) pickSingle(cfg *entities.GameConfig, summary map[string]*entities.OutcomeSummary, target int64, noBets bool) []string {
	labels := cfg.Labels()
	if noBets {
		return []string{r.choose(labels)}
	}

	var qualifying []string
	for _, label := range labels {
		if summary[label].PotentialPayout <= target {
			qualifying = append(qualifying, label)
		}
	}

	if len(qualifying) == 0 {
		log.WithFields(log.Fields{
			"game_type": cfg.GameType,
			"target":    target,
		}).Warn("No outcome within house edge target, choosing among all outcomes")
		return []string{r.choose(labels)}
	}

	return []string{r.choose(qualifying)}
}

// pickCombination finds the 1..3 label combination whose summed payout is
// closest to the target without exceeding it. Ties prefer fewer labels.
func (r *outcomeResolver) pickCombination(cfg *entities.GameConfig, summary map[string]*entities.OutcomeSummary, target int64) []string {
	labels := cfg.Labels()

	best := int64(-1)
	bestSize := 0
	var candidates [][]string

	for size := 1; size <= maxCombinationSize && size <= len(labels); size++ {
		forEachCombination(len(labels), size, func(idx []int) {
			var sum int64
			for _, i := range idx {
				sum += summary[labels[i]].PotentialPayout
			}
			if sum > target {
				return
			}
			if sum > best {
				best = sum
				bestSize = size
				candidates = [][]string{pickLabels(labels, idx)}
				return
			}
			if sum == best && size == bestSize {
				candidates = append(candidates, pickLabels(labels, idx))
			}
		})
	}

	if len(candidates) > 0 {
		r.mu.Lock()
		defer r.mu.Unlock()
		return candidates[r.rng.Intn(len(candidates))]
	}

	// Nothing fits: fall back to the cheapest single outcome
	lowest := summary[labels[0]].PotentialPayout
	for _, label := range labels[1:] {
		if p := summary[label].PotentialPayout; p < lowest {
			lowest = p
		}
	}
	var cheapest []string
	for _, label := range labels {
		if summary[label].PotentialPayout == lowest {
			cheapest = append(cheapest, label)
		}
	}

	log.WithFields(log.Fields{
		"game_type": cfg.GameType,
		"target":    target,
		"payout":    lowest,
	}).Warn("No combination within house edge target, using lowest payout outcome")

	return []string{r.choose(cheapest)}
}

func (r *outcomeResolver) choose(labels []string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return labels[r.rng.Intn(len(labels))]
}

// forEachCombination calls fn with every k-subset of [0, n) in lexicographic order
func forEachCombination(n, k int, fn func(idx []int)) {
	idx := make([]int, k)
	var rec func(start, depth int)
	rec = func(start, depth int) {
		if depth == k {
			fn(idx)
			return
		}
		for i := start; i <= n-(k-depth); i++ {
			idx[depth] = i
			rec(i+1, depth+1)
		}
	}
	rec(0, 0)
}

func pickLabels(labels []string, idx []int) []string {
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = labels[j]
	}
	return out
}
