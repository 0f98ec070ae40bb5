package optimizer

import (
	"fmt"

	"github.com/stitts-dev/nfl-lineup-optimizer/internal/pool"
	"github.com/stitts-dev/nfl-lineup-optimizer/internal/rules"
)

// relationFunc selects the players at positions related to team. It fails
// when the relation needs an opponent the pool does not know.
type relationFunc func(p *pool.PlayerPool, team string, positions []string) ([]int, error)

var relations = map[rules.Relation]relationFunc{
	rules.SameTeam: sameTeam,
	rules.OppTeam:  oppTeam,
	rules.SameGame: sameGame,
}

func sameTeam(p *pool.PlayerPool, team string, positions []string) ([]int, error) {
	return p.TeamPlayers(team, positions...), nil
}

func oppTeam(p *pool.PlayerPool, team string, positions []string) ([]int, error) {
	opp := p.Opponent(team)
	if opp == "" {
		return nil, fmt.Errorf("no opponent known for %s", team)
	}
	return p.TeamPlayers(opp, positions...), nil
}

func sameGame(p *pool.PlayerPool, team string, positions []string) ([]int, error) {
	own := p.TeamPlayers(team, positions...)
	opp, err := oppTeam(p, team, positions)
	if err != nil {
		return nil, err
	}
	return append(own, opp...), nil
}

func related(p *pool.PlayerPool, rel rules.Relation, team string, positions []string) ([]int, error) {
	fn, ok := relations[rel]
	if !ok {
		return nil, fmt.Errorf("unsupported relation %q", rel)
	}
	return fn(p, team, positions)
}

func without(ids []int, drop ...int) []int {
	skip := make(map[int]bool, len(drop))
	for _, d := range drop {
		skip[d] = true
	}
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !skip[id] {
			out = append(out, id)
			skip[id] = true
		}
	}
	return out
}

// stackBuilder turns one stack rule into per-team constraints
type stackBuilder interface {
	build(c *compiler)
}

type pairStack struct {
	rules.PairRule
	index int
}

type limitStack struct {
	rules.LimitRule
	index int
}

// build emits sum(co-occurring) - count*anchor >= 0 for each team's anchor,
// the first player in file order at the key position.
func (r pairStack) build(c *compiler) {
	ruleIndex := r.index
	for _, team := range c.pool.Teams() {
		if r.Excludes(team) {
			continue
		}
		anchors := c.pool.TeamPlayers(team, r.Key)
		if len(anchors) == 0 {
			c.warn("stack pair %d skipped for %s: no %s anchor", ruleIndex, team, r.Key)
			continue
		}
		anchor := anchors[0]

		co, err := related(c.pool, r.Type, team, r.Positions)
		if err != nil {
			c.warn("stack pair %d skipped for %s: %v", ruleIndex, team, err)
			continue
		}
		co = without(co, anchor)

		terms := varTerms(co, 1)
		terms = append(terms, term(anchor, -float64(r.Count)))
		c.add(fmt.Sprintf("stack_pair_%d_%s", ruleIndex, team), terms, greaterEq, 0)
	}
}

// build emits sum(bounded) - sum(exempt) <= count for each team. Exempt
// players are the exemption group minus the bounded set; each rostered
// exempt player lifts the cap by one.
func (r limitStack) build(c *compiler) {
	ruleIndex := r.index
	for _, team := range c.pool.Teams() {
		if r.Excludes(team) {
			continue
		}
		bounded, err := related(c.pool, r.Type, team, r.Positions)
		if err != nil {
			c.warn("stack limit %d skipped for %s: %v", ruleIndex, team, err)
			continue
		}
		bounded = without(bounded)
		if len(bounded) == 0 {
			continue
		}
		terms := varTerms(bounded, 1)

		if r.HasExemption() {
			exempt, err := related(c.pool, r.UnlessType, team, r.UnlessPositions)
			if err != nil {
				c.warn("stack limit %d exemption skipped for %s: %v", ruleIndex, team, err)
			} else {
				terms = append(terms, varTerms(without(exempt, bounded...), -1)...)
			}
		}

		c.add(fmt.Sprintf("stack_limit_%d_%s", ruleIndex, team), terms, lessEq, float64(r.Count))
	}
}

// stackBuilders dispatches the rule set's stack rules in declaration order, pairs first
func stackBuilders(rs *rules.RuleSet) []stackBuilder {
	out := make([]stackBuilder, 0, len(rs.PairRules)+len(rs.LimitRules))
	for i, r := range rs.PairRules {
		out = append(out, pairStack{PairRule: r, index: i})
	}
	for i, r := range rs.LimitRules {
		out = append(out, limitStack{LimitRule: r, index: i})
	}
	return out
}
