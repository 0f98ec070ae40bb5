package optimizer

import (
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/nfl-lineup-optimizer/internal/models"
	"github.com/stitts-dev/nfl-lineup-optimizer/internal/pool"
	"github.com/stitts-dev/nfl-lineup-optimizer/internal/rules"
	"github.com/stitts-dev/nfl-lineup-optimizer/internal/solver"
)

const (
	lessEq    = solver.LessEq
	greaterEq = solver.GreaterEq
	equal     = solver.Equal
)

// Compiled is a ready-to-solve model plus what the generator needs to read its solutions
type Compiled struct {
	Model       *solver.Model
	Pool        *pool.PlayerPool
	Site        models.Site
	Constraints *LineupConstraints
	Warnings    []string
}

type compiler struct {
	pool     *pool.PlayerPool
	model    *solver.Model
	log      *logrus.Entry
	warnings []string
}

func term(v int, coef float64) solver.Term {
	return solver.Term{Var: v, Coef: coef}
}

func varTerms(ids []int, coef float64) []solver.Term {
	terms := make([]solver.Term, len(ids))
	for i, id := range ids {
		terms[i] = term(id, coef)
	}
	return terms
}

func (c *compiler) add(label string, terms []solver.Term, sense solver.Sense, rhs float64) {
	c.model.AddConstraint(solver.Constraint{Label: label, Terms: terms, Sense: sense, RHS: rhs})
}

func (c *compiler) warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	c.warnings = append(c.warnings, msg)
	c.log.Warn(msg)
}

// Compile builds the binary model for a pool, rule set and site. Variable i
// is the pool player at index i. The objective starts at the projections.
// Rules naming players, teams or matchups missing from the pool are skipped
// with a warning.
func Compile(p *pool.PlayerPool, rs *rules.RuleSet, site models.Site, log *logrus.Entry) (*Compiled, error) {
	if p.Len() == 0 {
		return nil, fmt.Errorf("player pool is empty")
	}

	c := &compiler{
		pool:  p,
		model: solver.NewModel(p.Len()),
		log:   log.WithField("component", "compiler"),
	}

	weights := make([]float64, p.Len())
	all := make([]int, p.Len())
	salary := make([]solver.Term, p.Len())
	for i := 0; i < p.Len(); i++ {
		player := p.Player(i)
		weights[i] = player.ProjectedPoints
		all[i] = i
		salary[i] = term(i, float64(player.Salary))
	}
	if err := c.model.SetObjective(weights); err != nil {
		return nil, err
	}

	c.add("salary_max", salary, lessEq, float64(site.SalaryCap))
	c.add("salary_min", salary, greaterEq, float64(site.SalaryFloor))

	lc := GetConstraintsForSite(site, rs.UseDoubleTE)
	c.composition(lc, all)

	c.groupBounds("at_least", rs.AtLeast, greaterEq)
	c.groupBounds("at_most", rs.AtMost, lessEq)

	for _, limit := range rs.TeamLimits {
		if !p.HasTeam(limit.Key) {
			c.warn("team_limits: team %s not in pool", limit.Key)
			continue
		}
		c.add("team_limit_"+limit.Key, varTerms(p.TeamPlayers(limit.Key), 1), lessEq, float64(limit.Count))
	}
	if rs.GlobalTeamLimit > 0 {
		for _, team := range p.Teams() {
			c.add("global_team_limit_"+team, varTerms(p.TeamPlayers(team), 1), lessEq, float64(rs.GlobalTeamLimit))
		}
	}

	c.matchupBounds("matchup_limit", rs.MatchupLimits, lessEq)
	c.matchupBounds("matchup_at_least", rs.MatchupAtLeast, greaterEq)

	for _, b := range stackBuilders(rs) {
		b.build(c)
	}

	c.log.WithFields(logrus.Fields{
		"variables":   c.model.NumVars(),
		"constraints": len(c.model.Constraints),
		"warnings":    len(c.warnings),
	}).Debug("Model compiled")

	return &Compiled{
		Model:       c.model,
		Pool:        p,
		Site:        site,
		Constraints: lc,
		Warnings:    c.warnings,
	}, nil
}

func (c *compiler) composition(lc *LineupConstraints, all []int) {
	for _, pc := range lc.PositionConstraints {
		var ids []int
		for i := 0; i < c.pool.Len(); i++ {
			if c.pool.Player(i).Position == pc.Position {
				ids = append(ids, i)
			}
		}
		terms := varTerms(ids, 1)
		if pc.Exact() {
			c.add("position_"+pc.Position, terms, equal, float64(pc.MinRequired))
			continue
		}
		c.add("position_"+pc.Position+"_min", terms, greaterEq, float64(pc.MinRequired))
		c.add("position_"+pc.Position+"_max", terms, lessEq, float64(pc.MaxAllowed))
	}
	c.add("roster_size", varTerms(all, 1), equal, float64(lc.RosterSize))
}

func (c *compiler) groupBounds(field string, bounds []rules.GroupBound, sense solver.Sense) {
	for i, bound := range bounds {
		var ids []int
		for _, name := range bound.Names {
			matched := c.pool.ByName(name)
			if len(matched) == 0 {
				c.warn("%s: player %q not in pool", field, name)
			}
			ids = append(ids, matched...)
		}
		ids = without(ids)
		if len(ids) == 0 {
			c.warn("%s group %d matched no players, skipped", field, i)
			continue
		}
		c.add(field+"_"+strconv.Itoa(bound.Count)+"_"+strconv.Itoa(i), varTerms(ids, 1), sense, float64(bound.Count))
	}
}

func (c *compiler) matchupBounds(field string, bounds []rules.EntityBound, sense solver.Sense) {
	for _, bound := range bounds {
		ids := c.pool.MatchupPlayers(bound.Key)
		if len(ids) == 0 {
			c.warn("%s: matchup %s not in pool", field, bound.Key)
			continue
		}
		c.add(field+"_"+bound.Key, varTerms(ids, 1), sense, float64(bound.Count))
	}
}
