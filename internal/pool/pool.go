// Package pool holds the immutable player registry used by the optimizer.
package pool

import (
	"fmt"

	"github.com/stitts-dev/nfl-lineup-optimizer/internal/models"
)

// PlayerPool is the registry of players available to the optimizer. It is
// read-only once built; players are addressed by their load-order index.
type PlayerPool struct {
	players   []models.Player
	index     map[models.PlayerKey]int
	byTeam    map[string]map[string][]int
	byName    map[string][]int
	byMatchup map[string][]int
	teams     []string
	matchups  []string
}

// New builds a pool from players in file order. Duplicate identity keys are rejected.
func New(players []models.Player) (*PlayerPool, error) {
	p := &PlayerPool{
		players:   make([]models.Player, 0, len(players)),
		index:     make(map[models.PlayerKey]int, len(players)),
		byTeam:    make(map[string]map[string][]int),
		byName:    make(map[string][]int),
		byMatchup: make(map[string][]int),
	}

	for _, player := range players {
		key := player.Key()
		if _, exists := p.index[key]; exists {
			return nil, fmt.Errorf("duplicate player %s", key)
		}
		if player.Salary <= 0 {
			return nil, fmt.Errorf("player %s has non-positive salary %d", key, player.Salary)
		}
		if player.ProjectedPoints < 0 {
			return nil, fmt.Errorf("player %s has negative projection %.2f", key, player.ProjectedPoints)
		}

		i := len(p.players)
		p.players = append(p.players, player)
		p.index[key] = i

		positions, ok := p.byTeam[player.Team]
		if !ok {
			positions = make(map[string][]int)
			p.byTeam[player.Team] = positions
			p.teams = append(p.teams, player.Team)
		}
		positions[player.Position] = append(positions[player.Position], i)

		p.byName[player.Name] = append(p.byName[player.Name], i)

		if player.Matchup != "" {
			if _, ok := p.byMatchup[player.Matchup]; !ok {
				p.matchups = append(p.matchups, player.Matchup)
			}
			p.byMatchup[player.Matchup] = append(p.byMatchup[player.Matchup], i)
		}
	}

	return p, nil
}

func (p *PlayerPool) Len() int {
	return len(p.players)
}

// Player returns the player at load index i
func (p *PlayerPool) Player(i int) models.Player {
	return p.players[i]
}

// Players returns a copy of every player in load order
func (p *PlayerPool) Players() []models.Player {
	out := make([]models.Player, len(p.players))
	copy(out, p.players)
	return out
}

func (p *PlayerPool) Lookup(key models.PlayerKey) (int, bool) {
	i, ok := p.index[key]
	return i, ok
}

// Teams returns the distinct teams in first-seen order
func (p *PlayerPool) Teams() []string {
	out := make([]string, len(p.teams))
	copy(out, p.teams)
	return out
}

func (p *PlayerPool) HasTeam(team string) bool {
	_, ok := p.byTeam[team]
	return ok
}

// Matchups returns the distinct matchup ids in first-seen order
func (p *PlayerPool) Matchups() []string {
	out := make([]string, len(p.matchups))
	copy(out, p.matchups)
	return out
}

// TeamPlayers returns the indices of a team's players, all positions when
// none are given. Positions are visited in argument order, players in file order.
func (p *PlayerPool) TeamPlayers(team string, positions ...string) []int {
	byPos, ok := p.byTeam[team]
	if !ok {
		return nil
	}
	if len(positions) == 0 {
		var out []int
		for i, player := range p.players {
			if player.Team == team {
				out = append(out, i)
			}
		}
		return out
	}

	var out []int
	seen := make(map[string]bool, len(positions))
	for _, pos := range positions {
		if seen[pos] {
			continue
		}
		seen[pos] = true
		out = append(out, byPos[pos]...)
	}
	return out
}

// TeamCount is the number of pool players on a team
func (p *PlayerPool) TeamCount(team string) int {
	total := 0
	for _, ids := range p.byTeam[team] {
		total += len(ids)
	}
	return total
}

// Opponent returns the team's opponent as reported by the first of its
// players that carries one.
func (p *PlayerPool) Opponent(team string) string {
	for _, i := range p.TeamPlayers(team) {
		if opp := p.players[i].Opponent; opp != "" {
			return opp
		}
	}
	return ""
}

// TeamMatchup returns the matchup id of the team's game
func (p *PlayerPool) TeamMatchup(team string) string {
	for _, i := range p.TeamPlayers(team) {
		if m := p.players[i].Matchup; m != "" {
			return m
		}
	}
	return ""
}

// ByName returns every player whose normalized name matches
func (p *PlayerPool) ByName(name string) []int {
	return append([]int(nil), p.byName[models.NormalizeName(name)]...)
}

func (p *PlayerPool) MatchupPlayers(matchup string) []int {
	return append([]int(nil), p.byMatchup[matchup]...)
}

// Filter returns a new pool with the players that satisfy keep, order preserved
func (p *PlayerPool) Filter(keep func(models.Player) bool) *PlayerPool {
	kept := make([]models.Player, 0, len(p.players))
	for _, player := range p.players {
		if keep(player) {
			kept = append(kept, player)
		}
	}
	out, _ := New(kept)
	return out
}
