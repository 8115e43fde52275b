package whist

import (
	"fmt"

	"tabletop/internal/domain"
)

// PlayableCards returns the cards seat may play into the active trick.
func (m *Match) PlayableCards(seat domain.Seat) []domain.Card {
	if m.requireStage(StageDraft, StageDuel) != nil || m.done {
		return nil
	}
	leadID, ok := m.leadID()
	if !ok {
		return m.Hand(seat)
	}
	return m.PlayableCardsFor(seat, m.arena.Card(leadID))
}

// PlayableCardsFor returns the cards of seat that may follow lead: the
// lead-suited cards when there are any, otherwise the whole hand.
func (m *Match) PlayableCardsFor(seat domain.Seat, lead domain.Card) []domain.Card {
	hand := m.Hand(seat)
	var follow []domain.Card
	for _, c := range hand {
		if c.Suit == lead.Suit {
			follow = append(follow, c)
		}
	}
	if len(follow) > 0 {
		return follow
	}
	return hand
}

func (m *Match) leadID() (domain.CardID, bool) {
	ids := m.trick.IDs()
	if len(ids) == 0 {
		return 0, false
	}
	return ids[0], true
}

// PlayCard plays card from seat's hand into the active trick. The second card
// of a trick resolves it and the result is returned; the first returns nil.
func (m *Match) PlayCard(seat domain.Seat, card domain.Card) (*TrickResult, error) {
	if err := m.requireStage(StageDraft, StageDuel); err != nil {
		return nil, err
	}
	if m.done {
		return nil, fmt.Errorf("%w: %s is over", domain.ErrIllegalState, m.stage)
	}
	if seat != m.players.TurnHolder() {
		return nil, fmt.Errorf("%w: %s does not hold the turn", domain.ErrIllegalMove, seat)
	}
	player := m.players.Get(seat)
	id, ok := m.handCard(player, card)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not in the hand of %s", domain.ErrIllegalMove, card, seat)
	}
	if !containsCard(m.PlayableCards(seat), card) {
		return nil, fmt.Errorf("%w: %s must follow suit", domain.ErrIllegalMove, seat)
	}

	player.Hand.Remove(id)
	if !m.arena.FaceUp(id) {
		m.arena.Flip(id)
	}
	m.trick.Push(id)
	if m.trick.Len() == 1 {
		m.players.SetTurnHolder(seat.Other())
		return nil, nil
	}
	return m.resolveTrick()
}

func (m *Match) handCard(p *domain.Player, card domain.Card) (domain.CardID, bool) {
	id, ok := m.arena.Lookup(card)
	if !ok || !p.Hand.Contains(id) {
		return 0, false
	}
	return id, true
}

func (m *Match) resolveTrick() (*TrickResult, error) {
	ids := m.trick.IDs()
	lead, follow := m.arena.Card(ids[0]), m.arena.Card(ids[1])
	res := &TrickResult{Stage: m.stage, Leader: m.leader, Winner: m.leader, Lead: lead, Follow: follow}
	if followerWins(lead, follow, m.trump, m.trumpSet) {
		res.Winner = m.leader.Other()
	}
	winner := m.players.Get(res.Winner)
	loser := m.players.Get(res.Winner.Other())

	switch m.stage {
	case StageDraft:
		for _, id := range m.trick.Clear() {
			m.arena.FaceDown(id)
			m.discard.Push(id)
		}
		if id, ok := m.draw.Top(); ok {
			if err := domain.TakeCard(&m.draw, id, winner); err != nil {
				return nil, err
			}
			c := m.arena.Card(id)
			res.WinnerDraw = &c
		}
		if id, ok := m.draw.Top(); ok && m.rules.LoserDraws {
			if err := domain.TakeCard(&m.draw, id, loser); err != nil {
				return nil, err
			}
			c := m.arena.Card(id)
			res.LoserDraw = &c
		}
		if id, ok := m.draw.Top(); ok && !m.arena.FaceUp(id) {
			m.arena.Flip(id)
			c := m.arena.Card(id)
			res.NextPrize = &c
		}
	case StageDuel:
		for _, id := range m.trick.Clear() {
			winner.Spoils.Push(id)
		}
	}

	m.won[res.Winner]++
	m.tricks++
	m.leader = res.Winner
	m.players.SetTurnHolder(res.Winner)
	m.last = res
	m.done = m.stageOver()
	res.StageComplete = m.done
	return res, nil
}

func (m *Match) stageOver() bool {
	if m.tricks >= m.rules.HandSize() || m.handEmpty() {
		return true
	}
	return m.stage == StageDraft && m.draw.Len() == 0
}

func (m *Match) handEmpty() bool {
	for _, p := range m.players.All() {
		if p.Hand.Len() == 0 {
			return true
		}
	}
	return false
}

// NextStage advances the stage machine: DEAL to DRAFT once the hands are
// dealt and trump is known, DRAFT to DUEL, DUEL to a scored ROUND_WON or
// MATCH_WON, and ROUND_WON to the DEAL of the next round with the dealer
// role swapped.
func (m *Match) NextStage() (Stage, error) {
	switch m.stage {
	case StageDeal:
		if !m.dealingDone() {
			return m.stage, fmt.Errorf("%w: dealing is not finished", domain.ErrIllegalState)
		}
		if !m.trumpSet {
			return m.stage, fmt.Errorf("%w: trump is not set", domain.ErrIllegalState)
		}
		if m.draw.Len() == 0 {
			m.seedDrawPile()
		}
		m.startStage(StageDraft, m.dealer.Other())
	case StageDraft:
		if !m.done {
			return m.stage, fmt.Errorf("%w: draft is still running", domain.ErrIllegalState)
		}
		m.startStage(StageDuel, m.leader)
		m.done = m.handEmpty()
	case StageDuel:
		if !m.done {
			return m.stage, fmt.Errorf("%w: duel is still running", domain.ErrIllegalState)
		}
		m.scoreRound()
	case StageRoundWon:
		m.startRound()
	default:
		return m.stage, fmt.Errorf("%w: match is over", domain.ErrIllegalState)
	}
	return m.stage, nil
}

func (m *Match) startStage(stage Stage, leader domain.Seat) {
	m.stage = stage
	m.tricks = 0
	m.won = [2]int{}
	m.done = false
	m.leader = leader
	m.players.SetTurnHolder(leader)
}

// scoreRound turns duel tricks into round scores and decides the match.
func (m *Match) scoreRound() {
	score := RoundScore{Round: m.round}
	for _, p := range m.players.All() {
		score.Tricks[p.Seat] = m.won[p.Seat]
		score.Delta[p.Seat] = m.won[p.Seat] - m.rules.Baseline()
		p.Score += score.Delta[p.Seat]
		score.Totals[p.Seat] = p.Score
	}
	m.scored = &score

	one, two := score.Totals[domain.SeatOne], score.Totals[domain.SeatTwo]
	target := m.rules.TargetScore
	switch {
	case one >= target && one > two:
		m.winner = domain.SeatOne
		m.stage = StageMatchWon
	case two >= target && two > one:
		m.winner = domain.SeatTwo
		m.stage = StageMatchWon
	default:
		m.stage = StageRoundWon
	}
	m.done = false
}

// startRound gathers every card back into the deck face down and swaps the dealer.
func (m *Match) startRound() {
	piles := []*domain.Pile{&m.draw, &m.discard, &m.trick}
	for _, p := range m.players.All() {
		piles = append(piles, &p.Hand, &p.Spoils)
	}
	for _, p := range piles {
		for _, id := range p.Clear() {
			m.arena.FaceDown(id)
			m.deck.Push(id)
		}
	}
	for _, id := range m.deck.IDs() {
		m.arena.FaceDown(id)
	}
	m.round++
	m.stage = StageDeal
	m.trumpSet = false
	m.shuffles = 0
	m.dealt = 0
	m.tricks = 0
	m.won = [2]int{}
	m.done = false
	m.last = nil
	m.setDealer(m.dealer.Other())
}

func containsCard(cards []domain.Card, c domain.Card) bool {
	for _, v := range cards {
		if v == c {
			return true
		}
	}
	return false
}
