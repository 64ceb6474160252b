// Package gamble owns the post-win double-up feature:
// inactive -> offered -> active -> inactive. Draw a card, guess its color;
// right doubles the stake, wrong zeroes it.
package gamble

import (
	"fmt"
	"time"

	"github.com/reelhouse/slotengine/internal/config"
	"github.com/reelhouse/slotengine/internal/domain"
	"github.com/reelhouse/slotengine/internal/rng"
)

// State is the controller's current phase.
type State string

const (
	StateInactive State = "inactive"
	StateOffered  State = "offered"
	StateActive   State = "active"
)

// Suit is one of the four card suits drawn each round.
type Suit string

const (
	SuitHearts   Suit = "hearts"
	SuitDiamonds Suit = "diamonds"
	SuitClubs    Suit = "clubs"
	SuitSpades   Suit = "spades"
)

var suits = [4]Suit{SuitHearts, SuitDiamonds, SuitClubs, SuitSpades}

// Color is the player's binary guess.
type Color string

const (
	ColorRed   Color = "red"
	ColorBlack Color = "black"
)

// ColorOf maps a suit to its color.
func ColorOf(s Suit) Color {
	if s == SuitHearts || s == SuitDiamonds {
		return ColorRed
	}
	return ColorBlack
}

// RoundResult reports one guess round.
type RoundResult struct {
	Card              Suit  `json:"card"`
	Color             Color `json:"color"`
	Correct           bool  `json:"correct"`
	Amount            int   `json:"amount"`
	AttemptsRemaining int   `json:"attempts_remaining"`
	// Ended is set when the feature terminated this round: a wrong guess,
	// the last attempt, or the win ceiling.
	Ended bool `json:"ended"`
}

// Offer describes a pending gamble offer with its auto-collect deadline.
type Offer struct {
	Amount    int       `json:"amount"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Controller is the double-up state machine.
type Controller struct {
	state             State
	amount            int
	attemptsRemaining int
	rounds            int
	expiresAt         time.Time

	cfg config.GambleConfig
	src rng.Source
	now func() time.Time
}

// New builds an inactive controller. now is injectable for tests.
func New(cfg config.GambleConfig, src rng.Source, now func() time.Time) *Controller {
	if src == nil {
		src = rng.CryptoSource
	}
	if now == nil {
		now = time.Now
	}
	return &Controller{state: StateInactive, cfg: cfg, src: src, now: now}
}

// Eligible reports whether a completed win may be offered: positive, within
// the configured maximum, no feature running, auto-collect off.
func (c *Controller) Eligible(win int, featureActive, autoCollect bool) bool {
	return c.state == StateInactive &&
		win > 0 &&
		win <= c.cfg.MaxEligibleWin &&
		!featureActive &&
		!autoCollect
}

// MakeOffer transitions inactive -> offered and starts the auto-collect
// countdown.
func (c *Controller) MakeOffer(win int) (*Offer, error) {
	if c.state != StateInactive {
		return nil, fmt.Errorf("%w: state %s", domain.ErrGambleState, c.state)
	}
	if win <= 0 || win > c.cfg.MaxEligibleWin {
		return nil, fmt.Errorf("%w: amount %d", domain.ErrGambleState, win)
	}
	c.state = StateOffered
	c.amount = win
	c.attemptsRemaining = c.cfg.MaxAttempts
	c.rounds = 0
	c.expiresAt = c.now().Add(time.Duration(c.cfg.AutoCollectSeconds) * time.Second)
	return &Offer{Amount: win, ExpiresAt: c.expiresAt}, nil
}

// Accept transitions offered -> active. An expired offer auto-collects
// instead.
func (c *Controller) Accept() error {
	if c.state != StateOffered {
		return fmt.Errorf("%w: state %s", domain.ErrGambleState, c.state)
	}
	if c.now().After(c.expiresAt) {
		return fmt.Errorf("%w: offer expired", domain.ErrGambleState)
	}
	c.state = StateActive
	return nil
}

// Decline collects the offered amount without playing.
func (c *Controller) Decline() (int, error) {
	if c.state != StateOffered {
		return 0, fmt.Errorf("%w: state %s", domain.ErrGambleState, c.state)
	}
	return c.finish(), nil
}

// Guess plays one round: one of four suits uniformly at random, mapped to
// red/black. Correct doubles the amount; wrong zeroes it and ends the
// feature immediately.
func (c *Controller) Guess(guess Color) (*RoundResult, error) {
	if c.state != StateActive {
		return nil, fmt.Errorf("%w: state %s", domain.ErrGambleState, c.state)
	}
	if guess != ColorRed && guess != ColorBlack {
		return nil, fmt.Errorf("%w: guess %q", domain.ErrGambleState, guess)
	}

	card := suits[c.src(len(suits))]
	color := ColorOf(card)
	c.rounds++

	result := &RoundResult{Card: card, Color: color}

	if color != guess {
		c.amount = 0
		result.Amount = 0
		result.AttemptsRemaining = 0
		result.Ended = true
		c.finish()
		return result, nil
	}

	c.amount *= 2
	c.attemptsRemaining--
	result.Correct = true
	result.Amount = c.amount
	result.AttemptsRemaining = c.attemptsRemaining

	if c.attemptsRemaining <= 0 || c.amount >= c.cfg.WinCeiling {
		// Out of attempts or at the ceiling: forced collection.
		result.Ended = true
		c.finish()
	}
	return result, nil
}

// Collect ends the feature at any point while offered or active and returns
// the current amount.
func (c *Controller) Collect() (int, error) {
	if c.state == StateInactive {
		return 0, fmt.Errorf("%w: state %s", domain.ErrGambleState, c.state)
	}
	return c.finish(), nil
}

// Expired reports whether a pending offer's countdown has lapsed.
func (c *Controller) Expired() bool {
	return c.state == StateOffered && c.now().After(c.expiresAt)
}

// State returns the current phase.
func (c *Controller) State() State { return c.state }

// Amount returns the current stake.
func (c *Controller) Amount() int { return c.amount }

// Rounds returns how many guesses were played this session.
func (c *Controller) Rounds() int { return c.rounds }

// IsActive reports whether the feature is offered or being played.
func (c *Controller) IsActive() bool { return c.state != StateInactive }

func (c *Controller) finish() int {
	amount := c.amount
	c.state = StateInactive
	c.amount = 0
	c.attemptsRemaining = 0
	c.expiresAt = time.Time{}
	return amount
}

// SaveData snapshots the feature for persistence.
func (c *Controller) SaveData() *domain.GambleSave {
	return &domain.GambleSave{
		State:             string(c.state),
		Amount:            c.amount,
		AttemptsRemaining: c.attemptsRemaining,
	}
}

// Init restores a persisted snapshot. A restored session never resumes
// mid-gamble; pending amounts are collected by the caller.
func (c *Controller) Init(save *domain.GambleSave) {
	if save == nil {
		return
	}
	c.state = State(save.State)
	c.amount = save.Amount
	c.attemptsRemaining = save.AttemptsRemaining
	if c.state != StateInactive && c.state != StateOffered && c.state != StateActive {
		c.state = StateInactive
	}
}
