package render

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/reelhouse/slotengine/internal/domain"
)

// Messages formats user-facing text with grouped digits (1,234 credits).
type Messages struct {
	printer *message.Printer
}

// NewMessages builds a formatter for English digit grouping.
func NewMessages() *Messages {
	return &Messages{printer: message.NewPrinter(language.English)}
}

// Win formats the result line for a completed spin.
func (m *Messages) Win(tier domain.WinTier, amount int) string {
	switch tier {
	case domain.TierMega:
		return m.printer.Sprintf("🌟 MEGA JACKPOT! 🌟 You won %d credits!", amount)
	case domain.TierJackpot:
		return m.printer.Sprintf("💎 JACKPOT! 💎 You won %d credits!", amount)
	case domain.TierBig:
		return m.printer.Sprintf("🎉 BIG WIN! You won %d credits!", amount)
	case domain.TierNormal:
		return m.printer.Sprintf("You won %d credits!", amount)
	default:
		return "Better luck next time!"
	}
}

// FreeSpinsTriggered announces the free-spins feature.
func (m *Messages) FreeSpinsTriggered(spins int, multiplier float64) string {
	return m.printer.Sprintf("FREE SPINS! %d spins at %gx", spins, multiplier)
}

// FreeSpinsEnded announces the feature total.
func (m *Messages) FreeSpinsEnded(total int) string {
	return m.printer.Sprintf("Free spins over - total win %d credits", total)
}

// BonusTriggered announces the bonus pick game.
func (m *Messages) BonusTriggered(picks int) string {
	return fmt.Sprintf("BONUS GAME! Pick %d prizes", picks)
}

// BonusEnded announces the bonus total.
func (m *Messages) BonusEnded(total int) string {
	return m.printer.Sprintf("Bonus game over - you won %d credits", total)
}

// GambleOffer invites a double-up on the given win.
func (m *Messages) GambleOffer(amount int) string {
	return m.printer.Sprintf("Gamble %d credits? Double or nothing!", amount)
}

// BetRefunded is shown after a failed spin rolled back.
func (m *Messages) BetRefunded() string {
	return "Something went wrong - your bet was refunded"
}

// CreditsRefilled is shown when a broke balance resets to the initial stake.
func (m *Messages) CreditsRefilled(amount int) string {
	return m.printer.Sprintf("Out of credits - here's %d on the house", amount)
}
