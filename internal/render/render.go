// Package render defines the capability surfaces the game core needs from a
// presentation layer: messages/overlays, sound and labeled timers. The core
// treats all three as optional; the Nop implementations keep the pipeline
// safe when no front end is attached.
package render

import (
	"context"

	"github.com/reelhouse/slotengine/internal/domain"
)

// OverlayHandle lets the caller dismiss a feature overlay.
type OverlayHandle interface {
	Close()
}

// Renderer is the display capability the spin pipeline talks to. The core
// decides what to show; the renderer owns how long showing takes.
type Renderer interface {
	// ShowMessage displays text (optionally with a credit amount) and
	// returns when the display duration has elapsed.
	ShowMessage(ctx context.Context, text string, amount int) error
	// HighlightPositions marks winning cells.
	HighlightPositions(positions []domain.Position)
	// ShowFeatureOverlay opens a feature screen (free spins, bonus pick).
	ShowFeatureOverlay(feature string, data any) (OverlayHandle, error)
}

// Sound is the fire-and-forget audio capability.
type Sound interface {
	PlaySpin()
	PlayReelStop()
	PlayWin(tier domain.WinTier)
	PlayScatter()
	PlayCascade()
	PlayGambleCard()
}

// NopRenderer discards everything.
type NopRenderer struct{}

func (NopRenderer) ShowMessage(context.Context, string, int) error { return nil }
func (NopRenderer) HighlightPositions([]domain.Position)           {}
func (NopRenderer) ShowFeatureOverlay(string, any) (OverlayHandle, error) {
	return nopOverlay{}, nil
}

type nopOverlay struct{}

func (nopOverlay) Close() {}

// NopSound discards everything.
type NopSound struct{}

func (NopSound) PlaySpin()                {}
func (NopSound) PlayReelStop()            {}
func (NopSound) PlayWin(domain.WinTier)   {}
func (NopSound) PlayScatter()             {}
func (NopSound) PlayCascade()             {}
func (NopSound) PlayGambleCard()          {}

// OrNopRenderer returns r, or a NopRenderer when r is nil.
func OrNopRenderer(r Renderer) Renderer {
	if r == nil {
		return NopRenderer{}
	}
	return r
}

// OrNopSound returns s, or a NopSound when s is nil.
func OrNopSound(s Sound) Sound {
	if s == nil {
		return NopSound{}
	}
	return s
}
