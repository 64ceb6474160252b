package domain

// Event type names published on the in-process bus and forwarded over SSE.
const (
	EventSpinCompleted    = "spin.completed"
	EventFeatureTriggered = "feature.triggered"
	EventFeatureEnded     = "feature.ended"
	EventLevelUp          = "level.up"
	EventAchievement      = "achievement.unlocked"
	EventGambleFinished   = "gamble.finished"
)

// SpinCompletedPayload is the event payload for spin.completed events.
type SpinCompletedPayload struct {
	SpinID       string  `json:"spin_id"`
	Bet          int     `json:"bet"`
	TotalWin     int     `json:"total_win"`
	Tier         WinTier `json:"tier"`
	FreeSpin     bool    `json:"free_spin"`
	CascadeSteps int     `json:"cascade_steps"`
	Credits      int     `json:"credits"`
}

// FeatureTriggeredPayload is the event payload for feature.triggered and
// feature.ended events.
type FeatureTriggeredPayload struct {
	Feature string `json:"feature"`
	Detail  int    `json:"detail,omitempty"`
	Win     int    `json:"win,omitempty"`
}

// LevelUpPayload is the event payload for level.up events.
type LevelUpPayload struct {
	Level int `json:"level"`
	XP    int `json:"xp"`
}

// AchievementPayload is the event payload for achievement.unlocked events.
type AchievementPayload struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// GambleFinishedPayload is the event payload for gamble.finished events.
type GambleFinishedPayload struct {
	Won    bool `json:"won"`
	Amount int  `json:"amount"`
	Rounds int  `json:"rounds"`
}
