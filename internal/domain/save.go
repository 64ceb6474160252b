package domain

// SaveSchemaVersion is the current version of the persisted save record.
// Older records are migrated forward on load.
const SaveSchemaVersion = 3

// FreeSpinsSave is the persisted snapshot of the free-spins feature.
type FreeSpinsSave struct {
	Active         bool    `json:"active"`
	RemainingSpins int     `json:"remaining_spins"`
	TotalSpins     int     `json:"total_spins"`
	AccumulatedWin int     `json:"accumulated_win"`
	Multiplier     float64 `json:"multiplier"`
	RetriggerCount int     `json:"retrigger_count"`
}

// BonusGameSave is the persisted snapshot of the bonus pick game.
type BonusGameSave struct {
	Active         bool    `json:"active"`
	TotalPicks     int     `json:"total_picks"`
	RemainingPicks int     `json:"remaining_picks"`
	AccumulatedWin int     `json:"accumulated_win"`
	Multiplier     float64 `json:"multiplier"`
	Prizes         []Prize `json:"prizes,omitempty"`
	Consumed       []bool  `json:"consumed,omitempty"`
}

// PrizeKind enumerates bonus pick prize categories.
type PrizeKind string

const (
	PrizeCredits    PrizeKind = "credits"
	PrizeMultiplier PrizeKind = "multiplier"
	PrizeExtraPick  PrizeKind = "extra_pick"
)

// Prize is a single entry in the bonus pick pool.
type Prize struct {
	Kind  PrizeKind `json:"kind"`
	Value float64   `json:"value"`
}

// GambleSave is the persisted snapshot of the gamble feature.
type GambleSave struct {
	State             string `json:"state"`
	Amount            int    `json:"amount"`
	AttemptsRemaining int    `json:"attempts_remaining"`
}

// AutoplaySave holds autoplay settings. The loop itself is client-driven.
type AutoplaySave struct {
	Enabled        bool `json:"enabled"`
	SpinsRemaining int  `json:"spins_remaining"`
	StopOnFeature  bool `json:"stop_on_feature"`
	StopOnBigWin   bool `json:"stop_on_big_win"`
}

// FeaturesSave groups feature snapshots and feature flags.
type FeaturesSave struct {
	FreeSpins      *FreeSpinsSave `json:"free_spins,omitempty"`
	BonusGame      *BonusGameSave `json:"bonus_game,omitempty"`
	Gamble         *GambleSave    `json:"gamble,omitempty"`
	CascadeEnabled bool           `json:"cascade_enabled"`
	TurboMode      bool           `json:"turbo_mode"`
	Autoplay       AutoplaySave   `json:"autoplay"`
}

// StatisticsSave holds lifetime play statistics.
type StatisticsSave struct {
	TotalSpins      int `json:"total_spins"`
	TotalWins       int `json:"total_wins"`
	TotalWagered    int `json:"total_wagered"`
	TotalWon        int `json:"total_won"`
	BiggestWin      int `json:"biggest_win"`
	CascadesTotal   int `json:"cascades_total"`
	LongestCascade  int `json:"longest_cascade"`
	FreeSpinsPlayed int `json:"free_spins_played"`
	BonusGames      int `json:"bonus_games"`
	GamblesPlayed   int `json:"gambles_played"`
	GamblesWon      int `json:"gambles_won"`
}

// LevelSave holds XP/level progression.
type LevelSave struct {
	Level int `json:"level"`
	XP    int `json:"xp"`
}

// ChallengeSave is one daily challenge and its progress.
type ChallengeSave struct {
	ID        string `json:"id"`
	Target    int    `json:"target"`
	Progress  int    `json:"progress"`
	Completed bool   `json:"completed"`
	Day       string `json:"day"`
}

// ProgressionSave groups level, achievements and daily challenges.
type ProgressionSave struct {
	LevelSystem     LevelSave       `json:"level_system"`
	Achievements    []string        `json:"achievements"`
	DailyChallenges []ChallengeSave `json:"daily_challenges"`
	Statistics      StatisticsSave  `json:"statistics"`
}

// SpinHistoryEntry is one line of the bounded spin history.
type SpinHistoryEntry struct {
	ID        string   `json:"id"`
	Bet       int      `json:"bet"`
	TotalWin  int      `json:"total_win"`
	Tier      WinTier  `json:"tier"`
	FreeSpin  bool     `json:"free_spin"`
	Features  []string `json:"features,omitempty"`
	Timestamp int64    `json:"timestamp"`
}

// SpinHistorySave is the persisted spin history block.
type SpinHistorySave struct {
	Entries []SpinHistoryEntry `json:"entries"`
}

// SaveRecord is the versioned, schema-migratable persisted game snapshot.
type SaveRecord struct {
	SchemaVersion      int             `json:"schema_version"`
	Credits            int             `json:"credits"`
	CurrentBet         int             `json:"current_bet"`
	CurrentBetIndex    int             `json:"current_bet_index"`
	Progression        ProgressionSave `json:"progression"`
	Features           FeaturesSave    `json:"features"`
	SpinHistory        SpinHistorySave `json:"spin_history"`
	AutoCollectEnabled bool            `json:"auto_collect_enabled"`
	Timestamp          int64           `json:"timestamp"`
}
