package opendota

// Match holds the fields we need from /matches/{id}.
type Match struct {
	MatchID    int64    `json:"match_id"`
	RadiantWin bool     `json:"radiant_win"`
	Duration   int      `json:"duration"`
	StartTime  int64    `json:"start_time"`
	GameMode   int      `json:"game_mode"`
	Players    []Player `json:"players"`
	ODData     *ODData  `json:"od_data,omitempty"`
}

// ODData reports which data sources back the match.
type ODData struct {
	HasAPI    bool `json:"has_api"`
	HasGCData bool `json:"has_gcdata"`
	HasParsed bool `json:"has_parsed"`
}

// Parsed reports whether the replay was parsed, which is when per-minute
// arrays and item usage become available.
func (m *Match) Parsed() bool {
	return m.ODData != nil && m.ODData.HasParsed
}

// Player is one entry of Match.Players. Pointer fields are absent on
// unparsed matches.
type Player struct {
	AccountID   int64 `json:"account_id"`
	PlayerSlot  int   `json:"player_slot"`
	HeroID      int   `json:"hero_id"`
	IsRadiant   *bool `json:"isRadiant,omitempty"`
	RankTier    int   `json:"rank_tier"`
	Item0       int   `json:"item_0"`
	Item1       int   `json:"item_1"`
	Item2       int   `json:"item_2"`
	Item3       int   `json:"item_3"`
	Item4       int   `json:"item_4"`
	Item5       int   `json:"item_5"`
	Kills       int   `json:"kills"`
	Deaths      int   `json:"deaths"`
	Assists     int   `json:"assists"`
	LastHits    int   `json:"last_hits"`
	Denies      int   `json:"denies"`
	GoldPerMin  int   `json:"gold_per_min"`
	XPPerMin    int   `json:"xp_per_min"`
	Level       int   `json:"level"`
	NetWorth    int   `json:"net_worth"`
	HeroDamage  int   `json:"hero_damage"`
	TowerDamage int   `json:"tower_damage"`
	HeroHealing int   `json:"hero_healing"`

	ObsPlaced       *int `json:"obs_placed,omitempty"`
	SenPlaced       *int `json:"sen_placed,omitempty"`
	ObserversPlaced *int `json:"observers_placed,omitempty"`
	SentriesPlaced  *int `json:"sentries_placed,omitempty"`
	CreepsStacked   *int `json:"creeps_stacked,omitempty"`
	CampsStacked    *int `json:"camps_stacked,omitempty"`

	ItemUses   map[string]int        `json:"item_uses,omitempty"`
	Benchmarks map[string]Percentile `json:"benchmarks,omitempty"`

	// Cumulative per-minute arrays, present on parsed matches.
	LHT   []float64 `json:"lh_t,omitempty"`
	DNT   []float64 `json:"dn_t,omitempty"`
	GoldT []float64 `json:"gold_t,omitempty"`
	XPT   []float64 `json:"xp_t,omitempty"`
}

// Percentile is one entry of Player.Benchmarks.
type Percentile struct {
	Raw float64 `json:"raw"`
	Pct float64 `json:"pct"`
}

// Radiant reports the player's side, preferring the explicit flag.
func (p *Player) Radiant() bool {
	if p.IsRadiant != nil {
		return *p.IsRadiant
	}
	return p.PlayerSlot < 128
}

// Items returns the six inventory slots.
func (p *Player) Items() [6]int {
	return [6]int{p.Item0, p.Item1, p.Item2, p.Item3, p.Item4, p.Item5}
}

// Observers prefers obs_placed and falls back to observers_placed.
func (p *Player) Observers() int {
	return firstOf(p.ObsPlaced, p.ObserversPlaced)
}

// Sentries prefers sen_placed and falls back to sentries_placed.
func (p *Player) Sentries() int {
	return firstOf(p.SenPlaced, p.SentriesPlaced)
}

// Stacks sums creeps_stacked and camps_stacked.
func (p *Player) Stacks() int {
	return firstOf(p.CreepsStacked) + firstOf(p.CampsStacked)
}

func firstOf(vals ...*int) int {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return 0
}

// ParseJob is the response of POST /request/{id}.
type ParseJob struct {
	Job struct {
		JobID int64 `json:"jobId"`
	} `json:"job"`
}

// JobStatus is the response of GET /request/{jobId} while the job is pending.
type JobStatus struct {
	ID              int64  `json:"id"`
	Type            string `json:"type"`
	Timestamp       string `json:"timestamp"`
	Attempts        int    `json:"attempts"`
	NextAttemptTime string `json:"next_attempt_time"`
	Priority        int    `json:"priority"`
	JobID           int64  `json:"jobId"`
}
