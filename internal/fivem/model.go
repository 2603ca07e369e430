package fivem

// Player is one row of the game-server roster. Balances default to zero when
// the stored accounts blob is missing or malformed.
type Player struct {
	Identifier string `json:"identifier"`
	Firstname  string `json:"firstname"`
	Lastname   string `json:"lastname"`
	Job        string `json:"job"`
	JobGrade   int    `json:"job_grade"`
	Group      string `json:"group"`
	Money      int64  `json:"money"`
	Bank       int64  `json:"bank"`
	BlackMoney int64  `json:"black_money"`
	LastSeen   string `json:"last_seen"`
	Position   string `json:"position,omitempty"`
}

type Vehicle struct {
	Owner     string `json:"owner"`
	Plate     string `json:"plate"`
	Model     string `json:"model"`
	Stored    bool   `json:"stored"`
	OwnerName string `json:"owner_name"`
}

type RichPlayer struct {
	Identifier string `json:"identifier"`
	Firstname  string `json:"firstname"`
	Lastname   string `json:"lastname"`
	TotalMoney int64  `json:"total_money"`
}

type VehicleOwner struct {
	Identifier   string `json:"identifier"`
	Firstname    string `json:"firstname"`
	Lastname     string `json:"lastname"`
	VehicleCount int    `json:"vehicle_count"`
}

type ActivePlayer struct {
	Identifier string `json:"identifier"`
	Firstname  string `json:"firstname"`
	Lastname   string `json:"lastname"`
	LastSeen   string `json:"last_seen"`
}

type HallOfFame struct {
	Richest      []RichPlayer   `json:"richest"`
	MostVehicles []VehicleOwner `json:"most_vehicles"`
	MostActive   []ActivePlayer `json:"most_active"`
}

// Stats are the database-derived server numbers used when the tracking API
// is unavailable.
type Stats struct {
	TotalUsers    int `json:"totalUsers"`
	ActiveUsers   int `json:"activeUsers"`
	TotalVehicles int `json:"totalVehicles"`
}
