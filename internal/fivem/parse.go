package fivem

import (
	"encoding/json"
	"strconv"
)

// accountBalances mirrors the ESX accounts blob. The game server writes
// floats for some economies, so values are decoded loosely.
type accountBalances struct {
	Money      int64
	Bank       int64
	BlackMoney int64
}

func parseAccounts(raw string) accountBalances {
	if raw == "" {
		return accountBalances{}
	}

	var decoded map[string]json.Number
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return accountBalances{}
	}

	return accountBalances{
		Money:      numberToInt64(decoded["money"]),
		Bank:       numberToInt64(decoded["bank"]),
		BlackMoney: numberToInt64(decoded["black_money"]),
	}
}

func numberToInt64(value json.Number) int64 {
	if value == "" {
		return 0
	}
	if parsed, err := value.Int64(); err == nil {
		return parsed
	}
	if parsed, err := value.Float64(); err == nil {
		return int64(parsed)
	}
	return 0
}

// parseVehicleModel pulls the model out of the stored vehicle blob. Models
// appear as either names or numeric hashes depending on how the vehicle was
// granted.
func parseVehicleModel(raw string) string {
	if raw == "" {
		return "Unknown"
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return "Unknown"
	}

	switch model := decoded["model"].(type) {
	case string:
		if model == "" {
			return "Unknown"
		}
		return model
	case float64:
		return strconv.FormatInt(int64(model), 10)
	default:
		return "Unknown"
	}
}

const lastSeenLayout = "2006-01-02 15:04:05"
