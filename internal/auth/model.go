package auth

import "time"

// Rank is the ordered staff privilege level.
type Rank string

const (
	RankUser      Rank = "User"
	RankSupporter Rank = "Supporter"
	RankModerator Rank = "Moderator"
	RankAdmin     Rank = "Admin"
	RankOwner     Rank = "Owner"
)

var rankLevels = map[Rank]int{
	RankUser:      1,
	RankSupporter: 2,
	RankModerator: 3,
	RankAdmin:     4,
	RankOwner:     5,
}

func (r Rank) Level() int {
	return rankLevels[r]
}

func (r Rank) Valid() bool {
	return rankLevels[r] != 0
}

// AtLeast reports whether r grants at least the privileges of required.
// Unknown ranks never satisfy anything.
func (r Rank) AtLeast(required Rank) bool {
	return r.Level() >= required.Level() && required.Level() > 0
}

type Account struct {
	ID                  string
	Username            string
	PasswordHash        string
	Name                string
	Email               string
	Rank                Rank
	AvatarURL           *string
	IsActive            bool
	FailedLoginAttempts int
	LockedUntil         *time.Time
	LastLogin           *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// PublicUser is the account shape surfaced to the client. The password hash
// and the lock/attempt counters never leave the server.
type PublicUser struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Rank      Rank       `json:"rank"`
	AvatarURL *string    `json:"avatar_url"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

func (a *Account) Public() PublicUser {
	return PublicUser{
		ID:        a.ID,
		Username:  a.Username,
		Name:      a.Name,
		Email:     a.Email,
		Rank:      a.Rank,
		AvatarURL: a.AvatarURL,
		LastLogin: a.LastLogin,
	}
}

// Session is the server-side state behind an opaque session token. The raw
// token is only ever returned to the client; storage sees its SHA-256 hash.
type Session struct {
	ID        string
	TokenHash string
	AccountID string
	Username  string
	Rank      Rank
	Name      string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type CreateAccountParams struct {
	Username       string
	PasswordHash   string
	Name           string
	Email          string
	Rank           Rank
	SecurityCodeID string
}
