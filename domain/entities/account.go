package entities

import (
	"fmt"
	"time"
)

// Role is an account's position in the referral hierarchy
type Role string

const (
	RolePlayer      Role = "player"
	RoleAgent       Role = "agent"
	RoleMasterAgent Role = "master_agent"
	RoleSuperMaster Role = "super_master"
	RoleAdmin       Role = "admin"
)

var roleRanks = map[Role]int{
	RolePlayer:      0,
	RoleAgent:       1,
	RoleMasterAgent: 2,
	RoleSuperMaster: 3,
	RoleAdmin:       4,
}

// ParseRole converts a stored role string into a Role
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := roleRanks[r]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Rank returns the role's position in the hierarchy, -1 for unknown roles
func (r Role) Rank() int {
	rank, ok := roleRanks[r]
	if !ok {
		return -1
	}
	return rank
}

// Outranks returns true if r sits strictly above other in the hierarchy
func (r Role) Outranks(other Role) bool {
	return r.Rank() > other.Rank()
}

// EarnsCommission returns true if accounts with this role receive upline commission
func (r Role) EarnsCommission() bool {
	return r.Rank() > RolePlayer.Rank()
}

// IsValid returns true for known roles
func (r Role) IsValid() bool {
	return r.Rank() >= 0
}

func (r Role) String() string {
	return string(r)
}

// Account is a bettor or an upline master account
type Account struct {
	ID        int64     `db:"id"`
	Username  string    `db:"username"`
	Role      Role      `db:"role"`
	Balance   int64     `db:"balance"`
	ParentID  *int64    `db:"parent_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// IsRoot returns true if the account has no upline
func (a *Account) IsRoot() bool {
	return a.ParentID == nil
}
