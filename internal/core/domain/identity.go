package domain

import (
	"strings"
	"time"
)

// DuesStatus is the cached membership dues state of a member.
type DuesStatus string

const (
	DuesPaid    DuesStatus = "paid"
	DuesPending DuesStatus = "pending"
)

// Account is the authenticated principal as seen by the account provider.
type Account struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Credentials is the stored account record behind an Account.
type Credentials struct {
	ID           string    `bson:"_id"           json:"-"`
	Email        string    `bson:"email"         json:"-"`
	PasswordHash string    `bson:"passwordHash"  json:"-"`
	CreatedAt    time.Time `bson:"createdAt"     json:"-"`
	UpdatedAt    time.Time `bson:"updatedAt"     json:"-"`
}

func (c *Credentials) Account() *Account {
	return &Account{ID: c.ID, Email: c.Email}
}

// Identity is the member profile document, keyed by the account id.
type Identity struct {
	ID              string     `bson:"_id,omitempty"             json:"id"`
	Name            string     `bson:"name"                      json:"name"`
	Email           string     `bson:"email"                     json:"email"`
	PhoneNumber     string     `bson:"phoneNumber"               json:"phone_number"`
	YearGroup       string     `bson:"yearGroup"                 json:"year_group"`
	Occupation      string     `bson:"occupation"                json:"occupation"`
	Institution     string     `bson:"institution"               json:"institution"`
	IsAdmin         bool       `bson:"isAdmin"                   json:"is_admin"`
	CreatedAt       time.Time  `bson:"createdAt"                 json:"created_at"`
	UpdatedAt       *time.Time `bson:"updatedAt,omitempty"       json:"updated_at,omitempty"`
	DuesStatus      DuesStatus `bson:"duesStatus"                json:"dues_status"`
	LastDuesPayment *time.Time `bson:"lastDuesPayment,omitempty" json:"last_dues_payment,omitempty"`
	NextDueDate     *time.Time `bson:"nextDueDate,omitempty"     json:"next_due_date,omitempty"`
}

func (i Identity) DocID() string { return i.ID }

// Role is derived per session, never stored on its own.
type Role struct {
	IsAdmin bool `json:"is_admin"`
}

// DeriveRole grants admin to the reserved admin email regardless of the
// profile flag, otherwise falls back to the profile.
func DeriveRole(acct *Account, profile *Identity, reservedAdminEmail string) Role {
	if acct == nil {
		return Role{}
	}
	if reservedAdminEmail != "" && strings.EqualFold(acct.Email, reservedAdminEmail) {
		return Role{IsAdmin: true}
	}
	return Role{IsAdmin: profile != nil && profile.IsAdmin}
}

// Actor is who a command runs as, taken from the current session.
type Actor struct {
	Account Account
	IsAdmin bool
	Name    string
}

// CanModify is the ownership predicate: admins modify anything, members
// modify what they own.
func (a Actor) CanModify(ownerID string) bool {
	return a.IsAdmin || (a.Account.ID != "" && a.Account.ID == ownerID)
}
