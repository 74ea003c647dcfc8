package domain

import (
	"fmt"
	"time"
)

// Role is the marketplace-facing user type carried in the user_type claim.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleFarmer Role = "farmer"
)

// Roles lists the valid user types.
var Roles = []Role{RoleBuyer, RoleFarmer}

// ValidRole reports whether s names a known role.
func ValidRole(s string) bool {
	for _, r := range Roles {
		if string(r) == s {
			return true
		}
	}
	return false
}

type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	FullName   string    `json:"fullName"`
	UserType   Role      `json:"userType"`
	DateJoined time.Time `json:"dateJoined"`
	// PasswordHash is the PHC-encoded hash; never serialized to clients.
	PasswordHash string    `json:"-"`
	DateOfBirth  string    `json:"dateOfBirth,omitempty"` // YYYY-MM-DD
	FarmName     string    `json:"farmName,omitempty"`
	Addresses    []Address `json:"addresses,omitempty"`
}

// Validate checks field-level constraints on a new user.
func (u *User) Validate() error {
	if u.Email == "" {
		return fmt.Errorf("email is required")
	}
	if u.FullName == "" {
		return fmt.Errorf("fullName is required")
	}
	if !ValidRole(string(u.UserType)) {
		return fmt.Errorf("invalid user type %q, choices are %v", u.UserType, Roles)
	}
	return nil
}

type Address struct {
	ID            string `json:"id"`
	UserID        string `json:"userId"`
	Name          string `json:"name"`
	StreetAddress string `json:"streetAddress"`
	City          string `json:"city"`
	State         string `json:"state"`
	PostalCode    string `json:"postalCode"`
	Country       string `json:"country"`
}

func (a *Address) Validate() error {
	if a.StreetAddress == "" || a.City == "" || a.Country == "" {
		return fmt.Errorf("streetAddress, city and country are required")
	}
	return nil
}
