// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
)

const (
	MaxNameLen     = 36
	MaxFunctionLen = 36
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrNameEmpty    = errors.New("name empty")
	ErrNameTooLong  = errors.New("name too long")
)

// Token is the opaque credential carried by a connection. Its three
// dash-separated fields encode employee id, surname and sector.
type Token string

// Identity is the registered operator behind a token.
type Identity struct {
	EmployeeID string `json:"employee_id"`
	Surname    string `json:"surname"`
	Sector     string `json:"sector"`
}

// ParseToken splits a raw token into its identity fields.
// Anything other than three non-empty fields is ErrInvalidToken.
func ParseToken(raw string) (Identity, error) {
	parts := strings.Split(raw, "-")
	if len(parts) != 3 {
		return Identity{}, ErrInvalidToken
	}
	for _, p := range parts {
		if p == "" {
			return Identity{}, ErrInvalidToken
		}
	}
	return Identity{EmployeeID: parts[0], Surname: parts[1], Sector: parts[2]}, nil
}

// PeerID is the derived addressing key "{name}_{function}".
// It is NOT guaranteed globally unique; two operators sharing a surname
// and a function collide. Kept as-is from the original addressing scheme.
type PeerID string

func MakePeerID(name, function string) PeerID {
	return PeerID(name + "_" + function)
}
