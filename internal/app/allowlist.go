package app

import (
	"strings"

	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/domain"
)

// StaticAllowlist maps employee id to expected sector, loaded from config.
// An empty list accepts everyone; that is only sensible in dev mode.
type StaticAllowlist map[string]string

func (a StaticAllowlist) Allowed(id domain.Identity) bool {
	if len(a) == 0 {
		return true
	}
	sector, ok := a[id.EmployeeID]
	return ok && strings.EqualFold(sector, id.Sector)
}
