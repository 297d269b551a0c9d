package http

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/core"
	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/domain"
)

// AuthHandlers issues the opaque tokens the relay core consumes. The
// relay does not care how a client obtained its token; it re-validates
// structure and allow-list on every websocket connect.
type AuthHandlers struct {
	Allow core.Allowlist
}

type credentialsRequest struct {
	EmployeeID string `json:"employee_id"`
	Surname    string `json:"surname"`
	Sector     string `json:"sector"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (h *AuthHandlers) Register(c *gin.Context) {
	h.issue(c, "register")
}

func (h *AuthHandlers) Login(c *gin.Context) {
	h.issue(c, "login")
}

func (h *AuthHandlers) issue(c *gin.Context, action string) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.EmployeeID == "" || req.Surname == "" || req.Sector == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing employee_id, surname or sector"})
		return
	}

	id := domain.Identity{EmployeeID: req.EmployeeID, Surname: req.Surname, Sector: req.Sector}
	if !h.Allow.Allowed(id) {
		log.Warn().Str("module", "adapters.http").Str("employee_id", req.EmployeeID).Str("action", action).Msg("identity not on allow-list")
		c.JSON(http.StatusForbidden, gin.H{"error": "not registered"})
		return
	}

	token := fmt.Sprintf("%s-%s-%s", req.EmployeeID, req.Surname, req.Sector)

	sess := sessions.Default(c)
	sess.Set("token", token)
	if err := sess.Save(); err != nil {
		log.Warn().Err(err).Str("module", "adapters.http").Msg("cookie session save failed")
	}

	log.Info().Str("module", "adapters.http").Str("employee_id", req.EmployeeID).Str("action", action).Msg("token issued")
	c.JSON(http.StatusOK, tokenResponse{Token: token})
}
