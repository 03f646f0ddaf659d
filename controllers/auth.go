package controllers

import (
	"net/http"

	"github.com/BerniceZTT/consultsim/utils"

	"github.com/gin-gonic/gin"
)

// LoginRequest carries operator credentials.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login exchanges operator credentials for a bearer token.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, "invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	utils.Logger.Info().Str("username", req.Username).Msg("login attempt")

	if req.Username != h.cfg.OperatorUsername || !utils.VerifyPassword(req.Password, h.cfg.OperatorPassword) {
		utils.Logger.Info().Str("username", req.Username).Msg("login rejected")
		utils.ErrorResponse(c, "invalid username or password", http.StatusUnauthorized)
		return
	}

	token, err := utils.GenerateToken(req.Username, utils.RoleOperator)
	if err != nil {
		utils.Logger.Error().Err(err).Msg("issue token failed")
		utils.ErrorResponse(c, "could not issue token", http.StatusInternalServerError)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"token": token,
		"user": gin.H{
			"username": req.Username,
			"role":     utils.RoleOperator,
		},
	}, "")
}

// ValidateToken echoes the identity behind the presented token.
func (h *Handler) ValidateToken(c *gin.Context) {
	user, err := utils.GetUser(c)
	if err != nil {
		utils.ErrorResponse(c, err.Error(), http.StatusUnauthorized)
		return
	}
	utils.SuccessResponse(c, user, "")
}
