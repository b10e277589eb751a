package api

import (
	"github.com/gin-gonic/gin"

	"storefront/internal/account"
)

type loginRequest struct {
	UserName string `json:"user_name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *handler) signUp(c *gin.Context) {
	var form account.SignUpForm
	if err := c.ShouldBindJSON(&form); err != nil {
		invalidParams(c, err)
		return
	}
	customer, err := h.Accounts.SignUp(c.Request.Context(), form)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, customer)
}

func (h *handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidParams(c, err)
		return
	}
	session, err := h.Accounts.Login(c.Request.Context(), req.UserName, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, session)
}
