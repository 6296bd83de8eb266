package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/billdesk/internal/application/service"
	"github.com/sangkips/billdesk/internal/domain/entity"
	"github.com/sangkips/billdesk/internal/presentation/http/dto/request"
	"github.com/sangkips/billdesk/internal/presentation/http/dto/response"
)

// SessionHandler handles sign-in and sign-out
type SessionHandler struct {
	session *service.SessionService
}

func NewSessionHandler(session *service.SessionService) *SessionHandler {
	return &SessionHandler{session: session}
}

func (h *SessionHandler) current() response.SessionResponse {
	snap := h.session.Snapshot()
	return response.SessionResponse{State: string(snap.State()), Session: snap}
}

// Get returns the session without its tokens
func (h *SessionHandler) Get(c *gin.Context) {
	response.OK(c, "Session retrieved", h.current())
}

// Login handles user login
func (h *SessionHandler) Login(c *gin.Context) {
	var req request.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	state, err := h.session.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	message := "Login successful"
	if state == entity.SessionPendingOTP {
		message = "OTP required"
	}
	response.OK(c, message, h.current())
}

// VerifyOTP completes an admin login
func (h *SessionHandler) VerifyOTP(c *gin.Context) {
	var req request.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.session.VerifyOTP(c.Request.Context(), req.OTP); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "OTP verified", h.current())
}

func (h *SessionHandler) Logout(c *gin.Context) {
	if err := h.session.Logout(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Logged out", h.current())
}
