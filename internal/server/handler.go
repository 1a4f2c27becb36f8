package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vineet-vishwakarma/Chat-App/internal/apperr"
	"github.com/vineet-vishwakarma/Chat-App/internal/auth"
	"github.com/vineet-vishwakarma/Chat-App/internal/config"
	"github.com/vineet-vishwakarma/Chat-App/internal/service"
)

// Handler groups the REST handlers over the service layer.
type Handler struct {
	cfg     config.Config
	userSvc *service.UserService
	roomSvc *service.RoomService
	msgSvc  *service.MessageService
}

func NewHandler(cfg config.Config, userSvc *service.UserService, roomSvc *service.RoomService, msgSvc *service.MessageService) *Handler {
	return &Handler{cfg: cfg, userSvc: userSvc, roomSvc: roomSvc, msgSvc: msgSvc}
}

var errInvalidPayload = apperr.Validation("invalid payload", nil)

func (h *Handler) setAuthCookies(c *gin.Context, res *service.AuthResult) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(auth.AccessCookie, res.AccessToken, h.cfg.AccessTokenTTLMinutes*60, "/", "", true, true)
	c.SetCookie(auth.RefreshCookie, res.RefreshToken, h.cfg.RefreshTokenTTLDays*24*60*60, "/", "", true, true)
}

func (h *Handler) clearAuthCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(auth.AccessCookie, "", -1, "/", "", true, true)
	c.SetCookie(auth.RefreshCookie, "", -1, "/", "", true, true)
}

func (h *Handler) Register(c *gin.Context) {
	var req service.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, "register", errInvalidPayload)
		return
	}
	res, err := h.userSvc.Register(c.Request.Context(), req)
	if err != nil {
		fail(c, "register", err)
		return
	}
	h.setAuthCookies(c, res)
	respond(c, http.StatusOK, res, "User registered successfully")
}

func (h *Handler) Login(c *gin.Context) {
	var req service.LoginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, "login", errInvalidPayload)
		return
	}
	res, err := h.userSvc.Login(c.Request.Context(), req)
	if err != nil {
		fail(c, "login", err)
		return
	}
	h.setAuthCookies(c, res)
	respond(c, http.StatusOK, res, "User logged in successfully")
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.userSvc.Logout(c.Request.Context(), auth.GetUserID(c)); err != nil {
		fail(c, "logout", err)
		return
	}
	h.clearAuthCookies(c)
	respond(c, http.StatusOK, gin.H{}, "User logged out")
}

func (h *Handler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.RefreshToken == "" {
		req.RefreshToken, _ = c.Cookie(auth.RefreshCookie)
	}
	res, err := h.userSvc.RefreshTokens(c.Request.Context(), req.RefreshToken)
	if err != nil {
		fail(c, "refresh token", err)
		return
	}
	h.setAuthCookies(c, res)
	respond(c, http.StatusOK, res, "Access token refreshed")
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, "change password", errInvalidPayload)
		return
	}
	if err := h.userSvc.ChangePassword(c.Request.Context(), auth.GetUserID(c), req.OldPassword, req.NewPassword); err != nil {
		fail(c, "change password", err)
		return
	}
	respond(c, http.StatusOK, gin.H{}, "Password changed successfully")
}

func (h *Handler) CurrentUser(c *gin.Context) {
	user, ok := auth.GetUser(c)
	if !ok {
		fail(c, "current user", apperr.Unauthorized("Unauthorized request", nil))
		return
	}
	respond(c, http.StatusOK, user, "Current user fetched successfully")
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.userSvc.ListOthers(c.Request.Context(), c.Query("currentUserId"))
	if err != nil {
		fail(c, "list users", err)
		return
	}
	respond(c, http.StatusOK, users, "Users fetched successfully")
}

func (h *Handler) ListMessages(c *gin.Context) {
	var req struct {
		SenderID   string `json:"senderId"`
		ReceiverID string `json:"receiverId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, "list messages", errInvalidPayload)
		return
	}
	msgs, err := h.msgSvc.ListByPair(c.Request.Context(), req.SenderID, req.ReceiverID)
	if err != nil {
		fail(c, "list messages", err)
		return
	}
	respond(c, http.StatusOK, msgs, "Messages retrieved successfully")
}

func (h *Handler) TranslateMessage(c *gin.Context) {
	var req service.TranslateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, "translate message", errInvalidPayload)
		return
	}
	res, err := h.msgSvc.Translate(c.Request.Context(), req)
	if err != nil {
		fail(c, "translate message", err)
		return
	}
	respond(c, http.StatusOK, res, "Message translated successfully")
}

func (h *Handler) DescribeRoom(c *gin.Context) {
	dto, err := h.roomSvc.Describe(auth.GetUserID(c), c.Param("peerId"))
	if err != nil {
		fail(c, "describe room", err)
		return
	}
	respond(c, http.StatusOK, dto, "Room fetched successfully")
}
