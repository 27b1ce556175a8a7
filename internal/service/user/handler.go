package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/matchmaker/internal/middleware"
	"github.com/oggyb/matchmaker/internal/repository"
	"github.com/oggyb/matchmaker/internal/server"
)

type registerRequest struct {
	Email     string  `json:"email" binding:"required,email,max=128"`
	Password  string  `json:"password" binding:"required,max=72"`
	Nickname  string  `json:"nickname" binding:"required,notblank,max=64"`
	Gender    string  `json:"gender" binding:"required,gender"`
	BirthDate string  `json:"birth_date" binding:"required,datetime=2006-01-02"`
	RealName  *string `json:"real_name" binding:"omitempty,max=64"`
	Tags      string  `json:"tags" binding:"required,max=255"`
	MajorID   uint64  `json:"majorId" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type updateProfileRequest struct {
	Nickname        *string `json:"nickname" binding:"omitempty,min=1,max=64"`
	Bio             *string `json:"bio"`
	ProfileImageURL *string `json:"profile_image_url" binding:"omitempty,max=512"`
	RealName        *string `json:"real_name" binding:"omitempty,max=64"`
	Tags            *string `json:"tags" binding:"omitempty,max=255"`
	PhotoStatus     *string `json:"photo_status" binding:"omitempty,oneof=yes no"`
	MajorID         *uint64 `json:"majorId"`
}

type checkInRequest struct {
	LocationID string `json:"locationId" binding:"required,notblank,max=64"`
}

// Handler exposes Service over HTTP.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register handles POST /api/auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondBadRequest(c, "email, password, nickname, gender, birth_date, tags and majorId are required")
		return
	}

	id, err := h.svc.Register(c.Request.Context(), RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		Nickname:  req.Nickname,
		Gender:    req.Gender,
		BirthDate: req.BirthDate,
		RealName:  req.RealName,
		Tags:      req.Tags,
		MajorID:   req.MajorID,
	})
	if err != nil {
		server.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "registered", "userId": id})
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondBadRequest(c, "email and password are required")
		return
	}

	res, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		server.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "logged in",
		"token":     res.Token,
		"expiresAt": res.ExpiresAt,
		"user":      gin.H{"id": res.UserID, "nickname": res.Nickname},
	})
}

// Me handles GET /api/users/me.
func (h *Handler) Me(c *gin.Context) {
	uid, _ := middleware.UserID(c)

	p, err := h.svc.Profile(c.Request.Context(), uid)
	if err != nil {
		server.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdateMe handles PUT /api/users/me.
func (h *Handler) UpdateMe(c *gin.Context) {
	uid, _ := middleware.UserID(c)

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondBadRequest(c, "invalid profile fields")
		return
	}

	err := h.svc.UpdateProfile(c.Request.Context(), uid, repository.ProfileUpdate{
		Nickname:        req.Nickname,
		Bio:             req.Bio,
		ProfileImageURL: req.ProfileImageURL,
		RealName:        req.RealName,
		Tags:            req.Tags,
		PhotoStatus:     req.PhotoStatus,
		MajorID:         req.MajorID,
	})
	if err != nil {
		server.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "profile updated"})
}

// CheckIn handles POST /api/users/checkin.
func (h *Handler) CheckIn(c *gin.Context) {
	uid, _ := middleware.UserID(c)

	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondBadRequest(c, "locationId is required")
		return
	}

	if err := h.svc.CheckIn(c.Request.Context(), uid, req.LocationID); err != nil {
		server.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "checked in", "locationId": req.LocationID})
}
