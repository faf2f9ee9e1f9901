package handlers

import (
	"fmt"
	"mime/multipart"
	"net/http"

	"task-manager/server/internal/services"

	"github.com/gin-gonic/gin"
)

// ImageSaver persists an uploaded image and returns its stored file name.
type ImageSaver interface {
	Save(fh *multipart.FileHeader) (string, error)
}

type AuthHandler struct {
	authService services.AuthService
	images      ImageSaver
}

func NewAuthHandler(authService services.AuthService, images ImageSaver) *AuthHandler {
	return &AuthHandler{authService: authService, images: images}
}

func authResponse(res *services.AuthResult) gin.H {
	return gin.H{
		"id":              res.User.ID,
		"name":            res.User.Name,
		"email":           res.User.Email,
		"role":            res.User.Role,
		"profileImageUrl": res.User.ProfileImageURL,
		"token":           res.Token,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	res, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, authResponse(res))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	res, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, authResponse(res))
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	current, ok := requireUser(c)
	if !ok {
		return
	}

	user, err := h.authService.Profile(c.Request.Context(), current.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	current, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	res, err := h.authService.UpdateProfile(c.Request.Context(), current.ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, authResponse(res))
}

func (h *AuthHandler) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No file uploaded"})
		return
	}

	name, err := h.images.Save(file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imageUrl": fmt.Sprintf("%s://%s/uploads/%s", requestScheme(c), c.Request.Host, name)})
}

func requestScheme(c *gin.Context) string {
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if c.Request.TLS != nil {
		return "https"
	}
	return "http"
}
