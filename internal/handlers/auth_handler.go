package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/studio-agenda/internal/config"
	"github.com/BruksfildServices01/studio-agenda/internal/httperr"
	"github.com/BruksfildServices01/studio-agenda/internal/middleware"
	"github.com/BruksfildServices01/studio-agenda/internal/models"
	"github.com/BruksfildServices01/studio-agenda/internal/timezone"
	"github.com/BruksfildServices01/studio-agenda/internal/validators"
)

const tokenTTL = 24 * time.Hour

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type AuthHandler struct {
	db     *gorm.DB
	config *config.Config
	audit  Auditor
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config, audit Auditor) *AuthHandler {
	return &AuthHandler{db: db, config: cfg, audit: audit}
}

// --------- Requests ---------

type RegisterRequest struct {
	BusinessName     string `json:"business_name" validate:"required,max=100"`
	BusinessSlug     string `json:"business_slug" validate:"required,max=100"`
	BusinessPhone    string `json:"business_phone" validate:"max=20"`
	BusinessAddress  string `json:"business_address" validate:"max=255"`
	BusinessTimezone string `json:"business_timezone" validate:"omitempty,timezone"`

	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone" validate:"max=20"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// --------- Handlers ---------

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !validators.Bind(c, &req) {
		return
	}

	slug := strings.ToLower(strings.TrimSpace(req.BusinessSlug))
	if !slugPattern.MatchString(slug) {
		httperr.BadRequest(c, "invalid_slug", "Use apenas letras minúsculas, números e hífens.")
		return
	}

	email, err := validators.NormalizeEmail(req.Email)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	tz := req.BusinessTimezone
	if tz == "" {
		tz = timezone.DefaultTimezone
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httperr.Internal(c, "failed_to_hash_password", "Erro ao processar a senha.")
		return
	}

	var (
		biz  models.Business
		user models.User
	)

	err = h.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		tx.Model(&models.Business{}).Where("slug = ?", slug).Count(&count)
		if count > 0 {
			return httperr.ErrBusiness("slug_already_taken")
		}

		tx.Model(&models.User{}).Where("email = ?", email).Count(&count)
		if count > 0 {
			return httperr.ErrBusiness("email_already_registered")
		}

		biz = models.Business{
			Name:     req.BusinessName,
			Slug:     slug,
			Phone:    req.BusinessPhone,
			Address:  req.BusinessAddress,
			Timezone: tz,
		}
		if err := tx.Create(&biz).Error; err != nil {
			return err
		}

		user = models.User{
			BusinessID:   biz.ID,
			Name:         req.Name,
			Email:        email,
			PasswordHash: string(hashed),
			Phone:        req.Phone,
			Role:         "owner",
		}
		return tx.Omit("Business").Create(&user).Error
	})
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	token, err := h.generateToken(&user)
	if err != nil {
		httperr.Internal(c, "failed_to_generate_token", "Erro ao gerar o token.")
		return
	}

	c.Set(middleware.ContextBusinessID, biz.ID)
	c.Set(middleware.ContextUserID, user.ID)
	writeAudit(h.audit, c, "business.registered", "business", &biz.ID, nil)

	c.JSON(http.StatusCreated, gin.H{
		"user":     userView(&user),
		"business": businessView(&biz),
		"token":    token,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !validators.Bind(c, &req) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := h.db.Preload("Business").
		Where("email = ?", email).
		First(&user).Error; err != nil {

		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.FromError(c, httperr.ErrBusiness("invalid_credentials"))
			return
		}
		httperr.Internal(c, "internal_error", "Erro interno.")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		httperr.FromError(c, httperr.ErrBusiness("invalid_credentials"))
		return
	}

	token, err := h.generateToken(&user)
	if err != nil {
		httperr.Internal(c, "failed_to_generate_token", "Erro ao gerar o token.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":     userView(&user),
		"business": businessView(&user.Business),
		"token":    token,
	})
}

// --------- JWT ---------

func (h *AuthHandler) generateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":        user.ID,
		"businessId": user.BusinessID,
		"role":       user.Role,
		"exp":        now.Add(tokenTTL).Unix(),
		"iat":        now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.config.JWTSecret))
}
