package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nutriplan/backend/internal/domain"
	"github.com/nutriplan/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	auth  *usecase.AuthService
	users *usecase.UserService
	diets *usecase.DietService
}

// NewHandler creates a new HTTP handler
func NewHandler(auth *usecase.AuthService, users *usecase.UserService, diets *usecase.DietService) *Handler {
	return &Handler{auth: auth, users: users, diets: diets}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "nutriplan-backend",
		"version": "1.0.0",
	})
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// Register creates an account and returns it with an access token
func (h *Handler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := h.auth.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email já cadastrado."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user, "accessToken": token})
}

// Login checks credentials and returns an access token
func (h *Handler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Credenciais inválidas."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to login"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"accessToken": token})
}

// Me returns the authenticated account and its profile (nil until filled in)
func (h *Handler) Me(c *gin.Context) {
	user, profile, err := h.users.Me(c.Request.Context(), currentUserID(c))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Usuário não encontrado."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "profile": profile})
}

type upsertProfileRequest struct {
	WeightKg      float64  `json:"weightKg" binding:"required,gt=0"`
	HeightCm      int      `json:"heightCm" binding:"required,gt=0"`
	Goal          string   `json:"goal" binding:"required,oneof=lose maintain gain"`
	ActivityLevel string   `json:"activityLevel" binding:"required,oneof=sedentary light moderate high athlete"`
	Restrictions  []string `json:"restrictions" binding:"omitempty,dive,max=60"`
}

// UpsertProfile creates or replaces the nutrition profile
func (h *Handler) UpsertProfile(c *gin.Context) {
	var req upsertProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.users.UpsertProfile(c.Request.Context(), currentUserID(c), usecase.UpsertProfileInput{
		WeightKg:      req.WeightKg,
		HeightCm:      req.HeightCm,
		Goal:          req.Goal,
		ActivityLevel: req.ActivityLevel,
		Restrictions:  req.Restrictions,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save profile"})
		return
	}

	c.JSON(http.StatusOK, profile)
}

type dietPreferences struct {
	DietStyle      *string  `json:"dietStyle" binding:"omitempty,oneof=balanced lowcarb keto highprotein vegetarian vegan"`
	Cuisine        []string `json:"cuisine" binding:"omitempty,dive,max=40"`
	Budget         *string  `json:"budget" binding:"omitempty,oneof=low medium high"`
	PrepTime       *string  `json:"prepTime" binding:"omitempty,oneof=quick normal advanced"`
	PreferredMeals []string `json:"preferredMeals" binding:"omitempty,dive,max=40"`
}

type dietConstraints struct {
	ExcludeFoods  []string `json:"excludeFoods" binding:"omitempty,dive,max=60"`
	IncludeFoods  []string `json:"includeFoods" binding:"omitempty,dive,max=60"`
	Allergies     []string `json:"allergies" binding:"omitempty,dive,max=60"`
	Intolerances  []string `json:"intolerances" binding:"omitempty,dive,max=60"`
	DislikedFoods []string `json:"dislikedFoods" binding:"omitempty,dive,max=60"`
}

type dietTargets struct {
	Kcal     *int `json:"kcal" binding:"omitempty,min=800,max=6000"`
	ProteinG *int `json:"proteinG" binding:"omitempty,min=0,max=400"`
	CarbsG   *int `json:"carbsG" binding:"omitempty,min=0,max=800"`
	FatG     *int `json:"fatG" binding:"omitempty,min=0,max=300"`
	FiberG   *int `json:"fiberG" binding:"omitempty,min=0,max=100"`
	WaterMl  *int `json:"waterMl" binding:"omitempty,min=0,max=10000"`
}

type dietRequestConfig struct {
	Days        *int             `json:"days" binding:"omitempty,min=1,max=30"`
	MealsPerDay *int             `json:"mealsPerDay" binding:"omitempty,min=1,max=8"`
	Preferences *dietPreferences `json:"preferences"`
	Constraints *dietConstraints `json:"constraints"`
	Targets     *dietTargets     `json:"targets"`
}

// Config is a pointer so that "required" means present, not non-zero: an
// empty config object is valid since every field in it is optional.
type createDietRequest struct {
	Config *dietRequestConfig `json:"config" binding:"required"`
	Notes  *string            `json:"notes" binding:"omitempty,max=2000"`
}

// CreateDiet validates the request config, persists a PENDING request and
// enqueues its processing job.
func (h *Handler) CreateDiet(c *gin.Context) {
	var req createDietRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Flatten only the provided fields into the opaque config document
	cfg := map[string]interface{}{}
	if req.Config.Days != nil {
		cfg["days"] = *req.Config.Days
	}
	if req.Config.MealsPerDay != nil {
		cfg["mealsPerDay"] = *req.Config.MealsPerDay
	}
	if req.Config.Preferences != nil {
		cfg["preferences"] = req.Config.Preferences
	}
	if req.Config.Constraints != nil {
		cfg["constraints"] = req.Config.Constraints
	}
	if req.Config.Targets != nil {
		cfg["targets"] = req.Config.Targets
	}
	if req.Notes != nil && *req.Notes != "" {
		cfg["notes"] = *req.Notes
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid config"})
		return
	}

	created, err := h.diets.CreateRequest(c.Request.Context(), currentUserID(c), raw)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create diet request"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":        created.ID,
		"status":    created.Status,
		"createdAt": created.CreatedAt,
		"config":    created.Config,
	})
}

// ListDiets returns the user's requests, newest first
func (h *Handler) ListDiets(c *gin.Context) {
	summaries, err := h.diets.ListRequests(c.Request.Context(), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list diet requests"})
		return
	}
	c.JSON(http.StatusOK, summaries)
}

// GetDiet returns one request with its result and error fields
func (h *Handler) GetDiet(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	req, err := h.diets.GetRequest(c.Request.Context(), currentUserID(c), uint(id))
	if err != nil {
		if errors.Is(err, domain.ErrRequestNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "DietRequest não encontrado."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load diet request"})
		return
	}

	c.JSON(http.StatusOK, req)
}
