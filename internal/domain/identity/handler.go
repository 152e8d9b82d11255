package identity

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sgc/sgc/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterPublicRoutes wires the routes that work without a token.
func (h *Handler) RegisterPublicRoutes(e *echo.Echo) {
	e.POST("/api/v1/auth/login", h.Login)
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/users", h.Register, auth.RequireRole(auth.RoleSuperAdmin))
	api.GET("/users/me", h.Me)
	api.GET("/providers", h.ListProviders)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        *User  `json:"user"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	token, user, err := h.svc.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	})
}

type registerRequest struct {
	Username     string     `json:"username"`
	Password     string     `json:"password"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	BirthDate    *time.Time `json:"birth_date"`
	Address      string     `json:"address"`
	Phone        string     `json:"phone"`
	NationalID   string     `json:"national_id"`
	MemberNumber string     `json:"member_number"`
	Role         string     `json:"role"`
	Specialty    string     `json:"specialty"`
}

func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u := &User{
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		BirthDate:    req.BirthDate,
		Address:      req.Address,
		Phone:        req.Phone,
		NationalID:   req.NationalID,
		MemberNumber: req.MemberNumber,
		Role:         req.Role,
		Specialty:    req.Specialty,
	}
	if err := h.svc.Register(c.Request().Context(), u, req.Password); err != nil {
		if errors.Is(err, ErrDuplicateUser) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *Handler) Me(c echo.Context) error {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid user id")
	}
	u, err := h.svc.GetUser(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) ListProviders(c echo.Context) error {
	providers, err := h.svc.ListProviders(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if providers == nil {
		providers = []*User{}
	}
	return c.JSON(http.StatusOK, providers)
}
