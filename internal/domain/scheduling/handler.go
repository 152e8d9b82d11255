package scheduling

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

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Any authenticated user can book; reception marks arrivals, the
	// physician drives consultation-phase transitions.
	api.POST("/appointments", h.CreateAppointment)
	api.GET("/appointments/:id", h.GetAppointment, auth.RequireRole(auth.RoleDoctor, auth.RoleAdministrative))
	api.GET("/appointments/provider/:id", h.ListByProvider, auth.RequireRole(auth.RoleDoctor, auth.RoleAdministrative))
	api.GET("/appointments/today", h.ListToday, auth.RequireRole(auth.RoleDoctor, auth.RoleAdministrative, auth.RoleNurse))
	api.PUT("/appointments/:id/awaiting-vitals", h.MarkAwaitingVitals, auth.RequireExactRole(auth.RoleAdministrative))
	api.PUT("/appointments/:id/state", h.ChangeState, auth.RequireExactRole(auth.RoleDoctor))

	api.GET("/providers/:id/working-hours", h.GetWorkingHours)
	api.PUT("/providers/:id/working-hours", h.ReplaceWorkingHours)
}

type createAppointmentRequest struct {
	PatientID  uuid.UUID `json:"patient_id"`
	ProviderID uuid.UUID `json:"provider_id"`
	Date       string    `json:"date"`
	StartTime  ClockTime `json:"start_time"`
	EndTime    ClockTime `json:"end_time"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// schedulingError maps domain errors to HTTP responses with stable codes so
// clients can branch without parsing messages.
func schedulingError(c echo.Context, err error) error {
	var conflict *ConflictError
	switch {
	case errors.As(err, &conflict):
		return c.JSON(http.StatusBadRequest, errorBody{Code: "SCHEDULING_CONFLICT", Message: err.Error()})
	case errors.Is(err, ErrOutsideWorkingHours):
		return c.JSON(http.StatusBadRequest, errorBody{Code: "OUTSIDE_WORKING_HOURS", Message: err.Error()})
	case errors.Is(err, ErrNoScheduleForDay):
		return c.JSON(http.StatusBadRequest, errorBody{Code: "NO_SCHEDULE_FOR_DAY", Message: err.Error()})
	case errors.Is(err, ErrInvalidRange):
		return c.JSON(http.StatusBadRequest, errorBody{Code: "VALIDATION_ERROR", Message: err.Error()})
	case errors.Is(err, ErrNotFound):
		return c.JSON(http.StatusNotFound, errorBody{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, ErrTerminalState), errors.Is(err, ErrInvalidTransition):
		return c.JSON(http.StatusBadRequest, errorBody{Code: "INVALID_TRANSITION", Message: err.Error()})
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	var req createAppointmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Code: "VALIDATION_ERROR", Message: err.Error()})
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Code: "VALIDATION_ERROR", Message: "invalid date, expected YYYY-MM-DD"})
	}

	appt := &Appointment{
		PatientID:  req.PatientID,
		ProviderID: req.ProviderID,
		Date:       date,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
	}
	if err := h.svc.CreateAppointment(c.Request().Context(), appt); err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) ||
			errors.Is(err, ErrOutsideWorkingHours) ||
			errors.Is(err, ErrNoScheduleForDay) ||
			errors.Is(err, ErrInvalidRange) {
			return schedulingError(c, err)
		}
		return c.JSON(http.StatusBadRequest, errorBody{Code: "VALIDATION_ERROR", Message: err.Error()})
	}
	return c.JSON(http.StatusCreated, appt)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Code: "VALIDATION_ERROR", Message: "invalid id"})
	}
	appt, err := h.svc.GetAppointment(c.Request().Context(), id)
	if err != nil {
		return schedulingError(c, err)
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) ListByProvider(c echo.Context) error {
	providerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Code: "VALIDATION_ERROR", Message: "invalid provider id"})
	}
	items, err := h.svc.ListActiveByProvider(c.Request().Context(), providerID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*Appointment{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListToday(c echo.Context) error {
	items, err := h.svc.ListToday(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*Appointment{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) MarkAwaitingVitals(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Code: "VALIDATION_ERROR", Message: "invalid id"})
	}
	appt, err := h.svc.MarkAwaitingVitals(c.Request().Context(), id)
	if err != nil {
		return schedulingError(c, err)
	}
	return c.JSON(http.StatusOK, appt)
}

type changeStateRequest struct {
	Status Status `json:"status"`
}

func (h *Handler) ChangeState(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Code: "VALIDATION_ERROR", Message: "invalid id"})
	}
	var req changeStateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Code: "VALIDATION_ERROR", Message: err.Error()})
	}
	if !req.Status.IsValid() {
		return c.JSON(http.StatusBadRequest, errorBody{Code: "VALIDATION_ERROR", Message: "unknown status"})
	}
	appt, err := h.svc.ChangeState(c.Request().Context(), id, req.Status)
	if err != nil {
		return schedulingError(c, err)
	}
	return c.JSON(http.StatusOK, appt)
}

// -- Working hours --

type workingIntervalRequest struct {
	Weekday   string    `json:"weekday"`
	StartTime ClockTime `json:"start_time"`
	EndTime   ClockTime `json:"end_time"`
}

func (h *Handler) GetWorkingHours(c echo.Context) error {
	providerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Code: "VALIDATION_ERROR", Message: "invalid provider id"})
	}
	items, err := h.svc.GetWorkingHours(c.Request().Context(), providerID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*WorkingInterval{}
	}
	return c.JSON(http.StatusOK, items)
}

// ReplaceWorkingHours lets the super admin manage any provider's hours and a
// physician manage their own.
func (h *Handler) ReplaceWorkingHours(c echo.Context) error {
	providerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Code: "VALIDATION_ERROR", Message: "invalid provider id"})
	}

	role := auth.RoleFromContext(c.Request().Context())
	userID := auth.UserIDFromContext(c.Request().Context())
	if role != auth.RoleSuperAdmin && !(role == auth.RoleDoctor && userID == providerID.String()) {
		return echo.NewHTTPError(http.StatusForbidden, "insufficient permissions")
	}

	var reqs []workingIntervalRequest
	if err := c.Bind(&reqs); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Code: "VALIDATION_ERROR", Message: err.Error()})
	}
	intervals := make([]*WorkingInterval, 0, len(reqs))
	for _, r := range reqs {
		intervals = append(intervals, &WorkingInterval{
			Weekday:   r.Weekday,
			StartTime: r.StartTime,
			EndTime:   r.EndTime,
		})
	}
	if err := h.svc.ReplaceWorkingHours(c.Request().Context(), providerID, intervals); err != nil {
		if errors.Is(err, ErrInvalidRange) {
			return schedulingError(c, err)
		}
		return c.JSON(http.StatusBadRequest, errorBody{Code: "VALIDATION_ERROR", Message: err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "updated"})
}
