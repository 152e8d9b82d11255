package pharmacy

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sgc/sgc/internal/domain/scheduling"
	"github.com/sgc/sgc/internal/platform/auth"
	"github.com/sgc/sgc/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/medications", h.ListMedications)
	api.GET("/medications/:id", h.GetMedication)

	writes := api.Group("", auth.RequireRole(auth.RolePharmacist))
	writes.POST("/medications", h.CreateMedication)
	writes.PUT("/medications/:id", h.UpdateMedication)
	writes.DELETE("/medications/:id", h.DeleteMedication)

	api.POST("/prescriptions", h.CreatePrescription, auth.RequireExactRole(auth.RoleDoctor))
	api.GET("/prescriptions/pending", h.ListPending, auth.RequireRole(auth.RolePharmacist))
	api.GET("/prescriptions/:id", h.GetPrescription)
	api.GET("/prescriptions/appointment/:id", h.GetByAppointment)
	api.POST("/prescriptions/:id/authorize", h.AuthorizeDelivery, auth.RequireRole(auth.RolePharmacist))
	api.POST("/prescriptions/:id/authorize-partial", h.AuthorizePartial, auth.RequireRole(auth.RolePharmacist))
}

func pharmacyError(c echo.Context, err error) error {
	var outOfStock *OutOfStockError
	var unknownMed *UnknownMedicationError
	switch {
	case errors.As(err, &outOfStock), errors.As(err, &unknownMed):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrAlreadyDelivered):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrMedicationNotFound), errors.Is(err, ErrPrescriptionNotFound), errors.Is(err, scheduling.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotPrescriber):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

// -- Medications --

func (h *Handler) CreateMedication(c echo.Context) error {
	var m Medication
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateMedication(c.Request().Context(), &m); err != nil {
		return pharmacyError(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) GetMedication(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	m, err := h.svc.GetMedication(c.Request().Context(), id)
	if err != nil {
		return pharmacyError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) ListMedications(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListMedications(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*Medication{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateMedication(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var m Medication
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m.ID = id
	if err := h.svc.UpdateMedication(c.Request().Context(), &m); err != nil {
		return pharmacyError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) DeleteMedication(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteMedication(c.Request().Context(), id); err != nil {
		return pharmacyError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Prescriptions --

type createPrescriptionRequest struct {
	AppointmentID uuid.UUID           `json:"appointment_id"`
	Notes         string              `json:"notes"`
	Items         []*PrescriptionItem `json:"items"`
}

func (h *Handler) CreatePrescription(c echo.Context) error {
	var req createPrescriptionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	physicianID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid user id")
	}

	p := &Prescription{
		AppointmentID: req.AppointmentID,
		Notes:         req.Notes,
		Items:         req.Items,
	}
	if err := h.svc.CreatePrescription(c.Request().Context(), p, physicianID); err != nil {
		return pharmacyError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPrescription(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetPrescription(c.Request().Context(), id)
	if err != nil {
		return pharmacyError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetByAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetPrescriptionByAppointment(c.Request().Context(), id)
	if err != nil {
		return pharmacyError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPending(c echo.Context) error {
	items, err := h.svc.ListPendingPrescriptions(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*Prescription{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) AuthorizeDelivery(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.AuthorizeDelivery(c.Request().Context(), id)
	if err != nil {
		return pharmacyError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

type partialDeliveryRequest struct {
	MedicationIDs []uuid.UUID `json:"medication_ids"`
}

func (h *Handler) AuthorizePartial(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req partialDeliveryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.AuthorizePartialDelivery(c.Request().Context(), id, req.MedicationIDs)
	if err != nil {
		return pharmacyError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}
