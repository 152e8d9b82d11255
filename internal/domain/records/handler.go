package records

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sgc/sgc/internal/domain/scheduling"
	"github.com/sgc/sgc/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/medical-records", h.CreateRecord, auth.RequireExactRole(auth.RoleDoctor))
	api.GET("/medical-records/patient/:id", h.PatientHistory, auth.RequireExactRole(auth.RoleDoctor))

	api.POST("/certificates/medical", h.IssueMedicalCertificate, auth.RequireExactRole(auth.RoleDoctor))
	api.POST("/certificates/attendance", h.IssueAttendanceCertificate, auth.RequireExactRole(auth.RoleDoctor))
	api.GET("/certificates/medical/appointment/:id", h.MedicalCertificate)
	api.GET("/certificates/attendance/appointment/:id", h.AttendanceCertificate)
}

func recordsError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, scheduling.ErrNotFound), errors.Is(err, ErrRecordNotFound), errors.Is(err, ErrCertificateNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotAuthor), errors.Is(err, ErrNotAuthorized):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

func callerID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid user id")
	}
	return id, nil
}

func (h *Handler) CreateRecord(c echo.Context) error {
	var r MedicalRecord
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	physicianID, err := callerID(c)
	if err != nil {
		return err
	}
	if err := h.svc.CreateRecord(c.Request().Context(), &r, physicianID); err != nil {
		return recordsError(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) PatientHistory(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	physicianID, err := callerID(c)
	if err != nil {
		return err
	}
	out, err := h.svc.PatientHistory(c.Request().Context(), patientID, physicianID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) IssueMedicalCertificate(c echo.Context) error {
	var cert MedicalCertificate
	if err := c.Bind(&cert); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	physicianID, err := callerID(c)
	if err != nil {
		return err
	}
	if err := h.svc.IssueMedicalCertificate(c.Request().Context(), &cert, physicianID); err != nil {
		return recordsError(c, err)
	}
	return c.JSON(http.StatusCreated, cert)
}

func (h *Handler) IssueAttendanceCertificate(c echo.Context) error {
	var cert AttendanceCertificate
	if err := c.Bind(&cert); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	physicianID, err := callerID(c)
	if err != nil {
		return err
	}
	if err := h.svc.IssueAttendanceCertificate(c.Request().Context(), &cert, physicianID); err != nil {
		return recordsError(c, err)
	}
	return c.JSON(http.StatusCreated, cert)
}

func (h *Handler) MedicalCertificate(c echo.Context) error {
	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	viewerID, err := callerID(c)
	if err != nil {
		return err
	}
	role := auth.RoleFromContext(c.Request().Context())
	out, err := h.svc.MedicalCertificateForAppointment(c.Request().Context(), appointmentID, viewerID, role)
	if err != nil {
		return recordsError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) AttendanceCertificate(c echo.Context) error {
	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	viewerID, err := callerID(c)
	if err != nil {
		return err
	}
	role := auth.RoleFromContext(c.Request().Context())
	out, err := h.svc.AttendanceCertificateForAppointment(c.Request().Context(), appointmentID, viewerID, role)
	if err != nil {
		return recordsError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
