package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Conteos-api/internal/application/counting"
	"github.com/jhoicas/Conteos-api/internal/application/dto"
	"github.com/jhoicas/Conteos-api/internal/domain"
)

// CountHandler maneja las peticiones HTTP del motor de conteos cíclicos
// (protegido, requiere módulo counting).
type CountHandler struct {
	uc      *counting.CycleCountUseCase
	sheetUC *counting.SheetUseCase
}

// NewCountHandler construye el handler.
func NewCountHandler(uc *counting.CycleCountUseCase, sheetUC *counting.SheetUseCase) *CountHandler {
	return &CountHandler{uc: uc, sheetUC: sheetUC}
}

// countError mapea los errores del motor a códigos HTTP. Los errores tipados
// del dominio llevan el detalle (estado actual, líneas faltantes); aquí solo
// se les pone código y status.
func countError(c *fiber.Ctx, err error) error {
	var transErr *domain.InvalidTransitionError
	if errors.As(err, &transErr) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_TRANSITION", Message: transErr.Error()})
	}
	var incErr *domain.IncompleteCountError
	if errors.As(err, &incErr) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "INCOMPLETE_COUNT", Message: incErr.Error()})
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "el rol no tiene permiso para esta operación"})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}

// Create godoc
// @Summary      Crear sesión de conteo
// @Description  Crea la sesión con su alcance resuelto (FULL, ABC_CLASS_A/B/C, RANDOM o SPOT). Con scheduled_at queda SCHEDULED; si no, DRAFT.
// @Tags         counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateCountRequest  true  "Datos de la sesión"
// @Success      201   {object}  dto.CountResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/counts [post]
func (h *CountHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateCountRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Create(c.Context(), GetCompanyID(c), GetUserID(c), GetRole(c), in)
	if err != nil {
		return countError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Start godoc
// @Summary      Iniciar conteo (congela el snapshot)
// @Description  Toma la foto de cantidad en libros y costo por línea y pasa la sesión a IN_PROGRESS.
// @Tags         counts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sesión"
// @Success      200  {object}  dto.CountResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/counts/{id}/start [post]
func (h *CountHandler) Start(c *fiber.Ctx) error {
	out, err := h.uc.Start(c.Context(), c.Params("id"), GetCompanyID(c), GetRole(c))
	if err != nil {
		return countError(c, err)
	}
	return c.JSON(out)
}

// RecordCount godoc
// @Summary      Registrar conteo físico de una línea
// @Description  Registra (o corrige) la cantidad contada de un producto en alcance y recalcula varianza y agregados.
// @Tags         counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la sesión"
// @Param        body  body  dto.RecordCountRequest  true  "Conteo de la línea"
// @Success      200   {object}  dto.CountResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/counts/{id}/items [post]
func (h *CountHandler) RecordCount(c *fiber.Ctx) error {
	var in dto.RecordCountRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.RecordCount(c.Context(), c.Params("id"), GetCompanyID(c), GetUserID(c), GetRole(c), in)
	if err != nil {
		return countError(c, err)
	}
	return c.JSON(out)
}

// Submit godoc
// @Summary      Enviar conteo a revisión
// @Description  Exige conteo completo; con líneas pendientes responde 422 con cuántas faltan.
// @Tags         counts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sesión"
// @Success      200  {object}  dto.CountResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/counts/{id}/submit [post]
func (h *CountHandler) Submit(c *fiber.Ctx) error {
	out, err := h.uc.SubmitForReview(c.Context(), c.Params("id"), GetCompanyID(c), GetRole(c))
	if err != nil {
		return countError(c, err)
	}
	return c.JSON(out)
}

// Approve godoc
// @Summary      Aprobar conteo y publicar ajustes
// @Description  Pasa la sesión a COMPLETED y publica un ajuste por cada línea con varianza. Con fallos parciales responde 200 con adjustments_failed > 0; la sesión queda COMPLETED y se reintenta vía retry-adjustments.
// @Tags         counts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sesión"
// @Success      200  {object}  dto.ApproveCountResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/counts/{id}/approve [post]
func (h *CountHandler) Approve(c *fiber.Ctx) error {
	out, err := h.uc.Approve(c.Context(), c.Params("id"), GetCompanyID(c), GetUserID(c), GetRole(c))
	if err != nil {
		var pubErr *domain.PublicationError
		if errors.As(err, &pubErr) && out != nil {
			// La aprobación quedó en pie; el parcial viaja en el cuerpo.
			return c.JSON(out)
		}
		return countError(c, err)
	}
	return c.JSON(out)
}

// RetryAdjustments godoc
// @Summary      Reintentar ajustes pendientes
// @Description  Re-invoca el publicador sobre una sesión COMPLETED. Las líneas ya ajustadas se saltan (exactamente un asiento por línea con varianza).
// @Tags         counts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sesión"
// @Success      200  {object}  dto.ApproveCountResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/counts/{id}/retry-adjustments [post]
func (h *CountHandler) RetryAdjustments(c *fiber.Ctx) error {
	out, err := h.uc.RetryAdjustments(c.Context(), c.Params("id"), GetCompanyID(c), GetRole(c))
	if err != nil {
		var pubErr *domain.PublicationError
		if errors.As(err, &pubErr) && out != nil {
			return c.JSON(out)
		}
		return countError(c, err)
	}
	return c.JSON(out)
}

// Reject godoc
// @Summary      Rechazar conteo en revisión
// @Description  Devuelve la sesión a IN_PROGRESS. El motivo es obligatorio; clear_counts decide si se resetean los conteos (recuento completo) o se conservan.
// @Tags         counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la sesión"
// @Param        body  body  dto.RejectCountRequest  true  "Motivo y alcance del rechazo"
// @Success      200   {object}  dto.CountResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/counts/{id}/reject [post]
func (h *CountHandler) Reject(c *fiber.Ctx) error {
	var in dto.RejectCountRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Reject(c.Context(), c.Params("id"), GetCompanyID(c), GetRole(c), in)
	if err != nil {
		return countError(c, err)
	}
	return c.JSON(out)
}

// Cancel godoc
// @Summary      Cancelar conteo
// @Description  Aborta la sesión desde cualquier estado no terminal.
// @Tags         counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la sesión"
// @Param        body  body  dto.CancelCountRequest  false  "Motivo opcional"
// @Success      200   {object}  dto.CountResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/counts/{id}/cancel [post]
func (h *CountHandler) Cancel(c *fiber.Ctx) error {
	var in dto.CancelCountRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		}
	}
	out, err := h.uc.Cancel(c.Context(), c.Params("id"), GetCompanyID(c), GetRole(c), in)
	if err != nil {
		return countError(c, err)
	}
	return c.JSON(out)
}

// GetStatus godoc
// @Summary      Consultar sesión de conteo
// @Description  Devuelve la sesión con progreso, líneas, varianzas y resumen. En conteo ciego los roles sin revisión no ven cantidad en libros ni varianza hasta COMPLETED.
// @Tags         counts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sesión"
// @Success      200  {object}  dto.CountResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/counts/{id} [get]
func (h *CountHandler) GetStatus(c *fiber.Ctx) error {
	out, err := h.uc.GetStatus(c.Context(), c.Params("id"), GetCompanyID(c), GetRole(c))
	if err != nil {
		return countError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar sesiones de conteo
// @Tags         counts
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "Filtrar por estado"
// @Param        limit   query  int     false  "Límite"   default(20)
// @Param        offset  query  int     false  "Offset"   default(0)
// @Success      200     {object}  dto.CountListResponse
// @Router       /api/counts [get]
func (h *CountHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	out, err := h.uc.List(c.Context(), GetCompanyID(c), c.Query("status"), limit, offset)
	if err != nil {
		return countError(c, err)
	}
	return c.JSON(out)
}

// Sheet godoc
// @Summary      Hoja de conteo imprimible (PDF)
// @Description  Genera la hoja con las líneas en alcance y una columna en blanco para anotar. En conteo ciego se omite la cantidad en libros.
// @Tags         counts
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la sesión"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/counts/{id}/sheet [get]
func (h *CountHandler) Sheet(c *fiber.Ctx) error {
	pdf, err := h.sheetUC.Generate(c.Context(), c.Params("id"), GetCompanyID(c), GetRole(c))
	if err != nil {
		return countError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="hoja-conteo.pdf"`)
	return c.Send(pdf)
}
