package treatment

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/glowclinic/booking-api/internal/model"
	"github.com/glowclinic/booking-api/internal/service/treatment"
	apperrors "github.com/glowclinic/booking-api/pkg/errors"
	"github.com/glowclinic/booking-api/pkg/httputil"
)

type Handler struct {
	service *treatment.Service
}

func NewHandler(service *treatment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) ListTreatments(c *gin.Context) {
	filters := &model.TreatmentFilters{
		Category: c.Query("category"),
		Location: c.Query("location"),
	}

	treatments, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, "", treatments)
}

func (h *Handler) GetTreatment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid treatment ID"))
		return
	}

	t, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, "", t)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	treatments := r.Group("/treatments")
	{
		treatments.GET("", h.ListTreatments)
		treatments.GET("/:id", h.GetTreatment)
	}
}
