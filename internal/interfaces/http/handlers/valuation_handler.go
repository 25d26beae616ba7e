package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appvaluation "github.com/turtacn/AgValue-Intelligence/internal/application/valuation"
	"github.com/turtacn/AgValue-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/AgValue-Intelligence/internal/interfaces/http/middleware"
	"github.com/turtacn/AgValue-Intelligence/pkg/errors"
)

// ValuationHandler serves the valuation endpoints.
type ValuationHandler struct {
	service appvaluation.Service
	logger  logging.Logger
}

// NewValuationHandler creates a ValuationHandler.
func NewValuationHandler(service appvaluation.Service, logger logging.Logger) *ValuationHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ValuationHandler{service: service, logger: logger.Named("http.valuation")}
}

// valuationRequest is the POST /valuations body.
type valuationRequest struct {
	Make        string   `json:"make" binding:"required"`
	Model       string   `json:"model" binding:"required"`
	Year        int      `json:"year"`
	Condition   string   `json:"condition"`
	HoursUsed   *float64 `json:"hours_used"`
	Description string   `json:"description"`

	// Narrate requests a prose summary from the appraisal model in addition
	// to the numeric result.
	Narrate bool `json:"narrate"`
}

// Create handles POST /api/v1/valuations.
func (h *ValuationHandler) Create(c *gin.Context) {
	var req valuationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.InvalidParam(err.Error()))
		return
	}

	input := &appvaluation.EvaluateInput{
		RequestID:   middleware.GetRequestID(c),
		Make:        req.Make,
		Model:       req.Model,
		Year:        req.Year,
		Condition:   req.Condition,
		HoursUsed:   req.HoursUsed,
		Description: req.Description,
	}

	var (
		result *appvaluation.Result
		err    error
	)
	if req.Narrate {
		result, err = h.service.Appraise(c.Request.Context(), input)
	} else {
		result, err = h.service.Evaluate(c.Request.Context(), input)
	}
	if err != nil {
		if errors.IsInsufficientData(err) {
			h.logger.Info("no comparable sales for request",
				logging.String("make", req.Make), logging.String("model", req.Model))
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
