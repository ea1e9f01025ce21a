package api

import (
	"errors"
	"fmt"
	"net/http"

	models "TickVault/internal/domain/models"
	domrepo "TickVault/internal/domain/repository"
	"TickVault/internal/usecase"
	xhttp "TickVault/pkg/http"
	xlogger "TickVault/pkg/logger"
	xutil "TickVault/pkg/util"

	"github.com/labstack/echo/v4"
)

// PointsEchoHandler implements Echo-based HTTP handlers following Clean Architecture.
type PointsEchoHandler struct {
	logger   *xlogger.Logger
	points   *usecase.PointsUseCase
	runner   *usecase.RollupRunner
	raw      domrepo.RawStore
	defaultN int
	maxN     int
}

func NewPointsEchoHandler(logger *xlogger.Logger, points *usecase.PointsUseCase, runner *usecase.RollupRunner, raw domrepo.RawStore, defaultN, maxN int) *PointsEchoHandler {
	if defaultN <= 0 {
		defaultN = 500
	}
	return &PointsEchoHandler{logger: logger, points: points, runner: runner, raw: raw, defaultN: defaultN, maxN: maxN}
}

func (h *PointsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/points", h.Points)
	g.POST("/ticks", h.Ingest)
	g.POST("/rollup", h.Rollup)
	g.GET("/health", h.Health)
}

func (h *PointsEchoHandler) Ingest(c echo.Context) error {
	req := &models.IngestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	points := make([]models.RawPoint, 0, len(req.Ticks))
	for i, tick := range req.Ticks {
		ts, ok := xutil.ParseTime(tick.Time)
		if !ok {
			return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
				Code:    "ERR_TIME",
				Field:   fmt.Sprintf("ticks[%d].time", i),
				Message: "time must be RFC3339 or unix seconds",
			}})
		}
		points = append(points, models.RawPoint{
			Time:   ts,
			Symbol: tick.Symbol,
			Price:  tick.Price,
		})
	}

	if err := h.raw.StoreBatch(c.Request().Context(), points); err != nil {
		return h.errorResponse(c, "ingest", err)
	}
	return xhttp.SuccessResponse(c, models.IngestResponse{Stored: len(points)})
}

func (h *PointsEchoHandler) Points(c echo.Context) error {
	req := &models.PointsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	start, ok := xutil.ParseTime(req.Start)
	if !ok {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code:    "ERR_TIME",
			Field:   "start",
			Message: "start must be RFC3339 or unix seconds",
		}})
	}
	end, ok := xutil.ParseTime(req.End)
	if !ok {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code:    "ERR_TIME",
			Field:   "end",
			Message: "end must be RFC3339 or unix seconds",
		}})
	}

	n := req.N
	if n == 0 {
		n = h.defaultN
	}
	if h.maxN > 0 && n > h.maxN {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code:    "ERR_MAX",
			Field:   "n",
			Message: fmt.Sprintf("n must not exceed %d", h.maxN),
		}})
	}

	res, err := h.points.GetPoints(c.Request().Context(), usecase.GetPointsParams{
		Symbol: req.Symbol,
		Start:  start,
		End:    end,
		N:      n,
	})
	if err != nil {
		return h.errorResponse(c, "points", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *PointsEchoHandler) Rollup(c echo.Context) error {
	req := &models.RollupRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	if req.All {
		res, err := h.runner.RunChain(ctx, req.Symbols)
		if err != nil {
			return h.errorResponse(c, "rollup chain", err)
		}
		return xhttp.SuccessResponse(c, res)
	}

	source, err := usecase.ParseBuildSource(req.Source)
	if err != nil {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code:    "ERR_ONEOF",
			Field:   "source",
			Message: err.Error(),
		}})
	}
	target, err := domrepo.ParseTier(req.Target)
	if err != nil {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code:    "ERR_ONEOF",
			Field:   "target",
			Message: err.Error(),
		}})
	}

	res, err := h.runner.RunRollup(ctx, source, target, req.Symbols)
	if err != nil {
		return h.errorResponse(c, "rollup", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *PointsEchoHandler) Health(c echo.Context) error {
	if err := h.raw.Health(c.Request().Context()); err != nil {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_UNHEALTHY", "", "storage unreachable", http.StatusServiceUnavailable).WithError(err))
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

// errorResponse maps domain errors onto the HTTP error envelope. Validation
// and Range map to 400, NotFound to 404, everything else to 500.
func (h *PointsEchoHandler) errorResponse(c echo.Context, op string, err error) error {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_VALIDATION", verr.Field, verr.Message, http.StatusBadRequest))
	}

	var nferr *models.NotFoundError
	if errors.As(err, &nferr) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError(nferr.Error()))
	}

	var rerr *models.RangeError
	if errors.As(err, &rerr) {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_RANGE", "", rerr.Message, http.StatusBadRequest).WithParams(rerr.Details))
	}

	h.logger.Error(op+" usecase error", xlogger.Error(err))
	return xhttp.AppErrorResponse(c, xhttp.InternalError("internal error").WithError(err))
}
