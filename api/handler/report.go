package handler

import (
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/lpcheck/cache"
	"github.com/use-agent/lpcheck/config"
	"github.com/use-agent/lpcheck/extract"
	"github.com/use-agent/lpcheck/models"
	"github.com/use-agent/lpcheck/report"
	"github.com/use-agent/lpcheck/resolver"
	"github.com/use-agent/lpcheck/webhook"
)

var (
	reChain    = regexp.MustCompile(`^[a-z0-9-]{1,32}$`)
	rePosition = regexp.MustCompile(`^\d{1,20}$`)
)

// reportQuery holds per-request overrides of the configured defaults.
type reportQuery struct {
	RateMin    *float64 `form:"rate_min"`
	RateMax    *float64 `form:"rate_max"`
	ETHInitial *float64 `form:"eth_initial"`
	// MaxAge enables the response cache, in milliseconds.
	MaxAge int `form:"max_age" binding:"gte=0"`
}

// Report returns a handler for GET /api/v1/positions/:chain/:id/report.
//
// Orchestration flow:
//  1. Validate path and query, apply configured defaults.
//  2. Cache lookup when max_age > 0.
//  3. Resolver.Resolve → position value + rate   (records render_ms, extract_ms)
//  4. report.Compare, fill timing, cache and notify.
func Report(res *resolver.Resolver, cfg *config.Config, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		chain, id := c.Param("chain"), c.Param("id")
		if !reChain.MatchString(chain) || !rePosition.MatchString(id) {
			badRequest(c, "chain must be a lowercase network name and id a numeric position id")
			return
		}

		var q reportQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			badRequest(c, err.Error())
			return
		}

		opts := extract.Options{
			AmountFloor: cfg.Extract.AmountFloor,
			RateRange:   cfg.Extract.Range(),
		}
		if q.RateMin != nil {
			opts.RateRange.Min = *q.RateMin
		}
		if q.RateMax != nil {
			opts.RateRange.Max = *q.RateMax
		}
		ethInitial := cfg.Position.ETHInitial
		if q.ETHInitial != nil {
			ethInitial = *q.ETHInitial
		}
		if ethInitial < 0 {
			badRequest(c, "eth_initial must not be negative")
			return
		}

		pipeline, err := extract.New(opts)
		if err != nil {
			badRequest(c, err.Error())
			return
		}

		url := config.PositionURL(cfg.Position.BaseURL, chain, id)

		// ── 2. Cache lookup ────────────────────────────────────────
		cacheKey := cache.Key(url, opts.RateRange.Min, opts.RateRange.Max, ethInitial)
		if cc != nil && q.MaxAge > 0 {
			if cached, hit := cc.Get(cacheKey, q.MaxAge); hit {
				out := *cached
				out.CacheStatus = "hit"
				out.Timing = models.TimingInfo{
					TotalMs: time.Since(totalStart).Milliseconds(),
				}
				c.JSON(http.StatusOK, out)
				return
			}
		}

		// ── 3. Resolve ─────────────────────────────────────────────
		v, err := res.WithPipeline(pipeline).Resolve(c.Request.Context(), url)
		if err != nil {
			resp := errorResponse(err, models.TimingInfo{
				TotalMs: time.Since(totalStart).Milliseconds(),
			})
			resp.URL = url
			notify(cfg.Webhook, resp)
			c.JSON(mapErrorToStatus(models.AsScrapeError(err)), resp)
			return
		}

		// ── 4. Compare and respond ─────────────────────────────────
		rep := report.Compare(v.PositionUSD, v.Rate, ethInitial)
		rep.PositionRung = v.PositionRung
		rep.RateSource = v.RateSource

		resp := &models.ReportResponse{
			Success: true,
			URL:     url,
			Report:  rep.Model(),
			Timing: models.TimingInfo{
				TotalMs:   time.Since(totalStart).Milliseconds(),
				RenderMs:  v.RenderDuration.Milliseconds(),
				ExtractMs: v.ExtractDuration.Milliseconds(),
			},
		}

		if cc != nil && q.MaxAge > 0 {
			cc.Set(cacheKey, resp)
			out := *resp
			out.CacheStatus = "miss"
			resp = &out
		}

		notify(cfg.Webhook, resp)
		c.JSON(http.StatusOK, resp)
	}
}

func notify(cfg config.WebhookConfig, resp *models.ReportResponse) {
	if cfg.URL == "" {
		return
	}
	webhook.DeliverAsync(cfg.URL, cfg.Secret, webhook.NewReportEvent(resp))
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, models.ReportResponse{
		Success: false,
		Error: &models.ErrorDetail{
			Code:    models.ErrCodeInvalidInput,
			Message: msg,
		},
	})
}

// errorResponse builds the failure envelope for err, including hints.
func errorResponse(err error, timing models.TimingInfo) *models.ReportResponse {
	return &models.ReportResponse{
		Success: false,
		Error:   models.AsScrapeError(err).ToDetail(),
		Timing:  timing,
	}
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodePositionUnresolved, models.ErrCodeRateUnresolved:
		return http.StatusUnprocessableEntity // 422
	case models.ErrCodeBrowserCrash:
		return http.StatusServiceUnavailable // 503
	default:
		return http.StatusInternalServerError // 500
	}
}
