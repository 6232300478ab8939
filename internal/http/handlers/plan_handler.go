// Plan HTTP handlers.
//
//   - POST /plans/generate                 (explicit trigger: log or onboarding profile)
//   - GET  /programs/{id}/plans/latest
//   - GET  /programs/{id}/plans            (progression chain, newest to root, weak ETag)
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/rehab-plan-backend/internal/domain"
	"github.com/tbourn/rehab-plan-backend/internal/repo"
	"github.com/tbourn/rehab-plan-backend/internal/services"
	"github.com/tbourn/rehab-plan-backend/internal/utils"
)

// ChainResponse is a program's progression chain.
type ChainResponse struct {
	Plans []domain.RehabPlan `json:"plans"`
}

// GeneratePlan godoc
// @ID          generatePlan
// @Summary     Generate a plan
// @Description Exactly one of log_id or onboarding_profile_id must be set. Generating twice for the same
// @Description trigger is a conflict. AI failures never fail the request: the plan falls back to the shortlist.
// @Tags        Plans
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (header auth mode)"  example(user123)
// @Param       body       body    services.GenerateRequest  true  "Trigger"
//
// @Success     201  {object}  domain.RehabPlan
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     404  {object}  handlers.ErrorResponse  "Log or profile not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Plan exists or concurrent write, retry"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Router      /plans/generate [post]
func (h *Handlers) GeneratePlan(c *gin.Context) {
	var req services.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	p, err := h.plans.Generate(c.Request.Context(), userID(c), req)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusCreated, p)
}

// LatestPlan godoc
// @ID          getLatestPlan
// @Summary     Latest plan of a program
// @Tags        Plans
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (header auth mode)"  example(user123)
// @Param       id         path    string  true  "Program ID"  format(uuid)
//
// @Success     200  {object}  domain.RehabPlan
// @Failure     404  {object}  handlers.ErrorResponse  "Program not found or no plan yet"
// @Router      /programs/{id}/plans/latest [get]
func (h *Handlers) LatestPlan(c *gin.Context) {
	p, err := h.plans.Latest(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// ListPlans godoc
// @ID          getProgressionChain
// @Summary     Progression chain of a program
// @Description Walks parent links from the latest chain plan back to the root. Supports weak ETag.
// @Tags        Plans
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (header auth mode)"  example(user123)
// @Param       If-None-Match  header  string  false "Weak ETag from a previous response"
// @Param       id             path    string  true  "Program ID"  format(uuid)
// @Param       limit          query   int     false "Maximum links"  minimum(1) maximum(1000) default(1000)
//
// @Success     200  {object}  handlers.ChainResponse
// @Success     304  "Not Modified"
// @Failure     404  {object}  handlers.ErrorResponse  "Program not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Chain corrupt"
// @Router      /programs/{id}/plans [get]
func (h *Handlers) ListPlans(c *gin.Context) {
	ctx := c.Request.Context()
	uid, programID := userID(c), c.Param("id")
	limit := utils.Clamp(utils.AtoiDefault(c.Query("limit"), services.MaxChainDepth), 1, services.MaxChainDepth)

	if svc, isSvc := h.plans.(*services.PlanService); isSvc && svc.DB != nil {
		if _, err := h.programs.Get(ctx, uid, programID); err != nil {
			serviceError(c, err)
			return
		}
		if count, maxTS, err := repo.PlansStats(ctx, svc.DB, programID); err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.UnixNano()
			}
			etag := fmt.Sprintf(`W/"plans:%s:%d:%d:%d"`, programID, count, ts, limit)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	plans, err := h.plans.Chain(ctx, uid, programID, limit)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, ChainResponse{Plans: plans})
}
