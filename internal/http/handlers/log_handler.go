// Symptom log HTTP handlers.
//
//   - POST  /programs/{id}/logs   (record a log; Idempotency-Key aware)
//   - GET   /programs/{id}/logs   (paginated, weak ETag)
//   - PATCH /logs/{id}/notes      (the only permitted edit)
//
// Idempotency: when a key already produced a log for (user, program), the
// handler replays that log with its plan and program and sets
// Idempotency-Replayed: true. A replay whose log has no plan yet (the first
// attempt hit a conflict) retries generation once.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/rehab-plan-backend/internal/domain"
	"github.com/tbourn/rehab-plan-backend/internal/http/middleware"
	"github.com/tbourn/rehab-plan-backend/internal/repo"
	"github.com/tbourn/rehab-plan-backend/internal/services"
)

// UpdateNotesRequest is the JSON payload for editing log notes.
type UpdateNotesRequest struct {
	Notes string `json:"notes" example:"Felt better after the walk."`
}

// ListLogsResponse contains a page of logs and pagination metadata.
type ListLogsResponse struct {
	Logs       []domain.RehabLog `json:"logs"`
	Pagination Pagination        `json:"pagination"`
}

// PostLog godoc
// @ID          recordLog
// @Summary     Record a daily symptom log
// @Description Stores the log, advances the streak, generates the next plan in the progression chain and
// @Description refreshes the weekly summary when it is stale. Supports Idempotency-Key for safe retries.
// @Tags        Logs
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (header auth mode)"  example(user123)
// @Param       X-User-TZ        header  string  false "IANA time zone"             example(Europe/Athens)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       id               path    string  true  "Program ID"  format(uuid)
// @Param       body             body    services.LogInput  true  "Symptom log"
//
// @Success     201  {object}  services.RecordResult
// @Success     200  {object}  services.RecordResult  "Replayed"
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     404  {object}  handlers.ErrorResponse  "Program not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Duplicate date, inactive program, or retryable conflict"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Router      /programs/{id}/logs [post]
func (h *Handlers) PostLog(c *gin.Context) {
	ctx := c.Request.Context()
	uid, programID := userID(c), c.Param("id")

	var in services.LogInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" && h.replayLog(c, uid, programID, idemKey) {
		return
	}

	res, err := h.logs.Record(ctx, uid, programID, middleware.Location(c), in)
	if res != nil && res.Log != nil && idemKey != "" {
		// The log is committed even when plan generation conflicted.
		h.rememberLog(c, uid, programID, idemKey, res.Log.ID)
	}
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusCreated, res)
}

// replayLog serves a stored result for idemKey. It reports false when
// nothing was stored, so the caller processes the request normally.
func (h *Handlers) replayLog(c *gin.Context, uid, programID, idemKey string) bool {
	svc, isSvc := h.logs.(*services.LogService)
	if !isSvc || svc.DB == nil {
		return false
	}
	ctx := c.Request.Context()
	rec, err := repo.GetIdempotency(ctx, svc.DB, uid, programID, idemKey, time.Now().UTC())
	if err != nil {
		return false
	}
	l, err := h.logs.Get(ctx, uid, rec.ResourceID)
	if err != nil {
		return false
	}
	res := &services.RecordResult{Log: l}
	if p, err := repo.GetProgram(ctx, svc.DB, programID, uid); err == nil {
		res.Program = p
	}

	plan, err := repo.PlanByLog(ctx, svc.DB, l.ID)
	if errors.Is(err, repo.ErrNotFound) {
		plan, err = h.plans.GenerateForLog(ctx, uid, l.ID)
	}
	if err != nil {
		serviceError(c, err)
		return true
	}
	res.Plan = plan
	if res.Program != nil {
		res.Summary = res.Program.LastSummaryJSON
	}

	c.Header(middleware.HeaderReplayed, "true")
	ok(c, http.StatusOK, res)
	return true
}

func (h *Handlers) rememberLog(c *gin.Context, uid, programID, idemKey, logID string) {
	svc, isSvc := h.logs.(*services.LogService)
	if !isSvc || svc.DB == nil {
		return
	}
	if _, err := repo.CreateIdempotency(c.Request.Context(), svc.DB, uid, programID, idemKey, logID, http.StatusCreated, h.IdempotencyTTL); err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("store idempotency key")
	}
}

// ListLogs godoc
// @ID          listLogs
// @Summary     List a program's logs
// @Description Newest date first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Logs
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (header auth mode)"  example(user123)
// @Param       If-None-Match  header  string  false "Weak ETag from a previous response"
// @Param       id             path    string  true  "Program ID"  format(uuid)
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListLogsResponse
// @Success     304  "Not Modified"
// @Failure     404  {object}  handlers.ErrorResponse  "Program not found"
// @Router      /programs/{id}/logs [get]
func (h *Handlers) ListLogs(c *gin.Context) {
	ctx := c.Request.Context()
	uid, programID := userID(c), c.Param("id")

	// ETag pre-check (best effort), only for programs the caller owns.
	if svc, isSvc := h.logs.(*services.LogService); isSvc && svc.DB != nil {
		if _, err := h.programs.Get(ctx, uid, programID); err != nil {
			serviceError(c, err)
			return
		}
		if count, maxTS, err := repo.LogsStats(ctx, svc.DB, programID); err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.UnixNano()
			}
			etag := fmt.Sprintf(`W/"logs:%s:%d:%d"`, programID, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	page, pageSize := clampPagination(c)
	items, total, err := h.logs.ListPage(ctx, uid, programID, page, pageSize)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, ListLogsResponse{Logs: items, Pagination: newPagination(page, pageSize, total)})
}

// UpdateLogNotes godoc
// @ID          updateLogNotes
// @Summary     Edit a log's notes
// @Description Notes are the only field of a log that can change after it is recorded.
// @Tags        Logs
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (header auth mode)"  example(user123)
// @Param       id         path    string  true  "Log ID"  format(uuid)
// @Param       body       body    handlers.UpdateNotesRequest  true  "New notes"
//
// @Success     200  {object}  domain.RehabLog
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     404  {object}  handlers.ErrorResponse  "Log not found"
// @Router      /logs/{id}/notes [patch]
func (h *Handlers) UpdateLogNotes(c *gin.Context) {
	var req UpdateNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	l, err := h.logs.UpdateNotes(c.Request.Context(), userID(c), c.Param("id"), req.Notes)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, l)
}
