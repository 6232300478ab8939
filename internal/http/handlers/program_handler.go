// Program HTTP handlers.
//
//   - GET /programs                   (list, optional ?status=)
//   - GET /programs/{id}
//   - PUT /programs/{id}/status
//   - GET /programs/{id}/adherence    (streaks + weekly summary)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/rehab-plan-backend/internal/domain"
	"github.com/tbourn/rehab-plan-backend/internal/http/middleware"
)

// UpdateStatusRequest is the JSON payload for changing a program's status.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required" example:"paused"`
}

// ListProgramsResponse wraps the user's programs.
type ListProgramsResponse struct {
	Programs []domain.RehabProgram `json:"programs"`
}

// ListPrograms godoc
// @ID          listPrograms
// @Summary     List programs
// @Tags        Programs
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (header auth mode)"  example(user123)
// @Param       status     query   string  false "Filter by status"  Enums(active, paused, completed)
//
// @Success     200  {object}  handlers.ListProgramsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown status"
// @Router      /programs [get]
func (h *Handlers) ListPrograms(c *gin.Context) {
	items, err := h.programs.List(c.Request.Context(), userID(c), c.Query("status"))
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, ListProgramsResponse{Programs: items})
}

// GetProgram godoc
// @ID          getProgram
// @Summary     Get a program
// @Tags        Programs
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (header auth mode)"  example(user123)
// @Param       id         path    string  true  "Program ID"  format(uuid)
//
// @Success     200  {object}  domain.RehabProgram
// @Failure     404  {object}  handlers.ErrorResponse  "Program not found"
// @Router      /programs/{id} [get]
func (h *Handlers) GetProgram(c *gin.Context) {
	p, err := h.programs.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// UpdateProgramStatus godoc
// @ID          updateProgramStatus
// @Summary     Change a program's status
// @Description Pausing stops logging against the program; re-activating resumes it with its streak intact.
// @Tags        Programs
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (header auth mode)"  example(user123)
// @Param       id         path    string  true  "Program ID"  format(uuid)
// @Param       body       body    handlers.UpdateStatusRequest  true  "New status"
//
// @Success     200  {object}  domain.RehabProgram
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown status"
// @Failure     404  {object}  handlers.ErrorResponse  "Program not found"
// @Router      /programs/{id}/status [put]
func (h *Handlers) UpdateProgramStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status required")
		return
	}
	p, err := h.programs.UpdateStatus(c.Request.Context(), userID(c), c.Param("id"), req.Status)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// GetAdherence godoc
// @ID          getProgramAdherence
// @Summary     Streaks and weekly summary
// @Description The summary is regenerated at most once per period and otherwise served byte-for-byte from storage.
// @Tags        Programs
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (header auth mode)"  example(user123)
// @Param       X-User-TZ  header  string  false "IANA time zone"             example(Europe/Athens)
// @Param       id         path    string  true  "Program ID"  format(uuid)
//
// @Success     200  {object}  services.Adherence
// @Failure     404  {object}  handlers.ErrorResponse  "Program not found"
// @Router      /programs/{id}/adherence [get]
func (h *Handlers) GetAdherence(c *gin.Context) {
	a, err := h.adherence.Get(c.Request.Context(), userID(c), c.Param("id"), middleware.Location(c))
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, a)
}
