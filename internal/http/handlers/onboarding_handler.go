// Onboarding and mode HTTP handlers.
//
//   - POST /onboarding/evaluate   (preview the mode suggestion)
//   - POST /onboarding            (persist a baseline, start or pause programs)
//   - POST /mode                  (switch the user's mode)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/rehab-plan-backend/internal/http/middleware"
	"github.com/tbourn/rehab-plan-backend/internal/services"
)

// ModeRequest is the JSON payload for switching modes.
type ModeRequest struct {
	Mode string `json:"mode" binding:"required" example:"maintenance"`
}

// EvaluateOnboarding godoc
// @ID          evaluateOnboarding
// @Summary     Preview a mode suggestion
// @Description Validates an intake baseline and returns the rehab/maintenance suggestion without persisting anything.
// @Tags        Onboarding
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (header auth mode)"  example(user123)
// @Param       body       body    services.OnboardingInput  true  "Intake baseline"
//
// @Success     200  {object}  rules.Suggestion
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Router      /onboarding/evaluate [post]
func (h *Handlers) EvaluateOnboarding(c *gin.Context) {
	var in services.OnboardingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	sug, err := h.onboarding.Evaluate(in)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, sug)
}

// SubmitOnboarding godoc
// @ID          submitOnboarding
// @Summary     Submit an intake baseline
// @Description Persists the profile. A rehab suggestion starts (or resumes) the program for the area and side,
// @Description records an intake log for today in the user's time zone and generates the initial plan.
// @Description A maintenance suggestion pauses the user's active programs.
// @Tags        Onboarding
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (header auth mode)"  example(user123)
// @Param       X-User-TZ  header  string  false "IANA time zone"             example(Europe/Athens)
// @Param       body       body    services.OnboardingInput  true  "Intake baseline"
//
// @Success     201  {object}  services.OnboardingResult
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     409  {object}  handlers.ErrorResponse  "Conflict, retry"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /onboarding [post]
func (h *Handlers) SubmitOnboarding(c *gin.Context) {
	var in services.OnboardingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	res, err := h.onboarding.Submit(c.Request.Context(), userID(c), middleware.Location(c), in)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusCreated, res)
}

// SwitchMode godoc
// @ID          switchMode
// @Summary     Switch between rehab and maintenance
// @Description Switching to maintenance pauses every active program of the user.
// @Tags        Onboarding
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (header auth mode)"  example(user123)
// @Param       body       body    handlers.ModeRequest  true  "Target mode"
//
// @Success     200  {object}  services.ModeResult
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Router      /mode [post]
func (h *Handlers) SwitchMode(c *gin.Context) {
	var req ModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "mode required")
		return
	}
	res, err := h.programs.SwitchMode(c.Request.Context(), userID(c), req.Mode)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}
