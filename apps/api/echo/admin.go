package echoapi

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/likelion-sch/recruit/core"
	"github.com/likelion-sch/recruit/core/application"
)

type adminApi struct {
	svc      application.Service
	validate *validator.Validate
}

func registerAdminAPI(
	g *echo.Group,
	authed []echo.MiddlewareFunc,
	svc application.Service,
	validate *validator.Validate,
) {
	api := adminApi{svc: svc, validate: validate}

	mw := append(append([]echo.MiddlewareFunc{}, authed...), staffMiddleware)
	adg := g.Group("/applications/admin", mw...)
	adg.GET("", api.query)
	adg.GET("/notification-settings", api.settings)
	adg.PUT("/notification-settings", api.updateSettings)

	// detail endpoints
	adg.GET("/:id", api.retrieve)
	adg.PATCH("/:id/status", api.updateStatus)
	adg.GET("/:id/scores", api.scores)
	adg.POST("/:id/scores", api.saveScore)
	adg.POST("/:id/doc-finalize", api.finalizeDoc)
	adg.PATCH("/:id/doc-finalize", api.finalizeDoc)
	adg.POST("/:id/finalize", api.finalizeFinal)
	adg.PATCH("/:id/finalize", api.finalizeFinal)
	adg.PATCH("/:id/interview-schedule", api.scheduleInterview)
}

// Handlers

func (api *adminApi) query(ctx echo.Context) error {
	var filter application.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}

	page, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying applicants")
	}
	return ctx.JSON(http.StatusOK, ApplicantListResponse{
		Count:      page.Count,
		Next:       pageLink(ctx, page.Page+1, page.HasNext),
		Previous:   pageLink(ctx, page.Page-1, page.HasPrev),
		Page:       page.Page,
		TotalPages: page.TotalPages,
		Results:    ApplicantResults{OK: true, Results: page.Results},
	})
}

func (api *adminApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	applicant, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting applicant")
	}
	return ctx.JSON(http.StatusOK, ApplicantResponse{OK: true, Application: applicant})
}

func (api *adminApi) updateStatus(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var data application.StatusInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusInput")
	}
	data.Status = application.Status(strings.ToUpper(core.CleanString(string(data.Status))))
	if err = api.validate.Struct(data); err != nil {
		return err
	}

	app, err := api.svc.UpdateStatus(ctx.Request().Context(), id, data.Status)
	if err != nil {
		return errors.Wrap(err, "updating status")
	}
	return ctx.JSON(http.StatusOK, StatusResponse{OK: true, Status: app.Status})
}

func (api *adminApi) scores(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	sheet, err := api.svc.Scores(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "listing scores")
	}
	return ctx.JSON(http.StatusOK, ScoresResponse{OK: true, ScoreSheet: sheet})
}

func (api *adminApi) saveScore(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	reviewer, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data application.ScoreInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ScoreInput")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	rec, created, err := api.svc.SaveScore(ctx.Request().Context(), id, reviewer, data)
	if err != nil {
		return errors.Wrap(err, "saving score")
	}
	return ctx.JSON(http.StatusOK, ScoreResponse{OK: true, Created: created, Score: rec})
}

func (api *adminApi) finalizeDoc(ctx echo.Context) error {
	return api.finalize(ctx, application.StageDoc)
}

func (api *adminApi) finalizeFinal(ctx echo.Context) error {
	return api.finalize(ctx, application.StageFinal)
}

// finalize leaves the decision check to the gate, so a bad value reads INVALID_DECISION.
func (api *adminApi) finalize(ctx echo.Context, stage application.Stage) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var data application.DecisionInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DecisionInput")
	}
	d := application.Decision(strings.ToUpper(core.CleanString(string(data.Decision))))

	reqCtx := ctx.Request().Context()
	if stage == application.StageDoc {
		app, err := api.svc.FinalizeDoc(reqCtx, id, d)
		if err != nil {
			return errors.Wrap(err, "finalizing doc decision")
		}
		return ctx.JSON(http.StatusOK, DocDecisionResponse{OK: true, DocDecision: app.DocDecision})
	}
	app, err := api.svc.FinalizeFinal(reqCtx, id, d)
	if err != nil {
		return errors.Wrap(err, "finalizing final decision")
	}
	return ctx.JSON(http.StatusOK, FinalDecisionResponse{OK: true, FinalDecision: app.FinalDecision})
}

func (api *adminApi) scheduleInterview(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var data application.InterviewSchedule
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to InterviewSchedule")
	}
	data.Clean()
	if err = api.validate.Struct(data); err != nil {
		return err
	}
	if _, err = api.svc.ScheduleInterview(ctx.Request().Context(), id, data); err != nil {
		return errors.Wrap(err, "scheduling interview")
	}
	return ctx.JSON(http.StatusOK, okResponse{OK: true})
}

func (api *adminApi) settings(ctx echo.Context) error {
	s, err := api.svc.Settings(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting settings")
	}
	return ctx.JSON(http.StatusOK, SettingsResponse{OK: true, Settings: s})
}

func (api *adminApi) updateSettings(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data application.SettingsUpdate
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SettingsUpdate")
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}
	s, err := api.svc.UpdateSettings(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "updating settings")
	}
	return ctx.JSON(http.StatusOK, SettingsResponse{OK: true, Settings: s})
}

type (
	ApplicantResults struct {
		OK      bool                    `json:"ok"`
		Results []application.Applicant `json:"results"`
	}

	ApplicantListResponse struct {
		Count      int              `json:"count"`
		Next       *string          `json:"next"`
		Previous   *string          `json:"previous"`
		Page       int              `json:"page"`
		TotalPages int              `json:"total_pages"`
		Results    ApplicantResults `json:"results"`
	}

	ApplicantResponse struct {
		OK          bool                  `json:"ok"`
		Application application.Applicant `json:"application"`
	}

	ScoresResponse struct {
		OK bool `json:"ok"`
		application.ScoreSheet
	}

	ScoreResponse struct {
		OK      bool                    `json:"ok"`
		Created bool                    `json:"created"`
		Score   application.ScoreRecord `json:"score"`
	}

	DocDecisionResponse struct {
		OK          bool                 `json:"ok"`
		DocDecision application.Decision `json:"doc_decision"`
	}

	FinalDecisionResponse struct {
		OK            bool                 `json:"ok"`
		FinalDecision application.Decision `json:"final_decision"`
	}

	SettingsResponse struct {
		OK       bool                             `json:"ok"`
		Settings application.NotificationSettings `json:"settings"`
	}
)
