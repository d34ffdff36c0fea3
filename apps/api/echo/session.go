package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/likelion-sch/recruit/core"
	"github.com/likelion-sch/recruit/core/session"
)

type sessionApi struct {
	svc      session.Service
	validate *validator.Validate
}

func registerSessionAPI(
	g *echo.Group,
	authed []echo.MiddlewareFunc,
	svc session.Service,
	validate *validator.Validate,
) {
	api := sessionApi{svc: svc, validate: validate}
	staff := append(append([]echo.MiddlewareFunc{}, authed...), staffMiddleware)

	sg := g.Group("/sessions")
	sg.GET("/quizzes", api.listQuizzes, authed...)
	sg.POST("/quizzes", api.createQuiz, staff...)
	sg.GET("/quizzes/:id", api.getQuiz, authed...)
	sg.POST("/quizzes/:id/answer", api.answerQuiz, authed...)

	sg.GET("/qna", api.listPosts, authed...)
	sg.POST("/qna", api.createPost, authed...)
	sg.GET("/qna/:id", api.getPost, authed...)
	sg.POST("/qna/:id/comments", api.addComment, authed...)

	sg.GET("/assignments", api.listAssignments, authed...)
	sg.POST("/assignments", api.createAssignment, staff...)
	sg.GET("/assignments/:id", api.getAssignment, authed...)
	sg.POST("/assignments/:id/submit", api.submit, authed...)
	sg.PATCH("/submissions/:id/read", api.markRead, staff...)

	sg.GET("/announcements", api.listAnnouncements, authed...)
	sg.POST("/announcements", api.createAnnouncement, staff...)
}

// Quiz

func (api *sessionApi) listQuizzes(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	quizzes, err := api.svc.Quizzes(ctx.Request().Context(), usr, queryTrack(ctx))
	if err != nil {
		return errors.Wrap(err, "listing quizzes")
	}
	return ctx.JSON(http.StatusOK, quizzes)
}

func (api *sessionApi) getQuiz(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	quiz, err := api.svc.Quiz(ctx.Request().Context(), usr, id)
	if err != nil {
		return errors.Wrap(err, "getting quiz")
	}
	return ctx.JSON(http.StatusOK, quiz)
}

func (api *sessionApi) createQuiz(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data session.NewQuiz
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuiz")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	quiz, err := api.svc.CreateQuiz(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating quiz")
	}
	return ctx.JSON(http.StatusCreated, quiz)
}

func (api *sessionApi) answerQuiz(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data session.AnswerInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AnswerInput")
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}
	res, err := api.svc.AnswerQuiz(ctx.Request().Context(), usr, id, data)
	if err != nil {
		return errors.Wrap(err, "answering quiz")
	}
	return ctx.JSON(http.StatusOK, res)
}

// Q&A

func (api *sessionApi) listPosts(ctx echo.Context) error {
	posts, err := api.svc.Posts(ctx.Request().Context(), queryTrack(ctx))
	if err != nil {
		return errors.Wrap(err, "listing posts")
	}
	return ctx.JSON(http.StatusOK, posts)
}

func (api *sessionApi) getPost(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	post, err := api.svc.Post(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting post")
	}
	return ctx.JSON(http.StatusOK, post)
}

func (api *sessionApi) createPost(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data session.NewPost
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPost")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	post, err := api.svc.CreatePost(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating post")
	}
	post.AuthorName = usr.Name
	return ctx.JSON(http.StatusCreated, post)
}

func (api *sessionApi) addComment(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data session.NewComment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewComment")
	}
	data.Content = core.CleanString(data.Content)
	if err = api.validate.Struct(data); err != nil {
		return err
	}
	comment, err := api.svc.AddComment(ctx.Request().Context(), usr, id, data)
	if err != nil {
		return errors.Wrap(err, "adding comment")
	}
	return ctx.JSON(http.StatusCreated, comment)
}

// Assignment

func (api *sessionApi) listAssignments(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	items, err := api.svc.Assignments(ctx.Request().Context(), usr, queryTrack(ctx))
	if err != nil {
		return errors.Wrap(err, "listing assignments")
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *sessionApi) getAssignment(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	detail, err := api.svc.Assignment(ctx.Request().Context(), usr, id)
	if err != nil {
		return errors.Wrap(err, "getting assignment")
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *sessionApi) createAssignment(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data session.NewAssignment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	a, err := api.svc.CreateAssignment(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *sessionApi) submit(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data session.SubmissionInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmissionInput")
	}
	data.Link = core.CleanString(data.Link)
	if err = api.validate.Struct(data); err != nil {
		return err
	}
	sub, created, err := api.svc.Submit(ctx.Request().Context(), usr, id, data)
	if err != nil {
		return errors.Wrap(err, "submitting assignment")
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return ctx.JSON(status, sub)
}

func (api *sessionApi) markRead(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	sub, err := api.svc.MarkRead(ctx.Request().Context(), usr, id)
	if err != nil {
		return errors.Wrap(err, "marking submission read")
	}
	return ctx.JSON(http.StatusOK, sub)
}

// Announcement

func (api *sessionApi) listAnnouncements(ctx echo.Context) error {
	items, err := api.svc.Announcements(ctx.Request().Context(), queryTrack(ctx))
	if err != nil {
		return errors.Wrap(err, "listing announcements")
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *sessionApi) createAnnouncement(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data session.NewAnnouncement
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncement")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	a, err := api.svc.CreateAnnouncement(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating announcement")
	}
	a.AuthorName = usr.Name
	return ctx.JSON(http.StatusCreated, a)
}
