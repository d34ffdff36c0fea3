package echoapi_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/likelion-sch/recruit/core/application"
	"github.com/likelion-sch/recruit/core/session"
	"github.com/likelion-sch/recruit/core/user"
	"github.com/likelion-sch/recruit/testutil"
)

type sessionFixture struct {
	*testApp
	instructor, student, other user.User
}

func setupSessions(t *testing.T) *sessionFixture {
	app := setup(t)
	return &sessionFixture{
		testApp:    app,
		instructor: testutil.CreateUser(t, app.UserRepo, "Mentor", "mentor@sch.ac.kr", user.RoleInstructor, false, testutil.Password),
		student:    testutil.CreateUser(t, app.UserRepo, "Hero", "hero@sch.ac.kr", user.RoleStudent, false, testutil.Password),
		other:      testutil.CreateUser(t, app.UserRepo, "King", "king@sch.ac.kr", user.RoleStudent, false, testutil.Password),
	}
}

func Test_sessionApi_quiz(t *testing.T) {
	f := setupSessions(t)
	staffToken, studentToken := f.token(t, f.instructor), f.token(t, f.student)

	newQuiz := session.NewQuiz{
		Track:    application.TrackBackend,
		Title:    "HTTP",
		Question: "Which method is idempotent?",
		Option1:  "POST", Option2: "PUT", Option3: "PATCH", Option4: "CONNECT", Option5: "none",
		CorrectOption: 2,
	}

	runHTTPTests(t, f.testApp, []httpTest{
		{name: "auth required", path: "/api/sessions/quizzes", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{
			name: "create: instructors only", method: http.MethodPost, path: "/api/sessions/quizzes", token: studentToken,
			body: newQuiz, wantCode: http.StatusForbidden, wantData: marshalObj(t, errDetail("FORBIDDEN", "permission denied")),
		},
		{
			name: "create: web tracks only", method: http.MethodPost, path: "/api/sessions/quizzes", token: staffToken,
			body:     session.NewQuiz{Track: application.TrackAIServer, Title: "t", Question: "q", Option1: "1", Option2: "2", Option3: "3", Option4: "4", Option5: "5", CorrectOption: 1},
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"ok":false,"error":"VALIDATION_ERROR","errors":{"track":"track must be FRONTEND or BACKEND"}}`),
		},
		{name: "create", method: http.MethodPost, path: "/api/sessions/quizzes", token: staffToken, body: newQuiz, wantCode: http.StatusCreated},
	})

	// students never see the answer
	rec := f.do(t, http.MethodGet, "/api/sessions/quizzes?track=backend", studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var quizzes []session.QuizView
	decode(t, rec, &quizzes)
	require.Len(t, quizzes, 1)
	assert.Nil(t, quizzes[0].CorrectOption)
	assert.Nil(t, quizzes[0].MyAnswer)
	assert.Equal(t, "Mentor", quizzes[0].CreatedByName.String)
	assert.NotContains(t, rec.Body.String(), "correct_option")

	rec = f.do(t, http.MethodGet, "/api/sessions/quizzes?track=FRONTEND", studentToken, nil)
	assert.JSONEq(t, `[]`, rec.Body.String())

	answerPath := fmt.Sprintf("/api/sessions/quizzes/%d/answer", quizzes[0].ID)
	runHTTPTests(t, f.testApp, []httpTest{
		{
			name: "answer: option range", method: http.MethodPost, path: answerPath, token: studentToken,
			body: session.AnswerInput{SelectedOption: 6}, wantCode: http.StatusBadRequest,
		},
		{
			name: "answer", method: http.MethodPost, path: answerPath, token: studentToken,
			body: session.AnswerInput{SelectedOption: 1}, wantData: []byte(`{"selected_option":1,"correct_option":2,"is_correct":false}`),
		},
		{
			name: "answer once", method: http.MethodPost, path: answerPath, token: studentToken,
			body: session.AnswerInput{SelectedOption: 2}, wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, errDetail("ALREADY_ANSWERED", "you already answered this quiz")),
		},
		{
			name: "answer: graded", method: http.MethodPost, path: answerPath, token: f.token(t, f.other),
			body: session.AnswerInput{SelectedOption: 2}, wantData: []byte(`{"selected_option":2,"correct_option":2,"is_correct":true}`),
		},
		{
			name: "unknown quiz", method: http.MethodPost, path: "/api/sessions/quizzes/999/answer", token: studentToken,
			body: session.AnswerInput{SelectedOption: 2}, wantCode: http.StatusNotFound,
		},
	})

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/sessions/quizzes/%d", quizzes[0].ID), studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine session.QuizView
	decode(t, rec, &mine)
	require.NotNil(t, mine.MyAnswer)
	assert.Equal(t, session.MyAnswer{SelectedOption: 1, IsCorrect: false}, *mine.MyAnswer)

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/sessions/quizzes/%d", quizzes[0].ID), staffToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var staffView session.QuizView
	decode(t, rec, &staffView)
	require.NotNil(t, staffView.CorrectOption)
	assert.Equal(t, 2, *staffView.CorrectOption)
}

func Test_sessionApi_qna(t *testing.T) {
	f := setupSessions(t)
	studentToken := f.token(t, f.student)

	rec := f.do(t, http.MethodPost, "/api/sessions/qna", studentToken, session.NewPost{
		Track: application.TrackFrontend, Title: " 질문 ", Content: "useEffect 가 두 번 실행돼요",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var post session.Post
	decode(t, rec, &post)
	assert.Equal(t, "질문", post.Title)
	assert.Equal(t, "Hero", post.AuthorName)

	commentPath := fmt.Sprintf("/api/sessions/qna/%d/comments", post.ID)
	runHTTPTests(t, f.testApp, []httpTest{
		{
			name: "blank comment", method: http.MethodPost, path: commentPath, token: studentToken,
			body: session.NewComment{Content: "   "}, wantCode: http.StatusBadRequest,
		},
		{
			name: "comment", method: http.MethodPost, path: commentPath, token: f.token(t, f.instructor),
			body: session.NewComment{Content: "StrictMode 때문이에요"}, wantCode: http.StatusCreated,
		},
		{
			name: "unknown post", method: http.MethodPost, path: "/api/sessions/qna/999/comments", token: studentToken,
			body: session.NewComment{Content: "?"}, wantCode: http.StatusNotFound,
		},
	})

	rec = f.do(t, http.MethodGet, "/api/sessions/qna?track=FRONTEND", studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var posts []session.PostSummary
	decode(t, rec, &posts)
	require.Len(t, posts, 1)
	assert.Equal(t, 1, posts[0].CommentCount)
	assert.Equal(t, "Hero", posts[0].AuthorName)

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/sessions/qna/%d", post.ID), studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail session.PostDetail
	decode(t, rec, &detail)
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, "Mentor", detail.Comments[0].AuthorName)
	assert.Equal(t, user.RoleInstructor, detail.Comments[0].AuthorRole)
}

func Test_sessionApi_assignments(t *testing.T) {
	f := setupSessions(t)
	staffToken, studentToken, otherToken := f.token(t, f.instructor), f.token(t, f.student), f.token(t, f.other)

	newAssignment := session.NewAssignment{
		Track:    application.TrackPlanningDesign,
		Title:    "페르소나 작성",
		Content:  "서비스 페르소나를 작성해 제출하세요.",
		Deadline: time.Now().Add(72 * time.Hour),
	}
	runHTTPTests(t, f.testApp, []httpTest{
		{
			name: "create: instructors only", method: http.MethodPost, path: "/api/sessions/assignments", token: studentToken,
			body: newAssignment, wantCode: http.StatusForbidden,
		},
		{
			name: "create: other tracks only", method: http.MethodPost, path: "/api/sessions/assignments", token: staffToken,
			body:     session.NewAssignment{Track: application.TrackBackend, Title: "t", Content: "c", Deadline: time.Now()},
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"ok":false,"error":"VALIDATION_ERROR","errors":{"track":"track must be AI_SERVER or PLANNING_DESIGN"}}`),
		},
	})

	rec := f.do(t, http.MethodPost, "/api/sessions/assignments", staffToken, newAssignment)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var assignment session.Assignment
	decode(t, rec, &assignment)

	submitPath := fmt.Sprintf("/api/sessions/assignments/%d/submit", assignment.ID)
	runHTTPTests(t, f.testApp, []httpTest{
		{
			name: "submit: url required", method: http.MethodPost, path: submitPath, token: studentToken,
			body: session.SubmissionInput{Link: "not a link"}, wantCode: http.StatusBadRequest,
		},
		{
			name: "submit", method: http.MethodPost, path: submitPath, token: studentToken,
			body: session.SubmissionInput{Link: "https://figma.com/v1"}, wantCode: http.StatusCreated,
		},
		{
			name: "resubmit", method: http.MethodPost, path: submitPath, token: studentToken,
			body: session.SubmissionInput{Link: "https://figma.com/v2"}, wantCode: http.StatusOK,
		},
		{
			name: "other student", method: http.MethodPost, path: submitPath, token: otherToken,
			body: session.SubmissionInput{Link: "https://notion.so/x"}, wantCode: http.StatusCreated,
		},
		{
			name: "unknown assignment", method: http.MethodPost, path: "/api/sessions/assignments/999/submit", token: studentToken,
			body: session.SubmissionInput{Link: "https://figma.com/v1"}, wantCode: http.StatusNotFound,
		},
	})

	// students only see their own submission
	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/sessions/assignments/%d", assignment.ID), studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail session.AssignmentDetail
	decode(t, rec, &detail)
	require.Len(t, detail.Submissions, 1)
	require.NotNil(t, detail.MySubmission)
	assert.Equal(t, "https://figma.com/v2", detail.MySubmission.Link)
	assert.False(t, detail.MySubmission.IsRead)

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/sessions/assignments/%d", assignment.ID), staffToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &detail)
	require.Len(t, detail.Submissions, 2)

	readPath := fmt.Sprintf("/api/sessions/submissions/%d/read", detail.Submissions[0].ID)
	runHTTPTests(t, f.testApp, []httpTest{
		{name: "read: instructors only", method: http.MethodPatch, path: readPath, token: studentToken, wantCode: http.StatusForbidden},
		{name: "read", method: http.MethodPatch, path: readPath, token: staffToken},
		{name: "read: unknown", method: http.MethodPatch, path: "/api/sessions/submissions/999/read", token: staffToken, wantCode: http.StatusNotFound},
	})

	rec = f.do(t, http.MethodGet, "/api/sessions/assignments?track=PLANNING_DESIGN", otherToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var views []session.AssignmentView
	decode(t, rec, &views)
	require.Len(t, views, 1)
	require.NotNil(t, views[0].MySubmission)
	assert.Equal(t, "https://notion.so/x", views[0].MySubmission.Link)
}

func Test_sessionApi_announcements(t *testing.T) {
	f := setupSessions(t)
	staffToken, studentToken := f.token(t, f.instructor), f.token(t, f.student)

	body := session.NewAnnouncement{Track: application.TrackAIServer, Title: "휴강", Content: "이번 주는 쉽니다."}
	runHTTPTests(t, f.testApp, []httpTest{
		{name: "create: instructors only", method: http.MethodPost, path: "/api/sessions/announcements", token: studentToken, body: body, wantCode: http.StatusForbidden},
		{name: "create", method: http.MethodPost, path: "/api/sessions/announcements", token: staffToken, body: body, wantCode: http.StatusCreated},
	})

	rec := f.do(t, http.MethodGet, "/api/sessions/announcements?track=AI_SERVER", studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []session.Announcement
	decode(t, rec, &items)
	require.Len(t, items, 1)
	assert.Equal(t, "Mentor", items[0].AuthorName)

	rec = f.do(t, http.MethodGet, "/api/sessions/announcements?track=PLANNING_DESIGN", studentToken, nil)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
