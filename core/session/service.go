package session

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/likelion-sch/recruit/core"
	"github.com/likelion-sch/recruit/core/application"
	"github.com/likelion-sch/recruit/core/user"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound        = errors.New("session item not found")
	ErrAlreadyAnswered = core.NewError("ALREADY_ANSWERED", "you already answered this quiz")
)

type (
	Repository interface {
		ListQuizzes(ctx context.Context, track application.Track) ([]Quiz, error)
		GetQuiz(ctx context.Context, id int) (Quiz, error)
		CreateQuiz(ctx context.Context, q Quiz) (Quiz, error)
		// CreateAnswer fails with ErrAlreadyAnswered when the student already answered the quiz.
		CreateAnswer(ctx context.Context, a QuizAnswer) (QuizAnswer, error)
		ListAnswers(ctx context.Context, studentID int, quizIDs ...int) ([]QuizAnswer, error)

		ListPosts(ctx context.Context, track application.Track) ([]PostSummary, error)
		GetPost(ctx context.Context, id int) (Post, error)
		CreatePost(ctx context.Context, p Post) (Post, error)
		// ListComments returns the comments of the post, oldest first.
		ListComments(ctx context.Context, postID int) ([]Comment, error)
		CreateComment(ctx context.Context, c Comment) (Comment, error)

		ListAssignments(ctx context.Context, track application.Track) ([]Assignment, error)
		GetAssignment(ctx context.Context, id int) (Assignment, error)
		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]Submission, error)
		// UpsertSubmission creates or replaces the link keyed by (assignment, student).
		UpsertSubmission(ctx context.Context, s Submission) (Submission, bool, error)
		MarkSubmissionRead(ctx context.Context, id, readerID int, at time.Time) (Submission, error)

		ListAnnouncements(ctx context.Context, track application.Track) ([]Announcement, error)
		CreateAnnouncement(ctx context.Context, a Announcement) (Announcement, error)
	}

	Service interface {
		Quizzes(ctx context.Context, usr user.User, track application.Track) ([]QuizView, error)
		Quiz(ctx context.Context, usr user.User, id int) (QuizView, error)
		CreateQuiz(ctx context.Context, usr user.User, in NewQuiz) (QuizView, error)
		AnswerQuiz(ctx context.Context, usr user.User, id int, in AnswerInput) (AnswerResult, error)

		Posts(ctx context.Context, track application.Track) ([]PostSummary, error)
		Post(ctx context.Context, id int) (PostDetail, error)
		CreatePost(ctx context.Context, usr user.User, in NewPost) (Post, error)
		AddComment(ctx context.Context, usr user.User, postID int, in NewComment) (Comment, error)

		Assignments(ctx context.Context, usr user.User, track application.Track) ([]AssignmentView, error)
		Assignment(ctx context.Context, usr user.User, id int) (AssignmentDetail, error)
		CreateAssignment(ctx context.Context, usr user.User, in NewAssignment) (Assignment, error)
		Submit(ctx context.Context, usr user.User, assignmentID int, in SubmissionInput) (Submission, bool, error)
		MarkRead(ctx context.Context, usr user.User, submissionID int) (Submission, error)

		Announcements(ctx context.Context, track application.Track) ([]Announcement, error)
		CreateAnnouncement(ctx context.Context, usr user.User, in NewAnnouncement) (Announcement, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Quiz

func (svc *service) Quizzes(ctx context.Context, usr user.User, track application.Track) ([]QuizView, error) {
	quizzes, err := svc.repo.ListQuizzes(ctx, track.Upper())
	if err != nil {
		return nil, errors.Wrap(err, "listing quizzes")
	}
	ids := make([]int, 0, len(quizzes))
	for _, q := range quizzes {
		ids = append(ids, q.ID)
	}
	var answers []QuizAnswer
	if len(ids) > 0 {
		if answers, err = svc.repo.ListAnswers(ctx, usr.ID, ids...); err != nil {
			return nil, errors.Wrap(err, "listing answers")
		}
	}
	byQuiz := make(map[int]QuizAnswer, len(answers))
	for _, a := range answers {
		byQuiz[a.QuizID] = a
	}

	views := make([]QuizView, 0, len(quizzes))
	for _, q := range quizzes {
		var ans *QuizAnswer
		if a, ok := byQuiz[q.ID]; ok {
			ans = &a
		}
		views = append(views, quizView(q, usr, ans))
	}
	return views, nil
}

func (svc *service) Quiz(ctx context.Context, usr user.User, id int) (QuizView, error) {
	q, err := svc.repo.GetQuiz(ctx, id)
	if err != nil {
		return QuizView{}, errors.Wrap(err, "getting quiz")
	}
	answers, err := svc.repo.ListAnswers(ctx, usr.ID, id)
	if err != nil {
		return QuizView{}, errors.Wrap(err, "listing answers")
	}
	var ans *QuizAnswer
	if len(answers) > 0 {
		ans = &answers[0]
	}
	return quizView(q, usr, ans), nil
}

func (svc *service) CreateQuiz(ctx context.Context, usr user.User, in NewQuiz) (QuizView, error) {
	now := NowFunc().UTC()
	q, err := svc.repo.CreateQuiz(ctx, Quiz{
		Track:         in.Track,
		Title:         in.Title,
		Question:      in.Question,
		Option1:       in.Option1,
		Option2:       in.Option2,
		Option3:       in.Option3,
		Option4:       in.Option4,
		Option5:       in.Option5,
		CorrectOption: in.CorrectOption,
		CreatedBy:     null.IntFrom(usr.ID),
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return QuizView{}, errors.Wrap(err, "creating quiz")
	}
	return quizView(q, usr, nil), nil
}

// AnswerQuiz records the user's only answer and grades it.
func (svc *service) AnswerQuiz(ctx context.Context, usr user.User, id int, in AnswerInput) (AnswerResult, error) {
	q, err := svc.repo.GetQuiz(ctx, id)
	if err != nil {
		return AnswerResult{}, errors.Wrap(err, "getting quiz")
	}
	ans, err := svc.repo.CreateAnswer(ctx, QuizAnswer{
		QuizID:         q.ID,
		StudentID:      usr.ID,
		SelectedOption: in.SelectedOption,
		IsCorrect:      in.SelectedOption == q.CorrectOption,
		CreatedAt:      NowFunc().UTC(),
	})
	if err != nil {
		return AnswerResult{}, errors.Wrap(err, "creating answer")
	}
	return AnswerResult{
		SelectedOption: ans.SelectedOption,
		CorrectOption:  q.CorrectOption,
		IsCorrect:      ans.IsCorrect,
	}, nil
}

func quizView(q Quiz, usr user.User, ans *QuizAnswer) QuizView {
	v := QuizView{Quiz: q}
	if usr.IsInstructorOrStaff() {
		correct := q.CorrectOption
		v.CorrectOption = &correct
	}
	if ans != nil {
		v.MyAnswer = &MyAnswer{SelectedOption: ans.SelectedOption, IsCorrect: ans.IsCorrect}
	}
	return v
}

// Q&A

func (svc *service) Posts(ctx context.Context, track application.Track) ([]PostSummary, error) {
	posts, err := svc.repo.ListPosts(ctx, track.Upper())
	if err != nil {
		return nil, errors.Wrap(err, "listing posts")
	}
	return posts, nil
}

func (svc *service) Post(ctx context.Context, id int) (PostDetail, error) {
	p, err := svc.repo.GetPost(ctx, id)
	if err != nil {
		return PostDetail{}, errors.Wrap(err, "getting post")
	}
	comments, err := svc.repo.ListComments(ctx, id)
	if err != nil {
		return PostDetail{}, errors.Wrap(err, "listing comments")
	}
	if comments == nil {
		comments = []Comment{}
	}
	return PostDetail{Post: p, Comments: comments}, nil
}

func (svc *service) CreatePost(ctx context.Context, usr user.User, in NewPost) (Post, error) {
	p, err := svc.repo.CreatePost(ctx, Post{
		Track:     in.Track,
		Title:     in.Title,
		Content:   in.Content,
		AuthorID:  usr.ID,
		CreatedAt: NowFunc().UTC(),
	})
	if err != nil {
		return Post{}, errors.Wrap(err, "creating post")
	}
	return p, nil
}

func (svc *service) AddComment(ctx context.Context, usr user.User, postID int, in NewComment) (Comment, error) {
	if _, err := svc.repo.GetPost(ctx, postID); err != nil {
		return Comment{}, errors.Wrap(err, "getting post")
	}
	c, err := svc.repo.CreateComment(ctx, Comment{
		PostID:    postID,
		AuthorID:  usr.ID,
		Content:   core.CleanString(in.Content),
		CreatedAt: NowFunc().UTC(),
	})
	if err != nil {
		return Comment{}, errors.Wrap(err, "creating comment")
	}
	return c, nil
}

// Assignment

func (svc *service) Assignments(ctx context.Context, usr user.User, track application.Track) ([]AssignmentView, error) {
	assignments, err := svc.repo.ListAssignments(ctx, track.Upper())
	if err != nil {
		return nil, errors.Wrap(err, "listing assignments")
	}
	ids := make([]int, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.ID)
	}
	var subs []Submission
	if len(ids) > 0 {
		subs, err = svc.repo.ListSubmissions(ctx, SubmissionFilter{AssignmentIDs: ids, StudentID: usr.ID})
		if err != nil {
			return nil, errors.Wrap(err, "listing submissions")
		}
	}
	mine := make(map[int]Submission, len(subs))
	for _, s := range subs {
		mine[s.AssignmentID] = s
	}

	views := make([]AssignmentView, 0, len(assignments))
	for _, a := range assignments {
		v := AssignmentView{Assignment: a}
		if s, ok := mine[a.ID]; ok {
			v.MySubmission = &s
		}
		views = append(views, v)
	}
	return views, nil
}

func (svc *service) Assignment(ctx context.Context, usr user.User, id int) (AssignmentDetail, error) {
	a, err := svc.repo.GetAssignment(ctx, id)
	if err != nil {
		return AssignmentDetail{}, errors.Wrap(err, "getting assignment")
	}
	filter := SubmissionFilter{AssignmentIDs: []int{id}}
	if !usr.IsInstructorOrStaff() {
		filter.StudentID = usr.ID
	}
	subs, err := svc.repo.ListSubmissions(ctx, filter)
	if err != nil {
		return AssignmentDetail{}, errors.Wrap(err, "listing submissions")
	}
	if subs == nil {
		subs = []Submission{}
	}

	detail := AssignmentDetail{AssignmentView: AssignmentView{Assignment: a}, Submissions: subs}
	for i := range subs {
		if subs[i].StudentID == usr.ID {
			s := subs[i]
			detail.MySubmission = &s
		}
	}
	return detail, nil
}

func (svc *service) CreateAssignment(ctx context.Context, usr user.User, in NewAssignment) (Assignment, error) {
	now := NowFunc().UTC()
	a, err := svc.repo.CreateAssignment(ctx, Assignment{
		Track:     in.Track,
		Title:     in.Title,
		Content:   in.Content,
		Deadline:  in.Deadline,
		CreatedBy: null.IntFrom(usr.ID),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Assignment{}, errors.Wrap(err, "creating assignment")
	}
	return a, nil
}

// Submit creates or replaces the user's link. The bool reports a creation.
func (svc *service) Submit(ctx context.Context, usr user.User, assignmentID int, in SubmissionInput) (Submission, bool, error) {
	if _, err := svc.repo.GetAssignment(ctx, assignmentID); err != nil {
		return Submission{}, false, errors.Wrap(err, "getting assignment")
	}
	now := NowFunc().UTC()
	s, created, err := svc.repo.UpsertSubmission(ctx, Submission{
		AssignmentID: assignmentID,
		StudentID:    usr.ID,
		Link:         core.CleanString(in.Link),
		SubmittedAt:  now,
		UpdatedAt:    now,
	})
	if err != nil {
		return Submission{}, false, errors.Wrap(err, "upserting submission")
	}
	return s, created, nil
}

func (svc *service) MarkRead(ctx context.Context, usr user.User, submissionID int) (Submission, error) {
	s, err := svc.repo.MarkSubmissionRead(ctx, submissionID, usr.ID, NowFunc().UTC())
	if err != nil {
		return Submission{}, errors.Wrap(err, "marking submission read")
	}
	return s, nil
}

// Announcement

func (svc *service) Announcements(ctx context.Context, track application.Track) ([]Announcement, error) {
	items, err := svc.repo.ListAnnouncements(ctx, track.Upper())
	if err != nil {
		return nil, errors.Wrap(err, "listing announcements")
	}
	return items, nil
}

func (svc *service) CreateAnnouncement(ctx context.Context, usr user.User, in NewAnnouncement) (Announcement, error) {
	a, err := svc.repo.CreateAnnouncement(ctx, Announcement{
		Track:     in.Track,
		Title:     in.Title,
		Content:   in.Content,
		AuthorID:  usr.ID,
		CreatedAt: NowFunc().UTC(),
	})
	if err != nil {
		return Announcement{}, errors.Wrap(err, "creating announcement")
	}
	return a, nil
}
