package boiledrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"

	"github.com/likelion-sch/recruit/core"
	"github.com/likelion-sch/recruit/core/application"
	"github.com/likelion-sch/recruit/core/session"
)

type (
	quizRow struct {
		ID            int         `boil:"id"`
		Track         string      `boil:"track"`
		Title         string      `boil:"title"`
		Question      string      `boil:"question"`
		Option1       string      `boil:"option_1"`
		Option2       string      `boil:"option_2"`
		Option3       string      `boil:"option_3"`
		Option4       string      `boil:"option_4"`
		Option5       string      `boil:"option_5"`
		CorrectOption int         `boil:"correct_option"`
		CreatedBy     null.Int    `boil:"created_by"`
		CreatedByName null.String `boil:"created_by_name"`
		CreatedAt     time.Time   `boil:"created_at"`
		UpdatedAt     time.Time   `boil:"updated_at"`
	}

	answerRow struct {
		ID             int       `boil:"id"`
		QuizID         int       `boil:"quiz_id"`
		StudentID      int       `boil:"student_id"`
		SelectedOption int       `boil:"selected_option"`
		IsCorrect      bool      `boil:"is_correct"`
		CreatedAt      time.Time `boil:"created_at"`
	}

	postRow struct {
		ID           int       `boil:"id"`
		Track        string    `boil:"track"`
		Title        string    `boil:"title"`
		Content      string    `boil:"content"`
		AuthorID     int       `boil:"author_id"`
		AuthorName   string    `boil:"author_name"`
		CommentCount int       `boil:"comment_count"`
		CreatedAt    time.Time `boil:"created_at"`
	}

	commentRow struct {
		ID         int       `boil:"id"`
		PostID     int       `boil:"post_id"`
		AuthorID   int       `boil:"author_id"`
		AuthorName string    `boil:"author_name"`
		AuthorRole string    `boil:"author_role"`
		Content    string    `boil:"content"`
		CreatedAt  time.Time `boil:"created_at"`
	}

	assignmentRow struct {
		ID            int         `boil:"id"`
		Track         string      `boil:"track"`
		Title         string      `boil:"title"`
		Content       string      `boil:"content"`
		Deadline      time.Time   `boil:"deadline"`
		CreatedBy     null.Int    `boil:"created_by"`
		CreatedByName null.String `boil:"created_by_name"`
		CreatedAt     time.Time   `boil:"created_at"`
		UpdatedAt     time.Time   `boil:"updated_at"`
	}

	submissionRow struct {
		ID           int         `boil:"id"`
		AssignmentID int         `boil:"assignment_id"`
		StudentID    int         `boil:"student_id"`
		StudentName  string      `boil:"student_name"`
		Link         string      `boil:"link"`
		SubmittedAt  time.Time   `boil:"submitted_at"`
		IsRead       bool        `boil:"is_read"`
		ReadAt       null.Time   `boil:"read_at"`
		ReadBy       null.Int    `boil:"read_by"`
		ReadByName   null.String `boil:"read_by_name"`
		UpdatedAt    time.Time   `boil:"updated_at"`
	}

	announcementRow struct {
		ID         int       `boil:"id"`
		Track      string    `boil:"track"`
		Title      string    `boil:"title"`
		Content    string    `boil:"content"`
		AuthorID   int       `boil:"author_id"`
		AuthorName string    `boil:"author_name"`
		CreatedAt  time.Time `boil:"created_at"`
	}
)

const (
	quizSelect = `q.id, q.track, q.title, q.question, q.option_1, q.option_2, q.option_3, q.option_4, q.option_5,
	q.correct_option, q.created_by, u.name AS created_by_name, q.created_at, q.updated_at`
	postSelect = `p.id, p.track, p.title, p.content, p.author_id, u.name AS author_name,
	(SELECT COUNT(*) FROM qna_comments c WHERE c.post_id = p.id) AS comment_count, p.created_at`
	commentSelect = `c.id, c.post_id, c.author_id, u.name AS author_name, u.role AS author_role,
	c.content, c.created_at`
	assignmentSelect = `a.id, a.track, a.title, a.content, a.deadline, a.created_by,
	u.name AS created_by_name, a.created_at, a.updated_at`
	submissionSelect = `s.id, s.assignment_id, s.student_id, st.name AS student_name, s.link, s.submitted_at,
	s.is_read, s.read_at, s.read_by, rb.name AS read_by_name, s.updated_at`
	announcementSelect = `n.id, n.track, n.title, n.content, n.author_id, u.name AS author_name, n.created_at`
)

func (row quizRow) unboil() session.Quiz {
	return session.Quiz{
		ID:            row.ID,
		Track:         application.Track(row.Track),
		Title:         row.Title,
		Question:      row.Question,
		Option1:       row.Option1,
		Option2:       row.Option2,
		Option3:       row.Option3,
		Option4:       row.Option4,
		Option5:       row.Option5,
		CorrectOption: row.CorrectOption,
		CreatedBy:     row.CreatedBy,
		CreatedByName: row.CreatedByName,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

func (row answerRow) unboil() session.QuizAnswer {
	return session.QuizAnswer{
		ID:             row.ID,
		QuizID:         row.QuizID,
		StudentID:      row.StudentID,
		SelectedOption: row.SelectedOption,
		IsCorrect:      row.IsCorrect,
		CreatedAt:      row.CreatedAt,
	}
}

func (row postRow) unboil() session.Post {
	return session.Post{
		ID:         row.ID,
		Track:      application.Track(row.Track),
		Title:      row.Title,
		Content:    row.Content,
		AuthorID:   row.AuthorID,
		AuthorName: row.AuthorName,
		CreatedAt:  row.CreatedAt,
	}
}

func (row postRow) summary() session.PostSummary {
	return session.PostSummary{
		ID:           row.ID,
		Track:        application.Track(row.Track),
		Title:        row.Title,
		AuthorName:   row.AuthorName,
		CommentCount: row.CommentCount,
		CreatedAt:    row.CreatedAt,
	}
}

func (row commentRow) unboil() session.Comment {
	return session.Comment{
		ID:         row.ID,
		PostID:     row.PostID,
		AuthorID:   row.AuthorID,
		AuthorName: row.AuthorName,
		AuthorRole: row.AuthorRole,
		Content:    row.Content,
		CreatedAt:  row.CreatedAt,
	}
}

func (row assignmentRow) unboil() session.Assignment {
	return session.Assignment{
		ID:            row.ID,
		Track:         application.Track(row.Track),
		Title:         row.Title,
		Content:       row.Content,
		Deadline:      row.Deadline,
		CreatedBy:     row.CreatedBy,
		CreatedByName: row.CreatedByName,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

func (row submissionRow) unboil() session.Submission {
	return session.Submission{
		ID:           row.ID,
		AssignmentID: row.AssignmentID,
		StudentID:    row.StudentID,
		StudentName:  row.StudentName,
		Link:         row.Link,
		SubmittedAt:  row.SubmittedAt,
		IsRead:       row.IsRead,
		ReadAt:       row.ReadAt,
		ReadBy:       row.ReadBy,
		ReadByName:   row.ReadByName,
		UpdatedAt:    row.UpdatedAt,
	}
}

func (row announcementRow) unboil() session.Announcement {
	return session.Announcement{
		ID:         row.ID,
		Track:      application.Track(row.Track),
		Title:      row.Title,
		Content:    row.Content,
		AuthorID:   row.AuthorID,
		AuthorName: row.AuthorName,
		CreatedAt:  row.CreatedAt,
	}
}

type sessionRepository struct {
	exec core.DBExecutor
}

var _ session.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(exec core.DBExecutor) session.Repository {
	return &sessionRepository{exec: exec}
}

// trapNoRowsErr maps "no rows" to session.ErrNotFound
func trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return session.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// trackMod filters on the track column of alias, unless track is empty.
func trackMod(mods []qm.QueryMod, alias string, track application.Track) []qm.QueryMod {
	if track != "" {
		mods = append(mods, qm.Where(alias+".track = ?", string(track)))
	}
	return mods
}

// Quiz

func (repo *sessionRepository) ListQuizzes(ctx context.Context, track application.Track) ([]session.Quiz, error) {
	mods := trackMod([]qm.QueryMod{
		qm.Select(quizSelect),
		qm.From("quizzes q"),
		qm.LeftOuterJoin(`"users" u ON u.id = q.created_by`),
		qm.OrderBy("q.created_at DESC, q.id DESC"),
	}, "q", track)

	var rows []quizRow
	if err := newQuery(mods...).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "selecting quizzes")
	}
	quizzes := make([]session.Quiz, 0, len(rows))
	for _, row := range rows {
		quizzes = append(quizzes, row.unboil())
	}
	return quizzes, nil
}

func (repo *sessionRepository) GetQuiz(ctx context.Context, id int) (session.Quiz, error) {
	var row quizRow
	err := newQuery(
		qm.Select(quizSelect),
		qm.From("quizzes q"),
		qm.LeftOuterJoin(`"users" u ON u.id = q.created_by`),
		qm.Where("q.id = ?", id),
	).Bind(ctx, repo.exec, &row)
	if err != nil {
		return session.Quiz{}, trapNoRowsErr(err, "selecting quiz")
	}
	return row.unboil(), nil
}

func (repo *sessionRepository) CreateQuiz(ctx context.Context, q session.Quiz) (session.Quiz, error) {
	id, err := insert(ctx, repo.exec, "quizzes",
		[]string{
			"track", "title", "question", "option_1", "option_2", "option_3", "option_4", "option_5",
			"correct_option", "created_by", "created_at", "updated_at",
		},
		string(q.Track), q.Title, q.Question, q.Option1, q.Option2, q.Option3, q.Option4, q.Option5,
		q.CorrectOption, q.CreatedBy, q.CreatedAt.UTC(), q.UpdatedAt.UTC(),
	)
	if err != nil {
		return session.Quiz{}, errors.Wrap(err, "inserting quiz")
	}
	return repo.GetQuiz(ctx, id)
}

func (repo *sessionRepository) CreateAnswer(ctx context.Context, a session.QuizAnswer) (session.QuizAnswer, error) {
	id, err := insert(ctx, repo.exec, "quiz_answers",
		[]string{"quiz_id", "student_id", "selected_option", "is_correct", "created_at"},
		a.QuizID, a.StudentID, a.SelectedOption, a.IsCorrect, a.CreatedAt.UTC(),
	)
	if err != nil {
		switch pqCode(errors.Cause(err)) {
		case uniqueViolation:
			return session.QuizAnswer{}, session.ErrAlreadyAnswered
		case foreignKeyViolation:
			return session.QuizAnswer{}, session.ErrNotFound
		}
		return session.QuizAnswer{}, errors.Wrap(err, "inserting answer")
	}
	a.ID = id
	return a, nil
}

func (repo *sessionRepository) ListAnswers(ctx context.Context, studentID int, quizIDs ...int) ([]session.QuizAnswer, error) {
	if len(quizIDs) == 0 {
		return []session.QuizAnswer{}, nil
	}
	var rows []answerRow
	err := newQuery(
		qm.Select("id, quiz_id, student_id, selected_option, is_correct, created_at"),
		qm.From("quiz_answers"),
		qm.Where("student_id = ?", studentID),
		qm.WhereIn("quiz_id IN ?", idArgs(quizIDs)...),
		qm.OrderBy("id"),
	).Bind(ctx, repo.exec, &rows)
	if err != nil {
		return nil, errors.Wrap(err, "selecting answers")
	}
	answers := make([]session.QuizAnswer, 0, len(rows))
	for _, row := range rows {
		answers = append(answers, row.unboil())
	}
	return answers, nil
}

// Q&A

func (repo *sessionRepository) ListPosts(ctx context.Context, track application.Track) ([]session.PostSummary, error) {
	mods := trackMod([]qm.QueryMod{
		qm.Select(postSelect),
		qm.From("qna_posts p"),
		qm.InnerJoin(`"users" u ON u.id = p.author_id`),
		qm.OrderBy("p.created_at DESC, p.id DESC"),
	}, "p", track)

	var rows []postRow
	if err := newQuery(mods...).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "selecting posts")
	}
	posts := make([]session.PostSummary, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, row.summary())
	}
	return posts, nil
}

func (repo *sessionRepository) GetPost(ctx context.Context, id int) (session.Post, error) {
	var row postRow
	err := newQuery(
		qm.Select(postSelect),
		qm.From("qna_posts p"),
		qm.InnerJoin(`"users" u ON u.id = p.author_id`),
		qm.Where("p.id = ?", id),
	).Bind(ctx, repo.exec, &row)
	if err != nil {
		return session.Post{}, trapNoRowsErr(err, "selecting post")
	}
	return row.unboil(), nil
}

func (repo *sessionRepository) CreatePost(ctx context.Context, p session.Post) (session.Post, error) {
	id, err := insert(ctx, repo.exec, "qna_posts",
		[]string{"track", "title", "content", "author_id", "created_at"},
		string(p.Track), p.Title, p.Content, p.AuthorID, p.CreatedAt.UTC(),
	)
	if err != nil {
		return session.Post{}, errors.Wrap(err, "inserting post")
	}
	return repo.GetPost(ctx, id)
}

func (repo *sessionRepository) ListComments(ctx context.Context, postID int) ([]session.Comment, error) {
	var rows []commentRow
	err := newQuery(
		qm.Select(commentSelect),
		qm.From("qna_comments c"),
		qm.InnerJoin(`"users" u ON u.id = c.author_id`),
		qm.Where("c.post_id = ?", postID),
		qm.OrderBy("c.created_at, c.id"),
	).Bind(ctx, repo.exec, &rows)
	if err != nil {
		return nil, errors.Wrap(err, "selecting comments")
	}
	comments := make([]session.Comment, 0, len(rows))
	for _, row := range rows {
		comments = append(comments, row.unboil())
	}
	return comments, nil
}

func (repo *sessionRepository) CreateComment(ctx context.Context, c session.Comment) (session.Comment, error) {
	id, err := insert(ctx, repo.exec, "qna_comments",
		[]string{"post_id", "author_id", "content", "created_at"},
		c.PostID, c.AuthorID, c.Content, c.CreatedAt.UTC(),
	)
	if err != nil {
		if pqCode(errors.Cause(err)) == foreignKeyViolation {
			return session.Comment{}, session.ErrNotFound
		}
		return session.Comment{}, errors.Wrap(err, "inserting comment")
	}

	var row commentRow
	err = newQuery(
		qm.Select(commentSelect),
		qm.From("qna_comments c"),
		qm.InnerJoin(`"users" u ON u.id = c.author_id`),
		qm.Where("c.id = ?", id),
	).Bind(ctx, repo.exec, &row)
	if err != nil {
		return session.Comment{}, trapNoRowsErr(err, "selecting comment")
	}
	return row.unboil(), nil
}

// Assignment

func (repo *sessionRepository) ListAssignments(ctx context.Context, track application.Track) ([]session.Assignment, error) {
	mods := trackMod([]qm.QueryMod{
		qm.Select(assignmentSelect),
		qm.From("assignments a"),
		qm.LeftOuterJoin(`"users" u ON u.id = a.created_by`),
		qm.OrderBy("a.created_at DESC, a.id DESC"),
	}, "a", track)

	var rows []assignmentRow
	if err := newQuery(mods...).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "selecting assignments")
	}
	items := make([]session.Assignment, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.unboil())
	}
	return items, nil
}

func (repo *sessionRepository) GetAssignment(ctx context.Context, id int) (session.Assignment, error) {
	var row assignmentRow
	err := newQuery(
		qm.Select(assignmentSelect),
		qm.From("assignments a"),
		qm.LeftOuterJoin(`"users" u ON u.id = a.created_by`),
		qm.Where("a.id = ?", id),
	).Bind(ctx, repo.exec, &row)
	if err != nil {
		return session.Assignment{}, trapNoRowsErr(err, "selecting assignment")
	}
	return row.unboil(), nil
}

func (repo *sessionRepository) CreateAssignment(ctx context.Context, a session.Assignment) (session.Assignment, error) {
	id, err := insert(ctx, repo.exec, "assignments",
		[]string{"track", "title", "content", "deadline", "created_by", "created_at", "updated_at"},
		string(a.Track), a.Title, a.Content, a.Deadline.UTC(), a.CreatedBy, a.CreatedAt.UTC(), a.UpdatedAt.UTC(),
	)
	if err != nil {
		return session.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return repo.GetAssignment(ctx, id)
}

func submissionMods(mods ...qm.QueryMod) []qm.QueryMod {
	return append([]qm.QueryMod{
		qm.Select(submissionSelect),
		qm.From("assignment_submissions s"),
		qm.InnerJoin(`"users" st ON st.id = s.student_id`),
		qm.LeftOuterJoin(`"users" rb ON rb.id = s.read_by`),
	}, mods...)
}

func (repo *sessionRepository) getSubmission(ctx context.Context, id int) (session.Submission, error) {
	var row submissionRow
	if err := newQuery(submissionMods(qm.Where("s.id = ?", id))...).Bind(ctx, repo.exec, &row); err != nil {
		return session.Submission{}, trapNoRowsErr(err, "selecting submission")
	}
	return row.unboil(), nil
}

func (repo *sessionRepository) ListSubmissions(ctx context.Context, filter session.SubmissionFilter) ([]session.Submission, error) {
	var mods []qm.QueryMod
	if len(filter.AssignmentIDs) > 0 {
		mods = append(mods, qm.WhereIn("s.assignment_id IN ?", idArgs(filter.AssignmentIDs)...))
	}
	if filter.StudentID != 0 {
		mods = append(mods, qm.Where("s.student_id = ?", filter.StudentID))
	}
	mods = append(mods, qm.OrderBy("s.id"))

	var rows []submissionRow
	if err := newQuery(submissionMods(mods...)...).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "selecting submissions")
	}
	subs := make([]session.Submission, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, row.unboil())
	}
	return subs, nil
}

func (repo *sessionRepository) UpsertSubmission(ctx context.Context, s session.Submission) (session.Submission, bool, error) {
	q := `INSERT INTO assignment_submissions (assignment_id, student_id, link, submitted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (assignment_id, student_id) DO UPDATE SET
			link = EXCLUDED.link, submitted_at = EXCLUDED.submitted_at, updated_at = EXCLUDED.updated_at
		RETURNING id, (xmax = 0) AS created`

	var row struct {
		ID      int  `boil:"id"`
		Created bool `boil:"created"`
	}
	err := queries.Raw(q, s.AssignmentID, s.StudentID, s.Link, s.SubmittedAt.UTC(), s.UpdatedAt.UTC()).
		Bind(ctx, repo.exec, &row)
	if err != nil {
		if pqCode(errors.Cause(err)) == foreignKeyViolation {
			return session.Submission{}, false, session.ErrNotFound
		}
		return session.Submission{}, false, errors.Wrap(err, "upserting submission")
	}
	saved, err := repo.getSubmission(ctx, row.ID)
	if err != nil {
		return session.Submission{}, false, err
	}
	return saved, row.Created, nil
}

func (repo *sessionRepository) MarkSubmissionRead(ctx context.Context, id, readerID int, at time.Time) (session.Submission, error) {
	n, err := update(ctx, repo.exec, "assignment_submissions", id,
		[]string{"is_read", "read_at", "read_by"}, true, at.UTC(), readerID)
	if err != nil {
		return session.Submission{}, errors.Wrap(err, "marking submission read")
	}
	if n == 0 {
		return session.Submission{}, session.ErrNotFound
	}
	return repo.getSubmission(ctx, id)
}

// Announcement

func (repo *sessionRepository) ListAnnouncements(ctx context.Context, track application.Track) ([]session.Announcement, error) {
	mods := trackMod([]qm.QueryMod{
		qm.Select(announcementSelect),
		qm.From("announcements n"),
		qm.InnerJoin(`"users" u ON u.id = n.author_id`),
		qm.OrderBy("n.created_at DESC, n.id DESC"),
	}, "n", track)

	var rows []announcementRow
	if err := newQuery(mods...).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "selecting announcements")
	}
	items := make([]session.Announcement, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.unboil())
	}
	return items, nil
}

func (repo *sessionRepository) CreateAnnouncement(ctx context.Context, a session.Announcement) (session.Announcement, error) {
	id, err := insert(ctx, repo.exec, "announcements",
		[]string{"track", "title", "content", "author_id", "created_at"},
		string(a.Track), a.Title, a.Content, a.AuthorID, a.CreatedAt.UTC(),
	)
	if err != nil {
		return session.Announcement{}, errors.Wrap(err, "inserting announcement")
	}

	var row announcementRow
	err = newQuery(
		qm.Select(announcementSelect),
		qm.From("announcements n"),
		qm.InnerJoin(`"users" u ON u.id = n.author_id`),
		qm.Where("n.id = ?", id),
	).Bind(ctx, repo.exec, &row)
	if err != nil {
		return session.Announcement{}, trapNoRowsErr(err, "selecting announcement")
	}
	return row.unboil(), nil
}
