package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/likelion-sch/recruit/core/application"
	"github.com/likelion-sch/recruit/core/session"
)

type sessionRepository struct {
	db *DB
}

var _ session.Repository = (*sessionRepository)(nil)

func NewSessionRepository(db *DB) session.Repository {
	return &sessionRepository{db: db}
}

// newestFirst orders by -created_at, -id.
func newestFirst(createdAt func(i int) time.Time, id func(i int) int) func(i, j int) bool {
	return func(i, j int) bool {
		if !createdAt(i).Equal(createdAt(j)) {
			return createdAt(i).After(createdAt(j))
		}
		return id(i) > id(j)
	}
}

func (repo *sessionRepository) nullName(id null.Int) null.String {
	if !id.Valid {
		return null.String{}
	}
	if name := repo.db.userName(id.Int); name != "" {
		return null.StringFrom(name)
	}
	return null.String{}
}

// Quiz

func (repo *sessionRepository) quiz(q session.Quiz) session.Quiz {
	q.CreatedByName = repo.nullName(q.CreatedBy)
	return q
}

func (repo *sessionRepository) ListQuizzes(_ context.Context, track application.Track) ([]session.Quiz, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	quizzes := make([]session.Quiz, 0, len(repo.db.quizzes))
	for _, q := range repo.db.quizzes {
		if track == "" || q.Track == track {
			quizzes = append(quizzes, repo.quiz(*q))
		}
	}
	sort.Slice(quizzes, newestFirst(
		func(i int) time.Time { return quizzes[i].CreatedAt },
		func(i int) int { return quizzes[i].ID }))
	return quizzes, nil
}

func (repo *sessionRepository) GetQuiz(_ context.Context, id int) (session.Quiz, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if q, ok := repo.db.quizzes[id]; ok {
		return repo.quiz(*q), nil
	}
	return session.Quiz{}, session.ErrNotFound
}

func (repo *sessionRepository) CreateQuiz(_ context.Context, q session.Quiz) (session.Quiz, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	q.ID = repo.db.nextID("quizzes")
	repo.db.quizzes[q.ID] = &q
	return repo.quiz(q), nil
}

func (repo *sessionRepository) CreateAnswer(_ context.Context, a session.QuizAnswer) (session.QuizAnswer, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.quizzes[a.QuizID]; !ok {
		return session.QuizAnswer{}, session.ErrNotFound
	}
	for _, old := range repo.db.answers {
		if old.QuizID == a.QuizID && old.StudentID == a.StudentID {
			return session.QuizAnswer{}, session.ErrAlreadyAnswered
		}
	}
	a.ID = repo.db.nextID("quiz_answers")
	repo.db.answers[a.ID] = &a
	return a, nil
}

func (repo *sessionRepository) ListAnswers(_ context.Context, studentID int, quizIDs ...int) ([]session.QuizAnswer, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	wanted := make(map[int]bool, len(quizIDs))
	for _, id := range quizIDs {
		wanted[id] = true
	}
	answers := make([]session.QuizAnswer, 0)
	for _, a := range repo.db.answers {
		if a.StudentID == studentID && wanted[a.QuizID] {
			answers = append(answers, *a)
		}
	}
	sort.Slice(answers, func(i, j int) bool { return answers[i].ID < answers[j].ID })
	return answers, nil
}

// Q&A

func (repo *sessionRepository) ListPosts(_ context.Context, track application.Track) ([]session.PostSummary, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	counts := make(map[int]int)
	for _, c := range repo.db.comments {
		counts[c.PostID]++
	}
	posts := make([]session.PostSummary, 0, len(repo.db.posts))
	for _, p := range repo.db.posts {
		if track != "" && p.Track != track {
			continue
		}
		posts = append(posts, session.PostSummary{
			ID:           p.ID,
			Track:        p.Track,
			Title:        p.Title,
			AuthorName:   repo.db.userName(p.AuthorID),
			CommentCount: counts[p.ID],
			CreatedAt:    p.CreatedAt,
		})
	}
	sort.Slice(posts, newestFirst(
		func(i int) time.Time { return posts[i].CreatedAt },
		func(i int) int { return posts[i].ID }))
	return posts, nil
}

func (repo *sessionRepository) GetPost(_ context.Context, id int) (session.Post, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.posts[id]; ok {
		post := *p
		post.AuthorName = repo.db.userName(post.AuthorID)
		return post, nil
	}
	return session.Post{}, session.ErrNotFound
}

func (repo *sessionRepository) CreatePost(_ context.Context, p session.Post) (session.Post, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	p.ID = repo.db.nextID("qna_posts")
	p.AuthorName = repo.db.userName(p.AuthorID)
	repo.db.posts[p.ID] = &p
	return p, nil
}

func (repo *sessionRepository) comment(c session.Comment) session.Comment {
	if usr, ok := repo.db.users[c.AuthorID]; ok {
		c.AuthorName = usr.Name
		c.AuthorRole = usr.Role
	}
	return c
}

func (repo *sessionRepository) ListComments(_ context.Context, postID int) ([]session.Comment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	comments := make([]session.Comment, 0)
	for _, c := range repo.db.comments {
		if c.PostID == postID {
			comments = append(comments, repo.comment(*c))
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		if !comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].CreatedAt.Before(comments[j].CreatedAt)
		}
		return comments[i].ID < comments[j].ID
	})
	return comments, nil
}

func (repo *sessionRepository) CreateComment(_ context.Context, c session.Comment) (session.Comment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.posts[c.PostID]; !ok {
		return session.Comment{}, session.ErrNotFound
	}
	c.ID = repo.db.nextID("qna_comments")
	repo.db.comments[c.ID] = &c
	return repo.comment(c), nil
}

// Assignment

func (repo *sessionRepository) assignment(a session.Assignment) session.Assignment {
	a.CreatedByName = repo.nullName(a.CreatedBy)
	return a
}

func (repo *sessionRepository) ListAssignments(_ context.Context, track application.Track) ([]session.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	items := make([]session.Assignment, 0, len(repo.db.assignments))
	for _, a := range repo.db.assignments {
		if track == "" || a.Track == track {
			items = append(items, repo.assignment(*a))
		}
	}
	sort.Slice(items, newestFirst(
		func(i int) time.Time { return items[i].CreatedAt },
		func(i int) int { return items[i].ID }))
	return items, nil
}

func (repo *sessionRepository) GetAssignment(_ context.Context, id int) (session.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a, ok := repo.db.assignments[id]; ok {
		return repo.assignment(*a), nil
	}
	return session.Assignment{}, session.ErrNotFound
}

func (repo *sessionRepository) CreateAssignment(_ context.Context, a session.Assignment) (session.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	a.ID = repo.db.nextID("assignments")
	repo.db.assignments[a.ID] = &a
	return repo.assignment(a), nil
}

func (repo *sessionRepository) submission(s session.Submission) session.Submission {
	s.StudentName = repo.db.userName(s.StudentID)
	s.ReadByName = repo.nullName(s.ReadBy)
	return s
}

func (repo *sessionRepository) ListSubmissions(_ context.Context, filter session.SubmissionFilter) ([]session.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	wanted := make(map[int]bool, len(filter.AssignmentIDs))
	for _, id := range filter.AssignmentIDs {
		wanted[id] = true
	}
	subs := make([]session.Submission, 0)
	for _, s := range repo.db.submissions {
		if len(wanted) > 0 && !wanted[s.AssignmentID] {
			continue
		}
		if filter.StudentID != 0 && s.StudentID != filter.StudentID {
			continue
		}
		subs = append(subs, repo.submission(*s))
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })
	return subs, nil
}

func (repo *sessionRepository) UpsertSubmission(_ context.Context, s session.Submission) (session.Submission, bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.assignments[s.AssignmentID]; !ok {
		return session.Submission{}, false, session.ErrNotFound
	}
	for _, old := range repo.db.submissions {
		if old.AssignmentID == s.AssignmentID && old.StudentID == s.StudentID {
			old.Link = s.Link
			old.SubmittedAt = s.SubmittedAt
			old.UpdatedAt = s.UpdatedAt
			return repo.submission(*old), false, nil
		}
	}
	s.ID = repo.db.nextID("assignment_submissions")
	repo.db.submissions[s.ID] = &s
	return repo.submission(s), true, nil
}

func (repo *sessionRepository) MarkSubmissionRead(_ context.Context, id, readerID int, at time.Time) (session.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	s, ok := repo.db.submissions[id]
	if !ok {
		return session.Submission{}, session.ErrNotFound
	}
	s.IsRead = true
	s.ReadAt = null.TimeFrom(at)
	s.ReadBy = null.IntFrom(readerID)
	return repo.submission(*s), nil
}

// Announcement

func (repo *sessionRepository) ListAnnouncements(_ context.Context, track application.Track) ([]session.Announcement, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	items := make([]session.Announcement, 0, len(repo.db.announcements))
	for _, a := range repo.db.announcements {
		if track == "" || a.Track == track {
			item := *a
			item.AuthorName = repo.db.userName(item.AuthorID)
			items = append(items, item)
		}
	}
	sort.Slice(items, newestFirst(
		func(i int) time.Time { return items[i].CreatedAt },
		func(i int) int { return items[i].ID }))
	return items, nil
}

func (repo *sessionRepository) CreateAnnouncement(_ context.Context, a session.Announcement) (session.Announcement, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	a.ID = repo.db.nextID("announcements")
	a.AuthorName = repo.db.userName(a.AuthorID)
	repo.db.announcements[a.ID] = &a
	return a, nil
}
