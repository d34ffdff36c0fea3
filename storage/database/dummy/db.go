package dummydb

import (
	"sync"

	"github.com/likelion-sch/recruit/core/application"
	"github.com/likelion-sch/recruit/core/project"
	"github.com/likelion-sch/recruit/core/session"
	"github.com/likelion-sch/recruit/core/user"
)

// DB is an in-memory database. Every repository opened on the same DB shares its tables
// and its lock, so multi-table writes are atomic.
type DB struct {
	sync.RWMutex

	seq map[string]int

	users         map[int]*user.User
	verifications []*user.EmailVerification
	applications  map[int]*application.Application
	scores        map[int]*application.ScoreRecord
	settings      *application.NotificationSettings
	quizzes       map[int]*session.Quiz
	answers       map[int]*session.QuizAnswer
	posts         map[int]*session.Post
	comments      map[int]*session.Comment
	assignments   map[int]*session.Assignment
	submissions   map[int]*session.Submission
	announcements map[int]*session.Announcement
	projects      map[int]*project.Project
}

func Open() (*DB, error) {
	db := &DB{
		seq:           make(map[string]int),
		users:         make(map[int]*user.User),
		applications:  make(map[int]*application.Application),
		scores:        make(map[int]*application.ScoreRecord),
		quizzes:       make(map[int]*session.Quiz),
		answers:       make(map[int]*session.QuizAnswer),
		posts:         make(map[int]*session.Post),
		comments:      make(map[int]*session.Comment),
		assignments:   make(map[int]*session.Assignment),
		submissions:   make(map[int]*session.Submission),
		announcements: make(map[int]*session.Announcement),
		projects:      make(map[int]*project.Project),
	}
	return db, nil
}

// nextID returns the next primary key of table. Callers hold the write lock.
func (db *DB) nextID(table string) int {
	db.seq[table]++
	return db.seq[table]
}

// userName returns the name of the user with id, or "" if it does not exist.
// Callers hold a lock.
func (db *DB) userName(id int) string {
	if usr, ok := db.users[id]; ok {
		return usr.Name
	}
	return ""
}
