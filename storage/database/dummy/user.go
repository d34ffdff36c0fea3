package dummydb

import (
	"context"
	"sort"

	"github.com/likelion-sch/recruit/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, u := range repo.db.users {
		if u.Email == usr.Email {
			return user.User{}, user.ErrEmailExists
		}
	}
	usr.ID = repo.db.nextID("users")
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != 0 {
		if usr, ok := repo.db.users[filter.ID]; ok && (filter.Email == "" || usr.Email == filter.Email) {
			return *usr, nil
		}
		return user.User{}, user.ErrNotFound
	}
	if filter.Email != "" {
		for _, usr := range repo.db.users {
			if usr.Email == filter.Email {
				return *usr, nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.users[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	for _, u := range repo.db.users {
		if u.ID != usr.ID && u.Email == usr.Email {
			return user.User{}, user.ErrEmailExists
		}
	}
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

type verificationRepository struct {
	db *DB
}

var _ user.VerificationRepository = (*verificationRepository)(nil)

func NewVerificationRepository(db *DB) user.VerificationRepository {
	return &verificationRepository{db: db}
}

func (repo *verificationRepository) CreateVerification(_ context.Context, v user.EmailVerification) (user.EmailVerification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.verifications = append(repo.db.verifications, &v)
	return v, nil
}

func (repo *verificationRepository) GetLatestVerification(_ context.Context, email string) (user.EmailVerification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var matches []user.EmailVerification
	for _, v := range repo.db.verifications {
		if v.Email == email {
			matches = append(matches, *v)
		}
	}
	if len(matches) == 0 {
		return user.EmailVerification{}, user.ErrNoVerification
	}
	// stable: the last inserted record wins ties
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].CreatedAt.Before(matches[j].CreatedAt) })
	return matches[len(matches)-1], nil
}

func (repo *verificationRepository) UpdateVerification(_ context.Context, v user.EmailVerification) (user.EmailVerification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for i, old := range repo.db.verifications {
		if old.ID == v.ID {
			repo.db.verifications[i] = &v
			return v, nil
		}
	}
	return user.EmailVerification{}, user.ErrNoVerification
}
