package http

import (
	"context"
	"sync"
	"time"

	"portal/accounts/internal/model"
	"portal/accounts/internal/repository"
)

// memStore implements Store with the same uniqueness and not-found
// semantics the Postgres repository provides.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]model.Account
	students map[string]model.StudentProfile
	teachers map[string]model.TeacherProfile
	parents  map[string]model.ParentProfile
}

func newMemStore() *memStore {
	return &memStore{
		accounts: make(map[string]model.Account),
		students: make(map[string]model.StudentProfile),
		teachers: make(map[string]model.TeacherProfile),
		parents:  make(map[string]model.ParentProfile),
	}
}

func (m *memStore) GetAccountByEmail(_ context.Context, email string) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, account := range m.accounts {
		if account.Email == email {
			return account, nil
		}
	}
	return model.Account{}, repository.ErrNotFound
}

func (m *memStore) GetAccountByID(_ context.Context, id string) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return model.Account{}, repository.ErrNotFound
	}
	return account, nil
}

// CreateAccountWithProfile mirrors the transactional semantics of the
// real store: every uniqueness check runs before anything is written,
// so a duplicate profile key leaves no orphan account behind.
func (m *memStore) CreateAccountWithProfile(_ context.Context, account model.Account, profile repository.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.accounts {
		if existing.Email == account.Email {
			return &repository.DuplicateError{Field: "email"}
		}
		if existing.Username == account.Username {
			return &repository.DuplicateError{Field: "username"}
		}
	}
	switch {
	case profile.Student != nil:
		if _, ok := m.students[profile.Student.UserID]; ok {
			return &repository.DuplicateError{Field: "user_id"}
		}
		for _, existing := range m.students {
			if existing.AdmissionNumber == profile.Student.AdmissionNumber {
				return &repository.DuplicateError{Field: "admission_number"}
			}
		}
	case profile.Teacher != nil:
		if _, ok := m.teachers[profile.Teacher.UserID]; ok {
			return &repository.DuplicateError{Field: "user_id"}
		}
		for _, existing := range m.teachers {
			if existing.StaffID == profile.Teacher.StaffID {
				return &repository.DuplicateError{Field: "staff_id"}
			}
		}
	case profile.Parent != nil:
		if _, ok := m.parents[profile.Parent.UserID]; ok {
			return &repository.DuplicateError{Field: "user_id"}
		}
	}

	m.accounts[account.ID] = account
	switch {
	case profile.Student != nil:
		m.students[profile.Student.UserID] = *profile.Student
	case profile.Teacher != nil:
		m.teachers[profile.Teacher.UserID] = *profile.Teacher
	case profile.Parent != nil:
		m.parents[profile.Parent.UserID] = *profile.Parent
	}
	return nil
}

func (m *memStore) UpdateAccount(_ context.Context, id string, update repository.AccountUpdate) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return model.Account{}, repository.ErrNotFound
	}
	if update.FirstName != nil {
		account.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		account.LastName = *update.LastName
	}
	if update.Phone != nil {
		account.Phone = update.Phone
	}
	if update.DateOfBirth != nil {
		account.DateOfBirth = update.DateOfBirth
	}
	if update.Address != nil {
		account.Address = update.Address
	}
	account.UpdatedAt = time.Now().UTC()
	m.accounts[id] = account
	return account, nil
}

func (m *memStore) SetPassword(_ context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.PasswordHash = passwordHash
	account.UpdatedAt = time.Now().UTC()
	m.accounts[id] = account
	return nil
}

func (m *memStore) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.LastLogin = &at
	account.UpdatedAt = at
	m.accounts[id] = account
	return nil
}

func (m *memStore) GetStudentProfile(_ context.Context, userID string) (model.StudentProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, ok := m.students[userID]
	if !ok {
		return model.StudentProfile{}, repository.ErrNotFound
	}
	return profile, nil
}

func (m *memStore) GetTeacherProfile(_ context.Context, userID string) (model.TeacherProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, ok := m.teachers[userID]
	if !ok {
		return model.TeacherProfile{}, repository.ErrNotFound
	}
	return profile, nil
}

func (m *memStore) GetParentProfile(_ context.Context, userID string) (model.ParentProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, ok := m.parents[userID]
	if !ok {
		return model.ParentProfile{}, repository.ErrNotFound
	}
	return profile, nil
}

func (m *memStore) CountChildren(_ context.Context, parentID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, profile := range m.students {
		if profile.ParentID != nil && *profile.ParentID == parentID {
			count++
		}
	}
	return count, nil
}

func (m *memStore) setActive(id string, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account := m.accounts[id]
	account.IsActive = active
	m.accounts[id] = account
}
