// Package mocks provides testify mocks for the repository interfaces.
package mocks

import (
	"context"
	"time"

	"account_service/internal/model"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a testify mock of repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

// NewMockUserRepository creates a mock that asserts its expectations on cleanup
func NewMockUserRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUserRepository {
	m := &MockUserRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUserRepository) FindByResetToken(ctx context.Context, tokenHash string) (*model.User, error) {
	args := m.Called(ctx, tokenHash)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUserRepository) UpdateDetails(ctx context.Context, id, name, mobile string) (*model.User, error) {
	args := m.Called(ctx, id, name, mobile)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) SetResetToken(ctx context.Context, id, tokenHash string, expire time.Time) error {
	args := m.Called(ctx, id, tokenHash, expire)
	return args.Error(0)
}

func (m *MockUserRepository) ClearResetToken(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) CompleteReset(ctx context.Context, user *model.User, tokenHash string, now time.Time) (bool, error) {
	args := m.Called(ctx, user, tokenHash, now)
	return args.Bool(0), args.Error(1)
}

func userArg(args mock.Arguments, i int) *model.User {
	user, _ := args.Get(i).(*model.User)
	return user
}
