// Package mocks provides mock implementations for testing the movielib auth services.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our port interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	mockRepo := mocks.NewMockUserRepository(ctrl)
//	mockRepo.EXPECT().GetByUsername(gomock.Any(), "alice").Return(user, nil)
package mocks

// Generate mock for UserRepository interface from internal/ports package.
// This creates MockUserRepository with methods for all UserRepository interface methods:
// Create, GetByUsername, GetByID
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=user_repository_mock.go github.com/target/movielib/internal/ports UserRepository

// Generate mock for LoginLimiter interface from internal/ports package.
// This creates MockLoginLimiter with methods for all LoginLimiter interface methods:
// Check, Fail, Reset
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=login_limiter_mock.go github.com/target/movielib/internal/ports LoginLimiter
