// Package mocks provides mock implementations for testing the job-board session services.
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
//	api := mocks.NewMockJobBoardAPI(ctrl)
//	api.EXPECT().Me(gomock.Any(), "user-1", gomock.Any()).Return(ports.Account{}, nil)
//
// Hand-written doubles (fake backend, in-memory cache) live in internal/mocks/auth.
package mocks

// Generate mock for JobBoardAPI interface from internal/ports package.
// This creates MockJobBoardAPI with methods for all JobBoardAPI interface methods:
// Login, Me, Logout, UpdateSaved
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=jobboard_api_mock.go github.com/target/jobboard-ui-api/internal/ports JobBoardAPI

// Generate mock for SessionCache interface from internal/ports package.
// This creates MockSessionCache with methods for all SessionCache interface methods:
// Save, Load, Delete
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=session_cache_mock.go github.com/target/jobboard-ui-api/internal/ports SessionCache
