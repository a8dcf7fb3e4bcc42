// Package mocks provides gomock implementations of the relay's core ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	repo := mocks.NewMockJobRepository(ctrl)
//	repo.EXPECT().GetByID(gomock.Any(), "job_abc").Return(job, nil)
package mocks

// JobRepository: Create, UpdateStatus, GetByID
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_repository_mock.go github.com/target/llm-relay/internal/core JobRepository

// Outbound ports used by the relay service.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=relay_ports_mock.go github.com/target/llm-relay/internal/core Dispatcher,DispatchLocker,RelayFailureReporter,Relayer
