// Package mocks provides gomock implementations of the ETL ports in internal/core.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	executor := mocks.NewMockQueryExecutor(ctrl)
//	executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).Return(rows, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=query_router_mock.go github.com/tm-acme-shop/acme-shop-analytics-etl/internal/core QueryRouter
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=query_executor_mock.go github.com/tm-acme-shop/acme-shop-analytics-etl/internal/core QueryExecutor
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=warehouse_loader_mock.go github.com/tm-acme-shop/acme-shop-analytics-etl/internal/core WarehouseLoader
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=run_repository_mock.go github.com/tm-acme-shop/acme-shop-analytics-etl/internal/core RunRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=run_locker_mock.go github.com/tm-acme-shop/acme-shop-analytics-etl/internal/core RunLocker
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=time_provider_mock.go github.com/tm-acme-shop/acme-shop-analytics-etl/internal/core TimeProvider
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_runner_mock.go github.com/tm-acme-shop/acme-shop-analytics-etl/internal/core JobRunner
