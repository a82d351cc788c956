// Package mocks holds generated mocks of dependencies, for testing.
//
//go:generate mockgen -package mocks -destination mock_store.go github.com/IntelliLead/review-migrations/store Store
package mocks
