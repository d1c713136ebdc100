package application_test

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/vulpemventures/coinvault/internal/core/domain"
	"github.com/vulpemventures/coinvault/internal/core/ports"
)

var (
	ctx = context.Background()

	errSomethingWentWrong = fmt.Errorf("something went wrong")
)

// ports.Metrics
type mockMetrics struct {
	mock.Mock
}

func newMockedMetrics() *mockMetrics {
	m := &mockMetrics{}
	m.On("ObserveTransform", mock.Anything, mock.Anything).Return().Maybe()
	m.On(
		"ObserveSupplyChange", mock.Anything, mock.Anything, mock.Anything,
		mock.Anything,
	).Return().Maybe()
	m.On("ObserveCoinEvent", mock.Anything).Return().Maybe()
	m.On("ObserveFailure", mock.Anything, mock.Anything).Return().Maybe()
	return m
}

func (m *mockMetrics) ObserveTransform(
	currency domain.Currency, stats domain.TransformStats,
) {
	m.Called(currency, stats)
}

func (m *mockMetrics) ObserveSupplyChange(
	currency domain.Currency, minted, burned, total uint64,
) {
	m.Called(currency, minted, burned, total)
}

func (m *mockMetrics) ObserveCoinEvent(event domain.CoinEvent) {
	m.Called(event)
}

func (m *mockMetrics) ObserveFailure(operation string, err error) {
	m.Called(operation, err)
}

// ports.CoinSelector
type mockCoinSelector struct {
	mock.Mock
}

func (m *mockCoinSelector) SelectCoins(
	coins []*domain.Coin, targetAmount uint64, targetCurrency domain.Currency,
) ([]*domain.Coin, uint64, error) {
	args := m.Called(coins, targetAmount, targetCurrency)

	var res []*domain.Coin
	if a := args.Get(0); a != nil {
		res = a.([]*domain.Coin)
	}
	return res, args.Get(1).(uint64), args.Error(2)
}

// faultyRepoManager wraps a working repo manager and makes the coin
// repository writes fail.
type faultyRepoManager struct {
	ports.RepoManager
}

func (rm faultyRepoManager) CoinRepository() domain.CoinRepository {
	return faultyCoinRepository{rm.RepoManager.CoinRepository()}
}

type faultyCoinRepository struct {
	domain.CoinRepository
}

func (r faultyCoinRepository) AddCoins(
	_ context.Context, _ []*domain.Coin,
) (int, error) {
	return 0, errSomethingWentWrong
}

func (r faultyCoinRepository) UpdateCoins(
	_ context.Context, _ []uuid.UUID, _ []*domain.Coin,
) error {
	return errSomethingWentWrong
}
