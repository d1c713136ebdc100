package application_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/vulpemventures/coinvault/internal/core/application"
	"github.com/vulpemventures/coinvault/internal/core/domain"
	"github.com/vulpemventures/coinvault/internal/core/ports"
	dbbadger "github.com/vulpemventures/coinvault/internal/infrastructure/storage/db/badger"
	"github.com/vulpemventures/coinvault/internal/infrastructure/storage/db/inmemory"
)

const (
	sui   = domain.Currency("SUI")
	alice = "alice"
	bob   = "bob"
)

func TestInMemoryServices(t *testing.T) {
	suite.Run(t, &ServiceTestSuite{
		newRepoManager: func() (ports.RepoManager, error) {
			return inmemory.NewRepoManager(), nil
		},
	})
}

func TestBadgerServices(t *testing.T) {
	suite.Run(t, &ServiceTestSuite{
		newRepoManager: func() (ports.RepoManager, error) {
			return dbbadger.NewRepoManager("", nil)
		},
	})
}

type ServiceTestSuite struct {
	suite.Suite

	newRepoManager func() (ports.RepoManager, error)

	repoManager ports.RepoManager
	metrics     *mockMetrics
	coinSvc     *application.CoinService
	treasurySvc *application.TreasuryService
}

func (s *ServiceTestSuite) SetupTest() {
	repoManager, err := s.newRepoManager()
	s.Require().NoError(err)

	s.repoManager = repoManager
	s.metrics = newMockedMetrics()
	s.coinSvc = application.NewCoinService(repoManager, nil, nil, s.metrics)
	s.treasurySvc = application.NewTreasuryService(repoManager, s.metrics)

	_, err = s.treasurySvc.RegisterCurrency(ctx, sui)
	s.Require().NoError(err)
}

func (s *ServiceTestSuite) TearDownTest() {
	s.repoManager.Close()
}

func (s *ServiceTestSuite) TestJoin() {
	ids := s.mint(alice, 10, 20, 30)

	coins, err := s.coinSvc.JoinAll(ctx, ids)
	s.Require().NoError(err)
	s.Require().Len(coins, 1)
	s.Require().Equal(ids[0], coins[0].ID)
	s.Require().Equal(uint64(60), coins[0].Amount)

	_, err = s.coinSvc.GetCoin(ctx, ids[1])
	s.Require().ErrorIs(err, domain.ErrCoinNotFound)

	_, err = s.coinSvc.Join(ctx, ids[0], ids[2])
	s.Require().ErrorIs(err, domain.ErrCoinNotFound)

	_, err = s.coinSvc.Join(ctx, ids[0], ids[0])
	s.Require().ErrorIs(err, domain.ErrDuplicatedCoin)

	other := s.mint(alice, 5)
	coin, err := s.coinSvc.Join(ctx, other[0], ids[0])
	s.Require().NoError(err)
	s.Require().Equal(other[0], coin.ID)
	s.Require().Equal(uint64(65), coin.Amount)

	s.requireBalance(alice, 65)
	s.metrics.AssertCalled(s.T(), "ObserveFailure", "join", mock.Anything)
}

func (s *ServiceTestSuite) TestSplit() {
	id := s.mint(alice, 100)[0]

	coins, err := s.coinSvc.Split(ctx, id, 30)
	s.Require().NoError(err)
	s.Require().Equal([]uint64{70, 30}, amountsOf(coins))
	s.Require().Equal(id, coins[0].ID)

	coins, err = s.coinSvc.DivideIntoN(ctx, id, 3)
	s.Require().NoError(err)
	s.Require().Equal([]uint64{24, 23, 23}, amountsOf(coins))

	coins, err = s.coinSvc.SplitAmounts(ctx, id, []uint64{10, 10})
	s.Require().NoError(err)
	s.Require().Equal([]uint64{4, 10, 10}, amountsOf(coins))

	_, err = s.coinSvc.Split(ctx, id, 200)
	s.Require().ErrorIs(err, domain.ErrInsufficientFunds)

	_, err = s.coinSvc.DivideIntoN(ctx, id, 0)
	s.Require().ErrorIs(err, domain.ErrInvalidSplitCount)

	_, err = s.coinSvc.SplitAmounts(ctx, id, []uint64{3, 3})
	s.Require().ErrorIs(err, domain.ErrInsufficientFunds)

	coin, err := s.coinSvc.GetCoin(ctx, id)
	s.Require().NoError(err)
	s.Require().Equal(uint64(4), coin.Amount)

	list, err := s.coinSvc.ListCoins(ctx, alice, sui)
	s.Require().NoError(err)
	s.Require().Len(list, 6)

	s.requireBalance(alice, 100)
	s.metrics.AssertCalled(s.T(), "ObserveFailure", "split", mock.Anything)
	s.metrics.AssertCalled(s.T(), "ObserveFailure", "divide", mock.Anything)
}

func (s *ServiceTestSuite) TestTransfer() {
	id := s.mint(alice, 10)[0]

	coin, err := s.coinSvc.Transfer(ctx, id, bob)
	s.Require().NoError(err)
	s.Require().Equal(bob, coin.Owner)
	s.Require().Equal(id, coin.ID)

	s.requireBalance(alice, 0)
	s.requireBalance(bob, 10)

	_, err = s.coinSvc.Transfer(ctx, id, "")
	s.Require().ErrorIs(err, domain.ErrMissingOwner)

	_, err = s.coinSvc.Transfer(ctx, uuid.New(), bob)
	s.Require().ErrorIs(err, domain.ErrCoinNotFound)
}

func (s *ServiceTestSuite) TestTransform() {
	ids := s.mint(alice, 5, 5, 5)

	res, err := s.coinSvc.Transform(ctx, ids, nil)
	s.Require().NoError(err)
	s.Require().Equal(domain.RegimeNoop, res.Stats.Regime)
	s.Require().Equal(ids, res.Coins.IDs())

	res, err = s.coinSvc.Transform(ctx, ids, []uint64{10})
	s.Require().NoError(err)
	s.Require().Equal([]uint64{10, 5}, amountsOf(res.Coins))
	s.Require().Equal([]uuid.UUID{ids[0], ids[2]}, res.Coins.IDs())
	s.Require().Equal(domain.RegimeSurplus, res.Stats.Regime)
	s.Require().Zero(res.Stats.Splits)

	_, err = s.coinSvc.GetCoin(ctx, ids[1])
	s.Require().ErrorIs(err, domain.ErrCoinNotFound)

	id := s.mint(alice, 40)[0]
	res, err = s.coinSvc.Transform(ctx, []uuid.UUID{id}, []uint64{30, 50, 5})
	s.Require().NoError(err)
	s.Require().Equal([]uint64{30, 10}, amountsOf(res.Coins))
	s.Require().Equal(id, res.Coins[0].ID)
	s.Require().Equal(domain.RegimeDeficit, res.Stats.Regime)
	s.Require().Equal(1, res.Stats.Splits)
	s.Require().Equal(1, res.Stats.Fulfilled)

	_, err = s.coinSvc.Transform(ctx, []uuid.UUID{uuid.New()}, []uint64{1})
	s.Require().ErrorIs(err, domain.ErrCoinNotFound)

	_, err = s.coinSvc.Transform(ctx, nil, []uint64{1})
	s.Require().ErrorIs(err, domain.ErrEmptyCoinList)

	s.requireBalance(alice, 55)
	s.metrics.AssertCalled(
		s.T(), "ObserveTransform", sui, mock.MatchedBy(
			func(stats domain.TransformStats) bool {
				return stats.Regime == domain.RegimeSurplus
			},
		),
	)
}

func (s *ServiceTestSuite) TestTransformForOwner() {
	s.mint(alice, 5, 20, 40)

	res, err := s.coinSvc.TransformForOwner(ctx, alice, sui, []uint64{25})
	s.Require().NoError(err)
	s.Require().NotEmpty(res.Coins)
	s.Require().Equal(uint64(25), res.Coins[0].Amount)
	s.requireBalance(alice, 65)

	res, err = s.coinSvc.TransformForOwner(ctx, alice, sui, []uint64{1000})
	s.Require().NoError(err)
	s.Require().Equal([]uint64{65}, amountsOf(res.Coins))
	s.Require().Equal(domain.RegimeDeficit, res.Stats.Regime)

	list, err := s.coinSvc.ListCoins(ctx, alice, sui)
	s.Require().NoError(err)
	s.Require().Len(list, 1)

	_, err = s.coinSvc.TransformForOwner(ctx, bob, sui, []uint64{1})
	s.Require().ErrorIs(err, domain.ErrEmptyCoinList)

	_, err = s.coinSvc.TransformForOwner(ctx, "", sui, []uint64{1})
	s.Require().ErrorIs(err, domain.ErrMissingOwner)

	_, err = s.coinSvc.TransformForOwner(ctx, alice, "", []uint64{1})
	s.Require().ErrorIs(err, domain.ErrInvalidCurrency)
}

func (s *ServiceTestSuite) TestTransformAndSend() {
	ids := s.mint(alice, 30, 20)

	_, err := s.coinSvc.TransformAndSend(
		ctx, ids, []uint64{1, 2}, []string{bob},
	)
	s.Require().ErrorIs(err, domain.ErrRecipientsMismatch)

	_, err = s.coinSvc.TransformAndSend(ctx, ids, []uint64{1}, []string{""})
	s.Require().ErrorIs(err, domain.ErrMissingOwner)

	_, err = s.coinSvc.TransformAndSend(ctx, ids, []uint64{100}, []string{bob})
	s.Require().ErrorIs(err, domain.ErrInsufficientFunds)
	s.requireBalance(alice, 50)

	res, err := s.coinSvc.TransformAndSend(ctx, ids, []uint64{15}, []string{bob})
	s.Require().NoError(err)
	s.Require().Equal(bob, res.Coins[0].Owner)
	s.Require().Equal(uint64(15), res.Coins[0].Amount)
	s.Require().Equal(ids[1], res.Coins[0].ID)
	for _, c := range res.Coins[1:] {
		s.Require().Equal(alice, c.Owner)
	}

	s.requireBalance(alice, 35)
	s.requireBalance(bob, 15)
	s.metrics.AssertCalled(s.T(), "ObserveFailure", "send", mock.Anything)
}

func (s *ServiceTestSuite) mint(owner string, amounts ...uint64) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(amounts))
	for _, amount := range amounts {
		coin, err := s.treasurySvc.Mint(ctx, sui, owner, amount)
		s.Require().NoError(err)
		ids = append(ids, coin.ID)
	}
	return ids
}

func (s *ServiceTestSuite) requireBalance(owner string, expected uint64) {
	balance, err := s.coinSvc.GetBalance(ctx, owner)
	s.Require().NoError(err)
	s.Require().Equal(expected, balance[sui])
}

func TestTransformForOwnerWithFailingSelector(t *testing.T) {
	t.Parallel()

	repoManager := inmemory.NewRepoManager()
	t.Cleanup(repoManager.Close)

	selector := &mockCoinSelector{}
	selector.On("SelectCoins", mock.Anything, uint64(10), sui).
		Return(nil, uint64(0), errSomethingWentWrong)
	selector.On("SelectCoins", mock.Anything, uint64(20), sui).
		Return(nil, uint64(0), domain.ErrInsufficientFunds)

	treasurySvc := application.NewTreasuryService(repoManager, nil)
	coinSvc := application.NewCoinService(repoManager, selector, nil, nil)

	_, err := treasurySvc.RegisterCurrency(ctx, sui)
	require.NoError(t, err)
	_, err = treasurySvc.Mint(ctx, sui, alice, 15)
	require.NoError(t, err)

	res, err := coinSvc.TransformForOwner(ctx, alice, sui, []uint64{10})
	require.ErrorIs(t, err, errSomethingWentWrong)
	require.Nil(t, res)

	// Selection falls back to all the owner's coins.
	res, err = coinSvc.TransformForOwner(ctx, alice, sui, []uint64{20})
	require.NoError(t, err)
	require.Equal(t, []uint64{15}, amountsOf(res.Coins))

	selector.AssertExpectations(t)
}

func amountsOf(coins application.CoinsInfo) []uint64 {
	amounts := make([]uint64, 0, len(coins))
	for _, c := range coins {
		amounts = append(amounts, c.Amount)
	}
	return amounts
}
