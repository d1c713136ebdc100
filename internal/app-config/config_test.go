package appconfig_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	appconfig "github.com/vulpemventures/coinvault/internal/app-config"
)

func TestAppConfig(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		cfg := &appconfig.AppConfig{RepoManagerType: "inmemory"}
		require.NoError(t, cfg.Validate())
		t.Cleanup(cfg.RepoManager().Close)

		require.NotNil(t, cfg.Metrics())

		ctx := context.Background()
		_, err := cfg.TreasuryService().RegisterCurrency(ctx, "USD")
		require.NoError(t, err)
		coin, err := cfg.TreasuryService().Mint(ctx, "USD", "alice", 10)
		require.NoError(t, err)

		info, err := cfg.CoinService().GetCoin(ctx, coin.ID)
		require.NoError(t, err)
		require.Equal(t, *coin, *info)
	})

	t.Run("no metrics", func(t *testing.T) {
		t.Parallel()

		cfg := &appconfig.AppConfig{RepoManagerType: "inmemory", NoMetrics: true}
		require.NoError(t, cfg.Validate())
		t.Cleanup(cfg.RepoManager().Close)

		require.Nil(t, cfg.Metrics())
		require.NotNil(t, cfg.CoinService())
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name string
			cfg  *appconfig.AppConfig
		}{
			{
				name: "missing repo manager type",
				cfg:  &appconfig.AppConfig{},
			},
			{
				name: "unsupported repo manager type",
				cfg:  &appconfig.AppConfig{RepoManagerType: "mysql"},
			},
			{
				name: "missing badger config",
				cfg:  &appconfig.AppConfig{RepoManagerType: "badger"},
			},
			{
				name: "invalid badger config",
				cfg: &appconfig.AppConfig{
					RepoManagerType: "badger", RepoManagerConfig: 1,
				},
			},
			{
				name: "invalid postgres config",
				cfg: &appconfig.AppConfig{
					RepoManagerType: "postgres", RepoManagerConfig: "dsn",
				},
			},
			{
				name: "negative selection size",
				cfg: &appconfig.AppConfig{
					RepoManagerType: "inmemory", MaxSelectionSize: -1,
				},
			},
		}

		for _, tt := range tests {
			tt := tt
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()
				require.Error(t, tt.cfg.Validate())
			})
		}
	})
}
