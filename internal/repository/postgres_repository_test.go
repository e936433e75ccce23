package repository_test

import (
	"errors"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/cartstore/internal/migrations"
	"github.com/nikolayk812/cartstore/internal/port"
	"github.com/nikolayk812/cartstore/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

type postgresRepositorySuite struct {
	suite.Suite

	repo      port.SnapshotRepository
	pool      *pgxpool.Pool
	container *postgres.PostgresContainer
}

// entry point to run the tests in the suite
func TestPostgresRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("needs docker")
	}
	suite.Run(t, new(postgresRepositorySuite))
}

// before all tests in the suite
func (suite *postgresRepositorySuite) SetupSuite() {
	ctx := suite.T().Context()

	var (
		connStr string
		err     error
	)
	suite.container, connStr, err = startPostgres(ctx)
	suite.Require().NoError(err)

	suite.pool, err = pgxpool.New(ctx, connStr)
	suite.Require().NoError(err)

	// schema already created by the init script; Up must be a no-op on top of it
	suite.Require().NoError(repository.WithTx(ctx, suite.pool, func(tx pgx.Tx) error {
		return migrations.Up(ctx, tx)
	}))

	suite.repo = repository.NewPostgres(suite.pool)
}

// after all tests in the suite
func (suite *postgresRepositorySuite) TearDownSuite() {
	if suite.pool != nil {
		suite.pool.Close()
	}
	if suite.container != nil {
		suite.NoError(testcontainers.TerminateContainer(suite.container))
	}
}

func (suite *postgresRepositorySuite) TestSetAndGet() {
	defer suite.deleteAll()

	tests := []struct {
		name      string
		key       string
		values    []string
		wantValue string
		wantError string
	}{
		{
			name:      "set once: ok",
			key:       gofakeit.UUID(),
			values:    []string{`[{"id":1,"amount":1}]`},
			wantValue: `[{"id":1,"amount":1}]`,
		},
		{
			name:      "set overwrites previous value: ok",
			key:       gofakeit.UUID(),
			values:    []string{`[{"id":1,"amount":1}]`, `[]`},
			wantValue: `[]`,
		},
		{
			name:      "set with empty key: error",
			key:       "",
			values:    []string{`[]`},
			wantError: "key is empty",
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()
			ctx := t.Context()

			var err error
			for _, value := range tt.values {
				err = suite.repo.Set(ctx, tt.key, value)
			}
			if tt.wantError != "" {
				require.EqualError(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)

			value, found, err := suite.repo.Get(ctx, tt.key)
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, tt.wantValue, value)
		})
	}
}

func (suite *postgresRepositorySuite) TestGet() {
	defer suite.deleteAll()

	tests := []struct {
		name      string
		key       string
		wantError string
	}{
		{
			name: "get missing key: not found",
			key:  gofakeit.UUID(),
		},
		{
			name:      "get with empty key: error",
			key:       "",
			wantError: "key is empty",
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()

			value, found, err := suite.repo.Get(t.Context(), tt.key)
			if tt.wantError != "" {
				require.EqualError(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)
			assert.False(t, found)
			assert.Empty(t, value)
		})
	}
}

func (suite *postgresRepositorySuite) TestWithTx() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()
	key := gofakeit.UUID()
	errAbort := errors.New("abort")

	// rolled back: nothing persisted
	err := repository.WithTx(ctx, suite.pool, func(tx pgx.Tx) error {
		require.NoError(t, repository.NewPostgresWithTx(tx).Set(ctx, key, `[{"id":1,"amount":1}]`))
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	_, found, err := suite.repo.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	// committed: visible outside the transaction
	err = repository.WithTx(ctx, suite.pool, func(tx pgx.Tx) error {
		repo := repository.NewPostgresWithTx(tx)
		if err := repo.Set(ctx, key, `[]`); err != nil {
			return err
		}

		value, found, err := repo.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, `[]`, value)
		return nil
	})
	require.NoError(t, err)

	value, found, err := suite.repo.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[]`, value)
}

func (suite *postgresRepositorySuite) deleteAll() {
	_, err := suite.pool.Exec(suite.T().Context(), "TRUNCATE TABLE cart_snapshots")
	suite.NoError(err)
}
