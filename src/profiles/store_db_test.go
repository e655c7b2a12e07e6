package profiles

import (
	"context"
	"testing"

	"github.com/blockwork-protocol/marketplace/src/utils/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgconn"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.Nil(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gorm_logger.Default.LogMode(gorm_logger.Silent),
	})
	require.Nil(t, err)
	return db, mock
}

func TestDBStoreGetIgnoresCase(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE lower\(wallet_address\) = lower\(\$1\)`).
		WillReturnRows(sqlmock.NewRows([]string{"wallet_address", "user_name", "languages"}).
			AddRow("0xAbC", "Bob", `[{"language":"English","proficiency":"Fluent"}]`))

	user, err := NewDBStore(db).Get(context.Background(), "0xabc")
	require.Nil(t, err)
	require.Equal(t, "Bob", user.UserName)
	require.Equal(t, "English", user.Languages[0].Language)
	require.Nil(t, mock.ExpectationsWereMet())
}

func TestDBStoreCreateDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`INSERT INTO "users"`).WillReturnError(&pgconn.PgError{Code: "23505"})

	err := NewDBStore(db).Create(context.Background(), &model.User{WalletAddress: "0xAAA"})
	require.ErrorIs(t, err, model.ErrConflict)
	require.Nil(t, mock.ExpectationsWereMet())
}

func TestDBStoreUpdateConflict(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`UPDATE "users" SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewDBStore(db).Update(context.Background(), &model.User{WalletAddress: "0xAAA"}, 2)
	require.ErrorIs(t, err, model.ErrConflict)
	require.Nil(t, mock.ExpectationsWereMet())
}
