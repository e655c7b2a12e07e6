package jobs

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

func TestDBStoreGet(t *testing.T) {
	db, mock := newMockDB(t)
	rows := sqlmock.NewRows([]string{"id", "title", "skills", "status", "applications", "version"}).
		AddRow("job-1", "Audit", "{go,solidity}", "ongoing", `[{"applicantId":"a1","applicantWallet":"0xAAA","status":"approved"}]`, 3)
	mock.ExpectQuery(`SELECT \* FROM "jobs" WHERE id = \$1`).WillReturnRows(rows)

	job, err := NewDBStore(db).Get(context.Background(), "job-1")
	require.Nil(t, err)
	require.Equal(t, "Audit", job.Title)
	require.Equal(t, []string{"go", "solidity"}, []string(job.Skills))
	require.Equal(t, int64(3), job.Version)
	require.Len(t, job.Applications, 1)
	require.Equal(t, model.ApplicationStatusApproved, job.Applications[0].Status)
	require.Nil(t, mock.ExpectationsWereMet())
}

func TestDBStoreGetMissing(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "jobs" WHERE smart_contract_job_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewDBStore(db).GetByExternalId(context.Background(), "42")
	require.ErrorIs(t, err, model.ErrNotFound)
	require.Nil(t, mock.ExpectationsWereMet())
}

func TestDBStoreCreateDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`INSERT INTO "jobs"`).WillReturnError(&pgconn.PgError{Code: "23505"})

	err := NewDBStore(db).Create(context.Background(), &model.Job{Id: "job-1", SmartContractJobId: "1"})
	require.ErrorIs(t, err, model.ErrConflict)
	require.Nil(t, mock.ExpectationsWereMet())
}

func TestDBStoreUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`UPDATE "jobs" SET .* WHERE id = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "jobs" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewDBStore(db)
	job := &model.Job{Id: "job-1", Status: model.JobStatusOngoing, Version: 4}

	require.Nil(t, store.Update(context.Background(), job, 4))
	require.Equal(t, int64(5), job.Version)

	err := store.Update(context.Background(), job, 4)
	require.ErrorIs(t, err, model.ErrConflict)
	require.Equal(t, int64(5), job.Version)
	require.Nil(t, mock.ExpectationsWereMet())
}

func TestDBStoreList(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT count\(\*\) FROM "jobs"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))
	mock.ExpectQuery(`SELECT \* FROM "jobs" ORDER BY created_at ASC, id ASC LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("job-11").AddRow("job-12"))

	jobs, total, err := NewDBStore(db).List(context.Background(), 10, 10)
	require.Nil(t, err)
	require.Equal(t, int64(25), total)
	require.Len(t, jobs, 2)
	require.Nil(t, mock.ExpectationsWereMet())
}

func TestDBStoreListByApplicant(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "jobs" WHERE EXISTS \(\s*SELECT 1 FROM jsonb_array_elements\(jobs.applications\) AS a\s*WHERE lower\(a->>'applicantWallet'\) = lower\(\$1\)\s*\) ORDER BY created_at ASC, id ASC`).
		WithArgs("0xAAA").
		WillReturnRows(sqlmock.NewRows([]string{"id", "applications"}).
			AddRow("job-1", `[{"applicantId":"a1","applicantWallet":"0xaaa","status":"pending"}]`))

	jobs, err := NewDBStore(db).ListByApplicant(context.Background(), "0xAAA")
	require.Nil(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, "0xaaa", jobs[0].Applications[0].ApplicantWallet)
	require.Nil(t, mock.ExpectationsWereMet())
}
