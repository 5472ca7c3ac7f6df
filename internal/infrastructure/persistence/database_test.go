package persistence

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDatabase wires a Database onto a sqlmock connection so pool-level
// behavior can be checked without Postgres.
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return &Database{DB: gormDB}, mock, mockDB
}

func TestDatabase_Ping(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer mockDB.Close()

	// GORM pings once while opening, then Ping() issues its own.
	mock.ExpectPing()
	mock.ExpectPing()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	db := &Database{DB: gormDB}
	require.NoError(t, db.Ping())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Close(t *testing.T) {
	db, mock, _ := newMockDatabase(t)

	mock.ExpectClose()

	require.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Stats(t *testing.T) {
	db, _, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	stats, err := db.Stats()
	require.NoError(t, err)

	// sqlmock keeps one open connection; the point is the snapshot is
	// internally consistent, not the exact numbers.
	assert.GreaterOrEqual(t, stats.OpenConnections, 0)
	assert.Equal(t, stats.OpenConnections, stats.InUse+stats.Idle)
	assert.GreaterOrEqual(t, stats.WaitCount, int64(0))
}

func TestDatabase_QueriesFlowThroughPool(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	mock.ExpectQuery(`SELECT \* FROM "client_annotations"`).
		WithArgs("C1", 1).
		WillReturnRows(sqlmock.NewRows([]string{"codigo_cliente", "feeling"}).
			AddRow("C1", "positivo"))

	type clientAnnotation struct {
		CodigoCliente string `gorm:"primaryKey"`
		Feeling       string
	}

	var row clientAnnotation
	err := db.DB.Where("codigo_cliente = ?", "C1").First(&row).Error
	require.NoError(t, err)
	assert.Equal(t, "positivo", row.Feeling)
	assert.NoError(t, mock.ExpectationsWereMet())
}
