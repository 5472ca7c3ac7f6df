package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/cobranca/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type tracedRecord struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func setupTracedDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedRecord{}))
	return db
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := telemetry.DefaultDBTracingConfig()

	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
	assert.Equal(t, "postgresql", cfg.DBSystem)
}

func TestDBTracingPlugin_Disabled_SkipsRegistration(t *testing.T) {
	db := setupTracedDB(t)
	logger := zaptest.NewLogger(t)

	plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{Enabled: false}, logger)
	require.NoError(t, plugin.RegisterOtelGorm(db))

	// Queries still work without the plugin installed
	require.NoError(t, db.Create(&tracedRecord{Name: "a"}).Error)

	var count int64
	require.NoError(t, db.Model(&tracedRecord{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDBTracingPlugin_Enabled_QueriesStillWork(t *testing.T) {
	db := setupTracedDB(t)
	logger := zaptest.NewLogger(t)

	cfg := telemetry.DBTracingConfig{
		Enabled:         true,
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "sqlite",
	}
	plugin := telemetry.NewDBTracingPlugin(cfg, logger)
	require.NoError(t, plugin.RegisterOtelGorm(db))

	ctx := context.Background()
	require.NoError(t, db.WithContext(ctx).Create(&tracedRecord{Name: "traced"}).Error)

	var got tracedRecord
	require.NoError(t, db.WithContext(ctx).First(&got, "name = ?", "traced").Error)
	assert.Equal(t, "traced", got.Name)

	require.NoError(t, db.WithContext(ctx).Delete(&got).Error)
}

func TestDBTracingPlugin_DoubleRegistrationFails(t *testing.T) {
	db := setupTracedDB(t)
	logger := zaptest.NewLogger(t)

	cfg := telemetry.DBTracingConfig{
		Enabled:         true,
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "sqlite",
	}

	plugin := telemetry.NewDBTracingPlugin(cfg, logger)
	require.NoError(t, plugin.RegisterOtelGorm(db))

	// The otelgorm plugin refuses a second registration on the same DB
	err := telemetry.NewDBTracingPlugin(cfg, logger).RegisterOtelGorm(db)
	assert.Error(t, err)
}

func TestWithQueryStartTime(t *testing.T) {
	ctx := telemetry.WithQueryStartTime(context.Background())
	assert.NotEqual(t, context.Background(), ctx)
}
