package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type metricsProbe struct {
	ID   uint
	Name string
}

func TestRegisterGormMetrics(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&metricsProbe{}))
	require.NoError(t, RegisterGormMetrics(db))

	before := testutil.CollectAndCount(DatabaseQueryLatency)

	require.NoError(t, db.Create(&metricsProbe{Name: "a"}).Error)
	var out []metricsProbe
	require.NoError(t, db.Find(&out).Error)

	assert.Greater(t, testutil.CollectAndCount(DatabaseQueryLatency), before)
}
