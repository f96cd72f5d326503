package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestNormalizeMySQLDSN(t *testing.T) {
	got := normalizeMySQLDSN("jdbc:mysql://root:pw@127.0.0.1:3306/rating?useSSL=false&characterEncoding=utf8&serverTimezone=UTC", "", "")
	assert.Equal(t, "root:pw@tcp(127.0.0.1:3306)/rating?charset=utf8&loc=UTC&parseTime=true&tls=false", got)

	got = normalizeMySQLDSN("mysql://127.0.0.1:3306/rating", "app", "secret")
	assert.Equal(t, "app:secret@tcp(127.0.0.1:3306)/rating?charset=utf8mb4&parseTime=true", got)

	native := "root:pw@tcp(db:3306)/rating?parseTime=true"
	assert.Equal(t, native, normalizeMySQLDSN(native, "x", "y"))
}

func TestMaskDSN(t *testing.T) {
	assert.Equal(t, "root:****@tcp(db:3306)/r", maskDSN("root:pw@tcp(db:3306)/r"))
	assert.Equal(t, "tcp(db:3306)/r", maskDSN("tcp(db:3306)/r"))
}

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, gormLogLevel("silent"))
	assert.Equal(t, logger.Info, gormLogLevel("info"))
	assert.Equal(t, logger.Warn, gormLogLevel(""))
}

func TestNewGorm_UnsupportedDriver(t *testing.T) {
	_, err := NewGorm(Opts{Driver: "memory"})
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestNewMigrator_RequiresPostgresURL(t *testing.T) {
	_, err := NewMigrator("host=localhost user=postgres")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres://")
}

func TestMigrationsEmbedded(t *testing.T) {
	b, err := migrationsFS.ReadFile("migrations/000001_init.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(b), "idx_ratings_user_store")
}
