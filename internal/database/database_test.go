package database

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/englishmastery-api/internal/models"
)

func TestConnectRedisPings(t *testing.T) {
	server := miniredis.RunT(t)

	client, err := ConnectRedis(context.Background(), "redis://"+server.Addr())
	require.NoError(t, err)
	defer client.Close()

	_, err = ConnectRedis(context.Background(), "")
	require.Error(t, err)

	_, err = ConnectRedis(context.Background(), "://bad")
	require.Error(t, err)
}

func TestConnectRequiresURLs(t *testing.T) {
	_, err := ConnectPostgres("", zerolog.Nop())
	require.Error(t, err)

	_, err = ConnectNATS("", "englishmastery", zerolog.Nop())
	require.Error(t, err)
}

func TestMigrateCreatesTables(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:migrate?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, Migrate(db))
	require.True(t, db.Migrator().HasTable(&models.Lesson{}))
	require.True(t, db.Migrator().HasTable(&models.Evaluation{}))
	require.True(t, db.Migrator().HasTable(&models.Achievement{}))
}
