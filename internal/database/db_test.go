package database

import (
	"path/filepath"
	"testing"

	"github.com/Ccode104/Lab-Assistant/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupAndMustDB(t *testing.T) {
	originalDB := DB
	defer func() { DB = originalDB }()

	cfg := &Config{
		Type:         "sqlite",
		DSN:          filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	err := Setup(cfg, logrus.New())
	require.NoError(t, err, "Setup should succeed with sqlite config")
	require.NotNil(t, DB, "Global DB should be set after Setup")

	assert.Same(t, DB, MustDB(), "MustDB should return the global connection")

	// 迁移应当创建所有业务表
	for _, table := range []string{"submissions", "code_blocks", "quiz_questions", "review_sessions", "review_messages"} {
		assert.True(t, DB.Migrator().HasTable(table), "table %s should exist", table)
	}

	// 迁移后的表可以直接读写
	sub := &models.Submission{ID: "db-test-1", FileName: "main.py", FileType: "py", Status: models.SubStatusUploaded}
	require.NoError(t, DB.Create(sub).Error)

	var loaded models.Submission
	require.NoError(t, DB.First(&loaded, "id = ?", "db-test-1").Error)
	assert.Equal(t, "main.py", loaded.FileName)
	assert.False(t, loaded.UploadedAt.IsZero(), "BeforeCreate hook should set the upload time")

	assert.NoError(t, Close(), "Close should succeed")
}

func TestSetupUnsupportedType(t *testing.T) {
	originalDB := DB
	defer func() { DB = originalDB }()

	cfg := &Config{Type: "oracle", DSN: "whatever"}
	err := Setup(cfg, logrus.New())
	assert.Error(t, err, "Unsupported database type should fail")
	assert.Contains(t, err.Error(), "unsupported database type")
}

func TestMustDBPanicsWhenUninitialized(t *testing.T) {
	originalDB := DB
	DB = nil
	defer func() { DB = originalDB }()

	assert.Panics(t, func() { MustDB() }, "MustDB should panic before Setup")
}
