package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/Ccode104/Lab-Assistant/internal/database"
	"github.com/Ccode104/Lab-Assistant/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupQuestionTestDB(t *testing.T) (*gorm.DB, func()) {
	// Use in-memory SQLite database for testing
	dbName := fmt.Sprintf("file:memdb_question_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	require.NoError(t, err, "Failed to open in-memory database")

	// Run migrations
	err = db.AutoMigrate(&models.QuizQuestion{})
	require.NoError(t, err, "Failed to run migrations")

	// Save original DB reference
	originalDB := database.DB

	// Replace global DB with test DB
	database.DB = db

	// Return cleanup function
	cleanup := func() {
		database.DB = originalDB
	}

	return db, cleanup
}

func TestQuestionRepository_SaveAndGet(t *testing.T) {
	_, cleanup := setupQuestionTestDB(t)
	defer cleanup()

	repo := NewQuestionRepository()

	// Test getting non-existent question
	_, err := repo.GetByQuestionID("non-existing")
	assert.Error(t, err, "Should return error for non-existing question")
	assert.ErrorIs(t, err, models.ErrQuestionNotFound, "Error should wrap the not-found sentinel")

	// Saving without a question ID should fail
	err = repo.SaveQuestion(&models.QuizQuestion{SubmissionID: "sub-1", Text: "question"})
	assert.Error(t, err, "SaveQuestion should require a question ID")

	// Create test question
	question := &models.QuizQuestion{
		QuestionID:   "q-1",
		SubmissionID: "sub-1",
		BlockID:      "blk-1",
		Position:     1,
		Text:         "这个循环的终止条件是什么？",
		Difficulty:   models.DifficultyBasic,
		VectorID:     "vec-1",
	}

	err = repo.SaveQuestion(question)
	assert.NoError(t, err, "Question creation should succeed")
	assert.Greater(t, question.ID, uint(0), "Question should have an ID assigned")

	// Retrieve and verify
	saved, err := repo.GetByQuestionID("q-1")
	assert.NoError(t, err, "Should retrieve existing question without error")
	assert.Equal(t, question.Text, saved.Text, "Question text should match")
	assert.Equal(t, models.DifficultyBasic, saved.Difficulty, "Question difficulty should match")
	assert.Equal(t, "vec-1", saved.VectorID, "Vector ID should match")
}

func TestQuestionRepository_GetBySubmission(t *testing.T) {
	_, cleanup := setupQuestionTestDB(t)
	defer cleanup()

	repo := NewQuestionRepository()

	// Batch save questions across two blocks, out of order
	questions := []*models.QuizQuestion{
		{QuestionID: "q-b2-2", SubmissionID: "sub-2", BlockID: "blk-2", Position: 2, Text: "问题 b2-2"},
		{QuestionID: "q-b1-1", SubmissionID: "sub-2", BlockID: "blk-1", Position: 1, Text: "问题 b1-1"},
		{QuestionID: "q-b2-1", SubmissionID: "sub-2", BlockID: "blk-2", Position: 1, Text: "问题 b2-1"},
		{QuestionID: "q-other", SubmissionID: "sub-other", BlockID: "blk-9", Position: 1, Text: "其他提交的问题"},
	}

	err := repo.SaveQuestions(questions)
	require.NoError(t, err, "Batch save should succeed")

	// Questions should come back grouped by block and ordered by position
	result, err := repo.GetBySubmission("sub-2")
	assert.NoError(t, err)
	assert.Len(t, result, 3, "Should return 3 questions for the submission")
	assert.Equal(t, "q-b1-1", result[0].QuestionID)
	assert.Equal(t, "q-b2-1", result[1].QuestionID)
	assert.Equal(t, "q-b2-2", result[2].QuestionID)

	// Counting should match
	count, err := repo.CountBySubmission("sub-2")
	assert.NoError(t, err)
	assert.Equal(t, int64(3), count, "Question count should be 3")
}

func TestQuestionRepository_GetByBlock(t *testing.T) {
	_, cleanup := setupQuestionTestDB(t)
	defer cleanup()

	repo := NewQuestionRepository()

	questions := []*models.QuizQuestion{
		{QuestionID: "q-10", SubmissionID: "sub-3", BlockID: "blk-x", Position: 2, Text: "第二个问题"},
		{QuestionID: "q-11", SubmissionID: "sub-3", BlockID: "blk-x", Position: 1, Text: "第一个问题"},
		{QuestionID: "q-12", SubmissionID: "sub-3", BlockID: "blk-y", Position: 1, Text: "别的代码块的问题"},
	}
	err := repo.SaveQuestions(questions)
	require.NoError(t, err)

	result, err := repo.GetByBlock("blk-x")
	assert.NoError(t, err)
	assert.Len(t, result, 2, "Should return 2 questions for the block")
	assert.Equal(t, "q-11", result[0].QuestionID, "Questions should be ordered by position")
	assert.Equal(t, "q-10", result[1].QuestionID, "Questions should be ordered by position")
}

func TestQuestionRepository_GetByVectorIDs(t *testing.T) {
	_, cleanup := setupQuestionTestDB(t)
	defer cleanup()

	repo := NewQuestionRepository()

	questions := []*models.QuizQuestion{
		{QuestionID: "q-20", SubmissionID: "sub-4", BlockID: "blk-1", Position: 1, Text: "问题 20", VectorID: "vec-20"},
		{QuestionID: "q-21", SubmissionID: "sub-4", BlockID: "blk-1", Position: 2, Text: "问题 21", VectorID: "vec-21"},
		{QuestionID: "q-22", SubmissionID: "sub-4", BlockID: "blk-2", Position: 1, Text: "问题 22", VectorID: "vec-22"},
	}
	err := repo.SaveQuestions(questions)
	require.NoError(t, err)

	// Empty input returns nothing
	result, err := repo.GetByVectorIDs(nil)
	assert.NoError(t, err)
	assert.Empty(t, result, "Empty vector ID list should return no questions")

	// Results follow the requested order, unknown IDs are skipped
	result, err = repo.GetByVectorIDs([]string{"vec-22", "vec-missing", "vec-20"})
	assert.NoError(t, err)
	assert.Len(t, result, 2, "Should return 2 matching questions")
	assert.Equal(t, "q-22", result[0].QuestionID, "Results should follow the requested order")
	assert.Equal(t, "q-20", result[1].QuestionID, "Results should follow the requested order")
}

func TestQuestionRepository_IncrementAsked(t *testing.T) {
	_, cleanup := setupQuestionTestDB(t)
	defer cleanup()

	repo := NewQuestionRepository()

	question := &models.QuizQuestion{
		QuestionID:   "q-30",
		SubmissionID: "sub-5",
		BlockID:      "blk-1",
		Position:     1,
		Text:         "这段代码处理了哪些边界情况？",
	}
	err := repo.SaveQuestion(question)
	require.NoError(t, err)

	// Increment twice
	err = repo.IncrementAsked("q-30")
	assert.NoError(t, err)
	err = repo.IncrementAsked("q-30")
	assert.NoError(t, err)

	saved, err := repo.GetByQuestionID("q-30")
	assert.NoError(t, err)
	assert.Equal(t, 2, saved.AskedCount, "Asked count should be incremented to 2")
}

func TestQuestionRepository_DeleteBySubmission(t *testing.T) {
	_, cleanup := setupQuestionTestDB(t)
	defer cleanup()

	repo := NewQuestionRepository()

	questions := []*models.QuizQuestion{
		{QuestionID: "q-40", SubmissionID: "sub-6", BlockID: "blk-1", Position: 1, Text: "问题 40"},
		{QuestionID: "q-41", SubmissionID: "sub-6", BlockID: "blk-1", Position: 2, Text: "问题 41"},
		{QuestionID: "q-42", SubmissionID: "sub-keep", BlockID: "blk-1", Position: 1, Text: "保留的问题"},
	}
	err := repo.SaveQuestions(questions)
	require.NoError(t, err)

	err = repo.DeleteBySubmission("sub-6")
	assert.NoError(t, err, "DeleteBySubmission should succeed")

	count, err := repo.CountBySubmission("sub-6")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), count, "Questions for the submission should be deleted")

	// Other submissions are untouched
	count, err = repo.CountBySubmission("sub-keep")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count, "Other submissions should keep their questions")
}
