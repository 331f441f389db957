package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ccode104/Lab-Assistant/internal/database"
	"github.com/Ccode104/Lab-Assistant/internal/models"
	"gorm.io/gorm"
)

// QuestionRepository 检查问题仓储接口
// 负责题库中问题记录的存储和检索
type QuestionRepository interface {
	// SaveQuestion 保存问题
	SaveQuestion(question *models.QuizQuestion) error

	// SaveQuestions 批量保存问题
	SaveQuestions(questions []*models.QuizQuestion) error

	// GetByQuestionID 根据问题ID获取问题
	GetByQuestionID(questionID string) (*models.QuizQuestion, error)

	// GetBySubmission 获取提交的所有问题
	GetBySubmission(submissionID string) ([]*models.QuizQuestion, error)

	// GetByBlock 获取代码块的所有问题
	GetByBlock(blockID string) ([]*models.QuizQuestion, error)

	// GetByVectorIDs 根据向量索引ID批量获取问题
	GetByVectorIDs(vectorIDs []string) ([]*models.QuizQuestion, error)

	// CountBySubmission 统计提交的问题数量
	CountBySubmission(submissionID string) (int64, error)

	// IncrementAsked 将问题的已提问次数加一
	IncrementAsked(questionID string) error

	// DeleteBySubmission 删除提交的所有问题
	DeleteBySubmission(submissionID string) error

	// WithContext 创建带有上下文的仓储
	WithContext(ctx context.Context) QuestionRepository
}

// questionRepo 检查问题仓储实现
type questionRepo struct {
	db *gorm.DB // 数据库连接
}

// NewQuestionRepository 创建问题仓储实例
func NewQuestionRepository() QuestionRepository {
	return &questionRepo{
		db: database.MustDB(),
	}
}

// NewQuestionRepositoryWithDB 使用指定的数据库连接创建问题仓储实例
func NewQuestionRepositoryWithDB(db *gorm.DB) QuestionRepository {
	if db == nil {
		db = database.MustDB()
	}
	return &questionRepo{
		db: db,
	}
}

// WithContext 创建带有上下文的仓储
func (r *questionRepo) WithContext(ctx context.Context) QuestionRepository {
	return &questionRepo{
		db: r.db.WithContext(ctx),
	}
}

// SaveQuestion 保存问题
func (r *questionRepo) SaveQuestion(question *models.QuizQuestion) error {
	if question.QuestionID == "" {
		return errors.New("question ID cannot be empty")
	}

	return r.db.Create(question).Error
}

// SaveQuestions 批量保存问题
func (r *questionRepo) SaveQuestions(questions []*models.QuizQuestion) error {
	if len(questions) == 0 {
		return nil
	}

	// 使用事务批量插入
	return r.db.Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(questions, 100).Error
	})
}

// GetByQuestionID 根据问题ID获取问题
func (r *questionRepo) GetByQuestionID(questionID string) (*models.QuizQuestion, error) {
	var question models.QuizQuestion
	err := r.db.Where("question_id = ?", questionID).First(&question).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", models.ErrQuestionNotFound, questionID)
		}
		return nil, err
	}
	return &question, nil
}

// GetBySubmission 获取提交的所有问题
// 按代码块内序号排序，保证出题顺序稳定
func (r *questionRepo) GetBySubmission(submissionID string) ([]*models.QuizQuestion, error) {
	var questions []*models.QuizQuestion
	err := r.db.Where("submission_id = ?", submissionID).
		Order("block_id ASC, position ASC").
		Find(&questions).Error
	return questions, err
}

// GetByBlock 获取代码块的所有问题
func (r *questionRepo) GetByBlock(blockID string) ([]*models.QuizQuestion, error) {
	var questions []*models.QuizQuestion
	err := r.db.Where("block_id = ?", blockID).
		Order("position ASC").
		Find(&questions).Error
	return questions, err
}

// GetByVectorIDs 根据向量索引ID批量获取问题
// 结果按传入ID的顺序返回，向量索引中已不存在的条目被跳过
func (r *questionRepo) GetByVectorIDs(vectorIDs []string) ([]*models.QuizQuestion, error) {
	if len(vectorIDs) == 0 {
		return nil, nil
	}

	var questions []*models.QuizQuestion
	err := r.db.Where("vector_id IN ?", vectorIDs).
		Find(&questions).Error
	if err != nil {
		return nil, err
	}

	// 按查询顺序重排
	byVector := make(map[string]*models.QuizQuestion, len(questions))
	for _, q := range questions {
		byVector[q.VectorID] = q
	}

	ordered := make([]*models.QuizQuestion, 0, len(questions))
	for _, vid := range vectorIDs {
		if q, ok := byVector[vid]; ok {
			ordered = append(ordered, q)
		}
	}

	return ordered, nil
}

// CountBySubmission 统计提交的问题数量
func (r *questionRepo) CountBySubmission(submissionID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.QuizQuestion{}).
		Where("submission_id = ?", submissionID).
		Count(&count).Error
	return count, err
}

// IncrementAsked 将问题的已提问次数加一
func (r *questionRepo) IncrementAsked(questionID string) error {
	return r.db.Model(&models.QuizQuestion{}).
		Where("question_id = ?", questionID).
		UpdateColumn("asked_count", gorm.Expr("asked_count + 1")).Error
}

// DeleteBySubmission 删除提交的所有问题
func (r *questionRepo) DeleteBySubmission(submissionID string) error {
	return r.db.Where("submission_id = ?", submissionID).
		Delete(&models.QuizQuestion{}).Error
}
