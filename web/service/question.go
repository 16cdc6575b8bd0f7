package service

import (
	"context"

	"github.com/askboard/askboard/database/model"
	"github.com/askboard/askboard/web/entity"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	errAlreadyVoted    = errors.New("vote already recorded")
	errQuestionMissing = errors.New("question does not exist")
)

type QuestionService struct {
	db *gorm.DB
}

func NewQuestionService(db *gorm.DB) *QuestionService {
	return &QuestionService{db: db}
}

// questionRow is the scan target of the joined queries; has_voted comes
// back as 0/1 on every dialect.
type questionRow struct {
	Id           int
	ClassroomId  int
	Text         string
	Votes        int
	ClassSubject string
	HasVoted     int
}

func (r questionRow) view() entity.QuestionView {
	return entity.QuestionView{
		Id:           r.Id,
		ClassroomId:  r.ClassroomId,
		Text:         r.Text,
		Votes:        r.Votes,
		ClassSubject: r.ClassSubject,
		HasVoted:     r.HasVoted != 0,
	}
}

func toViews(rows []questionRow) []entity.QuestionView {
	views := make([]entity.QuestionView, 0, len(rows))
	for _, r := range rows {
		views = append(views, r.view())
	}
	return views
}

// Ask posts a question with no votes. Empty text is dropped and yields a
// nil question. The classroom is not checked.
func (s *QuestionService) Ask(ctx context.Context, classroomId int, text string) (*model.Question, error) {
	if text == "" {
		return nil, nil
	}
	question := &model.Question{ClassroomId: classroomId, Text: text, Votes: 0}
	if err := s.db.WithContext(ctx).Create(question).Error; err != nil {
		return nil, errors.Wrapf(err, "ask in classroom %d", classroomId)
	}
	return question, nil
}

// Upvote records the user's vote and bumps the question counter in one
// transaction. It is a no-op, reported as false, when the vote already
// exists or the question does not.
func (s *QuestionService) Upvote(ctx context.Context, userId, questionId int) (bool, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.Vote{UserId: userId, QuestionId: questionId})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errAlreadyVoted
		}
		res = tx.Model(&model.Question{}).
			Where("id = ?", questionId).
			UpdateColumn("votes", gorm.Expr("votes + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errQuestionMissing
		}
		return nil
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errAlreadyVoted), errors.Is(err, errQuestionMissing):
		return false, nil
	}
	return false, errors.Wrapf(err, "upvote question %d", questionId)
}

// GetRankedQuestions lists the classroom's questions by votes, highest
// first, marking the ones userId already voted for.
func (s *QuestionService) GetRankedQuestions(ctx context.Context, classroomId, userId int) ([]entity.QuestionView, error) {
	rows := make([]questionRow, 0)
	err := s.db.WithContext(ctx).
		Table("questions").
		Select("questions.id, questions.classroom_id, questions.text, questions.votes, "+
			"CASE WHEN votes.user_id IS NOT NULL THEN 1 ELSE 0 END AS has_voted").
		Joins("LEFT JOIN votes ON questions.id = votes.question_id AND votes.user_id = ?", userId).
		Where("questions.classroom_id = ?", classroomId).
		Order("questions.votes DESC, questions.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrapf(err, "list questions of classroom %d", classroomId)
	}
	return toViews(rows), nil
}

// GetQuestions lists every question with its classroom subject, newest
// first. Questions of deleted classrooms are not listed.
func (s *QuestionService) GetQuestions(ctx context.Context) ([]entity.QuestionView, error) {
	return s.getJoinedQuestions(ctx, nil)
}

// GetQuestionsByTeacher is GetQuestions limited to classrooms taught by username.
func (s *QuestionService) GetQuestionsByTeacher(ctx context.Context, username string) ([]entity.QuestionView, error) {
	return s.getJoinedQuestions(ctx, &username)
}

func (s *QuestionService) getJoinedQuestions(ctx context.Context, teacher *string) ([]entity.QuestionView, error) {
	rows := make([]questionRow, 0)
	q := s.db.WithContext(ctx).
		Table("questions").
		Select("questions.id, questions.classroom_id, questions.text, questions.votes, classrooms.subject AS class_subject").
		Joins("JOIN classrooms ON questions.classroom_id = classrooms.id")
	if teacher != nil {
		q = q.Where("classrooms.teacher = ?", *teacher)
	}
	if err := q.Order("questions.id DESC").Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "list questions")
	}
	return toViews(rows), nil
}
