package service

import (
	"context"

	"github.com/askboard/askboard/database"
	"github.com/askboard/askboard/database/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var ErrClassroomNotFound = errors.New("classroom not found")

type ClassroomService struct {
	db *gorm.DB
}

func NewClassroomService(db *gorm.DB) *ClassroomService {
	return &ClassroomService{db: db}
}

// AddClassroom inserts a classroom; an empty teacher is stored as "".
func (s *ClassroomService) AddClassroom(ctx context.Context, subject, teacher string) (*model.Classroom, error) {
	classroom := &model.Classroom{Subject: subject, Teacher: teacher}
	if err := s.db.WithContext(ctx).Create(classroom).Error; err != nil {
		return nil, errors.Wrap(err, "add classroom")
	}
	return classroom, nil
}

func (s *ClassroomService) GetClassroom(ctx context.Context, id int) (*model.Classroom, error) {
	classroom := &model.Classroom{}
	err := s.db.WithContext(ctx).First(classroom, id).Error
	if database.IsNotFound(err) {
		return nil, ErrClassroomNotFound
	} else if err != nil {
		return nil, errors.Wrapf(err, "get classroom %d", id)
	}
	return classroom, nil
}

func (s *ClassroomService) GetClassrooms(ctx context.Context) ([]model.Classroom, error) {
	classrooms := make([]model.Classroom, 0)
	if err := s.db.WithContext(ctx).Order("id").Find(&classrooms).Error; err != nil {
		return nil, errors.Wrap(err, "list classrooms")
	}
	return classrooms, nil
}

// GetClassroomsByTeacher lists the classrooms whose teacher field equals username.
func (s *ClassroomService) GetClassroomsByTeacher(ctx context.Context, username string) ([]model.Classroom, error) {
	classrooms := make([]model.Classroom, 0)
	err := s.db.WithContext(ctx).Where("teacher = ?", username).Order("id").Find(&classrooms).Error
	if err != nil {
		return nil, errors.Wrapf(err, "list classrooms of %s", username)
	}
	return classrooms, nil
}

// DeleteClassroom removes the classroom and then its questions and enrollments.
func (s *ClassroomService) DeleteClassroom(ctx context.Context, id int) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.Classroom{}, id).Error; err != nil {
			return err
		}
		if err := tx.Where("classroom_id = ?", id).Delete(&model.Question{}).Error; err != nil {
			return err
		}
		return tx.Where("classroom_id = ?", id).Delete(&model.Enrollment{}).Error
	})
	return errors.Wrapf(err, "delete classroom %d", id)
}
