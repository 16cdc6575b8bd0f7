package service

import (
	"context"

	"github.com/askboard/askboard/database/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type EnrollmentService struct {
	db *gorm.DB
}

func NewEnrollmentService(db *gorm.DB) *EnrollmentService {
	return &EnrollmentService{db: db}
}

// Enroll links the user to the classroom unless the pair already exists.
// It reports whether a row was inserted.
func (s *EnrollmentService) Enroll(ctx context.Context, userId, classroomId int) (bool, error) {
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&model.Enrollment{}).
			Where("user_id = ? AND classroom_id = ?", userId, classroomId).
			Count(&count).Error
		if err != nil || count > 0 {
			return err
		}
		if err := tx.Create(&model.Enrollment{UserId: userId, ClassroomId: classroomId}).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, errors.Wrapf(err, "enroll user %d in classroom %d", userId, classroomId)
	}
	return created, nil
}

// GetEnrolledClassrooms lists the classrooms the user is enrolled in.
func (s *EnrollmentService) GetEnrolledClassrooms(ctx context.Context, userId int) ([]model.Classroom, error) {
	classrooms := make([]model.Classroom, 0)
	err := s.db.WithContext(ctx).
		Model(&model.Classroom{}).
		Select("classrooms.*").
		Joins("JOIN enrollments ON classrooms.id = enrollments.classroom_id").
		Where("enrollments.user_id = ?", userId).
		Order("classrooms.id").
		Find(&classrooms).Error
	if err != nil {
		return nil, errors.Wrapf(err, "list classrooms of user %d", userId)
	}
	return classrooms, nil
}
