// Package service implements askboard's store operations on top of an
// injected gorm connection pool. Every request-scoped method takes the
// request context; multi-statement operations run in one transaction.
package service

import (
	"context"

	"github.com/askboard/askboard/database"
	"github.com/askboard/askboard/database/model"
	"github.com/askboard/askboard/logger"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// CheckUser returns the user matching both username and password, or nil.
func (s *UserService) CheckUser(ctx context.Context, username string, password string) *model.User {
	user := &model.User{}
	err := s.db.WithContext(ctx).Model(model.User{}).
		Where("username = ? AND password = ?", username, password).
		First(user).
		Error
	if database.IsNotFound(err) {
		return nil
	} else if err != nil {
		logger.Warning("check user err:", err)
		return nil
	}
	return user
}

// GetFirstAdmin returns the admin account with the lowest id.
func (s *UserService) GetFirstAdmin(ctx context.Context) (*model.User, error) {
	user := &model.User{}
	err := s.db.WithContext(ctx).Model(model.User{}).
		Where("role = ?", model.RoleAdmin).
		Order("id").
		First(user).
		Error
	if err != nil {
		return nil, errors.Wrap(err, "get first admin")
	}
	return user, nil
}

// AddUser inserts an account. Duplicate usernames are allowed.
func (s *UserService) AddUser(ctx context.Context, username, password string, role model.Role) (*model.User, error) {
	user := &model.User{
		Username: username,
		Password: password,
		Role:     role,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, errors.Wrapf(err, "add %s", role)
	}
	return user, nil
}

func (s *UserService) GetUsersByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	users := make([]model.User, 0)
	err := s.db.WithContext(ctx).Where("role = ?", role).Order("id").Find(&users).Error
	if err != nil {
		return nil, errors.Wrapf(err, "list %s users", role)
	}
	return users, nil
}

// DeleteUser removes the user and then its enrollments and votes. Vote
// counters on questions are left as they are.
func (s *UserService) DeleteUser(ctx context.Context, id int) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.User{}, id).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.Enrollment{}).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", id).Delete(&model.Vote{}).Error
	})
	return errors.Wrapf(err, "delete user %d", id)
}
