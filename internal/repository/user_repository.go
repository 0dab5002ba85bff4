package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"discipline-bot/internal/model"
)

// UserRepository handles CRUD for users.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// UpsertFromTelegram finds or creates a user based on TelegramID and updates basic profile info.
// created reports whether the row was inserted by this call.
func (r *UserRepository) UpsertFromTelegram(ctx context.Context, telegramID int64, firstName, lastName, username string) (user *model.User, created bool, err error) {
	var u model.User
	db := r.db.WithContext(ctx)
	err = db.Where("telegram_id = ?", telegramID).First(&u).Error
	switch {
	case err == nil:
		if u.FirstName == firstName && u.LastName == lastName && u.Username == username {
			return &u, false, nil
		}
		updates := map[string]interface{}{
			"first_name": firstName,
			"last_name":  lastName,
			"username":   username,
		}
		if err := db.Model(&u).Updates(updates).Error; err != nil {
			return nil, false, wrap("update user", err)
		}
		return &u, false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		u = model.User{
			TelegramID: telegramID,
			FirstName:  firstName,
			LastName:   lastName,
			Username:   username,
		}
		if err := db.Create(&u).Error; err != nil {
			return nil, false, wrap("create user", err)
		}
		return &u, true, nil
	default:
		return nil, false, wrap("find user", err)
	}
}

// FindByTelegramID returns nil, nil when the user does not exist.
func (r *UserRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("find user", err)
	}
	return &user, nil
}

func (r *UserRepository) SetTargetWeight(ctx context.Context, userID uint, target float64) error {
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).
		Update("target_weight", target).Error
	return wrap("set target weight", err)
}

// SetTimezone stores an IANA override. An empty name restores the bot default.
func (r *UserRepository) SetTimezone(ctx context.Context, userID uint, tz string) error {
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).
		Update("timezone", tz).Error
	return wrap("set timezone", err)
}

func (r *UserRepository) SetWeekParityOffset(ctx context.Context, userID uint, offset int) error {
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).
		Update("week_parity_offset", offset).Error
	return wrap("set week parity", err)
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Count(&n).Error; err != nil {
		return 0, wrap("count users", err)
	}
	return n, nil
}

// SetBody stores the body parameters used for the calorie norm.
func (r *UserRepository) SetBody(ctx context.Context, userID uint, heightCm, birthYear int, gender, activity, goal string) error {
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{
			"height_cm":      heightCm,
			"birth_year":     birthYear,
			"gender":         gender,
			"activity_level": activity,
			"goal":           goal,
		}).Error
	return wrap("set body params", err)
}

// ListRecent returns up to limit users, newest registrations first.
func (r *UserRepository) ListRecent(ctx context.Context, limit int) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&users).Error
	if err != nil {
		return nil, wrap("list users", err)
	}
	return users, nil
}

func (r *UserRepository) ListTelegramIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Order("id ASC").Pluck("telegram_id", &ids).Error; err != nil {
		return nil, wrap("list telegram ids", err)
	}
	return ids, nil
}
