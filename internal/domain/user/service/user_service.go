package service

import (
	"context"
	"strings"

	"nepeats/internal/domain/user/model"
	"nepeats/internal/domain/user/repository"
)

// ProfileInput 资料更新，空字段不修改
type ProfileInput struct {
	Name         string
	Email        string
	Phone        string
	ProfileImage string
}

// UserService 用户服务接口
type UserService interface {
	// GetProfile 首次访问时按令牌信息建档
	GetProfile(ctx context.Context, userID, role string) (*model.User, error)
	UpdateProfile(ctx context.Context, userID, role string, input ProfileInput) (*model.User, error)
}

// userService 实现
type userService struct {
	repo repository.UserRepository
}

// NewUserService 创建用户服务
func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) GetProfile(ctx context.Context, userID, role string) (*model.User, error) {
	if err := s.ensure(ctx, userID, role); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, userID)
}

func (s *userService) UpdateProfile(ctx context.Context, userID, role string, input ProfileInput) (*model.User, error) {
	if err := s.ensure(ctx, userID, role); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if v := strings.TrimSpace(input.Name); v != "" {
		fields["name"] = v
	}
	if v := strings.TrimSpace(input.Email); v != "" {
		fields["email"] = strings.ToLower(v)
	}
	if v := strings.TrimSpace(input.Phone); v != "" {
		fields["phone"] = v
	}
	if input.ProfileImage != "" {
		fields["profile_image"] = input.ProfileImage
	}

	if len(fields) > 0 {
		if err := s.repo.UpdateProfile(ctx, userID, fields); err != nil {
			return nil, err
		}
	}
	return s.repo.GetByID(ctx, userID)
}

func (s *userService) ensure(ctx context.Context, userID, role string) error {
	user := &model.User{Role: role}
	user.ID = userID
	return s.repo.Ensure(ctx, user)
}
