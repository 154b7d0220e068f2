package service

import (
	"context"
	"fmt"
	"strings"

	"nepeats/internal/domain/user/model"
	"nepeats/internal/domain/user/repository"
	"nepeats/internal/pkg/geocode"
	"nepeats/pkg/database"
	"nepeats/pkg/errs"
	"nepeats/pkg/logger"

	"go.uber.org/zap"
)

// AddressInput 新增或修改地址
// 修改时空字符串和 nil 表示保持原值
type AddressInput struct {
	Label     string
	Street    string
	City      string
	Area      string
	Landmark  *string
	Phone     string
	IsDefault *bool
	Lat       *float64
	Lng       *float64
}

// AddressService 地址簿
// 有地址时恰好一个默认地址：首个地址自动为默认，删除默认地址时最早的剩余地址接替
type AddressService interface {
	List(ctx context.Context, userID string) ([]model.Address, error)
	Create(ctx context.Context, userID, role string, input AddressInput) (*model.Address, error)
	Update(ctx context.Context, userID, id string, input AddressInput) (*model.Address, error)
	Delete(ctx context.Context, userID, id string) error
	SetDefault(ctx context.Context, userID, id string) (*model.Address, error)
}

type addressService struct {
	users     repository.UserRepository
	addresses repository.AddressRepository
	tx        database.Transactor
	geocoder  geocode.Geocoder
}

func NewAddressService(users repository.UserRepository, addresses repository.AddressRepository, tx database.Transactor, geocoder geocode.Geocoder) AddressService {
	if geocoder == nil {
		geocoder = geocode.Nop{}
	}
	return &addressService{users: users, addresses: addresses, tx: tx, geocoder: geocoder}
}

func (s *addressService) List(ctx context.Context, userID string) ([]model.Address, error) {
	return s.addresses.ListByUser(ctx, userID)
}

func (s *addressService) Create(ctx context.Context, userID, role string, input AddressInput) (*model.Address, error) {
	if strings.TrimSpace(input.Street) == "" || strings.TrimSpace(input.City) == "" {
		return nil, fmt.Errorf("%w: street and city are required", errs.ErrInvalidInput)
	}

	addr := &model.Address{
		UserID:   userID,
		Label:    input.Label,
		Street:   input.Street,
		City:     input.City,
		Area:     input.Area,
		Landmark: input.Landmark,
		Phone:    input.Phone,
	}
	if input.Lat != nil && input.Lng != nil {
		addr.Lat, addr.Lng = input.Lat, input.Lng
	} else {
		s.locate(ctx, addr)
	}

	owner := &model.User{Role: role}
	owner.ID = userID

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.users.Ensure(ctx, owner); err != nil {
			return err
		}
		n, err := s.addresses.Count(ctx, userID)
		if err != nil {
			return err
		}

		// 首个地址自动设为默认
		addr.IsDefault = n == 0 || (input.IsDefault != nil && *input.IsDefault)
		if addr.IsDefault {
			if err := s.addresses.ClearDefault(ctx, userID); err != nil {
				return err
			}
		}
		return s.addresses.Create(ctx, addr)
	})
	if err != nil {
		return nil, err
	}
	return addr, nil
}

func (s *addressService) Update(ctx context.Context, userID, id string, input AddressInput) (*model.Address, error) {
	var addr *model.Address
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		addr, err = s.addresses.Get(ctx, userID, id)
		if err != nil {
			return err
		}

		if input.Label != "" {
			addr.Label = input.Label
		}
		if input.Street != "" {
			addr.Street = input.Street
		}
		if input.City != "" {
			addr.City = input.City
		}
		if input.Area != "" {
			addr.Area = input.Area
		}
		if input.Landmark != nil {
			addr.Landmark = input.Landmark
		}
		if input.Phone != "" {
			addr.Phone = input.Phone
		}
		if input.Lat != nil && input.Lng != nil {
			addr.Lat, addr.Lng = input.Lat, input.Lng
		}

		// 取消默认会留下没有默认地址的地址簿，忽略
		if input.IsDefault != nil && *input.IsDefault && !addr.IsDefault {
			if err := s.addresses.ClearDefault(ctx, userID); err != nil {
				return err
			}
			addr.IsDefault = true
		}
		return s.addresses.Save(ctx, addr)
	})
	if err != nil {
		return nil, err
	}
	return addr, nil
}

func (s *addressService) Delete(ctx context.Context, userID, id string) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		addr, err := s.addresses.Get(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := s.addresses.Delete(ctx, userID, id); err != nil {
			return err
		}
		if !addr.IsDefault {
			return nil
		}

		// 默认地址被删除，最早的剩余地址接替
		next, err := s.addresses.DefaultOrFirst(ctx, userID)
		if err != nil || next == nil {
			return err
		}
		return s.addresses.MarkDefault(ctx, userID, next.ID)
	})
}

func (s *addressService) SetDefault(ctx context.Context, userID, id string) (*model.Address, error) {
	var addr *model.Address
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		addr, err = s.addresses.Get(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := s.addresses.ClearDefault(ctx, userID); err != nil {
			return err
		}
		if err := s.addresses.MarkDefault(ctx, userID, id); err != nil {
			return err
		}
		addr.IsDefault = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return addr, nil
}

// locate 尽力补全坐标，失败时使用城市中心坐标
func (s *addressService) locate(ctx context.Context, addr *model.Address) {
	p, err := s.geocoder.Geocode(ctx, geocode.Query{Street: addr.Street, Area: addr.Area, City: addr.City})
	if err != nil {
		logger.Log.Warn("Geocoding failed", zap.String("city", addr.City), zap.Error(err))
	}
	if p == nil {
		d := geocode.DefaultCityCoordinates(addr.City)
		p = &d
	}
	addr.Lat, addr.Lng = &p.Lat, &p.Lng
}
