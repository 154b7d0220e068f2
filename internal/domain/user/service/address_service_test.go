package service

import (
	"context"
	"errors"
	"testing"

	"nepeats/internal/domain/user/model"
	"nepeats/internal/pkg/geocode"
	"nepeats/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newAddress(id string, isDefault bool) *model.Address {
	a := &model.Address{UserID: "u1", Street: "Lazimpat", City: "Kathmandu", IsDefault: isDefault}
	a.ID = id
	return a
}

func boolPtr(b bool) *bool { return &b }

func setupAddressService(geo geocode.Geocoder) (AddressService, *MockUserRepository, *MockAddressRepository) {
	users := new(MockUserRepository)
	addrs := new(MockAddressRepository)
	return NewAddressService(users, addrs, directTx{}, geo), users, addrs
}

func TestCreateAddress(t *testing.T) {
	ctx := context.Background()

	t.Run("First address becomes default", func(t *testing.T) {
		svc, users, addrs := setupAddressService(fakeGeocoder{point: &geocode.Point{Lat: 27.72, Lng: 85.32}})
		users.On("Ensure", ctx, mock.Anything).Return(nil)
		addrs.On("Count", ctx, "u1").Return(int64(0), nil)
		addrs.On("ClearDefault", ctx, "u1").Return(nil)
		addrs.On("Create", ctx, mock.AnythingOfType("*model.Address")).Return(nil)

		addr, err := svc.Create(ctx, "u1", "customer", AddressInput{Street: "Lazimpat", City: "Kathmandu"})

		require.NoError(t, err)
		assert.True(t, addr.IsDefault)
		require.True(t, addr.HasCoordinates())
		assert.Equal(t, 27.72, *addr.Lat)
		addrs.AssertExpectations(t)
	})

	t.Run("Second address is not default unless asked", func(t *testing.T) {
		svc, users, addrs := setupAddressService(nil)
		lat, lng := 28.2, 83.9
		users.On("Ensure", ctx, mock.Anything).Return(nil)
		addrs.On("Count", ctx, "u1").Return(int64(1), nil)
		addrs.On("Create", ctx, mock.AnythingOfType("*model.Address")).Return(nil)

		addr, err := svc.Create(ctx, "u1", "customer", AddressInput{Street: "Lakeside", City: "Pokhara", Lat: &lat, Lng: &lng})

		require.NoError(t, err)
		assert.False(t, addr.IsDefault)
		addrs.AssertNotCalled(t, "ClearDefault", mock.Anything, mock.Anything)
	})

	t.Run("Explicit default unsets the others", func(t *testing.T) {
		svc, users, addrs := setupAddressService(nil)
		users.On("Ensure", ctx, mock.Anything).Return(nil)
		addrs.On("Count", ctx, "u1").Return(int64(2), nil)
		addrs.On("ClearDefault", ctx, "u1").Return(nil).Once()
		addrs.On("Create", ctx, mock.AnythingOfType("*model.Address")).Return(nil)

		addr, err := svc.Create(ctx, "u1", "customer", AddressInput{Street: "Jhamsikhel", City: "Lalitpur", IsDefault: boolPtr(true)})

		require.NoError(t, err)
		assert.True(t, addr.IsDefault)
		addrs.AssertExpectations(t)
	})

	t.Run("Geocoding failure falls back to city center", func(t *testing.T) {
		svc, users, addrs := setupAddressService(fakeGeocoder{err: errors.New("timeout")})
		users.On("Ensure", ctx, mock.Anything).Return(nil)
		addrs.On("Count", ctx, "u1").Return(int64(1), nil)
		addrs.On("Create", ctx, mock.AnythingOfType("*model.Address")).Return(nil)

		addr, err := svc.Create(ctx, "u1", "customer", AddressInput{Street: "Main Road", City: "Dharan"})

		require.NoError(t, err)
		assert.Equal(t, 26.8125, *addr.Lat)
		assert.Equal(t, 87.2833, *addr.Lng)
	})

	t.Run("Missing street is rejected", func(t *testing.T) {
		svc, _, _ := setupAddressService(nil)
		_, err := svc.Create(ctx, "u1", "customer", AddressInput{City: "Kathmandu"})
		assert.ErrorIs(t, err, errs.ErrInvalidInput)
	})
}

func TestDeleteAddress(t *testing.T) {
	ctx := context.Background()

	t.Run("Deleting the default promotes the earliest remaining", func(t *testing.T) {
		svc, _, addrs := setupAddressService(nil)
		addrs.On("Get", ctx, "u1", "a1").Return(newAddress("a1", true), nil)
		addrs.On("Delete", ctx, "u1", "a1").Return(nil)
		addrs.On("DefaultOrFirst", ctx, "u1").Return(newAddress("a2", false), nil)
		addrs.On("MarkDefault", ctx, "u1", "a2").Return(nil)

		require.NoError(t, svc.Delete(ctx, "u1", "a1"))
		addrs.AssertExpectations(t)
	})

	t.Run("Deleting the last address leaves nothing to promote", func(t *testing.T) {
		svc, _, addrs := setupAddressService(nil)
		addrs.On("Get", ctx, "u1", "a1").Return(newAddress("a1", true), nil)
		addrs.On("Delete", ctx, "u1", "a1").Return(nil)
		addrs.On("DefaultOrFirst", ctx, "u1").Return(nil, nil)

		require.NoError(t, svc.Delete(ctx, "u1", "a1"))
		addrs.AssertNotCalled(t, "MarkDefault", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Deleting a non-default keeps the default", func(t *testing.T) {
		svc, _, addrs := setupAddressService(nil)
		addrs.On("Get", ctx, "u1", "a2").Return(newAddress("a2", false), nil)
		addrs.On("Delete", ctx, "u1", "a2").Return(nil)

		require.NoError(t, svc.Delete(ctx, "u1", "a2"))
		addrs.AssertNotCalled(t, "DefaultOrFirst", mock.Anything, mock.Anything)
	})

	t.Run("Unknown address", func(t *testing.T) {
		svc, _, addrs := setupAddressService(nil)
		addrs.On("Get", ctx, "u1", "nope").Return(nil, errs.ErrNotFound)

		assert.ErrorIs(t, svc.Delete(ctx, "u1", "nope"), errs.ErrNotFound)
	})
}

func TestSetDefaultAddress(t *testing.T) {
	ctx := context.Background()
	svc, _, addrs := setupAddressService(nil)
	addrs.On("Get", ctx, "u1", "a2").Return(newAddress("a2", false), nil)
	addrs.On("ClearDefault", ctx, "u1").Return(nil)
	addrs.On("MarkDefault", ctx, "u1", "a2").Return(nil)

	addr, err := svc.SetDefault(ctx, "u1", "a2")

	require.NoError(t, err)
	assert.True(t, addr.IsDefault)
	addrs.AssertExpectations(t)
}

func TestUpdateAddress(t *testing.T) {
	ctx := context.Background()

	t.Run("Partial update keeps other fields", func(t *testing.T) {
		svc, _, addrs := setupAddressService(nil)
		addrs.On("Get", ctx, "u1", "a1").Return(newAddress("a1", true), nil)
		addrs.On("Save", ctx, mock.AnythingOfType("*model.Address")).Return(nil)

		addr, err := svc.Update(ctx, "u1", "a1", AddressInput{Label: "Office", IsDefault: boolPtr(false)})

		require.NoError(t, err)
		assert.Equal(t, "Office", addr.Label)
		assert.Equal(t, "Lazimpat", addr.Street)
		assert.True(t, addr.IsDefault)
	})

	t.Run("Making an address default unsets the others", func(t *testing.T) {
		svc, _, addrs := setupAddressService(nil)
		addrs.On("Get", ctx, "u1", "a2").Return(newAddress("a2", false), nil)
		addrs.On("ClearDefault", ctx, "u1").Return(nil).Once()
		addrs.On("Save", ctx, mock.AnythingOfType("*model.Address")).Return(nil)

		addr, err := svc.Update(ctx, "u1", "a2", AddressInput{IsDefault: boolPtr(true)})

		require.NoError(t, err)
		assert.True(t, addr.IsDefault)
		addrs.AssertExpectations(t)
	})
}
