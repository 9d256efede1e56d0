package customer

import (
	"context"

	"customer-health/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockCustomerRepository struct {
	mock.Mock
}

func (_m *MockCustomerRepository) Create(ctx context.Context, s storage.Session, c *Customer) error {
	ret := _m.Called(ctx, s, c)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, storage.Session, *Customer) error); ok {
		r0 = rf(ctx, s, c)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

func (_m *MockCustomerRepository) FindByID(ctx context.Context, s storage.Session, customerID int64) (*Customer, error) {
	ret := _m.Called(ctx, s, customerID)

	var r0 *Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Customer)
	}

	return r0, ret.Error(1)
}

func (_m *MockCustomerRepository) FindAll(ctx context.Context, s storage.Session) ([]*Customer, error) {
	ret := _m.Called(ctx, s)

	var r0 []*Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*Customer)
	}

	return r0, ret.Error(1)
}

func (_m *MockCustomerRepository) Exists(ctx context.Context, s storage.Session, customerID int64) (bool, error) {
	ret := _m.Called(ctx, s, customerID)
	return ret.Bool(0), ret.Error(1)
}

func (_m *MockCustomerRepository) EventTotals(ctx context.Context, s storage.Session, customerID int64) (map[string]int64, error) {
	ret := _m.Called(ctx, s, customerID)

	var r0 map[string]int64
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(map[string]int64)
	}

	return r0, ret.Error(1)
}
