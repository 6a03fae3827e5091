package storagemock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/tempowatch/tempowatch/pkg/storage"
	"github.com/tempowatch/tempowatch/pkg/types"
)

type MockDatabase struct {
	mock.Mock
}

var _ storage.Database = (*MockDatabase)(nil)

func (m *MockDatabase) UpsertTempoDays(ctx context.Context, adjusted, dateonly []types.TempoDay, version int) error {
	args := m.Called(ctx, adjusted, dateonly, version)
	return args.Error(0)
}

func (m *MockDatabase) GetTempoDays(ctx context.Context, start, end time.Time) ([]types.TempoDay, []types.TempoDay, error) {
	args := m.Called(ctx, start, end)
	var adjusted, dateonly []types.TempoDay
	if v := args.Get(0); v != nil {
		adjusted = v.([]types.TempoDay)
	}
	if v := args.Get(1); v != nil {
		dateonly = v.([]types.TempoDay)
	}
	return adjusted, dateonly, args.Error(2)
}

func (m *MockDatabase) Close() error {
	args := m.Called()
	return args.Error(0)
}
