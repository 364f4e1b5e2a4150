package companies

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idocstoreapp/cotizador-app-sub000/internal/shared"
)

type mockRepo struct {
	companies map[int64]*Company
	err       error
}

func (m *mockRepo) Get(ctx context.Context, id int64) (*Company, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.companies[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return c, nil
}

func (m *mockRepo) GetByPrefix(ctx context.Context, prefix string) (*Company, error) {
	for _, c := range m.companies {
		if c.Prefix == prefix {
			return c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockRepo) List(ctx context.Context) ([]Company, error) {
	var out []Company
	for _, c := range m.companies {
		out = append(out, *c)
	}
	return out, nil
}

func TestResolveReturnsConfiguredCompany(t *testing.T) {
	svc := NewService(&mockRepo{companies: map[int64]*Company{
		1: {ID: 1, Name: "Muebles Norte", Prefix: "MN", StartNumber: 1000, DefaultIVAPercent: 19},
	}})

	company, err := svc.Resolve(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "MN", company.Prefix)
}

func TestResolveMissingCompanyIsConfigurationError(t *testing.T) {
	svc := NewService(&mockRepo{companies: map[int64]*Company{}})

	_, err := svc.Resolve(context.Background(), 9)
	var cfgErr *shared.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Reason, "numbering")
}

func TestResolveIncompleteConfigurationFails(t *testing.T) {
	svc := NewService(&mockRepo{companies: map[int64]*Company{
		1: {ID: 1, Name: "Sin prefijo", Prefix: "", StartNumber: 1000},
		2: {ID: 2, Name: "Sin inicio", Prefix: "CS", StartNumber: 0},
	}})

	var cfgErr *shared.ConfigurationError
	_, err := svc.Resolve(context.Background(), 1)
	assert.ErrorAs(t, err, &cfgErr)
	_, err = svc.Resolve(context.Background(), 2)
	assert.ErrorAs(t, err, &cfgErr)
}

func TestResolveRepositoryErrorIsNotConfiguration(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewService(&mockRepo{err: boom})

	_, err := svc.Resolve(context.Background(), 1)
	require.Error(t, err)
	var cfgErr *shared.ConfigurationError
	assert.False(t, errors.As(err, &cfgErr))
	assert.ErrorIs(t, err, boom)
}
