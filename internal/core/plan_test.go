package core

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/saasadmin/internal/listfilter"
	"github.com/edvin/saasadmin/internal/model"
)

func TestPlanService_Create_Defaults(t *testing.T) {
	db := &mockDB{}
	svc := NewPlanService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(tag("INSERT 0 1"), nil)

	p := &model.Plan{Name: "Starter", PriceCents: 1900}
	require.NoError(t, svc.Create(ctx, p))
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, model.PlanActive, p.Status)
	assert.Equal(t, "USD", p.Currency)
	assert.Equal(t, model.IntervalMonthly, p.Interval)
	assert.NotNil(t, p.Features)
	db.AssertExpectations(t)
}

func TestPlanService_Create_Invalid(t *testing.T) {
	db := &mockDB{}
	svc := NewPlanService(db)

	tests := []struct {
		name string
		plan model.Plan
	}{
		{"missing name", model.Plan{PriceCents: 100}},
		{"negative price", model.Plan{Name: "x", PriceCents: -1}},
		{"bad interval", model.Plan{Name: "x", Interval: "weekly"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.plan
			err := svc.Create(context.Background(), &p)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
}

func TestPlanService_GetByID_NotFound(t *testing.T) {
	db := &mockDB{}
	svc := NewPlanService(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }})

	_, err := svc.GetByID(ctx, "plan_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPlanService_Delete_InUse(t *testing.T) {
	db := &mockDB{}
	svc := NewPlanService(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanFunc: func(dest ...any) error {
			*(dest[0].(*int)) = 3
			return nil
		}})

	err := svc.Delete(ctx, "plan_pro")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "3 tenants")
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
}

func TestPlanService_Delete_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewPlanService(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanFunc: func(dest ...any) error {
			*(dest[0].(*int)) = 0
			return nil
		}})
	db.On("Exec", ctx, "DELETE FROM plans WHERE id = $1", []any{"plan_old"}).Return(tag("DELETE 1"), nil)

	require.NoError(t, svc.Delete(ctx, "plan_old"))
	db.AssertExpectations(t)
}

func TestPlanService_Delete_NotFound(t *testing.T) {
	db := &mockDB{}
	svc := NewPlanService(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanFunc: func(dest ...any) error {
			*(dest[0].(*int)) = 0
			return nil
		}})
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(tag("DELETE 0"), nil)

	assert.ErrorIs(t, svc.Delete(ctx, "plan_gone"), ErrNotFound)
}

func TestPlanService_Archive_DBError(t *testing.T) {
	db := &mockDB{}
	svc := NewPlanService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(tag(""), errors.New("connection lost"))

	err := svc.Archive(ctx, "plan_pro")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archive plan plan_pro")
}

func TestPlanSchema_PriceSortNormalisesYearly(t *testing.T) {
	plans := []model.Plan{
		{ID: "a", PriceCents: 2000, Interval: model.IntervalMonthly},
		{ID: "b", PriceCents: 12000, Interval: model.IntervalYearly},
		{ID: "c", PriceCents: 500, Interval: model.IntervalMonthly},
	}
	sorted := listfilter.Apply(plans, PlanSchema, listfilter.Query{})
	ids := []string{sorted[0].ID, sorted[1].ID, sorted[2].ID}
	assert.Equal(t, []string{"c", "b", "a"}, ids)
}
