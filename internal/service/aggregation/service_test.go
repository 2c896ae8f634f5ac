package aggregation

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/greenledger/carbon-compliance-backend/internal/domain/emissions"
	domainerrors "github.com/greenledger/carbon-compliance-backend/internal/domain/errors"
)

type fakeActivityRepo struct {
	activities []*emissions.Activity
	listErr    error
}

func (f *fakeActivityRepo) GetByID(ctx context.Context, id uuid.UUID) (*emissions.Activity, error) {
	for _, a := range f.activities {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, domainerrors.ErrActivityNotFound
}

func (f *fakeActivityRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*emissions.Activity, error) {
	return f.activities, f.listErr
}

func (f *fakeActivityRepo) ListPendingByProject(ctx context.Context, projectID uuid.UUID) ([]*emissions.Activity, error) {
	var out []*emissions.Activity
	for _, a := range f.activities {
		if a.Status == emissions.StatusPending {
			out = append(out, a)
		}
	}
	return out, f.listErr
}

func (f *fakeActivityRepo) ListCalculatedByProject(ctx context.Context, projectID uuid.UUID) ([]*emissions.Activity, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*emissions.Activity
	for _, a := range f.activities {
		if a.IsCalculated() {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeActivityRepo) Update(ctx context.Context, activity *emissions.Activity) error {
	return nil
}

type fakeResultRepo struct {
	cfps []*emissions.CFPResult
	cfos []*emissions.CFOResult
}

func (f *fakeResultRepo) InsertCFP(ctx context.Context, r *emissions.CFPResult) error {
	f.cfps = append(f.cfps, r)
	return nil
}

func (f *fakeResultRepo) InsertCFO(ctx context.Context, r *emissions.CFOResult) error {
	f.cfos = append(f.cfos, r)
	return nil
}

func (f *fakeResultRepo) LatestCFP(ctx context.Context, projectID uuid.UUID) (*emissions.CFPResult, error) {
	if len(f.cfps) == 0 {
		return nil, nil
	}
	return f.cfps[len(f.cfps)-1], nil
}

func (f *fakeResultRepo) LatestCFO(ctx context.Context, projectID uuid.UUID) (*emissions.CFOResult, error) {
	if len(f.cfos) == 0 {
		return nil, nil
	}
	return f.cfos[len(f.cfos)-1], nil
}

func calculatedActivity(t *testing.T, projectID uuid.UUID, scope emissions.Scope, total float64) *emissions.Activity {
	t.Helper()
	a, err := emissions.NewActivity(projectID, scope, "test_activity", decimal.NewFromInt(1), "kwh", emissions.Tier1)
	require.NoError(t, err)
	a.MarkCalculated(decimal.NewFromFloat(total), decimal.NewFromFloat(total), "default")
	return a
}

func scope3Activity(t *testing.T, projectID uuid.UUID, cat emissions.Scope3Category, total float64) *emissions.Activity {
	t.Helper()
	a := calculatedActivity(t, projectID, emissions.Scope3, total)
	_, err := a.WithCategory(cat)
	require.NoError(t, err)
	return a
}

func TestAggregate(t *testing.T) {
	projectID := uuid.New()
	logger := zap.NewNop()

	t.Run("sums by scope and category", func(t *testing.T) {
		repo := &fakeActivityRepo{activities: []*emissions.Activity{
			calculatedActivity(t, projectID, emissions.Scope1, 100),
			calculatedActivity(t, projectID, emissions.Scope2, 50),
			scope3Activity(t, projectID, emissions.CategoryPurchasedGoods, 30),
			scope3Activity(t, projectID, emissions.CategoryUseOfProducts, 20),
		}}
		svc := NewService(repo, &fakeResultRepo{}, logger)

		summary, err := svc.Aggregate(context.Background(), projectID)
		require.NoError(t, err)

		assert.True(t, summary.Scope1.Equal(decimal.NewFromInt(100)))
		assert.True(t, summary.Scope2.Equal(decimal.NewFromInt(50)))
		assert.True(t, summary.Scope3.Equal(decimal.NewFromInt(50)))
		assert.True(t, summary.Total.Equal(decimal.NewFromInt(200)))
		assert.Equal(t, 4, summary.ActivityCount)
		assert.True(t, summary.Scope3Categories[emissions.CategoryPurchasedGoods].Equal(decimal.NewFromInt(30)))
		assert.True(t, summary.Scope3Categories[emissions.CategoryUseOfProducts].Equal(decimal.NewFromInt(20)))
	})

	t.Run("skips pending activities", func(t *testing.T) {
		pending, err := emissions.NewActivity(projectID, emissions.Scope1, "diesel", decimal.NewFromInt(10), "liter", emissions.Tier1)
		require.NoError(t, err)

		repo := &fakeActivityRepo{activities: []*emissions.Activity{
			calculatedActivity(t, projectID, emissions.Scope1, 100),
			pending,
		}}
		svc := NewService(repo, &fakeResultRepo{}, logger)

		summary, err := svc.Aggregate(context.Background(), projectID)
		require.NoError(t, err)
		assert.True(t, summary.Total.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, 1, summary.ActivityCount)
	})

	t.Run("scope sum equals total after rounding", func(t *testing.T) {
		repo := &fakeActivityRepo{activities: []*emissions.Activity{
			calculatedActivity(t, projectID, emissions.Scope1, 0.33335),
			calculatedActivity(t, projectID, emissions.Scope2, 0.66665),
		}}
		svc := NewService(repo, &fakeResultRepo{}, logger)

		summary, err := svc.Aggregate(context.Background(), projectID)
		require.NoError(t, err)
		assert.True(t, summary.Total.Equal(summary.Scope1.Add(summary.Scope2).Add(summary.Scope3)))
	})

	t.Run("empty project yields zero summary", func(t *testing.T) {
		svc := NewService(&fakeActivityRepo{}, &fakeResultRepo{}, logger)
		summary, err := svc.Aggregate(context.Background(), projectID)
		require.NoError(t, err)
		assert.True(t, summary.Total.IsZero())
		assert.Equal(t, 0, summary.ActivityCount)
	})
}

func TestComputeCFP(t *testing.T) {
	projectID := uuid.New()
	logger := zap.NewNop()

	t.Run("maps activities onto lifecycle stages", func(t *testing.T) {
		repo := &fakeActivityRepo{activities: []*emissions.Activity{
			calculatedActivity(t, projectID, emissions.Scope1, 100),
			scope3Activity(t, projectID, emissions.CategoryPurchasedGoods, 40),
			scope3Activity(t, projectID, emissions.CategoryUpstreamTransport, 25),
			scope3Activity(t, projectID, emissions.CategoryEndOfLife, 10),
			scope3Activity(t, projectID, emissions.CategoryUseOfProducts, 5),
		}}
		results := &fakeResultRepo{}
		svc := NewService(repo, results, logger)

		cfp, err := svc.ComputeCFP(context.Background(), projectID, CFPOptions{
			ProductionVolume: decimal.NewFromInt(100),
			AllocationMethod: "mass",
		})
		require.NoError(t, err)

		assert.True(t, cfp.Stages[emissions.StageProduction].Equal(decimal.NewFromInt(100)))
		assert.True(t, cfp.Stages[emissions.StageRawMaterials].Equal(decimal.NewFromInt(40)))
		assert.True(t, cfp.Stages[emissions.StageDistribution].Equal(decimal.NewFromInt(25)))
		assert.True(t, cfp.Stages[emissions.StageEndOfLife].Equal(decimal.NewFromInt(10)))
		assert.True(t, cfp.Stages[emissions.StageUse].Equal(decimal.NewFromInt(5)))
		assert.True(t, cfp.Total.Equal(decimal.NewFromInt(180)))
		assert.True(t, cfp.PerUnit.Equal(decimal.NewFromFloat(1.8)))
		require.Len(t, results.cfps, 1)
	})

	t.Run("stage values sum to total", func(t *testing.T) {
		repo := &fakeActivityRepo{activities: []*emissions.Activity{
			calculatedActivity(t, projectID, emissions.Scope2, 1.23456),
			scope3Activity(t, projectID, emissions.CategoryWaste, 2.34567),
		}}
		svc := NewService(repo, &fakeResultRepo{}, logger)

		cfp, err := svc.ComputeCFP(context.Background(), projectID, CFPOptions{ProductionVolume: decimal.NewFromInt(1)})
		require.NoError(t, err)

		sum := decimal.Zero
		for _, v := range cfp.Stages {
			sum = sum.Add(v)
		}
		assert.True(t, sum.Equal(cfp.Total))
	})

	t.Run("zero production volume keeps per-unit equal to total", func(t *testing.T) {
		repo := &fakeActivityRepo{activities: []*emissions.Activity{
			calculatedActivity(t, projectID, emissions.Scope1, 42),
		}}
		svc := NewService(repo, &fakeResultRepo{}, logger)

		cfp, err := svc.ComputeCFP(context.Background(), projectID, CFPOptions{})
		require.NoError(t, err)
		assert.True(t, cfp.PerUnit.Equal(cfp.Total))
	})

	t.Run("no calculated data is rejected", func(t *testing.T) {
		svc := NewService(&fakeActivityRepo{}, &fakeResultRepo{}, logger)
		_, err := svc.ComputeCFP(context.Background(), projectID, CFPOptions{})
		require.Error(t, err)
		assert.Equal(t, domainerrors.ErrNoCalculatedData, err)
	})

	t.Run("recomputation appends a new snapshot", func(t *testing.T) {
		repo := &fakeActivityRepo{activities: []*emissions.Activity{
			calculatedActivity(t, projectID, emissions.Scope1, 10),
		}}
		results := &fakeResultRepo{}
		svc := NewService(repo, results, logger)

		first, err := svc.ComputeCFP(context.Background(), projectID, CFPOptions{ProductionVolume: decimal.NewFromInt(1)})
		require.NoError(t, err)
		second, err := svc.ComputeCFP(context.Background(), projectID, CFPOptions{ProductionVolume: decimal.NewFromInt(1)})
		require.NoError(t, err)

		assert.NotEqual(t, first.ID, second.ID)
		assert.Len(t, results.cfps, 2)
	})
}

func TestComputeCFO(t *testing.T) {
	projectID := uuid.New()
	logger := zap.NewNop()

	t.Run("splits scope3 into upstream and downstream", func(t *testing.T) {
		repo := &fakeActivityRepo{activities: []*emissions.Activity{
			calculatedActivity(t, projectID, emissions.Scope1, 100),
			calculatedActivity(t, projectID, emissions.Scope2, 50),
			scope3Activity(t, projectID, emissions.CategoryBusinessTravel, 30),
			scope3Activity(t, projectID, emissions.CategoryEndOfLife, 20),
		}}
		results := &fakeResultRepo{}
		svc := NewService(repo, results, logger)

		cfo, err := svc.ComputeCFO(context.Background(), projectID, "operational_control")
		require.NoError(t, err)

		assert.True(t, cfo.Scope1.Equal(decimal.NewFromInt(100)))
		assert.True(t, cfo.Scope2Location.Equal(decimal.NewFromInt(50)))
		assert.True(t, cfo.Scope3Upstream.Equal(decimal.NewFromInt(30)))
		assert.True(t, cfo.Scope3Downstream.Equal(decimal.NewFromInt(20)))
		assert.True(t, cfo.Total.Equal(decimal.NewFromInt(200)))
		assert.Equal(t, "operational_control", cfo.ConsolidationMethod)
		require.Len(t, results.cfos, 1)
	})

	t.Run("uncategorized scope3 defaults to purchased goods upstream", func(t *testing.T) {
		repo := &fakeActivityRepo{activities: []*emissions.Activity{
			calculatedActivity(t, projectID, emissions.Scope3, 15),
		}}
		svc := NewService(repo, &fakeResultRepo{}, logger)

		cfo, err := svc.ComputeCFO(context.Background(), projectID, "equity_share")
		require.NoError(t, err)
		assert.True(t, cfo.Scope3Upstream.Equal(decimal.NewFromInt(15)))
		assert.True(t, cfo.Scope3Downstream.IsZero())
		assert.True(t, cfo.Scope3Categories[emissions.CategoryPurchasedGoods].Equal(decimal.NewFromInt(15)))
	})

	t.Run("no calculated data is rejected", func(t *testing.T) {
		svc := NewService(&fakeActivityRepo{}, &fakeResultRepo{}, logger)
		_, err := svc.ComputeCFO(context.Background(), projectID, "operational_control")
		require.Error(t, err)
		assert.Equal(t, domainerrors.ErrNoCalculatedData, err)
	})
}
