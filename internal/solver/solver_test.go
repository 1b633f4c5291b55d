package solver

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resourceflow/pkg/apperror"
	"resourceflow/pkg/domain"
)

// solarAndBattery builds the S1/S2/S3 fixture shape: one converter pushing
// EC at rate 1.0 into a single EC inventory, parameterized by the
// inventory's fill state and the output's dump_excess flag.
func solarAndBattery(amount, maxAmount float64, isFull, isEmpty, dumpExcess bool) *domain.ProcessorSnapshot {
	return &domain.ProcessorSnapshot{
		Inventories: []domain.Inventory{
			{ID: 0, Resource: "EC", Amount: amount, MaxAmount: maxAmount, IsFull: isFull, IsEmpty: isEmpty},
		},
		Converters: []domain.Converter{
			{
				ID:       0,
				Priority: 0,
				Outputs:  map[string]domain.OutputRate{"EC": {Resource: "EC", Rate: 1.0, DumpExcess: dumpExcess}},
				Push:     map[int]struct{}{0: {}},
			},
		},
	}
}

func TestComputeRatesS1NoShortageRunsFlatOut(t *testing.T) {
	snapshot := solarAndBattery(50, 100, false, false, false)
	solution, _, err := ComputeRates(context.Background(), snapshot)
	require.NoError(t, err)
	require.InDelta(t, 1.0, solution.ConverterRates[0], 1e-6)
	require.InDelta(t, 1.0, solution.InventoryRates[0], 1e-6)
}

func TestComputeRatesS2FullBatteryWithDumpingZerosReportedRate(t *testing.T) {
	snapshot := solarAndBattery(100, 100, true, false, true)
	solution, _, err := ComputeRates(context.Background(), snapshot)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, solution.ConverterRates[0], 1e-6, "converter still runs flat out, excess is dumped")
	assert.InDelta(t, 0.0, solution.InventoryRates[0], 1e-6, "a full member has zero headroom regardless of logical rate")
}

func TestComputeRatesS3FullBatteryWithoutDumpingThrottlesToZero(t *testing.T) {
	snapshot := solarAndBattery(100, 100, true, false, false)
	solution, _, err := ComputeRates(context.Background(), snapshot)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, solution.ConverterRates[0], 1e-6, "nowhere for retained mass to go forces the converter idle")
	assert.InDelta(t, 0.0, solution.InventoryRates[0], 1e-6)
}

func TestComputeRatesS4FuelCellPullsFromFullTanksIntoEmptyBattery(t *testing.T) {
	snapshot := &domain.ProcessorSnapshot{
		Inventories: []domain.Inventory{
			{ID: 0, Resource: "LF", Amount: 100, MaxAmount: 100, IsFull: true},
			{ID: 1, Resource: "Ox", Amount: 50, MaxAmount: 50, IsFull: true},
			{ID: 2, Resource: "EC", Amount: 0, MaxAmount: 100, IsEmpty: true},
		},
		Converters: []domain.Converter{
			{
				ID:       0,
				Priority: 0,
				Inputs: map[string]domain.ResourceRate{
					"LF": {Resource: "LF", Rate: 0.9},
					"Ox": {Resource: "Ox", Rate: 1.1},
				},
				Outputs: map[string]domain.OutputRate{
					"EC": {Resource: "EC", Rate: 18},
				},
				Pull: map[int]struct{}{0: {}, 1: {}},
				Push: map[int]struct{}{2: {}},
			},
		},
	}

	solution, _, err := ComputeRates(context.Background(), snapshot)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, solution.ConverterRates[0], 1e-6)
	assert.InDelta(t, -0.9, solution.InventoryRates[0], 1e-6)
	assert.InDelta(t, -1.1, solution.InventoryRates[1], 1e-6)
	assert.InDelta(t, 18.0, solution.InventoryRates[2], 1e-6)
}

func TestComputeRatesS5MergedBatteriesSplitByHeadroom(t *testing.T) {
	snapshot := &domain.ProcessorSnapshot{
		Inventories: []domain.Inventory{
			{ID: 0, Resource: "EC", Amount: 50, MaxAmount: 100},
			{ID: 1, Resource: "EC", Amount: 50, MaxAmount: 100},
		},
		Converters: []domain.Converter{
			{
				ID:       0,
				Priority: 0,
				Outputs:  map[string]domain.OutputRate{"EC": {Resource: "EC", Rate: 1.0}},
				Push:     map[int]struct{}{0: {}, 1: {}},
			},
		},
	}

	solution, _, err := ComputeRates(context.Background(), snapshot)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, solution.ConverterRates[0], 1e-6)
	assert.InDelta(t, 0.5, solution.InventoryRates[0], 1e-6)
	assert.InDelta(t, 0.5, solution.InventoryRates[1], 1e-6)
}

func TestComputeRatesS6RequiredResourceWithNoSupplyForcesIdle(t *testing.T) {
	snapshot := &domain.ProcessorSnapshot{
		Inventories: []domain.Inventory{
			{ID: 0, Resource: "LF", Amount: 50, MaxAmount: 100},
			{ID: 1, Resource: "EC", Amount: 0, MaxAmount: 100, IsEmpty: true},
		},
		Converters: []domain.Converter{
			{
				ID:       0,
				Priority: 0,
				Inputs:   map[string]domain.ResourceRate{"LF": {Resource: "LF", Rate: 1}},
				Outputs:  map[string]domain.OutputRate{"EC": {Resource: "EC", Rate: 10}},
				Required: map[string]domain.RequiredResource{
					"LF": {Resource: "LF", Kind: domain.RequiredKindAtLeast, State: domain.RequiredStateBoundary},
				},
				Pull:            map[int]struct{}{0: {}},
				Push:            map[int]struct{}{1: {}},
				ConstraintEdges: map[int]struct{}{0: {}},
			},
		},
	}

	solution, _, err := ComputeRates(context.Background(), snapshot)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, solution.ConverterRates[0], 1e-6)
	assert.InDelta(t, 0.0, solution.InventoryRates[0], 1e-6)
	assert.InDelta(t, 0.0, solution.InventoryRates[1], 1e-6)
}

func TestComputeRatesUtilizationStaysWithinUnitBounds(t *testing.T) {
	snapshot := solarAndBattery(50, 100, false, false, false)
	solution, _, err := ComputeRates(context.Background(), snapshot)
	require.NoError(t, err)
	for _, rate := range solution.ConverterRates {
		assert.GreaterOrEqual(t, rate, 0.0)
		assert.LessOrEqual(t, rate, 1.0)
	}
}

func TestComputeRatesRejectsNilSnapshot(t *testing.T) {
	_, _, err := ComputeRates(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeNilInput, apperror.Code(err))
}

func TestComputeRatesRejectsNonFiniteRate(t *testing.T) {
	snapshot := &domain.ProcessorSnapshot{
		Inventories: []domain.Inventory{{ID: 0, Resource: "EC", Amount: 0, MaxAmount: 100}},
		Converters: []domain.Converter{
			{
				ID:      0,
				Outputs: map[string]domain.OutputRate{"EC": {Resource: "EC", Rate: math.NaN()}},
				Push:    map[int]struct{}{0: {}},
			},
		},
	}
	_, _, err := ComputeRates(context.Background(), snapshot)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeInvalidCoefficient, apperror.Code(err))
}
