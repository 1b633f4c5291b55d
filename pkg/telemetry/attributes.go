package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Стандартные ключи атрибутов для спанов решателя
const (
	// Снимок процессора
	AttrSnapshotInventories = "snapshot.inventories"
	AttrSnapshotConverters  = "snapshot.converters"

	// Граф после слияния
	AttrLogicalInventories = "graph.logical_inventories"
	AttrLogicalConverters  = "graph.logical_converters"

	// Решение
	AttrSolveID        = "solve.id"
	AttrObjectiveValue = "solve.objective_value"

	// Верификация
	AttrVerificationStage    = "verification.stage"
	AttrVerificationViolated = "verification.violated"
	AttrVerificationPassed   = "verification.passed"
)

// SnapshotAttributes reports the size of the processor snapshot a solve was invoked with.
func SnapshotAttributes(inventories, converters int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrSnapshotInventories, inventories),
		attribute.Int(AttrSnapshotConverters, converters),
	}
}

// GraphAttributes reports the size of the resource graph after merging physically
// identical inventories and converters together.
func GraphAttributes(logicalInventories, logicalConverters int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrLogicalInventories, logicalInventories),
		attribute.Int(AttrLogicalConverters, logicalConverters),
	}
}

// SolveAttributes reports the identity and objective value of a completed solve.
func SolveAttributes(solveID string, objectiveValue float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrSolveID, solveID),
		attribute.Float64(AttrObjectiveValue, objectiveValue),
	}
}

// VerificationAttributes reports the outcome of re-evaluating the solved model's
// constraints at the named pipeline stage.
func VerificationAttributes(stage string, violated bool, passed bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrVerificationStage, stage),
		attribute.Bool(AttrVerificationViolated, violated),
		attribute.Bool(AttrVerificationPassed, passed),
	}
}
