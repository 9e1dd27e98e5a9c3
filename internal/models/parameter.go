package models

import "time"

// ParameterType defines supported types for recouvrement parameter values.
type ParameterType string

const (
	ParameterTypeString ParameterType = "STRING"
	ParameterTypeAmount ParameterType = "AMOUNT"
	ParameterTypeBool   ParameterType = "BOOLEAN"
)

// Parameter is a persisted entry of the recouvrement_parametres key-value
// store. Values are kept as strings and parsed by consumers according to
// their declared type.
type Parameter struct {
	Key         string        `db:"key" json:"key"`
	Value       string        `db:"value" json:"value"`
	Type        ParameterType `db:"type" json:"type"`
	Description *string       `db:"description" json:"description,omitempty"`
	UpdatedBy   *string       `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// Well-known parameter keys.
const (
	ParamElevatedThreshold = "elevated_threshold"
	ParamCriticalThreshold = "critical_threshold"
)
