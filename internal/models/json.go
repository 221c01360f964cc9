package models

import (
	"context"
	"database/sql/driver"
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// JSON is a wrapper around gorm.io/datatypes.JSON for the option columns of
// the document metadata tables
type JSON struct {
	datatypes.JSON
}

// NewJSON marshals v. Map keys are written in sorted order, so equal values
// always produce equal text.
func NewJSON(v any) (JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return JSON{}, err
	}
	return JSON{JSON: datatypes.JSON(b)}, nil
}

// Value stores an unset JSON value as empty text instead of NULL, since the
// option columns are NOT NULL
func (j JSON) Value() (driver.Value, error) {
	return string(j.JSON), nil
}

// GormValue replaces the embedded JSON's version, which writes NULL for an
// unset value and casts on MySQL
func (j JSON) GormValue(ctx context.Context, db *gorm.DB) clause.Expr {
	return gorm.Expr("?", string(j.JSON))
}

// Scan reads empty text back as an unset value
func (j *JSON) Scan(value interface{}) error {
	if s, ok := value.(string); ok && s == "" {
		j.JSON = nil
		return nil
	}
	return j.JSON.Scan(value)
}

// GormDBDataType declares options as TEXT; SQLite has no separate JSON
// storage class and the dump should read the same on every driver.
func (JSON) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	return "TEXT"
}
