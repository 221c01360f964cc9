package data

import (
	_ "embed"
)

// InitdbSQLiteDocsys creates the storage layer's bookkeeping tables in a new document file
//
//go:embed initdb/sqlite/001-docsys-tables.sql
var InitdbSQLiteDocsys string

// InitdbSQLiteDocsysRows seeds the bookkeeping tables
//
//go:embed initdb/sqlite/002-docsys-rows.sql
var InitdbSQLiteDocsysRows string
