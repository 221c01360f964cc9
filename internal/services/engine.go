// engine.go
//
// Canonical SQL snapshot generator for jam-build documents
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of jam-build-docsql.
// jam-build-docsql is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// jam-build-docsql is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with jam-build-docsql.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/localnerve/jam-build-docsql/internal/database"
	"github.com/localnerve/jam-build-docsql/internal/models"
	"github.com/localnerve/jam-build-docsql/internal/session"
	"gorm.io/gorm"
)

var (
	// ErrUnauthorized is returned when a session may not modify the document
	ErrUnauthorized = errors.New("session is not allowed to modify the document")
	// ErrNotInitialized is returned when a table is added before the document exists
	ErrNotInitialized = errors.New("document metadata has not been created")
)

// Column ids of the default table, in position order
var defaultColumns = []string{"A", "B", "C"}

// DocEngine defines the logical schema of a document: the metadata tables
// created with every document and the user tables added to it
type DocEngine struct{}

// NewDocEngine creates a document engine
func NewDocEngine() *DocEngine {
	return &DocEngine{}
}

// CreateEmptyDoc lays down the metadata tables of a new document and the
// rows every document starts with
func (e *DocEngine) CreateEmptyDoc(ctx context.Context, sess *session.Session, db *gorm.DB) error {
	if !sess.CanWrite() {
		return ErrUnauthorized
	}

	settings, err := models.NewJSON(map[string]string{"locale": "en-US"})
	if err != nil {
		return fmt.Errorf("encoding document settings: %w", err)
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(models.MetadataModels()...); err != nil {
			return fmt.Errorf("creating metadata tables: %w", err)
		}

		info := models.DocInfo{
			ID:               1,
			SchemaVersion:    models.SchemaVersion,
			Timezone:         "UTC",
			DocumentSettings: settings,
		}
		if err := tx.Create(&info).Error; err != nil {
			return fmt.Errorf("creating document info: %w", err)
		}

		// Default rule granting the owners group everything on every table
		if err := tx.Create(&models.ACLResource{ID: 1}).Error; err != nil {
			return fmt.Errorf("creating default acl resource: %w", err)
		}
		rule := models.ACLRule{
			ID:          1,
			Resource:    1,
			Permissions: 63,
			Principals:  "[1]",
			RulePos:     1,
		}
		if err := tx.Create(&rule).Error; err != nil {
			return fmt.Errorf("creating default acl rule: %w", err)
		}

		return nil
	})
}

// AddInitialTable adds the first free TableN with the default columns A, B
// and C, along with its raw data view and page
func (e *DocEngine) AddInitialTable(ctx context.Context, sess *session.Session, db *gorm.DB) error {
	if !sess.CanWrite() {
		return ErrUnauthorized
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if !tx.Migrator().HasTable(&models.DocInfo{}) {
			return ErrNotInitialized
		}

		name, err := freeTableName(tx)
		if err != nil {
			return err
		}

		stmt := fmt.Sprintf(`CREATE TABLE %s (id INTEGER PRIMARY KEY, "manualSort" NUMERIC DEFAULT 1e999`,
			database.QuoteIdentifier(name))
		for _, colID := range defaultColumns {
			stmt += fmt.Sprintf(", %s BLOB DEFAULT NULL", database.QuoteIdentifier(colID))
		}
		stmt += ")"
		if err := tx.Exec(stmt).Error; err != nil {
			return fmt.Errorf("creating table %s: %w", name, err)
		}

		return addTableMetadata(tx, name)
	})
}

// freeTableName returns the first TableN that is neither a table in the
// file nor recorded in the metadata
func freeTableName(tx *gorm.DB) (string, error) {
	for n := 1; ; n++ {
		name := fmt.Sprintf("Table%d", n)
		if tx.Migrator().HasTable(name) {
			continue
		}

		var count int64
		if err := tx.Model(&models.Table{}).Where("table_id = ?", name).Count(&count).Error; err != nil {
			return "", fmt.Errorf("checking table name %s: %w", name, err)
		}
		if count == 0 {
			return name, nil
		}
	}
}

// nextID returns the id the next row of model's table gets
func nextID(tx *gorm.DB, model interface{}) (int64, error) {
	var id int64
	if err := tx.Model(model).Select("COALESCE(MAX(id), 0) + 1").Scan(&id).Error; err != nil {
		return 0, err
	}
	return id, nil
}

// addTableMetadata records a new user table and the view that shows it
func addTableMetadata(tx *gorm.DB, name string) error {
	ids := make(map[string]int64)
	for key, model := range map[string]interface{}{
		"table":   &models.Table{},
		"column":  &models.Column{},
		"view":    &models.View{},
		"section": &models.ViewSection{},
		"field":   &models.ViewField{},
		"tab":     &models.TabBar{},
		"page":    &models.Page{},
	} {
		id, err := nextID(tx, model)
		if err != nil {
			return fmt.Errorf("allocating %s id: %w", key, err)
		}
		ids[key] = id
	}

	tableID := ids["table"]
	viewID := ids["view"]
	primarySection := ids["section"]
	rawSection := primarySection + 1
	cardSection := primarySection + 2

	table := models.Table{
		ID:                       tableID,
		TableID:                  name,
		PrimaryViewID:            viewID,
		RawViewSectionRef:        rawSection,
		RecordCardViewSectionRef: cardSection,
	}
	if err := tx.Create(&table).Error; err != nil {
		return fmt.Errorf("recording table %s: %w", name, err)
	}

	columns := []models.Column{{
		ID:        ids["column"],
		ParentID:  tableID,
		ParentPos: 1,
		ColID:     "manualSort",
		Type:      "ManualSortPos",
	}}
	for i, colID := range defaultColumns {
		columns = append(columns, models.Column{
			ID:        ids["column"] + int64(i) + 1,
			ParentID:  tableID,
			ParentPos: float64(i + 2),
			ColID:     colID,
			Type:      "Any",
			IsFormula: true,
			Label:     colID,
		})
	}
	if err := tx.Create(&columns).Error; err != nil {
		return fmt.Errorf("recording columns of %s: %w", name, err)
	}

	view := models.View{ID: viewID, Name: name, Type: "raw_data"}
	if err := tx.Create(&view).Error; err != nil {
		return fmt.Errorf("recording view of %s: %w", name, err)
	}

	sections := []models.ViewSection{
		{ID: primarySection, TableRef: tableID, ParentID: viewID, ParentKey: "record", BorderWidth: 1, DefaultWidth: 100},
		{ID: rawSection, TableRef: tableID, ParentKey: "record", BorderWidth: 1, DefaultWidth: 100},
		{ID: cardSection, TableRef: tableID, ParentKey: "single", BorderWidth: 1, DefaultWidth: 100},
	}
	if err := tx.Create(&sections).Error; err != nil {
		return fmt.Errorf("recording sections of %s: %w", name, err)
	}

	// One field per user column in each section; manualSort is never shown
	var fields []models.ViewField
	fieldID := ids["field"]
	for _, section := range sections {
		for i := range defaultColumns {
			fields = append(fields, models.ViewField{
				ID:        fieldID,
				ParentID:  section.ID,
				ParentPos: float64(i + 1),
				ColRef:    columns[i+1].ID,
			})
			fieldID++
		}
	}
	if err := tx.Create(&fields).Error; err != nil {
		return fmt.Errorf("recording fields of %s: %w", name, err)
	}

	tab := models.TabBar{ID: ids["tab"], ViewRef: viewID, TabPos: float64(ids["tab"])}
	if err := tx.Create(&tab).Error; err != nil {
		return fmt.Errorf("recording tab of %s: %w", name, err)
	}

	page := models.Page{ID: ids["page"], ViewRef: viewID, PagePos: float64(ids["page"])}
	if err := tx.Create(&page).Error; err != nil {
		return fmt.Errorf("recording page of %s: %w", name, err)
	}

	return nil
}
