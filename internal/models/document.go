// document.go
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

package models

// SchemaVersion is recorded in the _doc_info row of every new document
const SchemaVersion = 3

// Row ids in every metadata table are assigned by the document engine, not
// by SQLite, so a new document always carries the same ids.

// DocInfo holds document-wide settings; a document has exactly one row
type DocInfo struct {
	ID               int64  `gorm:"primaryKey;autoIncrement:false"`
	SchemaVersion    int64  `gorm:"not null;default:0"`
	Timezone         string `gorm:"not null"`
	DocumentSettings JSON   `gorm:"not null"`
}

// Table describes one user table
type Table struct {
	ID                       int64  `gorm:"primaryKey;autoIncrement:false"`
	TableID                  string `gorm:"column:table_id;not null"`
	PrimaryViewID            int64  `gorm:"column:primary_view_id;not null;default:0"`
	SummarySourceTable       int64  `gorm:"not null;default:0"`
	OnDemand                 bool   `gorm:"not null;default:false"`
	RawViewSectionRef        int64  `gorm:"not null;default:0"`
	RecordCardViewSectionRef int64  `gorm:"not null;default:0"`
}

// Column describes one column of a user table
type Column struct {
	ID                  int64   `gorm:"primaryKey;autoIncrement:false"`
	ParentID            int64   `gorm:"column:parent_id;not null;default:0;index"`
	ParentPos           float64 `gorm:"not null;default:0"`
	ColID               string  `gorm:"column:col_id;not null"`
	Type                string  `gorm:"not null"`
	WidgetOptions       JSON    `gorm:"not null"`
	IsFormula           bool    `gorm:"not null;default:false"`
	Formula             string  `gorm:"not null"`
	Label               string  `gorm:"not null"`
	Description         string  `gorm:"not null"`
	UntieColIDFromLabel bool    `gorm:"column:untie_col_id_from_label;not null;default:false"`
	SummarySourceCol    int64   `gorm:"not null;default:0"`
	DisplayCol          int64   `gorm:"not null;default:0"`
	VisibleCol          int64   `gorm:"not null;default:0"`
	RecalcWhen          int64   `gorm:"not null;default:0"`
}

// View is a page's content; raw data views have Type "raw_data"
type View struct {
	ID         int64  `gorm:"primaryKey;autoIncrement:false"`
	Name       string `gorm:"not null"`
	Type       string `gorm:"not null"`
	LayoutSpec string `gorm:"not null"`
}

// ViewSection is a widget showing one table within a view
type ViewSection struct {
	ID                int64  `gorm:"primaryKey;autoIncrement:false"`
	TableRef          int64  `gorm:"not null;default:0;index"`
	ParentID          int64  `gorm:"column:parent_id;not null;default:0"`
	ParentKey         string `gorm:"not null"`
	Title             string `gorm:"not null"`
	Description       string `gorm:"not null"`
	DefaultWidth      int64  `gorm:"not null;default:100"`
	BorderWidth       int64  `gorm:"not null;default:1"`
	Theme             string `gorm:"not null"`
	Options           JSON   `gorm:"not null"`
	ChartType         string `gorm:"not null"`
	LayoutSpec        string `gorm:"not null"`
	FilterSpec        string `gorm:"not null"`
	SortColRefs       string `gorm:"not null"`
	LinkSrcSectionRef int64  `gorm:"not null;default:0"`
	LinkSrcColRef     int64  `gorm:"not null;default:0"`
	LinkTargetColRef  int64  `gorm:"not null;default:0"`
}

// ViewField places a column within a section
type ViewField struct {
	ID            int64   `gorm:"primaryKey;autoIncrement:false"`
	ParentID      int64   `gorm:"column:parent_id;not null;default:0;index"`
	ParentPos     float64 `gorm:"not null;default:0"`
	ColRef        int64   `gorm:"not null;default:0"`
	Width         int64   `gorm:"not null;default:0"`
	WidgetOptions JSON    `gorm:"not null"`
	DisplayCol    int64   `gorm:"not null;default:0"`
	VisibleCol    int64   `gorm:"not null;default:0"`
}

// TabBar orders the views shown as tabs
type TabBar struct {
	ID      int64   `gorm:"primaryKey;autoIncrement:false"`
	ViewRef int64   `gorm:"not null;default:0"`
	TabPos  float64 `gorm:"not null;default:0"`
}

// Page orders the views in the page tree
type Page struct {
	ID          int64   `gorm:"primaryKey;autoIncrement:false"`
	ViewRef     int64   `gorm:"not null;default:0"`
	Indentation int64   `gorm:"not null;default:0"`
	PagePos     float64 `gorm:"not null;default:0"`
}

// ACLResource names a table and columns that access rules apply to
type ACLResource struct {
	ID      int64  `gorm:"primaryKey;autoIncrement:false"`
	TableID string `gorm:"column:table_id;not null"`
	ColIDs  string `gorm:"column:col_ids;not null"`
}

// ACLRule is one access rule on a resource
type ACLRule struct {
	ID              int64   `gorm:"primaryKey;autoIncrement:false"`
	Resource        int64   `gorm:"not null;default:0"`
	Permissions     int64   `gorm:"not null;default:0"`
	Principals      string  `gorm:"not null"`
	ACLFormula      string  `gorm:"column:acl_formula;not null"`
	ACLColumn       int64   `gorm:"column:acl_column;not null;default:0"`
	PermissionsText string  `gorm:"not null"`
	RulePos         float64 `gorm:"not null;default:0"`
	Memo            string  `gorm:"not null"`
	UserAttributes  string  `gorm:"not null"`
}

// Filter is a saved column filter of a section
type Filter struct {
	ID             int64  `gorm:"primaryKey;autoIncrement:false"`
	ViewSectionRef int64  `gorm:"not null;default:0"`
	ColRef         int64  `gorm:"not null;default:0"`
	Filter         string `gorm:"not null"`
	Pinned         bool   `gorm:"not null;default:false"`
}

// TableName overrides the table name for DocInfo
func (DocInfo) TableName() string {
	return "_doc_info"
}

// TableName overrides the table name for Table
func (Table) TableName() string {
	return "_doc_tables"
}

// TableName overrides the table name for Column
func (Column) TableName() string {
	return "_doc_tables_column"
}

// TableName overrides the table name for View
func (View) TableName() string {
	return "_doc_views"
}

// TableName overrides the table name for ViewSection
func (ViewSection) TableName() string {
	return "_doc_views_section"
}

// TableName overrides the table name for ViewField
func (ViewField) TableName() string {
	return "_doc_views_section_field"
}

// TableName overrides the table name for TabBar
func (TabBar) TableName() string {
	return "_doc_tab_bar"
}

// TableName overrides the table name for Page
func (Page) TableName() string {
	return "_doc_pages"
}

// TableName overrides the table name for ACLResource
func (ACLResource) TableName() string {
	return "_doc_acl_resources"
}

// TableName overrides the table name for ACLRule
func (ACLRule) TableName() string {
	return "_doc_acl_rules"
}

// TableName overrides the table name for Filter
func (Filter) TableName() string {
	return "_doc_filters"
}

// MetadataModels lists every metadata model in creation order
func MetadataModels() []interface{} {
	return []interface{}{
		&DocInfo{},
		&Table{},
		&Column{},
		&View{},
		&ViewSection{},
		&ViewField{},
		&TabBar{},
		&Page{},
		&ACLResource{},
		&ACLRule{},
		&Filter{},
	}
}
