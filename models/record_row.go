package models

// RecordRow is how the SQL backend persists a record: one row per record,
// fields serialized as JSON.
type RecordRow struct {
	ID         string `gorm:"primary_key;size:40"`
	Collection string `gorm:"not null;index;size:64"`
	Data       string `gorm:"type:text"`
	Created    string `gorm:"index;size:32"`
	Updated    string `gorm:"size:32"`
}

func (RecordRow) TableName() string {
	return "records"
}
