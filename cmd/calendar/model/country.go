package model

type Country struct {
	ID    int64  `gorm:"column:id;primaryKey" json:"id"`
	Name  string `gorm:"column:name;size:100;uniqueIndex;not null" json:"name"`
	Color string `gorm:"column:color;size:7;not null" json:"color"`
	Code  string `gorm:"column:code;size:10" json:"code"`
}

func (m *Country) TableName() string {
	return "countries"
}

// CountryStat is a country with the number of its active events.
type CountryStat struct {
	ID         int64  `gorm:"column:id" json:"id"`
	Name       string `gorm:"column:name" json:"name"`
	Color      string `gorm:"column:color" json:"color"`
	EventCount int64  `gorm:"column:event_count" json:"event_count"`
}
