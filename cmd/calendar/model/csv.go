package model

// EventCSV is one exported row.
type EventCSV struct {
	ID          int64  `csv:"id"`
	Title       string `csv:"title"`
	Description string `csv:"description"`
	StartDate   string `csv:"start_date"`
	EndDate     string `csv:"end_date"`
	StartTime   string `csv:"start_time"`
	EndTime     string `csv:"end_time"`
	AllDay      bool   `csv:"all_day"`
	Category    string `csv:"category"`
	Priority    string `csv:"priority"`
	Status      string `csv:"status"`
	CountryCode string `csv:"country_code"`
}

func NewEventCSV(e EventWithCountry) EventCSV {
	row := EventCSV{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		StartDate:   e.StartDate.String(),
		EndDate:     e.LastDay().String(),
		AllDay:      e.AllDay,
		Category:    e.Category,
		Priority:    string(e.Priority),
		Status:      string(e.Status),
	}
	if e.StartTime != nil {
		row.StartTime = e.StartTime.String()
	}
	if e.EndTime != nil {
		row.EndTime = e.EndTime.String()
	}
	if e.CountryCode != nil {
		row.CountryCode = *e.CountryCode
	}
	return row
}

// EventImportCSV is one imported row. Country is referenced by code.
type EventImportCSV struct {
	Title       string `csv:"title"`
	Description string `csv:"description"`
	StartDate   string `csv:"start_date"`
	EndDate     string `csv:"end_date"`
	StartTime   string `csv:"start_time"`
	EndTime     string `csv:"end_time"`
	AllDay      string `csv:"all_day"`
	Category    string `csv:"category"`
	Priority    string `csv:"priority"`
	CountryCode string `csv:"country_code"`
}

// Request converts the row into the same payload a POST would carry.
func (r EventImportCSV) Request(countryID int64) EventCreateRequest {
	return EventCreateRequest{
		Title:       r.Title,
		Description: r.Description,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		AllDay:      Flag(truthy(r.AllDay)),
		Category:    r.Category,
		Priority:    r.Priority,
		CountryID:   FlexInt(countryID),
	}
}

// ImportRowError reports a rejected row; Row is 1-based, excluding the header.
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type ImportResult struct {
	Created []int64          `json:"created"`
	Errors  []ImportRowError `json:"errors"`
}
