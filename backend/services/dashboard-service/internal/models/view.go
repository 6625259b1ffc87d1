package models

// Names of the aggregate views consumed by the dashboard.
const (
	ViewAvgTempByDevice = "avg_temp_by_device"
	ViewReadingsByHour  = "readings_by_hour"
	ViewTempRangeByDay  = "temp_min_max_by_day"
)

// DashboardViews lists the views in display order.
var DashboardViews = []string{ViewAvgTempByDevice, ViewReadingsByHour, ViewTempRangeByDay}

// ViewResult is a tabular result of SELECT * against a named view.
type ViewResult struct {
	Name    string           `json:"name"`
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// Summary holds the headline metrics shown above the charts.
type Summary struct {
	Devices        int      `json:"devices"`
	TotalReadings  int64    `json:"total_readings"`
	AvgTemperature *float64 `json:"avg_temperature,omitempty"`
	HottestDay     string   `json:"hottest_day,omitempty"`
	HottestTemp    *float64 `json:"hottest_temperature,omitempty"`
	ColdestDay     string   `json:"coldest_day,omitempty"`
	ColdestTemp    *float64 `json:"coldest_temperature,omitempty"`
}

// Dashboard bundles the summary and every view result.
type Dashboard struct {
	Summary Summary               `json:"summary"`
	Views   map[string]ViewResult `json:"views"`
}
