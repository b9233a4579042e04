package dto

// StatsRequest selects the aggregation window.
type StatsRequest struct {
	Window string `json:"window" query:"window" validate:"omitempty,oneof=today week month all"`
}
