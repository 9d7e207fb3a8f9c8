package models

/************************************************
/**** MARK: WIDGET SIZES ****/
/************************************************/
const WIDGET_SIZE_SMALL = "small"
const WIDGET_SIZE_MEDIUM = "medium"
const WIDGET_SIZE_LARGE = "large"

func IsWidgetSize(size string) bool {
	return size == WIDGET_SIZE_SMALL || size == WIDGET_SIZE_MEDIUM || size == WIDGET_SIZE_LARGE
}

// Widget is a catalog entry.
type Widget struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DefaultSize string `json:"default_size"`
	Permission  string `json:"permission"`
}

type DashboardConfig struct {
	ID       string `json:"id"`
	User     string `json:"user"`
	WidgetID string `json:"widget_id"`
	Visible  bool   `json:"visible"`
	Position int    `json:"position"`
	Size     string `json:"size"`
}

// WidgetState is a catalog widget merged with the user's configuration.
type WidgetState struct {
	Widget
	ConfigID string `json:"config_id,omitempty"`
	Visible  bool   `json:"visible"`
	Position int    `json:"position"`
	Size     string `json:"size"`
}

type DashboardNote struct {
	ID      string `json:"id"`
	User    string `json:"user"`
	Content string `json:"content"`
	Updated string `json:"updated"`
}
