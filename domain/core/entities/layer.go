package entities

// Layer groups scene objects for visibility and lock control
type Layer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Color   string `json:"color"`
	Visible bool   `json:"visible"`
	Locked  bool   `json:"locked"`
}

// Area is a named spatial grouping of scene objects, orthogonal to layers
type Area struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DefaultLayer is the layer every new object lands on
func DefaultLayer() Layer {
	return Layer{ID: "default", Name: "Default", Color: "#9e9e9e", Visible: true}
}
