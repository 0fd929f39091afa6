package layout

import "fmt"

// Warning records an input value that was replaced by a default while
// rendering. Warnings never stop a render.
type Warning struct {
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s (got %q)", w.Field, w.Message, w.Value)
}
