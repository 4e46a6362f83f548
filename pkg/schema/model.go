package schema

// Category classifies a workflow node by the kind of data it loads or emits.
type Category string

const (
	CategoryImage Category = "image"
	CategoryText  Category = "text"
	CategoryAudio Category = "audio"
	CategoryVideo Category = "video"
)

// Categories returns all categories in port-creation order.
func Categories() []Category {
	return []Category{CategoryImage, CategoryText, CategoryAudio, CategoryVideo}
}

// Valid reports whether c is one of the four known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryImage, CategoryText, CategoryAudio, CategoryVideo:
		return true
	}
	return false
}

// ClassifiedNode is a workflow node that can feed a host input port.
type ClassifiedNode struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Category Category `json:"category"`
}

// OutputFlags records which output categories the workflow produces.
type OutputFlags struct {
	Image bool `json:"image"`
	Text  bool `json:"text"`
	Audio bool `json:"audio"`
	Video bool `json:"video"`
}

// Set marks category c as produced.
func (f *OutputFlags) Set(c Category) {
	switch c {
	case CategoryImage:
		f.Image = true
	case CategoryText:
		f.Text = true
	case CategoryAudio:
		f.Audio = true
	case CategoryVideo:
		f.Video = true
	}
}

// Has reports whether category c is produced.
func (f OutputFlags) Has(c Category) bool {
	switch c {
	case CategoryImage:
		return f.Image
	case CategoryText:
		return f.Text
	case CategoryAudio:
		return f.Audio
	case CategoryVideo:
		return f.Video
	}
	return false
}

// Detected returns the produced categories in port-creation order.
func (f OutputFlags) Detected() []Category {
	var out []Category
	for _, c := range Categories() {
		if f.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// EnabledSet maps a classified node ID to whether it is exposed as an input port.
type EnabledSet map[string]bool

// Clone returns an independent copy. A nil set clones to an empty one.
func (s EnabledSet) Clone() EnabledSet {
	out := make(EnabledSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Count returns how many of nodes are enabled. Nodes of an unknown category
// never produce a port and are not counted.
func (s EnabledSet) Count(nodes []ClassifiedNode) int {
	n := 0
	for _, node := range nodes {
		if s[node.ID] && node.Category.Valid() {
			n++
		}
	}
	return n
}

// EmptyState is the sentinel persisted-state string meaning "nothing saved".
const EmptyState = "{}"

// PersistedState is the snapshot written into the host's saved_state field.
// The JSON layout is shared with existing host documents and must not change.
type PersistedState struct {
	WorkflowNodes []ClassifiedNode `json:"workflow_nodes"`
	OutputTypes   OutputFlags      `json:"output_types"`
	EnabledNodes  EnabledSet       `json:"enabled_nodes"`
	Timestamp     int64            `json:"timestamp"`
}

// WireType is the host-side data type carried by a port.
type WireType string

const (
	WireString WireType = "STRING"
	WireAudio  WireType = "AUDIO"
	WireImage  WireType = "IMAGE"
)

// PortSpec describes one synthesized host input port.
type PortSpec struct {
	Name     string   `json:"name"`
	WireType WireType `json:"wire_type"`
	Label    string   `json:"label"`
	NodeID   string   `json:"node_id"`
	Category Category `json:"category"`
}

// SelectedView maps each enabled node ID to its category. It is written to the
// host's selected_nodes field after every successful port rebuild.
type SelectedView map[string]Category
