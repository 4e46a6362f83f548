package workflow

import (
	"sort"

	"github.com/rendis/remoteflow/pkg/schema"
)

// inputTypes maps loader class_types to the category of host port they can feed.
// Matching is exact and case-sensitive.
var inputTypes = map[string]schema.Category{
	"LoadImage":         schema.CategoryImage,
	"LoadVideo":         schema.CategoryVideo,
	"LoadAudio":         schema.CategoryAudio,
	"CR Prompt Text":    schema.CategoryText,
	"easy showAnything": schema.CategoryText,
	"Text":              schema.CategoryText,
}

// outputTypes maps sink/preview class_types to the category they emit.
var outputTypes = map[string]schema.Category{
	"SaveImage":         schema.CategoryImage,
	"PreviewImage":      schema.CategoryImage,
	"VHS_VideoCombine":  schema.CategoryVideo,
	"easy showAnything": schema.CategoryText,
	"SaveAudio":         schema.CategoryAudio,
}

// InputCategory returns the port category for a loader class_type.
func InputCategory(classType string) (schema.Category, bool) {
	c, ok := inputTypes[classType]
	return c, ok
}

// OutputCategory returns the output category for a sink class_type.
func OutputCategory(classType string) (schema.Category, bool) {
	c, ok := outputTypes[classType]
	return c, ok
}

// IsInput reports whether classType is a known loader.
func IsInput(classType string) bool {
	_, ok := inputTypes[classType]
	return ok
}

// InputTypes lists the known loader class_types, sorted.
func InputTypes() []string {
	out := make([]string, 0, len(inputTypes))
	for ct := range inputTypes {
		out = append(out, ct)
	}
	sort.Strings(out)
	return out
}

// OutputTypes lists the known sink class_types, sorted.
func OutputTypes() []string {
	out := make([]string, 0, len(outputTypes))
	for ct := range outputTypes {
		out = append(out, ct)
	}
	sort.Strings(out)
	return out
}
