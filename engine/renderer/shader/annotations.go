// annotations.go defines the annotation types, argument constants, and parser for the
// WGSL shader pre-processor. Annotations are single-line WGSL comments prefixed with
// @veil: that inject the canonical uniform and vertex structs, declare uniform bindings,
// and name the texture or sampler a binding expects. The Scene reads the parsed results
// to wire GPU resources to each pass without matching variable names.
package shader

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// annotationPrefix marks an annotation within a WGSL comment line.
const annotationPrefix = "@veil:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// annotationTypeInclude injects the WGSL source of a registered struct at the annotation site.
	// It is consumed entirely during pre-processing and produces no declaration.
	//
	// Syntax: //@veil:include <struct_type>
	//
	// Example: //@veil:include composite_params
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBindingGroup generates a @group/@binding variable declaration for a
	// registered struct and records a declaration carrying the group, binding and struct type.
	//
	// Syntax: //@veil:group <group> <binding> <address_space> <var_name> <type>
	//
	// Example: //@veil:group 0 0 storage_uniform params composite_params
	AnnotationTypeBindingGroup AnnotationType = "group"

	// AnnotationTypeProvider records which pipeline resource a hand-written texture or sampler
	// binding expects. No WGSL is generated; the declaration stays directly below the annotation.
	//
	// Syntax: //@veil:provider <group> <binding> <provider_identity>
	//
	// Example: //@veil:provider 0 1 frame_current
	AnnotationTypeProvider AnnotationType = "provider"
)

// Annotation is a single parsed @veil: annotation.
type Annotation struct {
	// Type identifies which annotation was parsed.
	Type AnnotationType

	// Args holds the annotation's arguments. The contents depend on Type:
	//   - include:  [0] = struct type key
	//   - group:    [0] = address space, [1] = var name, [2] = struct type key
	//   - provider: [0] = provider identity
	Args []AnnotationArg

	// Line is the 1-based source line, used for error reporting.
	Line int

	// Group and Binding are set for group and provider annotations.
	Group   *int
	Binding *int
}

// AnnotationArg is a typed argument of an annotation.
type AnnotationArg string

// Struct type arguments. Each maps to a Go GPU type with an embedded .wgsl asset file.
const (
	// AnnotationArgEyeVertex identifies the EyeVertex input struct.
	// Source: engine/compositor/assets/eye_vertex.wgsl
	AnnotationArgEyeVertex AnnotationArg = "eye_vertex"

	// AnnotationArgCompositeParams identifies the CompositeParams uniform struct.
	// Source: engine/compositor/assets/composite_params.wgsl
	AnnotationArgCompositeParams AnnotationArg = "composite_params"

	// AnnotationArgLensParams identifies the LensParams uniform struct.
	// Source: engine/lens/assets/lens_params.wgsl
	AnnotationArgLensParams AnnotationArg = "lens_params"

	// AnnotationArgBlendParams identifies the BlendParams uniform struct.
	// Source: engine/pacer/assets/blend_params.wgsl
	AnnotationArgBlendParams AnnotationArg = "blend_params"
)

// Address space arguments for @veil:group annotations.
const (
	// annotationArgStorageTypeUniform maps to var<uniform>.
	annotationArgStorageTypeUniform AnnotationArg = "storage_uniform"

	// annotationArgStorageTypeRead maps to var<storage, read>.
	annotationArgStorageTypeRead AnnotationArg = "storage_read"
)

// Provider identity arguments. The Scene resolves each to a texture view or sampler.
const (
	// AnnotationArgFrameCurrent is the texture holding the newest camera frame.
	AnnotationArgFrameCurrent AnnotationArg = "frame_current"

	// AnnotationArgFramePrevious is the texture holding the last displayed image, used for blending.
	AnnotationArgFramePrevious AnnotationArg = "frame_previous"

	// AnnotationArgSceneTarget is the offscreen composite read by the distortion pass.
	AnnotationArgSceneTarget AnnotationArg = "scene_target"

	// AnnotationArgLinearSampler is the shared clamp-to-edge linear sampler.
	AnnotationArgLinearSampler AnnotationArg = "linear_sampler"
)

var validStructTypes = []AnnotationArg{
	AnnotationArgEyeVertex,
	AnnotationArgCompositeParams,
	AnnotationArgLensParams,
	AnnotationArgBlendParams,
}

var validAddressSpaces = []AnnotationArg{
	annotationArgStorageTypeUniform,
	annotationArgStorageTypeRead,
}

var validProviderIdentities = []AnnotationArg{
	AnnotationArgFrameCurrent,
	AnnotationArgFramePrevious,
	AnnotationArgSceneTarget,
	AnnotationArgLinearSampler,
}

// parseAnnotation parses one WGSL source line. Lines without the prefix yield nil and no error.
//
// Parameters:
//   - line: the raw WGSL source line
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	_, after, ok := strings.Cut(strings.TrimSpace(line), annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @veil annotation", lineNum)
	}

	switch AnnotationType(args[0]) {
	case annotationTypeInclude:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @veil include takes exactly one argument", lineNum)
		}
		if !slices.Contains(validStructTypes, AnnotationArg(args[1])) {
			return nil, fmt.Errorf("line %d: unknown struct type %q in @veil include", lineNum, args[1])
		}
		return &Annotation{Type: annotationTypeInclude, Args: []AnnotationArg{AnnotationArg(args[1])}, Line: lineNum}, nil

	case AnnotationTypeBindingGroup:
		if len(args) != 6 {
			return nil, fmt.Errorf("line %d: @veil group takes group, binding, address space, name and type", lineNum)
		}
		group, binding, err := parseSlot(args[1], args[2], lineNum)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(validAddressSpaces, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown address space %q in @veil group", lineNum, args[3])
		}
		if !slices.Contains(validStructTypes, AnnotationArg(args[5])) {
			return nil, fmt.Errorf("line %d: unknown struct type %q in @veil group", lineNum, args[5])
		}
		return &Annotation{
			Type:    AnnotationTypeBindingGroup,
			Args:    []AnnotationArg{AnnotationArg(args[3]), AnnotationArg(args[4]), AnnotationArg(args[5])},
			Line:    lineNum,
			Group:   &group,
			Binding: &binding,
		}, nil

	case AnnotationTypeProvider:
		if len(args) != 4 {
			return nil, fmt.Errorf("line %d: @veil provider takes group, binding and provider identity", lineNum)
		}
		group, binding, err := parseSlot(args[1], args[2], lineNum)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(validProviderIdentities, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown provider identity %q", lineNum, args[3])
		}
		return &Annotation{
			Type:    AnnotationTypeProvider,
			Args:    []AnnotationArg{AnnotationArg(args[3])},
			Line:    lineNum,
			Group:   &group,
			Binding: &binding,
		}, nil

	default:
		return nil, fmt.Errorf("line %d: unknown @veil annotation type %q", lineNum, args[0])
	}
}

func parseSlot(group, binding string, lineNum int) (int, int, error) {
	g, err := strconv.Atoi(group)
	if err != nil || g < 0 {
		return 0, 0, fmt.Errorf("line %d: invalid group number %q", lineNum, group)
	}
	b, err := strconv.Atoi(binding)
	if err != nil || b < 0 {
		return 0, 0, fmt.Errorf("line %d: invalid binding number %q", lineNum, binding)
	}
	return g, b, nil
}
