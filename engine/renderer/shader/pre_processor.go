// pre_processor.go implements the WGSL pre-processor. It replaces @veil: annotations with
// injected struct sources or generated binding declarations and records the declarations the
// Scene uses to wire each pass's resources.
package shader

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/veil/engine/compositor"
	"github.com/Carmen-Shannon/veil/engine/lens"
	"github.com/Carmen-Shannon/veil/engine/pacer"
)

// registryEntry pairs an embedded WGSL struct source with the type name it declares.
type registryEntry struct {
	Source string
	Type   string
}

type preProcessor struct {
	structRegistry       map[AnnotationArg]registryEntry
	addressSpaceRegistry map[AnnotationArg]string

	// declarations is reset at the start of each Process call.
	declarations []Annotation
}

// PreProcessor expands @veil: annotations in WGSL source and collects the resulting declarations.
type PreProcessor interface {
	// Process expands every annotation in source. include annotations become the registered
	// struct source, group annotations become @group/@binding declarations and provider
	// annotations are removed. Both group and provider annotations are recorded as declarations.
	//
	// Parameters:
	//   - source: the raw WGSL source
	//
	// Returns:
	//   - string: the expanded WGSL source
	//   - error: an error if any annotation is malformed
	Process(source string) (string, error)

	// Declarations returns the group and provider annotations from the last Process call,
	// in source order.
	//
	// Returns:
	//   - []Annotation: the collected declarations
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with the pipeline's GPU structs registered.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		structRegistry: map[AnnotationArg]registryEntry{
			AnnotationArgEyeVertex:       {Source: compositor.GPUEyeVertexSource, Type: "EyeVertex"},
			AnnotationArgCompositeParams: {Source: compositor.GPUCompositeParamsSource, Type: "CompositeParams"},
			AnnotationArgLensParams:      {Source: lens.GPULensParamsSource, Type: "LensParams"},
			AnnotationArgBlendParams:     {Source: pacer.GPUBlendParamsSource, Type: "BlendParams"},
		},
		addressSpaceRegistry: map[AnnotationArg]string{
			annotationArgStorageTypeUniform: "var<uniform>",
			annotationArgStorageTypeRead:    "var<storage, read>",
		},
	}
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = p.declarations[:0]

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case annotationTypeInclude:
			out = append(out, p.structRegistry[a.Args[0]].Source)
		case AnnotationTypeBindingGroup:
			entry := p.structRegistry[a.Args[2]]
			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;",
				*a.Group, *a.Binding, p.addressSpaceRegistry[a.Args[0]], a.Args[1], entry.Type))
			p.declarations = append(p.declarations, *a)
		case AnnotationTypeProvider:
			p.declarations = append(p.declarations, *a)
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}
