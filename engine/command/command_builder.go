package command

// InterpreterBuilderOption is a functional option applied to an Interpreter during construction via NewInterpreter.
type InterpreterBuilderOption func(*interpreter)

// WithPipelineControl wires the pause and resume commands.
//
// Parameters:
//   - p: the pipeline to pause and resume
//
// Returns:
//   - InterpreterBuilderOption: a function that applies the pipeline control to an Interpreter
func WithPipelineControl(p PipelineControl) InterpreterBuilderOption {
	return func(i *interpreter) {
		i.pipeline = p
	}
}

// WithResolutionControl wires the resolution up and down commands and the resolution key bindings.
//
// Parameters:
//   - r: the camera resolution controller
//
// Returns:
//   - InterpreterBuilderOption: a function that applies the resolution control to an Interpreter
func WithResolutionControl(r ResolutionControl) InterpreterBuilderOption {
	return func(i *interpreter) {
		i.resolution = r
	}
}
