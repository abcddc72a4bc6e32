package model

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// IOInfo describes the graph's first input and output.
type IOInfo struct {
	InputName   string  `json:"input_name"`
	InputShape  []int64 `json:"input_shape"`
	OutputName  string  `json:"output_name"`
	OutputShape []int64 `json:"output_shape"`
}

var runtimeMu sync.Mutex

// InitRuntime loads the onnxruntime shared library once per process.
func InitRuntime(libPath string) error {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	if ort.IsInitialized() {
		return nil
	}
	if libPath != "" {
		ort.SetSharedLibraryPath(libPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}
	return nil
}

// DestroyRuntime releases the onnxruntime environment.
func DestroyRuntime() error {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}

// InspectONNX reads input and output metadata from an ONNX file.
// The runtime must be initialized.
func InspectONNX(modelPath string) (*IOInfo, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read model metadata: %w", err)
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return nil, fmt.Errorf("expected one input and one output, got %d and %d", len(inputs), len(outputs))
	}
	in, out := inputs[0], outputs[0]
	if in.DataType != ort.TensorElementDataTypeFloat || out.DataType != ort.TensorElementDataTypeFloat {
		return nil, fmt.Errorf("expected float32 tensors, got %v and %v", in.DataType, out.DataType)
	}
	return &IOInfo{
		InputName:   in.Name,
		InputShape:  []int64(in.Dimensions),
		OutputName:  out.Name,
		OutputShape: []int64(out.Dimensions),
	}, nil
}

// checkTopology verifies the graph takes a [N,3,size,size] image and ends in
// a classes-wide layer. Dynamic dimensions (<= 0) are accepted.
func checkTopology(info *IOInfo, size, classes int) error {
	in := info.InputShape
	if len(in) != 4 {
		return fmt.Errorf("input %s: expected rank 4, got shape %v", info.InputName, in)
	}
	want := []int64{1, 3, int64(size), int64(size)}
	for i := 1; i < 4; i++ {
		if in[i] > 0 && in[i] != want[i] {
			return fmt.Errorf("input %s: expected shape %v, got %v", info.InputName, want, in)
		}
	}
	out := info.OutputShape
	if len(out) != 2 || (out[1] > 0 && out[1] != int64(classes)) {
		return fmt.Errorf("output %s: expected [N %d], got %v", info.OutputName, classes, out)
	}
	return nil
}

// OnnxNetwork is a Network backed by an onnxruntime session. The session is
// shared; tensors are allocated per call.
type OnnxNetwork struct {
	session *ort.DynamicAdvancedSession
	info    IOInfo
	input   ort.Shape
	output  ort.Shape
}

// NewOnnxNetwork opens modelPath, checks its topology against the expected
// input size and class count, and prepares a session.
func NewOnnxNetwork(modelPath string, size, classes, threads int) (*OnnxNetwork, error) {
	info, err := InspectONNX(modelPath)
	if err != nil {
		return nil, err
	}
	if err := checkTopology(info, size, classes); err != nil {
		return nil, err
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer options.Destroy()
	if threads > 0 {
		if err := options.SetIntraOpNumThreads(threads); err != nil {
			return nil, fmt.Errorf("failed to set intra-op threads: %w", err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{info.InputName}, []string{info.OutputName}, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &OnnxNetwork{
		session: session,
		info:    *info,
		input:   ort.NewShape(1, 3, int64(size), int64(size)),
		output:  ort.NewShape(1, int64(classes)),
	}, nil
}

// Info returns the graph metadata.
func (n *OnnxNetwork) Info() IOInfo {
	return n.info
}

// Forward implements Network.
func (n *OnnxNetwork) Forward(ctx context.Context, input []float32) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if int64(len(input)) != n.input.FlattenedSize() {
		return nil, fmt.Errorf("expected %d input values, got %d", n.input.FlattenedSize(), len(input))
	}

	inputTensor, err := ort.NewTensor(n.input, input)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputTensor, err := ort.NewEmptyTensor[float32](n.output)
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	if err := n.session.Run([]ort.Value{inputTensor}, []ort.Value{outputTensor}); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	scores := make([]float32, len(outputTensor.GetData()))
	copy(scores, outputTensor.GetData())
	return scores, nil
}

// Close implements Network.
func (n *OnnxNetwork) Close() error {
	if n.session == nil {
		return nil
	}
	err := n.session.Destroy()
	n.session = nil
	return err
}
