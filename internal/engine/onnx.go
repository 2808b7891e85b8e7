package engine

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	onnxrt "github.com/yalue/onnxruntime_go"
)

// ONNXConfig holds configuration for the ONNX Runtime recognition engine.
type ONNXConfig struct {
	ModelPath   string // path to the ONNX recognition model
	DictPath    string // path to the character dictionary
	ImageHeight int    // expected input height (e.g. 32 or 48)
	NumThreads  int    // intra-op CPU threads (0 for default)
	MaxWidth    int    // optional max width clamp (0 = no clamp)
}

// DefaultONNXConfig returns a default engine configuration.
func DefaultONNXConfig() ONNXConfig {
	return ONNXConfig{
		ImageHeight: 48,
		NumThreads:  0,
		MaxWidth:    0,
	}
}

// ONNXProvider creates recognition sessions scoped to one invocation each.
// The charset and model metadata are loaded once; sessions are created on
// Acquire and destroyed by the engine's Close.
type ONNXProvider struct {
	cfg        ONNXConfig
	charset    *Charset
	inputName  string
	outputName string
}

// NewONNXProvider validates the model and dictionary and prepares a
// provider. The ONNX Runtime environment is initialized lazily and shared
// process-wide.
func NewONNXProvider(cfg ONNXConfig) (*ONNXProvider, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("model path cannot be empty")
	}
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}
	charset, err := LoadCharset(cfg.DictPath)
	if err != nil {
		return nil, err
	}

	if !onnxrt.IsInitialized() {
		if err := onnxrt.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX Runtime: %w", err)
		}
	}

	inputs, outputs, err := onnxrt.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get model input/output info: %w", err)
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return nil, fmt.Errorf("expected 1 input and 1 output, got %d/%d", len(inputs), len(outputs))
	}
	if len(inputs[0].Dimensions) != 4 {
		return nil, fmt.Errorf("expected 4D input tensor, got %dD", len(inputs[0].Dimensions))
	}
	// Adopt the model's fixed height when the config leaves it unset.
	if h := inputs[0].Dimensions[2]; h > 0 && cfg.ImageHeight <= 0 {
		cfg.ImageHeight = int(h)
	}
	slog.Debug("ONNX recognition model loaded",
		"model", cfg.ModelPath, "charset_size", charset.Size(), "image_height", cfg.ImageHeight)

	return &ONNXProvider{
		cfg:        cfg,
		charset:    charset,
		inputName:  inputs[0].Name,
		outputName: outputs[0].Name,
	}, nil
}

// Acquire creates a new recognition session. The caller owns the returned
// engine and must Close it when the invocation finishes.
func (p *ONNXProvider) Acquire() (Engine, error) {
	opts, err := onnxrt.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer func() { _ = opts.Destroy() }()

	if p.cfg.NumThreads > 0 {
		if err := opts.SetIntraOpNumThreads(p.cfg.NumThreads); err != nil {
			return nil, fmt.Errorf("failed to set thread count: %w", err)
		}
	}

	session, err := onnxrt.NewDynamicAdvancedSession(
		p.cfg.ModelPath,
		[]string{p.inputName},
		[]string{p.outputName},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	return &onnxEngine{provider: p, session: session}, nil
}

// onnxEngine is a single-invocation recognition handle.
type onnxEngine struct {
	provider *ONNXProvider
	session  *onnxrt.DynamicAdvancedSession
}

// Recognize runs the model over the bitmap and decodes the CTC output.
func (e *onnxEngine) Recognize(img image.Image) (Result, error) {
	if e.session == nil {
		return Result{}, errors.New("engine already closed")
	}
	if img == nil {
		return Result{}, errors.New("input image is nil")
	}

	data, width, height := e.prepareTensor(img)
	inputTensor, err := onnxrt.NewTensor(onnxrt.NewShape(1, 3, int64(height), int64(width)), data)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer func() { _ = inputTensor.Destroy() }()

	outputs := []onnxrt.Value{nil}
	if err := e.session.Run([]onnxrt.Value{inputTensor}, outputs); err != nil {
		return Result{}, fmt.Errorf("inference failed: %w", err)
	}
	outTensor := outputs[0]
	defer func() { _ = outTensor.Destroy() }()

	floatTensor, ok := outTensor.(*onnxrt.Tensor[float32])
	if !ok {
		return Result{}, errors.New("unexpected output tensor type")
	}
	return e.decode(floatTensor.GetData(), outTensor.GetShape())
}

// Close destroys the session. Safe to call more than once.
func (e *onnxEngine) Close() error {
	if e.session != nil {
		if err := e.session.Destroy(); err != nil {
			fmt.Fprintf(os.Stderr, "Error destroying session: %v\n", err)
		}
		e.session = nil
	}
	return nil
}

// prepareTensor scales the bitmap to the model height and packs it into a
// normalized NCHW float tensor.
func (e *onnxEngine) prepareTensor(img image.Image) ([]float32, int, int) {
	h := e.provider.cfg.ImageHeight
	b := img.Bounds()
	w := int(float64(b.Dx()) * float64(h) / float64(b.Dy()))
	if w < 1 {
		w = 1
	}
	if e.provider.cfg.MaxWidth > 0 && w > e.provider.cfg.MaxWidth {
		w = e.provider.cfg.MaxWidth
	}
	resized := imaging.Resize(img, w, h, imaging.Lanczos)

	data := make([]float32, 3*h*w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := resized.At(x, y).RGBA()
			data[0*h*w+y*w+x] = float32(r>>8) / 255.0
			data[1*h*w+y*w+x] = float32(g>>8) / 255.0
			data[2*h*w+y*w+x] = float32(bl>>8) / 255.0
		}
	}
	return data, w, h
}

// decode greedy-decodes the [1, T, C] output into text with per-token
// confidences. Tokens are whitespace-delimited character groups scored by
// their mean character probability.
func (e *onnxEngine) decode(data []float32, shape []int64) (Result, error) {
	if len(shape) != 3 {
		return Result{}, fmt.Errorf("unexpected output shape: %v", shape)
	}
	steps := int(shape[1])
	classes := int(shape[2])
	if steps*classes > len(data) {
		return Result{}, errors.New("output tensor smaller than its shape")
	}

	indices := make([]int, steps)
	probs := make([]float64, steps)
	for t := 0; t < steps; t++ {
		row := data[t*classes : (t+1)*classes]
		idx, _ := argmax(row)
		indices[t] = idx
		probs[t] = probOfIndex(row, idx)
	}
	collapsed, collapsedProbs := ctcCollapse(indices, probs, 0)

	var sb strings.Builder
	var tokens []Token
	var tokenChars strings.Builder
	var tokenProbSum float64
	var tokenCount int
	var totalProb float64

	flush := func() {
		if tokenCount == 0 {
			return
		}
		tokens = append(tokens, Token{
			Text:       tokenChars.String(),
			Confidence: tokenProbSum / float64(tokenCount),
		})
		tokenChars.Reset()
		tokenProbSum = 0
		tokenCount = 0
	}

	for i, idx := range collapsed {
		ch := e.provider.charset.Decode(idx)
		sb.WriteString(ch)
		totalProb += collapsedProbs[i]
		if strings.TrimSpace(ch) == "" {
			flush()
			continue
		}
		tokenChars.WriteString(ch)
		tokenProbSum += collapsedProbs[i]
		tokenCount++
	}
	flush()

	res := Result{Text: sb.String(), Tokens: tokens}
	if len(collapsed) > 0 {
		res.AvgConfidence = totalProb / float64(len(collapsed))
	}
	return res, nil
}
