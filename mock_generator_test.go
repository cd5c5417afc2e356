package nanobanana

import (
	"context"
	"errors"
	"sync"
)

// MockImageGenerator is a mock implementation of ImageGenerator.
type MockImageGenerator struct {
	GenerateFunc func(ctx context.Context, req *GenerationRequest) (*GeneratedImage, error)
	ModelFunc    func() ModelInfo

	mu    sync.Mutex
	calls []*GenerationRequest
}

func (m *MockImageGenerator) Generate(ctx context.Context, req *GenerationRequest) (*GeneratedImage, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return &GeneratedImage{Data: []byte("fake-image"), MIMEType: "image/png"}, nil
}

func (m *MockImageGenerator) Model() ModelInfo {
	if m.ModelFunc != nil {
		return m.ModelFunc()
	}
	return testModel
}

// Calls returns the requests received so far.
func (m *MockImageGenerator) Calls() []*GenerationRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*GenerationRequest(nil), m.calls...)
}

var testModel = ModelInfo{
	Name:         "test-model",
	APIModelName: "test-model-api",
	ImageConstraints: ImageConstraints{
		SupportedAspectRatios: AspectRatios(),
		SupportedResolutions:  Resolutions(),
	},
	Pricing: Pricing{PerImage: CostTable, ReferenceImage: ReferenceImageCost},
}

// memoryCredentials is an in-memory CredentialStore.
type memoryCredentials struct {
	key     string
	loadErr error
	saveErr error
	saves   int
}

func (m *memoryCredentials) Load() (string, error) {
	return m.key, m.loadErr
}

func (m *memoryCredentials) Save(key string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.key = key
	m.saves++
	return nil
}

// memoryStorage records the files saved through it.
type memoryStorage struct {
	files map[string][]byte
	types map[string]string
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{files: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryStorage) SaveFile(ctx context.Context, data []byte, path string, contentType string) (string, error) {
	if path == "" {
		return "", errors.New("empty path")
	}
	m.files[path] = data
	m.types[path] = contentType
	return "mem://" + path, nil
}
