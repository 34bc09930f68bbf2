//go:build !cgo
// +build !cgo

package llm

import "errors"

// NewLocalEmbedder returns an error when built without CGO (onnxruntime not
// available). See local.go for the real implementation.
func NewLocalEmbedder(_ string, _, _ int) (Embedder, error) {
	return nil, errors.New("local embedder requires CGO; build with CGO_ENABLED=1 and onnxruntime")
}
