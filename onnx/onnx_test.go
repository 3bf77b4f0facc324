package onnx_test

import (
	"testing"

	"github.com/hmcos-go/hmcos/graph"
	"github.com/hmcos-go/hmcos/onnx"
)

func TestSourceImplementsModelSource(t *testing.T) {
	var _ graph.ModelSource = (*onnx.Source)(nil)
}

func TestLoadNonExistentFile(t *testing.T) {
	_, err := onnx.Load("/nonexistent/model.onnx")
	if err == nil {
		t.Fatal("expected an error loading a nonexistent file")
	}
}
