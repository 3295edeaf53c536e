//go:build !rnnoise
// +build !rnnoise

package rnnoise

import (
	"fmt"

	"github.com/xaionaro-go/denoise/pkg/noisemodel"
)

type Model = noisemodel.Dummy

func New() (*Model, error) {
	return nil, fmt.Errorf("built without tag 'rnnoise'")
}
