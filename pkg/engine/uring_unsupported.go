//go:build !linux

package engine

import (
	"github.com/pkg/errors"
)

type UringEngine struct {
}

func NewUring() *UringEngine {
	return &UringEngine{}
}

func (e *UringEngine) Run(params Params) (*Result, error) {
	return nil, errors.New("uring engine is only supported on Linux")
}
