//go:build !windows

package services

import "context"

type unsupportedController struct{}

func newController() controller { return unsupportedController{} }

func (unsupportedController) list(context.Context) ([]Service, error) { return nil, ErrUnsupported }

func (unsupportedController) status(string) (Status, error) { return StatusUnknown, ErrUnsupported }

func (unsupportedController) start(string) error { return ErrUnsupported }

func (unsupportedController) stop(string) error { return ErrUnsupported }

func (unsupportedController) startType(string) (StartType, error) {
	return StartUnknown, ErrUnsupported
}
