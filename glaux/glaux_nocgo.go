//go:build tinygo || !cgo

package glaux

import "errors"

func ui(cfg UIConfig) error {
	return errors.New("require cgo for UI rendering")
}

func sphereUI(cfg SphereUIConfig) error {
	return errors.New("require cgo for UI rendering")
}
