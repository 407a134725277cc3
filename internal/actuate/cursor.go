// Package actuate positions the pointer over suggested cells. It never
// clicks.
package actuate

import (
	"errors"
	"log"

	"sweeper-vision/pkg/geometry"

	"github.com/go-vgo/robotgo"
)

// ErrNoTarget is returned when there is nothing to move to.
var ErrNoTarget = errors.New("no target")

// CursorActuator moves the system cursor to the first suggested target.
type CursorActuator struct {
	// Offset is added to every target on top of the frame origin, for
	// captures whose frame is not at the top-left of the surface.
	Offset geometry.PointInt

	move func(x, y int, displayID ...int)
}

// NewCursorActuator creates an actuator backed by robotgo.
func NewCursorActuator() *CursorActuator {
	return &CursorActuator{move: robotgo.Move}
}

// Target converts the first frame-space target to screen coordinates.
func (a *CursorActuator) Target(targets []geometry.PointInt, origin geometry.PointInt) (geometry.PointInt, error) {
	if len(targets) == 0 {
		return geometry.PointInt{}, ErrNoTarget
	}
	return targets[0].Add(origin).Add(a.Offset), nil
}

// Actuate moves the cursor over the first target.
func (a *CursorActuator) Actuate(targets []geometry.PointInt, origin geometry.PointInt) error {
	p, err := a.Target(targets, origin)
	if err != nil {
		return err
	}
	log.Printf("Actuate: cursor to %d,%d (%d candidates)", p.X, p.Y, len(targets))
	a.move(p.X, p.Y)
	return nil
}
