package render

import (
	"log"

	"sweeper-vision/internal/app"
)

// LogRenderer prints the grid to the log whenever it changes.
type LogRenderer struct {
	last string
}

func (l *LogRenderer) Render(res *app.Result) {
	if res == nil || res.State == nil {
		return
	}
	grid := res.State.String()
	if grid == l.last {
		return
	}
	l.last = grid
	log.Printf("Board: %s safe %v\n%s", Summary(res.State), res.State.SafeCells, grid)
}
