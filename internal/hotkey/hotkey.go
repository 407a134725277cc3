// Package hotkey listens for the global re-target key combination.
package hotkey

import (
	"context"
	"fmt"
	"log"
	"strings"

	gohook "github.com/robotn/gohook"
)

// DefaultHotkey re-targets the capture surface.
const DefaultHotkey = "f8"

// ParseHotkey converts a combination such as "Ctrl+Shift+R" to gohook key
// names. Modifier aliases are normalised.
func ParseHotkey(combo string) ([]string, error) {
	var keys []string
	for _, part := range strings.Split(strings.ToLower(combo), "+") {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			return nil, fmt.Errorf("hotkey %q: empty key", combo)
		case "control":
			part = "ctrl"
		case "option":
			part = "alt"
		case "win", "super", "meta":
			part = "cmd"
		}
		keys = append(keys, part)
	}
	return keys, nil
}

// Listen calls callback every time combo is pressed until ctx is done. The
// callback runs on the hook goroutine and should return quickly.
func Listen(ctx context.Context, combo string, callback func()) error {
	keys, err := ParseHotkey(combo)
	if err != nil {
		return err
	}
	log.Printf("Hotkey: listening for %s", strings.Join(keys, "+"))

	gohook.Register(gohook.KeyDown, keys, func(gohook.Event) {
		log.Printf("Hotkey: %s pressed", combo)
		callback()
	})

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Hotkey: panic in hook loop: %v", r)
			}
		}()
		evChan := gohook.Start()
		if evChan == nil {
			log.Printf("Hotkey: gohook.Start returned no channel")
			return
		}
		<-gohook.Process(evChan)
		log.Printf("Hotkey: event loop ended")
	}()

	go func() {
		<-ctx.Done()
		gohook.End()
	}()
	return nil
}
