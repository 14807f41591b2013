package ui

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
)

const sinceRefresh = 64 * time.Millisecond

// sinceText shows how long ago Mark was last called. It stays at zero until the first Mark
type sinceText struct {
	text *canvas.Text

	// last is the UnixNano of the latest Mark, zero before the first one
	last atomic.Int64

	stop     chan struct{}
	stopOnce sync.Once
}

func newSinceText() *sinceText {
	return &sinceText{
		text: canvas.NewText(formatElapsed(0), nil),
		stop: make(chan struct{}),
	}
}

func (s *sinceText) Mark(t time.Time) {
	s.last.Store(t.UnixNano())
}

func (s *sinceText) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

// Start refreshes the text in the background until Stop
func (s *sinceText) Start() {
	go func() {
		ticker := time.NewTicker(sinceRefresh)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
			}

			last := s.last.Load()
			if last == 0 {
				continue
			}
			label := formatElapsed(time.Since(time.Unix(0, last)))

			fyne.Do(func() {
				s.text.Text = label
				s.text.Refresh()
			})
		}
	}()
}

// formatElapsed formats like 02:05.042
func formatElapsed(elapsed time.Duration) string {
	millis := elapsed.Milliseconds()
	return fmt.Sprintf("%02d:%02d.%03d", millis/60000, millis/1000%60, millis%1000)
}
