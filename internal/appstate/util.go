package appstate

import (
	"context"
	"image"
)

// Frame renders what the window would currently show.
func (a *AppState) Frame() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, a.width, a.height))
	composeFrame(context.Background(), img, a.snapshot())
	return img
}

// Handle feeds a window event through the same path Main uses and reports
// whether a repaint is needed.
func (a *AppState) Handle(ev any) bool {
	repaint, _ := a.handle(ev)
	return repaint
}

// Wait handles the next result of a background save or transcription when
// no window is running.
func (a *AppState) Wait(ctx context.Context) error {
	select {
	case ev := <-a.results:
		a.handle(ev)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops background work.
func (a *AppState) Close() { a.notifyClose() }
