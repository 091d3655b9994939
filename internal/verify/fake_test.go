package verify

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"time"
)

// fakeSession emulates the archive viewer: clicking a conversation switches
// to the chat view and the back control returns to the list.
type fakeSession struct {
	calls        []string
	closes       int
	view         string
	waitErr      map[Target]error
	clickPanic   map[Target]string
	screenshotFn func(path string) error
	closeErr     error
}

func newFakeSession() *fakeSession {
	return &fakeSession{view: "list", waitErr: map[Target]error{}, clickPanic: map[Target]string{}}
}

func (f *fakeSession) Goto(url string, timeout time.Duration) error {
	f.calls = append(f.calls, "goto "+url)
	return nil
}

func (f *fakeSession) WaitFor(target Target, state State, timeout time.Duration) error {
	f.calls = append(f.calls, fmt.Sprintf("wait %s %s %s", target, state, timeout))
	if err, ok := f.waitErr[target]; ok {
		return err
	}
	return nil
}

func (f *fakeSession) Click(target Target, timeout time.Duration) error {
	f.calls = append(f.calls, "click "+target.String())
	if msg, ok := f.clickPanic[target]; ok {
		panic(msg)
	}
	switch target {
	case ConversationItem:
		f.view = "chat"
	case BackToListButton:
		f.view = "list"
	}
	return nil
}

func (f *fakeSession) Screenshot(path string) error {
	f.calls = append(f.calls, "screenshot "+path)
	if f.screenshotFn != nil {
		return f.screenshotFn(path)
	}
	return writePNG(path, f.view)
}

func (f *fakeSession) Close() error {
	f.closes++
	return f.closeErr
}

// writePNG draws a 375x812 image whose fill depends on the current view.
func writePNG(path, view string) error {
	img := image.NewRGBA(image.Rect(0, 0, 375, 812))
	fill := color.RGBA{R: 240, G: 240, B: 240, A: 255}
	if view == "chat" {
		fill = color.RGBA{R: 20, G: 120, B: 220, A: 255}
	}
	for y := 0; y < 812; y++ {
		for x := 0; x < 375; x++ {
			img.Set(x, y, fill)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

type fakeLauncher struct {
	sessions []*fakeSession
	err      error
	launches int
}

func (l *fakeLauncher) Launch() (Session, error) {
	l.launches++
	if l.err != nil {
		return nil, l.err
	}
	s := newFakeSession()
	l.sessions = append(l.sessions, s)
	return s, nil
}

// launcherFor hands out a single preconfigured session.
type launcherFor struct {
	session *fakeSession
}

func (l launcherFor) Launch() (Session, error) {
	return l.session, nil
}
