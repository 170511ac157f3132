package publish

import (
	"context"
	"errors"
	"testing"

	"github.com/lofiradio/automation/internal/model"
)

type stubPublisher struct {
	name     string
	remoteID string
	err      error
	panics   bool
	called   bool
}

func (s *stubPublisher) Name() string { return s.name }

func (s *stubPublisher) Publish(ctx context.Context, req *Request) (string, error) {
	s.called = true
	if s.panics {
		panic("publisher blew up")
	}
	return s.remoteID, s.err
}

func testRequest() *Request {
	return &Request{
		Slot:          model.SlotNight,
		Audio:         []byte("audio"),
		Cover:         []byte("cover"),
		Metadata:      &model.Metadata{Title: "t", Description: "d", Tags: []string{"lofi"}},
		AudioDuration: 120,
	}
}

func TestDispatchAllSucceed(t *testing.T) {
	a := &stubPublisher{name: "youtube", remoteID: "yt-1"}
	b := &stubPublisher{name: "audius", remoteID: "au-1"}

	results := Dispatch(context.Background(), []Publisher{a, b}, testRequest())
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for i, want := range []string{"yt-1", "au-1"} {
		if !results[i].Success || results[i].RemoteID != want {
			t.Errorf("result[%d] = %+v, want success with id %s", i, results[i], want)
		}
	}
}

func TestDispatchIsolatesFailures(t *testing.T) {
	a := &stubPublisher{name: "first", remoteID: "ok-1"}
	b := &stubPublisher{name: "second", err: errors.New("quota exceeded")}
	c := &stubPublisher{name: "third", remoteID: "ok-3"}

	results := Dispatch(context.Background(), []Publisher{a, b, c}, testRequest())
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if !results[0].Success || !results[2].Success {
		t.Errorf("surrounding platforms should succeed: %+v", results)
	}
	if results[1].Success || results[1].Error != "quota exceeded" {
		t.Errorf("failing platform result = %+v", results[1])
	}
	if !c.called {
		t.Error("a platform failure must not stop later platforms")
	}
}

func TestDispatchRecoversFromPanic(t *testing.T) {
	a := &stubPublisher{name: "panicky", panics: true}
	b := &stubPublisher{name: "steady", remoteID: "ok"}

	results := Dispatch(context.Background(), []Publisher{a, b}, testRequest())
	if results[0].Success {
		t.Errorf("panicking platform should fail: %+v", results[0])
	}
	if results[0].Error == "" {
		t.Error("panic should be recorded in the result error")
	}
	if !results[1].Success {
		t.Errorf("platform after a panic should still run: %+v", results[1])
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		duration float64
		want     Form
	}{
		{45, FormShort},
		{62.3, FormShort},
		{90, FormShort},
		{90.1, FormLong},
		{180, FormLong},
	}
	for _, tt := range tests {
		if got := Classify(tt.duration); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.duration, got, tt.want)
		}
	}
}
