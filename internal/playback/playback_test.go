package playback

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestPushSource_DeliversToAllSubscribers(t *testing.T) {
	src := NewPushSource()

	var a, b []Sample
	src.Subscribe(func(s Sample) { a = append(a, s) })
	src.Subscribe(func(s Sample) { b = append(b, s) })

	src.Push(Sample{PositionMs: 100, Playing: true})
	src.Push(Sample{PositionMs: 200, Playing: true})

	if len(a) != 2 || len(b) != 2 {
		t.Fatalf("got %d/%d samples, want 2/2", len(a), len(b))
	}
	if a[1].PositionMs != 200 {
		t.Errorf("a[1].PositionMs = %d, want 200", a[1].PositionMs)
	}
}

func TestPushSource_UnsubscribeIsIdempotent(t *testing.T) {
	src := NewPushSource()

	got := 0
	cancel := src.Subscribe(func(Sample) { got++ })
	keep := 0
	src.Subscribe(func(Sample) { keep++ })

	cancel()
	cancel() // second call is a no-op

	src.Push(Sample{PositionMs: 50})

	if got != 0 {
		t.Errorf("canceled subscriber received %d samples", got)
	}
	if keep != 1 {
		t.Errorf("remaining subscriber received %d samples, want 1", keep)
	}
	if n := src.SubscriberCount(); n != 1 {
		t.Errorf("SubscriberCount() = %d, want 1", n)
	}
}

func TestTickerSource_AdvancesOnlyWhilePlaying(t *testing.T) {
	src := NewTickerSource(1000, 10*time.Millisecond)

	// Paused: position stays at zero.
	if done := src.tick(); done {
		t.Fatal("tick() finished while paused at 0")
	}

	var last Sample
	src.Subscribe(func(s Sample) { last = s })

	if last.PositionMs != 0 {
		t.Fatalf("position before Play = %d, want 0", last.PositionMs)
	}

	src.Play()
	src.tick()
	if last.PositionMs != 10 || !last.Playing {
		t.Errorf("after one playing tick got %+v, want position 10, playing", last)
	}

	src.Pause()
	src.tick()
	if last.PositionMs != 10 || last.Playing {
		t.Errorf("after paused tick got %+v, want position held at 10", last)
	}
}

func TestTickerSource_FinishesAtDuration(t *testing.T) {
	src := NewTickerSource(25, 10*time.Millisecond)

	var samples []Sample
	src.Subscribe(func(s Sample) { samples = append(samples, s) })

	src.Play()
	for i := 0; i < 10; i++ {
		if src.tick() {
			break
		}
	}

	final := samples[len(samples)-1]
	if !final.Finished {
		t.Fatal("feed never reported finished")
	}
	if final.PositionMs != 25 {
		t.Errorf("final position = %d, want clamped to 25", final.PositionMs)
	}
	if final.Playing {
		t.Error("finished sample still reports playing")
	}
}

func TestTickerSource_SeekClampsAndClearsFinished(t *testing.T) {
	src := NewTickerSource(1000, 10*time.Millisecond)
	src.Play()
	for !src.tick() {
		if src.positionMs >= 1000 {
			break
		}
	}

	src.Seek(500)
	var last Sample
	src.Subscribe(func(s Sample) { last = s })
	src.tick()
	if last.Finished {
		t.Error("seek did not clear finished state")
	}

	src.Seek(-10)
	if src.positionMs != 0 {
		t.Errorf("negative seek landed at %d, want 0", src.positionMs)
	}
	src.Seek(5000)
	if src.positionMs != 1000 {
		t.Errorf("past-end seek landed at %d, want 1000", src.positionMs)
	}
}

func TestTickerSource_RunStopsOnContextCancel(t *testing.T) {
	src := NewTickerSource(10_000, time.Millisecond)
	src.Play()

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		src.Run(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
