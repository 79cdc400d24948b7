package eventloop

import (
	"testing"
	"time"
)

func TestSubmitRunsOnLoopThread(t *testing.T) {
	l := New(4)
	go l.Run()
	defer l.Stop()

	done := make(chan bool, 1)
	l.Submit(func() {
		done <- l.OnLoopThread()
	})

	select {
	case onLoop := <-done:
		if !onLoop {
			t.Fatal("expected task to observe OnLoopThread() == true")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for submitted task")
	}
}

func TestOrderingPreserved(t *testing.T) {
	l := New(16)
	go l.Run()
	defer l.Stop()

	var got []int
	resultCh := make(chan []int, 1)

	for i := 0; i < 10; i++ {
		i := i
		l.Submit(func() {
			got = append(got, i)
			if i == 9 {
				resultCh <- got
			}
		})
	}

	select {
	case result := <-resultCh:
		for i, v := range result {
			if v != i {
				t.Fatalf("expected in-order execution, got %v", result)
			}
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ordered tasks")
	}
}

func TestTimerFiresOnLoop(t *testing.T) {
	l := New(4)
	go l.Run()
	defer l.Stop()

	done := make(chan bool, 1)
	var timer *Timer
	timer = NewTimer(l, func() {
		done <- l.OnLoopThread()
	})
	timer.Reset(10 * time.Millisecond)

	select {
	case onLoop := <-done:
		if !onLoop {
			t.Fatal("expected timer callback to observe OnLoopThread() == true")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for timer")
	}
}

func TestMustBeOnLoopPanicsOffLoop(t *testing.T) {
	l := New(1)
	defer func() {
		if recover() == nil {
			t.Fatal("expected MustBeOnLoop to panic when called off the loop")
		}
	}()
	l.MustBeOnLoop()
}
