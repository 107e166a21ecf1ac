package gl

import (
	"sync"
	"testing"

	"github.com/pkg/errors"

	"github.com/matjam/wlcore/internal/graphics"
)

type recordingGL struct {
	Functions

	mu      sync.Mutex
	bound   []uint32
	deleted []uint32
}

func (r *recordingGL) BindTexture(_, tex uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bound = append(r.bound, tex)
}

func (r *recordingGL) DeleteTexture(tex uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, tex)
}

// inline runs spawned tasks immediately.
type inline struct{ closed bool }

func (i *inline) Spawn(task func()) error {
	if i.closed {
		return errors.New("closed")
	}
	task()
	return nil
}

func TestTexBufferConsumedOnce(t *testing.T) {
	f := &recordingGL{}
	consumed := 0
	tb := NewTexBuffer(f, &inline{}, 7, TexBufferOptions{
		Size:       graphics.Size{Width: 4, Height: 4},
		OnConsumed: func() { consumed++ },
	})

	for range 5 {
		tb.Bind()
	}
	if consumed != 1 {
		t.Errorf("consumed called %d times, want 1", consumed)
	}
	if len(f.bound) != 5 {
		t.Errorf("bound %d times, want 5", len(f.bound))
	}
	if tb.Target() != Texture2D {
		t.Errorf("default target = 0x%x", tb.Target())
	}
}

func TestTexBufferRelease(t *testing.T) {
	f := &recordingGL{}
	released := 0
	tb := NewTexBuffer(f, &inline{}, 3, TexBufferOptions{OnRelease: func() { released++ }})

	tb.Release()
	tb.Release()
	if released != 1 {
		t.Errorf("release called %d times", released)
	}
	if len(f.deleted) != 1 || f.deleted[0] != 3 {
		t.Errorf("deleted = %v", f.deleted)
	}
}

func TestTexBufferReleaseAfterContextGone(t *testing.T) {
	f := &recordingGL{}
	tb := NewTexBuffer(f, &inline{closed: true}, 3, TexBufferOptions{})
	tb.Release()
	if len(f.deleted) != 0 {
		t.Errorf("deleted = %v", f.deleted)
	}
}
