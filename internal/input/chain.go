package input

import (
	"github.com/jonboulle/clockwork"

	"github.com/matjam/wlcore/internal/alarm"
)

// Chain is the dispatch pipeline that runs after the seat: key repeat, then
// the event filters, then the scene.
type Chain struct {
	Repeat  *KeyRepeatDispatcher
	Filters *FilterChain
}

func NewChain(scene Dispatcher, alarms alarm.Factory, clock clockwork.Clock, cfg KeyRepeatConfig, filters ...EventFilter) *Chain {
	fc := NewFilterChain(scene, filters...)
	return &Chain{
		Repeat:  NewKeyRepeatDispatcher(fc, alarms, clock, cfg),
		Filters: fc,
	}
}

func (c *Chain) Dispatch(ev Event) bool { return c.Repeat.Dispatch(ev) }
func (c *Chain) Start()                 { c.Repeat.Start() }
func (c *Chain) Stop()                  { c.Repeat.Stop() }
