package unit

import (
	"iter"

	"github.com/OCAP2/orbat/internal/message"
	"github.com/OCAP2/orbat/pkg/core"
)

// fakeIndex is a brute-force spatial index.
type fakeIndex struct {
	platoons    []*Platoon
	relocations []core.Vec2
	speed       float64
	queries     int
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{speed: 1}
}

func (f *fakeIndex) Register(p *Platoon) {
	f.platoons = append(f.platoons, p)
}

func (f *fakeIndex) Relocate(_ *Platoon, old core.Vec2) {
	f.relocations = append(f.relocations, old)
}

func (f *fakeIndex) Neighbors(p *Platoon, radius float64) iter.Seq[*Platoon] {
	f.queries++
	return func(yield func(*Platoon) bool) {
		for _, other := range f.platoons {
			if other == p || p.position.DistanceTo(other.position) > radius {
				continue
			}
			if !yield(other) {
				return
			}
		}
	}
}

func (f *fakeIndex) SpeedModifier(*Platoon) float64 {
	return f.speed
}

// fakeMessenger records everything dispatched to it.
type fakeMessenger struct {
	sent     []message.Message
	enrolled []message.Receiver
}

func (f *fakeMessenger) Dispatch(m message.Message) {
	f.sent = append(f.sent, m)
}

func (f *fakeMessenger) Enroll(r message.Receiver) {
	f.enrolled = append(f.enrolled, r)
}

func (f *fakeMessenger) ofKind(k message.Kind) []message.Message {
	var out []message.Message
	for _, m := range f.sent {
		if m.Kind == k {
			out = append(out, m)
		}
	}
	return out
}

// scriptedController reports an action when act is set and keeps what it receives.
type scriptedController struct {
	act      bool
	calls    int
	received []message.Message
}

func (s *scriptedController) Control(float64) bool {
	s.calls++
	return s.act
}

func (s *scriptedController) ReceiveMessage(m message.Message) {
	s.received = append(s.received, m)
}

func newTestEnv() (*Env, *fakeIndex, *fakeMessenger) {
	idx := newFakeIndex()
	msgs := &fakeMessenger{}
	return NewEnv(idx, msgs), idx, msgs
}
