package packet

import (
	"fmt"

	"go.uber.org/zap"
)

// HandlerFunc processes one decoded client packet. The session is passed
// as an opaque interface to avoid an import cycle between this package
// and internal/net.
type HandlerFunc func(sess any, r *Reader)

type handlerEntry struct {
	fn            HandlerFunc
	allowedStates map[int32]bool
}

// Registry maps client opcodes to handlers with state-gated dispatch,
// grounded on internal/net/packet/registry.go in the teacher (same
// opcode->handler map, state allow-list, and panic-recovering dispatch),
// adapted to this package's fixed-frame Reader and opcode set.
type Registry struct {
	handlers map[ClientOp]*handlerEntry
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{handlers: make(map[ClientOp]*handlerEntry), log: log}
}

// Register maps op to fn, restricted to the given session states. States
// are passed as plain int32 (internal/net.SessionState) rather than a
// type from this package, since SessionState's home is the session
// lifecycle, not the wire codec.
func (reg *Registry) Register(op ClientOp, states []int32, fn HandlerFunc) {
	allowed := make(map[int32]bool, len(states))
	for _, s := range states {
		allowed[s] = true
	}
	reg.handlers[op] = &handlerEntry{fn: fn, allowedStates: allowed}
}

// Dispatch decodes the frame's opcode, checks it against state, and calls
// the handler, recovering from any panic inside it (spec.md §7: a
// malformed packet or a handler bug must never crash the tick loop).
func (reg *Registry) Dispatch(sess any, state int32, frame []byte) error {
	r, err := NewReader(frame)
	if err != nil {
		reg.log.Debug("dropping packet", zap.Error(err))
		return nil
	}

	entry, ok := reg.handlers[r.Opcode()]
	if !ok {
		reg.log.Debug("unregistered opcode", zap.Int("opcode", int(r.Opcode())))
		return nil
	}
	if !entry.allowedStates[state] {
		reg.log.Warn("opcode not allowed in this session state",
			zap.Int("opcode", int(r.Opcode())), zap.Int32("state", state))
		return nil
	}
	return reg.safeCall(entry.fn, sess, r)
}

func (reg *Registry) safeCall(fn HandlerFunc, sess any, r *Reader) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reg.log.Error("handler panic recovered",
				zap.Int("opcode", int(r.Opcode())), zap.Any("panic", rec))
			err = fmt.Errorf("handler panic for opcode %d: %v", r.Opcode(), rec)
		}
	}()
	fn(sess, r)
	return nil
}
