package lex

import (
	"github.com/coregx/lrtoolkit/dfa"
	"github.com/coregx/lrtoolkit/intern"
)

// highWaterMark is the buffered-bytes threshold at which a framed
// size-mode read flushes to OnTknData early instead of holding the
// whole frame in memory.
const highWaterMark = 64 * 1024

// OnTknData is called as a framed size-mode read accumulates bytes:
// once at the HIGHWATERMARK threshold with end=false (flush and keep
// reading), and once when the full frame has been consumed with
// end=true (see SetReadSize).
type OnTknData func(name intern.Name, data []byte, end bool)

// StreamLex is the streaming DFA lexer (C10): it drives a compiled
// dfa.Table byte by byte over a buffer fed incrementally by SetData,
// suspending (a token named intern.Wait) whenever it runs out of
// buffered input mid-scan instead of blocking, and resuming exactly
// where it left off on the next GetToken call once more bytes have
// been appended.
//
// Grounded on original_source/src/stream_lex.rs's StreamLex. The
// reference's set_read_to_code/stop_code path is not carried here at
// all (StreamLex has no stop-code state): stream_lex.rs itself declares
// stop_code but never branches on it inside get_token, so there is no
// real behavior to port.
type StreamLex struct {
	table *dfa.Table

	buffer []byte
	bufPos int

	preread      bool
	prereadCodes []byte

	onTknData OnTknData

	// Suspended single-token scan state, valid across GetToken calls.
	state    dfa.StateID
	tknName  intern.Name
	tknValue []byte
	action   dfa.Action
	isPass   bool

	// Framed size-mode read state (set by SetReadSize). size < 0 means
	// "not in size mode" and routes GetToken through the normal
	// byte-wise DFA scan instead.
	pushTknName intern.Name
	pushBuf     []byte
	size        int
}

// NewStreamLex returns a StreamLex driving table, ready to scan from
// state 0. onTknData may be nil if the caller never uses framed reads.
func NewStreamLex(table *dfa.Table, onTknData OnTknData) *StreamLex {
	return &StreamLex{table: table, onTknData: onTknData, size: -1}
}

// Init resets all suspended scan state, as if freshly constructed
// (mirrors LexBase::init). The residual buffer and its read position
// are left untouched.
func (s *StreamLex) Init() {
	s.preread = false
	s.prereadCodes = s.prereadCodes[:0]
	s.state = 0
	s.tknName = intern.NoName
	s.tknValue = nil
	s.action = nil
	s.isPass = false
	s.pushTknName = intern.NoName
	s.pushBuf = nil
	s.size = -1
}

// SetTable replaces the compiled DFA driven by GetToken.
func (s *StreamLex) SetTable(t *dfa.Table) { s.table = t }

// SetOnTknData replaces the framed-read flush callback.
func (s *StreamLex) SetOnTknData(f OnTknData) { s.onTknData = f }

// SetData appends data to the residual input buffer (bytes carried
// over from a prior suspended GetToken call plus anything not yet
// consumed).
func (s *StreamLex) SetData(data []byte) {
	if s.bufPos > 0 {
		s.buffer = append([]byte(nil), s.buffer[s.bufPos:]...)
		s.bufPos = 0
	}
	s.buffer = append(s.buffer, data...)
}

// HasData reports whether the residual buffer still holds unconsumed
// bytes.
func (s *StreamLex) HasData() bool {
	return s.bufPos < len(s.buffer)
}

// Data returns the residual, not-yet-consumed bytes of the input
// buffer (mirrors stream_lex.rs's data(), used by the executor façade
// to decide whether an accepted top-level parse should immediately
// restart on what's left over).
func (s *StreamLex) Data() []byte {
	return append([]byte(nil), s.buffer[s.bufPos:]...)
}

// SetReadSize switches the lexer into framed size-mode: the next
// `size` bytes of input are read verbatim (bypassing
// the DFA entirely) and delivered through OnTknData: with end=false
// whenever the bytes held for an unfinished frame exceed the high-water
// mark, and with end=true once the frame is complete. GetToken then
// returns a token named name that carries no bytes; with a nil
// OnTknData the frame's bytes are not delivered anywhere. Implements
// parser.SizedLexer, driven by a
// production's ReduceCtx.PushAfter(name, NextParams{Size: n}).
func (s *StreamLex) SetReadSize(name intern.Name, size int) {
	s.pushTknName = name
	s.size = size
	s.preread = false
	s.state = 0
	s.isPass = false
	s.tknName = intern.NoName
	s.tknValue = nil
}

// GetToken returns the next token, or a token named intern.Wait if the
// residual buffer is exhausted before a token could be completed —
// the caller should SetData more bytes and call GetToken again to
// resume exactly where scanning left off. When the DFA rejects a byte
// with no accepting state recorded (no rule matches at the current
// position), GetToken returns ErrNoMatch and the parse must abort;
// running out of input is never an error, only a wait.
func (s *StreamLex) GetToken() (*Token, error) {
	if s.size >= 0 {
		return s.getFramedToken(), nil
	}
	return s.getDFAToken()
}

// getFramedToken implements the framed size-mode read: drain any
// already-prefetched preread bytes first (in the same LIFO order
// GetToken's own preread stack is always drained, per stream_lex.rs),
// then consume straight from the buffer, invoking onTknData at the
// high-water mark and at frame completion.
func (s *StreamLex) getFramedToken() *Token {
	sizeToEnd := s.size
	buf := s.pushBuf

	for len(s.prereadCodes) > 0 && sizeToEnd > 0 {
		n := len(s.prereadCodes) - 1
		buf = append(buf, s.prereadCodes[n])
		s.prereadCodes = s.prereadCodes[:n]
		sizeToEnd--
	}

	for {
		if s.bufPos >= len(s.buffer) {
			s.pushBuf = buf
			s.size = sizeToEnd
			return &Token{Name: intern.Wait}
		}

		avail := len(s.buffer) - s.bufPos
		if sizeToEnd > avail {
			buf = append(buf, s.buffer[s.bufPos:]...)
			sizeToEnd -= avail
			s.buffer = nil
			s.bufPos = 0
		} else {
			newPos := s.bufPos + sizeToEnd
			buf = append(buf, s.buffer[s.bufPos:newPos]...)
			if newPos < len(s.buffer) {
				s.bufPos = newPos
			} else {
				s.buffer = nil
				s.bufPos = 0
			}
			if s.onTknData != nil {
				s.onTknData(s.pushTknName, buf, true)
			}
			name := s.pushTknName
			s.size = -1
			s.pushBuf = nil
			return &Token{Name: name}
		}

		if len(buf) > highWaterMark {
			if s.onTknData != nil {
				s.onTknData(s.pushTknName, buf, false)
			}
			buf = buf[:0]
		}
	}
}

// getDFAToken implements the byte-wise DFA scan (stream_lex.rs's main
// get_token loop): longest-match accept tracking via preread, one
// suspend point when the buffer runs dry mid-scan, and the "pass"
// loop for discarded tokens (e.g. whitespace) which restarts the scan
// without returning to the caller. A byte the DFA rejects with no
// accept recorded is ErrNoMatch (the reference's error flag, which its
// parser likewise treats as fatal).
func (s *StreamLex) getDFAToken() (*Token, error) {
	isPass := s.isPass
	state := s.state
	tknName := s.tknName
	savedValue := s.tknValue
	action := s.action

	var tkn *Token

	for {
		if len(s.prereadCodes) == 0 && !s.HasData() {
			s.isPass, s.state, s.tknName, s.tknValue, s.action = isPass, state, tknName, savedValue, action
			return &Token{Name: intern.Wait}, nil
		}

		code, hasCode := s.getCode()
		value := append([]byte(nil), savedValue...)
		if state == 0 {
			if hasCode {
				value = append(value, code)
			}
		} else {
			s.preread = true
			s.prereadCodes = append(s.prereadCodes, code)
		}

		for hasCode {
			next, ok := s.table.Step(state, code)
			if !ok {
				break
			}
			state = next
			if st, accOK := s.table.State(state); accOK {
				tknName = st.Accept
				action = st.Action
			}
			gotoNextExists := s.table.HasTransitions(state)
			if tknName != intern.NoName {
				if s.preread && len(s.prereadCodes) > 0 {
					value = append(value, s.prereadCodes...)
					s.prereadCodes = s.prereadCodes[:0]
				}
				if gotoNextExists {
					s.preread = true
				} else {
					break
				}
			}

			code, hasCode = s.getCode()
			if hasCode {
				if s.preread {
					s.prereadCodes = append(s.prereadCodes, code)
				} else {
					value = append(value, code)
				}
			}
		}

		if !hasCode {
			s.isPass, s.state, s.tknName, s.tknValue, s.action = isPass, state, tknName, value, action
			return &Token{Name: intern.Wait}, nil
		}

		if tknName == intern.NoName {
			s.state = 0
			s.tknValue = nil
			return nil, ErrNoMatch
		}

		name, val := tknName, value
		if action != nil {
			ctx := &streamCtx{value: val, name: name}
			action(ctx)
			val, name = ctx.value, ctx.name
			if ctx.pass {
				isPass = true
			}
		}
		tkn = &Token{Name: name, Bytes: val}

		if !isPass {
			break
		}
		state = 0
		isPass = false
		tknName = intern.NoName
	}

	s.state = 0
	s.tknName = intern.NoName
	return tkn, nil
}

// getCode returns the next input byte, preferring any already-prefetched
// preread byte (popped, LIFO, exactly mirroring stream_lex.rs's
// Vec::pop()-based preread_codes stack) over the residual buffer.
func (s *StreamLex) getCode() (byte, bool) {
	if n := len(s.prereadCodes); n > 0 {
		c := s.prereadCodes[n-1]
		s.prereadCodes = s.prereadCodes[:n-1]
		return c, true
	}
	if s.bufPos >= len(s.buffer) {
		return 0, false
	}
	c := s.buffer[s.bufPos]
	s.bufPos++
	if s.bufPos >= len(s.buffer) {
		s.buffer = nil
		s.bufPos = 0
	}
	return c, true
}

// streamCtx is the concrete dfa.Ctx a matched state's Action runs
// against during one getDFAToken call.
type streamCtx struct {
	value []byte
	name  intern.Name
	pass  bool
}

func (c *streamCtx) Get() []byte                      { return c.value }
func (c *streamCtx) Set(v []byte)                     { c.value = v }
func (c *streamCtx) SetName(name string)              { c.name = intern.Hash(name) }
func (c *streamCtx) SetNameFromHash(name intern.Name) { c.name = name }
func (c *streamCtx) Pass()                            { c.pass = true }
