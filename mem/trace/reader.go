// Package trace reads the lists of logical addresses that drive a run.
package trace

import (
	"bufio"
	"errors"
	"io"
	"math"

	"github.com/sarchlab/vmmgr/mem/vm"
)

// A Reader parses whitespace-separated decimal integers. Each integer is
// truncated to 32 bits and masked to a logical address.
//
// Like scanf("%d"), reading stops for good at the first place where no
// integer can be parsed. A token such as "12ab" yields 12 and then stops.
type Reader struct {
	r       *bufio.Reader
	err     error
	stopped string
	done    bool
}

// NewReader creates a Reader on r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next returns the next address. It returns false at the end of the input,
// at the first malformed token, or on an I/O error.
func (r *Reader) Next() (vm.LogicalAddress, bool) {
	if r.done {
		return 0, false
	}

	value, ok := r.scanInt()
	if !ok {
		r.done = true
		return 0, false
	}

	return vm.MaskAddress(int32(value)), true
}

// Err returns the I/O error that ended reading, if any.
func (r *Reader) Err() error {
	return r.err
}

// Stopped returns the malformed token that ended reading, or "" if reading
// ended at the end of the input.
func (r *Reader) Stopped() string {
	return r.stopped
}

func (r *Reader) scanInt() (int64, bool) {
	if !r.skipSpace() {
		return 0, false
	}

	var sign rune
	c, ok := r.peek()
	if ok && (c == '+' || c == '-') {
		sign = c
		r.advance()
	}

	var magnitude uint64
	numDigits := 0
	overflow := false

	for {
		c, ok = r.peek()
		if !ok || c < '0' || c > '9' {
			break
		}

		r.advance()
		numDigits++

		d := uint64(c - '0')
		if magnitude > (math.MaxUint64-d)/10 {
			overflow = true
			continue
		}
		magnitude = magnitude*10 + d
	}

	if numDigits == 0 {
		r.recordStop(sign, ok)
		return 0, false
	}

	return saturate(magnitude, sign == '-', overflow), true
}

// saturate clamps to the int64 range the way strtol does.
func saturate(magnitude uint64, negative, overflow bool) int64 {
	if negative {
		if overflow || magnitude > uint64(math.MaxInt64)+1 {
			return math.MinInt64
		}

		return -int64(magnitude)
	}

	if overflow || magnitude > math.MaxInt64 {
		return math.MaxInt64
	}

	return int64(magnitude)
}

func (r *Reader) recordStop(sign rune, hasMore bool) {
	token := []rune{}
	if sign != 0 {
		token = append(token, sign)
	}

	for hasMore {
		c, ok := r.peek()
		if !ok || isSpace(c) {
			break
		}

		token = append(token, c)
		r.advance()
	}

	r.stopped = string(token)
}

func (r *Reader) skipSpace() bool {
	for {
		c, ok := r.peek()
		if !ok {
			return false
		}

		if !isSpace(c) {
			return true
		}

		r.advance()
	}
}

// isSpace reports whether c is ASCII white space.
func isSpace(c rune) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}

	return false
}

func (r *Reader) peek() (rune, bool) {
	if r.err != nil {
		return 0, false
	}

	c, _, err := r.r.ReadRune()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			r.err = err
		}

		return 0, false
	}

	if err := r.r.UnreadRune(); err != nil {
		r.err = err
		return 0, false
	}

	return c, true
}

func (r *Reader) advance() {
	if _, _, err := r.r.ReadRune(); err != nil && !errors.Is(err, io.EOF) {
		r.err = err
	}
}

// ReadAll reads every address of the input. It returns the malformed token
// that stopped reading, if any.
func ReadAll(r io.Reader) (addrs []vm.LogicalAddress, stopped string, err error) {
	reader := NewReader(r)

	for {
		addr, ok := reader.Next()
		if !ok {
			break
		}

		addrs = append(addrs, addr)
	}

	return addrs, reader.Stopped(), reader.Err()
}
