// Package source provides a pull-based, peekable rune stream over text.
//
// Runes fetched by Peek are held in a lookahead queue and handed out by Next
// in order, so peeking never changes what Next returns. The line count
// advances once per '\n' returned by Next.
package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// EOF is returned by Next and Peek once the stream is exhausted.
const EOF rune = -1

const bom = '\uFEFF'

// Source is what the token state machine reads from.
type Source interface {
	Next() rune
	Peek(n int) rune
	End() bool
	LineCount() int
	Close() error
}

var _ Source = (*Reader)(nil)

// Reader is a Source over any io.Reader.
type Reader struct {
	name    string
	rd      *bufio.Reader
	closer  io.Closer
	queue   runeQueue
	line    int
	drained bool
	started bool
	err     error
}

// Open opens the file at path. A failure is reported as an error and leaves
// nothing open.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	r := NewReader(f)
	r.name = path
	r.closer = f
	return r, nil
}

// NewReader reads from rd. If rd is an io.Closer it is not closed by Close;
// the caller keeps ownership.
func NewReader(rd io.Reader) *Reader {
	return &Reader{rd: bufio.NewReader(rd), line: 1}
}

func NewString(s string) *Reader {
	return NewReader(strings.NewReader(s))
}

// Name is the path given to Open, or "" for other streams.
func (r *Reader) Name() string { return r.name }

func (r *Reader) LineCount() int { return r.line }

// Err returns the first read error other than io.EOF.
func (r *Reader) Err() error { return r.err }

// fill reads one more rune into the queue. It reports false at end of input.
func (r *Reader) fill() bool {
	if r.drained {
		return false
	}
	for {
		ch, _, err := r.rd.ReadRune()
		if err != nil {
			r.drained = true
			if !errors.Is(err, io.EOF) {
				r.err = err
			}
			return false
		}
		first := !r.started
		r.started = true
		if first && ch == bom {
			continue
		}
		r.queue.push(ch)
		return true
	}
}

// Peek returns the rune n positions ahead of the next one without consuming
// anything. Peek(0) is the rune Next would return.
func (r *Reader) Peek(n int) rune {
	if n < 0 {
		panic(fmt.Sprintf("source: negative peek %d", n))
	}
	for r.queue.len() <= n {
		if !r.fill() {
			return EOF
		}
	}
	return r.queue.at(n)
}

func (r *Reader) Next() rune {
	if r.queue.len() == 0 && !r.fill() {
		return EOF
	}
	ch := r.queue.pop()
	if ch == '\n' {
		r.line++
	}
	return ch
}

func (r *Reader) End() bool { return r.Peek(0) == EOF }

// Close releases the file opened by Open. Calling it again is a no-op.
func (r *Reader) Close() error {
	r.drained = true
	r.queue.reset()
	if r.closer == nil {
		return nil
	}
	c := r.closer
	r.closer = nil
	return c.Close()
}

// runeQueue is a growable ring buffer.
type runeQueue struct {
	buf  []rune
	head int
	n    int
}

func (q *runeQueue) len() int { return q.n }

func (q *runeQueue) at(i int) rune { return q.buf[(q.head+i)%len(q.buf)] }

func (q *runeQueue) push(ch rune) {
	if q.n == len(q.buf) {
		q.grow()
	}
	q.buf[(q.head+q.n)%len(q.buf)] = ch
	q.n++
}

func (q *runeQueue) pop() rune {
	ch := q.buf[q.head]
	q.head = (q.head + 1) % len(q.buf)
	q.n--
	return ch
}

func (q *runeQueue) grow() {
	size := 2 * len(q.buf)
	if size == 0 {
		size = 8
	}
	buf := make([]rune, size)
	for i := 0; i < q.n; i++ {
		buf[i] = q.at(i)
	}
	q.buf, q.head = buf, 0
}

func (q *runeQueue) reset() { q.head, q.n = 0, 0 }
