package uart

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordPort struct {
	lock    sync.Mutex
	out     bytes.Buffer
	ops     []string
	failAt  int // fails the write of byte failAt when positive
}

func (p *recordPort) Write(b []byte) (int, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.failAt > 0 && p.out.Len()+1 == p.failAt {
		return 0, errors.New("write failure")
	}
	p.ops = append(p.ops, fmt.Sprintf("w%d", len(b)))
	return p.out.Write(b)
}

func (p *recordPort) Drain() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.ops = append(p.ops, "d")
	return nil
}

func (p *recordPort) String() string {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.out.String()
}

func TestTransmitterWriteLine(t *testing.T) {
	port := &recordPort{}
	tx := NewTransmitter(port)
	require.NoError(t, tx.WriteLine("Freq: ", 3571, "hz"))
	require.Equal(t, "Freq: 3571hz\r\n", port.String())

	// every byte is drained before the next is written
	require.Len(t, port.ops, 2*len("Freq: 3571hz\r\n"))
	for i, op := range port.ops {
		if i%2 == 0 {
			require.Equal(t, "w1", op)
		} else {
			require.Equal(t, "d", op)
		}
	}
}

func TestTransmitterZero(t *testing.T) {
	var buf bytes.Buffer
	tx := NewTransmitter(WriterPort(&buf))
	require.NoError(t, tx.WriteLine("Freq: ", 0, "hz"))
	require.Equal(t, "Freq: 0hz\r\n", buf.String())
}

func TestTransmitterWriteError(t *testing.T) {
	port := &recordPort{failAt: 3}
	tx := NewTransmitter(port)
	n, err := tx.Write([]byte("abcdef"))
	require.Error(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, "ab", port.String())
}

func TestTransmitterLinesNeverInterleave(t *testing.T) {
	port := &recordPort{}
	tx := NewTransmitter(port)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for n := 0; n < 20; n++ {
				var err error
				if i%2 == 0 {
					err = tx.WriteLine("Freq: ", uint32(i*1000+n), "hz")
				} else {
					err = tx.WriteString("cmd: a" + CRLF)
				}
				if err != nil {
					t.Error(err)
				}
			}
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(port.String(), CRLF), CRLF)
	require.Len(t, lines, 160)
	for _, line := range lines {
		if line == "cmd: a" {
			continue
		}
		require.True(t, strings.HasPrefix(line, "Freq: "), line)
		require.True(t, strings.HasSuffix(line, "hz"), line)
	}
}
