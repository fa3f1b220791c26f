package uart

import (
	"github.com/golang/glog"
)

// RxBufferSize is the size of the receive line buffer. One byte is
// reserved, so a line holds at most RxBufferSize-1 bytes.
const RxBufferSize = 32

// CommandHandler handles a received line.
type CommandHandler interface {
	HandleCommand(line []byte)
}

// HandleCommandFunc is func form of CommandHandler.
type HandleCommandFunc func(line []byte)

// HandleCommand implements CommandHandler.
func (f HandleCommandFunc) HandleCommand(line []byte) {
	f(line)
}

// Intake assembles received bytes into lines and dispatches each line by
// its first byte. It is not safe for concurrent use; it is meant to be
// fed from the receive interrupt only.
type Intake struct {
	Commands map[byte]CommandHandler

	buf        [RxBufferSize]byte
	n          int
	discarding bool
	overruns   int
}

// NewIntake creates an Intake with the commands.
func NewIntake(cmds map[byte]CommandHandler) *Intake {
	return &Intake{Commands: cmds}
}

// Feed consumes one received byte.
func (in *Intake) Feed(b byte) {
	switch {
	case b == 0:
	case in.discarding:
		if b == '\n' {
			in.discarding = false
		}
	case b == '\n':
		line := in.buf[:in.n]
		in.n = 0
		in.dispatch(line)
	case in.n >= RxBufferSize-1:
		in.n = 0
		in.discarding = true
		in.overruns++
		glog.V(2).Info("receive buffer overrun, dropping line")
	default:
		in.buf[in.n] = b
		in.n++
	}
}

// Buffered returns the bytes of the incomplete line.
func (in *Intake) Buffered() []byte {
	return in.buf[:in.n]
}

// Overruns returns the number of lines dropped for being too long.
func (in *Intake) Overruns() int {
	return in.overruns
}

func (in *Intake) dispatch(line []byte) {
	if len(line) == 0 {
		return
	}
	cmd := in.Commands[line[0]]
	if cmd == nil {
		glog.V(2).Infof("ignored line %q", line)
		return
	}
	cmd.HandleCommand(line)
}

// EchoCommands creates the command table for a, b, c and d which
// acknowledge with "cmd: <letter>" lines.
func EchoCommands(tx *Transmitter) map[byte]CommandHandler {
	cmds := make(map[byte]CommandHandler)
	for _, c := range []byte("abcd") {
		ack := "cmd: " + string(c) + CRLF
		cmds[c] = HandleCommandFunc(func(line []byte) {
			glog.V(2).Infof("command %c", line[0])
			if err := tx.WriteString(ack); err != nil {
				glog.Errorf("command %c ack error: %v", line[0], err)
			}
		})
	}
	return cmds
}
