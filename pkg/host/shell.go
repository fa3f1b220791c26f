package host

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/abiosoft/ishell"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell  *ishell.Shell
	Client *Client
}

const (
	shellKey = "$shell"
	prompt   = "freq > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&SendCmd,
		&LastCmd,
		&StatsCmd,
		&ResetCmd,
	}
)

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// NewShell creates a new shell.
func NewShell(client *Client) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Client: client,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(prompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

func (s *Shell) print(c *ishell.Context, v interface{}, text string) {
	if !s.OutputJSON {
		c.Println(text)
		return
	}
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(string(out))
}

// FormatSummary prints Summary into friendly string for display.
func FormatSummary(sum Summary) string {
	if sum.Count == 0 {
		return "No readings"
	}
	return fmt.Sprintf("n=%d mean=%.1fhz stddev=%.2fhz min=%.0fhz max=%.0fhz",
		sum.Count, sum.Mean, sum.StdDev, sum.Min, sum.Max)
}

var (
	// SendCmd sends a command letter.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"s"},
		Help:    "a|b|c|d",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 || len(c.Args[0]) != 1 {
				c.Err(fmt.Errorf("a single command letter expected"))
				return
			}
			if err := ShellFrom(c).Client.Send(c.Args[0][0]); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		},
	}

	// LastCmd prints the last reading.
	LastCmd = ishell.Cmd{
		Name:    "last",
		Aliases: []string{"l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			hz, ok := s.Client.Monitor.Last()
			if !ok {
				c.Println("No readings")
				return
			}
			s.print(c, map[string]uint32{"hz": hz}, fmt.Sprintf("%dhz", hz))
		},
	}

	// StatsCmd prints statistics of recent readings.
	StatsCmd = ishell.Cmd{
		Name:    "stats",
		Aliases: []string{"st"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			sum := s.Client.Monitor.Stats.Summary()
			s.print(c, sum, FormatSummary(sum))
		},
	}

	// ResetCmd drops collected readings.
	ResetCmd = ishell.Cmd{
		Name: "reset",
		Help: "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Client.Monitor.Stats.Reset()
		},
	}
)
