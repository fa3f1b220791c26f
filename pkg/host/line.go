package host

import (
	"errors"
	"strconv"
	"strings"

	"github.com/robotalks/freqmeter/pkg/report"
)

// AckPrefix starts the acknowledgement line of a command.
const AckPrefix = "cmd: "

// ErrNotReadingLine indicates the line is not a report line.
var ErrNotReadingLine = errors.New("not a reading line")

// ParseReportLine parses a "Freq: <hz>hz" line. The line terminator is
// optional.
func ParseReportLine(line string) (uint32, error) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, report.DefaultLabel) || !strings.HasSuffix(line, report.DefaultUnit) {
		return 0, ErrNotReadingLine
	}
	digits := line[len(report.DefaultLabel) : len(line)-len(report.DefaultUnit)]
	if digits == "" || (len(digits) > 1 && digits[0] == '0') {
		return 0, ErrNotReadingLine
	}
	hz, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return 0, ErrNotReadingLine
	}
	return uint32(hz), nil
}

// ParseAckLine parses a "cmd: <letter>" line.
func ParseAckLine(line string) (byte, bool) {
	line = strings.TrimRight(line, "\r\n")
	if len(line) != len(AckPrefix)+1 || !strings.HasPrefix(line, AckPrefix) {
		return 0, false
	}
	return line[len(AckPrefix)], true
}
