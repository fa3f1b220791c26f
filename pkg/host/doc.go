// Package host implements the host side of the serial line: it parses
// report lines, keeps statistics of readings and sends commands.
package host
