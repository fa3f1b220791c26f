// Package uart provides the serial transport of the meter.
package uart

// Output is line oriented ASCII: every line is written byte by byte and
// each byte waits for the port to finish transmitting before the next.
// Input is latched one byte at a time by a Receiver which raises the
// receive interrupt; the interrupt feeds the bytes to an Intake which
// assembles lines and dispatches them to commands by their first byte.
