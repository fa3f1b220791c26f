// Package report periodically reads the latest frequency and fans it out
// to sinks: the serial line, MQTT and websocket clients.
package report
