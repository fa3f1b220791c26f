package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"log"

	"github.com/robotalks/freqmeter/pkg/host"
	"github.com/robotalks/freqmeter/pkg/uart"
)

func init() {
	uart.SetupFlags()
	host.SetupFlags()
}

func main() {
	flag.Parse()

	conf := uart.Default()
	if conf.Device == "" {
		log.Fatalln("-serial is required")
	}
	port, err := conf.Open()
	if err != nil {
		log.Fatalln(err)
	}
	defer port.Close()

	client := host.NewClient(port)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Monitor.Run(ctx)

	host.NewShell(client).Run(flag.Args()...)
}
