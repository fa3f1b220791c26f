package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"log"

	"github.com/robotalks/freqmeter/pkg/device"
	fx "github.com/robotalks/freqmeter/pkg/framework"
)

func init() {
	device.SetupFlags()
}

func main() {
	flag.Parse()

	d, err := device.Default().NewDevice()
	if err != nil {
		log.Fatalln(err)
	}
	err = fx.NewRunner(context.Background()).
		HandleSignals().
		Go(d).
		Wait()
	if err != nil {
		log.Fatalln(err)
	}
}
