package main

import (
	"flag"
	"log"
	"os"
	"sync"

	"github.com/robotalks/freqmeter/pkg/host"
	"github.com/robotalks/freqmeter/pkg/report/mqtt"
	"github.com/robotalks/freqmeter/pkg/report/msgs"
)

var (
	mqttURL = "mqtt://localhost:1883/freq/"
	meterID string
)

func init() {
	if val := os.Getenv("FREQ_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&meterID, "meter-id", meterID, "Only monitor this meter.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}

	var lock sync.Mutex
	stats := make(map[string]*host.Stats)
	mqtt.SubscribeMeta(q, func(id string, meta *msgs.Meta) {
		if meterID != "" && id != meterID {
			return
		}
		if meta == nil {
			log.Printf("%s: gone", id)
			return
		}
		log.Printf("%s: arity=%d rate=%d every=%d mode=%s",
			id, meta.EdgeArity, meta.ReferenceRate, meta.ReportEvery, meta.Mode)
	})
	mqtt.SubscribeReadings(q, meterID, func(id string, r *msgs.Reading) {
		lock.Lock()
		s := stats[id]
		if s == nil {
			s = host.NewStats()
			stats[id] = s
		}
		lock.Unlock()
		s.Add(r.Hz)
		log.Printf("%s: %dhz cycle=%d windows=%d [%s]", id, r.Hz, r.Cycle, r.Windows, host.FormatSummary(s.Summary()))
	})

	token := q.Connect()
	if token.Wait(); token.Error() != nil {
		log.Fatalln(token.Error())
	}
	<-(chan struct{})(nil)
}
