// Command calibrate measures the round-trip behavior of a simulated
// point-to-point link by bouncing frames between a pinger and an
// echoer and summarizing the observed simulated RTTs. Because the
// clock is simulated, the run completes immediately regardless of the
// configured delay.
package main

import (
	"flag"
	"time"

	"github.com/apex/log"
	"github.com/bassosimone/simnet"
	"github.com/montanaflynn/stats"
)

// pinger sends a frame when its send timer fires and measures how long
// the echoed reply takes to come back in simulated time.
type pinger struct {
	// interval is the pause between a reply and the next ping.
	interval time.Duration

	// rounds is the number of pings still to send.
	rounds int

	// rtts collects the simulated RTT samples in milliseconds.
	rtts []float64

	// sentAt is the simulated time of the last ping.
	sentAt time.Time
}

// sendTimer is the only timer the pinger uses.
const sendTimer = "send"

// FireTimer implements simnet.Handler
func (p *pinger) FireTimer(disp *simnet.Dispatcher[string], id string) {
	p.sentAt = disp.CurrentTime()
	p.rounds--
	disp.SendFrame(simnet.PPPDevice, []byte("ping"))
}

// DeliverFrame implements simnet.Handler
func (p *pinger) DeliverFrame(disp *simnet.Dispatcher[string], device simnet.DeviceID, payload []byte) {
	rtt := disp.CurrentTime().Sub(p.sentAt)
	p.rtts = append(p.rtts, float64(rtt)/float64(time.Millisecond))
	if p.rounds > 0 {
		disp.ScheduleTimeout(p.interval, sendTimer)
	}
}

// echoer bounces every frame back on the device it arrived on.
type echoer struct{}

// FireTimer implements simnet.Handler
func (e *echoer) FireTimer(disp *simnet.Dispatcher[string], id string) {
	// nothing
}

// DeliverFrame implements simnet.Handler
func (e *echoer) DeliverFrame(disp *simnet.Dispatcher[string], device simnet.DeviceID, payload []byte) {
	disp.SendFrame(device, payload)
}

func main() {
	// parse command line flags
	rtt := flag.Duration("rtt", 100*time.Millisecond, "RTT delay")
	interval := flag.Duration("interval", time.Second, "pause between pings")
	rounds := flag.Int("rounds", 100, "number of pings to send")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	// create the point-to-point network
	ping := &pinger{
		interval: *interval,
		rounds:   *rounds,
		rtts:     []float64{},
		sentAt:   time.Time{},
	}
	vn := simnet.NewPPPNetwork[string](&simnet.PPPConfig[string]{
		Capture:       nil,
		ClientHandler: ping,
		Logger:        log.Log,
		OneWayDelay:   *rtt / 2,
		ServerHandler: &echoer{},
	})

	// inject the first ping and run the whole exchange
	vn.Host(simnet.PPPClient).Dispatcher().ScheduleTimeout(0, sendTimer)
	if err := vn.RunUntilIdle(); err != nil {
		log.WithError(err).Fatal("simnet.RunUntilIdle")
	}

	// summarize the observed simulated RTTs
	median, err := stats.Median(ping.rtts)
	if err != nil {
		log.WithError(err).Fatal("stats.Median")
	}
	p95, err := stats.Percentile(ping.rtts, 95)
	if err != nil {
		log.WithError(err).Fatal("stats.Percentile")
	}
	max, err := stats.Max(ping.rtts)
	if err != nil {
		log.WithError(err).Fatal("stats.Max")
	}
	log.Infof("samples: %d", len(ping.rtts))
	log.Infof("median: %f ms", median)
	log.Infof("p95: %f ms", p95)
	log.Infof("max: %f ms", max)
}
