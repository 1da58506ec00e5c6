package telemetry

import (
	"math/rand"
	"sync"
	"time"
)

const (
	speedStep  = 0.5
	speedMax   = 80.0
	speedReset = 5.0

	batteryStep  = 0.05
	batteryMin   = 20.0
	batteryReset = 100.0

	temperatureStep    = 0.1
	temperatureMin     = 20.0
	temperatureMax     = 70.0
	temperatureInitial = 25.0
)

// Sample is one simulated telemetry reading
type Sample struct {
	Speed       float64
	Battery     float64
	Temperature float64
}

// Generator advances the simulated metrics, one step per Next call
type Generator struct {
	mutex   sync.Mutex
	rnd     *rand.Rand
	current Sample
}

// NewGenerator returns a generator seeded from the clock
func NewGenerator() *Generator {
	return NewGeneratorFromSource(rand.NewSource(time.Now().UnixNano()))
}

// NewGeneratorFromSource returns a generator drawing its temperature walk from src
func NewGeneratorFromSource(src rand.Source) *Generator {
	return &Generator{
		rnd:     rand.New(src),
		current: Sample{Speed: 0, Battery: batteryReset, Temperature: temperatureInitial},
	}
}

// Current returns the last generated sample without advancing
func (g *Generator) Current() Sample {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.current
}

// Next advances every metric by its step and returns the new sample
func (g *Generator) Next() Sample {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	delta := temperatureStep
	if g.rnd.Intn(2) == 0 {
		delta = -delta
	}
	g.current = advance(g.current, delta)
	return g.current
}

// advance applies the wrap and clamp rules to s. tempDelta is the signed temperature step.
func advance(s Sample, tempDelta float64) Sample {
	s.Speed += speedStep
	if s.Speed > speedMax {
		s.Speed = speedReset
	}
	s.Battery -= batteryStep
	if s.Battery < batteryMin {
		s.Battery = batteryReset
	}
	s.Temperature += tempDelta
	if s.Temperature < temperatureMin {
		s.Temperature = temperatureMin
	}
	if s.Temperature > temperatureMax {
		s.Temperature = temperatureMax
	}
	return s
}
