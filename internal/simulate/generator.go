package simulate

import (
	"math/rand"
	"sync"
	"time"

	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/domain"
)

// Default bounds for the measurement that is not the device's primary one,
// and the fixed probability that a door device reports open.
const (
	defaultMinHumidity = 30.0
	defaultMaxHumidity = 80.0
	defaultMinTemp     = 15.0
	defaultMaxTemp     = 30.0

	doorOpenProbability = 0.30

	batteryMinVolts = 3.0
	batteryMaxVolts = 3.6
)

// Generator draws synthetic sensor readings. The random source is injectable
// so tests can fix a seed; a nil source seeds from the clock. Draws are
// serialized because math/rand sources are not safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewGenerator(src rand.Source) *Generator {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Generator{rng: rand.New(src)}
}

func (g *Generator) uniform(min, max float64) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return min + g.rng.Float64()*(max-min)
}

func (g *Generator) chance(p float64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64() < p
}

func (g *Generator) intn(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Intn(n)
}

// Generate produces one reading within the device's configured bounds. The
// primary measurement (temperature for temperature/door devices, humidity for
// humidity devices) uses MinValue/MaxValue; the secondary one uses the
// optional humidity bounds or the package defaults.
func (g *Generator) Generate(deviceType domain.DeviceType, p domain.SimulationParams) domain.SensorReading {
	reading := domain.SensorReading{Timestamp: time.Now().UTC()}

	switch deviceType {
	case domain.DeviceTypeHumidity:
		h := g.uniform(p.MinValue, p.MaxValue)
		t := g.uniform(defaultMinTemp, defaultMaxTemp)
		reading.Humidity = &h
		reading.Temperature = &t
	default: // temperature and door devices are temperature-primary
		t := g.uniform(p.MinValue, p.MaxValue)
		minH, maxH := defaultMinHumidity, defaultMaxHumidity
		if p.MinHumidity != nil {
			minH = *p.MinHumidity
		}
		if p.MaxHumidity != nil {
			maxH = *p.MaxHumidity
		}
		h := g.uniform(minH, maxH)
		reading.Temperature = &t
		reading.Humidity = &h
	}

	if deviceType == domain.DeviceTypeDoor {
		open := g.chance(doorOpenProbability)
		reading.DoorOpen = &open
	}

	battery := g.uniform(batteryMinVolts, batteryMaxVolts)
	reading.Battery = &battery

	return reading
}
