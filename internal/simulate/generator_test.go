package simulate

import (
	"math/rand"
	"testing"

	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/domain"
)

func TestGenerateTemperatureBounds(t *testing.T) {
	g := NewGenerator(rand.NewSource(1))
	params := domain.SimulationParams{MinValue: 35, MaxValue: 45}

	for i := 0; i < 10000; i++ {
		r := g.Generate(domain.DeviceTypeTemperature, params)
		if r.Temperature == nil || *r.Temperature < 35 || *r.Temperature > 45 {
			t.Fatalf("trial %d: temperature %v out of [35,45]", i, r.Temperature)
		}
		if r.Battery == nil || *r.Battery < 3.0 || *r.Battery > 3.6 {
			t.Fatalf("trial %d: battery %v out of [3.0,3.6]", i, r.Battery)
		}
		if r.Humidity == nil || *r.Humidity < 30 || *r.Humidity > 80 {
			t.Fatalf("trial %d: secondary humidity %v out of defaults", i, r.Humidity)
		}
		if r.DoorOpen != nil {
			t.Fatalf("trial %d: temperature device produced door state", i)
		}
	}
}

func TestGenerateHumidityPrimary(t *testing.T) {
	g := NewGenerator(rand.NewSource(2))
	params := domain.SimulationParams{MinValue: 55, MaxValue: 65}

	for i := 0; i < 1000; i++ {
		r := g.Generate(domain.DeviceTypeHumidity, params)
		if r.Humidity == nil || *r.Humidity < 55 || *r.Humidity > 65 {
			t.Fatalf("humidity %v out of configured [55,65]", r.Humidity)
		}
		if r.Temperature == nil || *r.Temperature < 15 || *r.Temperature > 30 {
			t.Fatalf("secondary temperature %v out of defaults", r.Temperature)
		}
	}
}

func TestGenerateDoorBernoulli(t *testing.T) {
	g := NewGenerator(rand.NewSource(3))
	params := domain.SimulationParams{MinValue: 18, MaxValue: 24}

	open := 0
	const trials = 10000
	for i := 0; i < trials; i++ {
		r := g.Generate(domain.DeviceTypeDoor, params)
		if r.DoorOpen == nil {
			t.Fatal("door device must report door state")
		}
		if *r.DoorOpen {
			open++
		}
	}
	// 30% open probability, generous tolerance for a fixed seed.
	ratio := float64(open) / trials
	if ratio < 0.25 || ratio > 0.35 {
		t.Fatalf("door open ratio %.3f outside [0.25,0.35]", ratio)
	}
}

func TestGenerateHumidityOverrides(t *testing.T) {
	g := NewGenerator(rand.NewSource(4))
	minH, maxH := 10.0, 20.0
	params := domain.SimulationParams{MinValue: 0, MaxValue: 5, MinHumidity: &minH, MaxHumidity: &maxH}

	for i := 0; i < 1000; i++ {
		r := g.Generate(domain.DeviceTypeTemperature, params)
		if *r.Humidity < 10 || *r.Humidity > 20 {
			t.Fatalf("humidity %v out of override [10,20]", *r.Humidity)
		}
	}
}

func TestGenerateDeterministicWithSeed(t *testing.T) {
	params := domain.SimulationParams{MinValue: 35, MaxValue: 45}
	a := NewGenerator(rand.NewSource(42)).Generate(domain.DeviceTypeTemperature, params)
	b := NewGenerator(rand.NewSource(42)).Generate(domain.DeviceTypeTemperature, params)
	if *a.Temperature != *b.Temperature || *a.Humidity != *b.Humidity || *a.Battery != *b.Battery {
		t.Fatalf("same seed produced different readings: %+v vs %+v", a, b)
	}
}

func TestRadioRanges(t *testing.T) {
	g := NewGenerator(rand.NewSource(5))
	for i := 0; i < 1000; i++ {
		r := g.Radio()
		if r.RSSI < -90 || r.RSSI > -60 {
			t.Fatalf("rssi %d out of [-90,-60]", r.RSSI)
		}
		if r.SNR < 5 || r.SNR > 15 {
			t.Fatalf("snr %v out of [5,15]", r.SNR)
		}
		if r.SpreadingFactor < 7 || r.SpreadingFactor > 12 {
			t.Fatalf("sf %d out of [7,12]", r.SpreadingFactor)
		}
		switch r.FrequencyHz {
		case 868100000, 868300000, 868500000:
		default:
			t.Fatalf("unexpected frequency %d", r.FrequencyHz)
		}
	}
}
