package simulate

// RadioOptions is the synthesized radio metadata attached to a simulated
// uplink. Defaults stay within ranges a real EU868 gateway would report.
type RadioOptions struct {
	RSSI            int     `json:"rssi"`
	SNR             float64 `json:"snr"`
	SpreadingFactor int     `json:"spreadingFactor"`
	FrequencyHz     uint64  `json:"frequencyHz"`
}

const (
	minRSSI = -90
	maxRSSI = -60
	minSNR  = 5.0
	maxSNR  = 15.0
)

// EU868 default uplink channels.
var uplinkFrequenciesHz = []uint64{868100000, 868300000, 868500000}

// Radio draws randomized radio metadata within realistic ranges.
func (g *Generator) Radio() RadioOptions {
	return RadioOptions{
		RSSI:            minRSSI + g.intn(maxRSSI-minRSSI+1),
		SNR:             g.uniform(minSNR, maxSNR),
		SpreadingFactor: 7 + g.intn(6), // SF7..SF12
		FrequencyHz:     uplinkFrequenciesHz[g.intn(len(uplinkFrequenciesHz))],
	}
}
