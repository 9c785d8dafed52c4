package exchange

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/surgelove/vibe-trader/internal/signal"
)

// SampleSpec shapes a generated replay file.
type SampleSpec struct {
	Count     int
	Symbol    string
	BasePrice float64
	Start     time.Time
	Spacing   time.Duration
	Rand      *rand.Rand
}

func (s SampleSpec) withDefaults() SampleSpec {
	if s.Count <= 0 {
		s.Count = 60
	}
	if s.Symbol == "" {
		s.Symbol = "BTC-USD"
	}
	if s.BasePrice <= 0 {
		s.BasePrice = 50000
	}
	if s.Spacing <= 0 {
		s.Spacing = time.Minute
	}
	if s.Start.IsZero() {
		s.Start = time.Now().Add(-time.Duration(s.Count) * s.Spacing)
	}
	if s.Rand == nil {
		s.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s
}

// WriteSample emits spec.Count JSON lines following the same walk as the synthetic source.
func WriteSample(w io.Writer, spec SampleSpec) (int, error) {
	spec = spec.withDefaults()
	buf := bufio.NewWriter(w)
	price := spec.BasePrice
	for i := 0; i < spec.Count; i++ {
		price = Step(price, spec.Rand.Float64())
		obs := signal.Observation{
			Time:   spec.Start.Add(time.Duration(i) * spec.Spacing),
			Price:  RoundCents(price),
			Symbol: spec.Symbol,
		}
		line, err := json.Marshal(obs)
		if err != nil {
			return i, err
		}
		if i > 0 {
			if err := buf.WriteByte('\n'); err != nil {
				return i, err
			}
		}
		if _, err := buf.Write(line); err != nil {
			return i, err
		}
	}
	return spec.Count, buf.Flush()
}

// WriteSampleFile creates (or truncates) path with a generated sample.
func WriteSampleFile(path string, spec SampleSpec) (int, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create sample: %w", err)
	}
	n, err := WriteSample(file, spec)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	return n, err
}
