package main

import (
	"flag"
	"time"

	"github.com/surgelove/vibe-trader/internal/exchange"
	"github.com/surgelove/vibe-trader/internal/util"
)

func main() {
	out := flag.String("out", "sample_data.json", "file to write")
	count := flag.Int("n", 60, "number of records")
	symbol := flag.String("symbol", "BTC-USD", "symbol stamped on every record")
	base := flag.Float64("base", 50000, "starting price")
	spacing := flag.Duration("spacing", time.Minute, "time between records")
	flag.Parse()

	log := util.NewConsoleLogger("info", nil)
	n, err := exchange.WriteSampleFile(*out, exchange.SampleSpec{
		Count:     *count,
		Symbol:    *symbol,
		BasePrice: *base,
		Spacing:   *spacing,
	})
	if err != nil {
		log.Fatal().Err(err).Str("path", *out).Msg("write sample")
	}
	log.Info().Int("records", n).Str("path", *out).Msg("sample data written")
}
