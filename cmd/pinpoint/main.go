// Command pinpoint estimates a position from three reference points and the
// measured distance to each of them. References are given as coordinates or
// resolved from OpenStreetMap amenity categories in a city. Values missing
// from the command line are asked for on stdin.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	kingpin "gopkg.in/alecthomas/kingpin.v2"

	"github.com/samirrijal/pinpoint/internal/adapters/overpass"
	"github.com/samirrijal/pinpoint/internal/adapters/sqlite"
	"github.com/samirrijal/pinpoint/internal/pkg/logging"
	"github.com/samirrijal/pinpoint/internal/pkg/units"
)

var (
	app = kingpin.New("pinpoint", "Trilaterate a position from three references and distances.")

	logLevel = app.Flag("log-level", "Log level for stderr diagnostics.").
			Default("warn").
			Envar("LOG_LEVEL").
			Enum("debug", "info", "warn", "error")
	historyPath = app.Flag("history", "SQLite file results are recorded in.").
			Envar("PINPOINT_HISTORY").
			String()

	locateCmd   = app.Command("locate", "Trilaterate from explicit reference coordinates.")
	locateRefs  = locateCmd.Flag("ref", "Reference as lat,lon. Repeat three times.").Short('r').Strings()
	locateDists = locateCmd.Flag("distance", "Distance to each reference. Repeat three times.").Short('d').Float64List()
	locateUnit  = locateCmd.Flag("unit", "Distance unit ("+units.ValidUnitsString()+").").Short('u').String()

	amenitiesCmd   = app.Command("amenities", "Trilaterate from three OpenStreetMap amenity categories.")
	amenityCity    = amenitiesCmd.Flag("city", "Area name to search, e.g. Graz.").Short('c').String()
	amenityBBox    = amenitiesCmd.Flag("bbox", "Bounding box min_lat,min_lon,max_lat,max_lon instead of a city.").String()
	amenityNames   = amenitiesCmd.Flag("amenity", "Amenity tag, e.g. bar. Repeat three times.").Short('a').Strings()
	amenityDists   = amenitiesCmd.Flag("distance", "Distance to each amenity. Repeat three times.").Short('d').Float64List()
	amenityUnit    = amenitiesCmd.Flag("unit", "Distance unit ("+units.ValidUnitsString()+").").Short('u').String()
	overpassURL    = amenitiesCmd.Flag("overpass-url", "Overpass interpreter endpoint.").Default(overpass.DefaultURL).Envar("PINPOINT_OVERPASS_URL").String()
	overpassPacing = amenitiesCmd.Flag("overpass-interval", "Minimum spacing between Overpass queries.").Default(overpass.DefaultRateInterval.String()).Duration()

	tagsCmd = app.Command("tags", "List the amenity tags used for suggestions.")

	historyCmd   = app.Command("history", "List recorded results.")
	historyLimit = historyCmd.Flag("limit", "Number of results to show.").Default("20").Int()
)

func main() {
	app.Version("1.0.0")
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	log := logging.New(os.Stderr, *logLevel, "text")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var hist *sqlite.History
	if *historyPath != "" {
		h, err := sqlite.Open(*historyPath)
		if err != nil {
			app.Fatalf("history: %v", err)
		}
		defer h.Close()
		hist = h
	}

	c := newCLI(os.Stdin, os.Stdout, hist, overpass.Config{
		URL:          *overpassURL,
		RateInterval: *overpassPacing,
	})
	c.log = log

	var err error
	switch command {
	case locateCmd.FullCommand():
		err = c.locate(ctx, *locateRefs, *locateDists, *locateUnit)
	case amenitiesCmd.FullCommand():
		err = c.amenities(ctx, *amenityCity, *amenityBBox, *amenityNames, *amenityDists, *amenityUnit)
	case tagsCmd.FullCommand():
		err = c.tags()
	case historyCmd.FullCommand():
		if hist == nil {
			app.Fatalf("history needs --history or PINPOINT_HISTORY")
		}
		err = c.history(ctx, *historyLimit)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
