package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/samirrijal/pinpoint/internal/adapters/memcache"
	"github.com/samirrijal/pinpoint/internal/adapters/overpass"
	"github.com/samirrijal/pinpoint/internal/adapters/sqlite"
	"github.com/samirrijal/pinpoint/internal/core/domain"
	"github.com/samirrijal/pinpoint/internal/core/ports"
	"github.com/samirrijal/pinpoint/internal/core/usecases"
	"github.com/samirrijal/pinpoint/internal/pkg/units"
)

// cliCacheSize holds references for one invocation; a session rarely
// resolves more than a handful.
const cliCacheSize = 64

type cli struct {
	prompt  *prompter
	out     io.Writer
	log     *slog.Logger
	hist    *sqlite.History
	catalog *overpass.Catalog
	locator *usecases.LocateService
}

func newCLI(in io.Reader, out io.Writer, hist *sqlite.History, ocfg overpass.Config) *cli {
	var repo ports.LocationRepository
	if hist != nil {
		repo = hist
	}
	cache, _ := memcache.New(cliCacheSize)
	catalog := overpass.NewCatalog()

	return &cli{
		prompt:  newPrompter(in, out),
		out:     out,
		log:     slog.Default(),
		hist:    hist,
		catalog: catalog,
		locator: usecases.NewLocateService(repo, overpass.New(ocfg), cache, nil).
			WithCatalog(catalog),
	}
}

func (c *cli) locate(ctx context.Context, refs []string, dists []float64, unit string) error {
	var req usecases.LocateRequest
	raw, err := c.prompt.fillStrings(refs, "Reference %d (lat,lon): ")
	if err != nil {
		return err
	}
	for k, r := range raw {
		if req.References[k], err = parseRef(r); err != nil {
			return fmt.Errorf("reference %d: %w", k+1, err)
		}
	}
	if req.Distances, err = c.prompt.fillDistances(dists, "Distance to reference %d: "); err != nil {
		return err
	}
	if req.Unit, err = c.prompt.fillUnit(unit); err != nil {
		return err
	}

	loc, err := c.locator.Locate(ctx, req)
	if err != nil {
		return err
	}
	return c.printLocation(loc)
}

func (c *cli) amenities(ctx context.Context, city, bbox string, names []string, dists []float64, unit string) error {
	var req usecases.AmenityRequest
	var err error

	if city == "" && bbox == "" {
		if city, err = c.prompt.ask("Enter city (e.g., Graz): "); err != nil {
			return err
		}
	}
	if req.Area, err = domain.ParseArea(city, bbox); err != nil {
		return err
	}
	if req.Amenities, err = c.prompt.fillStrings(names, "Amenity %d (e.g., bar): "); err != nil {
		return err
	}
	if req.Distances, err = c.prompt.fillDistances(dists, "Distance to amenity %d: "); err != nil {
		return err
	}
	if req.Unit, err = c.prompt.fillUnit(unit); err != nil {
		return err
	}

	c.log.Info("fetching amenity coordinates from OpenStreetMap", "area", req.Area.Key(), "amenities", req.Amenities)
	loc, err := c.locator.LocateByAmenities(ctx, req)
	if err != nil {
		return err
	}
	return c.printLocation(loc)
}

func (c *cli) history(ctx context.Context, limit int) error {
	locs, err := c.locator.ListRecent(ctx, limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tLATITUDE\tLONGITUDE\tSOURCE")
	for _, l := range locs {
		source := "coordinates"
		if len(l.Amenities) > 0 {
			source = strings.Join(l.Amenities, ",") + " @ " + l.Area
		}
		fmt.Fprintf(tw, "%s\t%s\t%.8f\t%.8f\t%s\n",
			l.ID, l.CreatedAt.Local().Format("2006-01-02 15:04"), l.Result.Lat, l.Result.Lon, source)
	}
	return tw.Flush()
}

// tags lists the amenity tags suggestions are drawn from.
func (c *cli) tags() error {
	for _, t := range c.catalog.Tags() {
		if _, err := fmt.Fprintln(c.out, t); err != nil {
			return err
		}
	}
	return nil
}

// printLocation reports residuals in the unit the distances were given in.
func (c *cli) printLocation(loc *domain.Location) error {
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Latitude:\t%.8f\n", loc.Result.Lat)
	fmt.Fprintf(tw, "Longitude:\t%.8f\n", loc.Result.Lon)
	for k, ref := range loc.References {
		label := fmt.Sprintf("Reference %d:", k+1)
		if k < len(loc.Amenities) {
			label = fmt.Sprintf("Reference %d (%s):", k+1, loc.Amenities[k])
		}
		fmt.Fprintf(tw, "%s\t%.8f, %.8f\tresidual %+.3f %s\n",
			label, ref.Lat, ref.Lon, units.FromMeters(loc.Residuals[k], loc.Unit), loc.Unit)
	}
	if c.hist != nil {
		fmt.Fprintf(tw, "Saved as:\t%s\n", loc.ID)
	}
	return tw.Flush()
}

// parseRef reads "lat,lon".
func parseRef(s string) (domain.GeoPoint, error) {
	lat, lon, ok := strings.Cut(s, ",")
	if !ok {
		return domain.GeoPoint{}, fmt.Errorf("%w: %q is not lat,lon", domain.ErrInvalidCoordinates, s)
	}
	var p domain.GeoPoint
	var err error
	if p.Lat, err = strconv.ParseFloat(strings.TrimSpace(lat), 64); err != nil {
		return p, fmt.Errorf("%w: latitude %q", domain.ErrInvalidCoordinates, lat)
	}
	if p.Lon, err = strconv.ParseFloat(strings.TrimSpace(lon), 64); err != nil {
		return p, fmt.Errorf("%w: longitude %q", domain.ErrInvalidCoordinates, lon)
	}
	return p, nil
}
