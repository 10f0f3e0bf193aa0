package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/pinpoint/internal/core/domain"
	"github.com/samirrijal/pinpoint/internal/core/usecases"
)

// amenityLocateBody is the body of POST /v1/locate/amenities.
type amenityLocateBody struct {
	usecases.AmenityRequest
	Async bool `json:"async"`
}

// AcceptedResponse is returned for queued amenity requests.
type AcceptedResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

// LocateHandler trilaterates from three explicit reference points.
func LocateHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req usecases.LocateRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body: "+err.Error())
		}

		loc, err := deps.Locator.Locate(c.UserContext(), req)
		if err != nil {
			return writeError(c, err)
		}
		c.Location("/v1/locations/" + loc.ID)
		return c.Status(fiber.StatusCreated).JSON(loc)
	}
}

// LocateAmenitiesHandler trilaterates from three amenity categories in an
// area. With async set the request is queued and 202 is returned.
func LocateAmenitiesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body amenityLocateBody
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body: "+err.Error())
		}

		if body.Async {
			job, err := deps.Locator.SubmitAmenityRequest(c.UserContext(), body.AmenityRequest)
			if err != nil {
				return writeError(c, err)
			}
			return c.Status(fiber.StatusAccepted).JSON(AcceptedResponse{
				RequestID: job.RequestID,
				Status:    "queued",
			})
		}

		loc, err := deps.Locator.LocateByAmenities(c.UserContext(), body.AmenityRequest)
		if err != nil {
			return writeError(c, err)
		}
		c.Location("/v1/locations/" + loc.ID)
		return c.Status(fiber.StatusCreated).JSON(loc)
	}
}

// ListLocationsHandler returns the most recent results.
func ListLocationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		locs, err := deps.Locator.ListRecent(c.UserContext(), c.QueryInt("limit", 20))
		if err != nil {
			return writeError(c, err)
		}
		if locs == nil {
			locs = []domain.Location{}
		}
		return c.JSON(locs)
	}
}

// GetLocationHandler returns a single stored result.
func GetLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "location id is required")
		}

		loc, err := deps.Locator.GetByID(c.UserContext(), id)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(loc)
	}
}

// ReferenceHandler resolves one amenity category in an area to its mean
// centre. The area is a name, or a bounding box given as
// bbox=min_lat,min_lon,max_lat,max_lon.
func ReferenceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		amenity := strings.TrimSpace(c.Query("amenity"))
		if amenity == "" {
			return errBadRequest(c, "amenity query parameter is required")
		}

		area, err := domain.ParseArea(c.Query("area"), c.Query("bbox"))
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		ref, err := deps.Locator.ResolveReference(c.UserContext(), area, amenity)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(ref)
	}
}
