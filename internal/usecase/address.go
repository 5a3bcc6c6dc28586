package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/polkiloo/storefront/internal/adapter/backend"
	"github.com/polkiloo/storefront/internal/adapter/geocoder"
	"github.com/polkiloo/storefront/internal/domain/model"
)

// errAddressKnown stops the location lookup once the profile has a saved address.
var errAddressKnown = errors.New("saved address found")

// AddressResolution is the prefilled checkout address and the profile it was built from.
type AddressResolution struct {
	Address model.ShippingAddress
	Source  model.AddressSource
	Profile model.Profile
}

// AddressUseCase prefills the shipping address. It never fails: every lookup degrades to blank fields.
type AddressUseCase struct {
	backend  backend.Client
	geocoder geocoder.Client
	timeout  time.Duration
	logger   *slog.Logger
}

// NewAddressUseCase constructs AddressUseCase. timeout bounds reverse geocoding.
func NewAddressUseCase(client backend.Client, geo geocoder.Client, timeout time.Duration, logger *slog.Logger) *AddressUseCase {
	return &AddressUseCase{backend: client, geocoder: geo, timeout: timeout, logger: logger}
}

// Resolve picks the default saved address, then the first saved one, then the
// geocoded location when coordinates are given, and blank fields otherwise.
func (u *AddressUseCase) Resolve(ctx context.Context, p model.Principal, at *model.Coordinates) AddressResolution {
	var (
		profile  *model.Profile
		location *model.Location
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		prof, err := u.backend.Profile(gctx, p.Token)
		if err != nil {
			u.logger.Warn("profile lookup failed", slog.String("owner", p.Owner), slog.Any("error", err))
			return nil
		}
		profile = prof
		if _, ok := pickSaved(*prof); ok {
			return errAddressKnown
		}
		return nil
	})
	if at != nil && u.geocoder != nil {
		g.Go(func() error {
			location = u.locate(gctx, *at)
			return nil
		})
	}
	if err := g.Wait(); errors.Is(err, errAddressKnown) {
		// a saved address outranks the location, whatever the geocoder managed
		location = nil
	}

	if profile == nil {
		profile = &model.Profile{}
	}
	return AddressResolution{
		Address: prefill(*profile, location),
		Source:  sourceOf(*profile, location),
		Profile: *profile,
	}
}

func (u *AddressUseCase) locate(ctx context.Context, at model.Coordinates) *model.Location {
	timeout := u.timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	loc, err := u.geocoder.Reverse(ctx, at)
	if err != nil {
		u.logger.Debug("reverse geocoding skipped", slog.Any("error", err))
		return nil
	}
	return loc
}

func pickSaved(profile model.Profile) (model.SavedAddress, bool) {
	for _, a := range profile.Addresses {
		if a.IsDefault {
			return a, true
		}
	}
	if len(profile.Addresses) > 0 {
		return profile.Addresses[0], true
	}
	return model.SavedAddress{}, false
}

func sourceOf(profile model.Profile, loc *model.Location) model.AddressSource {
	if saved, ok := pickSaved(profile); ok {
		if saved.IsDefault {
			return model.AddressFromDefault
		}
		return model.AddressFromSaved
	}
	if usable(loc) {
		return model.AddressFromLocation
	}
	return model.AddressFromNothing
}

func prefill(profile model.Profile, loc *model.Location) model.ShippingAddress {
	addr := model.ShippingAddress{
		FullName: profile.Name,
		Phone:    profile.Phone,
		Country:  model.DefaultCountry,
	}

	if saved, ok := pickSaved(profile); ok {
		s := saved.ShippingAddress
		addr.AddressLine1 = s.AddressLine1
		addr.AddressLine2 = s.AddressLine2
		addr.City = s.City
		addr.State = s.State
		addr.Pincode = s.Pincode
		addr.FullName = firstNonBlank(s.FullName, profile.Name)
		addr.Phone = firstNonBlank(s.Phone, profile.Phone)
		addr.Country = firstNonBlank(s.Country, model.DefaultCountry)
		return addr.Normalize()
	}

	if usable(loc) {
		addr.AddressLine1 = loc.Street
		addr.City = loc.City
		addr.State = loc.State
		addr.Pincode = loc.Pincode
	}
	return addr.Normalize()
}

// usable mirrors the storefront rule: a location counts once it has a city or a pincode.
func usable(loc *model.Location) bool {
	return loc != nil && (loc.City != "" || loc.Pincode != "")
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
