package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/test"
)

func savedAddress(line1 string, isDefault bool) model.SavedAddress {
	return model.SavedAddress{
		ShippingAddress: model.ShippingAddress{
			AddressLine1: line1,
			City:         "Pune",
			State:        "MH",
			Pincode:      "411001",
		},
		IsDefault: isDefault,
	}
}

func TestAddressUseCasePrecedence(t *testing.T) {
	pune := &model.Location{Street: "FC Road", City: "Pune", State: "MH", Pincode: "411004"}
	coords := &model.Coordinates{Latitude: 18.5, Longitude: 73.8}

	cases := []struct {
		name      string
		addresses []model.SavedAddress
		coords    *model.Coordinates
		wantLine  string
		wantSrc   model.AddressSource
	}{
		{
			name:      "default saved wins",
			addresses: []model.SavedAddress{savedAddress("first", false), savedAddress("default", true)},
			coords:    coords,
			wantLine:  "default",
			wantSrc:   model.AddressFromDefault,
		},
		{
			name:      "first saved without default",
			addresses: []model.SavedAddress{savedAddress("first", false), savedAddress("second", false)},
			coords:    coords,
			wantLine:  "first",
			wantSrc:   model.AddressFromSaved,
		},
		{
			name:     "geolocation without saved addresses",
			coords:   coords,
			wantLine: "FC Road",
			wantSrc:  model.AddressFromLocation,
		},
		{
			name:    "nothing known",
			wantSrc: model.AddressFromNothing,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := test.NewBackendStub()
			p := principal()
			stub.Profiles[p.Token] = &model.Profile{Name: "Asha", Phone: "98765", Email: "a@example.com", Addresses: tc.addresses}
			uc := NewAddressUseCase(stub, &test.GeocoderStub{Location: pune}, time.Second, testLogger())

			res := uc.Resolve(context.Background(), p, tc.coords)

			if res.Source != tc.wantSrc {
				t.Fatalf("expected source %s, got %s", tc.wantSrc, res.Source)
			}
			if res.Address.AddressLine1 != tc.wantLine {
				t.Fatalf("expected line %q, got %q", tc.wantLine, res.Address.AddressLine1)
			}
			if res.Address.FullName != "Asha" || res.Address.Phone != "98765" {
				t.Fatalf("expected profile name and phone, got %+v", res.Address)
			}
			if res.Address.Country != model.DefaultCountry {
				t.Fatalf("expected default country, got %q", res.Address.Country)
			}
			if res.Profile.Email != "a@example.com" {
				t.Fatalf("expected profile to be returned, got %+v", res.Profile)
			}
		})
	}
}

func TestAddressUseCaseSavedFieldsOverrideProfile(t *testing.T) {
	stub := test.NewBackendStub()
	p := principal()
	saved := savedAddress("1 MG Road", true)
	saved.FullName = "Office"
	saved.Phone = "11111"
	saved.Country = "Nepal"
	stub.Profiles[p.Token] = &model.Profile{Name: "Asha", Phone: "98765", Addresses: []model.SavedAddress{saved}}
	geo := &test.GeocoderStub{}
	uc := NewAddressUseCase(stub, geo, time.Second, testLogger())

	res := uc.Resolve(context.Background(), p, nil)

	if res.Address.FullName != "Office" || res.Address.Phone != "11111" || res.Address.Country != "Nepal" {
		t.Fatalf("unexpected address %+v", res.Address)
	}
	if geo.Calls() != 0 {
		t.Fatal("geocoder must not be called without coordinates")
	}
}

func TestAddressUseCaseDegradesOnFailures(t *testing.T) {
	stub := test.NewBackendStub()
	stub.ProfileFn = func(context.Context, string) (*model.Profile, error) {
		return nil, errors.New("backend down")
	}
	geo := &test.GeocoderStub{Err: errors.New("breaker open")}
	uc := NewAddressUseCase(stub, geo, time.Second, testLogger())

	res := uc.Resolve(context.Background(), principal(), &model.Coordinates{Latitude: 1, Longitude: 2})

	want := model.ShippingAddress{Country: model.DefaultCountry}
	if res.Address != want {
		t.Fatalf("expected blank address with default country, got %+v", res.Address)
	}
	if res.Source != model.AddressFromNothing {
		t.Fatalf("expected empty source, got %s", res.Source)
	}
}

func TestAddressUseCaseBoundsGeocoding(t *testing.T) {
	stub := test.NewBackendStub()
	geo := &test.GeocoderStub{ReverseFn: func(ctx context.Context, _ model.Coordinates) (*model.Location, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	uc := NewAddressUseCase(stub, geo, 20*time.Millisecond, testLogger())

	start := time.Now()
	res := uc.Resolve(context.Background(), principal(), &model.Coordinates{})
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("geocoding was not bounded, took %v", elapsed)
	}
	if res.Source != model.AddressFromNothing {
		t.Fatalf("expected empty source, got %s", res.Source)
	}
}

func TestAddressUseCaseIgnoresLocationWithoutCityOrPincode(t *testing.T) {
	stub := test.NewBackendStub()
	geo := &test.GeocoderStub{Location: &model.Location{Street: "Somewhere", State: "MH"}}
	uc := NewAddressUseCase(stub, geo, time.Second, testLogger())

	res := uc.Resolve(context.Background(), principal(), &model.Coordinates{})
	if res.Address.AddressLine1 != "" || res.Source != model.AddressFromNothing {
		t.Fatalf("expected location to be ignored, got %+v (%s)", res.Address, res.Source)
	}
}

func TestAddressUseCaseSavedAddressCancelsGeocoding(t *testing.T) {
	stub := test.NewBackendStub()
	p := principal()
	stub.Profiles[p.Token] = &model.Profile{Name: "Asha", Addresses: []model.SavedAddress{savedAddress("default", true)}}
	cancelled := make(chan struct{})
	geo := &test.GeocoderStub{ReverseFn: func(ctx context.Context, _ model.Coordinates) (*model.Location, error) {
		<-ctx.Done()
		close(cancelled)
		return nil, ctx.Err()
	}}
	uc := NewAddressUseCase(stub, geo, time.Minute, testLogger())

	start := time.Now()
	res := uc.Resolve(context.Background(), p, &model.Coordinates{Latitude: 18.5, Longitude: 73.8})
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("saved address waited for the geocoder, took %v", elapsed)
	}
	if res.Source != model.AddressFromDefault || res.Address.AddressLine1 != "default" {
		t.Fatalf("expected default saved address, got %+v (%s)", res.Address, res.Source)
	}
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("expected the location lookup to be cancelled")
	}
}

func TestAddressUseCaseProfileWithoutAddressesWaitsForLocation(t *testing.T) {
	stub := test.NewBackendStub()
	p := principal()
	stub.Profiles[p.Token] = &model.Profile{Name: "Asha"}
	geo := &test.GeocoderStub{ReverseFn: func(ctx context.Context, _ model.Coordinates) (*model.Location, error) {
		time.Sleep(20 * time.Millisecond)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return &model.Location{City: "Pune", Pincode: "411004"}, nil
	}}
	uc := NewAddressUseCase(stub, geo, time.Second, testLogger())

	res := uc.Resolve(context.Background(), p, &model.Coordinates{})
	if res.Source != model.AddressFromLocation || res.Address.City != "Pune" {
		t.Fatalf("expected geocoded address, got %+v (%s)", res.Address, res.Source)
	}
}
