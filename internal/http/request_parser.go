// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// balance sheet queries, list limits and new holdings submitted as JSON or as
// an HTML form.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"holdings/internal/core"
)

const (
	// maxBodyBytes caps JSON and form bodies.
	maxBodyBytes = 64 << 10

	defaultSnapshotLimit = 30
	maxSnapshotLimit     = 365
)

var errBadRequest = errors.New("bad request")

// ParseQuery builds the balance sheet query from the q and owner parameters.
// A missing owner means every owner.
func ParseQuery(values url.Values) core.Query {
	owner := sanitizeInput(values.Get("owner"))
	if owner == "" {
		owner = core.AllOwners
	}
	return core.Query{
		SearchText:  sanitizeInput(values.Get("q")),
		OwnerFilter: owner,
	}
}

// ParseLimit reads the limit parameter, falling back to def and clamping to
// [1, max].
func ParseLimit(values url.Values, def, max int) int {
	v := strings.TrimSpace(values.Get("limit"))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// DecodeHolding reads one raw record from a JSON body.
func DecodeHolding(w http.ResponseWriter, r *http.Request) (core.RawRecord, error) {
	var rec core.RawRecord
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		return rec, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("%w: invalid JSON: %v", errBadRequest, err)
	}
	return rec, nil
}

// ParseHoldingForm builds a raw record from the "New Asset" form. Every
// category shares the same fields: name, owner, cost, value and the two
// dates; the loan field only applies to vehicles.
func ParseHoldingForm(form url.Values) (core.RawRecord, error) {
	category := core.Category(strings.ToUpper(sanitizeInput(form.Get("category"))))
	if !category.Known() {
		return core.RawRecord{}, fmt.Errorf("%w: %q", core.ErrUnknownCategory, category)
	}

	name := sanitizeInput(form.Get("name"))
	if name == "" {
		return core.RawRecord{}, fmt.Errorf("%w: name is required", errBadRequest)
	}
	kind := sanitizeInput(form.Get("kind"))

	cost, err := formAmount(form, "cost", true)
	if err != nil {
		return core.RawRecord{}, err
	}
	value, err := formAmount(form, "value", false)
	if err != nil {
		return core.RawRecord{}, err
	}
	acquired, err := formDate(form, "acquired")
	if err != nil {
		return core.RawRecord{}, err
	}
	updated, err := formDate(form, "updated")
	if err != nil {
		return core.RawRecord{}, err
	}

	rec := core.RawRecord{
		ID:       sanitizeInput(form.Get("id")),
		Category: category,
		Type:     core.EntryType(strings.ToLower(sanitizeInput(form.Get("type")))),
		Status:   core.Status(strings.ToLower(sanitizeInput(form.Get("status")))),
	}
	if owner := sanitizeInput(form.Get("owner")); owner != "" {
		rec.Ownerships = []core.Ownership{{User: core.OwnershipUser{Name: owner}}}
	}

	switch category {
	case core.CategoryRealEstate:
		rec.Payload = core.RealEstate{PropertyName: name, PropertyType: kind, PurchaseDate: acquired,
			PurchasePrice: cost, CurrentValue: value, ValuationDate: updated, UpdatedAt: updated}
	case core.CategoryBankAccount:
		rec.Payload = core.BankAccount{AccountName: name, AccountType: kind, CurrentBalance: value,
			OpeningDate: acquired, UpdatedAt: updated}
	case core.CategoryInvestment:
		rec.Payload = core.Investment{InvestmentName: name, InvestmentType: kind, InitialInvestment: cost,
			InvestmentDate: acquired, CurrentValue: value, LastUpdated: updated}
	case core.CategoryBusiness:
		rec.Payload = core.Business{BusinessName: name, Industry: kind, InitialInvestment: cost,
			EstablishmentDate: acquired, CurrentValuation: value, UpdatedAt: updated}
	case core.CategoryVehicle:
		v := core.Vehicle{VehicleName: name, VehicleType: kind, PurchasePrice: cost,
			PurchaseDate: acquired, CurrentValue: value, UpdatedAt: updated}
		if strings.TrimSpace(form.Get("loan")) != "" {
			loan, err := formAmount(form, "loan", false)
			if err != nil {
				return core.RawRecord{}, err
			}
			v.OutstandingLoan = decimal.NewNullDecimal(loan)
		}
		rec.Payload = v
	case core.CategoryOther:
		rec.Payload = core.Other{AssetName: name, AssetCategory: kind, PurchasePrice: cost,
			PurchaseDate: acquired, CurrentValuation: value, ValuationDate: updated, UpdatedAt: updated}
	}
	return rec, nil
}

func formAmount(form url.Values, field string, optional bool) (decimal.Decimal, error) {
	v := strings.TrimSpace(form.Get(field))
	if v == "" && optional {
		return decimal.Zero, nil
	}
	d, err := core.ParseAmount(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", err, field)
	}
	return d, nil
}

func formDate(form url.Values, field string) (core.Date, error) {
	v := strings.TrimSpace(form.Get(field))
	if v == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, fmt.Errorf("%w: %s", err, field)
	}
	return d, nil
}
