package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	CategoryRealEstate  Category = "REAL_ESTATE"
	CategoryBankAccount Category = "BANK_ACCOUNT"
	CategoryInvestment  Category = "INVESTMENT"
	CategoryBusiness    Category = "BUSINESS"
	CategoryVehicle     Category = "VEHICLE"
	CategoryOther       Category = "OTHER"
)

const (
	EntryAsset     EntryType = "asset"
	EntryLiability EntryType = "liability"
)

const (
	StatusVerified  Status = "verified"
	StatusStale     Status = "stale"
	StatusUncertain Status = "uncertain"
)

type (
	// Category tags a raw record with the shape of its payload.
	Category string

	// EntryType is the balance sheet side a row belongs on.
	EntryType string

	// Status describes how trustworthy a holding's current value is.
	Status string

	Date struct {
		time.Time
	}

	OwnershipUser struct {
		Name string `json:"name"`
	}

	Ownership struct {
		User OwnershipUser `json:"user"`
	}

	// RawRecord is one holding as stored upstream. Payload is nil when the
	// payload matching Category is missing or when more than one payload was
	// present on the wire.
	RawRecord struct {
		ID         string
		Category   Category
		Type       EntryType
		Status     Status
		Ownerships []Ownership
		Payload    Payload
	}

	// Payload is the category specific part of a raw record. The set of
	// implementations is closed: RealEstate, BankAccount, Investment,
	// Business, Vehicle and Other.
	Payload interface {
		category() Category
	}

	RealEstate struct {
		PropertyName  string              `json:"propertyName"`
		PropertyType  string              `json:"propertyType"`
		Location      string              `json:"location"`
		PlotNumber    string              `json:"plotNumber,omitempty"`
		AreaSqFt      decimal.NullDecimal `json:"areaSqFt"`
		PurchaseDate  Date                `json:"purchaseDate"`
		PurchasePrice decimal.Decimal     `json:"purchasePrice"`
		CurrentValue  decimal.Decimal     `json:"currentValue"`
		ValuationDate Date                `json:"valuationDate"`
		RentalIncome  decimal.NullDecimal `json:"rentalIncome"`
		UpdatedAt     Date                `json:"updatedAt"`
	}

	BankAccount struct {
		AccountName    string              `json:"accountName"`
		BankName       string              `json:"bankName"`
		AccountNumber  string              `json:"accountNumber,omitempty"`
		AccountType    string              `json:"accountType"`
		CurrentBalance decimal.Decimal     `json:"currentBalance"`
		InterestRate   decimal.NullDecimal `json:"interestRate"`
		OpeningDate    Date                `json:"openingDate"`
		UpdatedAt      Date                `json:"updatedAt"`
	}

	Investment struct {
		InvestmentName    string          `json:"investmentName"`
		Broker            string          `json:"broker"`
		AccountNumber     string          `json:"accountNumber,omitempty"`
		InvestmentType    string          `json:"investmentType"`
		InitialInvestment decimal.Decimal `json:"initialInvestment"`
		InvestmentDate    Date            `json:"investmentDate"`
		CurrentValue      decimal.Decimal `json:"currentValue"`
		LastUpdated       Date            `json:"lastUpdated"`
	}

	Business struct {
		BusinessName      string              `json:"businessName"`
		LicenseNumber     string              `json:"licenseNumber,omitempty"`
		Industry          string              `json:"industry"`
		EntityType        string              `json:"entityType,omitempty"`
		InitialInvestment decimal.Decimal     `json:"initialInvestment"`
		EstablishmentDate Date                `json:"establishmentDate"`
		CurrentValuation  decimal.Decimal     `json:"currentValuation"`
		AnnualRevenue     decimal.NullDecimal `json:"annualRevenue"`
		UpdatedAt         Date                `json:"updatedAt"`
	}

	Vehicle struct {
		VehicleName        string              `json:"vehicleName"`
		VehicleType        string              `json:"vehicleType"`
		Make               string              `json:"make,omitempty"`
		Model              string              `json:"model,omitempty"`
		Year               int                 `json:"year,omitempty"`
		RegistrationNumber string              `json:"registrationNumber,omitempty"`
		PurchasePrice      decimal.Decimal     `json:"purchasePrice"`
		PurchaseDate       Date                `json:"purchaseDate"`
		CurrentValue       decimal.Decimal     `json:"currentValue"`
		OutstandingLoan    decimal.NullDecimal `json:"outstandingLoan"`
		UpdatedAt          Date                `json:"updatedAt"`
	}

	Other struct {
		AssetName        string          `json:"assetName"`
		AssetCategory    string          `json:"assetCategory"`
		Description      string          `json:"description,omitempty"`
		PurchasePrice    decimal.Decimal `json:"purchasePrice"`
		PurchaseDate     Date            `json:"purchaseDate"`
		CurrentValuation decimal.Decimal `json:"currentValuation"`
		ValuationDate    Date            `json:"valuationDate"`
		UpdatedAt        Date            `json:"updatedAt"`
	}
)

func (RealEstate) category() Category  { return CategoryRealEstate }
func (BankAccount) category() Category { return CategoryBankAccount }
func (Investment) category() Category  { return CategoryInvestment }
func (Business) category() Category    { return CategoryBusiness }
func (Vehicle) category() Category     { return CategoryVehicle }
func (Other) category() Category       { return CategoryOther }

var (
	ErrEmptyID         = errors.New("empty holding id")
	ErrUnknownCategory = errors.New("unknown category")
	ErrInvalidDate     = errors.New("invalid date")
)

// Categories returns the known categories in display order.
func Categories() []Category {
	return []Category{
		CategoryRealEstate,
		CategoryBankAccount,
		CategoryInvestment,
		CategoryBusiness,
		CategoryVehicle,
		CategoryOther,
	}
}

// Known reports whether c is one of the six recognised categories.
func (c Category) Known() bool {
	switch c {
	case CategoryRealEstate, CategoryBankAccount, CategoryInvestment,
		CategoryBusiness, CategoryVehicle, CategoryOther:
		return true
	}
	return false
}

// Label returns the human readable category name used on canonical rows.
func (c Category) Label() string {
	switch c {
	case CategoryRealEstate:
		return "Real Estate"
	case CategoryBankAccount:
		return "Bank Account"
	case CategoryInvestment:
		return "Investment"
	case CategoryBusiness:
		return "Business"
	case CategoryVehicle:
		return "Vehicle"
	case CategoryOther:
		return "Other"
	default:
		return CategoryLabelUnknown
	}
}

// Sign is +1 for assets and -1 for liabilities.
func (t EntryType) Sign() decimal.Decimal {
	if t == EntryLiability {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

func (t EntryType) Valid() bool {
	return t == EntryAsset || t == EntryLiability
}

func (s Status) Valid() bool {
	switch s {
	case StatusVerified, StatusStale, StatusUncertain:
		return true
	}
	return false
}

// Badge is the upper-case status text shown next to a row.
func (s Status) Badge() string {
	return strings.ToUpper(string(s))
}

// OwnerNames returns the trimmed, non-empty owner names in record order.
func (r RawRecord) OwnerNames() []string {
	var names []string
	for _, o := range r.Ownerships {
		if n := strings.TrimSpace(o.User.Name); n != "" {
			names = append(names, n)
		}
	}
	return names
}

// Validate checks what can be checked without normalizing the record.
func (r RawRecord) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return ErrEmptyID
	}
	if !r.Category.Known() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, r.Category)
	}
	if r.Type != "" && !r.Type.Valid() {
		return fmt.Errorf("invalid entry type %q", r.Type)
	}
	if r.Status != "" && !r.Status.Valid() {
		return fmt.Errorf("invalid status %q", r.Status)
	}
	if r.Payload == nil || r.Payload.category() != r.Category {
		return &InvalidRecordError{ID: r.ID, Category: r.Category}
	}
	return nil
}

// rawRecordJSON mirrors the upstream wire shape. Both "ownerships" and
// "owners" are accepted for the ownership list.
type rawRecordJSON struct {
	ID          string       `json:"id"`
	Category    Category     `json:"category"`
	Type        EntryType    `json:"type,omitempty"`
	Status      Status       `json:"status,omitempty"`
	Ownerships  []Ownership  `json:"ownerships,omitempty"`
	Owners      []Ownership  `json:"owners,omitempty"`
	RealEstate  *RealEstate  `json:"realEstate,omitempty"`
	BankAccount *BankAccount `json:"bankAccount,omitempty"`
	Investment  *Investment  `json:"investment,omitempty"`
	Business    *Business    `json:"business,omitempty"`
	Vehicle     *Vehicle     `json:"vehicle,omitempty"`
	OtherAsset  *Other       `json:"otherAsset,omitempty"`
}

func (r *RawRecord) UnmarshalJSON(b []byte) error {
	var w rawRecordJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*r = RawRecord{
		ID:         w.ID,
		Category:   w.Category,
		Type:       w.Type,
		Status:     w.Status,
		Ownerships: w.Ownerships,
	}
	if len(r.Ownerships) == 0 {
		r.Ownerships = w.Owners
	}

	var present []Payload
	if w.RealEstate != nil {
		present = append(present, *w.RealEstate)
	}
	if w.BankAccount != nil {
		present = append(present, *w.BankAccount)
	}
	if w.Investment != nil {
		present = append(present, *w.Investment)
	}
	if w.Business != nil {
		present = append(present, *w.Business)
	}
	if w.Vehicle != nil {
		present = append(present, *w.Vehicle)
	}
	if w.OtherAsset != nil {
		present = append(present, *w.OtherAsset)
	}
	if len(present) == 1 && present[0].category() == r.Category {
		r.Payload = present[0]
	}
	return nil
}

func (r RawRecord) MarshalJSON() ([]byte, error) {
	w := rawRecordJSON{
		ID:         r.ID,
		Category:   r.Category,
		Type:       r.Type,
		Status:     r.Status,
		Ownerships: r.Ownerships,
	}
	switch p := r.Payload.(type) {
	case RealEstate:
		w.RealEstate = &p
	case BankAccount:
		w.BankAccount = &p
	case Investment:
		w.Investment = &p
	case Business:
		w.Business = &p
	case Vehicle:
		w.Vehicle = &p
	case Other:
		w.OtherAsset = &p
	}
	return json.Marshal(w)
}

// dateLayouts are tried in order when parsing upstream dates.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate accepts plain ISO dates and RFC 3339 timestamps.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t.UTC()}, nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// IsEmpty returns true if the date is zero (absent in the source record)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// Ptr returns nil for an empty date so optional row fields stay absent.
func (d Date) Ptr() *Date {
	if d.IsEmpty() {
		return nil
	}
	return &d
}

func (d Date) String() string {
	if d.IsEmpty() {
		return ""
	}
	if h, m, s := d.Clock(); h == 0 && m == 0 && s == 0 && d.Nanosecond() == 0 {
		return d.Format("2006-01-02")
	}
	return d.Format(time.RFC3339)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsEmpty() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, b)
	}
	if s == nil || strings.TrimSpace(*s) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(*s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
