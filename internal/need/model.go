package need

import "time"

// Kind discriminates the two pin types stored in the needs collection.
const (
	KindHelp = "HELP"
	KindShop = "SHOP"
)

// Status machine for HELP pins. SHOP pins carry IsOpen instead.
const (
	StatusOpen     = "OPEN"
	StatusAccepted = "ACCEPTED"
	StatusResolved = "RESOLVED"
)

// Unspecified is the display fallback for missing free-text fields.
const Unspecified = "unspecified"

// Need is a geo-tagged pin: a request for help or a shop marker.
// Helper fields are set once a HELP pin is accepted.
type Need struct {
	ID   string `gorm:"primaryKey;type:text" json:"id"`
	Kind string `gorm:"index;not null;default:'HELP'" json:"kind"`

	Lat float64 `gorm:"not null" json:"lat"`
	Lng float64 `gorm:"not null" json:"lng"`

	// Detail is "what is needed" for HELP, the shop name for SHOP.
	Detail string `gorm:"type:text;not null;default:''" json:"detail"`
	Name   string `gorm:"type:text;not null;default:''" json:"name"`
	Phone  string `gorm:"type:text;not null;default:''" json:"phone"`

	Status string `gorm:"index;not null;default:'OPEN'" json:"status,omitempty"`
	IsOpen bool   `gorm:"not null;default:false" json:"is_open,omitempty"`

	HelperName  string `gorm:"type:text;not null;default:''" json:"helper_name,omitempty"`
	HelperPhone string `gorm:"type:text;not null;default:''" json:"helper_phone,omitempty"`

	OwnerID   uint64    `gorm:"index;not null" json:"owner_id"`
	CreatedAt time.Time `gorm:"index;not null;default:now()" json:"created_at"`
}

func (Need) TableName() string { return "needs" }

func (n Need) IsHelp() bool { return n.Kind == KindHelp }
func (n Need) IsShop() bool { return n.Kind == KindShop }

// Normalize defaults a partial record so downstream stages never see an
// inconsistent union: HELP pins get a status and no shop fields, SHOP pins
// get no status machine. Malformed input is defaulted, never rejected.
func (n Need) Normalize() Need {
	switch n.Kind {
	case KindShop:
		n.Status = ""
		n.HelperName = ""
		n.HelperPhone = ""
	case KindHelp:
		if n.Status == "" {
			n.Status = StatusOpen
		}
		n.IsOpen = false
	default:
		n.Kind = KindHelp
		if n.Status == "" {
			n.Status = StatusOpen
		}
		n.IsOpen = false
	}
	return n
}

// DisplayName is the contact name with the documented fallback.
func (n Need) DisplayName() string { return orUnspecified(n.Name) }

// DisplayDetail is the need text / shop name with the documented fallback.
func (n Need) DisplayDetail() string { return orUnspecified(n.Detail) }

func orUnspecified(s string) string {
	if s == "" {
		return Unspecified
	}
	return s
}

// HasPosition reports whether the pin carries usable map coordinates.
// The map layer skips pins without them; the store still keeps the record.
func (n Need) HasPosition() bool {
	return n.Lat >= -90 && n.Lat <= 90 && n.Lng >= -180 && n.Lng <= 180 &&
		!(n.Lat == 0 && n.Lng == 0)
}
