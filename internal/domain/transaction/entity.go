// Package transaction contains the domain model for MLB roster transactions.
// Transactions arrive from the Stats API with a globally unique numeric id,
// which doubles as the idempotency key for deduplication downstream.
package transaction

import (
	"errors"
	"fmt"
	"time"
)

// MarinersTeamID is the Stats API team id for the Seattle Mariners.
const MarinersTeamID = 136

// ══════════════════════════════════════════════════════════════════════════════
// TRANSACTION TYPE
// ══════════════════════════════════════════════════════════════════════════════

// Type is the Stats API transaction type code.
type Type string

const (
	// TypeTrade - trade (TR).
	TypeTrade Type = "TR"

	// TypeSignedFreeAgent - signed as free agent (SFA).
	TypeSignedFreeAgent Type = "SFA"

	// TypeStatusChange - status change (SC).
	TypeStatusChange Type = "SC"

	// TypeSelected - contract selected (SEL).
	TypeSelected Type = "SEL"

	// TypeRecalled - recalled from the minors (REC).
	TypeRecalled Type = "REC"

	// TypeOptioned - optioned to the minors (OPT).
	TypeOptioned Type = "OPT"

	// TypeDesignated - designated for assignment (DES).
	TypeDesignated Type = "DES"

	// TypeReleased - released (REL).
	TypeReleased Type = "REL"

	// TypeSuspended - suspended (SUS).
	TypeSuspended Type = "SUS"

	// TypePurchased - contract purchased (PUR).
	TypePurchased Type = "PUR"

	// TypeClaimed - claimed off waivers (CLA).
	TypeClaimed Type = "CLA"

	// TypeReinstated - reinstated from a list (REI).
	TypeReinstated Type = "REI"

	// TypeInjuredList - placed on the injured list (IL).
	TypeInjuredList Type = "IL"

	// TypeActivated - activated (ACT).
	TypeActivated Type = "ACT"

	// TypeOther - anything the API reports with an unknown code (OTH).
	TypeOther Type = "OTH"
)

// ParseType maps a raw type code to a Type. Unknown codes become TypeOther,
// matching how the API itself buckets unusual moves.
func ParseType(code string) Type {
	switch Type(code) {
	case TypeTrade, TypeSignedFreeAgent, TypeStatusChange, TypeSelected,
		TypeRecalled, TypeOptioned, TypeDesignated, TypeReleased,
		TypeSuspended, TypePurchased, TypeClaimed, TypeReinstated,
		TypeInjuredList, TypeActivated, TypeOther:
		return Type(code)
	default:
		return TypeOther
	}
}

// String returns the string representation of the type.
func (t Type) String() string {
	return string(t)
}

// Emoji returns the emoji used in notification text for this type.
func (t Type) Emoji() string {
	switch t {
	case TypeTrade:
		return "🔄"
	case TypeSignedFreeAgent:
		return "✍️"
	case TypeStatusChange:
		return "📋"
	case TypeSelected:
		return "⬆️"
	case TypeRecalled:
		return "📞"
	case TypeOptioned:
		return "⬇️"
	case TypeDesignated:
		return "🏷️"
	case TypeReleased:
		return "🚪"
	case TypeSuspended:
		return "⏸️"
	case TypePurchased:
		return "💰"
	case TypeClaimed:
		return "🎯"
	case TypeReinstated:
		return "🔄"
	case TypeInjuredList:
		return "🏥"
	case TypeActivated:
		return "✅"
	default:
		return "📝"
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// TRANSACTION ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Transaction represents one MLB roster transaction.
type Transaction struct {
	// ID is the unique transaction id from the Stats API.
	ID int64

	// PersonID and PersonName identify the player.
	PersonID   int64
	PersonName string

	// FromTeamID/FromTeamName - the team giving up the player (0/"" when absent).
	FromTeamID   int
	FromTeamName string

	// ToTeamID/ToTeamName - the team receiving the player (0/"" when absent).
	ToTeamID   int
	ToTeamName string

	// Date is the transaction date.
	Date time.Time

	// EffectiveDate is when the move takes effect, nil if same as Date
	// or not reported.
	EffectiveDate *time.Time

	// ResolutionDate is when a conditional move resolves, nil when absent.
	ResolutionDate *time.Time

	// TypeCode is the raw code from the API; TypeDesc its label.
	TypeCode string
	TypeDesc string

	// Description is the full free-text description.
	Description string

	// Notified marks that this transaction was delivered to subscribers.
	Notified bool

	// CreatedAt is when this row was first recorded locally.
	CreatedAt time.Time
}

// NewTransactionParams holds parameters for creating a transaction.
type NewTransactionParams struct {
	ID             int64
	PersonID       int64
	PersonName     string
	FromTeamID     int
	FromTeamName   string
	ToTeamID       int
	ToTeamName     string
	Date           time.Time
	EffectiveDate  *time.Time
	ResolutionDate *time.Time
	TypeCode       string
	TypeDesc       string
	Description    string
}

// NewTransaction creates a transaction with validation.
func NewTransaction(params NewTransactionParams) (*Transaction, error) {
	if params.ID <= 0 {
		return nil, ErrInvalidID
	}
	if params.PersonName == "" {
		return nil, ErrMissingPerson
	}
	if params.Date.IsZero() {
		return nil, ErrMissingDate
	}

	return &Transaction{
		ID:             params.ID,
		PersonID:       params.PersonID,
		PersonName:     params.PersonName,
		FromTeamID:     params.FromTeamID,
		FromTeamName:   params.FromTeamName,
		ToTeamID:       params.ToTeamID,
		ToTeamName:     params.ToTeamName,
		Date:           params.Date,
		EffectiveDate:  params.EffectiveDate,
		ResolutionDate: params.ResolutionDate,
		TypeCode:       params.TypeCode,
		TypeDesc:       params.TypeDesc,
		Description:    params.Description,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS
// ══════════════════════════════════════════════════════════════════════════════

// Type returns the parsed transaction type.
func (t *Transaction) Type() Type {
	return ParseType(t.TypeCode)
}

// IsMarinersTransaction reports whether the Mariners are on either side.
func (t *Transaction) IsMarinersTransaction() bool {
	return t.FromTeamID == MarinersTeamID || t.ToTeamID == MarinersTeamID
}

// IsAcquisition reports whether the Mariners are receiving the player.
func (t *Transaction) IsAcquisition() bool {
	return t.ToTeamID == MarinersTeamID
}

// IsDeparture reports whether the player is leaving the Mariners.
func (t *Transaction) IsDeparture() bool {
	return t.FromTeamID == MarinersTeamID
}

// HasDistinctEffectiveDate reports whether the effective date is set and
// differs from the transaction date. Only then is it worth displaying.
func (t *Transaction) HasDistinctEffectiveDate() bool {
	if t.EffectiveDate == nil {
		return false
	}
	ed, td := *t.EffectiveDate, t.Date
	return !(ed.Year() == td.Year() && ed.YearDay() == td.YearDay())
}

// MarkNotified records that the transaction was delivered.
func (t *Transaction) MarkNotified() {
	t.Notified = true
}

// String returns a compact representation for logging.
func (t *Transaction) String() string {
	return fmt.Sprintf("%s - %s (%s)", t.PersonName, t.TypeDesc, t.Date.Format("2006-01-02"))
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidID - non-positive transaction id.
	ErrInvalidID = errors.New("invalid transaction id: must be positive")

	// ErrMissingPerson - no player name.
	ErrMissingPerson = errors.New("transaction person name cannot be empty")

	// ErrMissingDate - no transaction date.
	ErrMissingDate = errors.New("transaction date cannot be zero")

	// ErrTransactionNotFound - no transaction with the given id.
	ErrTransactionNotFound = errors.New("transaction not found")
)
