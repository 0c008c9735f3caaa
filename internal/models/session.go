package models

import (
	"time"

	"gorm.io/datatypes"
)

// CartState is the persisted shape of a user's cart, watchlist and booked history.
type CartState struct {
	Cart      []BookableItem `json:"cart"`
	Watchlist []BookableItem `json:"watchlist"`
	Booked    []BookableItem `json:"booked"`
}

// SessionRecord stores a CartState as JSON columns keyed by user.
type SessionRecord struct {
	UserID    int64                              `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Cart      datatypes.JSONType[[]BookableItem] `json:"cart"`
	Watchlist datatypes.JSONType[[]BookableItem] `json:"watchlist"`
	Booked    datatypes.JSONType[[]BookableItem] `json:"booked"`
	UpdatedAt time.Time                          `json:"updated_at"`
}

func NewSessionRecord(userID int64, s CartState) *SessionRecord {
	return &SessionRecord{
		UserID:    userID,
		Cart:      datatypes.NewJSONType(s.Cart),
		Watchlist: datatypes.NewJSONType(s.Watchlist),
		Booked:    datatypes.NewJSONType(s.Booked),
	}
}

func (r *SessionRecord) State() CartState {
	return CartState{
		Cart:      r.Cart.Data(),
		Watchlist: r.Watchlist.Data(),
		Booked:    r.Booked.Data(),
	}
}

// TableReservation is one row of the ledger used to count bookings per table and date.
type TableReservation struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ItemID        string    `gorm:"uniqueIndex;not null" json:"item_id"`
	UserID        int64     `gorm:"index;not null" json:"user_id"`
	VenueID       string    `gorm:"index:idx_table_date;not null" json:"venue_id"`
	TableOptionID string    `gorm:"index:idx_table_date;not null" json:"table_option_id"`
	Date          Date      `gorm:"index:idx_table_date;type:varchar(10);not null" json:"date"`
	CreatedAt     time.Time `json:"created_at"`
}

// Cancellation audits the removal of a booked item from history.
type Cancellation struct {
	ID          uint                             `gorm:"primaryKey" json:"id"`
	UserID      int64                            `gorm:"index;not null" json:"user_id"`
	ItemID      string                           `gorm:"index;not null" json:"item_id"`
	Kind        Kind                             `gorm:"type:varchar(20)" json:"kind"`
	Reason      string                           `json:"reason,omitempty"`
	Item        datatypes.JSONType[BookableItem] `json:"item"`
	CancelledAt time.Time                        `gorm:"autoCreateTime" json:"cancelled_at"`
}
