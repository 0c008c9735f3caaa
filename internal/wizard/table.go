package wizard

import (
	"fmt"

	"github.com/themainkeys/wingman.app-sub000/internal/models"
	"github.com/themainkeys/wingman.app-sub000/internal/pricing"
)

type TableStep string

const (
	StepSelectVenue         TableStep = "select_venue"
	StepSelectDateAndGuests TableStep = "select_date_and_guests"
	StepSelectTable         TableStep = "select_table"
	StepConfirm             TableStep = "confirm"
	StepDone                TableStep = "done"
)

// Occupancy reports how many bookings already exist for a table on a date.
type Occupancy interface {
	Booked(tableID string, date models.Date) int
}

// OccupancyMap is an Occupancy backed by counts keyed with OccupancyKey.
type OccupancyMap map[string]int

func OccupancyKey(tableID string, date models.Date) string {
	return tableID + "|" + string(date)
}

func (m OccupancyMap) Booked(tableID string, date models.Date) int {
	return m[OccupancyKey(tableID, date)]
}

// TableChoice is a table option as presented on the table step.
type TableChoice struct {
	Option     models.TableOption `json:"option"`
	Booked     int                `json:"booked"`
	Selectable bool               `json:"selectable"`
	Surcharge  pricing.Amount     `json:"surcharge"`
	Total      pricing.Amount     `json:"total"`
}

// TableWizard walks a user from venue selection to a priced table item.
type TableWizard struct {
	step             TableStep
	venuePreselected bool

	venue        *models.Venue
	date         models.Date
	maleGuests   int
	femaleGuests int
	table        *models.TableOption
	item         *models.BookableItem
	errs         fieldErrors

	ids       *models.IDFactory
	occupancy Occupancy
}

// NewTableWizard starts at the date step when the caller already knows the venue.
func NewTableWizard(ids *models.IDFactory, venue *models.Venue) *TableWizard {
	w := &TableWizard{
		step:      StepSelectVenue,
		ids:       ids,
		occupancy: OccupancyMap{},
		errs:      fieldErrors{},
	}
	if venue != nil {
		w.venue = venue
		w.venuePreselected = true
		w.step = StepSelectDateAndGuests
	}
	return w
}

func (w *TableWizard) Step() TableStep            { return w.step }
func (w *TableWizard) Venue() *models.Venue       { return w.venue }
func (w *TableWizard) Date() models.Date          { return w.date }
func (w *TableWizard) Table() *models.TableOption { return w.table }

func (w *TableWizard) Guests() (male, female int) {
	return w.maleGuests, w.femaleGuests
}

// Errors returns the field errors of the last rejected transition.
func (w *TableWizard) Errors() map[string]string {
	out := make(map[string]string, len(w.errs))
	for k, v := range w.errs {
		out[k] = v
	}
	return out
}

// Item is the emitted table item once the wizard is done.
func (w *TableWizard) Item() (models.BookableItem, bool) {
	if w.item == nil {
		return models.BookableItem{}, false
	}
	return w.item.Clone(), true
}

func (w *TableWizard) SetOccupancy(o Occupancy) {
	if o == nil {
		o = OccupancyMap{}
	}
	w.occupancy = o
}

func (w *TableWizard) SelectVenue(v *models.Venue) error {
	if w.step != StepSelectVenue {
		return ErrInvalidTransition
	}
	if v == nil {
		return ErrVenueNotFound
	}
	w.venue = v
	w.table = nil
	w.step = StepSelectDateAndGuests
	return nil
}

// SubmitDateAndGuests records the inputs and advances to table selection when every guard
// passes. Date and guest errors are reported independently; entered values are kept either way.
func (w *TableWizard) SubmitDateAndGuests(date models.Date, male, female int) error {
	if w.step != StepSelectDateAndGuests {
		return ErrInvalidTransition
	}
	w.date, w.maleGuests, w.femaleGuests = date, male, female

	errs := fieldErrors{}
	if msg := w.checkDate(date); msg != "" {
		errs[FieldDate] = msg
	}
	if male < 0 || female < 0 || male+female <= 0 {
		errs[FieldGuests] = "Add at least one guest"
	}
	w.errs = errs
	if err := errs.err(); err != nil {
		return err
	}
	w.step = StepSelectTable
	return nil
}

func (w *TableWizard) checkDate(date models.Date) string {
	if date.IsZero() {
		return "Select a date"
	}
	t, err := date.Time()
	if err != nil {
		return "Enter a valid date (YYYY-MM-DD)"
	}
	past, _ := date.Before(w.ids.Now())
	if past {
		return "Date cannot be in the past"
	}
	if !w.venue.OpenOn(t.Weekday()) {
		return fmt.Sprintf("%s is closed on %ss", w.venue.Name, t.Weekday())
	}
	return ""
}

// TableChoices lists the venue's tables, or the general inquiry table when it defines none.
func (w *TableWizard) TableChoices() []TableChoice {
	if w.venue == nil {
		return nil
	}
	options := w.venue.TableOptions
	if len(options) == 0 {
		options = []models.TableOption{models.GeneralInquiryTable(w.venue.ID)}
	}
	choices := make([]TableChoice, 0, len(options))
	for _, opt := range options {
		booked := w.occupancy.Booked(opt.ID, w.date)
		choices = append(choices, TableChoice{
			Option:     opt,
			Booked:     booked,
			Selectable: available(opt, booked),
			Surcharge:  pricing.Surcharge(opt.MinSpend),
			Total:      pricing.TableTotal(opt.MinSpend),
		})
	}
	return choices
}

func available(opt models.TableOption, booked int) bool {
	if opt.TotalAvailable == nil {
		return true
	}
	return booked < *opt.TotalAvailable
}

func (w *TableWizard) SelectTable(tableID string) error {
	if w.step != StepSelectTable {
		return ErrInvalidTransition
	}
	for _, c := range w.TableChoices() {
		if c.Option.ID != tableID {
			continue
		}
		if !c.Selectable {
			return ErrTableUnavailable
		}
		opt := c.Option
		w.table = &opt
		w.step = StepConfirm
		return nil
	}
	return ErrTableNotFound
}

// Quote is the confirm-screen breakdown for the selected table.
func (w *TableWizard) Quote() (minSpend, surcharge, total pricing.Amount, ok bool) {
	if w.table == nil {
		return 0, 0, 0, false
	}
	m := w.table.MinSpend
	return m, pricing.Surcharge(m), pricing.TableTotal(m), true
}

type TableConfirmation struct {
	PromoterID     string
	Guest          models.GuestIdentity
	SpecialRequest string
	Bottles        []models.BottleSelection
}

// Confirm emits the table item and finishes the wizard.
func (w *TableWizard) Confirm(c TableConfirmation) (models.BookableItem, error) {
	item, err := w.Build(c)
	if err != nil {
		return models.BookableItem{}, err
	}
	return w.Finish(item)
}

// Build validates the confirmation and returns the table item. The wizard stays on the
// confirm step until Finish.
func (w *TableWizard) Build(c TableConfirmation) (models.BookableItem, error) {
	if w.step != StepConfirm {
		return models.BookableItem{}, ErrInvalidTransition
	}
	if err := w.checkGuest(c.Guest); err != nil {
		return models.BookableItem{}, err
	}
	item, err := models.NewTableItem(w.ids, models.TableSelection{
		Venue:          w.venue,
		Table:          w.table,
		PromoterID:     c.PromoterID,
		Date:           w.date,
		GuestCount:     w.maleGuests + w.femaleGuests,
		Guest:          c.Guest,
		SpecialRequest: c.SpecialRequest,
		Bottles:        c.Bottles,
	})
	if err != nil {
		return models.BookableItem{}, err
	}
	return item, nil
}

// Finish records the item built by Build and moves the wizard to done.
func (w *TableWizard) Finish(item models.BookableItem) (models.BookableItem, error) {
	if w.step != StepConfirm {
		return models.BookableItem{}, ErrInvalidTransition
	}
	item = item.Clone()
	w.item = &item
	w.step = StepDone
	return item.Clone(), nil
}

func (w *TableWizard) checkGuest(g models.GuestIdentity) error {
	w.errs = guestErrors(g)
	return w.errs.err()
}

// Back returns to the previous step without re-validating anything.
func (w *TableWizard) Back() error {
	switch w.step {
	case StepSelectDateAndGuests:
		if w.venuePreselected {
			return ErrInvalidTransition
		}
		w.step = StepSelectVenue
	case StepSelectTable:
		w.step = StepSelectDateAndGuests
	case StepConfirm:
		w.step = StepSelectTable
	default:
		return ErrInvalidTransition
	}
	w.errs = fieldErrors{}
	return nil
}

func guestErrors(g models.GuestIdentity) fieldErrors {
	errs := fieldErrors{}
	if g.ForSelf {
		return errs
	}
	if g.Name == "" {
		errs[FieldName] = "Guest name is required"
	}
	if g.Email == "" {
		errs[FieldEmail] = "Guest email is required"
	}
	return errs
}

// TableSnapshot is the serializable view of a table wizard.
type TableSnapshot struct {
	Step         TableStep            `json:"step"`
	VenueID      string               `json:"venue_id,omitempty"`
	VenueName    string               `json:"venue_name,omitempty"`
	Date         models.Date          `json:"date,omitempty"`
	MaleGuests   int                  `json:"male_guests"`
	FemaleGuests int                  `json:"female_guests"`
	TableID      string               `json:"table_id,omitempty"`
	Errors       map[string]string    `json:"errors,omitempty"`
	Item         *models.BookableItem `json:"item,omitempty"`
}

func (w *TableWizard) Snapshot() TableSnapshot {
	s := TableSnapshot{
		Step:         w.step,
		Date:         w.date,
		MaleGuests:   w.maleGuests,
		FemaleGuests: w.femaleGuests,
		Errors:       w.Errors(),
	}
	if w.venue != nil {
		s.VenueID, s.VenueName = w.venue.ID, w.venue.Name
	}
	if w.table != nil {
		s.TableID = w.table.ID
	}
	if item, ok := w.Item(); ok {
		s.Item = &item
	}
	return s
}
