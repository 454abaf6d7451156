package entity

import "strconv"

// Slot names a piece of information an intent needs.
type Slot string

const (
	SlotDomain   Slot = "domain"
	SlotDate     Slot = "date"
	SlotType     Slot = "type"
	SlotMinutes  Slot = "minutes"
	SlotML       Slot = "ml"
	SlotMealType Slot = "mealType"
	SlotCalories Slot = "calories"
	SlotMood     Slot = "mood"
	SlotStress   Slot = "stress"
	SlotText     Slot = "text"
	SlotSymptom  Slot = "symptom"
	SlotSeverity Slot = "severity"
	SlotLabel    Slot = "label"
	SlotTime     Slot = "time"
	SlotActive   Slot = "active"
	SlotNotes    Slot = "notes"
)

// Kind tags which field of a Value is meaningful.
type Kind string

const (
	KindText   Kind = "text"
	KindNumber Kind = "number"
	KindFlag   Kind = "flag"
)

// Value is a typed slot value. Kind selects the populated field so values
// survive a JSON round-trip without losing integer or boolean types.
type Value struct {
	Kind   Kind   `json:"kind"`
	Text   string `json:"text,omitempty"`
	Number int    `json:"number,omitempty"`
	Flag   bool   `json:"flag,omitempty"`
}

// Text builds a text value (ISO dates, HH:MM times and free strings).
func Text(s string) Value { return Value{Kind: KindText, Text: s} }

// Number builds an integer value.
func Number(n int) Value { return Value{Kind: KindNumber, Number: n} }

// Flag builds a boolean value.
func Flag(b bool) Value { return Value{Kind: KindFlag, Flag: b} }

// Empty reports whether the value carries nothing usable.
func (v Value) Empty() bool {
	switch v.Kind {
	case KindText:
		return v.Text == ""
	case KindNumber, KindFlag:
		return false
	}
	return true
}

// String renders the value for prompts and confirmations.
func (v Value) String() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindNumber:
		return strconv.Itoa(v.Number)
	case KindFlag:
		return strconv.FormatBool(v.Flag)
	}
	return ""
}

// Bag maps slot names to extracted values. A missing key means absent.
type Bag map[Slot]Value

// Has reports whether slot holds a non-empty value.
func (b Bag) Has(slot Slot) bool {
	v, ok := b[slot]
	return ok && !v.Empty()
}

// Set stores v under slot when ok is true. It returns the bag for chaining.
func (b Bag) Set(slot Slot, v Value, ok bool) Bag {
	if ok && !v.Empty() {
		b[slot] = v
	}
	return b
}

// TextOf returns the text stored under slot.
func (b Bag) TextOf(slot Slot) (string, bool) {
	v, ok := b[slot]
	if !ok || v.Kind != KindText || v.Text == "" {
		return "", false
	}
	return v.Text, true
}

// NumberOf returns the integer stored under slot.
func (b Bag) NumberOf(slot Slot) (int, bool) {
	v, ok := b[slot]
	if !ok || v.Kind != KindNumber {
		return 0, false
	}
	return v.Number, true
}

// FlagOf returns the boolean stored under slot.
func (b Bag) FlagOf(slot Slot) (bool, bool) {
	v, ok := b[slot]
	if !ok || v.Kind != KindFlag {
		return false, false
	}
	return v.Flag, true
}

// Clone returns a shallow copy; Values are plain data so this is a full copy.
func (b Bag) Clone() Bag {
	out := make(Bag, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}
